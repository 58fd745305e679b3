package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wypozyczalnia/internal/models"
)

// ErrNotFound is returned by lookups outside the reservation engine.
var ErrNotFound = errors.New("not found")

// GetUser returns a user by id.
func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	err := db.QueryRowContext(ctx, `SELECT id, name, role FROM users WHERE id = ?`, id).Scan(&u.ID, &u.Name, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	u.Role = models.Role(role)
	return &u, nil
}

// UpsertUser creates the user or updates its name and role.
func (db *DB) UpsertUser(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, name, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			updated_at = excluded.updated_at`,
		u.ID, u.Name, string(u.Role), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", u.ID, err)
	}
	return nil
}

// UserRole implements access.RoleRepository.
func (db *DB) UserRole(ctx context.Context, userID int64) (models.Role, bool, error) {
	u, err := db.GetUser(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return u.Role, true, nil
}
