package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"wypozyczalnia/internal/booking"
	"wypozyczalnia/internal/models"
)

// Tx is a write transaction handed to the admission critical section.
type Tx struct {
	q dbtx
}

var _ booking.Tx = (*Tx)(nil)

const reservationColumns = `id, item_id, user_id, starts_at, ends_at, customer, student_email, total_price, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(s rowScanner) (*models.Reservation, error) {
	var (
		r          models.Reservation
		start, end int64
		customer   string
	)
	err := s.Scan(&r.ID, &r.ItemID, &r.UserID, &start, &end, &customer, &r.StudentEmail, &r.TotalPrice, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.From = fromUnix(start)
	r.To = fromUnix(end)
	r.Customer = models.CustomerKind(customer)
	return &r, nil
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func getReservation(ctx context.Context, q dbtx, id int64) (*models.Reservation, error) {
	row := q.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	r, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrReservationNotFound
	}
	if err != nil {
		return nil, translateErr(fmt.Errorf("get reservation %d: %w", id, err))
	}
	return r, nil
}

// countOverlapping applies the half-open overlap rule: starts_at < to AND ends_at > from.
func countOverlapping(ctx context.Context, q dbtx, itemID int64, from, to time.Time, excludeID int64) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM reservations
		WHERE item_id = ? AND starts_at < ? AND ends_at > ? AND id != ?`,
		itemID, to.UnixNano(), from.UnixNano(), excludeID,
	).Scan(&count)
	if err != nil {
		return 0, translateErr(fmt.Errorf("count overlapping: %w", err))
	}
	return count, nil
}

// GetReservation implements booking.Reader.
func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	return getReservation(ctx, db.DB, id)
}

// CountOverlapping implements booking.Reader.
func (db *DB) CountOverlapping(ctx context.Context, itemID int64, from, to time.Time, excludeID int64) (int, error) {
	return countOverlapping(ctx, db.DB, itemID, from, to, excludeID)
}

// ListReservations returns reservations matching filter ordered by start time.
func (db *DB) ListReservations(ctx context.Context, filter booking.ReservationFilter) ([]models.Reservation, error) {
	var (
		where []string
		args  []any
	)
	if filter.ItemID != 0 {
		where = append(where, "item_id = ?")
		args = append(args, filter.ItemID)
	}
	if filter.UserID != 0 {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if !filter.From.IsZero() {
		where = append(where, "ends_at > ?")
		args = append(args, filter.From.UnixNano())
	}
	if !filter.To.IsZero() {
		where = append(where, "starts_at < ?")
		args = append(args, filter.To.UnixNano())
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY starts_at, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	out := make([]models.Reservation, 0)
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// DeleteReservation hard-deletes a reservation.
func (db *DB) DeleteReservation(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return translateErr(fmt.Errorf("delete reservation %d: %w", id, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrReservationNotFound
	}
	return nil
}

// GetItem implements booking.Reader.
func (t *Tx) GetItem(ctx context.Context, id int64) (*models.EquipmentItem, error) {
	return getItem(ctx, t.q, id)
}

// GetReservation implements booking.Reader.
func (t *Tx) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	return getReservation(ctx, t.q, id)
}

// CountOverlapping implements booking.Reader.
func (t *Tx) CountOverlapping(ctx context.Context, itemID int64, from, to time.Time, excludeID int64) (int, error) {
	return countOverlapping(ctx, t.q, itemID, from, to, excludeID)
}

// InsertReservation stores r and sets its ID.
func (t *Tx) InsertReservation(ctx context.Context, r *models.Reservation) error {
	res, err := t.q.ExecContext(ctx, `
		INSERT INTO reservations (item_id, user_id, starts_at, ends_at, customer, student_email, total_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ItemID, r.UserID, r.From.UnixNano(), r.To.UnixNano(), string(r.Customer), r.StudentEmail, r.TotalPrice, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return translateErr(fmt.Errorf("insert reservation: %w", err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last id: %w", err)
	}
	r.ID = id
	return nil
}

// UpdateReservation rewrites every mutable column of r.
func (t *Tx) UpdateReservation(ctx context.Context, r *models.Reservation) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE reservations
		SET item_id = ?, starts_at = ?, ends_at = ?, customer = ?, student_email = ?, total_price = ?, updated_at = ?
		WHERE id = ?`,
		r.ItemID, r.From.UnixNano(), r.To.UnixNano(), string(r.Customer), r.StudentEmail, r.TotalPrice, r.UpdatedAt, r.ID,
	)
	if err != nil {
		return translateErr(fmt.Errorf("update reservation %d: %w", r.ID, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrReservationNotFound
	}
	return nil
}

// SetItemQuantity changes an item's capacity.
func (t *Tx) SetItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	return setItemQuantity(ctx, t.q, itemID, quantity)
}
