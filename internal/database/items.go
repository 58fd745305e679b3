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

const itemColumns = `id, name, COALESCE(category_id, 0), season, target_audience, size, quantity, price_per_hour, is_active, created_at, updated_at`

// ItemFilter narrows ListItems. Zero fields are ignored.
type ItemFilter struct {
	Season          models.Season
	CategoryID      int64
	IncludeInactive bool
}

func scanItem(s rowScanner) (*models.EquipmentItem, error) {
	var (
		it       models.EquipmentItem
		season   string
		audience string
	)
	err := s.Scan(&it.ID, &it.Name, &it.CategoryID, &season, &audience, &it.Size, &it.Quantity, &it.PricePerHour, &it.IsActive, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	it.Season = models.Season(season)
	it.TargetAudience = models.TargetAudience(audience)
	return &it, nil
}

func getItem(ctx context.Context, q dbtx, id int64) (*models.EquipmentItem, error) {
	row := q.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, booking.ErrItemNotFound
	}
	if err != nil {
		return nil, translateErr(fmt.Errorf("get item %d: %w", id, err))
	}
	return it, nil
}

func setItemQuantity(ctx context.Context, q dbtx, itemID int64, quantity int) error {
	res, err := q.ExecContext(ctx,
		`UPDATE items SET quantity = ?, updated_at = ? WHERE id = ?`,
		quantity, time.Now().UTC(), itemID,
	)
	if err != nil {
		return translateErr(fmt.Errorf("set quantity of item %d: %w", itemID, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return booking.ErrItemNotFound
	}
	return nil
}

// GetItem implements booking.Reader.
func (db *DB) GetItem(ctx context.Context, id int64) (*models.EquipmentItem, error) {
	return getItem(ctx, db.DB, id)
}

// ListItems returns catalog items ordered by category and name.
func (db *DB) ListItems(ctx context.Context, filter ItemFilter) ([]models.EquipmentItem, error) {
	var (
		where []string
		args  []any
	)
	if !filter.IncludeInactive {
		where = append(where, "is_active = 1")
	}
	if filter.Season != "" {
		where = append(where, "season = ?")
		args = append(args, string(filter.Season))
	}
	if filter.CategoryID != 0 {
		where = append(where, "category_id = ?")
		args = append(args, filter.CategoryID)
	}

	query := `SELECT ` + itemColumns + ` FROM items`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY category_id, name, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]models.EquipmentItem, 0)
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// ListCategories returns all categories ordered by name.
func (db *DB) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategoryByName looks a category up by its unique name.
func (db *DB) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	var c models.Category
	err := db.QueryRowContext(ctx, `SELECT id, name FROM categories WHERE name = ?`, name).Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
