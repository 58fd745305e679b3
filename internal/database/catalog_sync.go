package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wypozyczalnia/internal/config"
)

// QuantityChange is a capacity edit found during a catalog sync. It is applied separately
// through booking.Service.SetItemQuantity so it serializes with admissions on that item.
type QuantityChange struct {
	ItemID   int64
	Quantity int
}

// SyncCatalog applies catalog.yaml to the database.
// It upserts categories and items, marks items missing from the file inactive,
// and returns the quantity changes of existing items without applying them.
func (db *DB) SyncCatalog(ctx context.Context, cfg *config.CatalogConfig) ([]QuantityChange, error) {
	if cfg == nil {
		return nil, fmt.Errorf("catalog config is nil")
	}

	var changes []QuantityChange
	err := db.RunInTx(ctx, func(tx *sql.Tx) error {
		changes = nil
		now := time.Now().UTC()

		for _, cat := range cfg.Categories {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO categories (id, name, created_at, updated_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					name = excluded.name,
					updated_at = excluded.updated_at`,
				cat.ID, cat.Name, now, now,
			)
			if err != nil {
				return fmt.Errorf("sync category %d: %w", cat.ID, err)
			}
		}

		seen := make(map[int64]struct{}, len(cfg.Items))
		for i := range cfg.Items {
			entry := &cfg.Items[i]
			item, err := entry.ToModel(cfg.CategoryID(entry.Category))
			if err != nil {
				return fmt.Errorf("sync item %d: %w", entry.ID, err)
			}
			seen[item.ID] = struct{}{}

			category := sql.NullInt64{Int64: item.CategoryID, Valid: item.CategoryID != 0}

			var current int
			err = tx.QueryRowContext(ctx, `SELECT quantity FROM items WHERE id = ?`, item.ID).Scan(&current)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				_, err = tx.ExecContext(ctx, `
					INSERT INTO items (id, name, category_id, season, target_audience, size, quantity, price_per_hour, is_active, created_at, updated_at)
					VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
					item.ID, item.Name, category, string(item.Season), string(item.TargetAudience), item.Size,
					item.Quantity, item.PricePerHour, boolToInt(item.IsActive), now, now,
				)
				if err != nil {
					return fmt.Errorf("insert item %d: %w", item.ID, err)
				}
				continue
			case err != nil:
				return fmt.Errorf("read item %d: %w", item.ID, err)
			}

			_, err = tx.ExecContext(ctx, `
				UPDATE items
				SET name = ?, category_id = ?, season = ?, target_audience = ?, size = ?, price_per_hour = ?, is_active = ?, updated_at = ?
				WHERE id = ?`,
				item.Name, category, string(item.Season), string(item.TargetAudience), item.Size,
				item.PricePerHour, boolToInt(item.IsActive), now, item.ID,
			)
			if err != nil {
				return fmt.Errorf("update item %d: %w", item.ID, err)
			}
			if current != item.Quantity {
				changes = append(changes, QuantityChange{ItemID: item.ID, Quantity: item.Quantity})
			}
		}

		// Deactivate items that disappeared from config.
		rows, err := tx.QueryContext(ctx, `SELECT id FROM items WHERE is_active = 1`)
		if err != nil {
			return err
		}
		var stale []int64
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			if _, ok := seen[id]; !ok {
				stale = append(stale, id)
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		for _, id := range stale {
			if _, err := tx.ExecContext(ctx, `UPDATE items SET is_active = 0, updated_at = ? WHERE id = ?`, now, id); err != nil {
				return fmt.Errorf("deactivate item %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	db.logger.Info().Int("items", len(cfg.Items)).Int("quantity_changes", len(changes)).Msg("catalog synced")
	return changes, nil
}
