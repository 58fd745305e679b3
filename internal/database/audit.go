package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"wypozyczalnia/shared/audit"
)

// AuditTableNames are dumped into the monthly audit workbook.
var AuditTableNames = []string{
	"categories",
	"items",
	"users",
	"reservations",
}

var _ audit.TableExporter = (*DB)(nil)
var _ audit.ReservationSource = (*DB)(nil)

// GetTableNames returns list of table names to export.
func (db *DB) GetTableNames(_ context.Context) ([]string, error) {
	return AuditTableNames, nil
}

// GetTableData returns all rows from a table as maps.
func (db *DB) GetTableData(ctx context.Context, tableName string) (result []map[string]any, columns []string, err error) {
	if !slices.Contains(AuditTableNames, tableName) {
		return nil, nil, fmt.Errorf("invalid table name: %s", tableName)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return nil, nil, err
	}
	for rows.Next() {
		var (
			cid         int
			name, typ   string
			notNull, pk int
			dflt        sql.NullString
		)
		if errScan := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); errScan != nil {
			rows.Close()
			return nil, nil, errScan
		}
		columns = append(columns, name)
	}
	rows.Close()

	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("table %s has no columns", tableName)
	}

	dataRows, err := db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", tableName))
	if err != nil {
		return nil, nil, err
	}
	defer dataRows.Close()

	for dataRows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if errScan := dataRows.Scan(ptrs...); errScan != nil {
			return nil, nil, errScan
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}

	return result, columns, dataRows.Err()
}

// ReservationReport returns reservations overlapping [from, to) joined with their item and category.
func (db *DB) ReservationReport(ctx context.Context, from, to time.Time) ([]audit.ReservationRow, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT r.id, r.item_id, i.name, COALESCE(c.name, ''), r.user_id,
		       r.starts_at, r.ends_at, r.customer, r.student_email, r.total_price
		FROM reservations r
		JOIN items i ON i.id = r.item_id
		LEFT JOIN categories c ON c.id = i.category_id
		WHERE r.starts_at < ? AND r.ends_at > ?
		ORDER BY r.starts_at, r.id`,
		to.UnixNano(), from.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("reservation report: %w", err)
	}
	defer rows.Close()

	out := make([]audit.ReservationRow, 0)
	for rows.Next() {
		var (
			r          audit.ReservationRow
			start, end int64
			customer   string
		)
		if err := rows.Scan(&r.ReservationID, &r.ItemID, &r.ItemName, &r.Category, &r.UserID,
			&start, &end, &customer, &r.StudentEmail, &r.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		r.From = fromUnix(start)
		r.To = fromUnix(end)
		r.Student = customer == "student"
		out = append(out, r)
	}
	return out, rows.Err()
}
