package audit

import (
	"context"
	"fmt"
	"io"
	"time"
)

// TableExporter provides access to database tables for export.
type TableExporter interface {
	// GetTableNames returns list of table names to export.
	GetTableNames(ctx context.Context) ([]string, error)

	// GetTableData returns rows for a table as maps, plus the column order.
	GetTableData(ctx context.Context, tableName string) ([]map[string]any, []string, error)
}

// ReservationSource lists reservations with their item details for reports.
type ReservationSource interface {
	ReservationReport(ctx context.Context, from, to time.Time) ([]ReservationRow, error)
}

// ReservationRow is one line of the reservation report.
type ReservationRow struct {
	ReservationID int64
	ItemID        int64
	ItemName      string
	Category      string
	UserID        int64
	From          time.Time
	To            time.Time
	Student       bool
	StudentEmail  string
	TotalPrice    float64
}

// ExcelWriter writes data to Excel format.
type ExcelWriter interface {
	// AddSheet adds a new sheet with the given name.
	AddSheet(name string) error

	// WriteHeader writes column headers to current sheet.
	WriteHeader(columns []string) error

	// WriteRow writes a data row to current sheet.
	WriteRow(row []any) error

	// Save writes the Excel file to the writer.
	Save(w io.Writer) error

	// SaveToFile writes the Excel file to disk.
	SaveToFile(path string) error

	Close() error
}

// MonthNames in Polish for filename generation.
var MonthNames = map[time.Month]string{
	time.January:   "Styczen",
	time.February:  "Luty",
	time.March:     "Marzec",
	time.April:     "Kwiecien",
	time.May:       "Maj",
	time.June:      "Czerwiec",
	time.July:      "Lipiec",
	time.August:    "Sierpien",
	time.September: "Wrzesien",
	time.October:   "Pazdziernik",
	time.November:  "Listopad",
	time.December:  "Grudzien",
}

// GenerateFilename creates a filename like "Styczen_2026.xlsx"
func GenerateFilename(t time.Time) string {
	return fmt.Sprintf("%s_%d.xlsx", MonthNames[t.Month()], t.Year())
}
