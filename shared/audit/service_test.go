package audit

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeSource struct {
	rows    []ReservationRow
	err     error
	gotFrom time.Time
	gotTo   time.Time
}

func (f *fakeSource) ReservationReport(_ context.Context, from, to time.Time) ([]ReservationRow, error) {
	f.gotFrom, f.gotTo = from, to
	return f.rows, f.err
}

type fakeExporter struct{}

func (fakeExporter) GetTableNames(context.Context) ([]string, error) {
	return []string{"items"}, nil
}

func (fakeExporter) GetTableData(_ context.Context, table string) ([]map[string]any, []string, error) {
	return []map[string]any{
		{"id": int64(1), "name": "Rower miejski"},
		{"id": int64(2), "name": "Kajak"},
	}, []string{"id", "name"}, nil
}

func newTestService(t *testing.T, src ReservationSource) *Service {
	t.Helper()
	logger := zerolog.Nop()
	return NewService(Config{OutputDir: t.TempDir()}, fakeExporter{}, src, nil, &logger)
}

func sampleRows() []ReservationRow {
	base := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	return []ReservationRow{
		{ReservationID: 1, ItemID: 7, ItemName: "Kajak", Category: "Wodne", UserID: 100,
			From: base, To: base.Add(2 * time.Hour), TotalPrice: 60},
		{ReservationID: 2, ItemID: 7, ItemName: "Kajak", Category: "Wodne", UserID: 101,
			From: base.Add(3 * time.Hour), To: base.Add(4 * time.Hour), Student: true,
			StudentEmail: "a@student.uw.edu.pl", TotalPrice: 24},
		{ReservationID: 3, ItemID: 3, ItemName: "Narty", Category: "Zimowy", UserID: 100,
			From: base, To: base.Add(time.Hour), TotalPrice: 15.5},
	}
}

func TestWriteReservationReport(t *testing.T) {
	src := &fakeSource{rows: sampleRows()}
	svc := newTestService(t, src)

	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteReservationReport(context.Background(), &buf, from, to))
	assert.Equal(t, from, src.gotFrom)
	assert.Equal(t, to, src.gotTo)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Reservations", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Reservations")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Kajak", rows[1][2])
	assert.Equal(t, "yes", rows[2][8])
	assert.Equal(t, "a@student.uw.edu.pl", rows[2][9])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.Len(t, summary, 3)
	// Sorted by item id.
	assert.Equal(t, "3", summary[1][0])
	assert.Equal(t, "7", summary[2][0])
	assert.Equal(t, "2", summary[2][2])
	assert.Equal(t, "84", summary[2][4])
}

func TestWriteReservationReport_SourceError(t *testing.T) {
	svc := newTestService(t, &fakeSource{err: errors.New("db down")})

	var buf bytes.Buffer
	err := svc.WriteReservationReport(context.Background(), &buf, time.Now(), time.Now().Add(time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Zero(t, buf.Len())
}

func TestExportMonth(t *testing.T) {
	src := &fakeSource{rows: sampleRows()}
	svc := newTestService(t, src)

	path, err := svc.ExportMonth(context.Background(), time.Date(2026, 5, 17, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Maj_2026.xlsx", filepath.Base(path))
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), src.gotFrom)
	assert.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), src.gotTo)

	_, err = os.Stat(path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Reservations", "Summary", "items"}, f.GetSheetList())

	items, err := f.GetRows("items")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"id", "name"}, items[0])
	assert.Equal(t, "Rower miejski", items[1][1])
}

func TestStartStop(t *testing.T) {
	svc := newTestService(t, &fakeSource{})
	svc.Start()
	svc.Start()
	svc.Stop()
	svc.Stop()
}

func TestNextFirstOfMonth(t *testing.T) {
	now := time.Date(2026, 12, 15, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2027, 1, 1, 0, 1, 0, 0, time.UTC), nextFirstOfMonth(now))
}

func TestGenerateFilename(t *testing.T) {
	assert.Equal(t, "Pazdziernik_2026.xlsx", GenerateFilename(time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)))
}
