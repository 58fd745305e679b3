package audit

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds configuration for the audit service.
type Config struct {
	// OutputDir receives the monthly XLSX files.
	OutputDir string

	// ExportOnStart if true, exports the previous month immediately on start.
	ExportOnStart bool
}

// Service builds reservation reports and monthly audit exports.
type Service struct {
	config   Config
	exporter TableExporter
	source   ReservationSource
	writer   func() ExcelWriter // factory for creating new Excel writers
	logger   zerolog.Logger
	now      func() time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool
}

// NewService creates a new audit service. A nil writerFactory uses excelize.
func NewService(cfg Config, exporter TableExporter, source ReservationSource, writerFactory func() ExcelWriter, logger *zerolog.Logger) *Service {
	if cfg.OutputDir == "" {
		cfg.OutputDir = "reports"
	}
	if writerFactory == nil {
		writerFactory = NewExcelizeWriter
	}
	return &Service{
		config:   cfg,
		exporter: exporter,
		source:   source,
		writer:   writerFactory,
		logger:   logger.With().Str("component", "audit").Logger(),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

var reservationColumns = []string{
	"ID", "Item ID", "Item", "Category", "User ID", "From", "To", "Hours", "Student", "Student email", "Total price",
}

var summaryColumns = []string{"Item ID", "Item", "Reservations", "Hours", "Revenue"}

// WriteReservationReport writes an XLSX with the reservations overlapping [from, to)
// and a per-item summary sheet.
func (s *Service) WriteReservationReport(ctx context.Context, w io.Writer, from, to time.Time) error {
	excel := s.writer()
	defer func() { _ = excel.Close() }()

	if err := s.writeReservationSheets(ctx, excel, from, to); err != nil {
		return err
	}
	return excel.Save(w)
}

func (s *Service) writeReservationSheets(ctx context.Context, excel ExcelWriter, from, to time.Time) error {
	rows, err := s.source.ReservationReport(ctx, from, to)
	if err != nil {
		return fmt.Errorf("load reservations: %w", err)
	}

	if err := excel.AddSheet("Reservations"); err != nil {
		return err
	}
	if err := excel.WriteHeader(reservationColumns); err != nil {
		return err
	}

	type summary struct {
		name  string
		count int
		hours float64
		total float64
	}
	byItem := make(map[int64]*summary)

	for _, r := range rows {
		hours := r.To.Sub(r.From).Hours()
		student := "no"
		if r.Student {
			student = "yes"
		}
		if err := excel.WriteRow([]any{
			r.ReservationID, r.ItemID, r.ItemName, r.Category, r.UserID,
			r.From, r.To, hours, student, r.StudentEmail, r.TotalPrice,
		}); err != nil {
			return fmt.Errorf("write reservation %d: %w", r.ReservationID, err)
		}

		sum, ok := byItem[r.ItemID]
		if !ok {
			sum = &summary{name: r.ItemName}
			byItem[r.ItemID] = sum
		}
		sum.count++
		sum.hours += hours
		sum.total += r.TotalPrice
	}

	if err := excel.AddSheet("Summary"); err != nil {
		return err
	}
	if err := excel.WriteHeader(summaryColumns); err != nil {
		return err
	}

	ids := make([]int64, 0, len(byItem))
	for id := range byItem {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		sum := byItem[id]
		if err := excel.WriteRow([]any{id, sum.name, sum.count, sum.hours, roundCents(sum.total)}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) writeTables(ctx context.Context, excel ExcelWriter) error {
	tables, err := s.exporter.GetTableNames(ctx)
	if err != nil {
		return fmt.Errorf("get table names: %w", err)
	}

	for _, table := range tables {
		data, columns, err := s.exporter.GetTableData(ctx, table)
		if err != nil {
			return fmt.Errorf("get table %s: %w", table, err)
		}
		if err := excel.AddSheet(table); err != nil {
			return err
		}
		if err := excel.WriteHeader(columns); err != nil {
			return err
		}
		for _, row := range data {
			values := make([]any, len(columns))
			for i, col := range columns {
				values[i] = row[col]
			}
			if err := excel.WriteRow(values); err != nil {
				return err
			}
		}
	}
	return nil
}

// ExportMonth writes the report of the calendar month containing month, followed by a raw dump
// of every exported table, into OutputDir. It returns the file path.
func (s *Service) ExportMonth(ctx context.Context, month time.Time) (string, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	end := start.AddDate(0, 1, 0)

	excel := s.writer()
	defer func() { _ = excel.Close() }()

	if err := s.writeReservationSheets(ctx, excel, start, end); err != nil {
		return "", err
	}
	if s.exporter != nil {
		if err := s.writeTables(ctx, excel); err != nil {
			return "", err
		}
	}

	if err := os.MkdirAll(s.config.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := filepath.Join(s.config.OutputDir, GenerateFilename(start))
	if err := excel.SaveToFile(path); err != nil {
		return "", fmt.Errorf("save %s: %w", path, err)
	}

	s.logger.Info().Str("path", path).Msg("monthly export written")
	return path, nil
}

// Start begins the monthly export scheduler.
func (s *Service) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	if s.config.ExportOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.exportPreviousMonth()
		}()
	}

	s.wg.Add(1)
	go s.loop()

	s.logger.Info().Str("dir", s.config.OutputDir).Msg("audit service started")
}

// Stop gracefully stops the audit service.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()

	s.logger.Info().Msg("audit service stopped")
}

func (s *Service) loop() {
	defer s.wg.Done()

	nextRun := nextFirstOfMonth(s.now())
	timer := time.NewTimer(time.Until(nextRun))
	defer timer.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-timer.C:
			s.exportPreviousMonth()
			nextRun = nextFirstOfMonth(s.now())
			timer.Reset(time.Until(nextRun))
			s.logger.Info().Time("next_run", nextRun).Msg("next audit scheduled")
		}
	}
}

func (s *Service) exportPreviousMonth() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if _, err := s.ExportMonth(ctx, s.now().AddDate(0, -1, 0)); err != nil {
		s.logger.Error().Err(err).Msg("failed to export audit data")
	}
}

// nextFirstOfMonth returns 00:01 on the first day of the month after now.
func nextFirstOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()+1, 1, 0, 1, 0, 0, now.Location())
}

func roundCents(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
