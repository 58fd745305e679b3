package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wypozyczalnia/internal/booking"

	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// DB is the SQLite store behind the reservation engine.
type DB struct {
	*sql.DB
	path   string
	logger *zerolog.Logger
}

var _ booking.Store = (*DB)(nil)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewDB opens (creating if needed) the database at path and applies the schema.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// _txlock=immediate makes every write transaction take the database write lock on BEGIN,
	// so a second admission waits in BEGIN instead of reading a stale overlap count.
	dsn := path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_txlock=immediate&_foreign_keys=on"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	instance := &DB{
		DB:     db,
		path:   path,
		logger: logger,
	}

	if err := instance.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return instance, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) createTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			category_id INTEGER REFERENCES categories(id),
			season TEXT NOT NULL DEFAULT 'all_year',
			target_audience TEXT NOT NULL DEFAULT 'unisex',
			size TEXT NOT NULL DEFAULT '',
			quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
			price_per_hour REAL NOT NULL DEFAULT 0 CHECK (price_per_hour >= 0),
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'user',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		// starts_at and ends_at hold UTC unix nanoseconds so overlap predicates compare integers.
		`CREATE TABLE IF NOT EXISTS reservations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id INTEGER NOT NULL REFERENCES items(id),
			user_id INTEGER NOT NULL,
			starts_at INTEGER NOT NULL,
			ends_at INTEGER NOT NULL,
			customer TEXT NOT NULL DEFAULT 'regular',
			student_email TEXT NOT NULL DEFAULT '',
			total_price REAL NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			CHECK (starts_at < ends_at)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_items_active ON items(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_items_category ON items(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_item_span ON reservations(item_id, starts_at, ends_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_user_id ON reservations(user_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}

	return db.ensureNewColumns()
}

// ensureNewColumns adds columns introduced after the first schema to existing databases.
func (db *DB) ensureNewColumns() error {
	migrations := []string{
		`ALTER TABLE items ADD COLUMN size TEXT NOT NULL DEFAULT ''`,
		`ALTER TABLE reservations ADD COLUMN customer TEXT NOT NULL DEFAULT 'regular'`,
	}

	for _, m := range migrations {
		_, err := db.Exec(m)
		if err != nil && !strings.Contains(strings.ToLower(err.Error()), "duplicate column") {
			return fmt.Errorf("migration %q: %w", m, err)
		}
	}
	return nil
}

// RunInTx runs fn inside a write transaction. fn's error rolls the transaction back and is returned as is.
func (db *DB) RunInTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return translateErr(fmt.Errorf("begin tx: %w", err))
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return translateErr(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// WithTx implements booking.Store.
func (db *DB) WithTx(ctx context.Context, fn func(tx booking.Tx) error) error {
	return db.RunInTx(ctx, func(tx *sql.Tx) error {
		return fn(&Tx{q: tx})
	})
}

// translateErr maps SQLite lock contention onto booking.ErrConcurrencyConflict.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%w: %v", booking.ErrConcurrencyConflict, err)
	}
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
