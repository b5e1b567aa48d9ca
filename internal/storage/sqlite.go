package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Veraticus/the-receipts-must-flow/internal/model"
	"github.com/Veraticus/the-receipts-must-flow/internal/service"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DefaultFileName is the ledger database name inside the workspace.
const DefaultFileName = "ledger.db"

// Ledger records appended batches in SQLite so repeated appends can be detected.
type Ledger struct {
	db     *sql.DB
	dbPath string
}

// NewLedger opens (creating if needed) the ledger database at dbPath.
// Call Migrate before use.
func NewLedger(dbPath string) (*Ledger, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Ledger{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (l *Ledger) Path() string {
	return l.dbPath
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Seen reports whether a batch with this hash was already appended.
func (l *Ledger) Seen(ctx context.Context, hash string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	if err := validateString(hash, "hash"); err != nil {
		return false, err
	}

	var one int
	err := l.db.QueryRowContext(ctx,
		`SELECT 1 FROM appended_batches WHERE hash = ?`, hash).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up batch: %w", err)
	}
	return true, nil
}

// Record stores an appended batch. Recording the same hash twice keeps the first entry.
func (l *Ledger) Record(ctx context.Context, entry model.BatchEntry) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateEntry(entry); err != nil {
		return err
	}

	appendedAt := entry.AppendedAt
	if appendedAt.IsZero() {
		appendedAt = time.Now()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO appended_batches (hash, target, vendor, receipt_date, rows, appended_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, entry.Hash, entry.Target, entry.Vendor, entry.ReceiptDate, entry.Rows, appendedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record batch: %w", err)
	}
	return nil
}

// Recent returns the most recently appended batches, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]model.BatchEntry, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT hash, target, vendor, receipt_date, rows, appended_at
		FROM appended_batches
		ORDER BY appended_at DESC, hash
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []model.BatchEntry
	for rows.Next() {
		var e model.BatchEntry
		if err := rows.Scan(&e.Hash, &e.Target, &e.Vendor, &e.ReceiptDate, &e.Rows, &e.AppendedAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate batches: %w", err)
	}

	return entries, nil
}

var _ service.BatchLedger = (*Ledger)(nil)
