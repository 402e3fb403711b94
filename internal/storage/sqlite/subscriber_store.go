// Package sqlite provides a SQLite-backed subscriber store using the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/JakeFAU/questify/internal/subscriber"
)

const schema = `
CREATE TABLE IF NOT EXISTS %s (
	email      TEXT PRIMARY KEY,
	created_at TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now'))
)`

const defaultTable = "subscribers"

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the SQLite database file.
type Config struct {
	Path        string
	Table       string
	BusyTimeout time.Duration
}

// SubscriberStore keeps subscribers in a single SQLite table.
type SubscriberStore struct {
	db    *sql.DB
	table string
}

// NewSubscriberStore opens (creating if needed) the database at cfg.Path.
func NewSubscriberStore(ctx context.Context, cfg Config) (*SubscriberStore, error) {
	path := strings.TrimPrefix(strings.TrimSpace(cfg.Path), "file:")
	if path == "" {
		return nil, errors.New("store.uri is required for the sqlite driver")
	}
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite prefers a single writer; one connection also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds())); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set busy timeout: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(schema, table)); err != nil {
		_ = db.Close()
		return nil, subscriber.Wrap("ensure schema", err)
	}
	return &SubscriberStore{db: db, table: table}, nil
}

// Upsert inserts email unless it is already stored.
func (s *SubscriberStore) Upsert(ctx context.Context, email string) error {
	email, err := subscriber.NormalizeEmail(email)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s(email) VALUES(?) ON CONFLICT(email) DO NOTHING`, s.table)
	_, err = s.db.ExecContext(ctx, query, email)
	return subscriber.Wrap("upsert", err)
}

// ListEmails returns every stored email in insertion order.
func (s *SubscriberStore) ListEmails(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT email FROM %s ORDER BY rowid`, s.table))
	if err != nil {
		return nil, subscriber.Wrap("list", err)
	}
	defer rows.Close()

	emails := []string{}
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, subscriber.Wrap("list", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, subscriber.Wrap("list", err)
	}
	return emails, nil
}

// Close closes the database handle.
func (s *SubscriberStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}
