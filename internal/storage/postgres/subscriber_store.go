// Package postgres provides the Postgres-backed subscriber store.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/questify/internal/subscriber"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "subscribers"

// Config controls the Postgres connection pool used for subscriber rows.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// SubscriberStore keeps one row per email; the email column is the primary key.
type SubscriberStore struct {
	pool  pool
	table string
}

// NewSubscriberStore connects to Postgres and creates the subscriber table if needed.
func NewSubscriberStore(ctx context.Context, cfg Config) (*SubscriberStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.uri is required for the postgres driver")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store := &SubscriberStore{pool: p, table: table}
	if err := store.EnsureSchema(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return store, nil
}

// NewSubscriberStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewSubscriberStoreWithPool(p pool, table string) (*SubscriberStore, error) {
	if p == nil {
		return nil, fmt.Errorf("pool is required")
	}
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &SubscriberStore{pool: p, table: name}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// EnsureSchema creates the subscriber table when it does not exist.
func (s *SubscriberStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	email      TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return subscriber.Wrap("ensure schema", err)
	}
	return nil
}

// Upsert inserts email unless a row with the same email already exists.
func (s *SubscriberStore) Upsert(ctx context.Context, email string) error {
	email, err := subscriber.NormalizeEmail(email)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s (email) VALUES ($1) ON CONFLICT (email) DO NOTHING`, s.table)
	if _, err := s.pool.Exec(ctx, query, email); err != nil {
		return subscriber.Wrap("upsert", err)
	}
	return nil
}

// ListEmails returns every stored email, oldest first.
func (s *SubscriberStore) ListEmails(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT email FROM %s ORDER BY created_at, email`, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, subscriber.Wrap("list", err)
	}
	emails, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, subscriber.Wrap("list", err)
	}
	return emails, nil
}

// Close releases the underlying pool resources.
func (s *SubscriberStore) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}
