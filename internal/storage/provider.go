// Package storage selects and opens the subscriber store backend.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/questify/internal/storage/memory"
	mongostore "github.com/JakeFAU/questify/internal/storage/mongo"
	"github.com/JakeFAU/questify/internal/storage/postgres"
	"github.com/JakeFAU/questify/internal/storage/sqlite"
	"github.com/JakeFAU/questify/internal/subscriber"
)

// Supported drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongo    = "mongo"
)

// Config describes the subscriber store.
type Config struct {
	Driver         string
	URI            string
	Database       string
	Table          string
	ConnectTimeout time.Duration
	MaxConns       int32
}

// ResolveDriver returns the configured driver, or infers it from the URI.
func ResolveDriver(cfg Config) (string, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case DriverMemory, DriverPostgres, DriverSQLite, DriverMongo:
		return driver, nil
	case "postgresql", "pgx":
		return DriverPostgres, nil
	case "sqlite3":
		return DriverSQLite, nil
	case "mongodb":
		return DriverMongo, nil
	case "":
	default:
		return "", fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	uri := strings.TrimSpace(cfg.URI)
	switch {
	case uri == "":
		return DriverMemory, nil
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return DriverMongo, nil
	case strings.HasPrefix(uri, "postgres://"), strings.HasPrefix(uri, "postgresql://"):
		return DriverPostgres, nil
	case strings.HasPrefix(uri, "file:"), strings.HasSuffix(uri, ".db"), strings.HasSuffix(uri, ".sqlite"):
		return DriverSQLite, nil
	default:
		return "", fmt.Errorf("cannot infer store driver from uri; set store.driver")
	}
}

// Open initializes the configured subscriber store.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (subscriber.Store, error) {
	driver, err := ResolveDriver(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		store   subscriber.Store
		openErr error
	)
	switch driver {
	case DriverPostgres:
		logger.Info("Using Postgres subscriber store")
		store, openErr = asStore(postgres.NewSubscriberStore(ctx, postgres.Config{
			DSN:      cfg.URI,
			Table:    cfg.Table,
			MaxConns: cfg.MaxConns,
		}))
	case DriverSQLite:
		logger.Info("Using SQLite subscriber store", zap.String("path", cfg.URI))
		store, openErr = asStore(sqlite.NewSubscriberStore(ctx, sqlite.Config{
			Path:        cfg.URI,
			Table:       cfg.Table,
			BusyTimeout: 5 * time.Second,
		}))
	case DriverMongo:
		logger.Info("Connecting to MongoDB subscriber store", zap.String("database", cfg.Database))
		store, openErr = asStore(mongostore.NewSubscriberStore(ctx, mongostore.Config{
			URI:            cfg.URI,
			Database:       cfg.Database,
			Collection:     cfg.Table,
			ConnectTimeout: cfg.ConnectTimeout,
		}))
	default:
		logger.Warn("Using in-memory subscriber store. Subscribers are lost on restart.")
		store = memory.NewSubscriberStore()
	}
	if openErr != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, openErr)
	}
	return store, nil
}

func asStore[S subscriber.Store](s S, err error) (subscriber.Store, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
