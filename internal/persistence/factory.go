// Package persistence selects and opens the configured storage driver.
package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/persistence/memory"
	"example.com/exercisetracker/internal/persistence/postgres"
	"example.com/exercisetracker/internal/persistence/sqlite"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Options selects the driver and its connection settings.
type Options struct {
	Driver      string
	PostgresURL string
	SQLitePath  string
	Migrate     bool
}

// Store is the process-wide datastore handle shared by the user and exercise workflows.
type Store struct {
	Repository domain.Repository
	// Pool is set only for the postgres driver; the outbox dispatcher drains through it.
	Pool *pgxpool.Pool

	ping  func(context.Context) error
	close func()
}

// Ping reports whether the datastore is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases the datastore handle.
func (s *Store) Close() {
	s.close()
}

// Open connects to the configured driver and applies migrations when requested.
func Open(ctx context.Context, opts Options) (*Store, error) {
	switch opts.Driver {
	case DriverPostgres, "":
		pool, err := pgxpool.New(ctx, opts.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		repo := postgres.NewRepository(pool)
		if opts.Migrate {
			if err := repo.ApplyMigrations(); err != nil {
				pool.Close()
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		return &Store{Repository: repo, Pool: pool, ping: repo.Ping, close: pool.Close}, nil

	case DriverSQLite:
		repo, err := sqlite.Open(ctx, opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if opts.Migrate {
			if err := repo.ApplyMigrations(); err != nil {
				_ = repo.Close()
				return nil, fmt.Errorf("migrate sqlite: %w", err)
			}
		}
		return &Store{Repository: repo, ping: repo.Ping, close: func() { _ = repo.Close() }}, nil

	case DriverMemory:
		repo := memory.NewRepository()
		return &Store{Repository: repo, ping: repo.Ping, close: func() {}}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}
}
