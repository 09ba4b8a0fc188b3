package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"bookstore-service/internal/port"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrLockTimeout reports that a transaction exceeded the configured
// lock-wait ceiling while waiting for a book row lock.
var ErrLockTimeout = errors.New("lock wait timeout exceeded")

// Config holds connection settings for the Postgres store.
type Config struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int

	// LockTimeout is applied per transaction via SET LOCAL lock_timeout.
	// Zero leaves the server default in place.
	LockTimeout time.Duration
}

// Store is the Postgres implementation of port.Store.
type Store struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

var _ port.Store = (*Store)(nil)

// NewStore connects to Postgres and configures the connection pool.
func NewStore(cfg Config) (*Store, error) {
	db, err := sqlx.Connect("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, lockTimeout: cfg.LockTimeout}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// RunMigrations applies the embedded schema migrations.
func (s *Store) RunMigrations() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migration source: %w", err)
	}

	driver, err := postgres.WithInstance(s.db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// WithinTx runs fn inside one transaction. The transaction commits only
// when fn returns nil; any error (or commit failure) rolls everything
// back, so no partial order is ever observable.
func (s *Store) WithinTx(ctx context.Context, fn func(tx port.Tx) error) error {
	txx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer txx.Rollback()

	if s.lockTimeout > 0 {
		// SET LOCAL scopes the ceiling to this transaction. The value
		// cannot be bound as a parameter; it comes from config, not input.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err := txx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("set lock_timeout: %w", err)
		}
	}

	if err := fn(&Tx{tx: txx}); err != nil {
		return err
	}

	if err := txx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// lock_not_available, raised when lock_timeout expires
const pqCodeLockNotAvailable = "55P03"

func isLockNotAvailable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqCodeLockNotAvailable
}
