package db

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is satisfied by *Store, *pgxpool.Pool and pgx.Tx, so repositories
// can run the same statements inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Querier = (*Store)(nil)
	_ Querier = pgx.Tx(nil)
)

type Options struct {
	DSN      string
	MaxConns int32
}

// Store owns the process' Postgres pool. It is constructed once in main and
// passed down; Reopen exists for tests that need a fresh pool.
type Store struct {
	opts Options

	mu   sync.RWMutex
	pool *pgxpool.Pool
}

var ErrClosed = errors.New("store is closed")

func Open(ctx context.Context, opts Options) (*Store, error) {
	pool, err := connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Store{opts: opts, pool: pool}, nil
}

func connect(ctx context.Context, opts Options) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	cfg.MaxConns = 10
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 15 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}

func (s *Store) current() (*pgxpool.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pool == nil {
		return nil, ErrClosed
	}
	return s.pool, nil
}

func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pool != nil {
		s.pool.Close()
		s.pool = nil
	}
}

// Reopen closes the current pool and connects again with the same options.
func (s *Store) Reopen(ctx context.Context) error {
	s.Close()

	pool, err := connect(ctx, s.opts)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.pool = pool
	s.mu.Unlock()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	pool, err := s.current()
	if err != nil {
		return err
	}
	return pool.Ping(ctx)
}

func (s *Store) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	pool, err := s.current()
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	return pool.Exec(ctx, sql, args...)
}

func (s *Store) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	pool, err := s.current()
	if err != nil {
		return nil, err
	}
	return pool.Query(ctx, sql, args...)
}

func (s *Store) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	pool, err := s.current()
	if err != nil {
		return errRow{err: err}
	}
	return pool.QueryRow(ctx, sql, args...)
}

// WithinTx runs fn in a transaction that commits when fn returns nil and
// rolls back otherwise.
func (s *Store) WithinTx(ctx context.Context, fn func(q Querier) error) error {
	pool, err := s.current()
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		return fn(tx)
	})
}

// Truncate empties every application table. Test helper.
func (s *Store) Truncate(ctx context.Context) error {
	_, err := s.Exec(ctx, `
		TRUNCATE history_entries, prescriptions, appointments, availability_slots,
		         doctors, specialties, patients, admins
		RESTART IDENTITY CASCADE
	`)
	if err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error {
	return r.err
}
