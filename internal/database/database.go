// Package database is the persistence gateway. It owns the connection pool,
// runs parameterized statements only and retries operations that fail on a
// transient capacity error.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Config holds connection pool and retry settings
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	RetryAttempts   int
	RetryBackoff    time.Duration
}

// Result describes the outcome of an Exec
type Result struct {
	RowsAffected int64
}

// DB wraps the pool. It is built once at startup and shared by the repositories.
type DB struct {
	conn    *sqlx.DB
	log     *logrus.Logger
	retries int
	backoff time.Duration
}

// Open connects to PostgreSQL, configures the pool and verifies the connection
func Open(ctx context.Context, cfg Config, log *logrus.Logger) (*DB, error) {
	conn, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	db := New(conn, log, cfg.RetryAttempts, cfg.RetryBackoff)
	if err := db.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// New wraps an existing connection. attempts below 1 are treated as 1.
func New(conn *sqlx.DB, log *logrus.Logger, attempts int, backoff time.Duration) *DB {
	if attempts < 1 {
		attempts = 1
	}
	return &DB{conn: conn, log: log, retries: attempts, backoff: backoff}
}

// Get scans a single row into dest. sql.ErrNoRows is returned wrapped when
// nothing matches.
func (d *DB) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return d.withRetry(ctx, "get", func() error {
		return d.conn.GetContext(ctx, dest, query, args...)
	})
}

// Select scans all rows into dest, which must be a pointer to a slice
func (d *DB) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return d.withRetry(ctx, "select", func() error {
		return d.conn.SelectContext(ctx, dest, query, args...)
	})
}

// Exec runs a write statement and is retried on capacity errors, so callers
// must only pass idempotent statements (absolute updates, deletes by key, DDL).
func (d *DB) Exec(ctx context.Context, query string, args ...interface{}) (Result, error) {
	var res Result
	err := d.withRetry(ctx, "exec", func() error {
		r, err := d.conn.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err := r.RowsAffected()
		if err != nil {
			return err
		}
		res = Result{RowsAffected: n}
		return nil
	})
	return res, err
}

// InsertReturning runs an INSERT ... RETURNING statement and scans the
// returned columns into dest. Inserts are never retried.
func (d *DB) InsertReturning(ctx context.Context, query string, args []interface{}, dest ...interface{}) error {
	err := d.conn.QueryRowxContext(ctx, query, args...).Scan(dest...)
	if err != nil && isCapacityError(err) {
		return unavailable(err)
	}
	return err
}

// Ping checks that the store is reachable
func (d *DB) Ping(ctx context.Context) error {
	return d.conn.PingContext(ctx)
}

// Stats returns connection pool statistics
func (d *DB) Stats() sql.DBStats {
	return d.conn.Stats()
}

// Close releases the pool
func (d *DB) Close() error {
	return d.conn.Close()
}

// LogStats writes pool statistics at the given interval until ctx is done
func (d *DB) LogStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := d.Stats()
			d.log.WithFields(logrus.Fields{
				"open":          stats.OpenConnections,
				"idle":          stats.Idle,
				"in_use":        stats.InUse,
				"wait_count":    stats.WaitCount,
				"wait_duration": stats.WaitDuration.String(),
			}).Debug("Database pool stats")
		}
	}
}
