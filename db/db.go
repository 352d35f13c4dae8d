package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
)

// Connect opens a pool and pings it, giving up after timeout.
func Connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	// One state row; a handful of connections is plenty.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}

	return db, nil
}

// ConnectWithRetry keeps calling Connect with exponential backoff until it
// succeeds, ctx is done, or maxWait has elapsed. Useful when the database
// container starts alongside the server.
func ConnectWithRetry(ctx context.Context, logger *slog.Logger, dsn string, pingTimeout, maxWait time.Duration) (*sql.DB, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxElapsedTime = maxWait

	var conn *sql.DB
	attempt := 0
	operation := func() error {
		attempt++
		c, err := Connect(dsn, pingTimeout)
		if err != nil {
			logger.Warn("database not ready", slog.Int("attempt", attempt), slog.Any("error", err))
			return err
		}
		conn = c
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempt, err)
	}
	return conn, nil
}
