package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens a connection pool for the configured database. The pool is
// lazy, so a bad URL only surfaces on first use.
func NewPool(ctx context.Context, config Config) (*pgxpool.Pool, error) {
	pgPool, err := pgxpool.New(ctx, config.ConnectionURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create PostgreSQL pool: %w", err)
	}
	return pgPool, nil
}

// WaitReady polls the database with a trivial query until it answers or the
// timeout elapses. A zero timeout means a single attempt.
func WaitReady(ctx context.Context, pgPool *pgxpool.Pool, timeout time.Duration) error {
	if timeout == 0 {
		return Select1(pgPool)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		_, err := pgPool.Exec(ctx, Select1Query)
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for PostgreSQL to come online")
		case <-time.After(1 * time.Second):
		}
	}
}
