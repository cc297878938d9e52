package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// NewPool creates a pgx connection pool for PostgreSQL. It retries the first
// ping a few times so the service can start next to a database container
// that is still booting.
func NewPool(ctx context.Context, dsn string, logger *logrus.Entry) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 20
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	const attempts = 5
	for attempt := 1; ; attempt++ {
		err = pool.Ping(ctx)
		if err == nil {
			break
		}
		if attempt == attempts {
			pool.Close()
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.WithError(err).Warnf("Database ping %d/%d failed, retrying in 2s", attempt, attempts)
		select {
		case <-ctx.Done():
			pool.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	logger.Info("PostgreSQL connected")
	return pool, nil
}
