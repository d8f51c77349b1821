package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/jwalitptl/cleaning-api/config"
	"github.com/jwalitptl/cleaning-api/pkg/logger"
)

// NewDB connects to Postgres, retrying with exponential backoff until
// maxWait has passed. The database is often still starting when the api and
// worker containers come up.
func NewDB(ctx context.Context, cfg config.DatabaseConfig, maxWait time.Duration, log *logger.Logger) (*sqlx.DB, error) {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = maxWait
	policy.MaxInterval = 15 * time.Second

	var db *sqlx.DB
	err := backoff.RetryNotify(
		func() error {
			conn, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			db = conn
			return nil
		},
		backoff.WithContext(policy, ctx),
		func(err error, next time.Duration) {
			log.Warn("database connection failed, retrying", "error", err.Error(), "next_attempt_in", next.String())
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}
