// Package database opens the pgx pool and runs schema migrations.
package database

import (
	"context"
	"fmt"

	pgxzerolog "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/shopstack/itemstore/internal/config"
	"github.com/shopstack/itemstore/internal/logging"
)

// NewPool opens a pgx pool for the configured database. Queries are traced
// through the APM agent when it is running, otherwise through the pipeline
// logger as records of type database.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, log *logging.Logger, nrApp *newrelic.Application) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}

	if nrApp != nil {
		pc.ConnConfig.Tracer = nrpgx5.NewTracer()
	} else {
		dbLogger := log.With().Str("type", logging.TypeDatabase).Logger()
		pc.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   pgxzerolog.NewLogger(dbLogger),
			LogLevel: tracelog.LogLevelInfo,
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
