package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/leaseworks/lease-engine/internal/infrastructure/config"
)

// ConnectionPool wraps a pgx pool with the settings and health checks the
// engine's repositories need.
type ConnectionPool struct {
	pool            *pgxpool.Pool
	logger          *zap.Logger
	healthCheckStop chan struct{}
}

// NewConnectionPool connects to Postgres and starts the background health
// check. The pool is verified with a ping before it is returned.
func NewConnectionPool(cfg *config.DatabaseConfig, logger *zap.Logger) (*ConnectionPool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	poolCfg.MaxConnIdleTime = 10 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second
	poolCfg.ConnConfig.RuntimeParams = map[string]string{
		"application_name":  "lease_engine",
		"timezone":          "UTC",
		"lock_timeout":      "10s",
		"statement_timeout": "30s",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &ConnectionPool{
		pool:            pool,
		logger:          logger,
		healthCheckStop: make(chan struct{}),
	}
	go p.healthCheckRoutine()

	logger.Info("database connection pool initialized",
		zap.Int32("max_connections", poolCfg.MaxConns))
	return p, nil
}

// Pool exposes the underlying pgx pool for repositories.
func (p *ConnectionPool) Pool() *pgxpool.Pool {
	return p.pool
}

// Transaction runs fn inside one database transaction. Posting and reversal
// rely on this to write voucher legs and document flags atomically.
func (p *ConnectionPool) Transaction(ctx context.Context, fn func(pgx.Tx) error) error {
	return pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{}, fn)
}

// Health pings the database; used by the /healthz endpoint.
func (p *ConnectionPool) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.pool.Ping(ctx)
}

func (p *ConnectionPool) healthCheckRoutine() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := p.pool.Ping(ctx); err != nil {
				p.logger.Error("database health check failed", zap.Error(err))
			}
			cancel()
		case <-p.healthCheckStop:
			return
		}
	}
}

// DB returns a database/sql handle over the same pool, used by the
// golang-migrate runner.
func (p *ConnectionPool) DB() *sql.DB {
	return stdlib.OpenDBFromPool(p.pool)
}

// Close stops the health check and drains the pool.
func (p *ConnectionPool) Close() error {
	close(p.healthCheckStop)
	p.pool.Close()
	p.logger.Info("database connection pool closed")
	return nil
}
