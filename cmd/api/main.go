package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/leaseworks/lease-engine/internal/api/rest"
	"github.com/leaseworks/lease-engine/internal/domain/approval"
	"github.com/leaseworks/lease-engine/internal/domain/contract"
	"github.com/leaseworks/lease-engine/internal/domain/values"
	"github.com/leaseworks/lease-engine/internal/infrastructure/auth"
	"github.com/leaseworks/lease-engine/internal/infrastructure/cache"
	"github.com/leaseworks/lease-engine/internal/infrastructure/config"
	"github.com/leaseworks/lease-engine/internal/infrastructure/database"
	"github.com/leaseworks/lease-engine/internal/infrastructure/repository"
	"github.com/leaseworks/lease-engine/internal/infrastructure/telemetry"
	"github.com/leaseworks/lease-engine/internal/service/approvalflow"
	"github.com/leaseworks/lease-engine/internal/service/contractops"
	"github.com/leaseworks/lease-engine/internal/service/receiptops"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting lease engine api",
		"version", cfg.Version,
		"environment", cfg.Environment,
		"port", cfg.Server.Port)

	provider, err := telemetry.Setup(ctx, &telemetry.Config{
		ServiceName:    "lease-engine-api",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Enabled:        cfg.Telemetry.Enabled,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	// The database and cache layers log through zap.
	zapLogger, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("zap logger: %w", err)
	}
	defer zapLogger.Sync()

	pool, err := database.NewConnectionPool(&cfg.Database, zapLogger)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	contractRepo := repository.NewContractRepository(pool.Pool())
	receiptRepo := repository.NewReceiptRepository(pool.Pool())
	postingRepo := repository.NewPostingRepository(pool.Pool(), cfg.Ledger.VoucherPrefix)
	invoiceRepo := repository.NewInvoiceRepository(pool.Pool())
	taxRateRepo := repository.NewTaxRateRepository(pool.Pool())
	approvalRepo := repository.NewApprovalRepository(pool.Pool())

	health := map[string]rest.HealthChecker{
		"postgres": pool,
	}

	// Redis is optional. Without it tax rates are read straight from
	// Postgres and rate limiting stays per process.
	var taxRates contract.TaxRateLookup = taxRateRepo
	limiter := cache.RateLimiter(cache.NewLocalRateLimiter())
	if cfg.Redis.URL != "" {
		client, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer client.Close()

		redisCache, err := cache.NewRedisCache(client, zapLogger)
		if err != nil {
			return fmt.Errorf("redis cache: %w", err)
		}

		taxRates = cache.NewTaxRateCache(redisCache, taxRateRepo, 0, zapLogger)
		limiter = cache.NewRedisRateLimiter(client, zapLogger)
		health["redis"] = healthFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	threshold, err := values.NewMoneyFromFloat(cfg.Approval.Threshold, cfg.Approval.ThresholdCurrency)
	if err != nil {
		return fmt.Errorf("approval threshold: %w", err)
	}

	var authorizer approval.Authorizer = auth.NewCapabilityAuthorizer(pool.Pool())
	if cfg.Environment == "development" {
		authorizer = auth.NewStaticAuthorizer()
	}

	services := rest.Services{
		Contracts: contractops.NewService(contractRepo, taxRates, threshold, contractMetrics{}),
		Receipts:  receiptops.NewService(receiptRepo, postingRepo, invoiceRepo, threshold, receiptMetrics{}),
		Approvals: approvalflow.NewService(approvalRepo, authorizer, threshold, approvalMetrics{}),
	}

	server := rest.NewServer(cfg, rest.ServerDeps{
		Services:    services,
		Logger:      logger,
		Tracer:      telemetry.Tracer("api.rest"),
		RateLimiter: limiter,
		Health:      health,
	})

	return server.Run(ctx)
}

// healthFunc adapts a closure to rest.HealthChecker.
type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error {
	return f(ctx)
}
