package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/petitecurve/storefront/config"
	"github.com/petitecurve/storefront/internal/bootstrap"
	"github.com/petitecurve/storefront/internal/infrastructure/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLog, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = zapLog.Sync() }()

	zapLog.Info("Starting storefront build v1.0.0",
		zap.Int("keywords", len(cfg.Search.Keywords)),
		zap.Int("tiers", len(cfg.Tiers)),
		zap.Int("max_api_calls", cfg.Throttle.MaxAPICalls),
		zap.String("output_dir", cfg.Output.Dir))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("Failed to initialise storefront", zap.Error(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			zapLog.Warn("Error closing resources", zap.Error(err))
		}
	}()

	report, runErr := app.Storefront.Run(ctx)

	if cfg.Metrics.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := app.Metrics.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			zapLog.Warn("Failed to push metrics", zap.Error(err))
		}
		cancel()
	}

	if runErr != nil {
		zapLog.Fatal("Storefront build failed", zap.Error(runErr))
	}

	zapLog.Info("Storefront build complete",
		zap.String("run_id", report.RunID),
		zap.Int("products", len(report.Products)),
		zap.Int("api_calls", report.APICalls),
		zap.Strings("artifacts", report.Artifacts))
}
