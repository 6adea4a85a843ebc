package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/config"
	"github.com/kjstillabower/weather-dashboard/internal/dashboard"
	"github.com/kjstillabower/weather-dashboard/internal/lifecycle"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/observability"
	"github.com/kjstillabower/weather-dashboard/internal/relayclient"
)

func main() {
	logger, err := observability.NewLogger("weather-dashboard")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg.Dashboard, logger); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, cfg config.DashboardConfig, logger *zap.Logger) error {
	relay, err := relayclient.New(cfg.RelayURL, cfg.RelayTimeout)
	if err != nil {
		return fmt.Errorf("relay client: %w", err)
	}

	ctrl := dashboard.NewController(relay, logger, cfg.DefaultLocation, models.UnitPreference(cfg.DefaultUnit))
	handler, err := dashboard.NewHandler(ctrl, cfg.RefreshInterval, logger)
	if err != nil {
		return fmt.Errorf("dashboard templates: %w", err)
	}

	ctrl.Start(ctx)
	logger.Info("dashboard configured",
		zap.String("relay_url", cfg.RelayURL),
		zap.String("location", cfg.DefaultLocation),
		zap.String("unit", cfg.DefaultUnit))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      dashboard.NewRouter(handler, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := lifecycle.Run(ctx, srv, logger, 10*time.Second); err != nil {
		return err
	}
	ctrl.Wait()

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	return nil
}
