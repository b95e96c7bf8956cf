// Package app wires the application together: configuration, logging,
// the analysis service, the HTTP router and the server lifecycle.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"ecomlytics/internal/config"
	"ecomlytics/internal/exporter"
	"ecomlytics/internal/infrastructure"
	"ecomlytics/internal/services"
	transport "ecomlytics/internal/transport/http"
	"ecomlytics/pkg/contracts"
)

// AppName identifies the service in startup logs
const AppName = "ecomlytics"

// Application bundles the assembled components and the running server
type Application struct {
	Config  *config.Config
	Logger  *slog.Logger
	Service *services.AnalysisService
	Server  *http.Server
}

// NewApplication loads configuration and assembles every component
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger := infrastructure.InitializeLogger(cfg.Logging)

	service := services.NewAnalysisService(cfg.Paths.DataDir, logger)
	reports := exporter.NewReportWriter(cfg.Paths.ReportsDir, logger)

	router := transport.NewRouter(transport.RouterDeps{
		Service:  service,
		Reports:  reports,
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	})

	return &Application{
		Config:  cfg,
		Logger:  logger,
		Service: service,
		Server: &http.Server{
			Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:        router,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    cfg.Server.IdleTimeout,
			MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
		},
	}, nil
}

// Run starts the server and blocks until SIGINT/SIGTERM, then shuts down
// gracefully within the configured timeout.
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.Logger.InfoContext(ctx, "starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("data_dir", a.Config.Paths.DataDir),
		slog.String("reports_dir", a.Config.Paths.ReportsDir),
	)

	// Warm the dataset so the first request does not pay the load cost.
	// A failure is not fatal: the data directory may be populated later
	// and loaded through /api/reload.
	if _, err := a.Service.Reload(ctx); err != nil {
		a.Logger.WarnContext(ctx, "initial dataset load failed",
			slog.String("error", err.Error()))
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
