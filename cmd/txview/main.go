package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"txview/internal/api"
	"txview/internal/backend"
	"txview/internal/cli"
	"txview/internal/config"
	"txview/internal/fetch"
	apphttp "txview/internal/http"
	"txview/internal/log"
	"txview/internal/view"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting txview",
		"port", cfg.Port,
		"data_backend", cfg.DataBackend,
		"page_size", cfg.PageSize,
		"api_latency", cfg.APILatency)

	if err := run(cfg, logger); err != nil {
		logger.Error("txview stopped with error", log.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		return err
	}

	transport := api.NewServer(res.Store, res.Approvals, api.Options{
		PageSize: cfg.PageSize,
		Latency:  cfg.APILatency,
	}, logger)
	coordinator := view.NewSession(transport, fetch.NewExpiringCache(cfg.CacheMaxEntries, cfg.CacheTTL), logger)
	srv := apphttp.NewServer(":"+cfg.Port, coordinator, apphttp.Options{}, logger)

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("HTTP shutdown failed", log.FieldError, err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	})

	go func() {
		if err := coordinator.Start(ctx); err != nil {
			logger.Warn("Initial load failed, retrying on first request", log.FieldError, err)
		}
	}()

	logger.Info("HTTP server listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	cli.WaitForShutdown(ctx, done)
	return nil
}
