package main

import (
	"context"
	"errors"
	"os"
	"time"

	"txview/internal/amqp"
	"txview/internal/backend"
	"txview/internal/cli"
	"txview/internal/config"
	"txview/internal/log"
	"txview/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.RequireAMQP(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Starting approval-worker", "data_backend", cfg.DataBackend, "queue", cfg.AMQPQueue)

	if err := run(cfg, logger); err != nil {
		logger.Error("approval-worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	// The worker consumes; it never publishes.
	backendCfg.AMQPURL = ""

	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		return err
	}
	defer res.Cleanup()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	err = worker.NewAuditWorker(res.Recorder, logger).Run(ctx, client)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	cli.WaitForShutdown(ctx, done)
	return nil
}
