package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/PratikDhanave/returns-ledger-service/internal/app"
	"github.com/PratikDhanave/returns-ledger-service/internal/config"
	"github.com/PratikDhanave/returns-ledger-service/internal/jobs"
	"github.com/PratikDhanave/returns-ledger-service/internal/logging"
	"github.com/PratikDhanave/returns-ledger-service/internal/observability"
)

// main replays ledger rows whose inline append failed.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	redisOpts, ok := app.RedisOpts(cfg)
	if !ok {
		logger.Fatal("REDIS_ADDR is required for the worker")
	}

	res, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("connect backing stores", zap.Error(err))
	}
	defer func() { _ = res.Close() }()

	sink, err := app.BuildReplaySink(ctx, cfg, res, logger, observability.NewMetrics())
	if err != nil {
		logger.Fatal("build ledger", zap.Error(err))
	}

	job := jobs.NewLedgerAppendJob(sink, logger)
	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLedgerAppend, Handler: job.Handle},
		},
	})
	if err != nil {
		logger.Fatal("build worker", zap.Error(err))
	}

	logger.Info("worker started", zap.String("queue", jobs.QueueLedger))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", zap.Error(err))
	}
}
