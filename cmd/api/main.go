package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/PratikDhanave/returns-ledger-service/internal/app"
	"github.com/PratikDhanave/returns-ledger-service/internal/config"
	"github.com/PratikDhanave/returns-ledger-service/internal/httpserver"
	"github.com/PratikDhanave/returns-ledger-service/internal/jobs"
	"github.com/PratikDhanave/returns-ledger-service/internal/ledger"
	"github.com/PratikDhanave/returns-ledger-service/internal/logging"
	"github.com/PratikDhanave/returns-ledger-service/internal/observability"
	"github.com/PratikDhanave/returns-ledger-service/internal/pipeline"
)

// main boots the service: config → logger → tracing → clients → sinks → HTTP server.
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

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Endpoint: cfg.OtelEndpoint,
		Insecure: cfg.OtelInsecure,
	})
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
	}

	// Long-lived clients are shared read-only by every request.
	res, err := app.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("connect backing stores", zap.Error(err))
	}

	metrics := observability.NewMetrics()
	resolver := app.BuildResolver(cfg, res, logger, metrics)

	// Failed primary appends go to the retry queue when Redis is available.
	var queue ledger.Enqueuer
	if opts, ok := app.RedisOpts(cfg); ok {
		client := jobs.NewClient(opts, cfg.LedgerRetryMax)
		defer client.Close()
		queue = client
	}

	sink, err := app.BuildSink(ctx, cfg, res, logger, metrics, queue)
	if err != nil {
		logger.Fatal("build ledger", zap.Error(err))
	}

	proc := pipeline.NewProcessor(resolver, sink, logger, pipeline.WithConcurrency(cfg.ResolveConcurrency))

	var ready []httpserver.Pinger
	if res.Postgres != nil {
		ready = append(ready, res.Postgres)
	}
	router := httpserver.NewRouter(cfg, httpserver.Deps{
		Processor: proc,
		Metrics:   metrics,
		Logger:    logger,
		Ready:     ready,
	})
	srv := httpserver.NewServer(cfg.Addr, router)

	go func() {
		logger.Info("server started", zap.String("addr", cfg.Addr), zap.String("webhook_path", cfg.WebhookPath))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := res.Close(); err != nil {
		logger.Warn("close resources", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}
