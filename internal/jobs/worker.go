package jobs

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/PratikDhanave/returns-ledger-service/internal/models"
)

// Worker wraps the Asynq server.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *zap.Logger
}

// TaskHandler allows injecting Asynq handlers during worker setup.
type TaskHandler struct {
	Type    string
	Handler asynq.HandlerFunc
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Concurrency int
	Logger      *zap.Logger
	Handlers    []TaskHandler
}

// NewWorker constructs a Worker instance.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			QueueLedger: 1,
		},
		Logger: cfg.Logger.Sugar(),
	})
	mux := asynq.NewServeMux()
	for _, h := range cfg.Handlers {
		if h.Type == "" || h.Handler == nil {
			continue
		}
		mux.HandleFunc(h.Type, h.Handler)
	}
	return &Worker{server: srv, mux: mux, logger: cfg.Logger}, nil
}

// Run processes tasks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	if err := w.server.Start(w.mux); err != nil {
		return err
	}
	<-ctx.Done()
	w.logger.Info("worker shutting down")
	w.server.Shutdown()
	return ctx.Err()
}

// Client submits ledger tasks to the queue.
type Client struct {
	client   *asynq.Client
	maxRetry int
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt, maxRetry int) *Client {
	return &Client{client: asynq.NewClient(redisOpts), maxRetry: maxRetry}
}

// EnqueueLedgerAppend queues a row for a deferred append.
func (c *Client) EnqueueLedgerAppend(ctx context.Context, row models.LedgerRow) error {
	task, err := NewLedgerAppendTask(row)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueLedger), asynq.MaxRetry(c.maxRetry))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
