package ledger

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/PratikDhanave/returns-ledger-service/internal/models"
)

// Enqueuer hands a row to a background queue for a later append.
type Enqueuer interface {
	EnqueueLedgerAppend(ctx context.Context, row models.LedgerRow) error
}

// RetrySink queues rows whose inline append failed. Without a queue the
// failure is logged and the row dropped.
type RetrySink struct {
	next   Sink
	queue  Enqueuer
	logger *zap.Logger
}

func NewRetrySink(next Sink, queue Enqueuer, logger *zap.Logger) *RetrySink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetrySink{next: next, queue: queue, logger: logger}
}

func (r *RetrySink) Name() string { return r.next.Name() }

// Append returns nil when the row was either written or queued.
func (r *RetrySink) Append(ctx context.Context, row models.LedgerRow) error {
	err := r.next.Append(ctx, row)
	if err == nil {
		return nil
	}

	fields := []zap.Field{
		zap.String("sink", r.next.Name()),
		zap.String("return_id", row.ReturnID),
		zap.String("sku", row.SKU),
		zap.Error(err),
	}
	if r.queue == nil {
		r.logger.Error("ledger append failed, row dropped", fields...)
		return err
	}
	if qErr := r.queue.EnqueueLedgerAppend(ctx, row); qErr != nil {
		r.logger.Error("ledger append failed and could not be queued", append(fields, zap.NamedError("queue_error", qErr))...)
		return errors.Join(err, qErr)
	}
	r.logger.Warn("ledger append failed, row queued for retry", fields...)
	return nil
}

var _ Sink = (*RetrySink)(nil)
