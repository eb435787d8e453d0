package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/PratikDhanave/returns-ledger-service/internal/ledger"
	"github.com/PratikDhanave/returns-ledger-service/internal/models"
)

const (
	// QueueLedger is the queue holding deferred ledger appends.
	QueueLedger = "ledger"
	// TaskLedgerAppend replays a ledger row that failed to append inline.
	TaskLedgerAppend = "ledger:append"
)

// NewLedgerAppendTask constructs an Asynq task carrying the row as JSON.
func NewLedgerAppendTask(row models.LedgerRow) (*asynq.Task, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerAppend, data), nil
}

// LedgerAppendJob appends replayed rows to the configured sink.
type LedgerAppendJob struct {
	sink   ledger.Sink
	logger *zap.Logger
}

func NewLedgerAppendJob(sink ledger.Sink, logger *zap.Logger) *LedgerAppendJob {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerAppendJob{sink: sink, logger: logger}
}

// Handle processes TaskLedgerAppend tasks. Undecodable payloads are not retried.
func (j *LedgerAppendJob) Handle(ctx context.Context, t *asynq.Task) error {
	var row models.LedgerRow
	if err := json.Unmarshal(t.Payload(), &row); err != nil {
		j.logger.Error("ledger task payload invalid", zap.Error(err))
		return fmt.Errorf("decode ledger row: %v: %w", err, asynq.SkipRetry)
	}
	if err := j.sink.Append(ctx, row); err != nil {
		j.logger.Warn("ledger replay failed",
			zap.String("sink", j.sink.Name()),
			zap.String("return_id", row.ReturnID),
			zap.String("sku", row.SKU),
			zap.Error(err),
		)
		return err
	}
	j.logger.Info("ledger row replayed", zap.String("return_id", row.ReturnID), zap.String("sku", row.SKU))
	return nil
}
