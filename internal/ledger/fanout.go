package ledger

import (
	"context"

	"go.uber.org/zap"

	"github.com/PratikDhanave/returns-ledger-service/internal/models"
)

// FanoutSink writes to a primary sink and best-effort mirrors. Only the
// primary's result is returned.
type FanoutSink struct {
	primary  Sink
	mirrors  []Sink
	logger   *zap.Logger
	recorder AppendRecorder
}

func NewFanoutSink(logger *zap.Logger, recorder AppendRecorder, primary Sink, mirrors ...Sink) *FanoutSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FanoutSink{primary: primary, mirrors: mirrors, logger: logger, recorder: recorder}
}

func (f *FanoutSink) Name() string { return f.primary.Name() }

func (f *FanoutSink) Append(ctx context.Context, row models.LedgerRow) error {
	err := f.primary.Append(ctx, row)
	f.observe(f.primary.Name(), err)

	for _, m := range f.mirrors {
		mErr := m.Append(ctx, row)
		f.observe(m.Name(), mErr)
		if mErr != nil {
			f.logger.Warn("ledger mirror append failed",
				zap.String("sink", m.Name()),
				zap.String("return_id", row.ReturnID),
				zap.String("sku", row.SKU),
				zap.Error(mErr),
			)
		}
	}
	return err
}

func (f *FanoutSink) observe(sink string, err error) {
	if f.recorder != nil {
		f.recorder.ObserveAppend(sink, err)
	}
}

var _ Sink = (*FanoutSink)(nil)
