// Package pipeline runs one return webhook delivery end to end:
// normalize, resolve product names, append ledger rows.
package pipeline

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/PratikDhanave/returns-ledger-service/internal/ledger"
	"github.com/PratikDhanave/returns-ledger-service/internal/models"
	"github.com/PratikDhanave/returns-ledger-service/internal/normalizer"
)

const tracerName = "github.com/PratikDhanave/returns-ledger-service/internal/pipeline"

// NameResolver maps a SKU and/or product id to a product name, "" if unknown.
type NameResolver interface {
	Resolve(ctx context.Context, sku, productID string) string
}

// Result summarises one processed delivery.
type Result struct {
	ReturnID string
	Rows     []models.LedgerRow
	Appended int
	Failed   int
	Invalid  bool
}

// Processor is safe for concurrent use; it keeps no per-delivery state.
type Processor struct {
	resolver    NameResolver
	sink        ledger.Sink
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
}

// Option customises a Processor.
type Option func(*Processor)

// WithConcurrency bounds parallel name resolution within one delivery.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithClock overrides the row timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Processor) {
		if now != nil {
			p.now = now
		}
	}
}

func NewProcessor(resolver NameResolver, sink ledger.Sink, logger *zap.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Processor{
		resolver:    resolver,
		sink:        sink,
		logger:      logger,
		concurrency: 4,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process never returns an error: malformed input yields zero rows and
// append failures are logged and counted in the result.
func (p *Processor) Process(ctx context.Context, body []byte) Result {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.Process")
	defer span.End()

	p.logger.Debug("return webhook received", zap.ByteString("payload", body))

	ev, err := normalizer.Normalize(body)
	if err != nil {
		p.logger.Warn("return webhook payload ignored", zap.Error(err))
		return Result{Invalid: true}
	}
	span.SetAttributes(attribute.String("return.id", ev.ID))

	rows := p.BuildRows(ctx, ev)
	res := Result{ReturnID: ev.ID, Rows: rows}
	span.SetAttributes(attribute.Int("return.rows", len(rows)))

	for _, row := range rows {
		if err := p.sink.Append(ctx, row); err != nil {
			res.Failed++
			p.logger.Error("ledger append failed",
				zap.String("sink", p.sink.Name()),
				zap.String("return_id", row.ReturnID),
				zap.String("sku", row.SKU),
				zap.Error(err),
			)
			continue
		}
		res.Appended++
	}

	p.logger.Info("return webhook processed",
		zap.String("return_id", ev.ID),
		zap.String("status", ev.Status),
		zap.Int("items", len(ev.Items)),
		zap.Int("rows", len(rows)),
		zap.Int("appended", res.Appended),
		zap.Int("failed", res.Failed),
	)
	return res
}

// BuildRows resolves names for qualifying items concurrently and returns rows
// in payload order, all sharing one timestamp.
func (p *Processor) BuildRows(ctx context.Context, ev models.ReturnEvent) []models.LedgerRow {
	items := normalizer.Qualifying(ev)
	if len(items) == 0 {
		return nil
	}

	names := make([]string, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, item := range items {
		g.Go(func() error {
			names[i] = p.resolver.Resolve(gctx, item.SKU, item.ProductID)
			return nil
		})
	}
	_ = g.Wait()

	ts := p.now().UTC()
	rows := make([]models.LedgerRow, len(items))
	for i, item := range items {
		rows[i] = models.NewLedgerRow(ts, ev, item, names[i])
	}
	return rows
}
