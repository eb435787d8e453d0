// Package catalog resolves product names for returned SKUs by asking an
// ordered list of upstream catalogs.
package catalog

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const tracerName = "github.com/PratikDhanave/returns-ledger-service/internal/catalog"

// Query identifies the product to look up. Either field may be empty.
type Query struct {
	SKU       string
	ProductID string
}

func (q Query) empty() bool {
	return q.SKU == "" && q.ProductID == ""
}

// Source is one upstream catalog. Lookup returns "" when the product is
// unknown; errors are reserved for transport and decoding failures.
type Source interface {
	Name() string
	Lookup(ctx context.Context, q Query) (string, error)
}

// LookupRecorder receives one observation per source lookup.
type LookupRecorder interface {
	ObserveLookup(source, result string)
}

const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

// Resolver walks its sources in order and returns the first non-empty name.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	sources []Source
	logger  *zap.Logger
	metrics LookupRecorder
}

// NewResolver builds a resolver. A nil logger is replaced by a no-op logger.
func NewResolver(logger *zap.Logger, metrics LookupRecorder, sources ...Source) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	kept := make([]Source, 0, len(sources))
	for _, s := range sources {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &Resolver{sources: kept, logger: logger, metrics: metrics}
}

// Sources returns the configured source names in lookup order.
func (r *Resolver) Sources() []string {
	names := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		names = append(names, s.Name())
	}
	return names
}

// Resolve never fails: upstream errors are logged and the next source is tried.
func (r *Resolver) Resolve(ctx context.Context, sku, productID string) string {
	q := Query{SKU: strings.TrimSpace(sku), ProductID: strings.TrimSpace(productID)}
	if q.empty() {
		return ""
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "catalog.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("catalog.sku", q.SKU), attribute.String("catalog.product_id", q.ProductID))

	for _, src := range r.sources {
		name, err := src.Lookup(ctx, q)
		if err != nil {
			r.observe(src.Name(), ResultError)
			span.RecordError(err)
			r.logger.Warn("catalog lookup failed",
				zap.String("source", src.Name()),
				zap.String("sku", q.SKU),
				zap.String("product_id", q.ProductID),
				zap.Error(err),
			)
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			r.observe(src.Name(), ResultMiss)
			continue
		}
		r.observe(src.Name(), ResultHit)
		span.SetAttributes(attribute.String("catalog.source", src.Name()))
		return name
	}

	span.AddEvent("no product name found")
	r.logger.Info("no product name found", zap.String("sku", q.SKU), zap.String("product_id", q.ProductID))
	return ""
}

func (r *Resolver) observe(source, result string) {
	if r.metrics != nil {
		r.metrics.ObserveLookup(source, result)
	}
}
