// Package app builds the long-lived clients shared by the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/PratikDhanave/returns-ledger-service/internal/catalog"
	"github.com/PratikDhanave/returns-ledger-service/internal/config"
	"github.com/PratikDhanave/returns-ledger-service/internal/ledger"
)

// Resources owns everything that must be closed at shutdown.
type Resources struct {
	Postgres *ledger.PostgresSink
	Redis    *redis.Client
	closers  []func() error
}

// Close releases resources in reverse construction order.
func (r *Resources) Close() error {
	var err error
	for i := len(r.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, r.closers[i]())
	}
	r.closers = nil
	return err
}

func (r *Resources) onClose(fn func() error) {
	r.closers = append(r.closers, fn)
}

// RedisOpts returns the asynq connection options; ok is false without Redis.
func RedisOpts(cfg config.Config) (asynq.RedisClientOpt, bool) {
	if cfg.RedisAddr == "" {
		return asynq.RedisClientOpt{}, false
	}
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr}, true
}

// redisOptions keeps cache round trips short so an unreachable Redis only
// delays a lookup briefly before it falls through to the catalog.
func redisOptions(cfg config.Config) *redis.Options {
	return &redis.Options{
		Addr:         cfg.RedisAddr,
		DialTimeout:  500 * time.Millisecond,
		ReadTimeout:  250 * time.Millisecond,
		WriteTimeout: 250 * time.Millisecond,
		MaxRetries:   -1,
	}
}

// Connect opens the optional Redis client and Postgres pool.
func Connect(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Resources, error) {
	res := &Resources{}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(redisOptions(cfg))
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis ping", zap.Error(err))
		}
		res.Redis = client
		res.onClose(client.Close)
	}

	if cfg.DBURL != "" {
		pg, err := ledger.NewPostgresSink(ctx, cfg.DBURL)
		if err != nil {
			_ = res.Close()
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			_ = res.Close()
			return nil, fmt.Errorf("ledger/postgres: ensure schema: %w", err)
		}
		res.Postgres = pg
		res.onClose(func() error { pg.Close(); return nil })
	}

	return res, nil
}

// BuildResolver assembles the catalog chain: fulfillment first, Shopify second.
func BuildResolver(cfg config.Config, res *Resources, logger *zap.Logger, metrics catalog.LookupRecorder) *catalog.Resolver {
	client := catalog.NewHTTPClient(cfg.HTTPClientTimeout)

	var sources []catalog.Source
	if cfg.Fulfillment.Enabled() {
		sources = append(sources, catalog.NewFulfillmentSource(catalog.FulfillmentConfig{
			BaseURL:   cfg.Fulfillment.BaseURL,
			CompanyID: cfg.Fulfillment.CompanyID,
			Username:  cfg.Fulfillment.Username,
			Password:  cfg.Fulfillment.Password,
		}, client))
	}
	if cfg.Shopify.Enabled() {
		sources = append(sources, catalog.NewShopifySource(catalog.ShopifyConfig{
			BaseURL:     cfg.Shopify.BaseURL,
			Store:       cfg.Shopify.Store,
			AccessToken: cfg.Shopify.AccessToken,
			APIVersion:  cfg.Shopify.APIVersion,
			PageSize:    cfg.Shopify.PageSize,
		}, client))
	}
	if len(sources) == 0 {
		logger.Warn("no catalog sources configured, product names will be empty")
	}

	if res != nil && res.Redis != nil && cfg.CatalogCacheTTL > 0 {
		for i, s := range sources {
			sources[i] = catalog.NewCachedSource(s, res.Redis, cfg.CatalogCacheTTL, logger)
		}
	}

	r := catalog.NewResolver(logger, metrics, sources...)
	logger.Info("catalog resolver ready", zap.Strings("sources", r.Sources()))
	return r
}

// BuildSink assembles the ledger used by the webhook: the first configured of
// Sheets, Postgres, Kafka is primary and the others are mirrors. Only the
// primary is retried through queue; mirrors are written once, best effort.
func BuildSink(ctx context.Context, cfg config.Config, res *Resources, logger *zap.Logger, recorder ledger.AppendRecorder, queue ledger.Enqueuer) (ledger.Sink, error) {
	sinks, err := openSinks(ctx, cfg, res, false)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	logger.Info("ledger sinks ready", zap.Strings("sinks", names), zap.Bool("retry_queue", queue != nil))

	return ComposeLedger(logger, recorder, queue, sinks[0], sinks[1:]...), nil
}

// BuildReplaySink returns the sink queued rows are replayed into: the primary
// alone, since mirrors already received the row inline.
func BuildReplaySink(ctx context.Context, cfg config.Config, res *Resources, logger *zap.Logger, recorder ledger.AppendRecorder) (ledger.Sink, error) {
	sinks, err := openSinks(ctx, cfg, res, true)
	if err != nil {
		return nil, err
	}
	logger.Info("ledger replay sink ready", zap.String("sink", sinks[0].Name()))
	return ledger.NewFanoutSink(logger, recorder, sinks[0]), nil
}

// ComposeLedger wraps primary in a RetrySink and fans out to mirrors.
func ComposeLedger(logger *zap.Logger, recorder ledger.AppendRecorder, queue ledger.Enqueuer, primary ledger.Sink, mirrors ...ledger.Sink) ledger.Sink {
	return ledger.NewFanoutSink(logger, recorder, ledger.NewRetrySink(primary, queue, logger), mirrors...)
}

// openSinks opens the configured sinks in priority order.
func openSinks(ctx context.Context, cfg config.Config, res *Resources, primaryOnly bool) ([]ledger.Sink, error) {
	var openers []func() (ledger.Sink, error)

	if cfg.Sheets.Enabled() {
		openers = append(openers, func() (ledger.Sink, error) {
			return ledger.NewSheetsSink(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID, cfg.Sheets.Range)
		})
	}
	if res != nil && res.Postgres != nil {
		openers = append(openers, func() (ledger.Sink, error) {
			return res.Postgres, nil
		})
	}
	if len(cfg.KafkaBrokers) > 0 {
		openers = append(openers, func() (ledger.Sink, error) {
			k := ledger.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
			if res != nil {
				res.onClose(k.Close)
			}
			return k, nil
		})
	}
	if len(openers) == 0 {
		return nil, config.ErrNoLedger
	}
	if primaryOnly {
		openers = openers[:1]
	}

	sinks := make([]ledger.Sink, 0, len(openers))
	for _, open := range openers {
		s, err := open()
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}
