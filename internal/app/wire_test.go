package app

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/PratikDhanave/returns-ledger-service/internal/catalog"
	"github.com/PratikDhanave/returns-ledger-service/internal/config"
	"github.com/PratikDhanave/returns-ledger-service/internal/jobs"
	"github.com/PratikDhanave/returns-ledger-service/internal/ledger"
	"github.com/PratikDhanave/returns-ledger-service/internal/models"
)

func TestBuildResolver_SourceOrder(t *testing.T) {
	cfg := config.Config{
		HTTPClientTimeout: time.Second,
		Fulfillment:       config.Fulfillment{BaseURL: "https://api.example.com", CompanyID: "1"},
		Shopify:           config.Shopify{Store: "acme", AccessToken: "tok"},
	}

	r := BuildResolver(cfg, nil, zap.NewNop(), nil)
	assert.Equal(t, []string{catalog.FulfillmentSourceName, catalog.ShopifySourceName}, r.Sources())
}

func TestBuildResolver_NoSources(t *testing.T) {
	r := BuildResolver(config.Config{}, nil, zap.NewNop(), nil)
	assert.Empty(t, r.Sources())
	assert.Empty(t, r.Resolve(context.Background(), "ABC", ""))
}

func TestConnect_RedisEnablesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := config.Config{
		RedisAddr:       mr.Addr(),
		CatalogCacheTTL: time.Minute,
		Shopify:         config.Shopify{Store: "acme", AccessToken: "tok"},
	}

	res, err := Connect(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, res.Redis)
	t.Cleanup(func() { _ = res.Close() })

	r := BuildResolver(cfg, res, zap.NewNop(), nil)
	assert.Equal(t, []string{catalog.ShopifySourceName}, r.Sources())

	opts, ok := RedisOpts(cfg)
	assert.True(t, ok)
	assert.Equal(t, mr.Addr(), opts.Addr)
}

func TestBuildSink(t *testing.T) {
	_, err := BuildSink(context.Background(), config.Config{}, &Resources{}, zap.NewNop(), nil, nil)
	assert.ErrorIs(t, err, config.ErrNoLedger)

	res := &Resources{}
	sink, err := BuildSink(context.Background(), config.Config{
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "returns.ledger",
	}, res, zap.NewNop(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "kafka", sink.Name())
	assert.NoError(t, res.Close())
}

func TestBuildReplaySink(t *testing.T) {
	_, err := BuildReplaySink(context.Background(), config.Config{}, &Resources{}, zap.NewNop(), nil)
	assert.ErrorIs(t, err, config.ErrNoLedger)

	res := &Resources{}
	sink, err := BuildReplaySink(context.Background(), config.Config{
		KafkaBrokers: []string{"localhost:9092"},
		KafkaTopic:   "returns.ledger",
	}, res, zap.NewNop(), nil)
	require.NoError(t, err)
	assert.Equal(t, "kafka", sink.Name())
	assert.NoError(t, res.Close())
}

type taskQueue struct {
	tasks []*asynq.Task
}

func (q *taskQueue) EnqueueLedgerAppend(_ context.Context, row models.LedgerRow) error {
	task, err := jobs.NewLedgerAppendTask(row)
	if err != nil {
		return err
	}
	q.tasks = append(q.tasks, task)
	return nil
}

func TestLedger_RetryReplaysPrimaryOnly(t *testing.T) {
	ctx := context.Background()
	primary := ledger.NewMemorySink()
	mirror := ledger.NewMemorySink()
	queue := &taskQueue{}

	primary.FailWith(errors.New("sheets unavailable"))
	webhookSink := ComposeLedger(zap.NewNop(), nil, queue, primary, mirror)
	require.NoError(t, webhookSink.Append(ctx, models.LedgerRow{ReturnID: "R1", SKU: "A", Quantity: 1}))

	assert.Empty(t, primary.Rows())
	assert.Len(t, mirror.Rows(), 1)
	require.Len(t, queue.tasks, 1)

	// Worker side: the replay sink holds the primary alone.
	job := jobs.NewLedgerAppendJob(ledger.NewFanoutSink(zap.NewNop(), nil, primary), nil)
	assert.Error(t, job.Handle(ctx, queue.tasks[0]))

	primary.FailWith(nil)
	require.NoError(t, job.Handle(ctx, queue.tasks[0]))

	require.Len(t, primary.Rows(), 1)
	assert.Equal(t, "R1", primary.Rows()[0].ReturnID)
	assert.Len(t, mirror.Rows(), 1)
	assert.Len(t, queue.tasks, 1)
}

func TestRedisOptions_FailFast(t *testing.T) {
	opts := redisOptions(config.Config{RedisAddr: "localhost:6379"})
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, -1, opts.MaxRetries)
	assert.LessOrEqual(t, opts.DialTimeout, time.Second)
	assert.LessOrEqual(t, opts.ReadTimeout, time.Second)
}
