package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PratikDhanave/returns-ledger-service/internal/catalog"
	"github.com/PratikDhanave/returns-ledger-service/internal/ledger"
)

var fixedNow = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type mapResolver struct {
	mu    sync.Mutex
	names map[string]string
	calls int
}

func (m *mapResolver) Resolve(_ context.Context, sku, _ string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.names[sku]
}

type source struct {
	name  string
	value string
	err   error
}

func (s source) Name() string { return s.name }

func (s source) Lookup(context.Context, catalog.Query) (string, error) { return s.value, s.err }

func TestProcess_ScenarioSingleRow(t *testing.T) {
	sink := ledger.NewMemorySink()
	resolver := catalog.NewResolver(nil, nil,
		source{name: "fulfillment", value: "Blue Mug"},
		source{name: "shopify", value: "Other"},
	)
	p := NewProcessor(resolver, sink, nil, WithClock(clock))

	res := p.Process(context.Background(), []byte(`{"id":"R1","status":"approved","return_products":[{"fulfillment_product":{"sku":"ABC123","id":"p1"},"amount_expected":2,"reason":"damaged"}]}`))

	assert.Equal(t, "R1", res.ReturnID)
	assert.Equal(t, 1, res.Appended)
	assert.Zero(t, res.Failed)

	rows := sink.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, []interface{}{
		"2026-10-19T08:00:00.000000Z", "R1", "approved", "", "", "", "ABC123", 2, "damaged", "Blue Mug",
	}, rows[0].Values())
}

func TestProcess_ZeroQuantityProducesNoRows(t *testing.T) {
	sink := ledger.NewMemorySink()
	resolver := &mapResolver{}
	p := NewProcessor(resolver, sink, nil)

	res := p.Process(context.Background(), []byte(`{"id":"R1","status":"approved","return_products":[{"fulfillment_product":{"sku":"ABC123","id":"p1"},"amount_expected":0,"reason":"damaged"}]}`))

	assert.Empty(t, res.Rows)
	assert.Empty(t, sink.Rows())
	assert.Zero(t, resolver.calls)
}

func TestProcess_FallbackNameWhenPrimaryErrors(t *testing.T) {
	sink := ledger.NewMemorySink()
	resolver := catalog.NewResolver(nil, nil,
		source{name: "fulfillment", err: errors.New("context deadline exceeded")},
		source{name: "shopify", value: "Red Cup"},
	)
	p := NewProcessor(resolver, sink, nil)

	p.Process(context.Background(), []byte(`{"id":"R2","return_products":[{"fulfillment_product":{"sku":"XYZ"},"amount_expected":"1"}]}`))

	rows := sink.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Red Cup", rows[0].ProductName)
	assert.Equal(t, 1, rows[0].Quantity)
}

func TestProcess_OneRowPerPositiveItemInOrder(t *testing.T) {
	sink := ledger.NewMemorySink()
	names := map[string]string{}
	body := `{"id":"R3","return_products":[`
	for i := 0; i < 20; i++ {
		sku := fmt.Sprintf("SKU-%02d", i)
		names[sku] = "Product " + sku
		qty := i % 3 // 0 skipped
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf(`{"fulfillment_product":{"sku":%q},"amount_expected":%d}`, sku, qty)
	}
	body += `]}`

	p := NewProcessor(&mapResolver{names: names}, sink, nil, WithConcurrency(5), WithClock(clock))
	res := p.Process(context.Background(), []byte(body))

	rows := sink.Rows()
	require.Len(t, rows, res.Appended)
	var want []string
	for i := 0; i < 20; i++ {
		if i%3 != 0 {
			want = append(want, fmt.Sprintf("SKU-%02d", i))
		}
	}
	var got []string
	for _, r := range rows {
		got = append(got, r.SKU)
		assert.Equal(t, "Product "+r.SKU, r.ProductName)
		assert.Positive(t, r.Quantity)
		assert.Equal(t, fixedNow, r.Timestamp)
	}
	assert.Equal(t, want, got)
}

func TestProcess_InvalidPayload(t *testing.T) {
	sink := ledger.NewMemorySink()
	res := NewProcessor(&mapResolver{}, sink, nil).Process(context.Background(), []byte(`not json`))

	assert.True(t, res.Invalid)
	assert.Empty(t, sink.Rows())
}

func TestProcess_AppendFailureIsCounted(t *testing.T) {
	sink := ledger.NewMemorySink()
	sink.FailWith(errors.New("sheet locked"))

	res := NewProcessor(&mapResolver{}, sink, nil).Process(context.Background(),
		[]byte(`{"id":"R4","return_products":[{"fulfillment_product":{"sku":"A"},"amount_expected":1},{"fulfillment_product":{"sku":"B"},"amount_expected":1}]}`))

	assert.Equal(t, 2, res.Failed)
	assert.Zero(t, res.Appended)
	assert.Len(t, res.Rows, 2)
}

func TestProcess_EventFieldsCopiedToRows(t *testing.T) {
	sink := ledger.NewMemorySink()
	p := NewProcessor(&mapResolver{}, sink, nil)

	p.Process(context.Background(), []byte(`{
		"id":"R5","status":"received",
		"brand":{"name":"Acme"},
		"consumer_contact":{"name":"Jan"},
		"return_shipment":{"tracking_number":"3S123"},
		"return_products":[{"fulfillment_product":{"sku":""},"amount_expected":1,"reason":"other"}]
	}`))

	rows := sink.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0].BrandName)
	assert.Equal(t, "Jan", rows[0].CustomerName)
	assert.Equal(t, "3S123", rows[0].TrackingNumber)
	assert.Empty(t, rows[0].ProductName)
}
