// Package ledger appends enriched return rows to external row stores.
package ledger

import (
	"context"
	"sync"

	"github.com/PratikDhanave/returns-ledger-service/internal/models"
)

// Sink is an append-only row store.
type Sink interface {
	Name() string
	Append(ctx context.Context, row models.LedgerRow) error
}

// AppendRecorder receives one observation per sink append.
type AppendRecorder interface {
	ObserveAppend(sink string, err error)
}

// MemorySink keeps rows in process. It backs dry runs and tests.
type MemorySink struct {
	mu   sync.Mutex
	rows []models.LedgerRow
	err  error
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (*MemorySink) Name() string { return "memory" }

func (m *MemorySink) Append(_ context.Context, row models.LedgerRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, row)
	return nil
}

// FailWith makes subsequent appends return err; nil restores success.
func (m *MemorySink) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Rows returns a copy of the appended rows in order.
func (m *MemorySink) Rows() []models.LedgerRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.LedgerRow, len(m.rows))
	copy(out, m.rows)
	return out
}
