package ledger

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PratikDhanave/returns-ledger-service/internal/models"
)

// schemaSQL is embedded so the service can self-bootstrap its mirror table.
//
//go:embed schema.sql
var schemaSQL string

// PostgresSink mirrors ledger rows into Postgres for querying and audit.
type PostgresSink struct {
	pool *pgxpool.Pool
}

// NewPostgresSink creates a connection pool and fails fast if DB is unreachable.
func NewPostgresSink(ctx context.Context, dbURL string) (*PostgresSink, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("ledger/postgres: connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ledger/postgres: ping: %w", err)
	}

	return &PostgresSink{pool: pool}, nil
}

// EnsureSchema applies schema.sql. Safe to run multiple times.
func (p *PostgresSink) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, schemaSQL)
	return err
}

// Ping is used by the readiness endpoint.
func (p *PostgresSink) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (p *PostgresSink) Close() {
	p.pool.Close()
}

func (*PostgresSink) Name() string { return "postgres" }

// Append inserts one row. Repeated deliveries produce repeated rows.
func (p *PostgresSink) Append(ctx context.Context, row models.LedgerRow) error {
	if row.Timestamp.IsZero() {
		return errors.New("ledger/postgres: row timestamp required")
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO ledger_rows(
			id, ts, return_id, status, customer_name, tracking_number,
			brand_name, sku, quantity, reason, product_name
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		uuid.NewString(), row.Timestamp.UTC(), row.ReturnID, row.Status, row.CustomerName,
		row.TrackingNumber, row.BrandName, row.SKU, row.Quantity, row.Reason, row.ProductName,
	)
	if err != nil {
		return fmt.Errorf("ledger/postgres: insert: %w", err)
	}
	return nil
}

// CountRows returns how many rows were mirrored for a return id in the
// window [from,to).
func (p *PostgresSink) CountRows(ctx context.Context, returnID string, from, to time.Time) (int64, error) {
	var count int64
	err := p.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM ledger_rows
		WHERE return_id=$1
		  AND ts >= $2
		  AND ts <  $3
	`, returnID, from.UTC(), to.UTC()).Scan(&count)

	return count, err
}

var _ Sink = (*PostgresSink)(nil)
