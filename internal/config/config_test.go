package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SHEETS_SPREADSHEET_ID", "sheet-1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "/webhook/retouren", cfg.WebhookPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.HTTPClientTimeout)
	assert.Equal(t, 4, cfg.ResolveConcurrency)
	assert.Equal(t, "credentials.json", cfg.Sheets.CredentialsFile)
	assert.Equal(t, "Sheet1", cfg.Sheets.Range)
	assert.Equal(t, "2024-01", cfg.Shopify.APIVersion)
	assert.Equal(t, 250, cfg.Shopify.PageSize)
	assert.Equal(t, 5, cfg.LedgerRetryMax)
	assert.True(t, cfg.Sheets.Enabled())
	assert.False(t, cfg.Fulfillment.Enabled())
	assert.False(t, cfg.Shopify.Enabled())
}

func TestLoad_CatalogSettings(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/returns")
	t.Setenv("FULFILLMENT_BASE_URL", "https://api.example.com/v1")
	t.Setenv("FULFILLMENT_COMPANY_ID", "42")
	t.Setenv("FULFILLMENT_USERNAME", "user")
	t.Setenv("FULFILLMENT_PASSWORD", "pass")
	t.Setenv("SHOPIFY_STORE", "acme")
	t.Setenv("SHOPIFY_ACCESS_TOKEN", "shpat_x")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("KAFKA_TOPIC", "returns.ledger")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Fulfillment.Enabled())
	assert.Equal(t, "42", cfg.Fulfillment.CompanyID)
	assert.Equal(t, "pass", cfg.Fulfillment.Password)
	assert.True(t, cfg.Shopify.Enabled())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_RequiresALedger(t *testing.T) {
	_, err := Load()
	assert.ErrorIs(t, err, ErrNoLedger)

	_, err = LoadForCLI()
	assert.NoError(t, err)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"LOG_LEVEL":           "verbose",
		"RESOLVE_CONCURRENCY": "0",
		"WEBHOOK_PATH":        "webhook",
		"KAFKA_BROKERS":       "k1:9092",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("SHEETS_SPREADSHEET_ID", "sheet-1")
			t.Setenv(key, value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_CompanyRequiredWithFulfillmentURL(t *testing.T) {
	t.Setenv("SHEETS_SPREADSHEET_ID", "sheet-1")
	t.Setenv("FULFILLMENT_BASE_URL", "https://api.example.com")

	_, err := Load()
	assert.Error(t, err)
}
