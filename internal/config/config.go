package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config contains runtime configuration required by the service.
// Credentials are opaque to the pipeline; they are handed to the client
// constructors in main.
type Config struct {
	Addr         string `envconfig:"APP_ADDR" default:":8080"`
	WebhookPath  string `envconfig:"WEBHOOK_PATH" default:"/webhook/retouren" validate:"startswith=/"`
	WebhookToken string `envconfig:"WEBHOOK_TOKEN"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json console"`

	HTTPClientTimeout  time.Duration `envconfig:"HTTP_CLIENT_TIMEOUT" default:"10s" validate:"gt=0"`
	ResolveConcurrency int           `envconfig:"RESOLVE_CONCURRENCY" default:"4" validate:"min=1,max=64"`

	Fulfillment Fulfillment
	Shopify     Shopify
	Sheets      Sheets

	DBURL        string   `envconfig:"DB_URL"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `envconfig:"KAFKA_TOPIC" validate:"required_with=KafkaBrokers"`

	RedisAddr       string        `envconfig:"REDIS_ADDR"`
	CatalogCacheTTL time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"0s" validate:"gte=0"`
	LedgerRetryMax  int           `envconfig:"LEDGER_RETRY_MAX" default:"5" validate:"gte=0"`

	OtelEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OtelInsecure bool   `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"false"`
}

// Fulfillment configures the primary product catalog.
type Fulfillment struct {
	BaseURL   string `envconfig:"FULFILLMENT_BASE_URL" validate:"omitempty,url"`
	CompanyID string `envconfig:"FULFILLMENT_COMPANY_ID" validate:"required_with=BaseURL"`
	Username  string `envconfig:"FULFILLMENT_USERNAME"`
	Password  string `envconfig:"FULFILLMENT_PASSWORD"`
}

// Enabled reports whether the primary catalog is configured.
func (f Fulfillment) Enabled() bool {
	return f.BaseURL != "" && f.CompanyID != ""
}

// Shopify configures the fallback product catalog.
type Shopify struct {
	BaseURL     string `envconfig:"SHOPIFY_BASE_URL" validate:"omitempty,url"`
	Store       string `envconfig:"SHOPIFY_STORE"`
	AccessToken string `envconfig:"SHOPIFY_ACCESS_TOKEN"`
	APIVersion  string `envconfig:"SHOPIFY_API_VERSION" default:"2024-01"`
	PageSize    int    `envconfig:"SHOPIFY_PAGE_SIZE" default:"250" validate:"min=1,max=250"`
}

// Enabled reports whether the fallback catalog is configured.
func (s Shopify) Enabled() bool {
	return (s.BaseURL != "" || s.Store != "") && s.AccessToken != ""
}

// Sheets configures the spreadsheet ledger.
type Sheets struct {
	CredentialsFile string `envconfig:"SHEETS_CREDENTIALS_FILE" default:"credentials.json"`
	SpreadsheetID   string `envconfig:"SHEETS_SPREADSHEET_ID"`
	Range           string `envconfig:"SHEETS_RANGE" default:"Sheet1"`
}

// Enabled reports whether the spreadsheet ledger is configured.
func (s Sheets) Enabled() bool {
	return s.SpreadsheetID != ""
}

// ErrNoLedger is returned when no ledger sink is configured at all.
var ErrNoLedger = errors.New("config: one of SHEETS_SPREADSHEET_ID, DB_URL or KAFKA_BROKERS is required")

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadForCLI reads configuration without requiring a ledger sink.
func LoadForCLI() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and that at least one ledger sink exists.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !c.Sheets.Enabled() && strings.TrimSpace(c.DBURL) == "" && len(c.KafkaBrokers) == 0 {
		return ErrNoLedger
	}
	return nil
}
