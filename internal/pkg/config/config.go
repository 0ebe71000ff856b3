package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	DashboardAddr string `env:"DASHBOARD_ADDR" envDefault:":8090"`
	AdminAddr     string `env:"ADMIN_ADDR" envDefault:":9091"`

	BackendURL          string        `env:"BACKEND_URL" envDefault:"http://localhost:5050"`
	BackendTimeout      time.Duration `env:"BACKEND_TIMEOUT" envDefault:"15s"`
	BackendLongTimeout  time.Duration `env:"BACKEND_LONG_TIMEOUT" envDefault:"120s"` // predict-file, split-file
	BackendTrainTimeout time.Duration `env:"BACKEND_TRAIN_TIMEOUT" envDefault:"60s"`
	BackendRateLimit    float64       `env:"BACKEND_RATE_LIMIT" envDefault:"10"` // requests per second, 0 disables
	BackendBurst        int           `env:"BACKEND_BURST" envDefault:"5"`
	HealthPollInterval  time.Duration `env:"BACKEND_HEALTH_INTERVAL" envDefault:"30s"`

	RedisURL         string        `env:"REDIS_URL"` // empty disables the report cache
	ReportCacheTTL   time.Duration `env:"REPORT_CACHE_TTL" envDefault:"10m"`
	PostgresURL      string        `env:"POSTGRES_URL"`       // empty disables the run archive
	SnapshotPath     string        `env:"SNAPSHOT_PATH"`      // empty disables dataset snapshots
	DashboardAPIKeys string        `env:"DASHBOARD_API_KEYS"` // comma separated
	APIKeysFromDB    bool          `env:"API_KEYS_FROM_DB" envDefault:"false"`
	APIKeyCacheTTL   time.Duration `env:"API_KEY_CACHE_TTL" envDefault:"5m"`
	RedactFields     string        `env:"ARCHIVE_REDACT_FIELDS"` // record fields masked in the run archive
	MaxRequestBytes  int64         `env:"MAX_REQUEST_BYTES" envDefault:"65536"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ArchiveRedactFields returns the record fields to mask before archiving.
func (c *Config) ArchiveRedactFields() []string {
	return splitList(c.RedactFields)
}

// APIKeys returns the configured dashboard keys with blanks removed.
func (c *Config) APIKeys() []string {
	return splitList(c.DashboardAPIKeys)
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
