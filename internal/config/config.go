package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"equiphouse/internal/docstore"
	"equiphouse/internal/inventory/cache"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	CacheMemory   = "memory"
	CacheRedis    = "redis"
)

type Config struct {
	AppHost       string
	DatabaseURL   string
	StoreDriver   string
	MigrationsDir string

	CacheBackend      string
	RedisURL          string
	EquipmentCacheTTL time.Duration
	TaxonomyCacheTTL  time.Duration

	MigrationBatchSize int

	GoogleCredentialsJSON string
	GoogleCredentialsFile string
	ReportSpreadsheetID   string

	AdminRateLimit  int
	AdminRateWindow time.Duration
	RequestTimeout  time.Duration
}

// LoadEnv reads a .env file when present. System variables win.
func LoadEnv() bool {
	return godotenv.Load() == nil
}

// Load builds the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{
		AppHost:               getenv("APP_HOST", ":8080"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		StoreDriver:           getenv("STORE_DRIVER", StorePostgres),
		MigrationsDir:         getenv("MIGRATIONS_DIR", "migrations"),
		CacheBackend:          getenv("CACHE_BACKEND", CacheMemory),
		RedisURL:              os.Getenv("REDIS_URL"),
		GoogleCredentialsJSON: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_JSON"),
		GoogleCredentialsFile: getenv("GOOGLE_SHEETS_CREDENTIALS_FILE", "configs/google-credentials.json"),
		ReportSpreadsheetID:   os.Getenv("REPORT_SPREADSHEET_ID"),
	}

	var err error
	if cfg.EquipmentCacheTTL, err = durationEnv("EQUIPMENT_CACHE_TTL", cache.DefaultEquipmentTTL); err != nil {
		return nil, err
	}
	if cfg.TaxonomyCacheTTL, err = durationEnv("TAXONOMY_CACHE_TTL", cache.DefaultTaxonomyTTL); err != nil {
		return nil, err
	}
	if cfg.AdminRateWindow, err = durationEnv("ADMIN_RATE_WINDOW", time.Minute); err != nil {
		return nil, err
	}
	if cfg.RequestTimeout, err = durationEnv("REQUEST_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.MigrationBatchSize, err = intEnv("MIGRATION_BATCH_SIZE", docstore.MaxBatchSize); err != nil {
		return nil, err
	}
	if cfg.AdminRateLimit, err = intEnv("ADMIN_RATE_LIMIT", 10); err != nil {
		return nil, err
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.CacheBackend {
	case CacheMemory:
	case CacheRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL environment variable is not set")
		}
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.MigrationBatchSize <= 0 || c.MigrationBatchSize > docstore.MaxBatchSize {
		return fmt.Errorf("MIGRATION_BATCH_SIZE must be between 1 and %d", docstore.MaxBatchSize)
	}

	return nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
