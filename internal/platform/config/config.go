package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Host         string
	Port         string
	IsProduction bool

	// DefaultAPIBase is the base currency for API responses when the client
	// doesn't specify one. Internal storage always uses USD as the base.
	DefaultAPIBase string

	// SeedOnStartup loads bundled history files on boot when the database
	// is empty.
	SeedOnStartup bool
	SyncOnStartup bool
	SyncCron      string

	HTTPClientTimeout time.Duration
	RateLimit         string

	ECBSeedPath string
	NBUSeedPath string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("HOST", "0.0.0.0")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("DEFAULT_API_BASE", "USD")
	viper.SetDefault("SEED_ON_STARTUP", true)
	viper.SetDefault("SYNC_ON_STARTUP", true)
	viper.SetDefault("SYNC_CRON", "0 0 16 * * *") // 4 PM UTC daily, after ECB publishes
	viper.SetDefault("HTTP_CLIENT_TIMEOUT", "30s")
	viper.SetDefault("RATE_LIMIT", "120-M")
	viper.SetDefault("ECB_SEED_PATH", "seed_data/ecb-full-hist.xml")
	viper.SetDefault("NBU_SEED_PATH", "seed_data/nbu-full-hist.json")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}

	cfg.Host = viper.GetString("HOST")
	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.DefaultAPIBase = strings.ToUpper(viper.GetString("DEFAULT_API_BASE"))
	cfg.SeedOnStartup = viper.GetBool("SEED_ON_STARTUP")
	cfg.SyncOnStartup = viper.GetBool("SYNC_ON_STARTUP")
	cfg.SyncCron = viper.GetString("SYNC_CRON")

	timeoutStr := viper.GetString("HTTP_CLIENT_TIMEOUT")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		timeout = 30 * time.Second
		log.Printf("Warning: Invalid value for HTTP_CLIENT_TIMEOUT ('%s'). Defaulting to %s.\n", timeoutStr, timeout)
	}
	cfg.HTTPClientTimeout = timeout

	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.ECBSeedPath = viper.GetString("ECB_SEED_PATH")
	cfg.NBUSeedPath = viper.GetString("NBU_SEED_PATH")

	return cfg, nil
}
