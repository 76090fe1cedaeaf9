package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerPort         string
	LogLevel           string
	LedgerPath         string
	CachePath          string
	TwitchClientID     string
	TwitchClientSecret string
	BatchIntervalHours string
}

// SourceDelays holds the minimum delay between requests for each external
// data source. The delays are externally imposed by the sources' rate
// policies, not tunables.
type SourceDelays struct {
	PriceCatalog   time.Duration `json:"price_catalog"`
	Storefront     time.Duration `json:"storefront"`
	Metadata       time.Duration `json:"metadata"`
	KnowledgeGraph time.Duration `json:"knowledge_graph"`
	PromotionsFeed time.Duration `json:"promotions_feed"`
}

// DefaultSourceDelays returns the per-source request delays.
func DefaultSourceDelays() *SourceDelays {
	return &SourceDelays{
		PriceCatalog:   500 * time.Millisecond,
		Storefront:     1500 * time.Millisecond, // Storefront throttles aggressively
		Metadata:       250 * time.Millisecond,
		KnowledgeGraph: 1 * time.Second,
		PromotionsFeed: 500 * time.Millisecond,
	}
}

// HTTPRequestTimeout is the per-request timeout shared by all adapters.
const HTTPRequestTimeout = 10 * time.Second

// GetBatchInterval returns the pipeline interval from environment or default.
func (c *Config) GetBatchInterval() time.Duration {
	if c.BatchIntervalHours == "" {
		return 12 * time.Hour
	}

	hours, err := strconv.Atoi(c.BatchIntervalHours)
	if err != nil {
		logrus.Warnf("Invalid BATCH_INTERVAL_HOURS value: %s, using default 12 hours", c.BatchIntervalHours)
		return 12 * time.Hour
	}

	return time.Duration(hours) * time.Hour
}

// HasMetadataCredentials reports whether the metadata-service API key pair is
// configured. Without it the metadata adapter is skipped, not fatal.
func (c *Config) HasMetadataCredentials() bool {
	return c.TwitchClientID != "" && c.TwitchClientSecret != ""
}

func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		logrus.Warn("Error loading .env file, using system environment variables")
	}

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LedgerPath:         getEnv("LEDGER_PATH", "data/giveaways.csv"),
		CachePath:          getEnv("CACHE_PATH", "data/metadata_cache.json"),
		TwitchClientID:     getEnv("TWITCH_CLIENT_ID", ""),
		TwitchClientSecret: getEnv("TWITCH_CLIENT_SECRET", ""),
		BatchIntervalHours: getEnv("BATCH_INTERVAL_HOURS", "12"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
