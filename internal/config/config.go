package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port         int
	DevMode      bool
	LogLevel     string
	DatabasePath string

	// Provider credentials and endpoints
	PolygonAPIKey    string
	NewsBaseURL      string
	NewsUsername     string
	NewsPassword     string
	YahooBaseURL     string
	PolygonBaseURL   string

	// Scanner settings
	Watchlist       []string
	Expirations     int
	ScanDelay       time.Duration
	ThresholdsPath  string
	MoversCacheTTL  time.Duration
	OptionsCacheTTL time.Duration
	ValueCacheTTL   time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvAsInt("PORT", 8010),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabasePath: getEnv("DATABASE_PATH", "./data/market.db"),

		PolygonAPIKey:  getEnv("POLYGON_API_KEY", ""),
		NewsBaseURL:    getEnv("NEWS_BASE_URL", ""),
		NewsUsername:   getEnv("NEWS_USERNAME", ""),
		NewsPassword:   getEnv("NEWS_PASSWORD", ""),
		YahooBaseURL:   getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
		PolygonBaseURL: getEnv("POLYGON_BASE_URL", "https://api.polygon.io"),

		Watchlist:       getEnvAsList("WATCHLIST", []string{"SPY", "QQQ", "AAPL", "MSFT", "NVDA", "TSLA"}),
		Expirations:     getEnvAsInt("SCAN_EXPIRATIONS", 2),
		ScanDelay:       getEnvAsDuration("SCAN_DELAY", 3*time.Second),
		ThresholdsPath:  getEnv("THRESHOLDS_PATH", ""),
		MoversCacheTTL:  getEnvAsDuration("MOVERS_CACHE_TTL", 2*time.Minute),
		OptionsCacheTTL: getEnvAsDuration("OPTIONS_CACHE_TTL", 90*time.Second),
		ValueCacheTTL:   getEnvAsDuration("VALUE_CACHE_TTL", 15*time.Minute),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if len(c.Watchlist) == 0 {
		return fmt.Errorf("WATCHLIST must contain at least one symbol")
	}

	// Note: Polygon and news credentials optional; movers and news
	// endpoints degrade to empty responses without them.

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(strings.ToUpper(part))
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
