package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"portfoliobot/internal/adapters/logger" // Import the logger package for LogLevel
)

// Ledger store backends.
const (
	LedgerStoreMongo  = "mongo"
	LedgerStoreSQLite = "sqlite"
)

// Quote source backends.
const (
	QuoteSourceYahoo   = "yahoo"
	QuoteSourceBinance = "binance"
)

// Config holds all application configuration.
type Config struct {
	// OpenAI API (conversational front-end)
	OpenAIAPIKey string
	OpenAIModel  string

	// Ledger store selection
	LedgerStore string

	// MongoDB (document store ledger)
	MongoURI      string
	MongoDatabase string

	// SQLite (local file ledger)
	DBPath string

	// Quote source selection
	QuoteSource string

	// Binance API keys (only needed for the binance quote source;
	// public price endpoints work without them)
	BinanceAPIKey    string
	BinanceSecretKey string

	// HTTP client settings for outbound calls (quotes, LLM)
	HTTPTimeout time.Duration

	// Logging
	LogLevel  logger.LogLevel // Use the LogLevel type from the logger adapter
	LogFormat string          // "text" or "json"
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	// OpenAI
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", "")
	if cfg.OpenAIAPIKey == "" {
		errs = append(errs, "OPENAI_API_KEY must be set")
	}
	cfg.OpenAIModel = getEnv("OPENAI_MODEL", "gpt-4.1-mini")

	// Ledger store
	cfg.LedgerStore = strings.ToLower(getEnv("LEDGER_STORE", LedgerStoreMongo))
	switch cfg.LedgerStore {
	case LedgerStoreMongo:
		cfg.MongoURI = getEnv("MONGODB_URI", "mongodb://localhost:27017")
		if cfg.MongoURI == "" {
			errs = append(errs, "MONGODB_URI must be set for the mongo ledger store")
		}
		cfg.MongoDatabase = getEnv("MONGODB_DATABASE", "portfolio_db")
	case LedgerStoreSQLite:
		cfg.DBPath = getEnv("DB_PATH", "./data/portfolio.db")
		if cfg.DBPath == "" {
			errs = append(errs, "DB_PATH must be set for the sqlite ledger store")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown LEDGER_STORE %q (expected %q or %q)", cfg.LedgerStore, LedgerStoreMongo, LedgerStoreSQLite))
	}

	// Quote source
	cfg.QuoteSource = strings.ToLower(getEnv("QUOTE_SOURCE", QuoteSourceYahoo))
	switch cfg.QuoteSource {
	case QuoteSourceYahoo:
		// No credentials required.
	case QuoteSourceBinance:
		cfg.BinanceAPIKey = getEnv("BINANCE_API_KEY", "")
		cfg.BinanceSecretKey = getEnv("BINANCE_API_SECRET", "")
	default:
		errs = append(errs, fmt.Sprintf("unknown QUOTE_SOURCE %q (expected %q or %q)", cfg.QuoteSource, QuoteSourceYahoo, QuoteSourceBinance))
	}

	// HTTP timeout
	timeoutSeconds, err := getEnvAsIntRequired("HTTP_TIMEOUT_SECONDS", 30)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid HTTP_TIMEOUT_SECONDS: %v", err))
	} else if timeoutSeconds <= 0 {
		errs = append(errs, "HTTP_TIMEOUT_SECONDS must be positive")
	}
	cfg.HTTPTimeout = time.Duration(timeoutSeconds) * time.Second

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", "text"))
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("unknown LOG_FORMAT %q (expected \"text\" or \"json\")", cfg.LogFormat))
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
