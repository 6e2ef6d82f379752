package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"signalTracker/internal/adapters/pricesource"
)

// Config holds all application configuration.
type Config struct {
	// Core behavior
	Enabled          bool          // Master switch; disabled runs parse-only
	PollInterval     time.Duration // Trade monitoring cycle interval
	SignalMarker     string        // Marker phrase identifying signal messages
	FailureThreshold int           // Consecutive price failures before a trade is dropped
	LevelProfile     string        // Multiplier profile name ("standard" or "wide")

	// Message filtering
	AllowedAuthorID   string // Only messages from this author become trades ("" = any)
	ExcludedChannelID string // Messages in this channel are never parsed

	// Telegram
	TelegramBotToken string
	LogChannelID     int64 // Probe/ops channel for existence checks and quota warnings

	// Price provider credentials
	Providers pricesource.Credentials

	// Database
	DBPath string

	// Logging
	LogLevel  string
	LogFormat string // "json" selects the structured logger
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var errs []string // Collect validation errors

	cfg.Enabled = getEnvAsBool("TRACKER_ENABLED", true)

	pollSeconds := getEnvAsInt("POLL_INTERVAL_SECONDS", 225)
	if pollSeconds <= 0 {
		errs = append(errs, "POLL_INTERVAL_SECONDS must be positive")
	}
	cfg.PollInterval = time.Duration(pollSeconds) * time.Second

	cfg.SignalMarker = getEnv("SIGNAL_MARKER", "Trade Signal For:")
	if strings.TrimSpace(cfg.SignalMarker) == "" {
		errs = append(errs, "SIGNAL_MARKER must be set")
	}

	cfg.FailureThreshold = getEnvAsInt("FAILURE_THRESHOLD", 3)
	if cfg.FailureThreshold <= 0 {
		errs = append(errs, "FAILURE_THRESHOLD must be positive")
	}

	cfg.LevelProfile = getEnv("LEVEL_PROFILE", "standard")

	cfg.AllowedAuthorID = getEnv("ALLOWED_AUTHOR_ID", "")
	cfg.ExcludedChannelID = getEnv("EXCLUDED_CHANNEL_ID", "")

	cfg.TelegramBotToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	logChannelStr := getEnv("TELEGRAM_LOG_CHANNEL_ID", "0")
	logChannel, err := strconv.ParseInt(logChannelStr, 10, 64)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid TELEGRAM_LOG_CHANNEL_ID: %v", err))
	}
	cfg.LogChannelID = logChannel

	cfg.Providers = pricesource.Credentials{
		FXAPI:          getEnv("FXAPI_KEY", ""),
		TwelveData:     getEnv("TWELVE_DATA_KEY", ""),
		FMP:            getEnv("FMP_KEY", ""),
		ExchangeRate:   getEnv("EXCHANGERATE_KEY", ""),
		CurrencyBeacon: getEnv("CURRENCYBEACON_KEY", ""),
		Fixer:          getEnv("FIXER_KEY", ""),
		APILayer:       getEnv("APILAYER_KEY", ""),
		CurrencyAPI:    getEnv("CURRENCYAPI_KEY", ""),
		OpenExchange:   getEnv("OPENEXCHANGE_APP_ID", ""),
		AbstractAPI:    getEnv("ABSTRACTAPI_KEY", ""),
		CurrencyLayer:  getEnv("CURRENCYLAYER_KEY", ""),
		Polygon:        getEnv("POLYGON_KEY", ""),
		AlphaVantage:   getEnv("ALPHA_VANTAGE_KEY", ""),
		BinanceAPIKey:  getEnv("BINANCE_API_KEY", ""),
		BinanceSecret:  getEnv("BINANCE_API_SECRET", ""),
	}
	if !anyCredential(cfg.Providers) {
		errs = append(errs, "at least one price provider credential must be set")
	}

	cfg.DBPath = getEnv("DB_PATH", "./data/signal_tracker.db")
	if cfg.DBPath == "" {
		errs = append(errs, "DB_PATH must be set")
	}

	cfg.LogLevel = getEnv("LOG_LEVEL", "INFO")
	cfg.LogFormat = getEnv("LOG_FORMAT", "text")

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// anyCredential reports whether at least one provider key is configured.
// Binance alone counts: its price endpoint is public, but a deployment that
// configured the key clearly means to use it.
func anyCredential(c pricesource.Credentials) bool {
	for _, key := range []string{
		c.FXAPI, c.TwelveData, c.FMP, c.ExchangeRate, c.CurrencyBeacon,
		c.Fixer, c.APILayer, c.CurrencyAPI, c.OpenExchange, c.AbstractAPI,
		c.CurrencyLayer, c.Polygon, c.AlphaVantage, c.BinanceAPIKey,
	} {
		if key != "" {
			return true
		}
	}
	return false
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
