package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port         string
	DatabasePath string
	LogLevel     string

	// Remote mirror (Google-Apps-Script style web app). Empty disables sync.
	ScriptURL    string
	SyncDebounce time.Duration

	// Quote / exchange-rate collaborators.
	PriceAPIBaseURL     string
	RateAPIURL          string
	DefaultExchangeRate float64
	HTTPClientTimeout   time.Duration

	QuoteCacheTTL time.Duration
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	Cfg = &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./wealthfolio.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		ScriptURL:    getEnv("SCRIPT_URL", ""),
		SyncDebounce: getEnvAsDuration("SYNC_DEBOUNCE", 2*time.Second),

		PriceAPIBaseURL:     getEnv("PRICE_API_BASE_URL", "https://stock-api-vvn.vercel.app"),
		RateAPIURL:          getEnv("RATE_API_URL", "https://api.exchangerate-api.com/v4/latest/USD"),
		DefaultExchangeRate: getEnvAsFloat("DEFAULT_EXCHANGE_RATE", 32.5),
		HTTPClientTimeout:   getEnvAsDuration("HTTP_CLIENT_TIMEOUT", 20*time.Second),

		QuoteCacheTTL: getEnvAsDuration("QUOTE_CACHE_TTL", 5*time.Minute),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, SyncEnabled=%t",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.ScriptURL != "")
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
