package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"utilstats/internal/wunderground"
)

var validate = validator.New()

// AppConfig holds all runtime configuration.
type AppConfig struct {
	// DataDir is where downloaded month files are cached.
	DataDir string `validate:"required"`

	// OutDir is where rendered chart files are written.
	OutDir string `validate:"required"`

	// URLTemplate is the monthly-history endpoint with {year}/{month}
	// placeholders.
	URLTemplate string `validate:"required"`

	// HTTPTimeout bounds each outbound fetch.
	HTTPTimeout time.Duration `validate:"gt=0"`

	Port     string `validate:"required"`
	LogLevel string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		DataDir:     getenvDefault("TEMP_DATA_DIR", "temp_data"),
		OutDir:      getenvDefault("CHART_OUT_DIR", "."),
		URLTemplate: getenvDefault("TEMP_DATA_URL", wunderground.DefaultURLTemplate),
		Port:        getenvDefault("PORT", "8080"),
		LogLevel:    getenvDefault("LOG_LEVEL", "info"),
	}

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// The validator cannot express placeholder checks; do them by hand.
	for _, placeholder := range []string{"{year}", "{month}"} {
		if !strings.Contains(cfg.URLTemplate, placeholder) {
			return nil, fmt.Errorf("TEMP_DATA_URL must contain %s", placeholder)
		}
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
