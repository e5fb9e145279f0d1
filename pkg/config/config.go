package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Pricing API
	API APIConfig

	// Local store
	Store StoreConfig

	// Owning configuration. Rows in the store that belong to a different
	// entry id are purged at startup.
	EntryID string

	// Logging
	LogLevel  string
	LogFormat string
}

// APIConfig holds Smart Energy Control API configuration.
type APIConfig struct {
	Key     string
	BaseURL string
	ZipCode string

	// Requests per second against the pricing API.
	RateLimit int
}

// StoreConfig holds the sqlite store configuration.
type StoreConfig struct {
	// Path to the sqlite file. Threaded explicitly into store.New; there
	// is no package-level database path.
	Path string
}

// Load reads configuration from environment variables. An explicit env file
// path takes precedence; otherwise the usual .env locations are probed.
// This is the only function that calls os.Getenv().
func Load(envFile string) (*Config, error) {
	loadEnvFile(envFile)

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		API: APIConfig{
			Key:       getEnv("SEC_API_KEY", ""),
			BaseURL:   getEnv("SEC_BASE_URL", "https://api.smartenergycontrol.be"),
			ZipCode:   getEnv("SEC_ZIP_CODE", "2000"),
			RateLimit: getEnvAsInt("SEC_API_RATE_LIMIT", 5),
		},

		Store: StoreConfig{
			Path: getEnv("SEC_DB_PATH", "sec_contracts.db"),
		},

		EntryID: getEnv("SEC_ENTRY_ID", "default"),

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	// The pricing API rejects unauthenticated calls.
	if c.Env != "development" && c.API.Key == "" {
		return fmt.Errorf("SEC_API_KEY is required")
	}

	if c.Store.Path == "" {
		return fmt.Errorf("SEC_DB_PATH must not be empty")
	}

	if c.EntryID == "" {
		return fmt.Errorf("SEC_ENTRY_ID must not be empty")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile(envFile string) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
		return
	}

	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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
