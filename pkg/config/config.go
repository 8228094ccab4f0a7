// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Source selects where the raw subscription-billing records come from.
const (
	SourceCSV       = "csv"
	SourceSnowflake = "snowflake"
)

// Config represents the application configuration
type Config struct {
	// Raw input
	Source    string // "csv" or "snowflake"
	InputPath string // CSV file path when Source == "csv"

	// Database connections
	Postgres  *PostgresConfig
	Snowflake *SnowflakeConfig // only loaded when Source == "snowflake"

	// Pipeline settings
	Seed        int64  // seed for the synthetic enrichment columns
	ChunkSize   int    // rows per insert batch in the load stage
	WorkerCount int    // enrichment workers, 0 means runtime.NumCPU()
	TablesPath  string // optional YAML override for the lookup tables

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables. A .env file
// in the working directory is applied first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Source:      getEnv("PIPELINE_SOURCE", SourceCSV),
		InputPath:   getEnv("PIPELINE_INPUT", "data/raw/subscription-billing.csv"),
		Seed:        getEnvAsInt64("PIPELINE_SEED", 42),
		ChunkSize:   getEnvAsInt("PIPELINE_CHUNK_SIZE", 1000),
		WorkerCount: getEnvAsInt("PIPELINE_WORKERS", 0),
		TablesPath:  getEnv("PIPELINE_TABLES_FILE", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
	}

	pgConfig, err := LoadPostgresConfig()
	if err != nil {
		return nil, errors.New("failed to load PostgreSQL configuration: " + err.Error())
	}
	cfg.Postgres = pgConfig

	if cfg.Source == SourceSnowflake {
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return nil, errors.New("failed to load Snowflake configuration: " + err.Error())
		}
		cfg.Snowflake = snowConfig
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	switch c.Source {
	case SourceCSV:
		if c.InputPath == "" {
			return errors.New("input path is required for the csv source")
		}
	case SourceSnowflake:
		if c.Snowflake == nil {
			return errors.New("snowflake configuration is required for the snowflake source")
		}
	default:
		return fmt.Errorf("unknown source %q (expected %q or %q)", c.Source, SourceCSV, SourceSnowflake)
	}

	if c.Postgres == nil {
		return errors.New("postgreSQL configuration is required")
	}

	if c.ChunkSize <= 0 {
		return errors.New("chunk size must be positive")
	}

	if c.WorkerCount < 0 {
		return errors.New("worker count cannot be negative")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
