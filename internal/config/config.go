// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir      string  // Base directory for the portfolio database and backup staging
	LogLevel     string  // debug, info, warn, error
	Port         int     // HTTP listen port
	DevMode      bool    // Relaxed CORS for local frontend development
	RiskFreeRate float64 // Annualized risk-free rate used for single-leg pricing endpoints

	Backup *BackupConfig // nil when cloud backups are not configured
}

// BackupConfig holds S3-compatible backup storage configuration.
// Works against AWS S3 as well as R2/MinIO style endpoints.
type BackupConfig struct {
	Bucket          string
	Endpoint        string // Optional custom endpoint; empty means plain AWS S3
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Schedule        string // Cron expression for the nightly backup job
	Keep            int    // Number of remote backups to retain
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("PAYOFF_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	absPath, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory to absolute path: %w", err)
	}
	dataDir = absPath

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	port, err := strconv.Atoi(getEnv("PORT", "8090"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value: %w", err)
	}

	riskFreeRate, err := strconv.ParseFloat(getEnv("RISK_FREE_RATE", "0.05"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RISK_FREE_RATE value: %w", err)
	}

	cfg := &Config{
		DataDir:      dataDir,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         port,
		DevMode:      getEnv("DEV_MODE", "false") == "true",
		RiskFreeRate: riskFreeRate,
	}

	// Backups are optional: only configured when a bucket is set.
	if bucket := getEnv("BACKUP_S3_BUCKET", ""); bucket != "" {
		keep, err := strconv.Atoi(getEnv("BACKUP_KEEP", "7"))
		if err != nil {
			return nil, fmt.Errorf("invalid BACKUP_KEEP value: %w", err)
		}

		cfg.Backup = &BackupConfig{
			Bucket:          bucket,
			Endpoint:        getEnv("BACKUP_S3_ENDPOINT", ""),
			Region:          getEnv("BACKUP_S3_REGION", "auto"),
			AccessKeyID:     getEnv("BACKUP_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("BACKUP_S3_SECRET_ACCESS_KEY", ""),
			Schedule:        getEnv("BACKUP_SCHEDULE", "0 0 3 * * *"),
			Keep:            keep,
		}
	}

	return cfg, nil
}

// getEnv retrieves an environment variable value, returning a fallback if the
// variable is not set or is empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
