// Package config provides application configuration management.
// It loads settings from environment variables and provides defaults for
// the catalog sources, snapshot distribution, storage, and observability.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	LogFile         string // Optional rotating log file (empty = stdout only)
	ServerName      string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir     string // Data directory for SQLite database
	SnapshotDir string // Bundled snapshot used as the local catalog source
	ContentDir  string // Content directory served by GET /programs

	// Catalog Configuration
	RemoteBaseURL    string // Remote catalog API (empty = local snapshot only)
	RemoteTimeout    time.Duration
	RemoteMaxRetries int
	ItemsPerPage     int
	SessionIdleTTL   time.Duration
	RateLimitRPM     int // Requests per minute per client IP (0 = disabled)

	// Metrics Authentication
	MetricsAuthEnabled bool
	MetricsUsername    string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword    string

	R2          R2Config
	Sentry      SentryConfig
	BetterStack BetterStackConfig
}

// R2Config holds the snapshot distribution settings.
type R2Config struct {
	Enabled         bool
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	SnapshotKey     string
}

// Endpoint returns the S3-compatible endpoint for the account.
func (c R2Config) Endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}

// SentryConfig holds error tracking settings.
type SentryConfig struct {
	Enabled          bool
	Token            string
	Host             string
	Environment      string
	Release          string
	SampleRate       float64
	TracesSampleRate float64
}

// BetterStackConfig holds log shipping settings.
type BetterStackConfig struct {
	Enabled bool
	Token   string
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	dataDir := getEnv(EnvDataDir, getDefaultDataDir())

	cfg := &Config{
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		LogFile:         getEnv(EnvLogFile, ""),
		ServerName:      getEnv(EnvServerName, ""),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		DataDir:     dataDir,
		SnapshotDir: getEnv(EnvSnapshotDir, filepath.Join(dataDir, "snapshot")),
		ContentDir:  getEnv(EnvContentDir, filepath.Join(dataDir, "content")),

		RemoteBaseURL:    strings.TrimRight(getEnv(EnvRemoteBaseURL, ""), "/"),
		RemoteTimeout:    getDurationEnv(EnvRemoteTimeout, RemoteFetch),
		RemoteMaxRetries: getIntEnv(EnvRemoteRetries, 2),
		ItemsPerPage:     getIntEnv(EnvItemsPerPage, 9),
		SessionIdleTTL:   getDurationEnv(EnvSessionIdleTTL, SessionIdleTimeout),
		RateLimitRPM:     getIntEnv(EnvRateLimitRPM, 120),

		MetricsAuthEnabled: getBoolEnv(EnvMetricsAuthEnabled, false),
		MetricsUsername:    getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword:    getEnv(EnvMetricsPassword, ""),

		R2: R2Config{
			Enabled:         getBoolEnv(EnvR2Enabled, false),
			AccountID:       getEnv(EnvR2AccountID, ""),
			AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
			SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
			BucketName:      getEnv(EnvR2BucketName, ""),
			SnapshotKey:     getEnv(EnvR2SnapshotKey, "snapshots/catalog.tar.zst"),
		},

		Sentry: SentryConfig{
			Enabled:          getBoolEnv(EnvSentryEnabled, false),
			Token:            getEnv(EnvSentryToken, ""),
			Host:             getEnv(EnvSentryHost, ""),
			Environment:      getEnv(EnvSentryEnvironment, "production"),
			Release:          getEnv(EnvSentryRelease, ""),
			SampleRate:       getFloatEnv(EnvSentrySampleRate, 1.0),
			TracesSampleRate: getFloatEnv(EnvSentryTracesSampleRate, 0),
		},

		BetterStack: BetterStackConfig{
			Enabled: getBoolEnv(EnvBetterStackEnabled, false),
			Token:   getEnv(EnvBetterStackToken, ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New(EnvPort+" is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New(EnvDataDir+" is required"))
	}
	if c.SnapshotDir == "" {
		errs = append(errs, errors.New(EnvSnapshotDir+" is required"))
	}
	if c.RemoteBaseURL != "" {
		if u, err := url.Parse(c.RemoteBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", EnvRemoteBaseURL, c.RemoteBaseURL))
		}
	}
	if c.RemoteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvRemoteTimeout, c.RemoteTimeout))
	}
	if c.RemoteMaxRetries < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %d", EnvRemoteRetries, c.RemoteMaxRetries))
	}
	if c.ItemsPerPage <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvItemsPerPage, c.ItemsPerPage))
	}
	if c.SessionIdleTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvSessionIdleTTL, c.SessionIdleTTL))
	}
	if c.RateLimitRPM < 0 {
		errs = append(errs, fmt.Errorf("%s cannot be negative, got %d", EnvRateLimitRPM, c.RateLimitRPM))
	}
	if c.MetricsAuthEnabled && c.MetricsPassword == "" {
		errs = append(errs, errors.New(EnvMetricsPassword+" is required when metrics auth is enabled"))
	}
	if c.R2.Enabled {
		if c.R2.AccountID == "" || c.R2.AccessKeyID == "" || c.R2.SecretAccessKey == "" || c.R2.BucketName == "" {
			errs = append(errs, errors.New("R2 account id, access key, secret and bucket are required when R2 is enabled"))
		}
	}
	if c.Sentry.Enabled && (c.Sentry.Token == "" || c.Sentry.Host == "") {
		errs = append(errs, errors.New("sentry token and host are required when sentry is enabled"))
	}
	if c.BetterStack.Enabled && c.BetterStack.Token == "" {
		errs = append(errs, errors.New(EnvBetterStackToken+" is required when Better Stack is enabled"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// RemoteEnabled reports whether a remote catalog API is configured.
func (c *Config) RemoteEnabled() bool {
	return c.RemoteBaseURL != ""
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "catalog.db")
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}
