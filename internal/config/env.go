// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "CATALOG_PORT"
	EnvLogLevel        = "CATALOG_LOG_LEVEL"
	EnvLogFile         = "CATALOG_LOG_FILE"
	EnvShutdownTimeout = "CATALOG_SHUTDOWN_TIMEOUT"
	EnvServerName      = "CATALOG_SERVER_NAME"

	// Data
	EnvDataDir     = "CATALOG_DATA_DIR"
	EnvSnapshotDir = "CATALOG_SNAPSHOT_DIR"
	EnvContentDir  = "CATALOG_CONTENT_DIR"

	// Catalog
	EnvRemoteBaseURL  = "CATALOG_REMOTE_BASE_URL"
	EnvRemoteTimeout  = "CATALOG_REMOTE_TIMEOUT"
	EnvRemoteRetries  = "CATALOG_REMOTE_MAX_RETRIES"
	EnvItemsPerPage   = "CATALOG_ITEMS_PER_PAGE"
	EnvSessionIdleTTL = "CATALOG_SESSION_IDLE_TTL"
	EnvRateLimitRPM   = "CATALOG_RATE_LIMIT_RPM"

	// R2 Snapshot Feature
	EnvR2Enabled         = "CATALOG_R2_ENABLED"
	EnvR2AccountID       = "CATALOG_R2_ACCOUNT_ID"
	EnvR2AccessKeyID     = "CATALOG_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey = "CATALOG_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName      = "CATALOG_R2_BUCKET_NAME"
	EnvR2SnapshotKey     = "CATALOG_R2_SNAPSHOT_KEY"

	// Sentry Feature
	EnvSentryEnabled          = "CATALOG_SENTRY_ENABLED"
	EnvSentryToken            = "CATALOG_SENTRY_TOKEN"
	EnvSentryHost             = "CATALOG_SENTRY_HOST"
	EnvSentryEnvironment      = "CATALOG_SENTRY_ENVIRONMENT"
	EnvSentryRelease          = "CATALOG_SENTRY_RELEASE"
	EnvSentrySampleRate       = "CATALOG_SENTRY_SAMPLE_RATE"
	EnvSentryTracesSampleRate = "CATALOG_SENTRY_TRACES_SAMPLE_RATE"

	// Better Stack Feature
	EnvBetterStackEnabled = "CATALOG_BETTERSTACK_ENABLED"
	EnvBetterStackToken   = "CATALOG_BETTERSTACK_TOKEN"

	// Metrics Auth Feature
	EnvMetricsAuthEnabled = "CATALOG_METRICS_AUTH_ENABLED"
	EnvMetricsUsername    = "CATALOG_METRICS_USERNAME"
	EnvMetricsPassword    = "CATALOG_METRICS_PASSWORD"
)
