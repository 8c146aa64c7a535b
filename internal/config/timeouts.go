// Package config provides centralized timeout constants for the application.
//
// These values are tuned for:
//   - The remote catalog API (a single JSON request per load, falls back to
//     the local snapshot on timeout)
//   - The bundled snapshot (local file reads, no network)
//   - SQLite performance characteristics (WAL mode, busy timeout)
package config

import "time"

// HTTP server timeouts
const (
	// HTTPRead is the server read timeout. Requests are small query strings
	// or subscription JSON bodies.
	HTTPRead = 10 * time.Second

	// HTTPWrite is the server write timeout.
	// Must accommodate a remote fetch that times out plus the local fallback.
	HTTPWrite = 30 * time.Second

	// HTTPIdle is the idle timeout for keep-alive connections.
	HTTPIdle = 120 * time.Second
)

// Source timeouts
const (
	// RemoteFetch bounds a single remote catalog request. On expiry the
	// request is treated as failed and the local snapshot is used instead.
	RemoteFetch = 5 * time.Second

	// RemoteRetryInitial is the initial delay before retrying a transient
	// remote failure. Uses exponential backoff: 200ms -> 400ms -> 800ms
	RemoteRetryInitial = 200 * time.Millisecond

	// ConnectivityProbe bounds the startup probe of the remote API.
	ConnectivityProbe = 3 * time.Second

	// LocalLoadConcurrency caps concurrent snapshot file reads.
	LocalLoadConcurrency = 8
)

// Snapshot distribution timeouts
const (
	// SnapshotDownload bounds the startup refresh of the bundled snapshot from R2.
	SnapshotDownload = 60 * time.Second

	// SnapshotUpload bounds an operator upload.
	SnapshotUpload = 5 * time.Minute
)

// Database timeouts
const (
	// DatabaseBusyTimeout is the SQLite busy_timeout pragma value.
	DatabaseBusyTimeout = 5 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	DatabaseConnMaxLifetime = time.Hour
)

// Background job intervals
const (
	// SessionCleanupInterval is how often idle catalog sessions are swept.
	SessionCleanupInterval = 5 * time.Minute

	// RateLimitCleanupInterval is how often idle client buckets are dropped.
	RateLimitCleanupInterval = 10 * time.Minute

	// SessionIdleTimeout is how long a catalog session survives without requests.
	SessionIdleTimeout = 30 * time.Minute

	// MetricsUpdateInterval is how often gauge metrics are refreshed.
	MetricsUpdateInterval = time.Minute
)

// Health checks
const (
	// ReadinessCheck bounds the dependency checks in /readyz.
	ReadinessCheck = 2 * time.Second

	// HealthcheckRequest bounds the container probe binary.
	HealthcheckRequest = 3 * time.Second

	// StartupGracePeriod is how long catalog routes wait for the startup
	// snapshot refresh and probe before serving anyway.
	StartupGracePeriod = 90 * time.Second
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	// Allows in-flight requests to complete before forceful termination.
	GracefulShutdown = 30 * time.Second
)
