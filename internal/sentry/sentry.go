// Package sentry provides Sentry SDK initialization for Better Stack error tracking.
// The DSN is built from a Better Stack token and ingesting host.
package sentry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/garyellow/program-catalog-go/internal/config"
)

// DSN builds the Better Stack DSN: https://$TOKEN@$HOST/1.
// The project ID (/1) is required by the SDK but ignored by Better Stack.
func DSN(token, host string) string {
	return fmt.Sprintf("https://%s@%s/1", token, host)
}

// Initialize sets up the Sentry SDK. It is a no-op returning nil when
// error tracking is disabled or no token is configured.
func Initialize(cfg config.SentryConfig) error {
	if !cfg.Enabled || cfg.Token == "" {
		return nil
	}
	if cfg.Host == "" {
		return errors.New("sentry host is required when token is provided")
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              DSN(cfg.Token, cfg.Host),
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
	})
}

// Flush waits for buffered events to be sent to the server.
// Returns true if all events were sent within the timeout.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled returns true if Sentry is initialized and active.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// CaptureException captures err on the request's hub when ctx carries one,
// otherwise on the current hub. tags are attached to the event.
func CaptureException(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}
