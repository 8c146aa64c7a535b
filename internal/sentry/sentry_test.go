package sentry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garyellow/program-catalog-go/internal/config"
)

func TestDSN(t *testing.T) {
	t.Parallel()
	got := DSN("tok", "errors.betterstack.com")
	if want := "https://tok@errors.betterstack.com/1"; got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}

func TestInitialize_Disabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  config.SentryConfig
	}{
		{"disabled", config.SentryConfig{Enabled: false, Token: "t", Host: "h"}},
		{"empty token", config.SentryConfig{Enabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := Initialize(tt.cfg); err != nil {
				t.Errorf("Initialize() = %v, want nil", err)
			}
		})
	}
}

func TestInitialize_MissingHost(t *testing.T) {
	t.Parallel()

	err := Initialize(config.SentryConfig{Enabled: true, Token: "test-token"})
	if err == nil {
		t.Error("Expected error when host is missing")
	}
}

func TestInitialize_ValidConfig(t *testing.T) {
	// Sentry uses global state; not parallel.
	err := Initialize(config.SentryConfig{
		Enabled:     true,
		Token:       "test-token",
		Host:        "errors.betterstack.com",
		Environment: "test",
	})
	if err != nil {
		t.Fatalf("Initialize() = %v", err)
	}
	if !IsEnabled() {
		t.Error("Expected IsEnabled() to return true after initialization")
	}

	CaptureException(context.Background(), nil, nil)
	CaptureException(context.Background(), errors.New("catalog unavailable"), map[string]string{"module": "catalog"})
	Flush(100 * time.Millisecond)
}
