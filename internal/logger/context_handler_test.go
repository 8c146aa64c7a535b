package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/garyellow/program-catalog-go/internal/ctxutil"
)

func TestContextHandler_Handle(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name           string
		setupContext   func(context.Context) context.Context
		expectedFields map[string]string
		absentFields   []string
	}{
		{
			name: "extracts all context values",
			setupContext: func(ctx context.Context) context.Context {
				ctx = ctxutil.WithRequestID(ctx, "req-abc-123")
				return ctxutil.WithSessionID(ctx, "sess-1")
			},
			expectedFields: map[string]string{
				"request_id": "req-abc-123",
				"session_id": "sess-1",
			},
		},
		{
			name: "extracts partial context values",
			setupContext: func(ctx context.Context) context.Context {
				return ctxutil.WithSessionID(ctx, "sess-2")
			},
			expectedFields: map[string]string{"session_id": "sess-2"},
			absentFields:   []string{"request_id"},
		},
		{
			name:         "handles empty context",
			setupContext: func(ctx context.Context) context.Context { return ctx },
			absentFields: []string{"request_id", "session_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			handler := NewContextHandler(slog.NewJSONHandler(&buf, nil))
			log := slog.New(handler)

			log.InfoContext(tt.setupContext(context.Background()), "catalog loaded")

			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("Failed to parse JSON log: %v", err)
			}
			for key, want := range tt.expectedFields {
				if entry[key] != want {
					t.Errorf("Expected %s=%q, got %v", key, want, entry[key])
				}
			}
			for _, key := range tt.absentFields {
				if _, ok := entry[key]; ok {
					t.Errorf("Expected %s to be absent, got %v", key, entry[key])
				}
			}
		})
	}
}

func TestContextHandler_Enabled(t *testing.T) {
	t.Parallel()
	inner := slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})
	handler := NewContextHandler(inner)

	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Expected info to be disabled when wrapped handler is at warn")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("Expected error to be enabled")
	}
}

func TestContextHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	handler := NewContextHandler(slog.NewJSONHandler(&buf, nil))

	withAttrs := handler.WithAttrs([]slog.Attr{slog.String("module", "source")})
	if _, ok := withAttrs.(*ContextHandler); !ok {
		t.Fatalf("WithAttrs should return *ContextHandler, got %T", withAttrs)
	}

	grouped := withAttrs.WithGroup("load")
	slog.New(grouped).InfoContext(ctxutil.WithRequestID(context.Background(), "req-7"), "done", "files", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}
	if entry["module"] != "source" {
		t.Errorf("Expected module attr, got %v", entry["module"])
	}
	group, ok := entry["load"].(map[string]any)
	if !ok {
		t.Fatalf("Expected load group, got %v", entry["load"])
	}
	if group["files"] != float64(3) {
		t.Errorf("Expected files=3 inside group, got %v", group["files"])
	}
}
