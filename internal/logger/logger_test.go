package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/garyellow/campus-ai-go/internal/ctxutil"
)

func newBuffered(level string, buf *bytes.Buffer) *Logger {
	return NewWithOptions(Options{Level: level, Writer: buf})
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log %q: %v", line, err)
	}
	return entry
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := ParseLevel(tt.level); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
			if got := NewWithOptions(Options{Level: tt.level, Writer: &bytes.Buffer{}}).GetLevel(); got != tt.want {
				t.Errorf("GetLevel() for %q = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newBuffered("info", &buf)

	log.Warn("test message")

	entry := decodeLine(t, &buf)
	for _, field := range []string{"timestamp", "level", "message"} {
		if _, ok := entry[field]; !ok {
			t.Errorf("JSON log missing required field %q", field)
		}
	}
	if entry["message"] != "test message" {
		t.Errorf("message = %v, want %q", entry["message"], "test message")
	}
	if entry["level"] != "warning" {
		t.Errorf("level = %v, want %q", entry["level"], "warning")
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := newBuffered("debug", &buf)

	log.WithModule("retrieval").
		WithRequestID("req-123").
		WithError(errors.New("boom")).
		WithField("segments", 3).
		Debug("done")

	entry := decodeLine(t, &buf)
	if entry["module"] != "retrieval" {
		t.Errorf("module = %v", entry["module"])
	}
	if entry["request_id"] != "req-123" {
		t.Errorf("request_id = %v", entry["request_id"])
	}
	if entry["error"] != "boom" {
		t.Errorf("error = %v", entry["error"])
	}
	if entry["segments"] != float64(3) {
		t.Errorf("segments = %v", entry["segments"])
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := newBuffered("warn", &buf)

	log.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("info record should be filtered at warn level, got %q", buf.String())
	}
}

func TestContextHandler_Handle(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(context.Context) context.Context
		want   map[string]string
		absent []string
	}{
		{
			name: "extracts all context values",
			setup: func(ctx context.Context) context.Context {
				ctx = ctxutil.WithUserEmail(ctx, "t@fot.edu")
				ctx = ctxutil.WithClassID(ctx, "cse-3a")
				return ctxutil.WithRequestID(ctx, "req-abc")
			},
			want: map[string]string{"user_email": "t@fot.edu", "class_id": "cse-3a", "request_id": "req-abc"},
		},
		{
			name:   "handles empty context",
			setup:  func(ctx context.Context) context.Context { return ctx },
			absent: []string{"user_email", "class_id", "request_id"},
		},
		{
			name: "skips empty values",
			setup: func(ctx context.Context) context.Context {
				ctx = ctxutil.WithUserEmail(ctx, "")
				return ctxutil.WithClassID(ctx, "c1")
			},
			want:   map[string]string{"class_id": "c1"},
			absent: []string{"user_email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := newBuffered("info", &buf)
			log.InfoContext(tt.setup(context.Background()), "msg")

			entry := decodeLine(t, &buf)
			for k, v := range tt.want {
				if entry[k] != v {
					t.Errorf("%s = %v, want %q", k, entry[k], v)
				}
			}
			for _, k := range tt.absent {
				if _, ok := entry[k]; ok {
					t.Errorf("field %q should be absent", k)
				}
			}
		})
	}
}

func TestMultiHandler_FanOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewJSONHandler(&a, nil),
		nil,
		slog.NewJSONHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(h)

	log.Info("only a")
	log.Error("both")

	if got := strings.Count(a.String(), "\n"); got != 2 {
		t.Errorf("handler a lines = %d, want 2", got)
	}
	if got := strings.Count(b.String(), "\n"); got != 1 {
		t.Errorf("handler b lines = %d, want 1", got)
	}
}

func TestAsyncHandler_ShutdownFlushes(t *testing.T) {
	var buf bytes.Buffer
	h := NewAsyncHandler(slog.NewJSONHandler(&buf, nil), 16)
	log := slog.New(h)

	for i := 0; i < 5; i++ {
		log.Info("queued", "i", i)
	}
	if err := h.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if got := strings.Count(buf.String(), "\n"); got != 5 {
		t.Errorf("flushed lines = %d, want 5", got)
	}

	// Records after shutdown are ignored, second shutdown is a no-op.
	log.Info("late")
	if err := h.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}
