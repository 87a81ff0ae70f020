package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSetupLevels(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	tests := []struct {
		name      string
		devMode   bool
		level     string
		wantDebug bool
		wantJSON  bool
	}{
		{"dev defaults to debug", true, "", true, false},
		{"prod defaults to info", false, "", false, true},
		{"prod with debug level", false, "debug", true, true},
		{"dev with warn level", true, "WARN", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := setup(&buf, tt.devMode, tt.level); err != nil {
				t.Fatalf("setup: %v", err)
			}
			slog.Debug("debug line")
			slog.Warn("warn line")

			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tt.wantDebug {
				t.Errorf("debug visible = %v, want %v", got, tt.wantDebug)
			}
			if !strings.Contains(out, "warn line") {
				t.Error("expected warn line")
			}
			if got := strings.HasPrefix(out, "{"); got != tt.wantJSON {
				t.Errorf("json output = %v, want %v: %s", got, tt.wantJSON, out)
			}
		})
	}
}

func TestSetupInvalidLevel(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	if err := setup(&bytes.Buffer{}, false, "chatty"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestRequestLogger(t *testing.T) {
	buf := captureLogs(t)

	handler := RequestID(RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest("GET", "/api/conversations", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	output := buf.String()
	for _, want := range []string{"GET", "/api/conversations", "request_id=req-123"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in log: %s", want, output)
		}
	}
}

func TestRequestLoggerSkipsNoisyPaths(t *testing.T) {
	buf := captureLogs(t)

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/metrics"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	if buf.Len() > 0 {
		t.Errorf("expected no log output, got %s", buf.String())
	}
}

func TestResponseWriterCapturesStatus(t *testing.T) {
	buf := captureLogs(t)

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/missing", nil))

	if !strings.Contains(buf.String(), "404") {
		t.Error("expected 404 status in log")
	}
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Error("expected 4xx to log at warn")
	}
}

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/me", nil))

	got := rec.Header().Get(RequestIDHeader)
	if got == "" {
		t.Fatal("expected generated request id header")
	}
	if seen != got {
		t.Errorf("context id = %q, header id = %q", seen, got)
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger without request context")
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}
