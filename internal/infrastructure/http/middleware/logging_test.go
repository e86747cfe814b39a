package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ctxutil "3tcapital/ducactl/internal/infrastructure/context"
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name          string
		statusCode    int
		expectedLevel string
	}{
		{name: "2xx status logs as info", statusCode: http.StatusOK, expectedLevel: "level=INFO"},
		{name: "3xx status logs as info", statusCode: http.StatusMovedPermanently, expectedLevel: "level=INFO"},
		{name: "4xx status logs as warn", statusCode: http.StatusBadRequest, expectedLevel: "level=WARN"},
		{name: "5xx status logs as error", statusCode: http.StatusInternalServerError, expectedLevel: "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := bufferLogger()
			handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte("test response"))
			}))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/estados", nil))

			if w.Code != tt.statusCode {
				t.Errorf("expected status code %d, got %d", tt.statusCode, w.Code)
			}
			if !strings.Contains(buf.String(), tt.expectedLevel) {
				t.Errorf("expected %s in log, got %s", tt.expectedLevel, buf.String())
			}
		})
	}
}

func TestRequestLogger_PropagatesClientCorrelationID(t *testing.T) {
	log, buf := bufferLogger()

	var seen string
	handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxutil.GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/estados", nil)
	req.Header.Set(CorrelationHeader, "corr-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "corr-123" {
		t.Errorf("expected correlation ID in context, got %q", seen)
	}
	if !strings.Contains(buf.String(), "correlation_id=corr-123") {
		t.Errorf("expected correlation ID in log, got %s", buf.String())
	}
}
