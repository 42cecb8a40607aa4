package logging

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestLoggingMiddleware(t *testing.T) {
	var logOutput strings.Builder
	logger := slog.New(slog.NewTextHandler(&logOutput, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("scores"))
	}))

	tests := []struct {
		name      string
		target    string
		requestID any
		contains  []string
		excludes  []string
	}{
		{"health probe skipped", "/health", "req-1", nil, []string{"HTTP request"}},
		{"metrics scrape skipped", "/metrics", "req-2", nil, []string{"HTTP request"}},
		{
			name:      "api request",
			target:    "/v1/scores/tanda",
			requestID: "req-3",
			contains:  []string{"HTTP request", "request_id=req-3", "path=/v1/scores/tanda", "bytes_written=6"},
			excludes:  []string{"query="},
		},
		{
			name:      "query string kept",
			target:    "/v1/scores?year=2024&alert=red",
			requestID: "req-4",
			contains:  []string{"query=\"year=2024&alert=red\""},
		},
		{
			name:      "non-string request id",
			target:    "/v1/periods",
			requestID: 12345,
			contains:  []string{"request_id=unknown"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logOutput.Reset()
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, tt.requestID))
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK || rr.Body.String() != "scores" {
				t.Errorf("Expected the wrapped response, got %d %q", rr.Code, rr.Body.String())
			}

			logs := logOutput.String()
			for _, want := range tt.contains {
				if !strings.Contains(logs, want) {
					t.Errorf("Expected log to contain %s, got: %s", want, logs)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(logs, unwanted) {
					t.Errorf("Expected log without %s, got: %s", unwanted, logs)
				}
			}
		})
	}
}

func TestLoggingMiddlewareLevels(t *testing.T) {
	var logOutput strings.Builder
	logger := slog.New(slog.NewTextHandler(&logOutput, &slog.HandlerOptions{Level: slog.LevelInfo}))

	tests := []struct {
		status   int
		expected string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusServiceUnavailable, "level=ERROR"},
	}

	for _, tt := range tests {
		logOutput.Reset()
		handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/periods", nil))

		logs := logOutput.String()
		if !strings.Contains(logs, tt.expected) {
			t.Errorf("Expected %s for status %d, got: %s", tt.expected, tt.status, logs)
		}
		if !strings.Contains(logs, "status_code="+strconv.Itoa(tt.status)) {
			t.Errorf("Expected status code in log, got: %s", logs)
		}
	}
}
