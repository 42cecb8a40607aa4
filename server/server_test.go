package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/hwi-pipeline/config"
	"github.com/giygas/hwi-pipeline/logging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// mockHandler answers every route with its own name and the URL params it saw
type mockHandler struct{}

func (mockHandler) write(w http.ResponseWriter, name string) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(name))
}

func (m mockHandler) ServeScores(w http.ResponseWriter, r *http.Request) { m.write(w, "scores") }
func (m mockHandler) ServePharmacyScores(w http.ResponseWriter, r *http.Request) {
	m.write(w, "pharmacy:"+chi.URLParam(r, "pharmacyId"))
}
func (m mockHandler) ServePharmacyTrend(w http.ResponseWriter, r *http.Request) {
	m.write(w, "trend:"+chi.URLParam(r, "pharmacyId"))
}
func (m mockHandler) ServePeriods(w http.ResponseWriter, r *http.Request) { m.write(w, "periods") }
func (m mockHandler) ServeAlerts(w http.ResponseWriter, r *http.Request) {
	m.write(w, "alerts:"+chi.URLParam(r, "level"))
}
func (m mockHandler) ServeCategories(w http.ResponseWriter, r *http.Request) {
	m.write(w, "categories")
}
func (m mockHandler) HealthCheck(w http.ResponseWriter, r *http.Request) { m.write(w, "health") }

func testConfig() *config.Config {
	return &config.Config{
		Port:              "0",
		Address:           "127.0.0.1",
		Env:               config.EnvTest,
		LogLevel:          "error",
		MaxRequestBody:    1024,
		RateLimitRate:     3,
		RateLimitCapacity: 1000,
	}
}

func TestSetupRoutes(t *testing.T) {
	_ = logging.InitLogger(logging.Options{Env: config.EnvTest})
	server := NewServer(testConfig(), mockHandler{})

	tests := []struct {
		path         string
		expectedBody string
	}{
		{"/v1/scores", "scores"},
		{"/v1/scores/tanda", "pharmacy:tanda"},
		{"/v1/scores/tanda/trend", "trend:tanda"},
		{"/v1/periods", "periods"},
		{"/v1/alerts/red", "alerts:red"},
		{"/v1/categories", "categories"},
		{"/health", "health"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			server.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rr.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", rr.Code)
			}
			if rr.Body.String() != tt.expectedBody {
				t.Errorf("Expected body %q, got %q", tt.expectedBody, rr.Body.String())
			}
		})
	}

	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "http_request_total") {
		t.Errorf("Expected prometheus metrics, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	server.Router().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/database", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown route, got %d", rr.Code)
	}
}

func TestSetupMiddleware(t *testing.T) {
	_ = logging.InitLogger(logging.Options{Env: config.EnvTest})
	server := NewServer(testConfig(), mockHandler{})

	server.router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		if middleware.GetReqID(r.Context()) == "" {
			t.Error("RequestID should be available in request context")
		}
		if r.RemoteAddr != "203.0.113.7" {
			t.Errorf("Expected forwarded IP, got %s", r.RemoteAddr)
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Limit") != "1000" {
		t.Errorf("Expected rate limit headers, got %q", rr.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRecovererCatchesPanics(t *testing.T) {
	_ = logging.InitLogger(logging.Options{Env: config.EnvTest})
	server := NewServer(testConfig(), mockHandler{})
	server.router.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	server.router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rr.Code)
	}
}

func TestServerLifecycle(t *testing.T) {
	_ = logging.InitLogger(logging.Options{Env: config.EnvTest})
	server := NewServer(testConfig(), mockHandler{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Serve(ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("Request to running server failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		t.Errorf("Server shutdown should not error: %v", err)
	}

	select {
	case err := <-errChan:
		if err != nil {
			t.Errorf("Expected nil after graceful shutdown, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Server should have shutdown within 1 second")
	}
}

func TestNewServerAddress(t *testing.T) {
	cfg := testConfig()
	cfg.Address = "localhost"
	cfg.Port = "8030"

	server := NewServer(cfg, mockHandler{})
	if server.server.Addr != "localhost:8030" {
		t.Errorf("Expected localhost:8030, got %s", server.server.Addr)
	}
	if server.server.ReadTimeout != 15*time.Second {
		t.Errorf("Expected 15s read timeout, got %v", server.server.ReadTimeout)
	}
}
