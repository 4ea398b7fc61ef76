package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"booking-offer-api/internal/service"
)

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(2, time.Hour)
	defer limiter.Stop()

	now := time.Date(2026, time.January, 10, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	h := RateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", "/offers", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	first := do("203.0.113.5")
	if first.Code != http.StatusOK || first.Header().Get("X-RateLimit-Remaining") != "1" {
		t.Errorf("Unexpected first response %d remaining=%s", first.Code, first.Header().Get("X-RateLimit-Remaining"))
	}
	if first.Header().Get("X-RateLimit-Limit") != "2" {
		t.Errorf("Expected limit header 2, got %s", first.Header().Get("X-RateLimit-Limit"))
	}

	do("203.0.113.5")
	blocked := do("203.0.113.5")
	if blocked.Code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", blocked.Code)
	}
	if blocked.Header().Get("Retry-After") != "1800" {
		t.Errorf("Expected Retry-After 1800, got %s", blocked.Header().Get("Retry-After"))
	}

	if other := do("198.51.100.7"); other.Code != http.StatusOK {
		t.Errorf("Clients must be limited independently, got %d", other.Code)
	}

	now = now.Add(30 * time.Minute)
	if refilled := do("203.0.113.5"); refilled.Code != http.StatusOK {
		t.Errorf("Expected one token back after half a window, got %d", refilled.Code)
	}
	if limiter.Allow("203.0.113.5") {
		t.Error("Expected the refilled token to be spent")
	}

	limiter.Stop()
}

func TestGetClientKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if got := GetClientKey(req); got != "192.0.2.1" {
		t.Errorf("Expected RemoteAddr host, got %s", got)
	}

	req.Header.Set("X-Real-IP", "192.0.2.9")
	if got := GetClientKey(req); got != "192.0.2.9" {
		t.Errorf("Expected X-Real-IP, got %s", got)
	}

	req.Header.Set("X-Forwarded-For", " 203.0.113.5 , 10.0.0.1")
	if got := GetClientKey(req); got != "203.0.113.5" {
		t.Errorf("Expected first forwarded address, got %s", got)
	}
}

func TestActor(t *testing.T) {
	var got string
	h := Actor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = service.ActorFromContext(r.Context())
	}))

	tests := []struct {
		header string
		want   string
	}{
		{"", service.SystemActor},
		{"  admin-7 ", "admin-7"},
		{strings.Repeat("a", 200), strings.Repeat("a", 128)},
	}

	for _, tt := range tests {
		req := httptest.NewRequest("POST", "/offers", nil)
		if tt.header != "" {
			req.Header.Set(ActorHeader, tt.header)
		}
		h.ServeHTTP(httptest.NewRecorder(), req)
		if got != tt.want {
			t.Errorf("Header %q: expected actor %q, got %q", tt.header, tt.want, got)
		}
	}
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := chi.NewRouter()
	r.Use(RequestLogger(zap.New(core)))
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("fine")) })
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 log lines, got %d", len(entries))
	}
	if entries[0].Level != zap.InfoLevel || entries[0].ContextMap()["status"] != int64(200) {
		t.Errorf("Unexpected first entry %+v", entries[0].ContextMap())
	}
	if entries[1].Level != zap.ErrorLevel {
		t.Errorf("Expected a 500 to log at error level, got %s", entries[1].Level)
	}
}

func TestTracingMiddleware(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		tp.Shutdown(context.Background())
	})

	r := chi.NewRouter()
	r.Use(TracingMiddleware("test"))
	r.Get("/offers/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/offers/abc", nil))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("Expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "GET /offers/{id}" {
		t.Errorf("Expected span named after the route, got %q", spans[0].Name())
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("Expected error status for a 502, got %v", spans[0].Status().Code)
	}
}
