package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"autosales-dashboard/internal/config"
	"autosales-dashboard/internal/observability"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func testSecurity() config.SecurityConfig {
	return config.SecurityConfig{
		EnableRateLimit: true,
		RateLimitRPS:    1,
		RateLimitBurst:  2,
		AllowedOrigins:  []string{"http://localhost:8050"},
		TrustedProxies:  []string{"127.0.0.1"},
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(mark("first"), mark("second"), mark("third")).Then(okHandler())
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Join(order, ",") != "first,second,third" {
		t.Errorf("unexpected order %v", order)
	}
}

func TestRequestID_Generated(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.GetRequestID(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Errorf("expected a uuid request id, got %q", seen)
	}
	if w.Header().Get("X-Request-ID") != seen {
		t.Error("response header should echo the request id")
	}
}

func TestRequestID_Propagated(t *testing.T) {
	h := RequestID()(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "upstream-1" {
		t.Errorf("expected upstream-1, got %q", got)
	}
}

func TestRecovery(t *testing.T) {
	h := Recovery(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders()(okHandler()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	csp := w.Header().Get("Content-Security-Policy")
	if !strings.Contains(csp, "https://cdn.jsdelivr.net") {
		t.Errorf("CSP should allow the script CDN, got %q", csp)
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("expected X-Frame-Options DENY")
	}
}

func TestCORS(t *testing.T) {
	h := CORS(testSecurity())(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:8050")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8050" {
		t.Errorf("expected allowed origin to be echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow origin %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("preflight should return 200, got %d", w.Code)
	}
}

func TestTrustedProxy(t *testing.T) {
	var forwarded string
	h := TrustedProxy(testSecurity())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded = r.Header.Get("X-Forwarded-For")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:5555"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if forwarded != "" {
		t.Error("untrusted proxy headers should be stripped")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if forwarded != "1.2.3.4" {
		t.Errorf("trusted proxy headers should be kept, got %q", forwarded)
	}
}

func TestRateLimit(t *testing.T) {
	limiter := NewRateLimiter(testSecurity())
	h := RateLimit(limiter, quietLogger())(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("burst requests should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst, got %d", codes[2])
	}
}

func TestRateLimit_ExemptPrefixes(t *testing.T) {
	limiter := NewRateLimiter(testSecurity())
	h := RateLimit(limiter, quietLogger(), "/static/", "/health")(okHandler())

	for i := 0; i < 5; i++ {
		for _, path := range []string{"/static/dashboard.js", "/health"} {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.RemoteAddr = "192.0.2.9:1234"
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Fatalf("%s should not be rate limited, got %d", path, w.Code)
			}
		}
	}
	if limiter.Len() != 0 {
		t.Error("exempt paths should not create limiters")
	}

	req := httptest.NewRequest(http.MethodGet, "/sse/report", nil)
	req.RemoteAddr = "192.0.2.9:1234"
	h.ServeHTTP(httptest.NewRecorder(), req)
	if limiter.Len() != 1 {
		t.Error("report updates should be rate limited")
	}
}

func TestRequestKind(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", KindPage},
		{"/sse/report", KindSSE},
		{"/api/views/yearly", KindAPI},
		{"/charts/recession/1.svg", KindChart},
		{"/static/dashboard.css", KindStatic},
		{"/health", KindOps},
		{"/admin/stats", KindOps},
		{"/favicon.ico", KindOther},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := RequestKind(tt.path); got != tt.want {
				t.Errorf("RequestKind(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	cfg := testSecurity()
	cfg.EnableRateLimit = false
	limiter := NewRateLimiter(cfg)

	for i := 0; i < 10; i++ {
		if !limiter.Allow("192.0.2.1") {
			t.Fatal("disabled limiter should allow everything")
		}
	}
	if limiter.Len() != 0 {
		t.Error("disabled limiter should not track clients")
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	limiter := NewRateLimiter(testSecurity())
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("192.0.2.1")
	now = now.Add(2 * time.Minute)
	limiter.Allow("192.0.2.2")
	now = now.Add(2 * time.Minute)

	if removed := limiter.Sweep(3 * time.Minute); removed != 1 {
		t.Errorf("expected 1 limiter removed, got %d", removed)
	}
	if limiter.Len() != 1 {
		t.Errorf("expected 1 limiter left, got %d", limiter.Len())
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{"forwarded", map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, "10.0.0.1:80", "1.1.1.1"},
		{"real ip", map[string]string{"X-Real-IP": "3.3.3.3"}, "10.0.0.1:80", "3.3.3.3"},
		{"remote addr", nil, "10.0.0.1:80", "10.0.0.1"},
		{"no port", nil, "10.0.0.2", "10.0.0.2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestTracing_KeepsFlusher(t *testing.T) {
	h := Tracing(quietLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if observability.GetSpan(r.Context()) == nil {
			t.Error("span should be in the request context")
		}
		if _, ok := w.(http.Flusher); !ok {
			t.Error("wrapped writer should still flush")
		}
		w.WriteHeader(http.StatusBadRequest)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sse/report", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status to pass through, got %d", w.Code)
	}
}
