package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventsite-api/internal/config"
	"eventsite-api/pkg/ratelimit"
	"eventsite-api/pkg/token"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.POST("/contact", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/boom", func(c *gin.Context) { panic("boom") })
	return r
}

func do(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORS_DevelopmentEchoesAnyOrigin(t *testing.T) {
	policy := NewOriginPolicy(config.ServerConfig{Mode: config.ModeDevelopment})
	r := newEngine(CORS(policy, 24*time.Hour))

	w := do(r, http.MethodPost, "/contact", map[string]string{"Origin": "http://localhost:4321"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:4321" {
		t.Fatalf("expected echoed origin, got %q", got)
	}
	if w.Header().Get("Access-Control-Max-Age") != "86400" || w.Header().Get("Vary") != "Origin" {
		t.Fatalf("unexpected cors headers %v", w.Header())
	}

	w = do(r, http.MethodPost, "/contact", nil)
	if _, ok := w.Header()["Access-Control-Allow-Origin"]; ok {
		t.Fatalf("expected no allow-origin header without Origin")
	}
}

func TestCORS_ProductionAllowList(t *testing.T) {
	policy := NewOriginPolicy(config.ServerConfig{Mode: config.ModeProduction, FrontendURL: "https://events.example.com/"})
	r := newEngine(CORS(policy, time.Hour))

	w := do(r, http.MethodPost, "/contact", map[string]string{"Origin": "https://events.example.com"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://events.example.com" {
		t.Fatalf("expected allowed origin, got %q", got)
	}

	w = do(r, http.MethodPost, "/contact", map[string]string{"Origin": "https://evil.example"})
	if _, ok := w.Header()["Access-Control-Allow-Origin"]; ok {
		t.Fatalf("disallowed origin must not be echoed")
	}
	if w.Code != http.StatusOK {
		t.Fatalf("request itself should proceed, got %d", w.Code)
	}
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	policy := NewOriginPolicy(config.ServerConfig{Mode: config.ModeDevelopment})
	r := newEngine(CORS(policy, time.Hour))
	r.HandleMethodNotAllowed = true

	for _, path := range []string{"/contact", "/nowhere"} {
		w := do(r, http.MethodOptions, path, map[string]string{"Origin": "http://localhost:4321"})
		if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
			t.Fatalf("%s: expected empty 204, got %d %q", path, w.Code, w.Body.String())
		}
		if w.Header().Get("Access-Control-Allow-Methods") == "" {
			t.Fatalf("%s: expected allow-methods on preflight", path)
		}
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		xff    string
		remote string
		want   string
	}{
		{xff: "203.0.113.7", remote: "192.0.2.1:1234", want: "203.0.113.7"},
		{xff: " 203.0.113.7 , 10.0.0.1", want: "203.0.113.7"},
		{xff: "2001:db8::1, 198.51.100.20", want: "2001:db8::1"},
		{xff: " , 10.0.0.1", remote: "192.0.2.1:1234", want: "192.0.2.1"},
		{remote: "192.0.2.1:1234", want: "192.0.2.1"},
		{remote: "[2001:db8::2]:443", want: "2001:db8::2"},
		{want: UnknownClient},
		{xff: " , 10.0.0.1", want: UnknownClient},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.RemoteAddr = tc.remote
		if tc.xff != "" {
			c.Request.Header.Set("X-Forwarded-For", tc.xff)
		}
		if got := ClientIP(c); got != tc.want {
			t.Errorf("xff %q remote %q: expected %q, got %q", tc.xff, tc.remote, tc.want, got)
		}
	}
}

func TestRateLimit_HeadersAndDenial(t *testing.T) {
	limiter := ratelimit.New(ratelimit.NewMemoryStore(100), ratelimit.Rule{Name: "contact", Max: 2, Window: 15 * time.Minute})
	r := newEngine(RateLimit(limiter))
	headers := map[string]string{"X-Forwarded-For": "198.51.100.9"}

	w := do(r, http.MethodPost, "/contact", headers)
	if w.Code != http.StatusOK || w.Header().Get("X-RateLimit-Remaining") != "1" || w.Header().Get("X-RateLimit-Limit") != "2" {
		t.Fatalf("unexpected first response %d %v", w.Code, w.Header())
	}
	_ = do(r, http.MethodPost, "/contact", headers)

	w = do(r, http.MethodPost, "/contact", headers)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if ra := w.Header().Get("Retry-After"); ra != "900" {
		t.Fatalf("expected Retry-After 900, got %q", ra)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "Too many requests" || body["retryAfter"] != float64(900) || body["resetTime"] == "" {
		t.Fatalf("unexpected 429 body %v", body)
	}

	// 其他客户端不受影响
	if w := do(r, http.MethodPost, "/contact", map[string]string{"X-Forwarded-For": "198.51.100.10"}); w.Code != http.StatusOK {
		t.Fatalf("expected other client allowed, got %d", w.Code)
	}
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string, ratelimit.Rule) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("redis down")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	limiter := ratelimit.New(failingStore{}, ratelimit.Rule{Name: "contact", Max: 1, Window: time.Minute})
	r := newEngine(RateLimit(limiter))
	for i := 0; i < 3; i++ {
		if w := do(r, http.MethodPost, "/contact", nil); w.Code != http.StatusOK {
			t.Fatalf("expected fail-open, got %d", w.Code)
		}
	}
}

func TestRateLimit_NilLimiterPassesThrough(t *testing.T) {
	r := newEngine(RateLimit(nil))
	if w := do(r, http.MethodPost, "/contact", nil); w.Code != http.StatusOK {
		t.Fatalf("expected pass-through, got %d", w.Code)
	}
}

func TestRecovery_WritesGeneric500(t *testing.T) {
	r := newEngine(Recovery())
	w := do(r, http.MethodGet, "/boom", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["error"] != "Internal server error" || body["message"] == "" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestAdminAuth(t *testing.T) {
	jwt := token.NewJWTManager("secret", time.Hour, "eventsite-api")
	r := gin.New()
	r.GET("/admin/submissions", AdminAuth(jwt), func(c *gin.Context) {
		if _, ok := c.Get(ClaimsKey); !ok {
			t.Errorf("expected claims in context")
		}
		c.Status(http.StatusOK)
	})

	if w := do(r, http.MethodGet, "/admin/submissions", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if w := do(r, http.MethodGet, "/admin/submissions", map[string]string{"Authorization": "Bearer nope"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", w.Code)
	}
	signed, _, _ := jwt.GenerateToken("admin")
	if w := do(r, http.MethodGet, "/admin/submissions", map[string]string{"Authorization": "Bearer " + signed}); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}

	unconfigured := gin.New()
	unconfigured.GET("/admin/submissions", AdminAuth(nil))
	if w := do(unconfigured, http.MethodGet, "/admin/submissions", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when admin is not configured, got %d", w.Code)
	}
}
