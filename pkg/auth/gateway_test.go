package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func wrap(cfg SecConfig) http.Handler {
	return Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Seen-Role", r.Header.Get("X-Role-Name"))
		w.WriteHeader(http.StatusOK)
	}))
}

func TestAdminSurfaceRequiresKey(t *testing.T) {
	h := wrap(SecConfig{RPS: 100, Burst: 100, AdminKeys: map[string]struct{}{"adm-key": {}}})

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/content/projects", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no key: status %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/content/projects", nil)
	req.Header.Set("Authorization", "Bearer adm-key")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("bearer key: status %d", rr.Code)
	}
	if rr.Header().Get("X-Seen-Role") != "admin" {
		t.Fatalf("role = %q", rr.Header().Get("X-Seen-Role"))
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/admin/content/projects", nil)
	req.Header.Set("X-API-Key", "adm-key")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("x-api-key: status %d", rr.Code)
	}
}

func TestChatEndpointsArePublic(t *testing.T) {
	h := wrap(SecConfig{RPS: 100, Burst: 100})
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/relay", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	if rr.Header().Get("X-Seen-Role") != "visitor" {
		t.Fatalf("role = %q", rr.Header().Get("X-Seen-Role"))
	}
}

func TestCORSPreflight(t *testing.T) {
	h := wrap(SecConfig{AllowedOrigins: []string{"https://example.com"}, RPS: 100, Burst: 100})
	req := httptest.NewRequest(http.MethodOptions, "/v1/chat/relay", nil)
	req.Header.Set("Origin", "https://example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "https://example.com" {
		t.Fatal("missing CORS allow-origin")
	}

	// Disallowed origins get no CORS headers.
	req = httptest.NewRequest(http.MethodOptions, "/v1/chat/relay", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unexpected CORS allow-origin for disallowed origin")
	}
}

func TestHealthBypass(t *testing.T) {
	h := wrap(SecConfig{RPS: 1, Burst: 1})
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("healthz attempt %d: status %d", i, rr.Code)
		}
	}
}

func TestRateLimiting(t *testing.T) {
	h := wrap(SecConfig{RPS: 1, Burst: 2})
	limited := false
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/chat/relay", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("burst of requests was never rate limited")
	}
}
