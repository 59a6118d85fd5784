// Package auth is the HTTP gateway middleware: CORS, admin-key checks and
// per-caller rate limiting. The visitor chat endpoints stay public; only
// the admin surface requires a key.
package auth

import (
	"net"
	"net/http"
	"strings"

	"chatrelay/pkg/logger"
	"chatrelay/pkg/utils"
)

// SecConfig carries the gateway's security settings.
type SecConfig struct {
	AllowedOrigins []string
	RPS            int
	Burst          int
	AdminKeys      map[string]struct{}
}

// Middleware wraps next with CORS handling, admin authentication for
// /v1/admin paths, and rate limiting keyed by api key or client ip.
func Middleware(cfg SecConfig) func(http.Handler) http.Handler {
	limiters := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// log request (redacts sensitive headers)
			logger.LogRequest(r)

			// cors preflight
			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
				w.Header().Set("Access-Control-Max-Age", "600")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,X-API-Key")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			// unauthenticated health checks for probes
			if (r.URL.Path == "/healthz" || r.URL.Path == "/readyz") && r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key, hasKey := apiKey(r)
			isAdmin := false
			if hasKey {
				_, isAdmin = cfg.AdminKeys[key]
			}

			// admin surface requires a recognized key
			if strings.HasPrefix(r.URL.Path, "/v1/admin") {
				if !isAdmin {
					utils.JSONError(w, http.StatusUnauthorized, "unauthorized")
					logger.Warn("request_unauthorized", "path", r.URL.Path, "remote", r.RemoteAddr)
					return
				}
				r.Header.Set("X-Role-Name", "admin")
			} else if isAdmin {
				r.Header.Set("X-Role-Name", "admin")
			} else {
				r.Header.Set("X-Role-Name", "visitor")
			}

			// rate limiting: admins by key, visitors by ip
			limKey := key
			if !isAdmin {
				limKey = clientIP(r)
			}
			if !limiters.Allow(limKey) {
				utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				logger.Warn("rate_limited", "path", r.URL.Path, "remote", r.RemoteAddr)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed []string) bool {
	if len(allowed) == 0 {
		return false
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// apiKey prefers Authorization: Bearer <key>, falling back to X-API-Key.
func apiKey(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	var key string
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		key = strings.TrimSpace(auth[7:])
	}
	if key == "" {
		key = r.Header.Get("X-API-Key")
	}
	return key, key != ""
}
