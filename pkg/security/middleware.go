// Package security provides the HTTP middleware shared by all venuedir
// endpoints: CORS, per-client rate limiting, and safe request logging.
package security

import (
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"venuedir/pkg/logger"
	"venuedir/pkg/utils"
)

// SecConfig configures the request middleware.
type SecConfig struct {
	AllowedOrigins []string
	RPS            float64
	Burst          int
}

// Middleware wraps a handler with request logging, CORS handling, and
// per-remote-IP rate limiting. Health probes bypass the limiter so external
// monitors are never throttled.
func Middleware(cfg SecConfig) func(http.Handler) http.Handler {
	limiters := &limiterPool{cfg: cfg}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.LogRequest(r)

			origin := r.Header.Get("Origin")
			if origin != "" && originAllowed(origin, cfg.AllowedOrigins) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
				w.Header().Set("Access-Control-Max-Age", "600")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
				next.ServeHTTP(w, r)
				return
			}
			ip := clientIP(r)
			if !limiters.Allow(ip) {
				logger.Warn("request_rate_limited", zap.String("ip", ip), zap.String("path", r.URL.Path))
				utils.JSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originAllowed(origin string, allowed []string) bool {
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(a, origin) {
			return true
		}
	}
	return false
}

func clientIP(r *http.Request) string {
	// honor the first hop of X-Forwarded-For when present
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
