package server

import (
	"net/http"
	"slices"
	"strings"
)

// SecurityConfig controls the hardening headers and CORS policy.
type SecurityConfig struct {
	EnableCORS bool
	// AllowedOrigins lists exact origins; "*" admits any.
	AllowedOrigins []string
	AllowedMethods []string
}

// DefaultSecurityConfig admits read-only cross-origin calls from anywhere.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableCORS:     true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	}
}

var hardeningHeaders = map[string]string{
	"X-Content-Type-Options":  "nosniff",
	"X-Frame-Options":         "DENY",
	"Referrer-Policy":         "no-referrer",
	"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	"Cache-Control":           "no-store",
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when the origin is not admitted.
func (c SecurityConfig) allowOrigin(origin string) string {
	if slices.Contains(c.AllowedOrigins, "*") {
		return "*"
	}
	if origin != "" && slices.Contains(c.AllowedOrigins, origin) {
		return origin
	}
	return ""
}

// SecurityMiddleware sets the hardening headers on every response. With CORS
// enabled it also answers preflight requests itself with 204.
func SecurityMiddleware(cfg SecurityConfig, next http.HandlerFunc) http.HandlerFunc {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for k, v := range hardeningHeaders {
			h.Set(k, v)
		}
		if !cfg.EnableCORS {
			next(w, r)
			return
		}

		if allowed := cfg.allowOrigin(r.Header.Get("Origin")); allowed != "" {
			if allowed != "*" {
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Origin", allowed)
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", "Accept, Content-Type, "+RequestIDHeader)
			h.Set("Access-Control-Expose-Headers", RequestIDHeader+", Retry-After")
			h.Set("Access-Control-Max-Age", "600")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}
