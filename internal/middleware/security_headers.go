package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// HeadersConfig controls HTTPS enforcement and response security headers.
type HeadersConfig struct {
	HSTSMaxAge            int
	IncludeSubdomains     bool
	ContentSecurityPolicy string
	ExcludedPaths         []string
	ForceRedirect         bool
	TrustProxyHeader      bool
}

func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		HSTSMaxAge:            63072000,
		IncludeSubdomains:     true,
		ContentSecurityPolicy: "default-src 'self'; frame-ancestors 'none';",
		ExcludedPaths:         []string{"/healthz", "/readyz"},
		ForceRedirect:         true,
		TrustProxyHeader:      true,
	}
}

// SecurityHeaders enforces HTTPS (optional redirect) and sets the usual
// hardening headers on every response.
func SecurityHeaders(cfg HeadersConfig) func(http.Handler) http.Handler {
	excluded := make(map[string]bool, len(cfg.ExcludedPaths))
	for _, p := range cfg.ExcludedPaths {
		excluded[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if excluded[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			isHTTPS := r.TLS != nil
			if cfg.TrustProxyHeader && strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
				isHTTPS = true
			}

			if !isHTTPS && cfg.ForceRedirect && (r.Method == http.MethodGet || r.Method == http.MethodHead) {
				target := "https://" + r.Host + r.URL.RequestURI()
				http.Redirect(w, r, target, http.StatusMovedPermanently)
				return
			}

			if isHTTPS && cfg.HSTSMaxAge > 0 {
				v := "max-age=" + strconv.Itoa(cfg.HSTSMaxAge)
				if cfg.IncludeSubdomains {
					v += "; includeSubDomains"
				}
				w.Header().Set("Strict-Transport-Security", v)
			}
			if cfg.ContentSecurityPolicy != "" {
				w.Header().Set("Content-Security-Policy", cfg.ContentSecurityPolicy)
			}
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			next.ServeHTTP(w, r)
		})
	}
}
