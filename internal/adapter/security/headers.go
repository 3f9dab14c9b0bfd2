package security

import (
	"net/http"

	"github.com/thushan/warden/internal/config"
)

// SecurityHeaders stamps the standard hardening headers on every response
type SecurityHeaders struct {
	csp     string
	enabled bool
	hsts    bool
}

func NewSecurityHeaders(cfg config.HeadersConfig) *SecurityHeaders {
	return &SecurityHeaders{
		enabled: cfg.Enabled,
		csp:     cfg.ContentSecurityPolicy,
		hsts:    cfg.HSTS,
	}
}

func (sh *SecurityHeaders) Apply(w http.ResponseWriter) {
	if sh == nil || !sh.enabled {
		return
	}
	h := w.Header()
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("X-Frame-Options", "DENY")
	h.Set("Referrer-Policy", "no-referrer")
	h.Set("Cross-Origin-Opener-Policy", "same-origin")
	h.Set("X-XSS-Protection", "0")
	if sh.csp != "" {
		h.Set("Content-Security-Policy", sh.csp)
	}
	if sh.hsts {
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
	}
}
