// middleware/security.go
package middleware

import (
	"net/http"
	"strconv"

	"github.com/crewjam/csp"
	"github.com/dalemusser/cyborg/config"
)

// SitePolicy is the Content-Security-Policy for the marketing site: own
// assets, inline scripts/styles from the page, and Google Fonts.
func SitePolicy() string {
	return csp.Header{
		DefaultSrc: []string{"'self'"},
		ScriptSrc:  []string{"'self'", "'unsafe-inline'", "https://fonts.googleapis.com"},
		StyleSrc:   []string{"'self'", "'unsafe-inline'", "https://fonts.googleapis.com"},
		FontSrc:    []string{"'self'", "https://fonts.gstatic.com"},
		ImgSrc:     []string{"'self'", "data:"},
		MediaSrc:   []string{"'self'"},
	}.String()
}

// SecurityHeadersOptions selects the headers written on every response.
// An empty string field omits its header.
type SecurityHeadersOptions struct {
	XFrameOptions       string // "DENY"
	XContentTypeOptions string // "nosniff"
	ReferrerPolicy      string // "strict-origin-when-cross-origin"
	XSSProtection       string // "1; mode=block"

	// HSTSMaxAge is in seconds; 0 disables Strict-Transport-Security.
	HSTSMaxAge            int
	HSTSIncludeSubDomains bool
	HSTSPreload           bool

	// HSTSOnlyTLS limits HSTS to requests that arrived over TLS. The site
	// sends it unconditionally, so this stays false behind a TLS proxy.
	HSTSOnlyTLS bool

	ContentSecurityPolicy string // SitePolicy()
	PermissionsPolicy     string
}

// DefaultSecurityHeadersOptions returns the header set the site has always
// answered with.
func DefaultSecurityHeadersOptions() SecurityHeadersOptions {
	return SecurityHeadersOptions{
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		XSSProtection:         "1; mode=block",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubDomains: true,
		ContentSecurityPolicy: SitePolicy(),
	}
}

// SecurityHeaders returns middleware that writes the headers in opts
// before calling next.
func SecurityHeaders(opts SecurityHeadersOptions) func(next http.Handler) http.Handler {
	static := [][2]string{
		{"X-Frame-Options", opts.XFrameOptions},
		{"X-Content-Type-Options", opts.XContentTypeOptions},
		{"Referrer-Policy", opts.ReferrerPolicy},
		{"X-XSS-Protection", opts.XSSProtection},
		{"Content-Security-Policy", opts.ContentSecurityPolicy},
		{"Permissions-Policy", opts.PermissionsPolicy},
	}

	var hsts string
	if opts.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(opts.HSTSMaxAge)
		if opts.HSTSIncludeSubDomains {
			hsts += "; includeSubDomains"
		}
		if opts.HSTSPreload {
			hsts += "; preload"
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range static {
				if kv[1] != "" {
					h.Set(kv[0], kv[1])
				}
			}
			if hsts != "" && (r.TLS != nil || !opts.HSTSOnlyTLS) {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersFromConfig builds SecurityHeaders from the security keys.
// A nil config or enable_security_headers=false yields a pass-through, and
// an empty content_security_policy falls back to SitePolicy().
func SecurityHeadersFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.Security.EnableSecurityHeaders {
		return func(next http.Handler) http.Handler { return next }
	}

	opts := SecurityHeadersOptions{
		XFrameOptions:         coreCfg.Security.XFrameOptions,
		XContentTypeOptions:   coreCfg.Security.XContentTypeOptions,
		ReferrerPolicy:        coreCfg.Security.ReferrerPolicy,
		XSSProtection:         coreCfg.Security.XSSProtection,
		HSTSMaxAge:            coreCfg.Security.HSTSMaxAge,
		HSTSIncludeSubDomains: coreCfg.Security.HSTSIncludeSubDomains,
		HSTSPreload:           coreCfg.Security.HSTSPreload,
		HSTSOnlyTLS:           coreCfg.Security.HSTSOnlyTLS,
		ContentSecurityPolicy: coreCfg.Security.ContentSecurityPolicy,
		PermissionsPolicy:     coreCfg.Security.PermissionsPolicy,
	}

	if opts.ContentSecurityPolicy == "" {
		opts.ContentSecurityPolicy = SitePolicy()
	}

	return SecurityHeaders(opts)
}

// SecureDefaults is SecurityHeaders(DefaultSecurityHeadersOptions()).
func SecureDefaults() func(next http.Handler) http.Handler {
	return SecurityHeaders(DefaultSecurityHeadersOptions())
}
