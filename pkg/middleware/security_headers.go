package middleware

import (
	"github.com/labstack/echo/v4"
)

// SecurityHeadersConfig holds the policy headers added after Echo's Secure
// middleware. Empty fields take the DefaultSecurityHeadersConfig value.
type SecurityHeadersConfig struct {
	ContentSecurityPolicy string
	ReferrerPolicy        string
	PermissionsPolicy     string
	CacheControl          string
}

// DefaultSecurityHeadersConfig returns the policies for a JSON-only API
// called from the Telegram web app. Responses are never rendered as
// documents, so the CSP allows nothing and forbids framing. Request URLs
// carry user ids, so no referrer is sent. Bodies hold balances and
// withdrawal details that shared caches must not keep.
func DefaultSecurityHeadersConfig() SecurityHeadersConfig {
	return SecurityHeadersConfig{
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'; base-uri 'none'",
		ReferrerPolicy:        "no-referrer",
		PermissionsPolicy:     "camera=(), microphone=(), geolocation=(), payment=()",
		CacheControl:          "no-store",
	}
}

func (cfg SecurityHeadersConfig) withDefaults() SecurityHeadersConfig {
	def := DefaultSecurityHeadersConfig()
	for _, f := range []struct{ v, d *string }{
		{&cfg.ContentSecurityPolicy, &def.ContentSecurityPolicy},
		{&cfg.ReferrerPolicy, &def.ReferrerPolicy},
		{&cfg.PermissionsPolicy, &def.PermissionsPolicy},
		{&cfg.CacheControl, &def.CacheControl},
	} {
		if *f.v == "" {
			*f.v = *f.d
		}
	}
	return cfg
}

// SecurityHeaders sets the headers in config on every response.
func SecurityHeaders(config SecurityHeadersConfig) echo.MiddlewareFunc {
	config = config.withDefaults()
	headers := [][2]string{
		{"Content-Security-Policy", config.ContentSecurityPolicy},
		{"Referrer-Policy", config.ReferrerPolicy},
		{"Permissions-Policy", config.PermissionsPolicy},
		{echo.HeaderCacheControl, config.CacheControl},
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for _, kv := range headers {
				h.Set(kv[0], kv[1])
			}
			return next(c)
		}
	}
}
