package config

import "time"

// DefaultHTTPAddr keeps the portal on loopback unless HTTP_ADDR says otherwise.
const DefaultHTTPAddr = "127.0.0.1:8080"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to. Set it to ":8080" to listen
	// on every interface, for example behind a reverse proxy.
	Addr string `env:"HTTP_ADDR" envDefault:"127.0.0.1:8080"`

	// CookieDomain is the domain for the session, CSRF and flash cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Addr == "" {
		h.Addr = DefaultHTTPAddr
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 15 * time.Second
	}
}
