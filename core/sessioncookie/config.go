package sessioncookie

import (
	"net/http"
	"strings"
)

// Config provides environment-based configuration for the session cookie codec.
type Config struct {
	// Secrets holds comma-separated signing secrets; the first one signs,
	// all of them verify (key rotation).
	Secrets  string        `env:"SESSION_COOKIE_SECRETS" envDefault:""`
	Path     string        `env:"SESSION_COOKIE_PATH" envDefault:"/"`
	Domain   string        `env:"SESSION_COOKIE_DOMAIN" envDefault:""`
	Secure   bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	HttpOnly bool          `env:"SESSION_COOKIE_HTTP_ONLY" envDefault:"true"`
	SameSite http.SameSite `env:"SESSION_COOKIE_SAME_SITE" envDefault:"2"` // SameSiteLaxMode
	MaxSize  int           `env:"SESSION_COOKIE_MAX_SIZE" envDefault:"4096"`
}

// DefaultConfig returns a Config with secure defaults.
func DefaultConfig() Config {
	return Config{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxSize:  MaxCookieSize,
	}
}

// parseSecrets splits comma-separated secrets for key rotation support.
// Empty entries are filtered out.
func (c Config) parseSecrets() []string {
	if c.Secrets == "" {
		return nil
	}

	parts := strings.Split(c.Secrets, ",")
	secrets := make([]string, 0, len(parts))
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

// NewFromConfig creates a Codec from configuration. User-provided options
// override config values.
func NewFromConfig(cfg Config, opts ...Option) (*Codec, error) {
	configOpts := make([]Option, 0, 5)

	if cfg.Path != "" {
		configOpts = append(configOpts, WithPath(cfg.Path))
	}
	if cfg.Domain != "" {
		configOpts = append(configOpts, WithDomain(cfg.Domain))
	}
	if cfg.Secure {
		configOpts = append(configOpts, WithSecure(true))
	}
	if cfg.HttpOnly {
		configOpts = append(configOpts, WithHTTPOnly(true))
	}
	if cfg.SameSite != 0 {
		configOpts = append(configOpts, WithSameSite(cfg.SameSite))
	}

	configOpts = append(configOpts, opts...)

	c, err := New(cfg.parseSecrets(), configOpts...)
	if err != nil {
		return nil, err
	}
	if cfg.MaxSize > 0 {
		c.maxSize = cfg.MaxSize
	}
	return c, nil
}
