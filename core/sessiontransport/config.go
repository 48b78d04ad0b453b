package sessiontransport

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/shadowsession/core/sessioncookie"
)

// Config provides environment-based configuration for the cookie-based
// session coordinator.
type Config struct {
	// CookieName is the name of the session cookie.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"__session"`

	// Lifetime bounds both cookie replay and the default record TTL.
	// Matches the classic permanent-session lifetime of 31 days.
	Lifetime time.Duration `env:"SESSION_LIFETIME" envDefault:"744h"`

	// MaxAge overrides the store-side record TTL when non-zero.
	MaxAge time.Duration `env:"SESSION_SHADOW_MAX_AGE" envDefault:"0"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CookieName: "__session",
		Lifetime:   744 * time.Hour,
	}
}

// NewCookieFromConfig creates a session coordinator from configuration.
// The codec and Redis client must be provided by the caller.
func NewCookieFromConfig(cfg Config, codec *sessioncookie.Codec, client redis.UniversalClient, opts ...CookieOption) *Cookie {
	if cfg.MaxAge > 0 {
		opts = append([]CookieOption{WithMaxAge(cfg.MaxAge)}, opts...)
	}
	return NewCookie(codec, client, cfg.CookieName, cfg.Lifetime, opts...)
}
