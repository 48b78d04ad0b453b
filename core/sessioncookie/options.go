package sessioncookie

import "net/http"

// Options configures the attributes of the emitted session cookie.
type Options struct {
	Path     string
	Domain   string
	Secure   bool
	HttpOnly bool
	SameSite http.SameSite
}

// Option is a functional option for configuring cookie attributes.
type Option func(*Options)

// WithPath sets the cookie path attribute.
func WithPath(path string) Option {
	return func(o *Options) {
		o.Path = path
	}
}

// WithDomain sets the cookie domain attribute.
func WithDomain(domain string) Option {
	return func(o *Options) {
		o.Domain = domain
	}
}

// WithSecure ensures the cookie is only sent over HTTPS.
func WithSecure(secure bool) Option {
	return func(o *Options) {
		o.Secure = secure
	}
}

// WithHTTPOnly prevents JavaScript access to the cookie.
func WithHTTPOnly(httpOnly bool) Option {
	return func(o *Options) {
		o.HttpOnly = httpOnly
	}
}

// WithSameSite sets the SameSite attribute for CSRF protection.
func WithSameSite(sameSite http.SameSite) Option {
	return func(o *Options) {
		o.SameSite = sameSite
	}
}

// applyOptions copies base options and applies modifications, preventing
// accidental mutation of shared defaults.
func applyOptions(base Options, opts []Option) Options {
	result := base
	for _, opt := range opts {
		opt(&result)
	}
	return result
}
