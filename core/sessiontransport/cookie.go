package sessiontransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/shadowsession/core/logger"
	"github.com/dmitrymomot/shadowsession/core/sessioncookie"
	"github.com/dmitrymomot/shadowsession/core/shadow"
)

type contextKey struct{}

// Cookie coordinates the shadow session lifecycle over HTTP: it opens a
// session at request start (decoding the cookie and binding the shadow
// record to the store with a TTL) and persists it at request end (re-signing
// the cookie and refreshing the store-side TTL of accessed records).
type Cookie struct {
	codec    *sessioncookie.Codec
	client   redis.UniversalClient
	name     string
	lifetime time.Duration
	maxAge   time.Duration
	log      *slog.Logger
}

// CookieOption configures the coordinator.
type CookieOption func(*Cookie)

// WithMaxAge overrides the store-side record TTL. Without it the TTL equals
// the session lifetime.
func WithMaxAge(maxAge time.Duration) CookieOption {
	return func(c *Cookie) {
		c.maxAge = maxAge
	}
}

// WithLogger sets the logger used by the middleware for open/save failures.
func WithLogger(log *slog.Logger) CookieOption {
	return func(c *Cookie) {
		if log != nil {
			c.log = log
		}
	}
}

// NewCookie creates a session coordinator. The codec signs and restores the
// client-side cookie; the Redis client backs the shadow records; lifetime is
// the permanent-session lifetime, which bounds both cookie replay and the
// default record TTL.
func NewCookie(codec *sessioncookie.Codec, client redis.UniversalClient, name string, lifetime time.Duration, opts ...CookieOption) *Cookie {
	c := &Cookie{
		codec:    codec,
		client:   client,
		name:     name,
		lifetime: lifetime,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OpenSession decodes the request cookie into a session and binds its shadow
// record to the store. The session is forced non-permanent so the signed
// payload's own age enforcement stays authoritative and a stale cookie
// cannot be replayed past the configured lifetime.
func (c *Cookie) OpenSession(r *http.Request) (*shadow.Session, error) {
	sess := c.codec.Decode(r, c.name, c.lifetime)

	sess.SetPermanent(false)

	maxAge := c.maxAge
	if maxAge == 0 {
		maxAge = c.lifetime
	}

	if err := sess.Shadow.Open(sess, c.client, maxAge); err != nil {
		return nil, err
	}

	return sess, nil
}

// SaveSession re-signs the cookie onto the response, then refreshes the
// store-side TTL of the shadow record when it was accessed this request.
func (c *Cookie) SaveSession(ctx context.Context, w http.ResponseWriter, sess *shadow.Session) error {
	if sess == nil {
		return nil
	}

	if err := c.codec.Encode(w, sess, c.name, c.lifetime); err != nil {
		return err
	}

	return sess.Shadow.Save(ctx)
}

// Middleware opens a session before the handler runs and saves it when the
// handler writes its first byte (or returns), making the session available
// to handlers via FromContext.
func (c *Cookie) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := c.OpenSession(r)
		if err != nil {
			c.log.ErrorContext(r.Context(), "failed to open shadow session", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), contextKey{}, sess)

		// Cookies must hit the wire before the first body byte, so the save
		// is hooked into the response writer instead of running after next.
		sw := &saveWriter{
			ResponseWriter: w,
			save: func() {
				if err := c.SaveSession(ctx, w, sess); err != nil {
					c.log.ErrorContext(ctx, "failed to save shadow session", logger.Error(err))
				}
			},
		}

		next.ServeHTTP(sw, r.WithContext(ctx))

		sw.flushSave()
	})
}

// FromContext returns the session stored by Middleware, if any.
func FromContext(ctx context.Context) (*shadow.Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(*shadow.Session)
	return sess, ok
}

// saveWriter defers the session save until response headers are about to be
// written, then runs it exactly once.
type saveWriter struct {
	http.ResponseWriter
	save  func()
	saved bool
}

func (w *saveWriter) WriteHeader(status int) {
	w.flushSave()
	w.ResponseWriter.WriteHeader(status)
}

func (w *saveWriter) Write(b []byte) (int, error) {
	w.flushSave()
	return w.ResponseWriter.Write(b)
}

func (w *saveWriter) flushSave() {
	if !w.saved {
		w.saved = true
		w.save()
	}
}
