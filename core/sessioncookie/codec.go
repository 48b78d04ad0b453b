package sessioncookie

import (
	"bytes"
	"compress/flate"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/dmitrymomot/shadowsession/core/shadow"
)

const (
	// MaxCookieSize is the default maximum size for a serialized cookie (4KB).
	MaxCookieSize = 4096

	// minSecretLength is the minimum signing secret length.
	minSecretLength = 32

	// compressThreshold is the payload size above which compression is tried.
	compressThreshold = 1024

	// compressMarker prefixes payloads that were deflate-compressed before
	// encoding.
	compressMarker = '.'
)

// envelope is the signed cookie payload: the cookie-side session mapping plus
// an issued-at timestamp used to enforce the replay window.
type envelope struct {
	IssuedAt  int64           `json:"iat"`
	Permanent bool            `json:"p,omitempty"`
	Values    json.RawMessage `json:"v"`
}

// Codec signs, serializes, and restores the cookie-side portion of a shadow
// session. It is the cookie collaborator of the session coordinator: the
// store-backed shadow fields never pass through it, only the compact mapping
// that includes the carried record key.
//
// Multiple secrets enable key rotation: the first secret signs, all secrets
// verify.
type Codec struct {
	secrets     []string
	defaults    Options
	maxSize     int
	sessionOpts []shadow.Option
}

// CodecOption configures the codec itself rather than individual cookies.
type CodecOption func(*Codec)

// WithMaxSize sets the maximum serialized cookie size.
func WithMaxSize(size int) CodecOption {
	return func(c *Codec) {
		if size > 0 {
			c.maxSize = size
		}
	}
}

// WithSessionOptions sets the options applied to every session the codec
// constructs, e.g. shadow.WithForcedShadowFields.
func WithSessionOptions(opts ...shadow.Option) CodecOption {
	return func(c *Codec) {
		c.sessionOpts = opts
	}
}

// New creates a codec with the given signing secrets and cookie attribute
// options. At least one non-empty secret of 32+ characters is required.
func New(secrets []string, opts ...Option) (*Codec, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}
	for i, secret := range secrets {
		if len(secret) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d",
				ErrSecretTooShort, i, len(secret), minSecretLength)
		}
	}

	defaults := Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	defaults = applyOptions(defaults, opts)

	return &Codec{
		secrets:  secrets,
		defaults: defaults,
		maxSize:  MaxCookieSize,
	}, nil
}

// NewWithOptions creates a codec with additional codec-level options.
func NewWithOptions(secrets []string, cookieOpts []Option, codecOpts ...CodecOption) (*Codec, error) {
	c, err := New(secrets, cookieOpts...)
	if err != nil {
		return nil, err
	}
	for _, opt := range codecOpts {
		opt(c)
	}
	return c, nil
}

// Decode restores a session from the named request cookie.
//
// A missing cookie, a bad signature, a malformed payload, or a payload older
// than lifetime all yield a fresh empty session rather than an error:
// client-supplied data is untrusted by definition and a broken cookie is
// indistinguishable from no cookie.
func (c *Codec) Decode(r *http.Request, name string, lifetime time.Duration) *shadow.Session {
	sess := shadow.NewSession(c.sessionOpts...)

	raw, err := r.Cookie(name)
	if err != nil {
		return sess
	}

	payload, err := c.verify(raw.Value)
	if err != nil {
		return sess
	}

	payload, err = decompress(payload)
	if err != nil {
		return sess
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return sess
	}

	// The signed issued-at timestamp is the authoritative age bound: the
	// browser deletes non-permanent cookies on close, but nothing stops a
	// client from replaying an old one.
	if lifetime > 0 && time.Since(time.Unix(env.IssuedAt, 0)) > lifetime {
		return sess
	}

	if err := sess.UnmarshalJSON(env.Values); err != nil {
		return shadow.NewSession(c.sessionOpts...)
	}
	sess.SetPermanent(env.Permanent)

	return sess
}

// Encode re-signs the session and attaches it to the response. Unmodified
// sessions are left alone; a modified session that became empty clears the
// cookie. Permanent sessions get a Max-Age of lifetime, non-permanent ones
// remain browser-session cookies whose effective age is enforced by the
// signed issued-at timestamp on decode.
func (c *Codec) Encode(w http.ResponseWriter, sess *shadow.Session, name string, lifetime time.Duration, opts ...Option) error {
	if sess == nil || !sess.IsModified() {
		return nil
	}

	options := applyOptions(c.defaults, opts)

	if sess.Len() == 0 {
		c.clear(w, name, options)
		return nil
	}

	values, err := sess.MarshalJSON()
	if err != nil {
		return fmt.Errorf("sessioncookie: serialize session: %w", err)
	}

	payload, err := json.Marshal(envelope{
		IssuedAt:  time.Now().Unix(),
		Permanent: sess.IsPermanent(),
		Values:    values,
	})
	if err != nil {
		return fmt.Errorf("sessioncookie: serialize envelope: %w", err)
	}

	payload = compress(payload)

	maxAge := 0
	if sess.IsPermanent() && lifetime > 0 {
		maxAge = int(lifetime.Seconds())
	}

	cookie := &http.Cookie{
		Name:     name,
		Value:    c.sign(payload),
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   maxAge,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	}

	if header := cookie.String(); len(header) > c.maxSize {
		return ErrCookieTooLarge{Name: name, Size: len(header), Max: c.maxSize}
	}

	http.SetCookie(w, cookie)
	return nil
}

// clear removes the named cookie from the client.
func (c *Codec) clear(w http.ResponseWriter, name string, options Options) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	})
}

// sign creates an HMAC-SHA256 signature over the payload using the primary
// secret. Format: base64url(payload) + "|" + base64url(signature).
func (c *Codec) sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(c.secrets[0]))
	mac.Write(payload)
	signature := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return base64.RawURLEncoding.EncodeToString(payload) + "|" + signature
}

// verify checks the signature against all configured secrets to support key
// rotation and returns the raw payload.
func (c *Codec) verify(signed string) ([]byte, error) {
	parts := strings.SplitN(signed, "|", 2)
	if len(parts) != 2 {
		return nil, ErrInvalidFormat
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrInvalidFormat
	}

	valid := slices.ContainsFunc(c.secrets, func(secret string) bool {
		mac := hmac.New(sha256.New, []byte(secret))
		mac.Write(payload)
		expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
		return subtle.ConstantTimeCompare([]byte(parts[1]), []byte(expected)) == 1
	})
	if !valid {
		return nil, ErrInvalidSignature
	}

	return payload, nil
}

// compress deflates large payloads when it actually helps, marking the
// result with a leading dot. Small payloads pass through untouched.
func compress(payload []byte) []byte {
	if len(payload) < compressThreshold {
		return payload
	}

	var buf bytes.Buffer
	buf.WriteByte(compressMarker)
	zw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return payload
	}
	if _, err := zw.Write(payload); err != nil {
		return payload
	}
	if err := zw.Close(); err != nil {
		return payload
	}

	if buf.Len() >= len(payload) {
		return payload
	}
	return buf.Bytes()
}

// decompress reverses compress for dot-marked payloads.
func decompress(payload []byte) ([]byte, error) {
	if len(payload) == 0 || payload[0] != compressMarker {
		return payload, nil
	}

	zr := flate.NewReader(bytes.NewReader(payload[1:]))
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return out, nil
}
