package shadow

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KeyField is the reserved cookie-side field that carries the record key
	// between requests.
	KeyField = "shadow_key"

	// reservedSuffix marks transient reservation entries used during key
	// generation. A reservation is always deleted after use or on failure.
	reservedSuffix = "-reserved"

	// maxKeyAttempts bounds key generation. Exceeding it is fatal for the
	// request's shadow persistence.
	maxKeyAttempts = 100

	// reservationTTL caps how long an orphaned reservation entry can survive
	// a worker that died between reserving and adopting a key.
	reservationTTL = time.Minute

	defaultKeyLen = 32
)

// Record is the server-side half of a shadow session: a store-backed mapping
// of fields to JSON-encoded values under a generated key with a TTL.
//
// A record is created empty together with its owning Session, bound to a
// store client and TTL at request-open time, and materializes its key lazily
// on the first field access. The record moves through three states: unbound
// (no client), bound without a key, and bound with a key. Detecting a
// missing or expired record in the store transitions it back to bound
// without a key, so the next access recreates a fresh record.
type Record struct {
	session *Session
	client  redis.UniversalClient

	key      string
	maxAge   time.Duration
	accessed bool

	keyLen   int
	keyFunc  func() string
	onCreate Hook
	onSave   Hook
}

// Open binds the record to the current request: it stores the client, resets
// the accessed flag, applies the TTL, and adopts whatever key the cookie-side
// session carried over from the previous request.
//
// A nil session or nil client is a configuration error; it is reported
// immediately, before any store I/O.
func (r *Record) Open(sess *Session, client redis.UniversalClient, maxAge time.Duration) error {
	if sess == nil {
		return ErrNilSession
	}
	if client == nil {
		return ErrNilStore
	}

	r.session = sess
	r.client = client
	r.accessed = false
	r.maxAge = maxAge

	r.key = ""
	if v, ok := sess.values[KeyField].(string); ok {
		r.key = v
	}

	return nil
}

// Key returns the current record key, or an empty string when no record has
// been materialized yet.
func (r *Record) Key() string {
	return r.key
}

// Accessed reports whether any field of the record was read, written, or
// deleted during the current request.
func (r *Record) Accessed() bool {
	return r.accessed
}

// Set JSON-encodes value and writes it under the named field, materializing
// the record key first if needed.
func (r *Record) Set(ctx context.Context, name string, value any) error {
	key, err := r.touch(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("shadow: encode field %q: %w", name, err)
	}

	return r.client.HSet(ctx, key, name, data).Err()
}

// Get reads the named field and decodes its JSON value. Returns
// ErrFieldNotFound when the field is absent.
func (r *Record) Get(ctx context.Context, name string) (any, error) {
	var value any
	if err := r.Scan(ctx, name, &value); err != nil {
		return nil, err
	}
	return value, nil
}

// Scan reads the named field and decodes its JSON value into dest.
// Returns ErrFieldNotFound when the field is absent.
func (r *Record) Scan(ctx context.Context, name string, dest any) error {
	key, err := r.touch(ctx)
	if err != nil {
		return err
	}

	data, err := r.client.HGet(ctx, key, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrFieldNotFound
		}
		return err
	}

	if err := json.Unmarshal([]byte(data), dest); err != nil {
		return fmt.Errorf("shadow: decode field %q: %w", name, err)
	}
	return nil
}

// Delete removes the named field from the record. Deleting an absent field
// is not an error.
func (r *Record) Delete(ctx context.Context, name string) error {
	key, err := r.touch(ctx)
	if err != nil {
		return err
	}
	return r.client.HDel(ctx, key, name).Err()
}

// Pop reads and removes the named field in one call. Returns
// ErrFieldNotFound when the field is absent.
func (r *Record) Pop(ctx context.Context, name string) (any, error) {
	value, err := r.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := r.client.HDel(ctx, r.key, name).Err(); err != nil {
		return nil, err
	}
	return value, nil
}

// Has reports whether the named field exists in the record.
func (r *Record) Has(ctx context.Context, name string) (bool, error) {
	key, err := r.touch(ctx)
	if err != nil {
		return false, err
	}
	return r.client.HExists(ctx, key, name).Result()
}

// Len returns the number of fields in the record.
func (r *Record) Len(ctx context.Context) (int64, error) {
	key, err := r.touch(ctx)
	if err != nil {
		return 0, err
	}
	return r.client.HLen(ctx, key).Result()
}

// Exists checks the store for the current record. A missing or expired
// record is not an error: the key is dropped from the cookie-side session
// and the record returns to the no-key state, so the next field access
// transparently recreates a fresh, empty record under a new key.
func (r *Record) Exists(ctx context.Context) (bool, error) {
	if r.client == nil {
		return false, ErrNotOpen
	}
	if r.key == "" {
		return false, nil
	}

	n, err := r.client.Exists(ctx, r.key).Result()
	if err != nil {
		return false, err
	}
	if n == 0 {
		r.forget()
		return false, nil
	}
	return true, nil
}

// Destroy removes the record from the store and resets the record to the
// no-key state.
func (r *Record) Destroy(ctx context.Context) error {
	if r.client == nil {
		return ErrNotOpen
	}
	if r.key != "" {
		if err := r.client.Del(ctx, r.key).Err(); err != nil {
			return err
		}
	}
	r.forget()
	return nil
}

// Save refreshes the record TTL at request teardown. It is a no-op unless a
// field was accessed during the request and a key exists, which keeps active
// records alive while untouched ones expire naturally.
func (r *Record) Save(ctx context.Context) error {
	if !r.accessed || r.key == "" {
		return nil
	}

	pipe := r.client.TxPipeline()
	if r.onSave != nil {
		r.onSave(pipe, r.key)
	}
	if r.maxAge > 0 {
		pipe.Expire(ctx, r.key, r.maxAge)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// RegenerateKey rotates the record key, e.g. after a privilege change to
// prevent session fixation. Field contents are preserved: the store-side
// rename carries them to the new key. Only the identifier changes.
func (r *Record) RegenerateKey(ctx context.Context) (string, error) {
	if r.client == nil {
		return "", ErrNotOpen
	}
	return r.createKey(ctx)
}

// touch marks the record (and the owning session) as accessed and returns
// the record key, materializing it first when the record has none.
func (r *Record) touch(ctx context.Context) (string, error) {
	if r.client == nil {
		return "", ErrNotOpen
	}

	r.accessed = true
	if r.session != nil {
		// Only meaningful for permanent sessions; fires unconditionally
		// because the record cannot know.
		r.session.modified = true
	}

	if r.key == "" {
		return r.createKey(ctx)
	}
	return r.key, nil
}

// createKey generates a new unique key and repoints the record at it.
//
// Each attempt reserves "<candidate>-reserved" with SETNX before checking the
// candidate itself. The reservation is the sole cross-process mutual
// exclusion device: it prevents two concurrent requests from adopting the
// same freshly generated key. It does not lock established keys.
func (r *Record) createKey(ctx context.Context) (string, error) {
	var newKey, reserveKey string

	for range maxKeyAttempts {
		candidate := r.generateKey()
		reserve := candidate + reservedSuffix

		ok, err := r.client.SetNX(ctx, reserve, 1, reservationTTL).Result()
		if err != nil {
			return "", err
		}
		if !ok {
			// Someone else is reserving this key right now.
			continue
		}

		n, err := r.client.Exists(ctx, candidate).Result()
		if err != nil {
			r.client.Del(ctx, reserve)
			return "", err
		}
		if n == 0 {
			newKey, reserveKey = candidate, reserve
			break
		}
		if err := r.client.Del(ctx, reserve).Err(); err != nil {
			return "", err
		}
	}

	if newKey == "" {
		return "", ErrKeyGenerationExhausted
	}

	pipe := r.client.TxPipeline()

	if r.key == "" {
		r.key = newKey
		if r.onCreate != nil {
			r.onCreate(pipe, newKey)
		}
	} else {
		// Contents follow the key: the record is renamed, not rebuilt.
		pipe.RenameNX(ctx, r.key, newKey)
		r.key = newKey
	}

	if r.maxAge > 0 {
		pipe.Expire(ctx, newKey, r.maxAge)
	}
	pipe.Del(ctx, reserveKey)

	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}

	// Carry the key in the session cookie so it survives to the next request.
	if r.session != nil {
		r.session.values[KeyField] = r.key
		r.session.modified = true
	}

	return r.key, nil
}

// forget drops the record key from both the record and the cookie-side
// session, forcing re-creation on the next field access.
func (r *Record) forget() {
	if r.session != nil {
		if _, ok := r.session.values[KeyField]; ok {
			delete(r.session.values, KeyField)
			r.session.modified = true
		}
	}
	r.key = ""
}

func (r *Record) generateKey() string {
	if r.keyFunc != nil {
		return r.keyFunc()
	}

	n := r.keyLen
	if n <= 0 {
		n = defaultKeyLen
	}
	b := make([]byte, n)
	// rand.Read never fails on supported platforms.
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
