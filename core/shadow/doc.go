// Package shadow augments cookie-based web sessions with server-side storage.
//
// The client-held signed cookie carries only a short opaque key; the bulk of
// the session data (the "shadow" fields) lives in Redis under that key with a
// time-to-live. This keeps cookies small and allows storing larger or more
// dynamic data without exposing it to the client.
//
// # Core Components
//
// The package provides two types:
//
//   - Session: a unified field→value mapping that routes designated field
//     names to the store-backed record and everything else to the cookie
//     payload
//   - Record: the server-side record itself, with lazy key materialization,
//     collision-safe key generation, rename-on-rotate, and TTL refresh
//
// # Lazy Key Materialization
//
// A record has no store key until the first field access. The first read,
// write, or delete generates a unique key, reserves it against concurrent
// workers via a transient "<key>-reserved" SETNX entry, adopts it in one
// transaction pipeline, and writes it into the cookie-side session under the
// reserved "shadow_key" field so it survives to the next request.
//
// # Key Rotation
//
// RegenerateKey rotates the record identifier without touching its contents;
// the store-side RENAMENX carries all fields to the new key. Rotate after
// privilege changes to prevent session fixation:
//
//	sess, _ := transport.FromContext(r.Context())
//	if _, err := sess.Shadow.RegenerateKey(r.Context()); err != nil {
//		// handle rotation failure
//	}
//
// # Self-Healing
//
// When the store record has expired or been evicted, Exists reports false,
// drops the stale key from the cookie side, and resets the record so the
// next field access transparently recreates a fresh, empty record under a
// new key. A missing record is never an error; store connectivity failures,
// by contrast, always propagate.
//
// # Basic Usage
//
//	sess := shadow.NewSession()
//	if err := sess.Shadow.Open(sess, redisClient, 30*time.Minute); err != nil {
//		// nil session or nil client
//	}
//
//	// Cookie-side field: stays in the signed cookie payload.
//	_ = sess.Set(ctx, "theme", "dark")
//
//	// Shadow field: lives in Redis, only the key travels in the cookie.
//	_ = sess.Shadow.Set(ctx, "cart", []string{"sku-1", "sku-2"})
//
//	// Request teardown refreshes the TTL of accessed records.
//	_ = sess.Shadow.Save(ctx)
//
// # Concurrency
//
// Each request owns one Session; the types are not safe for concurrent use
// within a request. Across requests, the reservation protocol guarantees
// that concurrent key generation never yields the same key twice. Field
// writes under an established key are last-write-wins at Redis hash-field
// granularity.
package shadow
