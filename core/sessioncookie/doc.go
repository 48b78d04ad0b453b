// Package sessioncookie serializes the cookie-side portion of a shadow
// session into a signed, optionally compressed HTTP cookie.
//
// The payload is a JSON envelope holding the cookie-side mapping (ordinary
// session fields plus the reserved "shadow_key" carrying the server-side
// record key) and an issued-at timestamp. Payloads are HMAC-SHA256 signed;
// payloads above 1KB are deflate-compressed when that makes them smaller.
//
// # Trust Model
//
// Decode never fails on client input: a missing cookie, a bad signature, a
// malformed payload, or a payload older than the configured lifetime all
// yield a fresh empty session. The issued-at check makes the signed payload
// authoritative for session age, so a non-permanent cookie cannot be
// replayed past the configured lifetime even though the browser-side cookie
// carries no Max-Age.
//
// # Key Rotation
//
// Pass multiple secrets to rotate signing keys without invalidating live
// sessions: the first secret signs new cookies, every secret verifies
// incoming ones.
//
//	codec, err := sessioncookie.New(
//		[]string{newSecret, oldSecret},
//		sessioncookie.WithSecure(true),
//	)
package sessioncookie
