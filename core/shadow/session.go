package shadow

import (
	"context"
	"encoding/json"
)

// defaultForcedFields lists field names that frameworks mutate through the
// plain mapping interface but that must never reach the client cookie.
// "_flashes" is the flash-message list.
var defaultForcedFields = map[string]struct{}{
	"_flashes": {},
}

// Session is a unified field→value mapping with two storage tiers: a
// client-side signed cookie payload and a server-side store-backed Record.
//
// Routing is a pure function of the field name: names in the forced set go
// to the Shadow record, everything else stays in the cookie payload. The
// partition is fixed for the lifetime of the session, so every field lives
// in exactly one tier.
type Session struct {
	values map[string]any

	// Shadow is the server-side, store-backed portion of the session.
	Shadow *Record

	modified  bool
	permanent bool
	forced    map[string]struct{}
}

// NewSession creates an empty session with an unbound shadow record.
// The record becomes usable once Record.Open binds it to a store client.
func NewSession(opts ...Option) *Session {
	s := &Session{
		values: make(map[string]any),
		Shadow: &Record{},
		forced: defaultForcedFields,
	}
	s.Shadow.session = s

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value of the named field from whichever tier owns it.
// Returns ErrFieldNotFound when the field is absent.
func (s *Session) Get(ctx context.Context, name string) (any, error) {
	if s.isForced(name) {
		return s.Shadow.Get(ctx, name)
	}

	value, ok := s.values[name]
	if !ok {
		return nil, ErrFieldNotFound
	}
	return value, nil
}

// Set writes the named field to whichever tier owns it and marks the
// session as modified.
func (s *Session) Set(ctx context.Context, name string, value any) error {
	if s.isForced(name) {
		return s.Shadow.Set(ctx, name, value)
	}

	s.values[name] = value
	s.modified = true
	return nil
}

// Delete removes the named field from whichever tier owns it.
func (s *Session) Delete(ctx context.Context, name string) error {
	if s.isForced(name) {
		return s.Shadow.Delete(ctx, name)
	}

	if _, ok := s.values[name]; ok {
		delete(s.values, name)
		s.modified = true
	}
	return nil
}

// Has reports whether the named field exists in whichever tier owns it.
func (s *Session) Has(ctx context.Context, name string) (bool, error) {
	if s.isForced(name) {
		return s.Shadow.Has(ctx, name)
	}

	_, ok := s.values[name]
	return ok, nil
}

// Pop reads and removes the named field in one call. Returns
// ErrFieldNotFound when the field is absent.
func (s *Session) Pop(ctx context.Context, name string) (any, error) {
	if s.isForced(name) {
		return s.Shadow.Pop(ctx, name)
	}

	value, ok := s.values[name]
	if !ok {
		return nil, ErrFieldNotFound
	}
	delete(s.values, name)
	s.modified = true
	return value, nil
}

// Len returns the number of cookie-side fields, including the carried
// record key when one exists.
func (s *Session) Len() int {
	return len(s.values)
}

// IsModified reports whether any field changed since the session was
// decoded, signaling the cookie codec that re-serialization is needed.
func (s *Session) IsModified() bool {
	return s.modified
}

// SetPermanent marks the session as permanent (cookie outlives the browser
// session) or not. The coordinator forces false at request open so the
// signed payload's own age enforcement stays authoritative.
func (s *Session) SetPermanent(permanent bool) {
	if s.permanent != permanent {
		s.permanent = permanent
		s.modified = true
	}
}

// IsPermanent reports whether the session is permanent.
func (s *Session) IsPermanent() bool {
	return s.permanent
}

// MarshalJSON serializes the cookie-side mapping only. Shadow fields never
// appear in the payload.
func (s *Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.values)
}

// UnmarshalJSON replaces the cookie-side mapping with the decoded payload
// without marking the session as modified.
func (s *Session) UnmarshalJSON(data []byte) error {
	values := make(map[string]any)
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	s.values = values
	return nil
}

func (s *Session) isForced(name string) bool {
	_, ok := s.forced[name]
	return ok
}
