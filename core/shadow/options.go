package shadow

import "github.com/redis/go-redis/v9"

// Hook is an extension point invoked inside the record's atomic pipelines.
// The key argument is the record key the pipeline operates on. Hooks let a
// derived setup add store-side bookkeeping (counters, indexes) without
// changing the core flow.
type Hook func(pipe redis.Pipeliner, key string)

// Option configures a Session and its embedded Record.
type Option func(*Session)

// WithForcedShadowFields replaces the set of field names that always route to
// the store-backed record regardless of caller intent. The default set
// contains only the framework flash-message field.
func WithForcedShadowFields(names ...string) Option {
	return func(s *Session) {
		forced := make(map[string]struct{}, len(names))
		for _, name := range names {
			forced[name] = struct{}{}
		}
		s.forced = forced
	}
}

// WithKeyFunc replaces the record key generator. The function must return
// collision-resistant, URL-safe strings. Mostly useful in tests.
func WithKeyFunc(fn func() string) Option {
	return func(s *Session) {
		if fn != nil {
			s.Shadow.keyFunc = fn
		}
	}
}

// WithKeyLength sets the number of random bytes in generated record keys.
// Ignored when a custom key function is installed via WithKeyFunc.
func WithKeyLength(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.Shadow.keyLen = n
		}
	}
}

// WithOnCreate installs a hook that runs in the pipeline which adopts a
// freshly created record key.
func WithOnCreate(hook Hook) Option {
	return func(s *Session) {
		s.Shadow.onCreate = hook
	}
}

// WithOnSave installs a hook that runs in the pipeline which refreshes the
// record TTL at request teardown.
func WithOnSave(hook Hook) Option {
	return func(s *Session) {
		s.Shadow.onSave = hook
	}
}
