package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cache   sync.Map // reflect.Type -> parsed config value
	envOnce sync.Once
)

// Load parses environment variables into cfg using its env struct tags.
// Each configuration type is loaded once per process and cached, so repeated
// calls with the same type return identical values. A .env file in the
// working directory is loaded on first use if present.
func Load[T any](cfg *T) error {
	envOnce.Do(func() {
		// Missing .env is the normal case outside local development.
		_ = godotenv.Load()
	})

	typ := reflect.TypeOf(*cfg)
	if cached, ok := cache.Load(typ); ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", typ, err)
	}

	actual, _ := cache.LoadOrStore(typ, *cfg)
	*cfg = actual.(T)
	return nil
}

// MustLoad is Load that panics on failure, for use during startup.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
