package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Config holds Redis connection settings with environment variable mapping.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}

// Connect creates a Redis client and verifies connectivity with a ping,
// retrying transient failures with linear backoff. The returned client is
// ready for use; callers own closing it.
func Connect(ctx context.Context, cfg Config) (*goredis.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}

	opts, err := goredis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client := goredis.NewClient(opts)

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := range attempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				_ = client.Close()
				return nil, errors.Join(ErrRedisNotReady, ctx.Err(), lastErr)
			case <-time.After(cfg.RetryInterval * time.Duration(attempt)):
			}
		}

		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
	}

	_ = client.Close()
	return nil, errors.Join(ErrRedisNotReady, lastErr)
}

// Healthcheck returns a probe function suitable for readiness endpoints.
func Healthcheck(client *goredis.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
