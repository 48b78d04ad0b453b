// Package redis provides Redis client initialization and health checking for
// the shadow session store.
//
// It wraps the go-redis client with URL validation, retry logic, and a ping
// verification so callers get a connection that is known to work:
//
//	client, err := redis.Connect(ctx, redis.Config{
//		ConnectionURL: "redis://localhost:6379/0",
//		RetryAttempts: 3,
//		RetryInterval: 5 * time.Second,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	transport := sessiontransport.NewCookie(codec, client, "__session", lifetime)
//
// Both redis:// and rediss:// (TLS) URL schemes are supported. Connection
// establishment respects context cancellation and the configured
// ConnectTimeout.
//
// Healthcheck returns a probe suitable for readiness/liveness endpoints:
//
//	check := redis.Healthcheck(client)
//	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
//		if err := check(r.Context()); err != nil {
//			http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
//			return
//		}
//		w.WriteHeader(http.StatusOK)
//	})
//
// Errors are exposed as sentinels (ErrFailedToParseRedisConnString,
// ErrRedisNotReady, ErrEmptyConnectionURL, ErrHealthcheckFailed) that wrap
// the underlying client errors, so callers can branch with errors.Is while
// still seeing the root cause.
package redis
