package redis

import "errors"

// Sentinel errors for connection establishment and health probing.
// Check with errors.Is; the underlying client error is joined alongside.
var (
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	ErrRedisNotReady                = errors.New("redis did not become ready within the given time period")
	ErrEmptyConnectionURL           = errors.New("empty redis connection URL")
	ErrHealthcheckFailed            = errors.New("redis healthcheck failed")
)
