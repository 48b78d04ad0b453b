package logger

import (
	"log/slog"
	"time"
)

// Attribute helpers use the empty Attr pattern for nil safety, so calls like
// log.Error("msg", logger.Error(err)) need no explicit nil checks.

// Error creates an attribute for a single error under the key "error".
// Returns an empty Attr for nil errors.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component tags the subsystem emitting the log line.
func Component(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("component", name)
}

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Elapsed calculates and logs the duration since the start time.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// SessionKey creates an attribute for a shadow record key.
// Returns an empty Attr for empty keys.
func SessionKey(key string) slog.Attr {
	if key == "" {
		return slog.Attr{}
	}
	return slog.String("session_key", key)
}
