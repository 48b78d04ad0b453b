// Package logger provides structured logging helpers built on Go's standard
// slog package.
//
// The attribute constructors follow the empty-Attr pattern: passing a nil
// error or an empty string yields an attribute slog silently drops, so call
// sites never need nil checks:
//
//	log.Error("failed to save shadow session",
//		logger.Error(err),
//		logger.SessionKey(sess.Shadow.Key()),
//	)
package logger
