package shadow

import "errors"

var (
	// ErrNilSession is returned when a record is opened without an owning session.
	ErrNilSession = errors.New("shadow: session must not be nil")

	// ErrNilStore is returned when a record is opened without a store client.
	// This is a configuration error and is reported before any store I/O.
	ErrNilStore = errors.New("shadow: store client must not be nil")

	// ErrNotOpen is returned when a field operation runs on a record that was
	// never bound to a store client via Open.
	ErrNotOpen = errors.New("shadow: record is not bound to a store, call Open first")

	// ErrKeyGenerationExhausted is returned when no unique record key could be
	// generated within the attempt budget. It is fatal for the request's
	// ability to persist shadow data and is never retried internally.
	ErrKeyGenerationExhausted = errors.New("shadow: failed to generate a unique record key in 100 attempts")

	// ErrFieldNotFound is returned when a requested field does not exist,
	// either in the cookie-side mapping or in the store-backed record.
	ErrFieldNotFound = errors.New("shadow: field not found")
)
