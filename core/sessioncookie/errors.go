package sessioncookie

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSecret indicates no signing secret was provided for the codec.
	ErrNoSecret = errors.New("sessioncookie: no signing secret provided")

	// ErrSecretTooShort indicates a secret doesn't meet the minimum length
	// required for HMAC-SHA256 signing.
	ErrSecretTooShort = errors.New("sessioncookie: secret must be at least 32 characters long")

	// ErrInvalidSignature indicates signature verification failed against all
	// configured secrets, suggesting tampering or corruption.
	ErrInvalidSignature = errors.New("sessioncookie: cookie signature verification failed")

	// ErrInvalidFormat indicates the cookie value has an unexpected shape,
	// typically during decoding.
	ErrInvalidFormat = errors.New("sessioncookie: invalid cookie format")
)

// ErrCookieTooLarge indicates the serialized session exceeds the maximum
// allowed cookie size.
type ErrCookieTooLarge struct {
	Name string
	Size int
	Max  int
}

func (e ErrCookieTooLarge) Error() string {
	return fmt.Sprintf("sessioncookie: cookie %q size %d exceeds maximum %d", e.Name, e.Size, e.Max)
}
