package token

import "errors"

// Token validation errors
var (
	// ErrNoSecretKey is returned when attempting to sign tokens without a configured secret key
	ErrNoSecretKey = errors.New("token: no secret key configured")

	// ErrMissingToken is returned when no token was supplied
	ErrMissingToken = errors.New("token: missing token")

	// ErrMalformedToken is returned when the token cannot be parsed
	ErrMalformedToken = errors.New("token: malformed token")

	// ErrExpired is returned when the token has expired
	ErrExpired = errors.New("token: token has expired")

	// ErrInvalidSignature is returned when the signature does not match
	ErrInvalidSignature = errors.New("token: invalid signature")
)

// IsTokenError returns true if the error is a token validation error
func IsTokenError(err error) bool {
	return errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrInvalidSignature)
}
