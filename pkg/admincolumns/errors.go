package admincolumns

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrUnauthorized indicates the caller lacks the administrator capability
	ErrUnauthorized = errors.New("insufficient permissions")

	// ErrInvalidToken indicates a missing or invalid anti-forgery token
	ErrInvalidToken = errors.New("invalid anti-forgery token")

	// ErrInvalidInput indicates a malformed preference payload
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidContentType indicates an empty or reserved content type
	ErrInvalidContentType = errors.New("invalid content type")

	// ErrContentTypeNotFound indicates the host does not know the content type
	ErrContentTypeNotFound = errors.New("content type not found")

	// ErrOptionNotFound indicates no option record exists under the requested name
	ErrOptionNotFound = errors.New("option not found")
)

// PreferenceError represents an error related to preference operations
type PreferenceError struct {
	ContentType ContentType
	Op          string
	Err         error
}

func (e *PreferenceError) Error() string {
	return fmt.Sprintf("preference operation %s failed for content type %q: %v", e.Op, e.ContentType, e.Err)
}

func (e *PreferenceError) Unwrap() error {
	return e.Err
}

// IsAuthorizationError reports whether err is a capability failure.
func IsAuthorizationError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsValidationError reports whether err is a token or input validation failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidContentType)
}
