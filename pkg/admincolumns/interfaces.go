package admincolumns

import "context"

// OptionStore defines the interface for persisted option records.
// Each record is an opaque JSON document stored under a string name.
type OptionStore interface {
	// GetOption returns the stored value, or ErrOptionNotFound when no record exists
	GetOption(ctx context.Context, name string) ([]byte, error)

	// SetOption replaces the stored value in a single write
	SetOption(ctx context.Context, name string, value []byte) error
}

// ColumnProvider returns the columns a content type's listing table would render today,
// including any third-party extension columns registered for it.
type ColumnProvider interface {
	Columns(ctx context.Context, contentType ContentType) ([]Column, error)
}

// DefaultHiddenProvider returns the columns the host hides on its own for a content type.
type DefaultHiddenProvider interface {
	DefaultHiddenColumns(ctx context.Context, contentType ContentType) ([]ColumnKey, error)
}

// ContentTypeLister enumerates the content types known to the host, in host order.
type ContentTypeLister interface {
	ContentTypes(ctx context.Context) ([]ContentTypeInfo, error)
}

// TokenManager issues and validates anti-forgery tokens bound to a session.
type TokenManager interface {
	Generate(sessionID string) (string, error)
	Validate(token, sessionID string) error
}

// EventSink defines the interface for preference events
type EventSink interface {
	// PreferencesSaved is fired after a preference map has been persisted
	PreferencesSaved(ctx context.Context, contentType ContentType, prefs PreferenceMap) error
}
