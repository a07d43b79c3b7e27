package admincolumns

import "context"

// Service defines the main interface for the admin-columns library
type Service interface {
	// Catalog operations
	Resolve(ctx context.Context, caller Caller, contentType ContentType) (Catalog, error)
	ContentTypes(ctx context.Context, caller Caller) ([]ContentTypeInfo, error)
	ColumnsForDisplay(ctx context.Context, req DisplayRequest) ([]DisplayColumn, error)

	// Preference operations
	Load(ctx context.Context, contentType ContentType) (PreferenceMap, error)
	Save(ctx context.Context, req SaveRequest) error

	// Listing filter, consulted on every listing render
	Apply(ctx context.Context, contentType ContentType, columns []Column) ([]Column, error)

	// Anti-forgery tokens
	IssueToken(ctx context.Context, caller Caller) (string, error)
}

// DisplayRequest contains parameters for loading the checkbox list of a content type
type DisplayRequest struct {
	Caller      Caller
	ContentType string
	Token       string
}

// SaveRequest contains parameters for replacing the preference map of a content type.
// Columns values may be strings, numbers, booleans or nil.
type SaveRequest struct {
	Caller      Caller
	ContentType string
	Token       string
	Columns     map[string]any
}
