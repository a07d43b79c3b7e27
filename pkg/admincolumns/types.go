package admincolumns

// ContentType identifies a category of records that has its own listing table (e.g. "post").
type ContentType string

// ColumnKey identifies a column within a content type's catalog.
type ColumnKey string

const (
	// ReservedContentType is the media content type. It is never managed.
	ReservedContentType ContentType = "attachment"

	// BulkSelectColumn is the checkbox column used for bulk actions. It never appears in a catalog.
	BulkSelectColumn ColumnKey = "cb"

	// HiddenValue is the only stored value that hides a column.
	HiddenValue = "1"

	// VisibleValue is the canonical stored value for a visible column.
	VisibleValue = "0"

	// OptionSuffix is appended to the content type to build the option record name.
	OptionSuffix = "_admin_columns"
)

// Column is a single listing column.
type Column struct {
	Key   ColumnKey `json:"key"`
	Label string    `json:"label"`
}

// Catalog is the ordered set of manageable columns for one content type.
type Catalog []Column

// Keys returns the column keys in catalog order.
func (c Catalog) Keys() []ColumnKey {
	keys := make([]ColumnKey, 0, len(c))
	for _, col := range c {
		keys = append(keys, col.Key)
	}
	return keys
}

// PreferenceMap maps column keys to their stored visibility value for one content type.
type PreferenceMap map[ColumnKey]string

// IsHidden reports whether the stored value for key is exactly HiddenValue.
func (p PreferenceMap) IsHidden(key ColumnKey) bool {
	return p[key] == HiddenValue
}

// DisplayColumn is a catalog entry seeded with its checkbox state. Checked means visible.
type DisplayColumn struct {
	Key     ColumnKey `json:"key"`
	Label   string    `json:"label"`
	Checked bool      `json:"checked"`
}

// ContentTypeInfo describes a content type known to the host.
type ContentTypeInfo struct {
	Name   ContentType `json:"name"`
	Label  string      `json:"label"`
	Public bool        `json:"public"`
	ShowUI bool        `json:"show_ui"`
}

// Caller carries the request-scoped identity the host has already established.
type Caller struct {
	// SessionID binds anti-forgery tokens to a session.
	SessionID string
	// IsAdmin is the result of the host's administrator capability check.
	IsAdmin bool
}

// OptionName returns the option record name for a content type.
func OptionName(contentType ContentType) string {
	return string(contentType) + OptionSuffix
}

