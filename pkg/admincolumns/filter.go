package admincolumns

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Apply returns the columns that prefs does not hide, in input order.
// A column is removed only when prefs stores exactly HiddenValue for its key.
// The input slice is never modified.
func Apply(columns []Column, prefs PreferenceMap) []Column {
	visible := make([]Column, 0, len(columns))
	for _, col := range columns {
		if prefs.IsHidden(col.Key) {
			continue
		}
		visible = append(visible, col)
	}
	return visible
}

// DisplayColumns seeds every catalog entry with its checkbox state (checked means visible).
func DisplayColumns(catalog Catalog, prefs PreferenceMap) []DisplayColumn {
	out := make([]DisplayColumn, 0, len(catalog))
	for _, col := range catalog {
		out = append(out, DisplayColumn{
			Key:     col.Key,
			Label:   col.Label,
			Checked: !prefs.IsHidden(col.Key),
		})
	}
	return out
}

// HiddenFlags converts checkbox states back into the map Save expects: an unchecked
// box is stored as HiddenValue, a checked box as VisibleValue.
func HiddenFlags(columns []DisplayColumn) map[string]any {
	flags := make(map[string]any, len(columns))
	for _, col := range columns {
		if col.Checked {
			flags[string(col.Key)] = VisibleValue
		} else {
			flags[string(col.Key)] = HiddenValue
		}
	}
	return flags
}

// decodePreferences parses a stored option record. Entries whose value is not a
// JSON string are dropped so that malformed data can never hide a column.
func decodePreferences(contentType ContentType, data []byte) (PreferenceMap, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode preferences: %w", err)
	}

	prefs := make(PreferenceMap, len(raw))
	for key, value := range raw {
		var s *string
		if err := json.Unmarshal(value, &s); err != nil || s == nil {
			slog.Warn("Ignoring non-string preference value", "content_type", contentType, "column", key, "value", string(value))
			continue
		}
		prefs[ColumnKey(key)] = *s
	}
	return prefs, nil
}

func encodePreferences(prefs PreferenceMap) ([]byte, error) {
	data, err := json.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preferences: %w", err)
	}
	return data, nil
}
