// Package admincolumns provides a reusable library for managing which columns an
// administrator sees in a content listing table, per content type.
//
// It exposes a single Service interface that resolves the column catalog for a
// content type from a pluggable ColumnProvider, persists per content type
// preference maps through a pluggable OptionStore, and filters listing columns
// according to those preferences. Implementations of option stores (memory,
// SQLite, Postgres, S3) live under store/, a registry-backed column provider
// under catalog/, anti-forgery tokens under token/ and the HTTP surface under api/.
//
// Preference Semantics
//
// A preference map is a flat mapping of column key to string. A column is hidden
// only when its stored value is exactly "1"; every other value, and every missing
// key, means visible. Saving a map for a content type replaces the previous map
// wholesale.
package admincolumns
