// Package catalog provides the host side of column discovery: a registry of
// content types, the columns their listing tables render, extension filters that
// add or rewrite columns, and the columns the host hides by default.
package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/tendant/admin-columns/pkg/admincolumns"
)

// ColumnsFilter rewrites the column set of a listing table. Filters registered for a
// content type run in registration order, each receiving the previous result.
type ColumnsFilter func(contentType admincolumns.ContentType, columns []admincolumns.Column) []admincolumns.Column

// ContentType is a registered content type and its stock listing columns
type ContentType struct {
	Name          admincolumns.ContentType
	Label         string
	Public        bool
	ShowUI        bool
	Columns       []admincolumns.Column
	DefaultHidden []admincolumns.ColumnKey
}

// Registry is an in-process host column provider.
// It implements admincolumns.ColumnProvider, admincolumns.DefaultHiddenProvider
// and admincolumns.ContentTypeLister.
type Registry struct {
	mu            sync.RWMutex
	order         []admincolumns.ContentType
	types         map[admincolumns.ContentType]ContentType
	filters       map[admincolumns.ContentType][]ColumnsFilter
	defaultHidden []admincolumns.ColumnKey
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		types:   make(map[admincolumns.ContentType]ContentType),
		filters: make(map[admincolumns.ContentType][]ColumnsFilter),
	}
}

// Register adds or replaces a content type. Replacing keeps its position.
func (r *Registry) Register(ct ContentType) error {
	if ct.Name == "" {
		return fmt.Errorf("content type name is required")
	}
	seen := make(map[admincolumns.ColumnKey]bool, len(ct.Columns))
	for _, col := range ct.Columns {
		if col.Key == "" {
			return fmt.Errorf("content type %s: column key is required", ct.Name)
		}
		if seen[col.Key] {
			return fmt.Errorf("content type %s: duplicate column key %s", ct.Name, col.Key)
		}
		seen[col.Key] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[ct.Name]; !exists {
		r.order = append(r.order, ct.Name)
	}
	ct.Columns = slices.Clone(ct.Columns)
	ct.DefaultHidden = slices.Clone(ct.DefaultHidden)
	r.types[ct.Name] = ct
	return nil
}

// AddFilter registers an extension filter for a content type's listing columns
func (r *Registry) AddFilter(contentType admincolumns.ContentType, filter ColumnsFilter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters[contentType] = append(r.filters[contentType], filter)
}

// SetDefaultHidden sets the columns the host hides for every content type
func (r *Registry) SetDefaultHidden(keys ...admincolumns.ColumnKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defaultHidden = slices.Clone(keys)
}

// Columns returns the listing columns for contentType after every extension filter has run
func (r *Registry) Columns(ctx context.Context, contentType admincolumns.ContentType) ([]admincolumns.Column, error) {
	r.mu.RLock()
	ct, exists := r.types[contentType]
	filters := slices.Clone(r.filters[contentType])
	r.mu.RUnlock()

	if !exists {
		return nil, admincolumns.ErrContentTypeNotFound
	}

	columns := slices.Clone(ct.Columns)
	for _, filter := range filters {
		columns = filter(contentType, columns)
	}
	return columns, nil
}

// DefaultHiddenColumns returns the global default-hidden keys followed by the per-type ones
func (r *Registry) DefaultHiddenColumns(ctx context.Context, contentType admincolumns.ContentType) ([]admincolumns.ColumnKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ct, exists := r.types[contentType]
	if !exists {
		return nil, admincolumns.ErrContentTypeNotFound
	}

	hidden := slices.Clone(r.defaultHidden)
	return append(hidden, ct.DefaultHidden...), nil
}

// ContentTypes returns every registered content type in registration order
func (r *Registry) ContentTypes(ctx context.Context) ([]admincolumns.ContentTypeInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]admincolumns.ContentTypeInfo, 0, len(r.order))
	for _, name := range r.order {
		ct := r.types[name]
		infos = append(infos, admincolumns.ContentTypeInfo{
			Name:   ct.Name,
			Label:  ct.Label,
			Public: ct.Public,
			ShowUI: ct.ShowUI,
		})
	}
	return infos, nil
}

// DefaultRegistry returns a registry seeded with the stock post, page and media listings
func DefaultRegistry() *Registry {
	r := NewRegistry()
	cb := admincolumns.Column{Key: admincolumns.BulkSelectColumn, Label: `<input type="checkbox" />`}

	_ = r.Register(ContentType{
		Name: "post", Label: "Posts", Public: true, ShowUI: true,
		Columns: []admincolumns.Column{
			cb,
			{Key: "title", Label: "Title"},
			{Key: "author", Label: "Author"},
			{Key: "categories", Label: "Categories"},
			{Key: "tags", Label: "Tags"},
			{Key: "comments", Label: `<span class="vers comment-grey-bubble" title="Comments"><span class="screen-reader-text">Comments</span></span>`},
			{Key: "date", Label: "Date"},
		},
	})
	_ = r.Register(ContentType{
		Name: "page", Label: "Pages", Public: true, ShowUI: true,
		Columns: []admincolumns.Column{
			cb,
			{Key: "title", Label: "Title"},
			{Key: "author", Label: "Author"},
			{Key: "comments", Label: `<span class="vers comment-grey-bubble" title="Comments"><span class="screen-reader-text">Comments</span></span>`},
			{Key: "date", Label: "Date"},
		},
	})
	_ = r.Register(ContentType{
		Name: admincolumns.ReservedContentType, Label: "Media", Public: true, ShowUI: true,
		Columns: []admincolumns.Column{
			cb,
			{Key: "title", Label: "File"},
			{Key: "author", Label: "Author"},
			{Key: "parent", Label: "Uploaded to"},
			{Key: "comments", Label: "Comments"},
			{Key: "date", Label: "Date"},
		},
	})
	return r
}
