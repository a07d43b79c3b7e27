package admincolumns

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
)

// service implements the Service interface
type service struct {
	store     OptionStore
	columns   ColumnProvider
	hidden    DefaultHiddenProvider
	types     ContentTypeLister
	tokens    TokenManager
	eventSink EventSink
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithOptionStore sets the option store for the service
func WithOptionStore(store OptionStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithColumnProvider sets the host column provider. When the provider also
// implements DefaultHiddenProvider or ContentTypeLister those roles are picked up
// unless set explicitly.
func WithColumnProvider(provider ColumnProvider) Option {
	return func(s *service) {
		s.columns = provider
	}
}

// WithDefaultHiddenProvider sets the source of host default-hidden columns
func WithDefaultHiddenProvider(provider DefaultHiddenProvider) Option {
	return func(s *service) {
		s.hidden = provider
	}
}

// WithContentTypeLister sets the source of known content types
func WithContentTypeLister(lister ContentTypeLister) Option {
	return func(s *service) {
		s.types = lister
	}
}

// WithTokenManager sets the anti-forgery token manager
func WithTokenManager(tokens TokenManager) Option {
	return func(s *service) {
		s.tokens = tokens
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.store == nil {
		return nil, fmt.Errorf("option store is required")
	}
	if s.columns == nil {
		return nil, fmt.Errorf("column provider is required")
	}
	if s.tokens == nil {
		return nil, fmt.Errorf("token manager is required")
	}

	if s.hidden == nil {
		if p, ok := s.columns.(DefaultHiddenProvider); ok {
			s.hidden = p
		}
	}
	if s.types == nil {
		if l, ok := s.columns.(ContentTypeLister); ok {
			s.types = l
		}
	}

	return s, nil
}

// Catalog operations

func (s *service) Resolve(ctx context.Context, caller Caller, contentType ContentType) (Catalog, error) {
	if !caller.IsAdmin {
		return Catalog{}, ErrUnauthorized
	}

	contentType = SanitizeContentType(string(contentType))
	if contentType == "" {
		return Catalog{}, ErrInvalidContentType
	}
	if contentType == ReservedContentType {
		slog.Debug("Skipping reserved content type", "content_type", contentType)
		return Catalog{}, nil
	}

	columns, err := s.columns.Columns(ctx, contentType)
	if err != nil {
		if errors.Is(err, ErrContentTypeNotFound) {
			slog.Info("Content type unknown to host", "content_type", contentType)
			return Catalog{}, nil
		}
		return Catalog{}, &PreferenceError{ContentType: contentType, Op: "resolve", Err: err}
	}

	var hidden []ColumnKey
	if s.hidden != nil {
		hidden, err = s.hidden.DefaultHiddenColumns(ctx, contentType)
		if err != nil && !errors.Is(err, ErrContentTypeNotFound) {
			return Catalog{}, &PreferenceError{ContentType: contentType, Op: "resolve", Err: err}
		}
	}

	catalog := make(Catalog, 0, len(columns))
	for _, col := range columns {
		if col.Key == BulkSelectColumn || slices.Contains(hidden, col.Key) {
			continue
		}
		catalog = append(catalog, Column{Key: col.Key, Label: StripTags(col.Label)})
	}

	return catalog, nil
}

func (s *service) ContentTypes(ctx context.Context, caller Caller) ([]ContentTypeInfo, error) {
	if !caller.IsAdmin {
		return nil, ErrUnauthorized
	}
	if s.types == nil {
		return []ContentTypeInfo{}, nil
	}

	all, err := s.types.ContentTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list content types: %w", err)
	}

	managed := make([]ContentTypeInfo, 0, len(all))
	for _, info := range all {
		if info.Name == ReservedContentType || !info.Public || !info.ShowUI {
			continue
		}
		managed = append(managed, info)
	}
	return managed, nil
}

func (s *service) ColumnsForDisplay(ctx context.Context, req DisplayRequest) ([]DisplayColumn, error) {
	if !req.Caller.IsAdmin {
		return nil, ErrUnauthorized
	}
	if err := s.validateToken(req.Token, req.Caller); err != nil {
		return nil, err
	}

	contentType := SanitizeContentType(req.ContentType)
	catalog, err := s.Resolve(ctx, req.Caller, contentType)
	if err != nil {
		return nil, err
	}

	prefs, err := s.Load(ctx, contentType)
	if err != nil {
		return nil, err
	}

	return DisplayColumns(catalog, prefs), nil
}

// Preference operations

func (s *service) Load(ctx context.Context, contentType ContentType) (PreferenceMap, error) {
	contentType = SanitizeContentType(string(contentType))
	if contentType == "" {
		return nil, ErrInvalidContentType
	}

	data, err := s.store.GetOption(ctx, OptionName(contentType))
	if err != nil {
		if errors.Is(err, ErrOptionNotFound) {
			return PreferenceMap{}, nil
		}
		return nil, &PreferenceError{ContentType: contentType, Op: "load", Err: err}
	}

	prefs, err := decodePreferences(contentType, data)
	if err != nil {
		return nil, &PreferenceError{ContentType: contentType, Op: "load", Err: err}
	}
	return prefs, nil
}

func (s *service) Save(ctx context.Context, req SaveRequest) error {
	if !req.Caller.IsAdmin {
		return ErrUnauthorized
	}
	if err := s.validateToken(req.Token, req.Caller); err != nil {
		return err
	}

	contentType := SanitizeContentType(req.ContentType)
	if contentType == "" || contentType == ReservedContentType {
		return ErrInvalidContentType
	}

	prefs, err := sanitizePreferences(req.Columns)
	if err != nil {
		return err
	}

	data, err := encodePreferences(prefs)
	if err != nil {
		return &PreferenceError{ContentType: contentType, Op: "save", Err: err}
	}

	if err := s.store.SetOption(ctx, OptionName(contentType), data); err != nil {
		return &PreferenceError{ContentType: contentType, Op: "save", Err: err}
	}

	// Fire event
	if s.eventSink != nil {
		if err := s.eventSink.PreferencesSaved(ctx, contentType, prefs); err != nil {
			slog.Warn("Preference event failed", "content_type", contentType, "error", err)
		}
	}

	return nil
}

func (s *service) Apply(ctx context.Context, contentType ContentType, columns []Column) ([]Column, error) {
	contentType = SanitizeContentType(string(contentType))
	if contentType == "" {
		return columns, ErrInvalidContentType
	}
	if contentType == ReservedContentType {
		return columns, nil
	}

	prefs, err := s.Load(ctx, contentType)
	if err != nil {
		return columns, err
	}
	return Apply(columns, prefs), nil
}

func (s *service) IssueToken(ctx context.Context, caller Caller) (string, error) {
	if !caller.IsAdmin {
		return "", ErrUnauthorized
	}
	return s.tokens.Generate(caller.SessionID)
}

func (s *service) validateToken(token string, caller Caller) error {
	if err := s.tokens.Validate(token, caller.SessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

// sanitizePreferences reduces every submitted value to a plain string.
func sanitizePreferences(columns map[string]any) (PreferenceMap, error) {
	prefs := make(PreferenceMap, len(columns))
	for key, value := range columns {
		if key == "" {
			return nil, fmt.Errorf("%w: empty column key", ErrInvalidInput)
		}
		s, err := sanitizeValue(value)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: %v", ErrInvalidInput, key, err)
		}
		prefs[ColumnKey(key)] = s
	}
	return prefs, nil
}

func sanitizeValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return SanitizeText(v), nil
	case bool:
		if v {
			return HiddenValue, nil
		}
		return VisibleValue, nil
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return formatFloat(f), nil
		}
		return SanitizeText(v.String()), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return formatFloat(v), nil
	default:
		return "", fmt.Errorf("unsupported value type %T", value)
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
