package admincolumns_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/admin-columns/pkg/admincolumns"
	"github.com/tendant/admin-columns/pkg/admincolumns/catalog"
	"github.com/tendant/admin-columns/pkg/admincolumns/store/memory"
	"github.com/tendant/admin-columns/pkg/admincolumns/token"
)

var (
	admin   = admincolumns.Caller{SessionID: "session-admin", IsAdmin: true}
	editor  = admincolumns.Caller{SessionID: "session-editor", IsAdmin: false}
	threeUp = []admincolumns.Column{
		{Key: "title", Label: "Title"},
		{Key: "author", Label: "Author"},
		{Key: "date", Label: "Date"},
	}
)

// countingStore records writes so tests can assert nothing was persisted
type countingStore struct {
	*memory.Store
	writes int
}

func (c *countingStore) SetOption(ctx context.Context, name string, value []byte) error {
	c.writes++
	return c.Store.SetOption(ctx, name, value)
}

type failingStore struct{}

func (failingStore) GetOption(ctx context.Context, name string) ([]byte, error) {
	return nil, errors.New("store offline")
}

func (failingStore) SetOption(ctx context.Context, name string, value []byte) error {
	return errors.New("store offline")
}

type recordingSink struct {
	saved []admincolumns.PreferenceMap
	err   error
}

func (r *recordingSink) PreferencesSaved(ctx context.Context, contentType admincolumns.ContentType, prefs admincolumns.PreferenceMap) error {
	r.saved = append(r.saved, prefs)
	return r.err
}

type testEnv struct {
	svc      admincolumns.Service
	store    *countingStore
	registry *catalog.Registry
	sink     *recordingSink
}

func setupTestService(t *testing.T) *testEnv {
	registry := catalog.NewRegistry()
	require.NoError(t, registry.Register(catalog.ContentType{
		Name: "post", Label: "Posts", Public: true, ShowUI: true,
		Columns: append([]admincolumns.Column{{Key: admincolumns.BulkSelectColumn, Label: `<input type="checkbox" />`}}, threeUp...),
	}))

	env := &testEnv{
		store:    &countingStore{Store: memory.New()},
		registry: registry,
		sink:     &recordingSink{},
	}

	svc, err := admincolumns.New(
		admincolumns.WithOptionStore(env.store),
		admincolumns.WithColumnProvider(registry),
		admincolumns.WithTokenManager(token.New(token.WithSecretKey("test-secret"))),
		admincolumns.WithEventSink(env.sink),
	)
	require.NoError(t, err)
	env.svc = svc
	return env
}

// token issues a token bound to the admin session
func (e *testEnv) token(t *testing.T) string {
	tok, err := e.svc.IssueToken(context.Background(), admin)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) save(t *testing.T, columns map[string]any) {
	err := e.svc.Save(context.Background(), admincolumns.SaveRequest{
		Caller:      admin,
		ContentType: "post",
		Token:       e.token(t),
		Columns:     columns,
	})
	require.NoError(t, err)
}

func TestServiceCreation(t *testing.T) {
	tokens := token.New(token.WithSecretKey("test-secret"))
	registry := catalog.DefaultRegistry()

	tests := []struct {
		name        string
		options     []admincolumns.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []admincolumns.Option{},
			expectError: true,
		},
		{
			name: "missing column provider should fail",
			options: []admincolumns.Option{
				admincolumns.WithOptionStore(memory.New()),
				admincolumns.WithTokenManager(tokens),
			},
			expectError: true,
		},
		{
			name: "missing token manager should fail",
			options: []admincolumns.Option{
				admincolumns.WithOptionStore(memory.New()),
				admincolumns.WithColumnProvider(registry),
			},
			expectError: true,
		},
		{
			name: "store, provider and tokens should succeed",
			options: []admincolumns.Option{
				admincolumns.WithOptionStore(memory.New()),
				admincolumns.WithColumnProvider(registry),
				admincolumns.WithTokenManager(tokens),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := admincolumns.New(tt.options...)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("strips bulk select and default hidden columns", func(t *testing.T) {
		env := setupTestService(t)
		env.registry.SetDefaultHidden("date")
		env.registry.AddFilter("post", func(_ admincolumns.ContentType, columns []admincolumns.Column) []admincolumns.Column {
			return append(columns, admincolumns.Column{Key: "seo", Label: "<b>SEO</b> &amp; Meta"})
		})

		got, err := env.svc.Resolve(ctx, admin, "post")
		require.NoError(t, err)
		assert.Equal(t, admincolumns.Catalog{
			{Key: "title", Label: "Title"},
			{Key: "author", Label: "Author"},
			{Key: "seo", Label: "SEO & Meta"},
		}, got)
	})

	t.Run("ignores saved preferences", func(t *testing.T) {
		env := setupTestService(t)
		env.save(t, map[string]any{"cb": "0", "title": "1"})

		got, err := env.svc.Resolve(ctx, admin, "post")
		require.NoError(t, err)
		assert.Equal(t, []admincolumns.ColumnKey{"title", "author", "date"}, got.Keys())
	})

	t.Run("sanitizes the content type", func(t *testing.T) {
		env := setupTestService(t)
		got, err := env.svc.Resolve(ctx, admin, "P<o>st")
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	tests := []struct {
		name        string
		caller      admincolumns.Caller
		contentType admincolumns.ContentType
		wantErr     error
	}{
		{"unauthorized", editor, "post", admincolumns.ErrUnauthorized},
		{"empty content type", admin, "<>", admincolumns.ErrInvalidContentType},
		{"reserved content type", admin, admincolumns.ReservedContentType, nil},
		{"unknown content type", admin, "product", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestService(t)
			got, err := env.svc.Resolve(ctx, tt.caller, tt.contentType)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Empty(t, got)
		})
	}
}

func TestApply_Scenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("no preferences is identity", func(t *testing.T) {
		env := setupTestService(t)
		got, err := env.svc.Apply(ctx, "post", threeUp)
		require.NoError(t, err)
		assert.Equal(t, threeUp, got)
	})

	t.Run("hides saved column", func(t *testing.T) {
		env := setupTestService(t)
		env.save(t, map[string]any{"author": "1"})

		got, err := env.svc.Apply(ctx, "post", threeUp)
		require.NoError(t, err)
		assert.Equal(t, []admincolumns.Column{{Key: "title", Label: "Title"}, {Key: "date", Label: "Date"}}, got)
	})

	t.Run("unknown keys are inert", func(t *testing.T) {
		env := setupTestService(t)
		env.save(t, map[string]any{"author": "0", "bogus_key": "1"})

		got, err := env.svc.Apply(ctx, "post", threeUp)
		require.NoError(t, err)
		assert.Equal(t, threeUp, got)
	})

	t.Run("second save replaces the map", func(t *testing.T) {
		env := setupTestService(t)
		env.save(t, map[string]any{"author": "1"})
		env.save(t, map[string]any{"date": "1"})

		got, err := env.svc.Apply(ctx, "post", threeUp)
		require.NoError(t, err)
		assert.Equal(t, []admincolumns.Column{{Key: "title", Label: "Title"}, {Key: "author", Label: "Author"}}, got)
	})

	t.Run("deterministic", func(t *testing.T) {
		env := setupTestService(t)
		env.save(t, map[string]any{"title": "1", "date": "1"})

		first, err := env.svc.Apply(ctx, "post", threeUp)
		require.NoError(t, err)
		second, err := env.svc.Apply(ctx, "post", threeUp)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, []admincolumns.Column{{Key: "author", Label: "Author"}}, first)
	})

	t.Run("reserved content type passes through", func(t *testing.T) {
		env := setupTestService(t)
		require.NoError(t, env.store.SetOption(ctx, admincolumns.OptionName(admincolumns.ReservedContentType), []byte(`{"title":"1"}`)))

		got, err := env.svc.Apply(ctx, admincolumns.ReservedContentType, threeUp)
		require.NoError(t, err)
		assert.Equal(t, threeUp, got)
	})

	t.Run("store failure keeps every column", func(t *testing.T) {
		svc, err := admincolumns.New(
			admincolumns.WithOptionStore(failingStore{}),
			admincolumns.WithColumnProvider(catalog.DefaultRegistry()),
			admincolumns.WithTokenManager(token.New(token.WithSecretKey("test-secret"))),
		)
		require.NoError(t, err)

		got, err := svc.Apply(ctx, "post", threeUp)
		assert.Error(t, err)
		assert.Equal(t, threeUp, got)
	})
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	t.Run("persists sanitized values", func(t *testing.T) {
		env := setupTestService(t)
		env.save(t, map[string]any{
			"title":  1.0,
			"author": true,
			"date":   " <b>0</b> ",
			"tags":   nil,
		})

		prefs, err := env.svc.Load(ctx, "post")
		require.NoError(t, err)
		assert.Equal(t, admincolumns.PreferenceMap{
			"title":  "1",
			"author": "1",
			"date":   "0",
			"tags":   "",
		}, prefs)
		assert.Equal(t, 1, env.store.writes)
		require.Len(t, env.sink.saved, 1)
		assert.Equal(t, prefs, env.sink.saved[0])
	})

	t.Run("event failure does not fail the save", func(t *testing.T) {
		env := setupTestService(t)
		env.sink.err = errors.New("sink down")
		env.save(t, map[string]any{"author": "1"})
		assert.Equal(t, 1, env.store.writes)
	})

	tests := []struct {
		name        string
		caller      admincolumns.Caller
		contentType string
		token       func(t *testing.T, env *testEnv) string
		columns     map[string]any
		wantErr     error
	}{
		{
			name:        "unauthorized",
			caller:      editor,
			contentType: "post",
			token:       func(t *testing.T, env *testEnv) string { return env.token(t) },
			columns:     map[string]any{"author": "1"},
			wantErr:     admincolumns.ErrUnauthorized,
		},
		{
			name:        "missing token",
			caller:      admin,
			contentType: "post",
			token:       func(t *testing.T, env *testEnv) string { return "" },
			columns:     map[string]any{"author": "1"},
			wantErr:     admincolumns.ErrInvalidToken,
		},
		{
			name:        "token for another session",
			caller:      admincolumns.Caller{SessionID: "other", IsAdmin: true},
			contentType: "post",
			token:       func(t *testing.T, env *testEnv) string { return env.token(t) },
			columns:     map[string]any{"author": "1"},
			wantErr:     admincolumns.ErrInvalidToken,
		},
		{
			name:        "reserved content type",
			caller:      admin,
			contentType: "attachment",
			token:       func(t *testing.T, env *testEnv) string { return env.token(t) },
			columns:     map[string]any{"author": "1"},
			wantErr:     admincolumns.ErrInvalidContentType,
		},
		{
			name:        "empty content type",
			caller:      admin,
			contentType: "%%",
			token:       func(t *testing.T, env *testEnv) string { return env.token(t) },
			columns:     map[string]any{"author": "1"},
			wantErr:     admincolumns.ErrInvalidContentType,
		},
		{
			name:        "nested value",
			caller:      admin,
			contentType: "post",
			token:       func(t *testing.T, env *testEnv) string { return env.token(t) },
			columns:     map[string]any{"author": map[string]any{"x": 1}},
			wantErr:     admincolumns.ErrInvalidInput,
		},
		{
			name:        "empty key",
			caller:      admin,
			contentType: "post",
			token:       func(t *testing.T, env *testEnv) string { return env.token(t) },
			columns:     map[string]any{"": "1"},
			wantErr:     admincolumns.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestService(t)
			err := env.svc.Save(ctx, admincolumns.SaveRequest{
				Caller:      tt.caller,
				ContentType: tt.contentType,
				Token:       tt.token(t, env),
				Columns:     tt.columns,
			})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, env.store.writes)
			assert.Empty(t, env.sink.saved)
		})
	}
}

func TestColumnsForDisplay(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		env := setupTestService(t)
		env.save(t, map[string]any{"author": "1", "date": "0"})

		tok := env.token(t)
		display, err := env.svc.ColumnsForDisplay(ctx, admincolumns.DisplayRequest{Caller: admin, ContentType: "post", Token: tok})
		require.NoError(t, err)
		assert.Equal(t, []admincolumns.DisplayColumn{
			{Key: "title", Label: "Title", Checked: true},
			{Key: "author", Label: "Author", Checked: false},
			{Key: "date", Label: "Date", Checked: true},
		}, display)

		// resubmitting the form unchanged reproduces the same state
		require.NoError(t, env.svc.Save(ctx, admincolumns.SaveRequest{
			Caller: admin, ContentType: "post", Token: tok, Columns: admincolumns.HiddenFlags(display),
		}))
		again, err := env.svc.ColumnsForDisplay(ctx, admincolumns.DisplayRequest{Caller: admin, ContentType: "post", Token: tok})
		require.NoError(t, err)
		assert.Equal(t, display, again)
	})

	t.Run("unauthorized returns no data", func(t *testing.T) {
		env := setupTestService(t)
		display, err := env.svc.ColumnsForDisplay(ctx, admincolumns.DisplayRequest{Caller: editor, ContentType: "post", Token: env.token(t)})
		assert.ErrorIs(t, err, admincolumns.ErrUnauthorized)
		assert.True(t, admincolumns.IsAuthorizationError(err))
		assert.Nil(t, display)
		assert.Zero(t, env.store.writes)
	})

	t.Run("invalid token", func(t *testing.T) {
		env := setupTestService(t)
		display, err := env.svc.ColumnsForDisplay(ctx, admincolumns.DisplayRequest{Caller: admin, ContentType: "post", Token: "123.bad"})
		assert.ErrorIs(t, err, admincolumns.ErrInvalidToken)
		assert.True(t, admincolumns.IsValidationError(err))
		assert.Nil(t, display)
	})

	t.Run("bulk select and default hidden never displayed", func(t *testing.T) {
		env := setupTestService(t)
		env.registry.SetDefaultHidden("author")
		env.save(t, map[string]any{"cb": "0", "author": "0"})

		display, err := env.svc.ColumnsForDisplay(ctx, admincolumns.DisplayRequest{Caller: admin, ContentType: "post", Token: env.token(t)})
		require.NoError(t, err)
		for _, col := range display {
			assert.NotEqual(t, admincolumns.BulkSelectColumn, col.Key)
			assert.NotEqual(t, admincolumns.ColumnKey("author"), col.Key)
		}
	})
}

func TestContentTypes(t *testing.T) {
	ctx := context.Background()
	env := setupTestService(t)
	require.NoError(t, env.registry.Register(catalog.ContentType{Name: "attachment", Label: "Media", Public: true, ShowUI: true}))
	require.NoError(t, env.registry.Register(catalog.ContentType{Name: "revision", Label: "Revisions", Public: false, ShowUI: false}))
	require.NoError(t, env.registry.Register(catalog.ContentType{Name: "page", Label: "Pages", Public: true, ShowUI: true}))

	infos, err := env.svc.ContentTypes(ctx, admin)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, admincolumns.ContentType("post"), infos[0].Name)
	assert.Equal(t, admincolumns.ContentType("page"), infos[1].Name)

	_, err = env.svc.ContentTypes(ctx, editor)
	assert.ErrorIs(t, err, admincolumns.ErrUnauthorized)
}

func TestIssueToken(t *testing.T) {
	env := setupTestService(t)

	_, err := env.svc.IssueToken(context.Background(), editor)
	assert.ErrorIs(t, err, admincolumns.ErrUnauthorized)

	tok, err := env.svc.IssueToken(context.Background(), admin)
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
}

func TestLoad_IgnoresNonStringValues(t *testing.T) {
	ctx := context.Background()
	env := setupTestService(t)
	require.NoError(t, env.store.SetOption(ctx, "post_admin_columns", []byte(`{"title":1,"author":true,"date":"1"}`)))

	prefs, err := env.svc.Load(ctx, "post")
	require.NoError(t, err)
	assert.Equal(t, admincolumns.PreferenceMap{"date": "1"}, prefs)

	got, err := env.svc.Apply(ctx, "post", threeUp)
	require.NoError(t, err)
	assert.Equal(t, []admincolumns.ColumnKey{"title", "author"}, admincolumns.Catalog(got).Keys())
}

func TestContentTypeNormalization(t *testing.T) {
	ctx := context.Background()
	env := setupTestService(t)

	err := env.svc.Save(ctx, admincolumns.SaveRequest{
		Caller:      admin,
		ContentType: "Post",
		Token:       env.token(t),
		Columns:     map[string]any{"author": "1"},
	})
	require.NoError(t, err)

	for _, ct := range []admincolumns.ContentType{"post", "Post", " POST "} {
		prefs, err := env.svc.Load(ctx, ct)
		require.NoError(t, err, ct)
		assert.Equal(t, admincolumns.PreferenceMap{"author": "1"}, prefs, ct)

		got, err := env.svc.Apply(ctx, ct, threeUp)
		require.NoError(t, err, ct)
		assert.Equal(t, []admincolumns.ColumnKey{"title", "date"}, admincolumns.Catalog(got).Keys(), ct)
	}

	t.Run("reserved type in any case passes through", func(t *testing.T) {
		require.NoError(t, env.store.SetOption(ctx, admincolumns.OptionName(admincolumns.ReservedContentType), []byte(`{"title":"1"}`)))

		got, err := env.svc.Apply(ctx, "Attachment", threeUp)
		require.NoError(t, err)
		assert.Equal(t, threeUp, got)
	})

	t.Run("empty content type is rejected", func(t *testing.T) {
		_, err := env.svc.Load(ctx, "<>")
		assert.ErrorIs(t, err, admincolumns.ErrInvalidContentType)

		got, err := env.svc.Apply(ctx, "", threeUp)
		assert.ErrorIs(t, err, admincolumns.ErrInvalidContentType)
		assert.Equal(t, threeUp, got)
	})
}
