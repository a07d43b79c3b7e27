package config

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/admin-columns/pkg/admincolumns"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StoreMemory, cfg.StoreType)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.EnableEventLogging)
}

func TestWithPort(t *testing.T) {
	cfg, err := Load(WithPort("9090"))
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)

	_, err = Load(WithPort(""))
	assert.Error(t, err)
}

func TestWithStoreURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantType  string
		check     func(t *testing.T, cfg *ServerConfig)
		wantError bool
	}{
		{name: "empty", url: "", wantType: StoreMemory},
		{name: "memory", url: "memory", wantType: StoreMemory},
		{
			name: "postgres", url: "postgres://u:p@localhost/db", wantType: StorePostgres,
			check: func(t *testing.T, cfg *ServerConfig) {
				assert.Equal(t, "postgres://u:p@localhost/db", cfg.DatabaseURL)
			},
		},
		{name: "postgresql", url: "postgresql://localhost/db", wantType: StorePostgres},
		{
			name: "sqlite", url: "sqlite:///var/lib/admin-columns.db", wantType: StoreSQLite,
			check: func(t *testing.T, cfg *ServerConfig) {
				assert.Equal(t, "/var/lib/admin-columns.db", cfg.SQLitePath)
			},
		},
		{
			name: "s3 with params", url: "s3://prefs?region=eu-west-1&prefix=cols&endpoint=http://localhost:9000&path_style=true", wantType: StoreS3,
			check: func(t *testing.T, cfg *ServerConfig) {
				assert.Equal(t, S3StoreConfig{
					Bucket:       "prefs",
					Region:       "eu-west-1",
					Prefix:       "cols",
					Endpoint:     "http://localhost:9000",
					UsePathStyle: true,
				}, cfg.S3)
			},
		},
		{name: "s3 without bucket", url: "s3://", wantError: true},
		{name: "s3 bad flag", url: "s3://prefs?path_style=maybe", wantError: true},
		{name: "sqlite without path", url: "sqlite://", wantError: true},
		{name: "unsupported", url: "mysql://localhost/db", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(WithStoreURL(tt.url))
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, cfg.StoreType)
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestWithStore(t *testing.T) {
	_, err := Load(WithStore("postgres", ""))
	assert.Error(t, err)

	_, err = Load(WithStore("mysql", "x"))
	assert.Error(t, err)

	cfg, err := Load(WithSQLiteStore("/tmp/x.db"))
	require.NoError(t, err)
	assert.Equal(t, StoreSQLite, cfg.StoreType)

	cfg, err = Load(WithS3Store(S3StoreConfig{Bucket: "b"}), WithS3Credentials("AK", "SK"))
	require.NoError(t, err)
	assert.Equal(t, "AK", cfg.S3.AccessKeyID)
	assert.Equal(t, "SK", cfg.S3.SecretAccessKey)
}

func TestValidate(t *testing.T) {
	_, err := Load(WithEnvironment("production"))
	assert.Error(t, err)

	_, err = Load(WithEnvironment("production"), WithTokenSecret("t"))
	assert.Error(t, err)

	cfg, err := Load(WithEnvironment("production"), WithTokenSecret("t"), WithJWTSecret("j"))
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)

	_, err = Load(WithTokenTTL(0))
	assert.Error(t, err)

	_, err = Load(WithS3Store(S3StoreConfig{}))
	assert.Error(t, err)
}

func TestBuildService_Memory(t *testing.T) {
	cfg, err := Load(WithTokenSecret("secret"), WithEventLogging(false))
	require.NoError(t, err)

	components, err := cfg.BuildService(context.Background())
	require.NoError(t, err)
	defer components.Close()

	ctx := context.Background()
	admin := admincolumns.Caller{SessionID: "s1", IsAdmin: true}
	tok, err := components.Service.IssueToken(ctx, admin)
	require.NoError(t, err)

	require.NoError(t, components.Service.Save(ctx, admincolumns.SaveRequest{
		Caller: admin, ContentType: "post", Token: tok, Columns: map[string]any{"author": "1"},
	}))

	columns, err := components.Catalog.Columns(ctx, "post")
	require.NoError(t, err)
	visible, err := components.Service.Apply(ctx, "post", columns)
	require.NoError(t, err)
	assert.NotContains(t, admincolumns.Catalog(visible).Keys(), admincolumns.ColumnKey("author"))
}

func TestBuildService_SQLiteAndCatalogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	cfg, err := Load(
		WithSQLiteStore(path),
		WithCatalogFile("../catalog/testdata/content_types.yaml"),
		WithTokenSecret("secret"),
	)
	require.NoError(t, err)

	components, err := cfg.BuildService(context.Background())
	require.NoError(t, err)
	defer components.Close()

	infos, err := components.Service.ContentTypes(context.Background(), admincolumns.Caller{IsAdmin: true})
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, admincolumns.ContentType("product"), infos[1].Name)
}

func TestBuildService_MissingCatalogFile(t *testing.T) {
	cfg, err := Load(WithCatalogFile("does-not-exist.yaml"))
	require.NoError(t, err)

	_, err = cfg.BuildService(context.Background())
	assert.Error(t, err)
}
