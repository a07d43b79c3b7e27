package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/admin-columns/pkg/admincolumns"
	"github.com/tendant/admin-columns/pkg/admincolumns/catalog"
	"github.com/tendant/admin-columns/pkg/admincolumns/store/memory"
	"github.com/tendant/admin-columns/pkg/admincolumns/store/postgres"
	s3store "github.com/tendant/admin-columns/pkg/admincolumns/store/s3"
	"github.com/tendant/admin-columns/pkg/admincolumns/store/sqlite"
	"github.com/tendant/admin-columns/pkg/admincolumns/token"
)

// Store types
const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreS3       = "s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		StoreType:          StoreMemory,
		DBSchema:           "admin_columns",
		TokenTTL:           token.DefaultLifetime,
		EnableEventLogging: true,
	}
}

// ServerConfig represents server configuration for the admin-columns service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Option store configuration
	StoreType   string // "memory", "sqlite", "postgres", "s3"
	DatabaseURL string
	DBSchema    string // Postgres schema to use (default: admin_columns)
	SQLitePath  string
	S3          S3StoreConfig

	// Registry file (YAML, JSON or TOML); empty uses the stock post/page/media registry
	CatalogFile string

	// Anti-forgery tokens
	TokenSecret string
	TokenTTL    time.Duration

	// HS256 secret used to verify caller JWTs
	JWTSecret string

	EnableEventLogging bool
}

// S3StoreConfig configures the S3 option store
type S3StoreConfig struct {
	Bucket                 string
	Region                 string
	Prefix                 string
	Endpoint               string
	AccessKeyID            string
	SecretAccessKey        string
	UsePathStyle           bool
	CreateBucketIfNotExist bool
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	switch c.StoreType {
	case StoreMemory:
	case StoreSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite path is required when using sqlite")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database_url is required when using postgres")
		}
	case StoreS3:
		if c.S3.Bucket == "" {
			return errors.New("s3 bucket is required when using s3")
		}
	default:
		return fmt.Errorf("store_type must be one of memory, sqlite, postgres, s3; got %q", c.StoreType)
	}

	if c.TokenTTL <= 0 {
		return errors.New("token_ttl must be positive")
	}

	if c.Environment == "production" {
		if c.TokenSecret == "" {
			return errors.New("token_secret is required in production")
		}
		if c.JWTSecret == "" {
			return errors.New("jwt_secret is required in production")
		}
	}

	return nil
}

// Components are the assembled pieces a server mounts
type Components struct {
	Service admincolumns.Service
	Catalog *catalog.Registry
	Store   admincolumns.OptionStore

	closers []func()
}

// Close releases database handles opened by BuildService
func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// BuildService creates a Service instance from the server configuration
func (c *ServerConfig) BuildService(ctx context.Context) (*Components, error) {
	components := &Components{}

	registry, err := c.BuildCatalog()
	if err != nil {
		return nil, err
	}
	components.Catalog = registry

	store, closer, err := c.buildStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build option store: %w", err)
	}
	components.Store = store
	if closer != nil {
		components.closers = append(components.closers, closer)
	}

	options := []admincolumns.Option{
		admincolumns.WithOptionStore(store),
		admincolumns.WithColumnProvider(registry),
		admincolumns.WithTokenManager(c.BuildTokenManager()),
	}

	// Set up event sink
	if c.EnableEventLogging {
		options = append(options, admincolumns.WithEventSink(admincolumns.NewLoggingEventSink(admincolumns.NewSlogLogger(nil))))
	} else {
		options = append(options, admincolumns.WithEventSink(admincolumns.NewNoopEventSink()))
	}

	svc, err := admincolumns.New(options...)
	if err != nil {
		components.Close()
		return nil, err
	}
	components.Service = svc
	return components, nil
}

// BuildCatalog loads the registry file, or the stock registry when none is configured
func (c *ServerConfig) BuildCatalog() (*catalog.Registry, error) {
	if c.CatalogFile == "" {
		return catalog.DefaultRegistry(), nil
	}
	return catalog.LoadFile(c.CatalogFile)
}

// BuildTokenManager creates the anti-forgery token signer. Without a configured
// secret a random one is used, so tokens do not survive a restart.
func (c *ServerConfig) BuildTokenManager() *token.Signer {
	secret := c.TokenSecret
	if secret == "" {
		slog.Warn("TOKEN_SECRET not set, using a random secret")
		secret = uuid.NewString()
	}
	return token.New(token.WithSecretKey(secret), token.WithLifetime(c.TokenTTL))
}

// BuildJWTAuth creates the HS256 verifier for caller JWTs
func (c *ServerConfig) BuildJWTAuth() *jwtauth.JWTAuth {
	secret := c.JWTSecret
	if secret == "" {
		slog.Warn("JWT_SECRET not set, using a random secret")
		secret = uuid.NewString()
	}
	return jwtauth.New("HS256", []byte(secret), nil)
}

// buildStore creates an OptionStore based on the configuration
func (c *ServerConfig) buildStore(ctx context.Context) (admincolumns.OptionStore, func(), error) {
	switch c.StoreType {
	case StoreMemory:
		return memory.New(), nil, nil

	case StoreSQLite:
		store, err := sqlite.Open(c.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil

	case StorePostgres:
		cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		// Optionally set search_path for the connection
		schema := c.DBSchema
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			if schema == "" {
				return nil
			}
			_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
			return err
		}
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create pgx pool: %w", err)
		}
		store := postgres.NewWithPool(pool)
		if err := store.Migrate(ctx, postgres.WithSchema(schema)); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool.Close, nil

	case StoreS3:
		store, err := s3store.New(s3store.Config{
			Region:                 c.S3.Region,
			Bucket:                 c.S3.Bucket,
			Prefix:                 c.S3.Prefix,
			AccessKeyID:            c.S3.AccessKeyID,
			SecretAccessKey:        c.S3.SecretAccessKey,
			Endpoint:               c.S3.Endpoint,
			UsePathStyle:           c.S3.UsePathStyle,
			CreateBucketIfNotExist: c.S3.CreateBucketIfNotExist,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported store type: %s", c.StoreType)
	}
}
