// Package postgres implements an admincolumns.OptionStore backed by PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/admin-columns/pkg/admincolumns"
)

// Schema creates the options table. Run it once per database schema.
const Schema = `
CREATE TABLE IF NOT EXISTS admin_column_options (
	option_name  VARCHAR(191) PRIMARY KEY,
	option_value JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at   TIMESTAMP NOT NULL DEFAULT (now() AT TIME ZONE 'utc'),
	updated_at   TIMESTAMP NOT NULL DEFAULT (now() AT TIME ZONE 'utc')
)`

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements admincolumns.OptionStore using PostgreSQL
type Store struct {
	db DBTX
}

// New creates a new PostgreSQL option store
func New(db DBTX) *Store {
	return &Store{db: db}
}

// NewWithPool creates a new PostgreSQL option store with connection pool
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// MigrateOption configures Migrate
type MigrateOption func(*migrateConfig)

type migrateConfig struct {
	schema string
}

// WithSchema makes Migrate create the named database schema before the table.
// Connections are expected to have it on their search_path.
func WithSchema(name string) MigrateOption {
	return func(c *migrateConfig) {
		c.schema = name
	}
}

// Migrate creates the options table when it does not exist
func (s *Store) Migrate(ctx context.Context, opts ...MigrateOption) error {
	var cfg migrateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.schema != "" {
		stmt := "CREATE SCHEMA IF NOT EXISTS " + pgx.Identifier{cfg.schema}.Sanitize()
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return handlePostgresError("create schema", err)
		}
	}
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return handlePostgresError("migrate", err)
	}
	return nil
}

// Error handling helper
func handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "22P02": // invalid_text_representation
			return fmt.Errorf("option value is not valid JSON: %s", pgErr.Message)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (s *Store) GetOption(ctx context.Context, name string) ([]byte, error) {
	query := `SELECT option_value::text FROM admin_column_options WHERE option_name = $1`

	var value string
	err := s.db.QueryRow(ctx, query, name).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, admincolumns.ErrOptionNotFound
		}
		return nil, handlePostgresError("get option", err)
	}

	return []byte(value), nil
}

func (s *Store) SetOption(ctx context.Context, name string, value []byte) error {
	query := `
		INSERT INTO admin_column_options (option_name, option_value, created_at, updated_at)
		VALUES ($1, $2::jsonb, now() AT TIME ZONE 'utc', now() AT TIME ZONE 'utc')
		ON CONFLICT (option_name) DO UPDATE SET
			option_value = EXCLUDED.option_value,
			updated_at = EXCLUDED.updated_at`

	if _, err := s.db.Exec(ctx, query, name, string(value)); err != nil {
		return handlePostgresError("set option", err)
	}
	return nil
}
