package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"time"

	"log/slog"

	"github.com/cleanrecipe/recipestore/recipestore/logger"
	"github.com/uptrace/bun"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
)

type DBConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

func New(ctx context.Context, cfg DBConfig) (*DB, error) {
	// Add retry logic for initial connection
	var conn net.Conn
	var err error

	tryDial := func() (net.Conn, error) {
		addr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
		force4 := os.Getenv("DB_DIAL_FORCE_IPV4") == "1"
		force6 := os.Getenv("DB_DIAL_FORCE_IPV6") == "1"

		if force4 {
			return net.DialTimeout("tcp4", addr, defaultConnTimeout)
		}
		if force6 {
			return net.DialTimeout("tcp6", addr, defaultConnTimeout)
		}

		// Prefer IPv4, then fall back to IPv6
		if c, e := net.DialTimeout("tcp4", addr, defaultConnTimeout); e == nil {
			return c, nil
		}
		return net.DialTimeout("tcp6", addr, defaultConnTimeout)
	}

	for i := 0; i < defaultMaxRetries; i++ {
		conn, err = tryDial()
		if err == nil {
			break
		}
		time.Sleep(defaultRetryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("database server unreachable after %d attempts: %w", defaultMaxRetries, err)
	}
	defer conn.Close()

	poolConfig, err := pgxpool.ParseConfig(buildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	// Configure pool settings
	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}

	return createDB(ctx, poolConfig)
}

// Helper function to build connection string
func buildConnString(cfg DBConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?connect_timeout=5",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
}

// Helper function to create DB instance
func createDB(ctx context.Context, poolConfig *pgxpool.Config) (*DB, error) {
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	bunDB := newBunDB(pool)
	return &DB{pool: pool, bunDB: bunDB}, nil
}

// BunDB returns the bun.DB instance used by the repositories.
func (db *DB) BunDB() *bun.DB {
	return db.bunDB
}

func newBunDB(pool *pgxpool.Pool) *bun.DB {
	// Default to disabling SSL for Bun unless explicitly overridden by env
	sslMode := os.Getenv("PG_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		pool.Config().ConnConfig.User,
		pool.Config().ConnConfig.Password,
		pool.Config().ConnConfig.Host,
		pool.Config().ConnConfig.Port,
		pool.Config().ConnConfig.Database,
		sslMode,
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func (db *DB) ExecWithLog(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	start := time.Now()
	result, err := db.pool.Exec(ctx, sql, args...)
	logger.LogQuery(sql, time.Since(start), err)
	return result, err
}

func (db *DB) QueryWithLog(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	start := time.Now()
	rows, err := db.pool.Query(ctx, sql, args...)
	logger.LogQuery(sql, time.Since(start), err)
	return rows, err
}

func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		db.bunDB.Close()
	}
}

// Required platform extensions: pgcrypto supplies gen_random_uuid(),
// pg_trgm supplies the trigram operator class for the title index.
var schemaExtensions = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
	`CREATE EXTENSION IF NOT EXISTS pg_trgm;`,
}

// extraction_method is a closed two-member enum; anything else is a
// type violation at write time.
const schemaExtractionEnum = `
	DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'extraction_method') THEN
			CREATE TYPE extraction_method AS ENUM ('structured', 'readability');
		END IF;
	END $$;
`

// The recipes table. Every validity rule lives here as a write-time
// check: a violating insert or update fails atomically with no row.
const schemaRecipesTable = `
	CREATE TABLE IF NOT EXISTS recipes (
		id             UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id        UUID NOT NULL,
		title          TEXT NOT NULL CHECK (length(btrim(title)) > 0),
		description    TEXT,
		servings       TEXT,
		prep_time_min  INTEGER CHECK (prep_time_min IS NULL OR prep_time_min >= 0),
		cook_time_min  INTEGER CHECK (cook_time_min IS NULL OR cook_time_min >= 0),
		total_time_min INTEGER CHECK (total_time_min IS NULL OR total_time_min >= 0),
		ingredients    JSONB NOT NULL CHECK (jsonb_typeof(ingredients) = 'array'),
		steps          JSONB NOT NULL CHECK (jsonb_typeof(steps) = 'array'),
		source_url     TEXT NOT NULL CHECK (source_url ~* '^https?://'),
		source_host    TEXT,
		extraction     extraction_method NOT NULL,
		legal_note     TEXT NOT NULL DEFAULT 'For personal use/research only. Do not republish; see the original source link.',
		raw_json       JSONB NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT recipes_user_source_unique UNIQUE (user_id, source_url)
	);
`

// set_updated_at overwrites the incoming updated_at unconditionally on
// every row update; caller-supplied values are always discarded.
const schemaUpdatedAtFunction = `
	CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
	BEGIN
		NEW.updated_at = now();
		RETURN NEW;
	END
	$$ LANGUAGE plpgsql;
`

const schemaUpdatedAtTrigger = `
	DO $$
	BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM pg_trigger WHERE tgname = 'recipes_set_updated_at'
		) THEN
			CREATE TRIGGER recipes_set_updated_at
			BEFORE UPDATE ON recipes
			FOR EACH ROW EXECUTE FUNCTION set_updated_at();
		END IF;
	END $$;
`

// Performance aids, not correctness constraints. Names are stable for
// tooling that introspects them.
var schemaIndexes = []string{
	// "list a user's recipes, newest first" without a sort step
	`CREATE INDEX IF NOT EXISTS idx_recipes_user_created ON recipes(user_id, created_at DESC);`,
	// filtering/grouping by originating site
	`CREATE INDEX IF NOT EXISTS idx_recipes_source_host ON recipes(source_host);`,
	// partial-text title search
	`CREATE INDEX IF NOT EXISTS idx_recipes_title_trgm ON recipes USING gin (title gin_trgm_ops);`,
	// containment queries over the JSON arrays
	`CREATE INDEX IF NOT EXISTS idx_recipes_ingredients_gin ON recipes USING gin (ingredients);`,
	`CREATE INDEX IF NOT EXISTS idx_recipes_steps_gin ON recipes USING gin (steps);`,
}

// InitializeSchema creates the extensions, enum, recipes table,
// update-timestamp trigger, and indexes. Every statement is
// idempotent, so this runs on every startup.
func (db *DB) InitializeSchema(ctx context.Context) error {
	// First, ensure the database is using UTF-8 encoding
	if err := db.ensureUTF8Encoding(ctx); err != nil {
		return fmt.Errorf("failed to ensure UTF-8 encoding: %w", err)
	}

	for _, ext := range schemaExtensions {
		if _, err := db.ExecWithLog(ctx, ext); err != nil {
			return fmt.Errorf("failed to create extension: %w", err)
		}
	}

	if _, err := db.ExecWithLog(ctx, schemaExtractionEnum); err != nil {
		return fmt.Errorf("failed to create extraction_method enum: %w", err)
	}

	if _, err := db.ExecWithLog(ctx, schemaRecipesTable); err != nil {
		return fmt.Errorf("failed to create recipes table: %w", err)
	}

	if _, err := db.ExecWithLog(ctx, schemaUpdatedAtFunction); err != nil {
		return fmt.Errorf("failed to create set_updated_at function: %w", err)
	}
	if _, err := db.ExecWithLog(ctx, schemaUpdatedAtTrigger); err != nil {
		return fmt.Errorf("failed to create recipes_set_updated_at trigger: %w", err)
	}

	for _, idx := range schemaIndexes {
		if _, err := db.ExecWithLog(ctx, idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// Ping verifies both database connections are working
func (db *DB) Ping(ctx context.Context) error {
	// Check pgxpool connection
	if err := db.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pgxpool ping failed: %w", err)
	}

	// Check bun connection
	if err := db.bunDB.PingContext(ctx); err != nil {
		return fmt.Errorf("bun ping failed: %w", err)
	}

	return nil
}

// ensureUTF8Encoding checks and ensures the database is using UTF-8 encoding
func (db *DB) ensureUTF8Encoding(ctx context.Context) error {
	// Check current database encoding
	var encoding string
	err := db.pool.QueryRow(ctx, "SHOW server_encoding;").Scan(&encoding)
	if err != nil {
		return fmt.Errorf("failed to check database encoding: %w", err)
	}

	slog.Info("Database encoding", "encoding", encoding)

	// If not UTF-8, log a warning but continue (changing encoding requires superuser)
	if encoding != "UTF8" {
		slog.Warn("Database is not using UTF-8 encoding, this may cause character encoding issues",
			"current_encoding", encoding,
			"recommended", "UTF8")
	}

	// Set client encoding to UTF-8 for this session
	_, err = db.pool.Exec(ctx, "SET client_encoding TO 'UTF8';")
	if err != nil {
		return fmt.Errorf("failed to set client encoding to UTF-8: %w", err)
	}

	return nil
}
