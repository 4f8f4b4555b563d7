package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/DevRickLin/micropost-notify/internal/biz"
	"github.com/DevRickLin/micropost-notify/internal/biz/domain"
	"github.com/DevRickLin/micropost-notify/internal/biz/repo"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB wraps a sql.DB and rewrites placeholders for the active driver.
// Queries are written with '?' placeholders.
type DB struct {
	*sql.DB
	driver string
}

// Open opens a database and creates the schema.
// For sqlite, dsn is a file path; for postgres, a pgx connection string.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	var (
		sqlDB *sql.DB
		err   error
	)
	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
		sqlDB, err = sql.Open("sqlite", "file:"+dsn+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	case DriverPostgres:
		sqlDB, err = sql.Open("pgx", dsn)
		if err == nil {
			sqlDB.SetMaxOpenConns(50)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{DB: sqlDB, driver: driver}
	if err := db.migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Driver returns the active driver name
func (db *DB) Driver() string {
	return db.driver
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		author_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL,
		highlighted BOOLEAN NOT NULL DEFAULT FALSE,
		created_at BIGINT NOT NULL,
		modified_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_author_modified ON posts(author_id, modified_at)`,
	`CREATE TABLE IF NOT EXISTS presets (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		notify_on_any_post BOOLEAN,
		notify_on_highlighted_only BOOLEAN,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		UNIQUE (owner_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS preset_members (
		preset_id TEXT NOT NULL REFERENCES presets(id) ON DELETE CASCADE,
		member_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		PRIMARY KEY (preset_id, member_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_preset_members_member ON preset_members(member_id)`,
	`CREATE TABLE IF NOT EXISTS digest_subscriptions (
		user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		chat_id TEXT NOT NULL,
		last_delivered_at BIGINT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
}

func (db *DB) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites '?' placeholders to '$n' for postgres
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.QueryContext(ctx, db.rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.QueryRowContext(ctx, db.rebind(query), args...)
}

// inClause returns "?, ?, ?" and the ids as arguments
func inClause(ids []string) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

func storeErr(op string, err error) error {
	return &domain.StoreError{Op: op, Err: err}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toUnix(t time.Time) int64 {
	return t.UnixMilli()
}

func fromUnix(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Repositories contains all repositories
type Repositories struct {
	DB     *DB
	User   repo.UserRepo
	Post   repo.PostRepo
	Preset repo.PresetRepo
	Digest repo.DigestRepo
}

// NewRepositories opens the database and creates all repositories
func NewRepositories(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Repositories, error) {
	db, err := Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("Database initialized", zap.String("driver", db.Driver()))

	return &Repositories{
		DB:     db,
		User:   NewUserRepo(db),
		Post:   NewPostRepo(db),
		Preset: NewPresetRepo(db),
		Digest: NewDigestRepo(db),
	}, nil
}

// Stores exposes the repositories for usecase wiring
func (r *Repositories) Stores() biz.Stores {
	return biz.Stores{User: r.User, Post: r.Post, Preset: r.Preset, Digest: r.Digest}
}

// Close closes the database connection
func (r *Repositories) Close() error {
	return r.DB.Close()
}
