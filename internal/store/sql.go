package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// SQL stores values in a local_storage table. The same statements run on
// SQLite and PostgreSQL.
type SQL struct {
	db *sql.DB
}

// NewSQL wraps an open database handle whose schema is already migrated,
// see MigrateUp.
func NewSQL(db *sql.DB) *SQL {
	return &SQL{db: db}
}

// OpenSQLite opens (creating if needed) a SQLite database at path and
// brings its schema up to date.
func OpenSQLite(ctx context.Context, path string) (*SQL, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	if err := migrateURL(&url.URL{Scheme: "sqlite", Path: path}, (*migrate.Migrate).Up); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return NewSQL(db), nil
}

// OpenPostgres connects to a postgres:// URL, waiting for the server to come
// up, then applies pending migrations.
func OpenPostgres(ctx context.Context, dsn string) (*SQL, error) {
	dsn = strings.TrimSpace(dsn)
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	db, err := connectPostgres(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := migrateURL(u, (*migrate.Migrate).Up); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQL(db), nil
}

// OpenSQL opens the SQL backend named by a sqlite:// or postgres:// URL.
func OpenSQL(ctx context.Context, rawURL string) (*SQL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("parse storage url: %w", err)
	}
	return openSQL(ctx, u, rawURL)
}

func openSQL(ctx context.Context, u *url.URL, rawURL string) (*SQL, error) {
	switch u.Scheme {
	case "sqlite", "sqlite3":
		return OpenSQLite(ctx, filePath(u))
	case "postgres", "postgresql":
		return OpenPostgres(ctx, rawURL)
	default:
		return nil, fmt.Errorf("%w: %q is not a SQL backend", ErrUnsupportedScheme, u.Scheme)
	}
}

const (
	connectWait   = 15 * time.Second
	firstRetry    = 250 * time.Millisecond
	maxRetryDelay = 2 * time.Second
)

// connectPostgres pings until the server answers or connectWait runs out.
func connectPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, connectWait)
	defer cancel()

	for delay := firstRetry; ; delay = min(delay*2, maxRetryDelay) {
		err := db.PingContext(ctx)
		if err == nil {
			return db, nil
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres not reachable: %w", err)
		case <-time.After(delay):
		}
	}
}

func (s *SQL) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM local_storage WHERE key = $1`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQL) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_storage (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_storage WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (s *SQL) Close() error {
	return s.db.Close()
}
