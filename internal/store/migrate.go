package store

import (
	"embed"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MigrateUp applies every pending local_storage migration to the database
// named by a sqlite:// or postgres:// URL.
func MigrateUp(rawURL string) error {
	return runMigration(rawURL, (*migrate.Migrate).Up)
}

// MigrateDown reverts every applied migration, dropping local_storage.
func MigrateDown(rawURL string) error {
	return runMigration(rawURL, (*migrate.Migrate).Down)
}

// MigrationVersion reports the applied schema version. A database that was
// never migrated reports 0.
func MigrationVersion(rawURL string) (version uint, dirty bool, err error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return 0, false, fmt.Errorf("parse storage url: %w", err)
	}
	m, err := newMigrator(u)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func runMigration(rawURL string, step func(*migrate.Migrate) error) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("parse storage url: %w", err)
	}
	return migrateURL(u, step)
}

func migrateURL(u *url.URL, step func(*migrate.Migrate) error) error {
	m, err := newMigrator(u)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := step(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// newMigrator opens its own connection; closing the migrator closes it.
func newMigrator(u *url.URL) (*migrate.Migrate, error) {
	dbURL, err := migrationURL(u)
	if err != nil {
		return nil, err
	}
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// migrationURL rewrites a storage URL into the scheme the migrate
// database drivers register.
func migrationURL(u *url.URL) (string, error) {
	switch u.Scheme {
	case "sqlite", "sqlite3":
		path := filePath(u)
		if path == "" {
			return "", errors.New("sqlite path is required")
		}
		return "sqlite3://" + path, nil
	case "postgres", "postgresql":
		pg := *u
		pg.Scheme = "pgx5"
		return pg.String(), nil
	default:
		return "", fmt.Errorf("%w: %q is not a SQL backend", ErrUnsupportedScheme, u.Scheme)
	}
}
