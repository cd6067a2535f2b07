// Package store provides the key/value backends the client persists its
// session and cookies in.
package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnsupportedScheme signals a storage URL no backend understands.
var ErrUnsupportedScheme = errors.New("unsupported storage scheme")

// Storage is a string key/value store. Get reports ok=false for missing keys.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open selects a backend from rawURL:
//
//	memory://                  in-process map
//	file:///path/session.json  JSON file (a bare path means the same)
//	sqlite:///path/session.db  SQLite database
//	postgres://user@host/db    PostgreSQL database
//	redis://host:6379/0        Redis
func Open(ctx context.Context, rawURL string) (Storage, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errors.New("storage url is required")
	}

	if !strings.Contains(rawURL, "://") {
		return NewFile(rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse storage url: %w", err)
	}

	switch u.Scheme {
	case "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(filePath(u))
	case "sqlite", "sqlite3", "postgres", "postgresql":
		return openSQL(ctx, u, rawURL)
	case "redis", "rediss":
		return OpenRedis(ctx, rawURL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

// filePath extracts a filesystem path from file:// and sqlite:// URLs,
// accepting both file:///abs/path and file://relative/path forms.
func filePath(u *url.URL) string {
	if u.Host != "" {
		return u.Host + u.Path
	}
	return u.Path
}
