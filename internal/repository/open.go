package repository

import (
	"context"
	"fmt"
	"strings"

	"netcore/internal/repository/postgres"
	"netcore/internal/repository/sqlite"
)

var (
	_ Store = (*sqlite.Repository)(nil)
	_ Store = (*postgres.Repository)(nil)
)

// Backend names a storage implementation
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// ParseURL resolves a connection string to a backend and the DSN that
// backend expects.
//
//	postgres://, postgresql://, postgresql+<driver>://  -> postgres
//	sqlite://path, file:path, bare path                  -> sqlite
func ParseURL(url string) (Backend, string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", "", fmt.Errorf("empty database url")
	}

	scheme, rest, hasScheme := strings.Cut(url, "://")
	if !hasScheme {
		if path, ok := strings.CutPrefix(url, "file:"); ok {
			return BackendSQLite, path, nil
		}
		return BackendSQLite, url, nil
	}

	// SQLAlchemy-style driver suffix, e.g. postgresql+asyncpg
	base, _, _ := strings.Cut(strings.ToLower(scheme), "+")
	switch base {
	case "postgres", "postgresql":
		return BackendPostgres, "postgres://" + rest, nil
	case "sqlite", "sqlite3":
		if rest == "" {
			return "", "", fmt.Errorf("sqlite url has no path: %q", url)
		}
		return BackendSQLite, rest, nil
	default:
		return "", "", fmt.Errorf("unsupported database scheme %q", scheme)
	}
}

// Open connects to the store named by url
func Open(ctx context.Context, url string) (Store, error) {
	backend, dsn, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendPostgres:
		return postgres.New(ctx, dsn)
	default:
		return sqlite.New(dsn)
	}
}
