package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Open connects to the database at dsn and runs migration. A postgres:// or
// postgresql:// DSN selects the Postgres backend; anything else is treated
// as a SQLite path.
func Open(ctx context.Context, dsn string) (Store, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return OpenPostgres(ctx, dsn)
	}
	return OpenSQLite(ctx, dsn)
}

// DefaultDBPath resolves the SQLite database file path in priority order:
// 1. MENTOR_DB environment variable
// 2. $XDG_DATA_HOME/mentor/mentor.db
// 3. ~/.local/share/mentor/mentor.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("MENTOR_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "mentor", "mentor.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
