// Package cache persists transform results keyed by a digest of their inputs.
package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	sqliteDriverNameConstant            = "sqlite"
	cachePathRequiredMessageConstant    = "transform cache path must be provided"
	cacheDirectoryErrorTemplateConstant = "create cache directory: %w"
	cacheOpenErrorTemplateConstant      = "open transform cache: %w"
	cachePingErrorTemplateConstant      = "ping transform cache: %w"
	cachePragmaErrorTemplateConstant    = "set pragma %q: %w"
	cacheReadErrorTemplateConstant      = "read cache entry %s/%s: %w"
	cacheWriteErrorTemplateConstant     = "write cache entry %s/%s: %w"
	cacheClearErrorTemplateConstant     = "clear transform cache: %w"
	selectEntryStatementConstant        = `SELECT value FROM entries WHERE namespace = ? AND key = ?`
	upsertEntryStatementConstant        = `INSERT INTO entries (namespace, key, value, created_at) VALUES (?, ?, ?, ?)
ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value, created_at = excluded.created_at`
	deleteEntriesStatementConstant = `DELETE FROM entries`
	countEntriesStatementConstant  = `SELECT COUNT(*) FROM entries`
)

var pragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA busy_timeout=5000;",
}

// ErrCachePathMissing indicates Open was called without a database path.
var ErrCachePathMissing = errors.New(cachePathRequiredMessageConstant)

// Store is a SQLite backed transform cache. A nil *Store is a disabled cache: reads miss and writes are dropped.
type Store struct {
	database *sql.DB
	path     string
}

// Open opens or creates the cache database and applies migrations.
func Open(databasePath string) (*Store, error) {
	trimmedPath := strings.TrimSpace(databasePath)
	if len(trimmedPath) == 0 {
		return nil, ErrCachePathMissing
	}

	if mkdirError := os.MkdirAll(filepath.Dir(trimmedPath), 0o755); mkdirError != nil {
		return nil, fmt.Errorf(cacheDirectoryErrorTemplateConstant, mkdirError)
	}

	database, openError := sql.Open(sqliteDriverNameConstant, trimmedPath)
	if openError != nil {
		return nil, fmt.Errorf(cacheOpenErrorTemplateConstant, openError)
	}
	if pingError := database.Ping(); pingError != nil {
		_ = database.Close()
		return nil, fmt.Errorf(cachePingErrorTemplateConstant, pingError)
	}
	for _, pragma := range pragmas {
		if _, pragmaError := database.Exec(pragma); pragmaError != nil {
			_ = database.Close()
			return nil, fmt.Errorf(cachePragmaErrorTemplateConstant, pragma, pragmaError)
		}
	}
	if migrateError := migrate(database); migrateError != nil {
		_ = database.Close()
		return nil, migrateError
	}

	return &Store{database: database, path: trimmedPath}, nil
}

// Path reports the database file backing the store.
func (store *Store) Path() string {
	if store == nil {
		return ""
	}
	return store.path
}

// Get returns the cached value for key within namespace.
func (store *Store) Get(executionContext context.Context, namespace string, key string) ([]byte, bool, error) {
	if store == nil || store.database == nil {
		return nil, false, nil
	}
	var value []byte
	queryError := store.database.QueryRowContext(executionContext, selectEntryStatementConstant, namespace, key).Scan(&value)
	if errors.Is(queryError, sql.ErrNoRows) {
		return nil, false, nil
	}
	if queryError != nil {
		return nil, false, fmt.Errorf(cacheReadErrorTemplateConstant, namespace, key, queryError)
	}
	return value, true, nil
}

// Put stores value for key within namespace, replacing any earlier value.
func (store *Store) Put(executionContext context.Context, namespace string, key string, value []byte) error {
	if store == nil || store.database == nil {
		return nil
	}
	if value == nil {
		value = []byte{}
	}
	_, execError := store.database.ExecContext(executionContext, upsertEntryStatementConstant, namespace, key, value, time.Now().UTC())
	if execError != nil {
		return fmt.Errorf(cacheWriteErrorTemplateConstant, namespace, key, execError)
	}
	return nil
}

// Clear removes every cached entry and reports how many were removed.
func (store *Store) Clear(executionContext context.Context) (int64, error) {
	if store == nil || store.database == nil {
		return 0, nil
	}
	result, execError := store.database.ExecContext(executionContext, deleteEntriesStatementConstant)
	if execError != nil {
		return 0, fmt.Errorf(cacheClearErrorTemplateConstant, execError)
	}
	removed, _ := result.RowsAffected()
	return removed, nil
}

// Count reports the number of cached entries.
func (store *Store) Count(executionContext context.Context) (int64, error) {
	if store == nil || store.database == nil {
		return 0, nil
	}
	var count int64
	if queryError := store.database.QueryRowContext(executionContext, countEntriesStatementConstant).Scan(&count); queryError != nil {
		return 0, queryError
	}
	return count, nil
}

// Close releases the database handle.
func (store *Store) Close() error {
	if store == nil || store.database == nil {
		return nil
	}
	return store.database.Close()
}

// Key digests the provided parts with sha256. Parts are length-prefixed so boundaries cannot collide.
func Key(parts ...[]byte) string {
	hasher := sha256.New()
	for _, part := range parts {
		_, _ = fmt.Fprintf(hasher, "%d:", len(part))
		_, _ = hasher.Write(part)
	}
	return hex.EncodeToString(hasher.Sum(nil))
}
