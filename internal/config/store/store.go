package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kumanda-app/kumanda/internal/config"
)

const (
	defaultBusyTimeout        = 5 * time.Second
	defaultConnectionLifetime = 0 // unlimited
)

// Options describes parameters for opening a configuration store.
type Options struct {
	DBPath   string // Optional override for config.db path (primarily for tests)
	ReadOnly bool   // Open database in read-only mode
}

// Store provides access to the configuration database.
type Store struct {
	db       *sql.DB
	dbPath   string
	readOnly bool
}

// NotFoundError indicates a requested record does not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.Key)
}

// IsNotFound returns true when err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

// Open initialises the configuration store.
func Open(opts Options) (*Store, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		paths, err := config.EnsureDirs()
		if err != nil {
			return nil, fmt.Errorf("config: ensure directories: %w", err)
		}
		dbPath = paths.ConfigDB
	}

	dsn := dbPath
	if opts.ReadOnly {
		dsn = fmt.Sprintf("file:%s?mode=ro", dbPath)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("config: open sqlite store: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(defaultConnectionLifetime)
	db.SetConnMaxIdleTime(defaultConnectionLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := applyPragmas(ctx, db, opts.ReadOnly); err != nil {
		db.Close()
		return nil, err
	}

	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{
		db:       db,
		dbPath:   dbPath,
		readOnly: opts.ReadOnly,
	}, nil
}

// Close finalises the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the filesystem path of the backing database.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("config: rollback failed after %v: %w", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}
