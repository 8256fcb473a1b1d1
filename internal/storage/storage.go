// Package storage implements the transactional, key-indexed store the
// orchestration kernel persists through: tasks, proposals, decisions,
// strategy metrics, and the context indexer's file/chunk/embedding/
// link/symbol artifacts. It wraps modernc.org/sqlite (pure Go, CGO-free)
// the way the teacher's internal/adapters/state does: a dedicated write
// connection capped at one open connection (SQLite allows a single
// writer) plus a pooled read-only connection, WAL journaling, and
// transaction/withConnection scopes that guarantee release on every exit
// path.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/conclave-ai/conclave/internal/core"
	"github.com/conclave-ai/conclave/internal/logging"
)

//go:embed migrations/001_initial_schema.sql
var migrationV1 string

//go:embed migrations/002_checkpoints.sql
var migrationV2 string

// Store is the kernel's storage handle. All writes for a single file (in
// the context-indexing sense) or a single task mutation occur inside one
// transaction obtained through Transaction; reads use WithConnection,
// which borrows from the pooled read-only connection.
type Store struct {
	dbPath string
	write  *sql.DB
	read   *sql.DB
	mu     sync.Mutex // serializes schema migration only
	log    *logging.Logger
}

// Open creates or attaches to a SQLite-backed Store at dbPath, running
// migrations as needed. dbPath may be ":memory:" for tests, in which case
// the read and write handles share the single in-process connection. A nil
// logger falls back to a no-op logger, matching the rest of the kernel's
// constructors.
func Open(dbPath string, log *logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.NewNop()
	}

	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("creating storage directory: %w", err)
			}
		}
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	write, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening write connection: %w", err)
	}
	write.SetMaxOpenConns(1)
	write.SetMaxIdleConns(1)
	write.SetConnMaxLifetime(0)

	var read *sql.DB
	if dbPath == ":memory:" {
		// A second sql.Open call against ":memory:" opens an independent,
		// empty database rather than sharing the first's. Route reads
		// through the same pool as writes so both see the same data.
		read = write
	} else {
		readDSN := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&mode=ro&_pragma=busy_timeout(5000)"
		read, err = sql.Open("sqlite", readDSN)
		if err != nil {
			_ = write.Close()
			return nil, fmt.Errorf("opening read connection: %w", err)
		}
		read.SetMaxOpenConns(8)
		read.SetMaxIdleConns(4)
		read.SetConnMaxLifetime(5 * time.Minute)
	}

	s := &Store{dbPath: dbPath, write: write, read: read, log: log}
	if err := s.migrate(context.Background()); err != nil {
		_ = write.Close()
		_ = read.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.write.ExecContext(ctx, migrationV1); err != nil {
		return err
	}
	if _, err := s.write.ExecContext(ctx, `INSERT OR IGNORE INTO schema_migrations(version) VALUES (1)`); err != nil {
		return err
	}
	if _, err := s.write.ExecContext(ctx, migrationV2); err != nil {
		return err
	}
	_, err := s.write.ExecContext(ctx, `INSERT OR IGNORE INTO schema_migrations(version) VALUES (2)`)
	return err
}

// Close releases both connections.
func (s *Store) Close() error {
	readErr := s.read.Close()
	writeErr := s.write.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

// querier is satisfied by *sql.DB, *sql.Tx and *sql.Conn.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithConnection borrows a short-lived read connection and runs fn against
// it, guaranteeing release on every exit path (including fn panicking,
// which Go's defer still unwinds through before the connection pool
// reclaims the slot).
func (s *Store) WithConnection(ctx context.Context, fn func(ctx context.Context, q querier) error) error {
	conn, err := s.read.Conn(ctx)
	if err != nil {
		return core.ErrPersistenceFailure("", err)
	}
	defer conn.Close()
	return fn(ctx, conn)
}

// Transaction runs fn inside a write transaction, committing on success and
// rolling back on any error or panic. A single file's (or task's) writes
// belong in one Transaction call per §4.10/§4.8.
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) (err error) {
	tx, beginErr := s.write.BeginTx(ctx, nil)
	if beginErr != nil {
		return core.ErrPersistenceFailure("", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("rollback failed after transaction error", "error", rbErr, "cause", err)
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return core.ErrPersistenceFailure("", err)
	}
	return nil
}
