package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"budgenet/internal/core"
	"budgenet/internal/log"

	"golang.org/x/sync/singleflight"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrUnknownIndex = errors.New("unknown index")
	ErrMissingID    = errors.New("record has no id")
)

// ConstraintError reports a uniqueness violation raised by the database.
// It matches core.ErrConstraint with errors.Is.
type ConstraintError struct {
	Collection string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: constraint violation: %v", e.Collection, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

func (e *ConstraintError) Is(target error) bool {
	return target == core.ErrConstraint
}

type Options struct {
	// Path of the database file. Parent directories are created on open.
	Path   string
	Logger *log.Logger
}

// Store is the local record store: one SQLite file holding the categories,
// transactions and budgets collections.
//
// Every operation opens the store lazily, so callers never have to sequence
// Open themselves. Open is idempotent and concurrent first opens share one
// attempt.
type Store struct {
	path string
	log  *log.Logger

	group singleflight.Group

	mu      sync.RWMutex
	db      *sql.DB
	version uint

	categories   *Collection[core.Category]
	transactions *TransactionCollection
	budgets      *Collection[core.Budget]
}

func New(opts Options) *Store {
	s := &Store{
		path: opts.Path,
		log:  log.OrDiscard(opts.Logger).WithComponent(log.ComponentStorage),
	}
	s.categories = newCollection(s, categoryCodec)
	s.transactions = &TransactionCollection{Collection: newCollection(s, transactionCodec)}
	s.budgets = newCollection(s, budgetCodec)
	return s
}

func (s *Store) Categories() *Collection[core.Category] { return s.categories }

func (s *Store) Transactions() *TransactionCollection { return s.transactions }

func (s *Store) Budgets() *Collection[core.Budget] { return s.budgets }

func (s *Store) handle() *sql.DB {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db
}

// Open makes the store ready, running pending schema upgrades on the first
// call. Failures wrap core.ErrStorageUnavailable.
func (s *Store) Open(ctx context.Context) error {
	if s.handle() != nil {
		return nil
	}

	_, err, _ := s.group.Do("open", func() (any, error) {
		if s.handle() != nil {
			return nil, nil
		}
		db, version, err := s.open(ctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.db = db
		s.version = version
		s.mu.Unlock()
		return nil, nil
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to open store", log.FieldPath, s.path, log.FieldError, err)
		return fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *Store) open(ctx context.Context) (*sql.DB, uint, error) {
	if s.path == "" {
		return nil, 0, errors.New("database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, 0, fmt.Errorf("create db directory: %w", err)
	}

	version, err := RunMigrations(s.path)
	if err != nil {
		return nil, 0, err
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return nil, 0, fmt.Errorf("open sqlite database: %w", err)
	}
	// one connection keeps the session single-writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, 0, fmt.Errorf("ping database: %w", err)
	}

	s.log.InfoContext(ctx, "Store opened", log.FieldPath, s.path, log.FieldVersion, version)
	return db, version, nil
}

// Close releases the database handle. The next operation reopens it.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Version returns the schema version the store was opened at.
func (s *Store) Version(ctx context.Context) (uint, error) {
	if err := s.Open(ctx); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version, nil
}

func (s *Store) conn(ctx context.Context) (*sql.DB, error) {
	if err := s.Open(ctx); err != nil {
		return nil, err
	}
	db := s.handle()
	if db == nil {
		return nil, fmt.Errorf("%w: store closed", core.ErrStorageUnavailable)
	}
	return db, nil
}

// inTx runs fn in a single SQL transaction. Nothing fn did is visible
// unless it returns nil and the commit succeeds.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.ErrorContext(ctx, "Rollback failed", log.FieldError, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func mapConstraint(collection string, err error) error {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return &ConstraintError{Collection: collection, Err: err}
	}
	return err
}
