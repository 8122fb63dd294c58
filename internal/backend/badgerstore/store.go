// Package badgerstore implements the local backend on an embedded badger
// database.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/five82/tally/internal/backend"
)

// Config selects where the database lives.
type Config struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string
	// InMemory keeps everything in memory; used by tests.
	InMemory bool
}

// Store is a backend.Driver over badger.
type Store struct {
	cfg Config

	mu sync.RWMutex
	db *badgerdb.DB
}

var _ backend.Driver = (*Store)(nil)

// New returns an unopened store.
func New(cfg Config) *Store {
	return &Store{cfg: cfg}
}

func (s *Store) Kind() backend.Kind { return backend.Local }

// Open opens (creating if needed) the database directory.
func (s *Store) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}

	var opts badgerdb.Options
	if s.cfg.InMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	} else {
		if s.cfg.Dir == "" {
			return errors.New("badger dir is required")
		}
		opts = badgerdb.DefaultOptions(s.cfg.Dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return fmt.Errorf("open badger: %w", err)
	}
	s.db = db
	return nil
}

func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	path, err := backend.CleanPath(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	var value []byte
	err = db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(path))
		if err == badgerdb.ErrKeyNotFound {
			return backend.ErrNotFound
		}
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("badger get %s: %w", path, err)
	}
	return value, nil
}

func (s *Store) Put(ctx context.Context, path string, value []byte) error {
	path, err := backend.CleanPath(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	db, err := s.handle()
	if err != nil {
		return err
	}
	err = db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set([]byte(path), value)
	})
	if err != nil {
		return fmt.Errorf("badger put %s: %w", path, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	prefix, err := backend.CleanPrefix(prefix)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	db, err := s.handle()
	if err != nil {
		return nil, err
	}

	var paths []string
	err = db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			paths = append(paths, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger list %q: %w", prefix, err)
	}
	return paths, nil
}

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

func (s *Store) handle() (*badgerdb.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("badger store is not open")
	}
	return s.db, nil
}
