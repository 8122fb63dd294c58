// Package memstore is an in-memory backend.Driver used by tests.
package memstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/five82/tally/internal/backend"
)

// Store keeps values in a map. Failures can be injected per path to exercise
// error handling in callers.
type Store struct {
	mu      sync.RWMutex
	kind    backend.Kind
	values  map[string][]byte
	fail    map[string]error
	openErr error
	opened  bool
	closed  bool
}

var _ backend.Driver = (*Store)(nil)

// New returns an empty store reporting itself as kind.
func New(kind backend.Kind) *Store {
	return &Store{
		kind:   kind,
		values: make(map[string][]byte),
		fail:   make(map[string]error),
	}
}

// FailOpen makes Open return err.
func (s *Store) FailOpen(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr = err
}

// FailPath makes Get and Put on path return err.
func (s *Store) FailPath(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[path] = err
}

// Seed stores value at path without going through Put.
func (s *Store) Seed(path string, value []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[path] = append([]byte(nil), value...)
}

// Opened reports whether Open succeeded.
func (s *Store) Opened() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opened
}

func (s *Store) Kind() backend.Kind { return s.kind }

func (s *Store) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return s.openErr
	}
	s.opened = true
	s.closed = false
	return nil
}

func (s *Store) Get(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(path); err != nil {
		return nil, err
	}
	v, ok := s.values[path]
	if !ok {
		return nil, backend.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Put(ctx context.Context, path string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(path); err != nil {
		return err
	}
	s.values[path] = append([]byte(nil), value...)
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed
	}
	var out []string
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var errClosed = errors.New("memstore: closed")

func (s *Store) check(path string) error {
	if s.closed {
		return errClosed
	}
	return s.fail[path]
}
