package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/five82/tally/internal/backend"
	"github.com/five82/tally/internal/backend/badgerstore"
	"github.com/five82/tally/internal/backend/s3store"
	"github.com/five82/tally/internal/backend/sqlitestore"
	"github.com/five82/tally/internal/prefs"
	"github.com/five82/tally/internal/ready"
	"github.com/five82/tally/internal/state"
)

// ErrNotConfigured is reported when Init runs before any backend was selected.
var ErrNotConfigured = errors.New("storage: no backend selected")

// Drivers carries the per-backend settings used to build drivers.
type Drivers struct {
	Badger     badgerstore.Config
	SQLitePath string
	S3         s3store.Config
}

// Opener builds the driver for kind. Open is called on the result.
type Opener func(kind backend.Kind) (backend.Driver, error)

// Option configures a Selector.
type Option func(*Selector)

// WithOpener replaces the driver factory.
func WithOpener(open Opener) Option {
	return func(s *Selector) { s.opener = open }
}

// WithLogger sets the selector logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) { s.logger = logger }
}

// Selector decides which backend is active, persists the choice, opens the
// driver and signals when it is usable.
type Selector struct {
	local  *prefs.Local
	state  *state.Store
	opener Opener
	logger *slog.Logger

	gate *ready.Gate[backend.Storage]

	mu        sync.Mutex
	opening   bool
	driver    backend.Driver
	lastErr   error
	onFailure []func(backend.Kind, error)
}

// New returns a selector reading and writing the selection in local.
func New(local *prefs.Local, store *state.Store, drivers Drivers, opts ...Option) *Selector {
	s := &Selector{local: local, state: store}
	s.opener = drivers.open
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "storage")
	s.gate = ready.New(
		ready.WithLogger[backend.Storage](s.logger),
		ready.WithName[backend.Storage]("backend"),
	)
	return s
}

// Selected returns the persisted backend, or false when none is selected or
// the persisted name is not a known backend.
func (s *Selector) Selected() (backend.Kind, bool) {
	return backend.ParseKind(s.local.String(prefs.KeyStorageType))
}

// Configured reports whether a valid backend has been persisted.
func (s *Selector) Configured() bool {
	_, ok := s.Selected()
	return ok
}

// Select persists requested as the active backend. Unknown names resolve to
// backend.Default. The choice is mirrored into UserState.StorageType.
func (s *Selector) Select(requested string) backend.Kind {
	kind, ok := backend.ParseKind(requested)
	if !ok {
		s.logger.Warn("unknown backend requested, using default",
			"requested", requested,
			"default", backend.Default.String())
		kind = backend.Default
	}
	if err := s.local.Put(prefs.KeyStorageType, kind.String()); err != nil {
		s.logger.Error("persist backend selection", "backend", kind.String(), "error", err)
	}
	s.state.Mutate(func(u state.UserState) state.UserState {
		u.StorageType = kind
		return u
	})
	return kind
}

// AwaitReady runs fn once with the opened storage. When the backend is
// already usable fn runs immediately.
func (s *Selector) AwaitReady(fn func(backend.Storage)) {
	s.gate.OnReady(fn)
}

// Ready reports whether the backend has been opened.
func (s *Selector) Ready() bool {
	return s.gate.Ready()
}

// OnFailure registers fn to be told when opening the backend fails.
func (s *Selector) OnFailure(fn func(backend.Kind, error)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFailure = append(s.onFailure, fn)
}

// Init opens the selected backend in the background. It returns at once.
// Calls made while opening or after a successful open do nothing; a call after
// a failed open tries again. ctx bounds the open and nothing else.
func (s *Selector) Init(ctx context.Context) {
	kind, ok := s.Selected()

	s.mu.Lock()
	if s.opening || s.driver != nil {
		s.mu.Unlock()
		return
	}
	if !ok {
		s.lastErr = ErrNotConfigured
		s.mu.Unlock()
		s.logger.Warn("backend init skipped", "error", ErrNotConfigured)
		return
	}
	s.opening = true
	s.lastErr = nil
	s.mu.Unlock()

	go s.open(ctx, kind)
}

func (s *Selector) open(ctx context.Context, kind backend.Kind) {
	s.logger.Info("opening backend", "backend", kind.String())

	driver, err := s.opener(kind)
	if err == nil {
		err = driver.Open(ctx)
	}
	if err != nil {
		err = fmt.Errorf("open %s backend: %w", kind, err)
		s.mu.Lock()
		s.opening = false
		s.lastErr = err
		handlers := append([]func(backend.Kind, error){}, s.onFailure...)
		s.mu.Unlock()

		s.logger.Error("backend unavailable", "backend", kind.String(), "error", err)
		for _, fn := range handlers {
			fn(kind, err)
		}
		return
	}

	s.mu.Lock()
	s.opening = false
	s.driver = driver
	s.mu.Unlock()

	s.logger.Info("backend ready", "backend", kind.String())
	s.gate.Fire(driver)
}

// Err returns the error from the most recent failed open, if any.
func (s *Selector) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Storage returns the opened backend, or nil before it is usable.
func (s *Selector) Storage() backend.Storage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.driver == nil {
		return nil
	}
	return s.driver
}

// Close closes the opened driver, if any.
func (s *Selector) Close() error {
	s.mu.Lock()
	driver := s.driver
	s.mu.Unlock()
	if driver == nil {
		return nil
	}
	return driver.Close()
}

func (d Drivers) open(kind backend.Kind) (backend.Driver, error) {
	driver, ok := backend.Dispatch[backend.Driver](kind, driverCases{cfg: d})
	if !ok {
		return nil, ErrNotConfigured
	}
	return driver, nil
}

type driverCases struct {
	cfg Drivers
}

func (c driverCases) Local() backend.Driver  { return badgerstore.New(c.cfg.Badger) }
func (c driverCases) S3() backend.Driver     { return s3store.New(c.cfg.S3) }
func (c driverCases) SQLite() backend.Driver { return sqlitestore.New(c.cfg.SQLitePath) }
