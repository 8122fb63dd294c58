package user

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/five82/tally/internal/backend"
	"github.com/five82/tally/internal/board"
	"github.com/five82/tally/internal/locate"
	"github.com/five82/tally/internal/prefs"
	"github.com/five82/tally/internal/ready"
	"github.com/five82/tally/internal/session"
	"github.com/five82/tally/internal/state"
	"github.com/five82/tally/internal/tracker"
)

// DefaultMetaPath is where user preferences live inside the backend.
const DefaultMetaPath = "user/meta.json"

// ErrNoBackend is returned by operations that need an open backend.
var ErrNoBackend = errors.New("user: backend not open")

// Backend is the storage selector as the user store sees it.
type Backend interface {
	Configured() bool
	Select(requested string) backend.Kind
	AwaitReady(fn func(backend.Storage))
	Init(ctx context.Context)
	Storage() backend.Storage
	OnFailure(fn func(backend.Kind, error))
}

// Ledger finds the first logged date once storage is usable.
type Ledger interface {
	LoadFirstDate(ctx context.Context, storage backend.Storage) error
	FirstDate() (time.Time, bool)
}

// Deps are the collaborators of a Store. Locator may be nil.
type Deps struct {
	State    *state.Store
	Local    *prefs.Local
	Backend  Backend
	Trackers tracker.Collection
	Boards   board.Collection
	Ledger   Ledger
	Locator  locate.Locator
	Session  session.Session
	Logger   *slog.Logger
	MetaPath string
	Now      func() time.Time
}

// Store owns the user lifecycle: launch counting, bootstrap after the
// backend opens, the ready signal and the user preferences.
type Store struct {
	state    *state.Store
	local    *prefs.Local
	backend  Backend
	trackers tracker.Collection
	boards   board.Collection
	ledger   Ledger
	locator  locate.Locator
	session  session.Session
	logger   *slog.Logger
	metaPath string
	now      func() time.Time

	gate *ready.Gate[state.UserState]

	mu              sync.Mutex
	ctx             context.Context
	queued          bool
	firstDateQueued bool
	failures        []func(error)

	booting atomic.Bool

	pubMu       sync.RWMutex
	pubTrackers tracker.Set
	pubBoards   board.Set
	published   bool
}

// New wires a Store. It does not touch the backend until Initialize.
func New(deps Deps) *Store {
	s := &Store{
		state:    deps.State,
		local:    deps.Local,
		backend:  deps.Backend,
		trackers: deps.Trackers,
		boards:   deps.Boards,
		ledger:   deps.Ledger,
		locator:  deps.Locator,
		session:  deps.Session,
		logger:   deps.Logger,
		metaPath: deps.MetaPath,
		now:      deps.Now,
		ctx:      context.Background(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "user")
	if s.metaPath == "" {
		s.metaPath = DefaultMetaPath
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.gate = ready.New(
		ready.WithLatest(s.state.Read),
		ready.WithBeforeDrain(func(state.UserState) {
			s.state.Mutate(func(u state.UserState) state.UserState {
				u.Ready = true
				return u
			})
		}),
		ready.WithLogger[state.UserState](s.logger),
		ready.WithName[state.UserState]("user"),
	)
	s.backend.OnFailure(func(kind backend.Kind, err error) {
		s.reportFailure(err)
	})
	return s
}

// InitialState builds the startup snapshot from the local cache.
func InitialState(local *prefs.Local) state.UserState {
	u := state.NewUserState()
	if kind, ok := backend.ParseKind(local.String(prefs.KeyStorageType)); ok {
		u.StorageType = kind
	}
	u.LaunchCount = max(local.Int(prefs.KeyLaunchCount), 0)
	u.AlwaysLocate = local.Bool(prefs.KeyAlwaysLocate)
	u.Theme = normalizeTheme(local.String(prefs.KeyTheme))
	u.LocalSettings.CompactButtons = local.Bool(prefs.KeyCompactButtons)
	return u
}

// OnReady runs fn with the user snapshot once bootstrap has completed.
// Registered after that, fn runs at once with the current snapshot.
func (s *Store) OnReady(fn func(state.UserState)) {
	s.gate.OnReady(fn)
}

// FireReady trips the ready signal. Only the first call has an effect.
func (s *Store) FireReady(payload state.UserState) bool {
	return s.gate.Fire(payload)
}

// Ready reports whether the ready signal has fired.
func (s *Store) Ready() bool {
	return s.gate.Ready()
}

// WaitReady blocks until ready or ctx ends.
func (s *Store) WaitReady(ctx context.Context) (state.UserState, error) {
	return s.gate.Wait(ctx)
}

// OnFailure registers fn to receive fatal bootstrap and backend errors.
func (s *Store) OnFailure(fn func(error)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, fn)
}

// Data returns the current user snapshot.
func (s *Store) Data() state.UserState {
	return s.state.Read()
}

// Subscribe forwards to the state container.
func (s *Store) Subscribe(fn func(state.UserState)) func() {
	return s.state.Subscribe(fn)
}

// Session returns the profile source.
func (s *Store) Session() session.Session {
	return s.session
}

// Trackers returns the tracker collection published by bootstrap.
func (s *Store) Trackers() (tracker.Set, bool) {
	s.pubMu.RLock()
	defer s.pubMu.RUnlock()
	return append(tracker.Set(nil), s.pubTrackers...), s.published
}

// Boards returns the board collection published by bootstrap.
func (s *Store) Boards() (board.Set, bool) {
	s.pubMu.RLock()
	defer s.pubMu.RUnlock()
	return append(board.Set(nil), s.pubBoards...), s.published
}

// FirstDate returns the first ledger date, once found.
func (s *Store) FirstDate() (time.Time, bool) {
	return s.ledger.FirstDate()
}

func (s *Store) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Store) setContext(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
}

func (s *Store) reportFailure(err error) {
	s.mu.Lock()
	handlers := append([]func(error){}, s.failures...)
	s.mu.Unlock()
	for _, fn := range handlers {
		s.callFailure(fn, err)
	}
}

func (s *Store) callFailure(fn func(error), err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("failure handler panicked", "panic", r)
		}
	}()
	fn(err)
}
