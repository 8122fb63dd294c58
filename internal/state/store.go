package state

import (
	"log/slog"
	"sync"
)

// Store owns the user snapshot. All reads and writes go through it.
type Store struct {
	writeMu  sync.Mutex
	mu       sync.Mutex
	snapshot UserState

	subMu  sync.Mutex
	subs   []subscriber
	nextID int

	notifyMu  sync.Mutex
	outbox    []UserState
	notifying bool

	logger *slog.Logger
}

type subscriber struct {
	id int
	fn func(UserState)
}

// NewStore returns a store holding initial.
func NewStore(initial UserState, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{snapshot: initial.Clone(), logger: logger}
}

// Read returns a copy of the current snapshot.
func (s *Store) Read() UserState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// Mutate applies fn to a copy of the current snapshot and stores the result.
// Mutations are applied one at a time in submission order, so concurrent
// read-modify-write cycles never lose updates. Read may be called from fn and
// returns the pre-mutation snapshot; Mutate must not be called from fn.
//
// Subscribers are notified of every resulting snapshot in mutation order, one
// notification at a time. When another notification round is already running
// (including when Mutate is called from a subscriber) the new snapshot is
// queued and delivered by that round; Mutate then returns before its own
// subscribers have run.
func (s *Store) Mutate(fn func(UserState) UserState) UserState {
	next, flush := s.apply(fn)
	if flush {
		s.flush()
	}
	return next
}

func (s *Store) apply(fn func(UserState) UserState) (UserState, bool) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := fn(s.Read())

	s.mu.Lock()
	s.snapshot = next.Clone()
	s.mu.Unlock()

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.outbox = append(s.outbox, next.Clone())
	if s.notifying {
		return next, false
	}
	s.notifying = true
	return next, true
}

// Subscribe registers fn to receive every snapshot produced by Mutate. The
// returned function removes the subscription.
func (s *Store) Subscribe(fn func(UserState)) func() {
	s.subMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// flush delivers queued snapshots until the outbox is empty. Only one
// goroutine flushes at a time.
func (s *Store) flush() {
	for {
		s.notifyMu.Lock()
		if len(s.outbox) == 0 {
			s.notifying = false
			s.notifyMu.Unlock()
			return
		}
		snap := s.outbox[0]
		s.outbox = s.outbox[1:]
		s.notifyMu.Unlock()

		s.subMu.Lock()
		subs := make([]subscriber, len(s.subs))
		copy(subs, s.subs)
		s.subMu.Unlock()

		for _, sub := range subs {
			s.deliver(sub, snap)
		}
	}
}

func (s *Store) deliver(sub subscriber, snap UserState) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("state subscriber panicked", "subscriber", sub.id, "panic", r)
		}
	}()
	sub.fn(snap.Clone())
}
