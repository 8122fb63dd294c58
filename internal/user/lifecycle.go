package user

import (
	"context"

	"github.com/five82/tally/internal/backend"
	"github.com/five82/tally/internal/prefs"
	"github.com/five82/tally/internal/state"
)

// Initialize starts a launch. It counts the launch, schedules the first-date
// lookup and either flags onboarding (no backend selected) or opens the
// backend and bootstraps once it is usable. It never blocks on the backend
// and never returns collaborator errors; those reach OnFailure handlers.
func (s *Store) Initialize(ctx context.Context) {
	s.setContext(ctx)

	next := s.state.Mutate(func(u state.UserState) state.UserState {
		u.LaunchCount++
		if err := s.local.Put(prefs.KeyLaunchCount, u.LaunchCount); err != nil {
			s.logger.Error("persist launch count", "error", err)
		}
		return u
	})
	s.logger.Info("launch", "count", next.LaunchCount)

	s.queueFirstDate(ctx)

	if !s.backend.Configured() {
		s.logger.Info("no backend selected, onboarding required")
		s.state.Mutate(func(u state.UserState) state.UserState {
			u.SignedIn = state.Bool(false)
			u.LaunchCount = 0
			return u
		})
		return
	}

	s.queueBootstrap()
	s.backend.Init(ctx)
}

// Retry re-runs whatever failed last: the backend open, or bootstrap once
// the backend is open. It does nothing when already ready.
func (s *Store) Retry(ctx context.Context) {
	if s.gate.Ready() {
		return
	}
	s.setContext(ctx)
	if storage := s.backend.Storage(); storage != nil {
		go s.bootstrap(storage)
		return
	}
	if !s.backend.Configured() {
		return
	}
	s.queueBootstrap()
	s.backend.Init(ctx)
}

// SelectBackend persists the backend choice made during onboarding.
func (s *Store) SelectBackend(requested string) backend.Kind {
	return s.backend.Select(requested)
}

func (s *Store) queueBootstrap() {
	s.mu.Lock()
	if s.queued {
		s.mu.Unlock()
		return
	}
	s.queued = true
	s.mu.Unlock()

	s.backend.AwaitReady(func(storage backend.Storage) {
		go s.bootstrap(storage)
	})
}

func (s *Store) queueFirstDate(ctx context.Context) {
	s.mu.Lock()
	if s.firstDateQueued {
		s.mu.Unlock()
		return
	}
	s.firstDateQueued = true
	s.mu.Unlock()

	s.backend.AwaitReady(func(storage backend.Storage) {
		go s.loadFirstDate(ctx, storage)
	})
}

func (s *Store) loadFirstDate(ctx context.Context, storage backend.Storage) {
	if err := s.ledger.LoadFirstDate(ctx, storage); err != nil {
		s.logger.Warn("first date lookup failed", "error", err)
		return
	}
	if first, ok := s.ledger.FirstDate(); ok {
		s.logger.Debug("first date found", "date", first.Format("2006-01-02"))
	}
}
