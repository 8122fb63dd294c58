package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/tally/internal/backend"
	"github.com/five82/tally/internal/board"
	"github.com/five82/tally/internal/state"
	"github.com/five82/tally/internal/tracker"
)

// bootstrap loads the user metadata and the tracker and board collections,
// then fires the ready signal. A metadata failure keeps the defaults. A
// tracker or board failure is fatal for this run: it is reported once and
// nothing is published.
func (s *Store) bootstrap(storage backend.Storage) {
	if s.gate.Ready() || !s.booting.CompareAndSwap(false, true) {
		return
	}
	defer s.booting.Store(false)

	ctx := s.context()
	started := time.Now()
	s.logger.Info("bootstrap started")

	var (
		trackers tracker.Set
		boards   board.Set
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.loadMeta(gctx, storage)
		return nil
	})
	g.Go(func() error {
		t, err := s.trackers.Initialize(gctx, storage)
		if err != nil {
			return fmt.Errorf("initialize trackers: %w", err)
		}
		b, err := s.boards.Initialize(gctx, storage, t)
		if err != nil {
			return fmt.Errorf("initialize boards: %w", err)
		}
		trackers, boards = t, b
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("bootstrap failed", "error", err)
		s.reportFailure(err)
		return
	}

	s.pubMu.Lock()
	s.pubTrackers = trackers
	s.pubBoards = boards
	s.published = true
	s.pubMu.Unlock()

	payload := s.state.Read()
	payload.Ready = true
	s.FireReady(payload)

	profile := s.session.Profile()
	next := s.state.Mutate(func(u state.UserState) state.UserState {
		u.Ready = true
		u.SignedIn = state.Bool(true)
		u.Profile = profile
		return u
	})
	s.logger.Info("bootstrap complete",
		"trackers", len(trackers),
		"boards", len(boards),
		"duration", time.Since(started))

	if next.AlwaysLocate {
		go s.locate(ctx)
	}
}

func (s *Store) loadMeta(ctx context.Context, storage backend.Storage) {
	meta := state.DefaultMeta()
	err := backend.GetJSON(ctx, storage, s.metaPath, &meta)
	switch {
	case errors.Is(err, backend.ErrNotFound):
		s.logger.Info("no stored metadata, using defaults", "path", s.metaPath)
		s.applyMeta(nil)
		return
	case err != nil:
		s.logger.Warn("load metadata failed, using defaults", "path", s.metaPath, "error", err)
		s.applyMeta(nil)
		return
	}
	if meta.FirstDayOfWeek != state.Sunday && meta.FirstDayOfWeek != state.Monday {
		meta.FirstDayOfWeek = state.Sunday
	}
	s.applyMeta(&meta)
}

// applyMeta stores meta when it is not nil, then unlocks unless the
// metadata asks for a lock.
func (s *Store) applyMeta(meta *state.Meta) {
	s.state.Mutate(func(u state.UserState) state.UserState {
		if meta != nil {
			u.Meta = *meta
		}
		if !u.Meta.Lock {
			u.Locked = false
		}
		return u
	})
}

func (s *Store) locate(ctx context.Context) {
	if s.locator == nil {
		return
	}
	loc, err := s.locator.Locate(ctx)
	if err != nil {
		s.logger.Warn("locate failed", "error", err)
		return
	}
	s.state.Mutate(func(u state.UserState) state.UserState {
		u.Location = &loc
		return u
	})
	s.logger.Debug("located", "city", loc.City)
}
