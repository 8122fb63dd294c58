// Package board loads dashboards that group trackers.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/five82/tally/internal/backend"
	"github.com/five82/tally/internal/tracker"
)

// Path is where boards are stored.
const Path = "boards.json"

// Board is a named group of tracker tags.
type Board struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Trackers []string `json:"trackers"`
}

// Set is an ordered list of boards.
type Set []Board

// Find returns the board with id.
func (s Set) Find(id string) (Board, bool) {
	for _, b := range s {
		if b.ID == id {
			return b, true
		}
	}
	return Board{}, false
}

// Collection loads boards against a set of known trackers.
type Collection interface {
	Initialize(ctx context.Context, storage backend.Storage, trackers tracker.Set) (Set, error)
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Store is the backend-backed Collection.
type Store struct {
	logger *slog.Logger
}

var _ Collection = (*Store)(nil)

// NewStore returns a board store.
func NewStore(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "boards")
	return s
}

// Initialize reads the board document. Tags that are not in trackers are
// dropped from each board. A board stored without an id gets one derived
// from its position and label, and the document is written back so the id
// survives later edits.
func (s *Store) Initialize(ctx context.Context, storage backend.Storage, trackers tracker.Set) (Set, error) {
	var stored Set
	err := backend.GetJSON(ctx, storage, Path, &stored)
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return Set{}, nil
	case err != nil:
		return nil, fmt.Errorf("load boards: %w", err)
	}

	minted := assignIDs(stored)
	if minted > 0 {
		if err := backend.PutJSON(ctx, storage, Path, stored); err != nil {
			s.logger.Warn("persist board ids failed", "boards", minted, "error", err)
		} else {
			s.logger.Info("assigned board ids", "boards", minted)
		}
	}
	return prune(stored, trackers), nil
}

// StableID is the id given to a board stored without one.
func StableID(index int, label string) string {
	name := fmt.Sprintf("tally/boards/%d/%s", index, strings.TrimSpace(label))
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

func assignIDs(set Set) int {
	minted := 0
	for i := range set {
		if set[i].ID == "" {
			set[i].ID = StableID(i, set[i].Label)
			minted++
		}
	}
	return minted
}

func prune(set Set, trackers tracker.Set) Set {
	out := make(Set, 0, len(set))
	for _, b := range set {
		kept := make([]string, 0, len(b.Trackers))
		for _, tag := range b.Trackers {
			if t, ok := trackers.Find(tag); ok {
				kept = append(kept, t.Tag)
			}
		}
		b.Trackers = kept
		out = append(out, b)
	}
	return out
}
