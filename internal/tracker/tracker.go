// Package tracker loads the user's tracker definitions from the open backend.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/five82/tally/internal/backend"
)

// Path is where tracker definitions are stored.
const Path = "trackers.json"

// Type is how a tracker records values.
type Type string

const (
	Tick  Type = "tick"
	Value Type = "value"
	Note  Type = "note"
	Timer Type = "timer"
)

// Tracker is one thing the user logs.
type Tracker struct {
	Tag   string `json:"tag" validate:"required"`
	Label string `json:"label"`
	Emoji string `json:"emoji,omitempty"`
	Color string `json:"color,omitempty"`
	Type  Type   `json:"type"`
	UOM   string `json:"uom,omitempty"`
}

// Set is an ordered list of trackers with unique tags.
type Set []Tracker

// Find returns the tracker with tag.
func (s Set) Find(tag string) (Tracker, bool) {
	tag = NormalizeTag(tag)
	for _, t := range s {
		if t.Tag == tag {
			return t, true
		}
	}
	return Tracker{}, false
}

// Tags returns every tag in order.
func (s Set) Tags() []string {
	out := make([]string, len(s))
	for i, t := range s {
		out[i] = t.Tag
	}
	return out
}

// NormalizeTag lowercases tag and strips a leading '#'.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
}

// Collection loads trackers from a backend.
type Collection interface {
	Initialize(ctx context.Context, storage backend.Storage) (Set, error)
}

// Store is the backend-backed Collection.
type Store struct{}

var _ Collection = (*Store)(nil)

// NewStore returns a tracker store.
func NewStore() *Store {
	return &Store{}
}

// Initialize reads and validates the tracker document. A missing document is
// an empty set.
func (s *Store) Initialize(ctx context.Context, storage backend.Storage) (Set, error) {
	var set Set
	err := backend.GetJSON(ctx, storage, Path, &set)
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return Set{}, nil
	case err != nil:
		return nil, fmt.Errorf("load trackers: %w", err)
	}

	set = normalize(set)
	if err := validate.Struct(document{Trackers: set}); err != nil {
		return nil, fmt.Errorf("load trackers: %w", describe(err))
	}
	return set, nil
}

type document struct {
	Trackers Set `validate:"unique=Tag,dive"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func normalize(set Set) Set {
	out := make(Set, 0, len(set))
	for _, t := range set {
		t.Tag = NormalizeTag(t.Tag)
		if t.Type == "" {
			t.Type = Tick
		}
		if t.Label == "" {
			t.Label = t.Tag
		}
		out = append(out, t)
	}
	return out
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s: tracker has no tag", fe.Namespace())
	case "unique":
		return fmt.Errorf("%s: duplicate tracker tag", fe.Namespace())
	}
	return fmt.Errorf("%s: failed %s", fe.Namespace(), fe.Tag())
}
