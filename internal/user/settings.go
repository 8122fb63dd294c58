package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/five82/tally/internal/backend"
	"github.com/five82/tally/internal/prefs"
	"github.com/five82/tally/internal/state"
)

// ErrWrongPin is returned by Unlock when the pin does not match.
var ErrWrongPin = errors.New("user: wrong pin")

// Themes are the accepted theme names. The first is the fallback.
var Themes = []string{"auto", "light", "dark"}

// Layouts are time.Format layouts matching the user's clock preference.
type Layouts struct {
	Time string
	Date string
}

// SaveMeta writes the current metadata to the backend.
func (s *Store) SaveMeta(ctx context.Context) error {
	storage := s.backend.Storage()
	if storage == nil {
		return ErrNoBackend
	}
	if err := backend.PutJSON(ctx, storage, s.metaPath, s.state.Read().Meta); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	return nil
}

// UpdateMeta applies fn to the metadata and saves it.
func (s *Store) UpdateMeta(ctx context.Context, fn func(state.Meta) state.Meta) error {
	s.state.Mutate(func(u state.UserState) state.UserState {
		u.Meta = fn(u.Meta.Clone())
		return u
	})
	return s.SaveMeta(ctx)
}

// SaveLastBackupDate stamps the metadata with the current time and saves it.
func (s *Store) SaveLastBackupDate(ctx context.Context) error {
	now := s.now()
	return s.UpdateMeta(ctx, func(m state.Meta) state.Meta {
		m.LastBackup = &now
		return m
	})
}

// TimeFormat returns the clock layout for the user's preference.
func (s *Store) TimeFormat() string {
	return s.DateTimeFormat().Time
}

// DateTimeFormat returns the clock and date layouts for the user's preference.
func (s *Store) DateTimeFormat() Layouts {
	if s.state.Read().Meta.Is24Hour {
		return Layouts{Time: "15:04", Date: "2 Jan 2006"}
	}
	return Layouts{Time: "3:04 PM", Date: "Jan 2 2006"}
}

// SetAlwaysLocate persists whether to look up the location on every launch.
// Turning it on after bootstrap also looks the location up now.
func (s *Store) SetAlwaysLocate(on bool) error {
	err := s.local.Put(prefs.KeyAlwaysLocate, on)
	s.state.Mutate(func(u state.UserState) state.UserState {
		u.AlwaysLocate = on
		return u
	})
	if on && s.gate.Ready() {
		go s.locate(s.context())
	}
	return err
}

// SetTheme persists theme. Unknown names become "auto". It returns the
// stored name.
func (s *Store) SetTheme(theme string) (string, error) {
	theme = normalizeTheme(theme)
	err := s.local.Put(prefs.KeyTheme, theme)
	s.state.Mutate(func(u state.UserState) state.UserState {
		u.Theme = theme
		return u
	})
	return theme, err
}

// SetCompactButtons persists the compact buttons setting.
func (s *Store) SetCompactButtons(on bool) error {
	err := s.local.Put(prefs.KeyCompactButtons, on)
	s.state.Mutate(func(u state.UserState) state.UserState {
		u.LocalSettings.CompactButtons = on
		return u
	})
	return err
}

// ResetLaunchCount sets the launch count back to zero.
func (s *Store) ResetLaunchCount() error {
	err := s.local.Put(prefs.KeyLaunchCount, 0)
	s.state.Mutate(func(u state.UserState) state.UserState {
		u.LaunchCount = 0
		return u
	})
	return err
}

// Unlock clears the lock when the lock is off, no pin is set, or pin
// matches the stored one.
func (s *Store) Unlock(pin string) error {
	var err error
	s.state.Mutate(func(u state.UserState) state.UserState {
		if u.Meta.Lock && u.Meta.Pin != nil {
			n, convErr := strconv.Atoi(strings.TrimSpace(pin))
			if convErr != nil || n != *u.Meta.Pin {
				err = ErrWrongPin
				return u
			}
		}
		u.Locked = false
		return u
	})
	if err != nil {
		s.logger.Info("unlock refused")
	}
	return err
}

// ListFiles returns every path in the open backend.
func (s *Store) ListFiles(ctx context.Context) ([]string, error) {
	storage := s.backend.Storage()
	if storage == nil {
		return nil, ErrNoBackend
	}
	paths, err := storage.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return paths, nil
}

func normalizeTheme(theme string) string {
	theme = strings.ToLower(strings.TrimSpace(theme))
	for _, t := range Themes {
		if t == theme {
			return t
		}
	}
	return Themes[0]
}
