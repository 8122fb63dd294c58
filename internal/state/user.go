package state

import (
	"time"

	"github.com/five82/tally/internal/backend"
)

// FirstDay is the first day of the week shown in calendars.
type FirstDay string

const (
	Sunday FirstDay = "1"
	Monday FirstDay = "2"
)

// Meta holds user preferences persisted with the backend.
type Meta struct {
	Lock           bool       `json:"lock"`
	Pin            *int       `json:"pin,omitempty"`
	Is24Hour       bool       `json:"is24Hour,omitempty"`
	FirstDayOfWeek FirstDay   `json:"firstDayOfWeek"`
	LastBackup     *time.Time `json:"lastBackup,omitempty"`
	BoardsEnabled  bool       `json:"boardsEnabled,omitempty"`
	CanEditFiles   bool       `json:"canEditFiles,omitempty"`
}

// LocalSettings holds per-device UI preferences kept in the local cache.
type LocalSettings struct {
	CompactButtons bool
}

// Profile describes the signed-in user.
type Profile struct {
	Username string
}

// Location is the last known position of the device.
type Location struct {
	Latitude  float64
	Longitude float64
	City      string
	Found     time.Time
}

// UserState is the full user snapshot shared across the application.
type UserState struct {
	StorageType   backend.Kind
	Ready         bool
	SignedIn      *bool
	LaunchCount   int
	Profile       Profile
	AlwaysLocate  bool
	Theme         string
	Location      *Location
	Meta          Meta
	Locked        bool
	LocalSettings LocalSettings
}

// DefaultMeta returns the preferences used until the stored ones load.
func DefaultMeta() Meta {
	return Meta{FirstDayOfWeek: Sunday}
}

// NewUserState returns the initial snapshot: not ready, sign-in unknown,
// locked, default preferences.
func NewUserState() UserState {
	return UserState{
		Theme:  "auto",
		Meta:   DefaultMeta(),
		Locked: true,
	}
}

// Bool returns a pointer to b, for the tri-state SignedIn field.
func Bool(b bool) *bool {
	return &b
}

// IsSignedIn reports whether sign-in is known to have succeeded.
func (u UserState) IsSignedIn() bool {
	return u.SignedIn != nil && *u.SignedIn
}

// NeedsOnboarding reports whether sign-in is known to have not happened.
func (u UserState) NeedsOnboarding() bool {
	return u.SignedIn != nil && !*u.SignedIn
}

// Clone returns a deep copy; no pointer in the result aliases u.
func (u UserState) Clone() UserState {
	dup := u
	if u.SignedIn != nil {
		v := *u.SignedIn
		dup.SignedIn = &v
	}
	if u.Location != nil {
		loc := *u.Location
		dup.Location = &loc
	}
	dup.Meta = u.Meta.Clone()
	return dup
}

// Clone returns a deep copy of m.
func (m Meta) Clone() Meta {
	dup := m
	if m.Pin != nil {
		v := *m.Pin
		dup.Pin = &v
	}
	if m.LastBackup != nil {
		v := *m.LastBackup
		dup.LastBackup = &v
	}
	return dup
}
