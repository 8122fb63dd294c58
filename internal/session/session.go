// Package session describes who is using tally.
package session

import (
	"os/user"
	"strings"

	"github.com/five82/tally/internal/state"
)

// Session reports the signed-in profile.
type Session interface {
	Profile() state.Profile
	SignInURL() string
}

// Static is a Session with a fixed profile.
type Static struct {
	profile   state.Profile
	signInURL string
}

var _ Session = Static{}

// New returns a session for username. An empty username falls back to the
// operating system account name.
func New(username, signInURL string) Static {
	name := strings.TrimSpace(username)
	if name == "" {
		name = systemUsername()
	}
	return Static{
		profile:   state.Profile{Username: name},
		signInURL: strings.TrimSpace(signInURL),
	}
}

func (s Static) Profile() state.Profile { return s.profile }

// SignInURL is where the user manages backend credentials, or "".
func (s Static) SignInURL() string { return s.signInURL }

func systemUsername() string {
	u, err := user.Current()
	if err != nil || u.Username == "" {
		return "local"
	}
	return u.Username
}
