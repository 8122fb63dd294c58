package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tally/internal/backend"
	"github.com/five82/tally/internal/board"
	"github.com/five82/tally/internal/prefs"
	"github.com/five82/tally/internal/state"
	"github.com/five82/tally/internal/tracker"
	"github.com/five82/tally/internal/user"
)

type fakeController struct {
	mu          sync.Mutex
	snap        state.UserState
	selected    []string
	initialized int
	retried     int
	pins        []string
	themes      []string
	locate      []bool
	compact     []bool
	backups     int
	backupErr   error
}

func (f *fakeController) Data() state.UserState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap.Clone()
}
func (f *fakeController) Subscribe(func(state.UserState)) func() { return func() {} }
func (f *fakeController) OnFailure(func(error))                  {}
func (f *fakeController) Initialize(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initialized++
}
func (f *fakeController) Retry(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retried++
}
func (f *fakeController) SelectBackend(requested string) backend.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selected = append(f.selected, requested)
	k, _ := backend.ParseKind(requested)
	return k
}
func (f *fakeController) Unlock(pin string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pins = append(f.pins, pin)
	if pin != "1234" {
		return user.ErrWrongPin
	}
	return nil
}
func (f *fakeController) SetTheme(theme string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.themes = append(f.themes, theme)
	return theme, nil
}
func (f *fakeController) SetAlwaysLocate(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locate = append(f.locate, on)
	return nil
}
func (f *fakeController) SetCompactButtons(on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.compact = append(f.compact, on)
	return nil
}
func (f *fakeController) SaveLastBackupDate(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backups++
	return f.backupErr
}
func (f *fakeController) Trackers() (tracker.Set, bool) {
	return tracker.Set{{Tag: "coffee"}, {Tag: "run"}}, true
}
func (f *fakeController) Boards() (board.Set, bool) { return board.Set{{ID: "b"}}, true }
func (f *fakeController) FirstDate() (time.Time, bool) {
	return time.Date(2021, 11, 1, 0, 0, 0, 0, time.UTC), true
}
func (f *fakeController) DateTimeFormat() user.Layouts {
	return user.Layouts{Time: "15:04", Date: "2 Jan 2006"}
}

func newModel(t *testing.T, snap state.UserState) (Model, *fakeController) {
	t.Helper()
	ctrl := &fakeController{snap: snap}
	m := New(Options{Controller: ctrl})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model), ctrl
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPhase(t *testing.T) {
	m, _ := newModel(t, state.NewUserState())
	if got := m.Phase(); got != PhaseStarting {
		t.Fatalf("Phase = %q, want starting", got)
	}

	snap := state.NewUserState()
	snap.SignedIn = state.Bool(false)
	m, _ = update(t, m, stateMsg(snap))
	if got := m.Phase(); got != PhaseOnboarding {
		t.Fatalf("Phase = %q, want onboarding", got)
	}

	snap.SignedIn = state.Bool(true)
	snap.Ready = true
	snap.Meta.Lock = true
	m, _ = update(t, m, stateMsg(snap))
	if got := m.Phase(); got != PhaseLocked {
		t.Fatalf("Phase = %q, want locked", got)
	}

	m, _ = update(t, m, failureMsg{err: errors.New("boom")})
	if got := m.Phase(); got != PhaseFailed {
		t.Fatalf("Phase = %q, want failed", got)
	}
}

func TestOnboardingPicksBackend(t *testing.T) {
	snap := state.NewUserState()
	snap.SignedIn = state.Bool(false)
	m, ctrl := newModel(t, snap)

	if !strings.Contains(m.View(), "Where should tally keep your data?") {
		t.Fatalf("View does not show the onboarding picker:\n%s", m.View())
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.choice != 1 {
		t.Fatalf("choice = %d, want 1", m.choice)
	}
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("enter returned no command")
	}
	cmd()

	_, cmd = update(t, m, runes("3"))
	cmd()

	if len(ctrl.selected) != 2 || ctrl.selected[0] != "s3" || ctrl.selected[1] != "sqlite" {
		t.Fatalf("selected = %v, want [s3 sqlite]", ctrl.selected)
	}
	if ctrl.initialized != 2 {
		t.Fatalf("initialized = %d, want 2", ctrl.initialized)
	}
}

func TestFailureBannerAndRetry(t *testing.T) {
	m, ctrl := newModel(t, state.NewUserState())
	m, _ = update(t, m, failureMsg{err: errors.New("initialize boards: timeout")})

	view := m.View()
	if !strings.Contains(view, "Startup failed") || !strings.Contains(view, "initialize boards: timeout") {
		t.Fatalf("View does not show the failure:\n%s", view)
	}

	m, cmd := update(t, m, runes("r"))
	if cmd == nil {
		t.Fatalf("retry returned no command")
	}
	cmd()
	if ctrl.retried != 1 {
		t.Fatalf("retried = %d, want 1", ctrl.retried)
	}
	if m.Phase() != PhaseStarting {
		t.Fatalf("Phase after retry = %q, want starting", m.Phase())
	}
}

func TestReadySummary(t *testing.T) {
	snap := state.NewUserState()
	snap.Ready = true
	snap.SignedIn = state.Bool(true)
	snap.LaunchCount = 12
	snap.Profile.Username = "ada"
	snap.StorageType = backend.SQLite
	snap.Location = &state.Location{City: "Oslo"}
	m, _ := newModel(t, snap)
	m, _ = update(t, m, stateMsg(snap))

	view := m.View()
	for _, want := range []string{"READY", "sqlite", "ada", "12", "1 Nov 2021", "Oslo"} {
		if !strings.Contains(view, want) {
			t.Fatalf("View missing %q:\n%s", want, view)
		}
	}
}

func TestLockScreenUnlock(t *testing.T) {
	snap := state.NewUserState()
	snap.Ready = true
	snap.SignedIn = state.Bool(true)
	snap.Meta.Lock = true
	m, ctrl := newModel(t, snap)
	m, _ = update(t, m, stateMsg(snap))

	for _, r := range "99" {
		m, _ = update(t, m, runes(string(r)))
	}
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = update(t, m, cmd())
	if m.pinError == "" {
		t.Fatalf("wrong pin should set an error")
	}

	for _, r := range "1234" {
		m, _ = update(t, m, runes(string(r)))
	}
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	msg := cmd()
	if um, ok := msg.(unlockMsg); !ok || um.err != nil {
		t.Fatalf("unlock msg = %#v, want success", msg)
	}
	if len(ctrl.pins) != 2 || ctrl.pins[0] != "99" || ctrl.pins[1] != "1234" {
		t.Fatalf("pins = %v, want [99 1234]", ctrl.pins)
	}
}

func TestLockScreenSwallowsQuitKey(t *testing.T) {
	snap := state.NewUserState()
	snap.Ready = true
	snap.Meta.Lock = true
	m, _ := newModel(t, snap)
	m, _ = update(t, m, stateMsg(snap))

	m, _ = update(t, m, runes("q"))
	if m.pin.Value() != "q" {
		t.Fatalf("pin = %q, want q typed into the pin field", m.pin.Value())
	}
}

func TestThemeKeys(t *testing.T) {
	local, err := prefs.Open(filepath.Join(t.TempDir(), "local.toml"))
	if err != nil {
		t.Fatalf("prefs.Open: %v", err)
	}
	ctrl := &fakeController{snap: state.NewUserState()}
	m := New(Options{Controller: ctrl, Local: local})

	_, cmd := update(t, m, runes("T"))
	cmd()
	if len(ctrl.themes) != 1 || ctrl.themes[0] != "light" {
		t.Fatalf("themes = %v, want [light]", ctrl.themes)
	}

	m, _ = update(t, m, runes("P"))
	if m.palette != "Slate" {
		t.Fatalf("palette = %q, want Slate", m.palette)
	}
	if got := local.String(prefs.KeyUITheme); got != "Slate" {
		t.Fatalf("stored palette = %q, want Slate", got)
	}

	snap := state.NewUserState()
	snap.Theme = "light"
	m, _ = update(t, m, stateMsg(snap))
	if m.theme.Name != "Paper" {
		t.Fatalf("theme = %q, want Paper for light", m.theme.Name)
	}
}

func TestLogPane(t *testing.T) {
	m, _ := newModel(t, state.NewUserState())
	m, _ = update(t, m, runes("l"))
	m, _ = update(t, m, logLinesMsg{`time=2025-10-08T21:01:05Z level=ERROR msg="backend unavailable" component=storage`})

	view := m.View()
	if !strings.Contains(view, "backend unavailable") || !strings.Contains(view, "[storage]") {
		t.Fatalf("View missing log line:\n%s", view)
	}
}

func readySnapshot() state.UserState {
	snap := state.NewUserState()
	snap.Ready = true
	snap.SignedIn = state.Bool(true)
	snap.Locked = false
	return snap
}

func TestReadySettingsKeys(t *testing.T) {
	snap := readySnapshot()
	snap.AlwaysLocate = true
	m, ctrl := newModel(t, snap)
	m, _ = update(t, m, stateMsg(snap))

	_, cmd := update(t, m, runes("a"))
	m, _ = update(t, m, cmd())
	if len(ctrl.locate) != 1 || ctrl.locate[0] {
		t.Fatalf("locate = %v, want [false]", ctrl.locate)
	}
	if !strings.Contains(m.View(), "Always locate off") {
		t.Fatalf("View missing notice:\n%s", m.View())
	}

	_, cmd = update(t, m, runes("c"))
	cmd()
	if len(ctrl.compact) != 1 || !ctrl.compact[0] {
		t.Fatalf("compact = %v, want [true]", ctrl.compact)
	}

	_, cmd = update(t, m, runes("b"))
	m, _ = update(t, m, cmd())
	if ctrl.backups != 1 {
		t.Fatalf("backups = %d, want 1", ctrl.backups)
	}
	if !strings.Contains(m.View(), "Backup date saved") {
		t.Fatalf("View missing backup notice:\n%s", m.View())
	}

	ctrl.backupErr = errors.New("user: backend not open")
	_, cmd = update(t, m, runes("b"))
	m, _ = update(t, m, cmd())
	if !strings.Contains(m.View(), "Failed: user: backend not open") {
		t.Fatalf("View missing failure notice:\n%s", m.View())
	}
}

func TestSettingsKeysIgnoredBeforeReady(t *testing.T) {
	m, ctrl := newModel(t, state.NewUserState())
	for _, k := range []string{"a", "c", "b"} {
		_, cmd := update(t, m, runes(k))
		if cmd != nil {
			t.Fatalf("key %q returned a command while starting", k)
		}
	}
	if len(ctrl.locate)+len(ctrl.compact)+ctrl.backups != 0 {
		t.Fatalf("settings changed before ready")
	}
}

func TestCompactFooterShowsKeysOnly(t *testing.T) {
	snap := readySnapshot()
	snap.LocalSettings.CompactButtons = true
	m, _ := newModel(t, snap)
	m, _ = update(t, m, stateMsg(snap))

	view := m.View()
	if strings.Contains(view, "Toggle logs") {
		t.Fatalf("compact footer should hide descriptions:\n%s", view)
	}
	if !strings.Contains(view, "Locate") {
		t.Fatalf("summary missing locate row:\n%s", view)
	}
}
