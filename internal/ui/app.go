package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tally/internal/backend"
	"github.com/five82/tally/internal/board"
	"github.com/five82/tally/internal/prefs"
	"github.com/five82/tally/internal/state"
	"github.com/five82/tally/internal/tracker"
	"github.com/five82/tally/internal/user"
)

// Controller is the part of the user store the UI drives.
type Controller interface {
	Data() state.UserState
	Subscribe(fn func(state.UserState)) func()
	OnFailure(fn func(error))
	Initialize(ctx context.Context)
	Retry(ctx context.Context)
	SelectBackend(requested string) backend.Kind
	Unlock(pin string) error
	SetTheme(theme string) (string, error)
	SetAlwaysLocate(on bool) error
	SetCompactButtons(on bool) error
	SaveLastBackupDate(ctx context.Context) error
	Trackers() (tracker.Set, bool)
	Boards() (board.Set, bool)
	FirstDate() (time.Time, bool)
	DateTimeFormat() user.Layouts
}

var _ Controller = (*user.Store)(nil)

// Phase is the lifecycle stage shown in the header.
type Phase string

const (
	PhaseStarting   Phase = "starting"
	PhaseOnboarding Phase = "onboarding"
	PhaseLocked     Phase = "locked"
	PhaseReady      Phase = "ready"
	PhaseFailed     Phase = "failed"
)

// Options configures the UI.
type Options struct {
	Context    context.Context
	Controller Controller
	Local      *prefs.Local
	LogPath    string
	LogTick    time.Duration
}

const (
	defaultLogTick = time.Second
	logLines       = 200
)

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx     context.Context
	ctrl    Controller
	local   *prefs.Local
	logPath string
	logTick time.Duration

	theme   Theme
	palette string
	keys    keyMap
	help    help.Model
	width   int
	height  int
	sized   bool

	snapshot state.UserState
	fatal    error
	choice   int
	pin      textinput.Model
	pinError string
	notice   string
	spinner  spinner.Model

	showLogs    bool
	logViewport viewport.Model
	logLines    []string
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	logTick := opts.LogTick
	if logTick <= 0 {
		logTick = defaultLogTick
	}

	palette := "Dracula"
	if opts.Local != nil {
		if name := opts.Local.String(prefs.KeyUITheme); name != "" {
			palette = name
		}
	}

	pin := textinput.New()
	pin.Placeholder = "pin"
	pin.EchoMode = textinput.EchoPassword
	pin.EchoCharacter = '•'
	pin.CharLimit = 12
	pin.Width = 12

	snap := opts.Controller.Data()
	m := Model{
		ctx:      ctx,
		ctrl:     opts.Controller,
		local:    opts.Local,
		logPath:  opts.LogPath,
		logTick:  logTick,
		palette:  palette,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		snapshot: snap,
		pin:      pin,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.theme = ResolveTheme(snap.Theme, palette)
	m.applyTheme()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, snapshotCmd(m.ctrl)}
	if m.logPath != "" {
		cmds = append(cmds, readLogCmd(m.logPath), logTickCmd(m.logTick))
	}
	return tea.Batch(cmds...)
}

// Phase derives the displayed lifecycle stage from the model.
func (m Model) Phase() Phase {
	switch {
	case m.fatal != nil:
		return PhaseFailed
	case m.snapshot.NeedsOnboarding():
		return PhaseOnboarding
	case !m.snapshot.Ready:
		return PhaseStarting
	case m.snapshot.Meta.Lock && m.snapshot.Locked:
		return PhaseLocked
	default:
		return PhaseReady
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if !m.sized {
			m.logViewport = viewport.New(msg.Width, m.logHeight())
		}
		m.sized = true
		m.logViewport.Width = msg.Width
		m.logViewport.Height = m.logHeight()
		m.refreshLogViewport()
		return m, nil

	case stateMsg:
		m.snapshot = state.UserState(msg)
		if m.snapshot.Ready {
			m.fatal = nil
		}
		m.theme = ResolveTheme(m.snapshot.Theme, m.palette)
		m.applyTheme()
		return m, m.focusPin()

	case failureMsg:
		m.fatal = msg.err
		return m, nil

	case noticeMsg:
		m.notice = string(msg)
		return m, nil

	case unlockMsg:
		if msg.err != nil {
			m.pinError = "Wrong pin"
		} else {
			m.pinError = ""
		}
		m.pin.Reset()
		return m, nil

	case logLinesMsg:
		m.logLines = msg
		m.refreshLogViewport()
		return m, nil

	case logTickMsg:
		return m, tea.Batch(readLogCmd(m.logPath), logTickCmd(m.logTick))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.sized {
		return m.spinner.View() + " Loading..."
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Phase() == PhaseLocked {
		return m.handleLockKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.ToggleLogs):
		m.showLogs = !m.showLogs
		m.logViewport.Height = m.logHeight()
		m.refreshLogViewport()
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		return m, setThemeCmd(m.ctrl, nextSetting(m.snapshot.Theme))
	case key.Matches(msg, m.keys.CyclePalette):
		m.palette = NextTheme(m.palette)
		if m.local != nil {
			_ = m.local.Put(prefs.KeyUITheme, m.palette)
		}
		m.theme = ResolveTheme(m.snapshot.Theme, m.palette)
		m.applyTheme()
		return m, nil
	}

	switch m.Phase() {
	case PhaseReady:
		return m.handleReadyKey(msg)
	case PhaseFailed:
		if key.Matches(msg, m.keys.Retry) {
			m.fatal = nil
			return m, retryCmd(m.ctx, m.ctrl)
		}
	case PhaseOnboarding:
		return m.handleOnboardingKey(msg)
	}
	return m, nil
}

func (m Model) handleOnboardingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	kinds := backend.Kinds()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.choice > 0 {
			m.choice--
		}
	case key.Matches(msg, m.keys.Down):
		if m.choice < len(kinds)-1 {
			m.choice++
		}
	case key.Matches(msg, m.keys.Choose):
		return m, chooseBackendCmd(m.ctx, m.ctrl, kinds[m.choice])
	case key.Matches(msg, m.keys.Backend):
		idx := int(msg.Runes[0] - '1')
		if idx >= 0 && idx < len(kinds) {
			m.choice = idx
			return m, chooseBackendCmd(m.ctx, m.ctrl, kinds[idx])
		}
	}
	return m, nil
}

func (m Model) handleReadyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.AlwaysLocate):
		on := !m.snapshot.AlwaysLocate
		return m, settingCmd(func() error { return m.ctrl.SetAlwaysLocate(on) },
			onOff("Always locate", on))
	case key.Matches(msg, m.keys.Compact):
		on := !m.snapshot.LocalSettings.CompactButtons
		return m, settingCmd(func() error { return m.ctrl.SetCompactButtons(on) },
			onOff("Compact buttons", on))
	case key.Matches(msg, m.keys.Backup):
		ctx := m.ctx
		return m, settingCmd(func() error { return m.ctrl.SaveLastBackupDate(ctx) },
			"Backup date saved")
	}
	return m, nil
}

func (m Model) handleLockKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.Confirm):
		return m, unlockCmd(m.ctrl, m.pin.Value())
	case key.Matches(msg, m.keys.Cancel):
		m.pin.Reset()
		m.pinError = ""
		return m, nil
	}
	var cmd tea.Cmd
	m.pin, cmd = m.pin.Update(msg)
	return m, cmd
}

func (m *Model) focusPin() tea.Cmd {
	if m.Phase() == PhaseLocked {
		return m.pin.Focus()
	}
	m.pin.Blur()
	return nil
}

func (m *Model) applyTheme() {
	styles := m.theme.Styles()
	m.spinner.Style = styles.AccentText
	m.help.Styles.ShortKey = styles.AccentText
	m.help.Styles.ShortDesc = styles.MutedText
	m.help.Styles.FullKey = styles.AccentText
	m.help.Styles.FullDesc = styles.MutedText
}

func nextSetting(current string) string {
	for i, t := range user.Themes {
		if t == current {
			return user.Themes[(i+1)%len(user.Themes)]
		}
	}
	return user.Themes[0]
}

// Messages

type stateMsg state.UserState

type failureMsg struct{ err error }

type unlockMsg struct{ err error }

type noticeMsg string

type logLinesMsg []string

type logTickMsg time.Time

// Commands

// Controller calls that mutate state run as commands: a mutation notifies
// subscribers, and the subscriber sends into the program, which must not
// happen on the Update goroutine.

func snapshotCmd(c Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(c.Data())
	}
}

func retryCmd(ctx context.Context, c Controller) tea.Cmd {
	return func() tea.Msg {
		c.Retry(ctx)
		return nil
	}
}

func chooseBackendCmd(ctx context.Context, c Controller, kind backend.Kind) tea.Cmd {
	return func() tea.Msg {
		c.SelectBackend(kind.String())
		c.Initialize(ctx)
		return nil
	}
}

func unlockCmd(c Controller, pin string) tea.Cmd {
	return func() tea.Msg {
		return unlockMsg{err: c.Unlock(pin)}
	}
}

func settingCmd(apply func() error, done string) tea.Cmd {
	return func() tea.Msg {
		if err := apply(); err != nil {
			return noticeMsg("Failed: " + err.Error())
		}
		return noticeMsg(done)
	}
}

func onOff(label string, on bool) string {
	if on {
		return label + " on"
	}
	return label + " off"
}

func setThemeCmd(c Controller, theme string) tea.Cmd {
	return func() tea.Msg {
		_, _ = c.SetTheme(theme)
		return nil
	}
}

// Run starts the Bubble Tea program, initializes the controller and blocks
// until the user quits or ctx is cancelled.
func Run(opts Options) error {
	if opts.Controller == nil {
		return fmt.Errorf("ui requires a controller")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
		opts.Context = ctx
	}

	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	unsubscribe := opts.Controller.Subscribe(func(u state.UserState) {
		p.Send(stateMsg(u))
	})
	defer unsubscribe()
	opts.Controller.OnFailure(func(err error) {
		p.Send(failureMsg{err: err})
	})
	go opts.Controller.Initialize(ctx)

	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
