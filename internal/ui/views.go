package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/tally/internal/backend"
)

var backendBlurbs = map[backend.Kind]string{
	backend.Local:  "Embedded database on this machine",
	backend.S3:     "Objects in an S3-compatible bucket",
	backend.SQLite: "A single SQLite file you can copy around",
}

func (m Model) renderMain() string {
	parts := []string{m.renderHeader(), m.renderBody()}
	if m.showLogs {
		styles := m.theme.Styles()
		parts = append(parts, styles.Panel.Width(max(m.width-2, 0)).Render(m.logViewport.View()))
	}
	parts = append(parts, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	phase := m.Phase()

	items := []string{
		styles.Logo.Render("tally"),
		styles.PhaseStyle(string(phase)).Render(strings.ToUpper(string(phase))),
	}
	if kind := m.snapshot.StorageType; !kind.IsZero() {
		items = append(items, styles.MutedText.Render("backend ")+styles.Text.Render(kind.String()))
	}
	if name := m.snapshot.Profile.Username; name != "" {
		items = append(items, styles.MutedText.Render("user ")+styles.Text.Render(name))
	}
	return styles.Header.Width(m.width).Render(strings.Join(items, "  "))
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	if m.snapshot.LocalSettings.CompactButtons {
		bindings := m.keys.ShortHelp()
		keys := make([]string, 0, len(bindings))
		for _, b := range bindings {
			keys = append(keys, styles.AccentText.Render(b.Help().Key))
		}
		return styles.Footer.Width(m.width).Render(strings.Join(keys, " "))
	}
	return styles.Footer.Width(m.width).Render(m.help.View(m.keys))
}

func (m Model) renderBody() string {
	switch m.Phase() {
	case PhaseFailed:
		return m.renderFailure()
	case PhaseOnboarding:
		return m.renderOnboarding()
	case PhaseStarting:
		return m.renderStarting()
	case PhaseLocked:
		return m.renderLock()
	default:
		return m.renderSummary()
	}
}

func (m Model) renderFailure() string {
	styles := m.theme.Styles()
	body := styles.DangerText.Render("Startup failed") + "\n\n" +
		styles.Text.Render(m.fatal.Error()) + "\n\n" +
		styles.MutedText.Render("Press ") + styles.AccentText.Render("r") +
		styles.MutedText.Render(" to retry or ") + styles.AccentText.Render("l") +
		styles.MutedText.Render(" to see the log.")
	return styles.Alert.Width(min(max(m.width-2, 0), 80)).Render(body)
}

func (m Model) renderOnboarding() string {
	styles := m.theme.Styles()
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Where should tally keep your data?"))
	b.WriteString("\n\n")
	for i, kind := range backend.Kinds() {
		cursor := "  "
		label := styles.Text.Render(fmt.Sprintf("%d. %s", i+1, kind))
		if i == m.choice {
			cursor = styles.Selected.Render("› ")
			label = styles.Selected.Render(fmt.Sprintf("%d. %s", i+1, kind))
		}
		b.WriteString(cursor + label + "  " + styles.MutedText.Render(backendBlurbs[kind]) + "\n")
	}
	b.WriteString("\n" + styles.FaintText.Render("The choice is stored on this device and used from the next launch on."))
	return styles.FocusPanel.Render(b.String())
}

func (m Model) renderStarting() string {
	styles := m.theme.Styles()
	what := "Starting"
	if kind := m.snapshot.StorageType; !kind.IsZero() {
		what = "Opening " + kind.String() + " backend"
	}
	return styles.Panel.Render(m.spinner.View() + " " + styles.Text.Render(what+"..."))
}

func (m Model) renderLock() string {
	styles := m.theme.Styles()
	body := styles.AccentText.Bold(true).Render("Locked") + "\n\n" +
		styles.MutedText.Render("Pin ") + m.pin.View()
	if m.pinError != "" {
		body += "\n" + styles.DangerText.Render(m.pinError)
	}
	return styles.FocusPanel.Render(body)
}

func (m Model) renderSummary() string {
	styles := m.theme.Styles()
	u := m.snapshot
	layouts := m.ctrl.DateTimeFormat()

	row := func(label, value string) string {
		return styles.MutedText.Render(padRight(label, 12)) + styles.Text.Render(value)
	}

	rows := []string{
		row("Launches", fmt.Sprintf("%d", u.LaunchCount)),
		row("Theme", u.Theme),
		row("Week starts", weekStart(string(u.Meta.FirstDayOfWeek))),
	}
	if trackers, ok := m.ctrl.Trackers(); ok {
		rows = append(rows, row("Trackers", fmt.Sprintf("%d", len(trackers))))
	}
	if boards, ok := m.ctrl.Boards(); ok {
		rows = append(rows, row("Boards", fmt.Sprintf("%d", len(boards))))
	}
	if first, ok := m.ctrl.FirstDate(); ok {
		rows = append(rows, row("Since", first.Format(layouts.Date)))
	}
	if u.Meta.LastBackup != nil {
		rows = append(rows, row("Last backup", u.Meta.LastBackup.Format(layouts.Date+" "+layouts.Time)))
	}
	locate := "off"
	if u.AlwaysLocate {
		locate = "every launch"
	}
	rows = append(rows, row("Locate", locate))
	if u.Location != nil {
		rows = append(rows, row("Location", fmt.Sprintf("%s (%.2f, %.2f)", u.Location.City, u.Location.Latitude, u.Location.Longitude)))
	}

	title := styles.SuccessText.Render("Ready")
	body := title + "\n\n" + strings.Join(rows, "\n")
	if m.notice != "" {
		body += "\n\n" + styles.InfoText.Render(m.notice)
	}
	return styles.Panel.Render(body)
}

func weekStart(day string) string {
	if day == "2" {
		return "Monday"
	}
	return "Sunday"
}
