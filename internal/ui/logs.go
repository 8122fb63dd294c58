package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tally/internal/logtail"
)

func readLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, logLines)
		if err != nil {
			return logLinesMsg{"could not read log: " + err.Error()}
		}
		return logLinesMsg(lines)
	}
}

func logTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return logTickMsg(t)
	})
}

func (m Model) logHeight() int {
	if !m.showLogs {
		return 0
	}
	h := m.height / 3
	if h < 4 {
		h = 4
	}
	return h
}

func (m *Model) refreshLogViewport() {
	if !m.sized {
		return
	}
	m.logViewport.SetContent(m.renderLogLines())
	m.logViewport.GotoBottom()
}

func (m Model) renderLogLines() string {
	styles := m.theme.Styles()
	if len(m.logLines) == 0 {
		return styles.MutedText.Render("No log entries")
	}
	var b strings.Builder
	for i, e := range logtail.ParseLines(m.logLines) {
		if i > 0 {
			b.WriteByte('\n')
		}
		if e.Level == "" {
			b.WriteString(styles.FaintText.Render(e.Raw))
			continue
		}
		if !e.Time.IsZero() {
			b.WriteString(styles.FaintText.Render(e.Time.Format("15:04:05")) + " ")
		}
		b.WriteString(styles.LevelStyle(e.Level).Render(padRight(e.Level, 5)))
		if e.Component != "" {
			b.WriteString(" " + styles.InfoText.Render("["+e.Component+"]"))
		}
		b.WriteString(" " + styles.Text.Render(e.Message))
		for _, a := range e.Attrs {
			b.WriteString(" " + styles.MutedText.Render(a.Key+"=") + a.Value)
		}
	}
	return b.String()
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
