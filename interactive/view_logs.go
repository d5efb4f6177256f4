package interactive

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/compository/app/logbuf"
)

// LogsView displays the conductor and workflow activity captured while the console runs.
type LogsView struct {
	styles *Styles
	width  int
	height int
	logs   *logbuf.LogBuffer
	scroll int
}

func NewLogsView(styles *Styles, logs *logbuf.LogBuffer) *LogsView {
	return &LogsView{
		styles: styles,
		width:  120,
		height: 30,
		logs:   logs,
	}
}

func (v *LogsView) Init() tea.Cmd {
	return nil
}

// Update scrolls from the newest entry backwards; scroll 0 follows the tail.
func (v *LogsView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up):
			if v.scroll < v.logs.Len()-1 {
				v.scroll++
			}
		case key.Matches(msg, keys.Down):
			if v.scroll > 0 {
				v.scroll--
			}
		case key.Matches(msg, keys.Top):
			v.scroll = max(v.logs.Len()-1, 0)
		case key.Matches(msg, keys.Bottom):
			v.scroll = 0
		case key.Matches(msg, keys.Clear):
			v.logs.Clear()
			v.scroll = 0
		}
	}
	return v, nil
}

func (v *LogsView) View() string {
	var b strings.Builder

	availableHeight := max(v.height-6, 10)
	panelWidth := max(v.width-4, 40)

	var content strings.Builder
	content.WriteString(v.statsBar())
	content.WriteString("\n")
	content.WriteString(v.styles.Divider.Render(strings.Repeat("─", panelWidth-4)))
	content.WriteString("\n\n")
	content.WriteString(v.lines(availableHeight - 4))

	b.WriteString("\n")
	b.WriteString(v.styles.PanelTitle.Render("  Activity"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Panel.Width(panelWidth).Height(availableHeight).Render(content.String()))
	b.WriteString("\n")
	return b.String()
}

func (v *LogsView) statsBar() string {
	stats := v.logs.Stats()
	if stats.Total == 0 {
		return v.styles.Subtle.Render("No entries")
	}
	parts := []string{v.styles.Info.Render(fmt.Sprintf("%d total", stats.Total))}
	if stats.Errors > 0 {
		parts = append(parts, v.styles.Error.Render(fmt.Sprintf("%d errors", stats.Errors)))
	}
	if stats.Warns > 0 {
		parts = append(parts, v.styles.Warning.Render(fmt.Sprintf("%d warnings", stats.Warns)))
	}
	if stats.Debugs > 0 {
		parts = append(parts, v.styles.Subtle.Render(fmt.Sprintf("%d debug", stats.Debugs)))
	}
	return strings.Join(parts, v.styles.Divider.Render(" │ "))
}

func (v *LogsView) lines(window int) string {
	entries := v.logs.All()
	if len(entries) == 0 {
		return v.styles.Subtle.Render("    Conductor calls and DNA installs will show up here.")
	}
	window = max(window, 1)
	end := len(entries) - min(v.scroll, len(entries)-1)
	start := max(end-window, 0)

	width := max(len(fmt.Sprintf("%d", len(entries))), 3)
	lines := make([]string, 0, end-start)
	for at := start; at < end; at++ {
		lines = append(lines, v.line(at+1, entries[at], width))
	}
	return strings.Join(lines, "\n")
}

func (v *LogsView) line(number int, entry logbuf.LogEntry, width int) string {
	var b strings.Builder
	b.WriteString(v.styles.Subtle.Render(fmt.Sprintf("%*d", width, number)))
	b.WriteString(" ")
	b.WriteString(v.styles.Divider.Render("│"))
	b.WriteString(" ")
	b.WriteString(v.styles.Subtle.Render(entry.Time.Format("15:04:05")))
	b.WriteString(" ")
	b.WriteString(v.levelStyle(entry.Level).Render(entry.Level.Icon()))
	b.WriteString(" ")
	if entry.Source != "" {
		b.WriteString(v.styles.Accent.Render("[" + entry.Source + "]"))
		b.WriteString(" ")
	}
	message := v.styles.ListItem
	if entry.Level == logbuf.LogError {
		message = message.Foreground(v.styles.theme.Error)
	}
	b.WriteString(message.Render(entry.Message))
	return b.String()
}

func (v *LogsView) levelStyle(level logbuf.LogLevel) lipgloss.Style {
	switch level {
	case logbuf.LogInfo:
		return v.styles.Info
	case logbuf.LogWarn:
		return v.styles.Warning
	case logbuf.LogError:
		return v.styles.Error
	default:
		return v.styles.Subtle
	}
}

func (v *LogsView) Name() string {
	return "Logs"
}

func (v *LogsView) Hints() []KeyHint {
	return []KeyHint{{"j/k", "scroll"}, {"g/G", "oldest/newest"}, {"c", "clear"}}
}
