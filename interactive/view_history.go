package interactive

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/compository/app/router"
)

const historyWindow = 50

type historyLoadedMsg []HistoryEntry

// HistoryView lists generated, installed and saved DNAs, newest first.
type HistoryView struct {
	styles   *Styles
	history  *History
	width    int
	height   int
	entries  []HistoryEntry
	selected int
	loading  bool
}

func NewHistoryView(styles *Styles, history *History) *HistoryView {
	return &HistoryView{
		styles:  styles,
		history: history,
		width:   120,
		height:  30,
		entries: []HistoryEntry{},
		loading: true,
	}
}

func (v *HistoryView) Init() tea.Cmd {
	history := v.history
	return func() tea.Msg {
		return historyLoadedMsg(history.Latest(historyWindow))
	}
}

func (v *HistoryView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		v.entries = []HistoryEntry(msg)
		v.loading = false
		v.selected = clamp(v.selected, len(v.entries))
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Down):
			if v.selected < len(v.entries)-1 {
				v.selected++
			}
		case key.Matches(msg, keys.Up):
			if v.selected > 0 {
				v.selected--
			}
		case key.Matches(msg, keys.Top):
			v.selected = 0
		case key.Matches(msg, keys.Bottom):
			v.selected = max(len(v.entries)-1, 0)
		case key.Matches(msg, keys.Refresh):
			v.loading = true
			return v, v.Init()
		case key.Matches(msg, keys.Clear):
			v.history.Clear()
			v.entries = []HistoryEntry{}
			v.selected = 0
		case key.Matches(msg, keys.Select):
			if entry, ok := v.current(); ok && entry.Kind == EventInstalled && len(entry.DnaHash) > 0 {
				return v, navigate(router.DnaPath(entry.DnaHash))
			}
		}
	}
	return v, nil
}

func (v *HistoryView) current() (HistoryEntry, bool) {
	if v.selected < 0 || v.selected >= len(v.entries) {
		return HistoryEntry{}, false
	}
	return v.entries[v.selected], true
}

func (v *HistoryView) View() string {
	boxWidth := min(max(v.width-8, 60), 120)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(v.styles.theme.Border).
		Padding(1, 2).
		Width(boxWidth)

	var b strings.Builder
	b.WriteString(v.styles.PanelTitle.Render("History"))
	if !v.loading {
		b.WriteString(v.styles.Subtle.Render(fmt.Sprintf("  (%d events)", len(v.entries))))
	}
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Subtle.Render("Loading history ..."))
	case len(v.entries) == 0:
		b.WriteString(v.styles.Subtle.Render("Nothing generated or installed yet."))
	default:
		v.list(&b, boxWidth-6)
	}

	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, box.Render(b.String()))
}

func (v *HistoryView) list(b *strings.Builder, width int) {
	const visible = 12
	start := 0
	if v.selected >= visible {
		start = v.selected - visible + 1
	}
	for at := start; at < len(v.entries) && at < start+visible; at++ {
		entry := v.entries[at]
		chosen := at == v.selected
		if chosen {
			b.WriteString(v.styles.ListItemSelected.Render("> "))
		} else {
			b.WriteString("  ")
		}
		b.WriteString(v.kindStyle(entry.Kind).Render(fmt.Sprintf("%-9s", entry.Kind)))
		b.WriteString(" ")
		name := entry.Name
		if len(name) > 24 {
			name = name[:21] + "..."
		}
		if chosen {
			b.WriteString(v.styles.ListItemSelected.Render(fmt.Sprintf("%-24s", name)))
		} else {
			b.WriteString(fmt.Sprintf("%-24s", name))
		}
		b.WriteString("  ")
		b.WriteString(v.styles.Subtle.Render(entry.Time.Format("Jan 02 15:04")))
		b.WriteString("\n")
		if chosen {
			if len(entry.DnaHash) > 0 {
				b.WriteString(v.styles.Subtle.Render("    dna " + entry.DnaHash))
				b.WriteString("\n")
			}
			if len(entry.Detail) > 0 {
				detail := entry.Detail
				if len(detail) > width-8 && width > 11 {
					detail = "..." + detail[len(detail)-(width-11):]
				}
				b.WriteString(v.styles.Subtle.Render("    " + detail))
				b.WriteString("\n")
			}
		}
	}
	if remaining := len(v.entries) - start - visible; remaining > 0 {
		b.WriteString(v.styles.Subtle.Render(fmt.Sprintf("\n  ... +%d more", remaining)))
	}
}

func (v *HistoryView) kindStyle(kind EventKind) lipgloss.Style {
	switch kind {
	case EventInstalled:
		return v.styles.Success
	case EventSaved:
		return v.styles.Info
	default:
		return v.styles.Accent
	}
}

func (v *HistoryView) Name() string {
	return "History"
}

func (v *HistoryView) Hints() []KeyHint {
	return []KeyHint{{"j/k", "nav"}, {"enter", "open"}, {"c", "clear"}, {"R", "refresh"}}
}
