package interactive

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles every view renders with.
type Styles struct {
	theme Theme

	Subtle  lipgloss.Style
	Accent  lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	Divider lipgloss.Style

	LogoText   lipgloss.Style
	LogoSubtle lipgloss.Style

	CrumbActive   lipgloss.Style
	CrumbInactive lipgloss.Style

	StatusKey   lipgloss.Style
	StatusValue lipgloss.Style

	Tab       lipgloss.Style
	ActiveTab lipgloss.Style

	MenuKey       lipgloss.Style
	MenuDesc      lipgloss.Style
	MenuSeparator lipgloss.Style

	ListItem         lipgloss.Style
	ListItemSelected lipgloss.Style
	ListItemDesc     lipgloss.Style

	Panel      lipgloss.Style
	PanelTitle lipgloss.Style
	Dialog     lipgloss.Style

	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style

	Spinner lipgloss.Style

	ToastInfo    lipgloss.Style
	ToastSuccess lipgloss.Style
	ToastWarning lipgloss.Style
	ToastError   lipgloss.Style
}

func NewStyles() *Styles {
	return NewStylesWithTheme(DefaultTheme())
}

func NewStylesWithTheme(theme Theme) *Styles {
	toast := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).MaxWidth(70)
	return &Styles{
		theme: theme,

		Subtle:  lipgloss.NewStyle().Foreground(theme.TextMuted),
		Accent:  lipgloss.NewStyle().Bold(true).Foreground(theme.Secondary),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(theme.Error),
		Success: lipgloss.NewStyle().Foreground(theme.Success),
		Warning: lipgloss.NewStyle().Foreground(theme.Warning),
		Info:    lipgloss.NewStyle().Foreground(theme.Info),

		Divider: lipgloss.NewStyle().Foreground(theme.BorderDim),

		LogoText: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Surface).
			Background(theme.Primary),
		LogoSubtle: lipgloss.NewStyle().
			Foreground(theme.TextMuted).
			PaddingLeft(1),

		CrumbActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.TextBright).
			Background(theme.Secondary),
		CrumbInactive: lipgloss.NewStyle().
			Foreground(theme.TextMuted).
			Background(theme.Surface),

		StatusKey:   lipgloss.NewStyle().Foreground(theme.TextMuted),
		StatusValue: lipgloss.NewStyle().Foreground(theme.Accent),

		Tab: lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(theme.TextMuted),
		ActiveTab: lipgloss.NewStyle().
			Padding(0, 2).
			Bold(true).
			Foreground(theme.Primary).
			Background(theme.Highlight),

		MenuKey:       lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		MenuDesc:      lipgloss.NewStyle().Foreground(theme.Text),
		MenuSeparator: lipgloss.NewStyle().Foreground(theme.BorderDim),

		ListItem: lipgloss.NewStyle().
			PaddingLeft(2).
			Foreground(theme.Text),
		ListItemSelected: lipgloss.NewStyle().
			PaddingLeft(2).
			Bold(true).
			Foreground(theme.TextBright).
			Background(theme.Highlight),
		ListItemDesc: lipgloss.NewStyle().Foreground(theme.TextMuted),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		PanelTitle: lipgloss.NewStyle().Bold(true).Foreground(theme.Primary),
		Dialog: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(theme.Secondary).
			Padding(1, 3),

		HelpKey:  lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		HelpDesc: lipgloss.NewStyle().Foreground(theme.TextMuted),

		Spinner: lipgloss.NewStyle().Foreground(theme.Primary),

		ToastInfo:    toast.BorderForeground(theme.Info),
		ToastSuccess: toast.BorderForeground(theme.Success),
		ToastWarning: toast.BorderForeground(theme.Warning),
		ToastError:   toast.BorderForeground(theme.Error),
	}
}
