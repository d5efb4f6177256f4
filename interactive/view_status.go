package interactive

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/compository/app/router"
	"github.com/compository/app/session"
	"github.com/compository/app/settings"
)

// NoRuntimeView tells the user how to get a conductor with the compository DNA running.
type NoRuntimeView struct {
	styles *Styles
	config *settings.Settings
	cause  error
}

func NewNoRuntimeView(styles *Styles, config *settings.Settings, cause error) *NoRuntimeView {
	return &NoRuntimeView{styles: styles, config: config, cause: cause}
}

func (v *NoRuntimeView) Init() tea.Cmd {
	return nil
}

func (v *NoRuntimeView) Update(msg tea.Msg) (View, tea.Cmd) {
	return v, nil
}

func (v *NoRuntimeView) View() string {
	var b strings.Builder
	b.WriteString("\n")
	if errors.Is(v.cause, session.ErrCompositoryNotInstalled) {
		b.WriteString(v.styles.Warning.Render("  The Holochain runtime is running, but the compository DNA is not installed."))
		b.WriteString("\n\n")
		b.WriteString(v.styles.ListItem.Render("Install the compository DNA with hash"))
		b.WriteString("\n")
		b.WriteString(v.styles.ListItem.Render("  " + v.styles.Accent.Render(v.config.CompositoryDnaHash)))
		b.WriteString("\n")
		b.WriteString(v.styles.ListItem.Render("into the conductor, then restart this console."))
	} else {
		b.WriteString(v.styles.Error.Render("  No Holochain runtime found."))
		b.WriteString("\n\n")
		b.WriteString(v.styles.ListItem.Render("Start a conductor exposing"))
		b.WriteString("\n")
		b.WriteString(v.styles.ListItem.Render("  admin interface " + v.styles.Accent.Render(v.config.AdminURL)))
		b.WriteString("\n")
		b.WriteString(v.styles.ListItem.Render("  app interface   " + v.styles.Accent.Render(v.config.AppURL)))
		b.WriteString("\n")
		b.WriteString(v.styles.ListItem.Render("with the compository DNA " + v.config.CompositoryDnaHash + " installed, then restart this console."))
	}
	b.WriteString("\n\n")
	if v.cause != nil {
		b.WriteString(v.styles.Subtle.Render("  " + v.cause.Error()))
		b.WriteString("\n")
	}
	b.WriteString(v.styles.Subtle.Render("  Endpoints come from " + v.config.Source + "; see `compository config show`."))
	return b.String()
}

func (v *NoRuntimeView) Name() string {
	return "No runtime"
}

func (v *NoRuntimeView) Hints() []KeyHint {
	return nil
}

// NotFoundView is shown when no installed cell runs the DNA named by the path.
type NotFoundView struct {
	styles *Styles
	route  router.Route
}

func NewNotFoundView(styles *Styles, route router.Route) *NotFoundView {
	return &NotFoundView{styles: styles, route: route}
}

func (v *NotFoundView) Init() tea.Cmd {
	return nil
}

func (v *NotFoundView) Update(msg tea.Msg) (View, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, keys.Back) || key.Matches(msg, keys.Select) {
			return v, navigate(router.HomePath)
		}
	}
	return v, nil
}

func (v *NotFoundView) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(v.styles.Warning.Render("  DNA not found"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.ListItem.Render("No installed cell runs " + v.route.DnaHash + "."))
	b.WriteString("\n")
	b.WriteString(v.styles.ListItem.Render("It may have been uninstalled, or the link points at another agent's DNA."))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Subtle.Render("  Press enter to go back home."))
	return b.String()
}

func (v *NotFoundView) Name() string {
	return "Not found"
}

func (v *NotFoundView) Hints() []KeyHint {
	return []KeyHint{{"enter", "Home"}}
}
