package interactive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/compository/app/compository"
	"github.com/compository/app/profiles"
	"github.com/compository/app/router"
	"github.com/compository/app/session"
)

type templateLoadedMsg struct {
	stamp
	template *compository.TemplateForDna
	err      error
}

type profileLoadedMsg struct {
	stamp
	profile *profiles.AgentProfile
	err     error
}

// InstanceView displays one installed DNA. When the DNA carries the profiles
// zome, the agent creates a profile before seeing the board.
type InstanceView struct {
	at       stamp
	ctx      context.Context
	styles   *Styles
	route    router.Route
	service  *compository.Service
	profiles *profiles.Service
	width    int
	height   int

	template    *compository.TemplateForDna
	templateErr error
	loading     bool

	needsProfile bool
	profile      *profiles.AgentProfile
	profileErr   error
	checking     bool
	creating     bool
	nickname     textinput.Model
}

func NewInstanceView(ctx context.Context, styles *Styles, at stamp, opened *session.Session, route router.Route) *InstanceView {
	nickname := textinput.New()
	nickname.Placeholder = "nickname"
	nickname.CharLimit = 32
	nickname.Width = 32
	nickname.Prompt = "› "
	return &InstanceView{
		at:       at,
		ctx:      ctx,
		styles:   styles,
		route:    route,
		service:  opened.Compository,
		profiles: profiles.NewService(opened.App, route.Cell),
		width:    120,
		height:   30,
		loading:  true,
		nickname: nickname,
	}
}

func (v *InstanceView) Init() tea.Cmd {
	ctx, at, service, dna := v.ctx, v.at, v.service, v.route.DnaHash
	return func() tea.Msg {
		template, err := service.GetTemplateForDna(ctx, dna)
		if err != nil {
			return templateLoadedMsg{stamp: at, err: err}
		}
		return templateLoadedMsg{stamp: at, template: &template}
	}
}

func (v *InstanceView) checkProfile() tea.Cmd {
	ctx, at, service := v.ctx, v.at, v.profiles
	return func() tea.Msg {
		profile, err := service.GetMyProfile(ctx)
		return profileLoadedMsg{stamp: at, profile: profile, err: err}
	}
}

func (v *InstanceView) createProfile() tea.Cmd {
	ctx, at, service, nickname := v.ctx, v.at, v.profiles, v.nickname.Value()
	return func() tea.Msg {
		profile, err := service.CreateProfile(ctx, nickname)
		return profileLoadedMsg{stamp: at, profile: profile, err: err}
	}
}

// Capturing is true while the profile form is shown.
func (v *InstanceView) Capturing() bool {
	return v.showForm()
}

func (v *InstanceView) showForm() bool {
	return v.needsProfile && !v.checking && v.profile == nil
}

func (v *InstanceView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height

	case templateLoadedMsg:
		v.loading = false
		v.template, v.templateErr = msg.template, msg.err
		if msg.template != nil && msg.template.DnaTemplate.HasZome(profiles.ZomeName) {
			v.needsProfile = true
			v.checking = true
			return v, v.checkProfile()
		}

	case profileLoadedMsg:
		v.checking = false
		v.creating = false
		v.profileErr = msg.err
		if msg.err == nil {
			v.profile = msg.profile
		}
		if v.showForm() {
			return v, v.nickname.Focus()
		}
		v.nickname.Blur()

	case tea.KeyMsg:
		if v.showForm() {
			return v, v.formKey(msg)
		}
		if key.Matches(msg, keys.Back) || key.Matches(msg, keys.Select) {
			return v, navigate(router.HomePath)
		}
	}
	return v, nil
}

func (v *InstanceView) formKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		return navigate(router.HomePath)
	case tea.KeyEnter:
		if v.creating {
			return nil
		}
		v.creating = true
		return v.createProfile()
	}
	var cmd tea.Cmd
	v.nickname, cmd = v.nickname.Update(msg)
	return cmd
}

func (v *InstanceView) View() string {
	var b strings.Builder
	b.WriteString("\n")
	name := "DNA"
	if v.template != nil {
		name = v.template.DnaTemplate.Name
	}
	b.WriteString(v.styles.PanelTitle.Render("  " + name))
	b.WriteString("  ")
	b.WriteString(v.styles.Subtle.Render(v.route.DnaHash))
	b.WriteString("\n")
	b.WriteString(v.styles.Subtle.Render("  agent " + v.route.Cell.AgentPubKey.String()))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Subtle.Render("  Loading ..."))
		return b.String()
	case v.templateErr != nil:
		b.WriteString(v.styles.Warning.Render("  The compository does not know which template this DNA came from."))
		b.WriteString("\n")
		return b.String()
	case v.checking:
		b.WriteString(v.styles.Subtle.Render("  Looking up your profile ..."))
		return b.String()
	case v.showForm():
		b.WriteString(v.viewForm())
		return b.String()
	}

	if v.profile != nil {
		b.WriteString(v.styles.Success.Render("  Signed in as " + v.profile.Profile.Nickname))
		b.WriteString("\n\n")
	}
	b.WriteString(v.styles.PanelTitle.Render("  Zomes"))
	b.WriteString("\n")
	for _, zome := range v.template.DnaTemplate.ZomeDefs {
		b.WriteString(v.styles.ListItem.Render(fmt.Sprintf("%-24s %s", zome.Name, v.styles.ListItemDesc.Render(zome.ZomeDefHash.Short()))))
		b.WriteString("\n")
	}
	if len(v.template.Uid) > 0 {
		b.WriteString("\n")
		b.WriteString(v.styles.Subtle.Render("  uid " + v.template.Uid))
	}
	return b.String()
}

func (v *InstanceView) viewForm() string {
	var b strings.Builder
	b.WriteString(v.styles.Info.Render("  Create your profile for this DNA"))
	b.WriteString("\n\n  ")
	b.WriteString(v.nickname.View())
	b.WriteString("\n\n")
	switch {
	case v.creating:
		b.WriteString(v.styles.Subtle.Render("  Creating profile ..."))
	case errors.Is(v.profileErr, profiles.ErrNicknameTooShort):
		b.WriteString(v.styles.Error.Render("  Nickname must have at least 3 characters."))
	case v.profileErr != nil:
		b.WriteString(v.styles.Error.Render("  " + v.profileErr.Error()))
	}
	return b.String()
}

func (v *InstanceView) Name() string {
	return "DNA"
}

func (v *InstanceView) Hints() []KeyHint {
	if v.showForm() {
		return []KeyHint{{"enter", "Create profile"}, {"esc", "Back"}}
	}
	return []KeyHint{{"esc", "Back"}}
}
