package interactive

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/compository/app/common"
	"github.com/compository/app/compository"
	"github.com/compository/app/router"
	"github.com/compository/app/session"
	"github.com/compository/app/workflow"
)

type homeSection int

const (
	sectionInstalled homeSection = iota
	sectionCompose
	sectionDiscover
	sectionCount
)

var sectionNames = []string{"Installed", "Compose", "Discover"}

type installedLoadedMsg struct {
	stamp
	entries []workflow.Entry
	err     error
}

type zomesLoadedMsg struct {
	stamp
	zomes []compository.Hashed[compository.ZomeDef]
	err   error
}

type discoveredMsg struct {
	stamp
	entries []workflow.Entry
	err     error
}

type generatedMsg struct {
	stamp
	dnaFile *compository.DnaFile
	origin  string
	err     error
}

// HomeView lists installed DNAs, composes new ones and discovers what others generated.
type HomeView struct {
	at         stamp
	ctx        context.Context
	styles     *Styles
	session    *session.Session
	composer   *workflow.Composer
	discoverer *workflow.Discoverer
	width      int
	height     int

	section homeSection

	installed        []workflow.Entry
	installedErr     error
	loadingInstalled bool
	installedCursor  int

	zomesErr     error
	loadingZomes bool
	name         textinput.Model
	zomeCursor   int // -1 is the name field
	generating   bool

	discovered     []workflow.Entry
	discoverErr    error
	discovering    bool
	discoverCursor int
}

func NewHomeView(ctx context.Context, styles *Styles, at stamp, opened *session.Session, composer *workflow.Composer, discoverer *workflow.Discoverer) *HomeView {
	name := textinput.New()
	name.Placeholder = "name of the new DNA"
	name.CharLimit = 64
	name.Width = 40
	name.Prompt = "› "
	return &HomeView{
		at:               at,
		ctx:              ctx,
		styles:           styles,
		session:          opened,
		composer:         composer,
		discoverer:       discoverer,
		width:            120,
		height:           30,
		name:             name,
		zomeCursor:       -1,
		loadingInstalled: true,
		loadingZomes:     true,
		discovering:      true,
	}
}

func (v *HomeView) Init() tea.Cmd {
	return tea.Batch(v.loadInstalled(), v.loadZomes(), v.discover())
}

func (v *HomeView) loadInstalled() tea.Cmd {
	ctx, at, discoverer := v.ctx, v.at, v.discoverer
	return func() tea.Msg {
		entries, err := discoverer.Installed(ctx)
		return installedLoadedMsg{stamp: at, entries: entries, err: err}
	}
}

func (v *HomeView) loadZomes() tea.Cmd {
	ctx, at, service := v.ctx, v.at, v.session.Compository
	return func() tea.Msg {
		zomes, err := service.GetAllZomeDefs(ctx)
		return zomesLoadedMsg{stamp: at, zomes: zomes, err: err}
	}
}

func (v *HomeView) discover() tea.Cmd {
	ctx, at, discoverer := v.ctx, v.at, v.discoverer
	return func() tea.Msg {
		entries, err := discoverer.Discover(ctx)
		return discoveredMsg{stamp: at, entries: entries, err: err}
	}
}

func (v *HomeView) generate() tea.Cmd {
	ctx, at, composer, name := v.ctx, v.at, v.composer, v.name.Value()
	return func() tea.Msg {
		dnaFile, err := composer.Compose(ctx, name)
		return generatedMsg{stamp: at, dnaFile: dnaFile, origin: "composed", err: err}
	}
}

func (v *HomeView) prepare(entry workflow.Entry) tea.Cmd {
	ctx, at, discoverer := v.ctx, v.at, v.discoverer
	return func() tea.Msg {
		dnaFile, err := discoverer.Prepare(ctx, entry)
		return generatedMsg{stamp: at, dnaFile: dnaFile, origin: "discovered " + entry.DnaHash, err: err}
	}
}

// Capturing is true while the name field of the composition form has focus.
func (v *HomeView) Capturing() bool {
	return v.section == sectionCompose && v.zomeCursor < 0
}

func (v *HomeView) focus(section homeSection) tea.Cmd {
	v.section = (section + sectionCount) % sectionCount
	if v.Capturing() {
		return v.name.Focus()
	}
	v.name.Blur()
	return nil
}

func (v *HomeView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height

	case installedLoadedMsg:
		v.loadingInstalled = false
		v.installed, v.installedErr = msg.entries, msg.err
		v.installedCursor = clamp(v.installedCursor, len(v.installed))

	case zomesLoadedMsg:
		v.loadingZomes = false
		v.zomesErr = msg.err
		if msg.err == nil {
			v.composer.SetZomes(msg.zomes)
		}

	case discoveredMsg:
		v.discovering = false
		v.discovered, v.discoverErr = msg.entries, msg.err
		v.discoverCursor = clamp(v.discoverCursor, len(v.discovered))

	case generatedMsg:
		if !v.generating {
			common.Trace("dropping a DNA generated before this view was opened")
			return v, nil
		}
		v.generating = false
		if msg.err != nil {
			message := msg.err.Error()
			if errors.Is(msg.err, workflow.ErrNameRequired) {
				message = "Give the new DNA a name first."
			}
			return v, ShowErrorToast(message)
		}
		return v, openInstall(msg.dnaFile, msg.origin)

	case tea.KeyMsg:
		return v, v.handleKey(msg)
	}
	return v, nil
}

func (v *HomeView) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Tab):
		return v.focus(v.section + 1)
	case key.Matches(msg, keys.BackTab):
		return v.focus(v.section - 1)
	}
	switch v.section {
	case sectionInstalled:
		return v.installedKey(msg)
	case sectionCompose:
		return v.composeKey(msg)
	case sectionDiscover:
		return v.discoverKey(msg)
	}
	return nil
}

func (v *HomeView) installedKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Up):
		v.installedCursor = clamp(v.installedCursor-1, len(v.installed))
	case key.Matches(msg, keys.Down):
		v.installedCursor = clamp(v.installedCursor+1, len(v.installed))
	case key.Matches(msg, keys.Refresh):
		v.loadingInstalled = true
		return v.loadInstalled()
	case key.Matches(msg, keys.Select):
		if v.installedCursor < len(v.installed) {
			return navigate(router.DnaPath(v.installed[v.installedCursor].DnaHash))
		}
	}
	return nil
}

func (v *HomeView) composeKey(msg tea.KeyMsg) tea.Cmd {
	zomes := len(v.composer.Zomes())
	switch {
	case msg.Type == tea.KeyUp:
		if v.zomeCursor >= 0 {
			v.zomeCursor--
		}
		if v.zomeCursor < 0 {
			return v.name.Focus()
		}
		return nil
	case msg.Type == tea.KeyDown:
		if v.zomeCursor < zomes-1 {
			v.zomeCursor++
			v.name.Blur()
		}
		return nil
	case key.Matches(msg, keys.Select):
		if v.generating || !workflow.CanSubmit(v.name.Value()) {
			return nil
		}
		v.generating = true
		return v.generate()
	}
	if v.zomeCursor < 0 {
		var cmd tea.Cmd
		v.name, cmd = v.name.Update(msg)
		return cmd
	}
	switch {
	case key.Matches(msg, keys.Toggle):
		if !v.generating {
			v.composer.Toggle(v.zomeCursor)
		}
	case key.Matches(msg, keys.Up):
		v.zomeCursor--
		if v.zomeCursor < 0 {
			return v.name.Focus()
		}
	case key.Matches(msg, keys.Down):
		v.zomeCursor = clamp(v.zomeCursor+1, zomes)
	case key.Matches(msg, keys.Back):
		v.zomeCursor = -1
		return v.name.Focus()
	case key.Matches(msg, keys.Refresh):
		if v.generating {
			return nil
		}
		v.loadingZomes = true
		return v.loadZomes()
	}
	return nil
}

func (v *HomeView) discoverKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Up):
		v.discoverCursor = clamp(v.discoverCursor-1, len(v.discovered))
	case key.Matches(msg, keys.Down):
		v.discoverCursor = clamp(v.discoverCursor+1, len(v.discovered))
	case key.Matches(msg, keys.Refresh):
		v.discovering = true
		return v.discover()
	case key.Matches(msg, keys.Select):
		if v.generating || v.discoverCursor >= len(v.discovered) {
			return nil
		}
		v.generating = true
		return v.prepare(v.discovered[v.discoverCursor])
	}
	return nil
}

func clamp(index, length int) int {
	if index >= length {
		index = length - 1
	}
	if index < 0 {
		index = 0
	}
	return index
}

func (v *HomeView) View() string {
	var b strings.Builder
	b.WriteString("\n")
	for index, name := range sectionNames {
		style := v.styles.Tab
		if homeSection(index) == v.section {
			style = v.styles.ActiveTab
		}
		b.WriteString(style.Render(name))
	}
	b.WriteString("\n\n")

	switch v.section {
	case sectionInstalled:
		b.WriteString(v.viewInstalled())
	case sectionCompose:
		b.WriteString(v.viewCompose())
	case sectionDiscover:
		b.WriteString(v.viewDiscover())
	}
	return b.String()
}

func (v *HomeView) viewEntries(entries []workflow.Entry, cursor int, loading bool, err error, empty string) string {
	var b strings.Builder
	switch {
	case loading && len(entries) == 0:
		b.WriteString(v.styles.Subtle.Render("  Loading ..."))
	case err != nil:
		b.WriteString(v.styles.Error.Render("  " + err.Error()))
	case len(entries) == 0:
		b.WriteString(v.styles.Subtle.Render("  " + empty))
	}
	for index, entry := range entries {
		line := fmt.Sprintf("%-28s %s", entry.TemplateName, v.styles.ListItemDesc.Render(entry.DnaHash))
		if index == cursor {
			b.WriteString(v.styles.ListItemSelected.Render("▸ " + line))
		} else {
			b.WriteString(v.styles.ListItem.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (v *HomeView) viewInstalled() string {
	return v.styles.PanelTitle.Render("  Installed DNAs") + "\n\n" +
		v.viewEntries(v.installed, v.installedCursor, v.loadingInstalled, v.installedErr, "Nothing installed yet. Compose a DNA or discover one.")
}

func (v *HomeView) viewDiscover() string {
	var b strings.Builder
	b.WriteString(v.styles.PanelTitle.Render("  DNAs generated by other agents"))
	b.WriteString("\n\n")
	b.WriteString(v.viewEntries(v.discovered, v.discoverCursor, v.discovering, v.discoverErr, "Nothing new to discover."))
	if v.generating {
		b.WriteString("\n")
		b.WriteString(v.styles.Info.Render("  Generating the DNA ..."))
	}
	return b.String()
}

func (v *HomeView) viewCompose() string {
	var b strings.Builder
	b.WriteString(v.styles.PanelTitle.Render("  Compose a new DNA"))
	b.WriteString("\n\n  ")
	b.WriteString(v.name.View())
	b.WriteString("\n\n")

	zomes := v.composer.Zomes()
	switch {
	case v.loadingZomes && len(zomes) == 0:
		b.WriteString(v.styles.Subtle.Render("  Loading zomes ..."))
	case v.zomesErr != nil:
		b.WriteString(v.styles.Error.Render("  " + v.zomesErr.Error()))
	case len(zomes) == 0:
		b.WriteString(v.styles.Subtle.Render("  No zomes published yet."))
	}
	for index, zome := range zomes {
		mark := "[ ]"
		if v.composer.IsSelected(index) {
			mark = "[x]"
		}
		if v.composer.IsLocked(index) {
			mark = "[#]"
		}
		line := fmt.Sprintf("%s %-24s %s", mark, zome.Content.Name, v.styles.ListItemDesc.Render(zome.Hash.Short()))
		if index == v.zomeCursor {
			b.WriteString(v.styles.ListItemSelected.Render(line))
		} else {
			b.WriteString(v.styles.ListItem.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	switch {
	case v.generating:
		b.WriteString(v.styles.Info.Render("  Generating the DNA ..."))
	case workflow.CanSubmit(v.name.Value()):
		b.WriteString(v.styles.Success.Render("  enter: generate the DNA"))
	default:
		b.WriteString(v.styles.Subtle.Render("  Name the DNA to generate it."))
	}
	return b.String()
}

func (v *HomeView) Name() string {
	return "Home"
}

func (v *HomeView) Hints() []KeyHint {
	hints := []KeyHint{{"tab", "Section"}}
	switch v.section {
	case sectionInstalled:
		hints = append(hints, KeyHint{"j/k", "Nav"}, KeyHint{"enter", "Open"}, KeyHint{"R", "Refresh"})
	case sectionCompose:
		hints = append(hints, KeyHint{"↑/↓", "Nav"}, KeyHint{"space", "Toggle"}, KeyHint{"enter", "Generate"})
	case sectionDiscover:
		hints = append(hints, KeyHint{"j/k", "Nav"}, KeyHint{"enter", "Install"}, KeyHint{"R", "Refresh"})
	}
	return hints
}
