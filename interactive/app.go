package interactive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/compository/app/common"
	"github.com/compository/app/installer"
	"github.com/compository/app/logbuf"
	"github.com/compository/app/router"
	"github.com/compository/app/session"
	"github.com/compository/app/settings"
	"github.com/compository/app/workflow"
)

// View is one screen of the console.
type View interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (View, tea.Cmd)
	View() string
	Name() string
	Hints() []KeyHint
}

// capturer is implemented by views that take free text input while focused.
type capturer interface {
	Capturing() bool
}

type KeyHint struct {
	Key  string
	Desc string
}

type overlay int

const (
	overlayNone overlay = iota
	overlayLogs
	overlayHistory
)

// App routes between views. It owns the session once bootstrapped and
// hands it to every view it creates.
type App struct {
	ctx    context.Context
	config *settings.Settings
	dialer session.Dialer

	styles    *Styles
	spinner   spinner.Model
	width     int
	height    int
	startTime time.Time
	quitting  bool
	showHelp  bool

	state   router.State
	path    string
	failure error

	session    *session.Session
	router     *router.Router
	dialog     *installer.Dialog
	composer   *workflow.Composer
	discoverer *workflow.Discoverer

	history *History
	logs    *logbuf.LogBuffer

	panel   View
	overlay overlay
	logView *LogsView
	hisView *HistoryView
	install *InstallOverlay
	toasts  toastShelf
}

func NewApp(ctx context.Context, config *settings.Settings, dialer session.Dialer, initialPath string, logs *logbuf.LogBuffer, history *History) *App {
	styles := NewStyles()

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = styles.Spinner

	return &App{
		ctx:       ctx,
		config:    config,
		dialer:    dialer,
		styles:    styles,
		spinner:   spin,
		width:     120,
		height:    32,
		startTime: time.Now(),
		state:     router.Loading,
		path:      router.Clean(initialPath),
		history:   history,
		logs:      logs,
		logView:   NewLogsView(styles, logs),
		hisView:   NewHistoryView(styles, history),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.bootstrap())
}

func (a *App) bootstrap() tea.Cmd {
	ctx, config, dialer := a.ctx, a.config, a.dialer
	return func() tea.Msg {
		opened, err := session.Bootstrap(ctx, config, dialer)
		return bootstrapMsg{session: opened, err: err}
	}
}

func (a *App) resolve(path string) tea.Cmd {
	ctx, paths := a.ctx, a.router
	return func() tea.Msg {
		route, err := paths.Resolve(ctx, path)
		return routeMsg{stamp: stamp{path: path}, route: route, err: err}
	}
}

// Close releases the session, if one was opened.
func (a *App) Close() error {
	if a.session == nil {
		return nil
	}
	return a.session.Close()
}

func (a *App) attach(opened *session.Session) {
	a.session = opened
	a.router = router.New(opened.Admin, a.config.LookupAttempts, a.config.LookupDelay)
	a.dialog = installer.NewDialog(opened.Admin, a.config.DownloadDir)
	a.composer = workflow.NewComposer(opened.Compository)
	a.discoverer = workflow.NewDiscoverer(opened.Admin, opened.Compository)
}

func (a *App) navigate(path string) tea.Cmd {
	path = router.Clean(path)
	common.Debug("navigate %s -> %s", a.path, path)
	a.path = path
	a.overlay = overlayNone
	if a.session == nil {
		return nil
	}
	a.state = router.Loading
	a.panel = nil
	return a.resolve(path)
}

func (a *App) enter(route router.Route) tea.Cmd {
	a.state = route.State
	at := stamp{path: route.Path}
	switch route.State {
	case router.ViewingInstance:
		a.panel = NewInstanceView(a.ctx, a.styles, at, a.session, route)
	case router.NotFound:
		a.panel = NewNotFoundView(a.styles, route)
	default:
		a.panel = NewHomeView(a.ctx, a.styles, at, a.session, a.composer, a.discoverer)
	}
	return a.sized(a.panel.Init())
}

// sized makes sure a freshly created view learns the window size.
func (a *App) sized(cmd tea.Cmd) tea.Cmd {
	if a.panel == nil {
		return cmd
	}
	a.panel, _ = a.panel.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	return cmd
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.logView.Update(msg)
		a.hisView.Update(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case bootstrapMsg:
		if msg.err != nil {
			common.Error("bootstrap", msg.err)
			a.failure = msg.err
			a.state = router.NoRuntime
			a.panel = NewNoRuntimeView(a.styles, a.config, msg.err)
			return a, nil
		}
		a.attach(msg.session)
		common.Log("Connected to %s, compository cell %s.", a.config.AdminURL, msg.session.CompositoryCell.DnaKey())
		return a, a.navigate(a.path)

	case navigateMsg:
		return a, a.navigate(msg.path)

	case routeMsg:
		if msg.Path() != a.path {
			common.Trace("dropping stale route for %s, now at %s", msg.Path(), a.path)
			return a, nil
		}
		if msg.err != nil {
			return a, ShowErrorToast(fmt.Sprintf("Could not open %s: %v", msg.Path(), msg.err))
		}
		return a, a.enter(msg.route)

	case openInstallMsg:
		a.history.Add(HistoryEntry{Kind: EventGenerated, Name: msg.dnaFile.Dna.Name, DnaHash: hashOf(msg.dnaFile), Detail: msg.origin})
		if a.install != nil && a.install.busy() {
			common.Log("Generated %q while another DNA is being handled; it is not offered.", msg.dnaFile.Dna.Name)
			return a, ShowInfoToast(fmt.Sprintf("Generated %s, finish the open dialog first", msg.dnaFile.Dna.Name))
		}
		if err := a.dialog.Offer(msg.dnaFile); err != nil {
			return a, ShowErrorToast(err.Error())
		}
		a.install = NewInstallOverlay(a.ctx, a.styles, a.dialog, msg.dnaFile)
		return a, nil

	case closeInstallMsg:
		if a.dialog != nil {
			a.dialog.Close()
		}
		a.install = nil
		return a, nil

	case installedMsg:
		if a.install != nil {
			a.install, _ = a.install.Update(msg)
		}
		if msg.err != nil {
			common.Error("install", msg.err)
			return a, ShowErrorToast(fmt.Sprintf("Installation failed: %v", msg.err))
		}
		a.dialog.Close()
		a.install = nil
		installed := msg.installed
		a.history.Add(HistoryEntry{Kind: EventInstalled, Name: installed.Name, DnaHash: installed.Cell.DnaKey(), Detail: installed.AppId})
		return a, tea.Batch(
			ShowSuccessToast(fmt.Sprintf("Installed %s", installed.Name)),
			navigate(router.DnaPath(installed.Cell.DnaKey())),
		)

	case savedMsg:
		if a.install != nil {
			a.install, _ = a.install.Update(msg)
		}
		if msg.err != nil {
			return a, ShowErrorToast(fmt.Sprintf("Could not save the DNA file: %v", msg.err))
		}
		a.history.Add(HistoryEntry{Kind: EventSaved, Name: msg.name, Detail: msg.path})
		return a, ShowInfoToast(fmt.Sprintf("Saved %s", msg.path))

	case historyLoadedMsg:
		a.hisView.Update(msg)
		return a, nil

	case ToastMsg:
		return a, a.toasts.push(msg)

	case ToastTimeoutMsg:
		a.toasts.expire(msg.ID)
		return a, nil
	}

	if tagged, ok := msg.(stamped); ok && tagged.Path() != a.path {
		common.Trace("dropping stale %T for %s, now at %s", msg, tagged.Path(), a.path)
		return a, nil
	}

	if a.panel != nil {
		var cmd tea.Cmd
		a.panel, cmd = a.panel.Update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a *App) capturing() bool {
	if a.overlay != overlayNone || a.panel == nil {
		return false
	}
	if view, ok := a.panel.(capturer); ok {
		return view.Capturing()
	}
	return false
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, keys.ForceQuit) {
		a.quitting = true
		return tea.Quit
	}
	if a.install != nil {
		var cmd tea.Cmd
		a.install, cmd = a.install.Update(msg)
		return cmd
	}
	if !a.capturing() {
		switch {
		case key.Matches(msg, keys.Quit):
			a.quitting = true
			return tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			return nil
		case key.Matches(msg, keys.ViewMain):
			a.overlay = overlayNone
			return nil
		case key.Matches(msg, keys.ViewLogs):
			a.overlay = overlayLogs
			return nil
		case key.Matches(msg, keys.ViewHistory):
			a.overlay = overlayHistory
			return a.hisView.Init()
		}
	}
	if a.showHelp {
		a.showHelp = false
		return nil
	}
	switch a.overlay {
	case overlayLogs:
		a.logView.Update(msg)
		return nil
	case overlayHistory:
		var cmd tea.Cmd
		_, cmd = a.hisView.Update(msg)
		return cmd
	}
	if a.panel == nil {
		return nil
	}
	var cmd tea.Cmd
	a.panel, cmd = a.panel.Update(msg)
	return cmd
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}

	header := a.renderHeader()
	menu := a.renderMenu()
	toasts := a.toasts.render(a.styles)
	contentHeight := a.height - lipgloss.Height(header) - lipgloss.Height(menu)
	for _, toast := range toasts {
		contentHeight -= lipgloss.Height(toast)
	}
	if contentHeight < 3 {
		contentHeight = 3
	}

	var content string
	switch {
	case a.showHelp:
		content = a.renderHelp()
	case a.install != nil:
		content = lipgloss.Place(a.width, contentHeight, lipgloss.Center, lipgloss.Center, a.install.View())
	default:
		content = a.renderContent()
	}
	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		PaddingLeft(1).
		PaddingRight(1).
		Render(content)

	sections := []string{header, content}
	sections = append(sections, toasts...)
	sections = append(sections, menu)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) activeView() View {
	switch a.overlay {
	case overlayLogs:
		return a.logView
	case overlayHistory:
		return a.hisView
	}
	return a.panel
}

func (a *App) renderContent() string {
	if view := a.activeView(); view != nil {
		return view.View()
	}
	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(a.spinner.View())
	if a.session == nil {
		b.WriteString(a.styles.Subtle.Render(fmt.Sprintf(" Connecting to the Holochain runtime at %s ...", a.config.AdminURL)))
	} else {
		b.WriteString(a.styles.Subtle.Render(fmt.Sprintf(" Opening %s ...", a.path)))
	}
	return b.String()
}

func (a *App) renderHeader() string {
	logo := lipgloss.JoinHorizontal(lipgloss.Center,
		a.spinner.View(),
		a.styles.LogoText.Render(" "+common.COMPOSITORY_NAME+" "),
		a.styles.LogoSubtle.Render("holochain dna composer"),
	)
	elapsed := time.Since(a.startTime).Round(time.Second)
	status := a.styles.StatusKey.Render("ver:") + a.styles.StatusValue.Render(common.Version) +
		a.styles.StatusKey.Render(" up:") + a.styles.StatusValue.Render(elapsed.String()) + " "
	gap := a.width - lipgloss.Width(logo) - lipgloss.Width(status)
	if gap < 1 {
		gap = 1
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top, logo, strings.Repeat(" ", gap), status)

	crumbs := a.styles.CrumbInactive.Render(" <"+strings.ToLower(common.COMPOSITORY_NAME)+"> ") +
		a.styles.CrumbActive.Render(" <"+a.crumb()+"> ")
	divider := a.styles.Divider.Render(strings.Repeat("─", a.width))
	return lipgloss.JoinVertical(lipgloss.Left, top, crumbs, divider)
}

func (a *App) crumb() string {
	if view := a.activeView(); view != nil && a.overlay != overlayNone {
		return strings.ToLower(view.Name())
	}
	switch a.state {
	case router.Loading, router.NoRuntime:
		return a.state.String()
	}
	return a.path
}

func (a *App) renderMenu() string {
	divider := a.styles.Divider.Render(strings.Repeat("─", a.width))
	var parts []string
	if a.install != nil {
		for _, hint := range a.install.Hints() {
			parts = append(parts, a.formatHint(hint))
		}
	} else if view := a.activeView(); view != nil {
		for _, hint := range view.Hints() {
			parts = append(parts, a.formatHint(hint))
		}
	}
	parts = append(parts, a.styles.MenuSeparator.Render(" │ "))
	for _, hint := range []KeyHint{{"1", "Main"}, {"2", "Logs"}, {"3", "History"}, {"?", "Help"}, {"q", "Quit"}} {
		parts = append(parts, a.formatHint(hint))
	}
	return lipgloss.JoinVertical(lipgloss.Left, divider, lipgloss.JoinHorizontal(lipgloss.Left, parts...))
}

func (a *App) formatHint(hint KeyHint) string {
	return a.styles.MenuKey.Render("<"+hint.Key+">") + a.styles.MenuDesc.Render(hint.Desc) + " "
}

func (a *App) renderHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.PanelTitle.Render("  Help"))
	b.WriteString("\n\n")
	sections := []struct {
		title string
		hints []KeyHint
	}{
		{"Views", []KeyHint{{"1", "Installed DNAs, composition and discovery"}, {"2", "Activity logs"}, {"3", "History"}}},
		{"Movement", []KeyHint{{"j/k", "Move down / up"}, {"tab", "Next section"}, {"enter", "Open / confirm"}, {"esc", "Back"}}},
		{"Composition", []KeyHint{{"space", "Toggle zome"}, {"enter", "Generate the DNA"}, {"i", "Install generated DNA"}, {"s", "Save generated DNA"}}},
		{"Global", []KeyHint{{"?", "Toggle this help"}, {"q", "Quit"}, {"ctrl+c", "Force quit"}}},
	}
	for _, section := range sections {
		b.WriteString(a.styles.PanelTitle.Render("    " + section.title))
		b.WriteString("\n")
		for _, hint := range section.hints {
			b.WriteString("      " + a.styles.HelpKey.Render("<"+hint.Key+">") + " " + a.styles.HelpDesc.Render(hint.Desc) + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Run starts the console and blocks until the user quits.
func Run(ctx context.Context, config *settings.Settings, initialPath string, history *History) error {
	logs := logbuf.NewLogBuffer(500)
	common.SetLogInterceptor(func(message string) bool {
		logs.AddLine(message)
		return false
	})
	defer common.ClearLogInterceptor()

	if _, err := common.EnsureDirectory(common.Home.Home()); err != nil {
		return err
	}
	redirect, err := common.RedirectLogs(common.Home.LogFile())
	if err != nil {
		return err
	}
	defer redirect.Close()

	app := NewApp(ctx, config, session.WebsocketDialer(config), initialPath, logs, history)
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = program.Run()
	common.Uncritical("close session", app.Close())
	return err
}
