package interactive

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/compository/app/compository"
	"github.com/compository/app/installer"
	"github.com/compository/app/router"
	"github.com/compository/app/session"
)

// stamp marks a response with the path it was requested for.
// The app drops stamped messages once it has navigated elsewhere.
type stamp struct {
	path string
}

func (it stamp) Path() string {
	return it.path
}

type stamped interface {
	Path() string
}

type bootstrapMsg struct {
	session *session.Session
	err     error
}

type navigateMsg struct {
	path string
}

func navigate(path string) tea.Cmd {
	return func() tea.Msg {
		return navigateMsg{path: path}
	}
}

type routeMsg struct {
	stamp
	route router.Route
	err   error
}

// openInstallMsg hands a freshly generated DNA file to the install dialog.
type openInstallMsg struct {
	dnaFile *compository.DnaFile
	origin  string
}

func openInstall(dnaFile *compository.DnaFile, origin string) tea.Cmd {
	return func() tea.Msg {
		return openInstallMsg{dnaFile: dnaFile, origin: origin}
	}
}

type closeInstallMsg struct{}

type installedMsg struct {
	installed *installer.Installed
	err       error
}

type savedMsg struct {
	name string
	path string
	err  error
}
