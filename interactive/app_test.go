package interactive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compository/app/compository"
	"github.com/compository/app/holo"
	"github.com/compository/app/logbuf"
	"github.com/compository/app/router"
	"github.com/compository/app/session/sessiontest"
	"github.com/compository/app/settings"
)

// drive runs cmd and every command it leads to, feeding the messages back into
// the app. Timers never fire within the wait, so blinking cursors, spinners and
// toast timeouts drop out.
func drive(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 500, "update loop does not settle")
		next := queue[0]
		queue = queue[1:]
		msg, ok := execute(next)
		if !ok {
			continue
		}
		switch msg := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case spinner.TickMsg, ToastTimeoutMsg:
			continue
		}
		_, follow := app.Update(msg)
		queue = append(queue, follow)
	}
}

func execute(cmd tea.Cmd) (tea.Msg, bool) {
	if cmd == nil {
		return nil, false
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg, msg != nil
	case <-time.After(250 * time.Millisecond):
		return nil, false
	}
}

func press(t *testing.T, app *App, msg tea.KeyMsg) {
	t.Helper()
	_, cmd := app.Update(msg)
	drive(t, app, cmd)
}

func runes(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}
}

func start(t *testing.T, runtime *sessiontest.Runtime, path string) *App {
	t.Helper()
	config := settings.Defaults()
	config.LookupDelay = 0
	config.DownloadDir = t.TempDir()
	history, err := LoadHistory(filepath.Join(t.TempDir(), "history.yaml"))
	require.NoError(t, err)

	app := NewApp(context.Background(), config, runtime, path, logbuf.NewLogBuffer(100), history)
	drive(t, app, app.Init())
	t.Cleanup(func() { app.Close() })
	return app
}

func TestUnreachableRuntimeShowsNoRuntime(t *testing.T) {
	runtime := sessiontest.New()
	runtime.Unreachable = true

	app := start(t, runtime, "/")

	assert.Equal(t, router.NoRuntime, app.state)
	assert.IsType(t, &NoRuntimeView{}, app.panel)
	assert.Contains(t, app.panel.View(), "No Holochain runtime found")
	assert.Contains(t, app.panel.View(), settings.DefaultAdminURL)
}

func TestMissingCompositoryShowsInstallHint(t *testing.T) {
	app := start(t, sessiontest.Empty(), "/")

	assert.Equal(t, router.NoRuntime, app.state)
	assert.Contains(t, app.panel.View(), "compository DNA is not installed")
}

func TestUnknownDnaShowsNotFoundAndNeverHome(t *testing.T) {
	runtime := sessiontest.New()
	unknown := holo.Compute(holo.KindDna, []byte("nobody runs this")).String()

	app := start(t, runtime, router.DnaPath(unknown))

	assert.Equal(t, router.NotFound, app.state)
	assert.IsType(t, &NotFoundView{}, app.panel)
	assert.Equal(t, 1+settings.DefaultLookupAttempts, runtime.Count("list_cell_ids"))
	assert.Zero(t, runtime.Count("get_all_zome_defs"), "home view was never mounted")

	press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, router.Home, app.state)
	assert.Equal(t, router.HomePath, app.path)
}

func TestInstalledDnaWithProfilesAsksForNickname(t *testing.T) {
	runtime := sessiontest.New()
	profilesZome := runtime.AddZome("profiles", "\x00asm profiles")
	template := runtime.AddTemplate(compository.NewTemplate("board", []compository.Hashed[compository.ZomeDef]{profilesZome}))
	cell := runtime.AddCell("board")
	runtime.AddOrigin(cell.DnaHash, template, "")

	app := start(t, runtime, router.DnaPath(cell.DnaKey()))

	require.Equal(t, router.ViewingInstance, app.state)
	view, ok := app.panel.(*InstanceView)
	require.True(t, ok)
	assert.True(t, view.Capturing())
	assert.Contains(t, view.View(), "Create your profile")

	press(t, app, runes("q"))
	assert.False(t, app.quitting, "typing into the form is not a global key")

	press(t, app, tea.KeyMsg{Type: tea.KeyBackspace})
	press(t, app, runes("al"))
	press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, view.View(), "at least 3 characters")
	assert.Nil(t, runtime.Profile(cell))

	press(t, app, runes("ice"))
	press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, view.Capturing())
	assert.Contains(t, view.View(), "Signed in as alice")
	require.NotNil(t, runtime.Profile(cell))
	assert.Equal(t, "alice", runtime.Profile(cell).Profile.Nickname)
}

func TestStaleRouteIsDropped(t *testing.T) {
	runtime := sessiontest.New()
	cell := runtime.AddCell("board")
	app := start(t, runtime, "/")
	require.Equal(t, router.Home, app.state)
	home := app.panel

	_, cmd := app.Update(routeMsg{
		stamp: stamp{path: router.DnaPath(cell.DnaKey())},
		route: router.Route{Path: router.DnaPath(cell.DnaKey()), State: router.ViewingInstance, DnaHash: cell.DnaKey(), Cell: cell},
	})
	assert.Nil(t, cmd)
	assert.Equal(t, router.Home, app.state)
	assert.Same(t, home, app.panel)

	_, cmd = app.Update(installedLoadedMsg{stamp: stamp{path: "/dna/elsewhere"}})
	assert.Nil(t, cmd)
}

func TestComposeThenInstallOpensTheNewDna(t *testing.T) {
	runtime := sessiontest.New()
	runtime.AddZome("blocky", "\x00asm blocky")
	runtime.AddZome("todo", "\x00asm", " todo")
	app := start(t, runtime, "/")
	require.Equal(t, router.Home, app.state)

	press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	press(t, app, runes("My Board"))
	press(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, app.install, "install dialog opens after generation")
	assert.True(t, app.dialog.IsOpen())
	assert.Contains(t, app.install.View(), "My Board")
	latest := app.history.Latest(1)
	require.Len(t, latest, 1)
	assert.Equal(t, EventGenerated, latest[0].Kind)

	press(t, app, runes("i"))

	assert.Nil(t, app.install)
	assert.Len(t, runtime.ActiveApps(), 1)
	assert.True(t, strings.HasPrefix(runtime.ActiveApps()[0], "my-board-"))
	assert.Equal(t, router.ViewingInstance, app.state)
	assert.True(t, strings.HasPrefix(app.path, "/dna/"))
	assert.Equal(t, latest[0].DnaHash, strings.TrimPrefix(app.path, "/dna/"))
	kinds := []EventKind{}
	for _, entry := range app.history.Latest(-1) {
		kinds = append(kinds, entry.Kind)
	}
	assert.Equal(t, []EventKind{EventInstalled, EventGenerated}, kinds)
}

func TestInstallUsesTheDnaOnScreen(t *testing.T) {
	runtime := sessiontest.New()
	runtime.AddZome("blocky", "\x00asm blocky")
	app := start(t, runtime, "/")

	press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	press(t, app, runes("Alpha"))
	press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, app.install)
	require.Contains(t, app.install.View(), "Alpha")

	beta, err := app.composer.Compose(context.Background(), "Beta")
	require.NoError(t, err)
	require.NotNil(t, beta)

	press(t, app, runes("i"))

	require.Len(t, runtime.ActiveApps(), 1)
	assert.True(t, strings.HasPrefix(runtime.ActiveApps()[0], "alpha-"))
	assert.False(t, app.dialog.IsOpen())
}

func TestGenerationFromEarlierVisitIsNotOffered(t *testing.T) {
	runtime := sessiontest.New()
	runtime.AddZome("blocky", "\x00asm blocky")
	app := start(t, runtime, "/")
	late, err := app.composer.Compose(context.Background(), "Late")
	require.NoError(t, err)

	_, cmd := app.Update(generatedMsg{stamp: stamp{path: router.HomePath}, dnaFile: late, origin: "composed"})
	drive(t, app, cmd)

	assert.Nil(t, app.install)
	assert.False(t, app.dialog.IsOpen())
	assert.Empty(t, runtime.ActiveApps())
}

func TestGenerationFailureKeepsDialogClosed(t *testing.T) {
	runtime := sessiontest.New()
	runtime.AddZome("blocky", "\x00asm blocky")
	runtime.Fail("get_file_chunk", assert.AnError)
	app := start(t, runtime, "/")

	press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	press(t, app, runes("broken"))
	press(t, app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, app.install)
	assert.False(t, app.dialog.IsOpen())
	require.NotEmpty(t, app.toasts.toasts)
	assert.Contains(t, app.toasts.toasts[0].Message, "maybe the zomes haven't been propagated yet")
}

func TestSaveWritesTheDnaFile(t *testing.T) {
	runtime := sessiontest.New()
	runtime.AddZome("blocky", "\x00asm blocky")
	app := start(t, runtime, "/")

	press(t, app, tea.KeyMsg{Type: tea.KeyTab})
	press(t, app, runes("Saved Board"))
	press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, app.install)

	press(t, app, runes("s"))
	saved := filepath.Join(app.config.DownloadDir, "Saved_Board.dna")
	content, err := os.ReadFile(saved)
	require.NoError(t, err)
	dnaFile, err := compository.ReadBundle(strings.NewReader(string(content)))
	require.NoError(t, err)
	assert.Equal(t, "Saved Board", dnaFile.Dna.Name)
	assert.Equal(t, saved, app.install.savedTo)
	assert.Equal(t, EventSaved, app.history.Latest(1)[0].Kind)

	press(t, app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, app.install)
	assert.False(t, app.dialog.IsOpen())
	assert.Empty(t, runtime.ActiveApps())
}

func TestHistoryOpensInstalledDna(t *testing.T) {
	runtime := sessiontest.New()
	cell := runtime.AddCell("board")
	app := start(t, runtime, "/")
	app.history.Add(HistoryEntry{Kind: EventInstalled, Name: "board", DnaHash: cell.DnaKey()})

	press(t, app, runes("3"))
	require.Equal(t, overlayHistory, app.overlay)
	assert.Contains(t, app.hisView.View(), "board")

	press(t, app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, overlayNone, app.overlay)
	assert.Equal(t, router.ViewingInstance, app.state)
	assert.Equal(t, router.DnaPath(cell.DnaKey()), app.path)
}
