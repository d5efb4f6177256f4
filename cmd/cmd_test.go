package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compository/app/common"
	"github.com/compository/app/compository"
	"github.com/compository/app/holo"
	"github.com/compository/app/interactive"
	"github.com/compository/app/session/sessiontest"
)

func against(t *testing.T, runtime *sessiontest.Runtime) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(common.COMPOSITORY_HOME_VARIABLE, home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	dialer = runtime
	t.Cleanup(func() { dialer = nil })
	return home
}

// run executes the command line and returns the exit code it would end with.
func run(t *testing.T, args ...string) (code int) {
	t.Helper()
	composeName, composeZomes, installNow = "", nil, false
	installDna, installFile = "", ""
	forceFlag, configFile = false, ""

	defer func() {
		if status := recover(); status != nil {
			exit, ok := status.(common.ExitCode)
			require.True(t, ok, "unexpected panic: %v", status)
			code = exit.Code
		}
	}()
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return 0
}

func withZomes() *sessiontest.Runtime {
	runtime := sessiontest.New()
	runtime.AddZome("blocky", "\x00asm blocky")
	runtime.AddZome("todo", "\x00asm", " todo")
	runtime.AddZome("profiles", "\x00asm profiles")
	return runtime
}

func TestComposeSavesTheDnaFile(t *testing.T) {
	runtime := withZomes()
	home := against(t, runtime)

	require.Zero(t, run(t, "compose", "--name", "Board", "--zome", "todo"))

	handle, err := os.Open(filepath.Join(home, "dnas", "Board.dna"))
	require.NoError(t, err)
	defer handle.Close()
	dnaFile, err := compository.ReadBundle(handle)
	require.NoError(t, err)
	names := []string{}
	for _, zome := range dnaFile.Dna.Zomes {
		names = append(names, zome.Name)
	}
	assert.ElementsMatch(t, []string{"blocky", "todo"}, names)
	assert.Empty(t, runtime.ActiveApps())
	assert.Len(t, runtime.Instantiated(), 1)
}

func TestComposeWithInstallActivatesTheApp(t *testing.T) {
	runtime := withZomes()
	home := against(t, runtime)

	require.Zero(t, run(t, "compose", "-n", "Board", "-z", "todo,profiles", "--install"))

	assert.Len(t, runtime.ActiveApps(), 1)
	history, err := interactive.LoadHistory(filepath.Join(home, "history.yaml"))
	require.NoError(t, err)
	entries := history.Latest(-1)
	require.Len(t, entries, 2)
	assert.Equal(t, interactive.EventInstalled, entries[0].Kind)
	assert.Equal(t, interactive.EventGenerated, entries[1].Kind)
	assert.Equal(t, entries[1].DnaHash, entries[0].DnaHash)
}

func TestComposeRefusesUnknownZomeAndMissingName(t *testing.T) {
	runtime := withZomes()
	against(t, runtime)

	assert.Equal(t, 1, run(t, "compose", "--name", "Board", "--zome", "chess"))
	assert.Equal(t, 1, run(t, "compose", "--zome", "todo"))
	assert.Zero(t, runtime.Count("publish_dna_template"))
}

func TestInstallDiscoveredDna(t *testing.T) {
	runtime := withZomes()
	notes := runtime.AddZome("notes", "\x00asm notes")
	template := runtime.AddTemplate(compository.NewTemplate("shared", []compository.Hashed[compository.ZomeDef]{notes}))
	elsewhere := holo.Compute(holo.KindDna, []byte("generated by another agent"))
	runtime.AddOrigin(elsewhere, template, "network-7")
	against(t, runtime)

	assert.Equal(t, 1, run(t, "install"))
	assert.Equal(t, 1, run(t, "install", "--dna", holo.Compute(holo.KindDna, []byte("nobody")).String()))
	assert.Empty(t, runtime.ActiveApps())

	require.Zero(t, run(t, "install", "--dna", elsewhere.String()))
	require.Len(t, runtime.ActiveApps(), 1)
	assert.Contains(t, runtime.ActiveApps()[0], "shared-")
}

func TestInstallSavedFile(t *testing.T) {
	runtime := withZomes()
	home := against(t, runtime)
	require.Zero(t, run(t, "compose", "--name", "Later"))

	require.Zero(t, run(t, "install", "--file", filepath.Join(home, "dnas", "Later.dna")))
	assert.Len(t, runtime.ActiveApps(), 1)
	assert.Equal(t, 1, run(t, "install", "--file", filepath.Join(home, "missing.dna")))
}

func TestRuntimeProblemsMapToExitCodes(t *testing.T) {
	unreachable := sessiontest.New()
	unreachable.Unreachable = true
	against(t, unreachable)
	assert.Equal(t, 2, run(t, "cells"))

	against(t, sessiontest.Empty())
	assert.Equal(t, 3, run(t, "zomes"))
}

func TestListingCommandsSucceed(t *testing.T) {
	runtime := withZomes()
	runtime.AddCell("board")
	against(t, runtime)
	require.Zero(t, run(t, "compose", "--name", "Board"))

	for _, command := range []string{"cells", "apps", "zomes", "templates", "discover", "version"} {
		assert.Zero(t, run(t, command), command)
	}
	assert.Equal(t, 2, runtime.Count("get_all_zome_defs"))
	assert.Equal(t, 2, runtime.Count("get_all_instantiated_dnas"))
	assert.Equal(t, 1, runtime.Count("list_active_apps"))
}

func TestAppsListsInstalledCells(t *testing.T) {
	runtime := withZomes()
	against(t, runtime)
	require.Zero(t, run(t, "compose", "--name", "Board", "--install"))

	require.Zero(t, run(t, "apps"))
	assert.Equal(t, 1, runtime.Count("list_dnas"))
	assert.Equal(t, 1, runtime.Count("app_info"))

	runtime.Fail("app_info", assert.AnError)
	assert.Equal(t, 1, run(t, "apps"))
}

func TestConfigInitRefusesToOverwrite(t *testing.T) {
	home := against(t, sessiontest.New())

	require.Zero(t, run(t, "config", "init"))
	assert.FileExists(t, filepath.Join(home, "settings.yaml"))
	assert.Equal(t, 1, run(t, "config", "init"))
	assert.Zero(t, run(t, "config", "init", "--force"))
	assert.Zero(t, run(t, "config", "show"))
}
