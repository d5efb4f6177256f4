package settings_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compository/app/common"
	"github.com/compository/app/settings"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(common.COMPOSITORY_HOME_VARIABLE, home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(home))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return home
}

func TestDefaultsAreVisibleWithoutFile(t *testing.T) {
	isolate(t)

	sut, err := settings.NewLoader().Load("")
	require.NoError(t, err)

	assert.Equal(t, settings.DefaultAdminURL, sut.AdminURL)
	assert.Equal(t, settings.DefaultAppURL, sut.AppURL)
	assert.Equal(t, settings.DefaultCompositoryDnaHash, sut.CompositoryDnaHash)
	assert.Equal(t, 3, sut.LookupAttempts)
	assert.Equal(t, time.Second, sut.LookupDelay)
	assert.Equal(t, "defaults", sut.Source)
}

func TestFileThenEnvironmentOverride(t *testing.T) {
	home := isolate(t)
	filename := filepath.Join(home, "custom.yaml")

	custom := settings.Defaults()
	custom.AdminURL = "ws://conductor:1234"
	custom.LookupAttempts = 5
	custom.LookupDelay = 250 * time.Millisecond
	require.NoError(t, custom.WriteFile(filename, false))

	t.Setenv("COMPOSITORY_APP_URL", "wss://remote:4321")

	sut, err := settings.NewLoader().Load(filename)
	require.NoError(t, err)
	assert.Equal(t, "ws://conductor:1234", sut.AdminURL)
	assert.Equal(t, "wss://remote:4321", sut.AppURL)
	assert.Equal(t, 5, sut.LookupAttempts)
	assert.Equal(t, 250*time.Millisecond, sut.LookupDelay)
	assert.Equal(t, filename, sut.Source)
}

func TestWriteFileRefusesToOverwrite(t *testing.T) {
	home := isolate(t)
	filename := filepath.Join(home, "settings.yaml")

	require.NoError(t, settings.Defaults().WriteFile(filename, false))
	assert.Error(t, settings.Defaults().WriteFile(filename, false))
	assert.NoError(t, settings.Defaults().WriteFile(filename, true))
}

func TestBadEndpointIsRejected(t *testing.T) {
	isolate(t)
	t.Setenv("COMPOSITORY_ADMIN_URL", "http://localhost:22000")

	_, err := settings.NewLoader().Load("")
	assert.ErrorIs(t, err, settings.ErrBadEndpoint)
}

func TestBadWellKnownHashIsRejected(t *testing.T) {
	isolate(t)
	t.Setenv("COMPOSITORY_COMPOSITORY_DNA_HASH", "not-a-hash")

	_, err := settings.NewLoader().Load("")
	assert.Error(t, err)
}

func TestValidateClampsBudgets(t *testing.T) {
	sut := settings.Defaults()
	sut.LookupAttempts = 0
	sut.RequestTimeout = -time.Second

	require.NoError(t, sut.Validate())
	assert.Equal(t, 1, sut.LookupAttempts)
	assert.Equal(t, time.Duration(0), sut.RequestTimeout)
}
