package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compository/app/session"
	"github.com/compository/app/session/sessiontest"
	"github.com/compository/app/settings"
)

func TestBootstrapFindsWellKnownCell(t *testing.T) {
	runtime := sessiontest.New()
	runtime.AddCell("some other dna")

	sut, err := runtime.Session()
	require.NoError(t, err)
	defer sut.Close()

	assert.Equal(t, settings.DefaultCompositoryDnaHash, sut.CompositoryCell.DnaKey())
	assert.Equal(t, sut.CompositoryCell, sut.Compository.Cell())
	assert.Equal(t, []string{"list_cell_ids"}, runtime.Calls())
}

func TestBootstrapWithoutWellKnownCellFails(t *testing.T) {
	runtime := sessiontest.Empty()
	runtime.AddCell("some other dna")

	sut, err := runtime.Session()
	assert.Nil(t, sut)
	assert.ErrorIs(t, err, session.ErrCompositoryNotInstalled)
	assert.Equal(t, 3, session.ExitCode(err))
	assert.Equal(t, 2, runtime.Closed())
}

func TestBootstrapOnUnreachableRuntimeFails(t *testing.T) {
	runtime := sessiontest.New()
	runtime.Unreachable = true

	sut, err := runtime.Session()
	assert.Nil(t, sut)
	assert.ErrorIs(t, err, session.ErrRuntimeUnreachable)
	assert.Equal(t, 2, session.ExitCode(err))
	assert.Empty(t, runtime.Calls())
}

func TestBootstrapWhenListingFails(t *testing.T) {
	runtime := sessiontest.New()
	runtime.Fail("list_cell_ids", errors.New("boom"))

	_, err := session.Bootstrap(context.Background(), settings.Defaults(), runtime)
	assert.ErrorIs(t, err, session.ErrRuntimeUnreachable)
}

func TestBootstrapDoesNotRetry(t *testing.T) {
	runtime := sessiontest.Empty()
	runtime.AddLateCell("compository", 2)

	_, err := runtime.Session()
	assert.Error(t, err)
	assert.Equal(t, 1, runtime.Count("list_cell_ids"))
}

func TestInstalledCellsHidesCompository(t *testing.T) {
	runtime := sessiontest.New()
	first := runtime.AddCell("first")
	second := runtime.AddCell("second")

	sut, err := runtime.Session()
	require.NoError(t, err)

	cells, err := sut.InstalledCells(context.Background())
	require.NoError(t, err)
	assert.Len(t, cells, 2)
	assert.True(t, cells[0].Equal(first))
	assert.True(t, cells[1].Equal(second))

	require.NoError(t, sut.Close())
	assert.Equal(t, 2, runtime.Closed())
}

func TestExitCodeForOtherErrors(t *testing.T) {
	assert.Equal(t, 1, session.ExitCode(errors.New("other")))
}
