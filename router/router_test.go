package router_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compository/app/router"
	"github.com/compository/app/session/sessiontest"
)

func setup(t *testing.T) (*sessiontest.Runtime, *router.Router) {
	t.Helper()
	runtime := sessiontest.New()
	admin, err := runtime.DialAdmin(context.Background(), "ws://fake")
	require.NoError(t, err)
	return runtime, router.New(admin, 3, 0)
}

func TestMatchEvaluatesPatternsInOrder(t *testing.T) {
	cases := map[string]string{
		"/":              "*",
		"":               "*",
		"/dna/uhC0kabc":  "/dna/:dna",
		"/dna/uhC0kabc/": "/dna/:dna",
		"dna/uhC0kabc":   "/dna/:dna",
		"/dna/":          "*",
		"/dna/a/b":       "*",
		"/elsewhere":     "*",
	}
	for path, expected := range cases {
		pattern, _ := router.Match(path)
		assert.Equal(t, expected, pattern, path)
	}
	_, params := router.Match("/dna/uhC0kabc")
	assert.Equal(t, "uhC0kabc", params["dna"])
}

func TestMatchingDnaLeadsToThatCell(t *testing.T) {
	runtime, sut := setup(t)
	runtime.AddCell("other")
	wanted := runtime.AddCell("wanted")

	route, err := sut.Resolve(context.Background(), router.DnaPath(wanted.DnaKey()))
	require.NoError(t, err)
	assert.Equal(t, router.ViewingInstance, route.State)
	assert.True(t, route.Cell.Equal(wanted))
	assert.Equal(t, 1, runtime.Count("list_cell_ids"))
}

func TestUnknownDnaIsNotFoundNeverHome(t *testing.T) {
	runtime, sut := setup(t)
	runtime.AddCell("other")

	route, err := sut.Resolve(context.Background(), "/dna/uhC0kmissing")
	require.NoError(t, err)
	assert.Equal(t, router.NotFound, route.State)
	assert.NotEqual(t, router.Home, route.State)
	assert.Equal(t, "uhC0kmissing", route.DnaHash)
	assert.Equal(t, 3, runtime.Count("list_cell_ids"))
}

func TestLateCellIsFoundWithinBudget(t *testing.T) {
	runtime, sut := setup(t)
	late := runtime.AddLateCell("late", 2)

	route, err := sut.Resolve(context.Background(), router.DnaPath(late.DnaKey()))
	require.NoError(t, err)
	assert.Equal(t, router.ViewingInstance, route.State)
	assert.Equal(t, 2, runtime.Count("list_cell_ids"))
}

func TestLateCellBeyondBudgetIsNotFound(t *testing.T) {
	runtime, sut := setup(t)
	late := runtime.AddLateCell("late", 4)

	route, err := sut.Resolve(context.Background(), router.DnaPath(late.DnaKey()))
	require.NoError(t, err)
	assert.Equal(t, router.NotFound, route.State)
	assert.Equal(t, 3, runtime.Count("list_cell_ids"))
}

func TestOtherPathsGoHomeWithoutLookup(t *testing.T) {
	runtime, sut := setup(t)

	for _, path := range []string{"/", "/whatever", "/dna/"} {
		route, err := sut.Resolve(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, router.Home, route.State, path)
	}
	assert.Zero(t, runtime.Count("list_cell_ids"))
}

func TestCancelledLookupReportsError(t *testing.T) {
	runtime := sessiontest.New()
	admin, err := runtime.DialAdmin(context.Background(), "ws://fake")
	require.NoError(t, err)
	sut := router.New(admin, 5, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sut.Resolve(ctx, "/dna/uhC0kmissing")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "not-found", router.NotFound.String())
	assert.Equal(t, "viewing-instance", router.ViewingInstance.String())
}
