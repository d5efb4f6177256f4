// Package router maps navigation paths to the console's view states.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/compository/app/common"
	"github.com/compository/app/holo"
)

type State int

const (
	Loading State = iota
	NoRuntime
	Home
	ViewingInstance
	NotFound
)

const (
	HomePath   = "/"
	dnaPattern = "/dna/:dna"
	anyPattern = "*"
	dnaPrefix  = "/dna/"
	dnaParam   = "dna"
)

var (
	patterns = []string{dnaPattern, anyPattern}

	errNotInstalled = errors.New("no installed cell runs this dna")
)

func (it State) String() string {
	switch it {
	case Loading:
		return "loading"
	case NoRuntime:
		return "no-runtime"
	case Home:
		return "home"
	case ViewingInstance:
		return "viewing-instance"
	case NotFound:
		return "not-found"
	}
	return fmt.Sprintf("state(%d)", int(it))
}

// Route is the outcome of resolving one path.
type Route struct {
	Path    string
	State   State
	DnaHash string
	Cell    holo.CellId
}

func DnaPath(dnaHash string) string {
	return dnaPrefix + dnaHash
}

// Clean normalizes a path: leading slash, no trailing slash except for the root.
func Clean(path string) string {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

// Match evaluates patterns in order and returns the first one matching path with its parameters.
func Match(path string) (string, map[string]string) {
	path = Clean(path)
	for _, pattern := range patterns {
		switch pattern {
		case dnaPattern:
			rest, ok := strings.CutPrefix(path, dnaPrefix)
			if ok && len(rest) > 0 && !strings.Contains(rest, "/") {
				return pattern, map[string]string{dnaParam: rest}
			}
		case anyPattern:
			return pattern, map[string]string{}
		}
	}
	return anyPattern, map[string]string{}
}

type CellLister interface {
	ListCellIds(ctx context.Context) ([]holo.CellId, error)
}

type Router struct {
	cells    CellLister
	attempts int
	delay    time.Duration
}

func New(cells CellLister, attempts int, delay time.Duration) *Router {
	return &Router{cells: cells, attempts: attempts, delay: delay}
}

// Resolve decides which state a path leads to. A dna path that names no installed
// cell is looked up again a bounded number of times, and then settles on NotFound.
// The only error returned is context cancellation.
func (it *Router) Resolve(ctx context.Context, path string) (Route, error) {
	path = Clean(path)
	pattern, params := Match(path)
	if pattern != dnaPattern {
		return Route{Path: path, State: Home}, nil
	}
	wanted := params[dnaParam]
	var found holo.CellId
	err := common.Retry(ctx, it.attempts, it.delay, func(attempt int) error {
		cells, err := it.cells.ListCellIds(ctx)
		if err != nil {
			return err
		}
		cell, ok := holo.FindByDna(cells, wanted)
		if !ok {
			return errNotInstalled
		}
		found = cell
		return nil
	})
	switch {
	case err == nil:
		return Route{Path: path, State: ViewingInstance, DnaHash: wanted, Cell: found}, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Route{Path: path, State: Loading, DnaHash: wanted}, err
	}
	common.Debug("%s not found: %v", path, err)
	return Route{Path: path, State: NotFound, DnaHash: wanted}, nil
}
