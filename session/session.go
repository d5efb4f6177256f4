package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/compository/app/common"
	"github.com/compository/app/compository"
	"github.com/compository/app/conductor"
	"github.com/compository/app/holo"
	"github.com/compository/app/settings"
)

var (
	ErrRuntimeUnreachable      = errors.New("holochain runtime is not reachable")
	ErrCompositoryNotInstalled = errors.New("compository DNA is not installed in the runtime")
)

// Admin is the part of the administrative interface the console uses.
type Admin interface {
	ListCellIds(ctx context.Context) ([]holo.CellId, error)
	ListDnas(ctx context.Context) ([]holo.Hash, error)
	ListActiveApps(ctx context.Context) ([]string, error)
	GenerateAgentPubKey(ctx context.Context) (holo.Hash, error)
	RegisterDna(ctx context.Context, request conductor.RegisterDnaRequest) (holo.Hash, error)
	InstallApp(ctx context.Context, request conductor.InstallAppRequest) (*conductor.InstalledApp, error)
	ActivateApp(ctx context.Context, installedAppId string) error
	Close() error
}

// App is the part of the application interface the console uses.
type App interface {
	CallZome(ctx context.Context, call conductor.ZomeCall, out interface{}) error
	AppInfo(ctx context.Context, installedAppId string) (*conductor.InstalledApp, error)
	Close() error
}

type Dialer interface {
	DialAdmin(ctx context.Context, url string) (Admin, error)
	DialApp(ctx context.Context, url string) (App, error)
}

type websocketDialer struct {
	options conductor.Options
}

// WebsocketDialer connects to a real conductor.
func WebsocketDialer(config *settings.Settings) Dialer {
	return &websocketDialer{
		options: conductor.Options{RequestTimeout: config.RequestTimeout},
	}
}

func (it *websocketDialer) DialAdmin(ctx context.Context, url string) (Admin, error) {
	admin, err := conductor.ConnectAdmin(ctx, url, it.options)
	if err != nil {
		return nil, err
	}
	return admin, nil
}

func (it *websocketDialer) DialApp(ctx context.Context, url string) (App, error) {
	app, err := conductor.ConnectApp(ctx, url, it.options)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// Session owns both conductor connections and the resolved compository cell.
// It is handed to every view and command explicitly.
type Session struct {
	Settings        *settings.Settings
	Admin           Admin
	App             App
	CompositoryCell holo.CellId
	Compository     *compository.Service
}

// Bootstrap connects to the runtime and locates the compository cell.
// It does not retry; callers decide what to show on failure.
func Bootstrap(ctx context.Context, config *settings.Settings, dialer Dialer) (*Session, error) {
	stopwatch := common.Stopwatch("session bootstrap")
	defer stopwatch.Debug()

	admin, err := dialer.DialAdmin(ctx, config.AdminURL)
	if err != nil {
		return nil, fmt.Errorf("%w: admin interface %s: %v", ErrRuntimeUnreachable, config.AdminURL, err)
	}
	app, err := dialer.DialApp(ctx, config.AppURL)
	if err != nil {
		admin.Close()
		return nil, fmt.Errorf("%w: app interface %s: %v", ErrRuntimeUnreachable, config.AppURL, err)
	}
	cells, err := admin.ListCellIds(ctx)
	if err != nil {
		admin.Close()
		app.Close()
		return nil, fmt.Errorf("%w: listing cells: %v", ErrRuntimeUnreachable, err)
	}
	cell, ok := holo.FindByDna(cells, config.CompositoryDnaHash)
	if !ok {
		admin.Close()
		app.Close()
		return nil, fmt.Errorf("%w: no cell with DNA %s among %d cells", ErrCompositoryNotInstalled, config.CompositoryDnaHash, len(cells))
	}
	common.Debug("compository cell is %s", cell)
	return &Session{
		Settings:        config,
		Admin:           admin,
		App:             app,
		CompositoryCell: cell,
		Compository:     compository.NewService(app, cell),
	}, nil
}

// InstalledCells lists the runtime's cells, without the compository itself.
func (it *Session) InstalledCells(ctx context.Context) ([]holo.CellId, error) {
	cells, err := it.Admin.ListCellIds(ctx)
	if err != nil {
		return nil, err
	}
	return holo.WithoutDna(cells, it.CompositoryCell.DnaKey()), nil
}

func (it *Session) Close() error {
	return errors.Join(it.App.Close(), it.Admin.Close())
}

// ExitCode maps bootstrap failures to process exit codes.
func ExitCode(err error) int {
	switch {
	case errors.Is(err, ErrRuntimeUnreachable):
		return 2
	case errors.Is(err, ErrCompositoryNotInstalled):
		return 3
	default:
		return 1
	}
}
