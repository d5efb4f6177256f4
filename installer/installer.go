// Package installer turns a generated DNA file into a running cell.
package installer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/compository/app/common"
	"github.com/compository/app/compository"
	"github.com/compository/app/conductor"
	"github.com/compository/app/holo"
)

var ErrNoDnaFile = errors.New("no DNA file to install")

type Admin interface {
	GenerateAgentPubKey(ctx context.Context) (holo.Hash, error)
	RegisterDna(ctx context.Context, request conductor.RegisterDnaRequest) (holo.Hash, error)
	InstallApp(ctx context.Context, request conductor.InstallAppRequest) (*conductor.InstalledApp, error)
	ActivateApp(ctx context.Context, installedAppId string) error
}

// Installed is announced once a DNA runs in its own cell.
type Installed struct {
	AppId string
	Name  string
	Cell  holo.CellId
}

// Dialog holds the DNA file offered to the user between generation and
// installation. Offer and Close belong to the caller's loop; Install and
// SaveFile only read the file they are given.
type Dialog struct {
	admin       Admin
	downloadDir string
	dnaFile     *compository.DnaFile
	open        bool
}

func NewDialog(admin Admin, downloadDir string) *Dialog {
	return &Dialog{admin: admin, downloadDir: downloadDir}
}

func (it *Dialog) DnaFile() *compository.DnaFile {
	return it.dnaFile
}

// Offer opens the dialog with a freshly generated DNA file.
func (it *Dialog) Offer(dnaFile *compository.DnaFile) error {
	if dnaFile == nil {
		return ErrNoDnaFile
	}
	it.dnaFile = dnaFile
	it.open = true
	return nil
}

func (it *Dialog) IsOpen() bool {
	return it.open
}

func (it *Dialog) Close() {
	it.open = false
}

func appId(name string) string {
	name = strings.ToLower(strings.Join(strings.Fields(name), "-"))
	if len(name) == 0 {
		name = "dna"
	}
	return fmt.Sprintf("%s-%s", name, ulid.Make())
}

// Install registers dnaFile under a fresh agent key, installs and activates it.
func (it *Dialog) Install(ctx context.Context, dnaFile *compository.DnaFile) (*Installed, error) {
	if dnaFile == nil {
		return nil, ErrNoDnaFile
	}
	stopwatch := common.Stopwatch("install %q", dnaFile.Dna.Name)
	defer stopwatch.Debug()

	bundle, err := dnaFile.Bundle()
	if err != nil {
		return nil, err
	}
	agent, err := it.admin.GenerateAgentPubKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate agent key: %w", err)
	}
	dnaHash, err := it.admin.RegisterDna(ctx, conductor.RegisterDnaRequest{Bundle: bundle})
	if err != nil {
		return nil, fmt.Errorf("register dna: %w", err)
	}
	request := conductor.InstallAppRequest{
		InstalledAppId: appId(dnaFile.Dna.Name),
		AgentKey:       agent,
		Dnas: []conductor.InstallAppDnaPayload{
			{Hash: dnaHash, Nick: dnaFile.Dna.Name},
		},
	}
	app, err := it.admin.InstallApp(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("install app %s: %w", request.InstalledAppId, err)
	}
	if err := it.admin.ActivateApp(ctx, app.InstalledAppId); err != nil {
		return nil, fmt.Errorf("activate app %s: %w", app.InstalledAppId, err)
	}
	cell := holo.NewCellId(dnaHash, agent)
	if len(app.CellData) > 0 {
		cell = app.CellData[0].CellId
	}
	common.Log("Installed %q as %s.", dnaFile.Dna.Name, cell.DnaKey())
	return &Installed{AppId: app.InstalledAppId, Name: dnaFile.Dna.Name, Cell: cell}, nil
}

// SaveFile writes dnaFile into the download directory and returns its path.
func (it *Dialog) SaveFile(dnaFile *compository.DnaFile) (string, error) {
	if dnaFile == nil {
		return "", ErrNoDnaFile
	}
	if _, err := common.EnsureDirectory(it.downloadDir); err != nil {
		return "", err
	}
	return dnaFile.WriteFile(it.downloadDir)
}
