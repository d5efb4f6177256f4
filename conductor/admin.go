package conductor

import (
	"context"

	"github.com/compository/app/holo"
)

// AdminWebsocket speaks the conductor's administrative interface.
type AdminWebsocket struct {
	*Client
}

func ConnectAdmin(ctx context.Context, url string, options Options) (*AdminWebsocket, error) {
	client, err := Dial(ctx, url, options)
	if err != nil {
		return nil, err
	}
	return &AdminWebsocket{Client: client}, nil
}

// RegisterDnaRequest registers a DNA from exactly one source: a bundle, a path, or a known hash.
type RegisterDnaRequest struct {
	Uid        *string                `msgpack:"uid,omitempty"`
	Properties map[string]interface{} `msgpack:"properties,omitempty"`
	Bundle     []byte                 `msgpack:"bundle,omitempty"`
	Path       string                 `msgpack:"path,omitempty"`
	Hash       holo.Hash              `msgpack:"hash,omitempty"`
}

type InstallAppDnaPayload struct {
	Hash          holo.Hash `msgpack:"hash"`
	Nick          string    `msgpack:"nick"`
	MembraneProof []byte    `msgpack:"membrane_proof,omitempty"`
}

type InstallAppRequest struct {
	InstalledAppId string                 `msgpack:"installed_app_id"`
	AgentKey       holo.Hash              `msgpack:"agent_key"`
	Dnas           []InstallAppDnaPayload `msgpack:"dnas"`
}

type InstalledCell struct {
	CellId   holo.CellId `msgpack:"cell_id"`
	CellNick string      `msgpack:"cell_nick"`
}

type InstalledApp struct {
	InstalledAppId string          `msgpack:"installed_app_id"`
	CellData       []InstalledCell `msgpack:"cell_data"`
}

func (it *AdminWebsocket) ListCellIds(ctx context.Context) ([]holo.CellId, error) {
	result := []holo.CellId{}
	err := it.Call(ctx, Request{Type: "list_cell_ids"}, "cell_ids_listed", &result)
	return result, err
}

func (it *AdminWebsocket) ListDnas(ctx context.Context) ([]holo.Hash, error) {
	result := []holo.Hash{}
	err := it.Call(ctx, Request{Type: "list_dnas"}, "dnas_listed", &result)
	return result, err
}

func (it *AdminWebsocket) ListActiveApps(ctx context.Context) ([]string, error) {
	result := []string{}
	err := it.Call(ctx, Request{Type: "list_active_apps"}, "active_apps_listed", &result)
	return result, err
}

func (it *AdminWebsocket) GenerateAgentPubKey(ctx context.Context) (holo.Hash, error) {
	var result holo.Hash
	err := it.Call(ctx, Request{Type: "generate_agent_pub_key"}, "agent_pub_key_generated", &result)
	return result, err
}

func (it *AdminWebsocket) RegisterDna(ctx context.Context, request RegisterDnaRequest) (holo.Hash, error) {
	var result holo.Hash
	err := it.Call(ctx, Request{Type: "register_dna", Data: &request}, "dna_registered", &result)
	return result, err
}

func (it *AdminWebsocket) InstallApp(ctx context.Context, request InstallAppRequest) (*InstalledApp, error) {
	result := &InstalledApp{}
	err := it.Call(ctx, Request{Type: "install_app", Data: &request}, "app_installed", result)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (it *AdminWebsocket) ActivateApp(ctx context.Context, installedAppId string) error {
	request := map[string]string{"installed_app_id": installedAppId}
	return it.Call(ctx, Request{Type: "activate_app", Data: request}, "app_activated", nil)
}
