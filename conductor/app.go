package conductor

import (
	"context"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/compository/app/holo"
)

// AppWebsocket speaks the conductor's application interface.
type AppWebsocket struct {
	*Client
}

func ConnectApp(ctx context.Context, url string, options Options) (*AppWebsocket, error) {
	client, err := Dial(ctx, url, options)
	if err != nil {
		return nil, err
	}
	return &AppWebsocket{Client: client}, nil
}

// ZomeCall addresses one extern function of one zome in one cell.
type ZomeCall struct {
	CellId     holo.CellId `msgpack:"cell_id"`
	ZomeName   string      `msgpack:"zome_name"`
	FnName     string      `msgpack:"fn_name"`
	Payload    []byte      `msgpack:"payload"`
	CapSecret  []byte      `msgpack:"cap"`
	Provenance holo.Hash   `msgpack:"provenance"`
}

// NewZomeCall encodes payload and signs the call as the cell's own agent.
func NewZomeCall(cell holo.CellId, zome, fn string, payload interface{}) (ZomeCall, error) {
	encoded, err := msgpack.Marshal(payload)
	if err != nil {
		return ZomeCall{}, fmt.Errorf("encode %s/%s payload: %w", zome, fn, err)
	}
	return ZomeCall{
		CellId:     cell,
		ZomeName:   zome,
		FnName:     fn,
		Payload:    encoded,
		Provenance: cell.AgentPubKey,
	}, nil
}

// CallZome invokes the call and decodes the zome's own msgpack output into out.
func (it *AppWebsocket) CallZome(ctx context.Context, call ZomeCall, out interface{}) error {
	var output []byte
	err := it.Call(ctx, Request{Type: "zome_call_invocation", Data: &call}, "zome_call_invocation", &output)
	if err != nil {
		return fmt.Errorf("%s/%s: %w", call.ZomeName, call.FnName, err)
	}
	if out == nil || len(output) == 0 {
		return nil
	}
	if err := msgpack.Unmarshal(output, out); err != nil {
		return fmt.Errorf("decode %s/%s output: %w", call.ZomeName, call.FnName, err)
	}
	return nil
}

func (it *AppWebsocket) AppInfo(ctx context.Context, installedAppId string) (*InstalledApp, error) {
	request := map[string]string{"installed_app_id": installedAppId}
	result := &InstalledApp{}
	err := it.Call(ctx, Request{Type: "app_info", Data: request}, "app_info", result)
	if err != nil {
		return nil, err
	}
	return result, nil
}
