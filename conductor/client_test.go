package conductor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/compository/app/holo"
)

func testCell(name string) holo.CellId {
	return holo.NewCellId(
		holo.Compute(holo.KindDna, []byte("dna-"+name)),
		holo.Compute(holo.KindAgent, []byte("agent-"+name)),
	)
}

func TestListCellIds(t *testing.T) {
	cells := []holo.CellId{testCell("a"), testCell("b")}
	fake := newFakeConductor(t, func(request response) (string, interface{}) {
		require.Equal(t, "list_cell_ids", request.Type)
		return "cell_ids_listed", cells
	})

	admin, err := ConnectAdmin(context.Background(), fake.URL(), Options{})
	require.NoError(t, err)
	defer admin.Close()

	listed, err := admin.ListCellIds(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.True(t, cells[0].Equal(listed[0]))
	assert.True(t, cells[1].Equal(listed[1]))
}

func TestConcurrentResponsesAreCorrelatedById(t *testing.T) {
	const calls = 8
	fake := newBatchingConductor(t, calls, func(batch []incoming, reply func(uint64, string, interface{})) {
		for at := len(batch) - 1; at >= 0; at-- {
			var echo string
			msgpack.Unmarshal(batch[at].request.Data, &echo)
			reply(batch[at].id, "echoed", echo)
		}
	})

	client, err := Dial(context.Background(), fake.URL(), Options{})
	require.NoError(t, err)
	defer client.Close()

	var wg sync.WaitGroup
	results := make([]string, calls)
	failures := make([]error, calls)
	for at := 0; at < calls; at++ {
		wg.Add(1)
		go func(at int) {
			defer wg.Done()
			failures[at] = client.Call(context.Background(), Request{Type: "echo", Data: fmt.Sprintf("call-%d", at)}, "echoed", &results[at])
		}(at)
	}
	wg.Wait()

	for at := 0; at < calls; at++ {
		require.NoError(t, failures[at])
		assert.Equal(t, fmt.Sprintf("call-%d", at), results[at])
	}
}

func TestErrorResponseIsTyped(t *testing.T) {
	fake := newFakeConductor(t, func(request response) (string, interface{}) {
		return "error", map[string]interface{}{"type": "internal_error", "data": "cell missing"}
	})
	admin, err := ConnectAdmin(context.Background(), fake.URL(), Options{})
	require.NoError(t, err)
	defer admin.Close()

	_, err = admin.ListDnas(context.Background())
	var failure *ResponseError
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "list_dnas", failure.Request)
	assert.Equal(t, "internal_error", failure.Type)
	assert.Equal(t, "cell missing", failure.Message)
}

func TestUnexpectedResponseType(t *testing.T) {
	fake := newFakeConductor(t, func(request response) (string, interface{}) {
		return "something_else", nil
	})
	admin, err := ConnectAdmin(context.Background(), fake.URL(), Options{})
	require.NoError(t, err)
	defer admin.Close()

	_, err = admin.ListActiveApps(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedResponse)
}

func TestPendingCallsFailWhenConnectionDrops(t *testing.T) {
	received := make(chan struct{}, 1)
	fake := newFakeConductor(t, func(request response) (string, interface{}) {
		received <- struct{}{}
		return "", nil
	})
	admin, err := ConnectAdmin(context.Background(), fake.URL(), Options{})
	require.NoError(t, err)
	defer admin.Close()

	go func() {
		<-received
		fake.DropConnections()
	}()
	_, err = admin.ListCellIds(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	select {
	case <-admin.Done():
	case <-time.After(time.Second):
		t.Fatal("client did not notice the dropped connection")
	}
	_, err = admin.ListCellIds(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRequestTimeout(t *testing.T) {
	fake := newFakeConductor(t, func(request response) (string, interface{}) {
		return "", nil
	})
	client, err := Dial(context.Background(), fake.URL(), Options{RequestTimeout: 50 * time.Millisecond})
	require.NoError(t, err)
	defer client.Close()

	err = client.Call(context.Background(), Request{Type: "never"}, "", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDialFailure(t *testing.T) {
	_, err := Dial(context.Background(), "ws://127.0.0.1:1", Options{HandshakeTimeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestCallZomeDecodesNestedOutput(t *testing.T) {
	cell := testCell("zome")
	fake := newFakeConductor(t, func(request response) (string, interface{}) {
		call := ZomeCall{}
		require.NoError(t, msgpack.Unmarshal(request.Data, &call))
		assert.Equal(t, "compository", call.ZomeName)
		assert.Equal(t, "get_dna_template", call.FnName)
		assert.True(t, cell.Equal(call.CellId))
		assert.True(t, cell.AgentPubKey.Equal(call.Provenance))

		var input string
		require.NoError(t, msgpack.Unmarshal(call.Payload, &input))
		output, _ := msgpack.Marshal(map[string]string{"name": "template for " + input})
		return "zome_call_invocation", output
	})
	app, err := ConnectApp(context.Background(), fake.URL(), Options{})
	require.NoError(t, err)
	defer app.Close()

	call, err := NewZomeCall(cell, "compository", "get_dna_template", "abc")
	require.NoError(t, err)
	out := map[string]string{}
	require.NoError(t, app.CallZome(context.Background(), call, &out))
	assert.Equal(t, "template for abc", out["name"])
}

func TestInstallAppRoundTrip(t *testing.T) {
	cell := testCell("installed")
	fake := newFakeConductor(t, func(request response) (string, interface{}) {
		switch request.Type {
		case "install_app":
			payload := InstallAppRequest{}
			require.NoError(t, msgpack.Unmarshal(request.Data, &payload))
			return "app_installed", InstalledApp{
				InstalledAppId: payload.InstalledAppId,
				CellData:       []InstalledCell{{CellId: cell, CellNick: payload.Dnas[0].Nick}},
			}
		case "activate_app":
			return "app_activated", nil
		}
		return "error", map[string]string{"type": "unknown"}
	})
	admin, err := ConnectAdmin(context.Background(), fake.URL(), Options{})
	require.NoError(t, err)
	defer admin.Close()

	installed, err := admin.InstallApp(context.Background(), InstallAppRequest{
		InstalledAppId: "app-1",
		AgentKey:       cell.AgentPubKey,
		Dnas:           []InstallAppDnaPayload{{Hash: cell.DnaHash, Nick: "mine"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "app-1", installed.InstalledAppId)
	require.Len(t, installed.CellData, 1)
	assert.True(t, cell.Equal(installed.CellData[0].CellId))
	assert.Equal(t, "mine", installed.CellData[0].CellNick)

	assert.NoError(t, admin.ActivateApp(context.Background(), "app-1"))
}

func TestAppInfoAndActiveApps(t *testing.T) {
	cell := testCell("running")
	fake := newFakeConductor(t, func(request response) (string, interface{}) {
		switch request.Type {
		case "list_active_apps":
			return "active_apps_listed", []string{"board-1"}
		case "list_dnas":
			return "dnas_listed", []holo.Hash{cell.DnaHash}
		case "app_info":
			query := map[string]string{}
			require.NoError(t, msgpack.Unmarshal(request.Data, &query))
			assert.Equal(t, "board-1", query["installed_app_id"])
			return "app_info", InstalledApp{
				InstalledAppId: query["installed_app_id"],
				CellData:       []InstalledCell{{CellId: cell, CellNick: "board"}},
			}
		}
		return "error", map[string]string{"type": "unknown"}
	})
	admin, err := ConnectAdmin(context.Background(), fake.URL(), Options{})
	require.NoError(t, err)
	defer admin.Close()
	app, err := ConnectApp(context.Background(), fake.URL(), Options{})
	require.NoError(t, err)
	defer app.Close()

	active, err := admin.ListActiveApps(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"board-1"}, active)
	dnas, err := admin.ListDnas(context.Background())
	require.NoError(t, err)
	require.Len(t, dnas, 1)
	assert.True(t, cell.DnaHash.Equal(dnas[0]))

	info, err := app.AppInfo(context.Background(), "board-1")
	require.NoError(t, err)
	require.Len(t, info.CellData, 1)
	assert.Equal(t, "board", info.CellData[0].CellNick)
	assert.True(t, cell.Equal(info.CellData[0].CellId))
}
