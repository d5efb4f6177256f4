package conductor

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

type incoming struct {
	id      uint64
	request response
}

// answerFunc produces the tagged reply for one request; returning an empty type skips the reply.
type answerFunc func(request response) (string, interface{})

type fakeConductor struct {
	server *httptest.Server
	mu     sync.Mutex
	conns  []*websocket.Conn
}

func newFakeConductor(t *testing.T, answer answerFunc) *fakeConductor {
	t.Helper()
	return newBatchingConductor(t, 1, func(batch []incoming, reply func(uint64, string, interface{})) {
		for _, each := range batch {
			kind, data := answer(each.request)
			if kind != "" {
				reply(each.id, kind, data)
			}
		}
	})
}

// newBatchingConductor collects size requests before handing them to handle, so tests can reorder replies.
func newBatchingConductor(t *testing.T, size int, handle func([]incoming, func(uint64, string, interface{}))) *fakeConductor {
	t.Helper()
	fake := &fakeConductor{}
	upgrader := websocket.Upgrader{}
	fake.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fake.mu.Lock()
		fake.conns = append(fake.conns, conn)
		fake.mu.Unlock()

		var writeMu sync.Mutex
		reply := func(id uint64, kind string, data interface{}) {
			encodedData, _ := msgpack.Marshal(data)
			payload, _ := msgpack.Marshal(map[string]interface{}{"type": kind, "data": msgpack.RawMessage(encodedData)})
			frame, _ := msgpack.Marshal(&wireMessage{ID: id, Type: wireResponse, Data: payload})
			writeMu.Lock()
			defer writeMu.Unlock()
			conn.WriteMessage(websocket.BinaryMessage, frame)
		}

		batch := []incoming{}
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			message := wireMessage{}
			if msgpack.Unmarshal(raw, &message) != nil {
				continue
			}
			request := response{}
			if msgpack.Unmarshal(message.Data, &request) != nil {
				continue
			}
			batch = append(batch, incoming{id: message.ID, request: request})
			if len(batch) >= size {
				handle(batch, reply)
				batch = []incoming{}
			}
		}
	}))
	t.Cleanup(fake.Close)
	return fake
}

func (it *fakeConductor) URL() string {
	return "ws" + strings.TrimPrefix(it.server.URL, "http")
}

func (it *fakeConductor) DropConnections() {
	it.mu.Lock()
	defer it.mu.Unlock()
	for _, conn := range it.conns {
		conn.Close()
	}
	it.conns = nil
}

func (it *fakeConductor) Close() {
	it.DropConnections()
	it.server.Close()
}
