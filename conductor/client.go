package conductor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/compository/app/common"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	writeTimeout            = 10 * time.Second
)

type Options struct {
	HandshakeTimeout time.Duration
	// RequestTimeout bounds a single request when the caller's context has no deadline. Zero disables it.
	RequestTimeout time.Duration
	Header         http.Header
}

type reply struct {
	data []byte
	err  error
}

// Client multiplexes concurrent requests over one conductor websocket.
// Responses are matched to requests by id; a single goroutine reads.
type Client struct {
	url     string
	options Options
	conn    *websocket.Conn

	nextID  atomic.Uint64
	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan reply
	err     error
	done    chan struct{}
}

func Dial(ctx context.Context, url string, options Options) (*Client, error) {
	if options.HandshakeTimeout <= 0 {
		options.HandshakeTimeout = defaultHandshakeTimeout
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: options.HandshakeTimeout,
	}
	conn, _, err := dialer.DialContext(ctx, url, options.Header)
	if err != nil {
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}
	common.Debug("connected to conductor at %s", url)

	client := &Client{
		url:     url,
		options: options,
		conn:    conn,
		pending: make(map[uint64]chan reply),
		done:    make(chan struct{}),
	}
	go client.readLoop()
	return client, nil
}

func (it *Client) URL() string {
	return it.url
}

// Done is closed once the connection is gone.
func (it *Client) Done() <-chan struct{} {
	return it.done
}

func (it *Client) Close() error {
	it.writeMu.Lock()
	_ = it.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	it.writeMu.Unlock()
	err := it.conn.Close()
	it.shutdown(ErrClosed)
	return err
}

func (it *Client) shutdown(reason error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.err != nil {
		return
	}
	it.err = reason
	for id, waiting := range it.pending {
		waiting <- reply{err: reason}
		delete(it.pending, id)
	}
	close(it.done)
}

func (it *Client) readLoop() {
	for {
		messageType, raw, err := it.conn.ReadMessage()
		if err != nil {
			common.Trace("conductor %s read loop ends: %v", it.url, err)
			it.shutdown(fmt.Errorf("%w: %v", ErrClosed, err))
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		message := wireMessage{}
		if err := msgpack.Unmarshal(raw, &message); err != nil {
			common.Uncritical("conductor frame", err)
			continue
		}
		switch message.Type {
		case wireResponse:
			it.deliver(message.ID, message.Data)
		case wireSignal:
			common.Trace("conductor %s signal (%d bytes) ignored", it.url, len(message.Data))
		default:
			common.Trace("conductor %s unknown frame type %q", it.url, message.Type)
		}
	}
}

func (it *Client) deliver(id uint64, data []byte) {
	it.mu.Lock()
	waiting, ok := it.pending[id]
	delete(it.pending, id)
	it.mu.Unlock()
	if !ok {
		common.Trace("conductor response %d has no waiter", id)
		return
	}
	waiting <- reply{data: data}
}

func (it *Client) register() (uint64, chan reply, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if it.err != nil {
		return 0, nil, it.err
	}
	id := it.nextID.Add(1)
	waiting := make(chan reply, 1)
	it.pending[id] = waiting
	return id, waiting, nil
}

func (it *Client) forget(id uint64) {
	it.mu.Lock()
	delete(it.pending, id)
	it.mu.Unlock()
}

func (it *Client) send(id uint64, payload []byte) error {
	frame, err := msgpack.Marshal(&wireMessage{ID: id, Type: wireRequest, Data: payload})
	if err != nil {
		return err
	}
	it.writeMu.Lock()
	defer it.writeMu.Unlock()
	it.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return it.conn.WriteMessage(websocket.BinaryMessage, frame)
}

// Call sends a request and decodes the answer into out (when out is not nil).
// The conductor's answer type must equal expected unless expected is empty.
func (it *Client) Call(ctx context.Context, request Request, expected string, out interface{}) error {
	if _, ok := ctx.Deadline(); !ok && it.options.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, it.options.RequestTimeout)
		defer cancel()
	}

	payload, err := msgpack.Marshal(&request)
	if err != nil {
		return fmt.Errorf("encode %s: %w", request.Type, err)
	}
	id, waiting, err := it.register()
	if err != nil {
		return err
	}
	common.Trace("conductor -> #%d %s", id, request.Type)
	if err := it.send(id, payload); err != nil {
		it.forget(id)
		return fmt.Errorf("send %s: %w", request.Type, err)
	}

	var answer reply
	select {
	case <-ctx.Done():
		it.forget(id)
		return fmt.Errorf("%s: %w", request.Type, ctx.Err())
	case answer = <-waiting:
	}
	if answer.err != nil {
		return answer.err
	}

	decoded := response{}
	if err := msgpack.Unmarshal(answer.data, &decoded); err != nil {
		return fmt.Errorf("decode %s response: %w", request.Type, err)
	}
	common.Trace("conductor <- #%d %s", id, decoded.Type)
	if decoded.Type == responseError {
		return decodeError(request.Type, decoded.Data)
	}
	if len(expected) > 0 && decoded.Type != expected {
		return fmt.Errorf("%w: %s answered with %q, expected %q", ErrUnexpectedResponse, request.Type, decoded.Type, expected)
	}
	if out == nil || len(decoded.Data) == 0 {
		return nil
	}
	if err := msgpack.Unmarshal(decoded.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", decoded.Type, err)
	}
	return nil
}
