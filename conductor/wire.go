package conductor

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	wireRequest  = "Request"
	wireResponse = "Response"
	wireSignal   = "Signal"

	responseError = "error"
)

var (
	ErrClosed             = errors.New("conductor connection closed")
	ErrUnexpectedResponse = errors.New("unexpected conductor response")
)

// wireMessage is the envelope of every frame exchanged with the conductor.
type wireMessage struct {
	ID   uint64 `msgpack:"id"`
	Type string `msgpack:"type"`
	Data []byte `msgpack:"data"`
}

// Request is the tagged payload carried inside a wire request.
type Request struct {
	Type string      `msgpack:"type"`
	Data interface{} `msgpack:"data"`
}

type response struct {
	Type string             `msgpack:"type"`
	Data msgpack.RawMessage `msgpack:"data"`
}

type errorPayload struct {
	Type string             `msgpack:"type"`
	Data msgpack.RawMessage `msgpack:"data"`
}

// ResponseError is returned when the conductor answers with an error.
type ResponseError struct {
	Request string
	Type    string
	Message string
}

func (it *ResponseError) Error() string {
	if len(it.Message) == 0 {
		return fmt.Sprintf("conductor %s failed: %s", it.Request, it.Type)
	}
	return fmt.Sprintf("conductor %s failed: %s: %s", it.Request, it.Type, it.Message)
}

func decodeError(request string, raw msgpack.RawMessage) error {
	payload := errorPayload{}
	if err := msgpack.Unmarshal(raw, &payload); err != nil {
		return &ResponseError{Request: request, Type: "undecodable", Message: err.Error()}
	}
	message := ""
	if len(payload.Data) > 0 {
		var text string
		if msgpack.Unmarshal(payload.Data, &text) == nil {
			message = text
		} else {
			var anything interface{}
			if msgpack.Unmarshal(payload.Data, &anything) == nil {
				message = fmt.Sprintf("%v", anything)
			}
		}
	}
	return &ResponseError{Request: request, Type: payload.Type, Message: message}
}
