// Package wire defines the JSON-RPC 2.0 frame shapes exchanged between the
// broker and the extension peer, and between the agent and the broker's
// stdio frontends. Each frame is one JSON object; this package only
// describes their shape and classification, not how they are transported.
package wire

import (
	"bytes"
	"encoding/json"
)

// Version is the JSON-RPC protocol version string carried on every frame.
const Version = "2.0"

// Request is an outbound or inbound JSON-RPC request/response envelope.
// A custom UnmarshalJSON is needed for ID tracking because JSON-RPC 2.0
// allows id to be a string, a number, or entirely absent, and those three
// cases must be told apart to classify a frame as request/response/
// notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`

	idPresent       bool
	idExplicitNull  bool
	idInvalidFormat bool
}

// UnmarshalJSON captures whether id was present on the wire and whether it
// was explicitly null, which a plain struct tag cannot distinguish from
// "absent."
func (r *Request) UnmarshalJSON(data []byte) error {
	type shape struct {
		JSONRPC string          `json:"jsonrpc"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}
	var s shape
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		return err
	}

	r.JSONRPC = s.JSONRPC
	r.Method = s.Method
	r.Params = s.Params
	r.ID = nil
	r.idExplicitNull = false
	r.idInvalidFormat = false

	rawID, ok := object["id"]
	r.idPresent = ok
	if !ok {
		return nil
	}

	trimmed := bytes.TrimSpace(rawID)
	if bytes.Equal(trimmed, []byte("null")) {
		r.idExplicitNull = true
		return nil
	}

	var parsed any
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	switch parsed.(type) {
	case string, float64:
		r.ID = parsed
	default:
		r.idInvalidFormat = true
	}
	return nil
}

// HasID reports whether the frame carries a non-null id, i.e. is a request
// expecting a response rather than a notification.
func (r Request) HasID() bool {
	return r.idPresent && !r.idExplicitNull && r.ID != nil
}

// IsNotification reports whether the frame has a method and no id.
func (r Request) IsNotification() bool {
	return r.Method != "" && !r.idPresent
}

// HasInvalidID reports whether id was present but neither a string nor a
// number (explicit null counts as invalid for request purposes).
func (r Request) HasInvalidID() bool {
	return r.idExplicitNull || r.idInvalidFormat
}

// Response is an outbound or inbound JSON-RPC response envelope.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// IsResponse reports whether a decoded generic frame looks like a response:
// an id is present and no method is set.
func IsResponse(object map[string]json.RawMessage) bool {
	_, hasID := object["id"]
	_, hasMethod := object["method"]
	return hasID && !hasMethod
}

// Error is a JSON-RPC 2.0 error payload. Stack is extension-side only,
// per spec §4.6 ("send back ... or {..., error:{message,stack}}").
type Error struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// Notification is a JSON-RPC frame with a method and no id.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Handshake is the one-shot, id-less frame the extension peer sends
// immediately after the WebSocket upgrade completes (spec §4.6, §6).
type Handshake struct {
	Type           string  `json:"type"`
	Browser        string  `json:"browser"`
	Version        string  `json:"version"`
	BuildTimestamp *string `json:"buildTimestamp"`
}

// IsHandshake reports whether a decoded generic frame is a handshake frame.
func IsHandshake(object map[string]json.RawMessage) bool {
	raw, ok := object["type"]
	if !ok {
		return false
	}
	var t string
	if err := json.Unmarshal(raw, &t); err != nil {
		return false
	}
	return t == "handshake"
}

// NewRequest builds an outbound request frame with the given correlation id.
func NewRequest(id, method string, params any) (Request, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Request{}, err
	}
	return Request{JSONRPC: Version, ID: id, Method: method, Params: raw}, nil
}

// NewNotification builds an outbound notification frame (no id).
func NewNotification(method string, params any) (Notification, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Notification{}, err
	}
	return Notification{JSONRPC: Version, Method: method, Params: raw}, nil
}

// SuccessResponse builds a response frame carrying a result.
func SuccessResponse(id any, result any) (Response, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return Response{}, err
	}
	return Response{JSONRPC: Version, ID: id, Result: raw}, nil
}

// ErrorResponse builds a response frame carrying an error.
func ErrorResponse(id any, code int, message string) Response {
	return Response{JSONRPC: Version, ID: id, Error: &Error{Code: code, Message: message}}
}
