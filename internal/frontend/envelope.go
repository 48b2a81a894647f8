package frontend

import "encoding/json"

// contentBlock is the MCP content envelope's single block shape this
// broker produces (spec §4.8): text. Modeled as a struct rather than the
// teacher's raw []map[string]string to keep marshaling predictable.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// framedEnvelope is MCP mode's {content:[{type,text}], isError?} shape.
type framedEnvelope struct {
	Content []contentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// rawToolResult mirrors dispatcher's unexported toolResult wire shape
// ({isError, data, text}) that every handler returns regardless of call
// mode (spec §4.8's "raw" mode). Decoding through JSON rather than a type
// assertion keeps this package from needing to import dispatcher.
type rawToolResult struct {
	IsError bool            `json:"isError,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Text    string          `json:"text,omitempty"`
}

func decodeToolResult(result any) (rawToolResult, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return rawToolResult{}, err
	}
	var decoded rawToolResult
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return rawToolResult{}, err
	}
	return decoded, nil
}

// frameResult builds MCP mode's success envelope from a dispatcher
// result, prefixed with the connection status header (spec §6: "injected
// by broker into every framed response"). header is empty when the
// Manager doesn't expose one (scriptable/test managers).
func frameResult(result any, header string) (json.RawMessage, error) {
	decoded, err := decodeToolResult(result)
	if err != nil {
		return nil, err
	}
	return json.Marshal(framedEnvelope{
		Content: []contentBlock{{Type: "text", Text: header + contentText(decoded)}},
		IsError: decoded.IsError,
	})
}

// contentText picks Text verbatim when a handler set one (error messages,
// human-readable confirmations), else renders Data as JSON text.
func contentText(r rawToolResult) string {
	if r.Text != "" {
		return r.Text
	}
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return ""
	}
	return string(r.Data)
}

// frameError builds an isError:true envelope from a Dispatch error, used
// when the error comes back through the error return rather than inside
// a toolResult (e.g. unknown tool, disconnected).
func frameError(err error, header string) json.RawMessage {
	raw, marshalErr := json.Marshal(framedEnvelope{
		Content: []contentBlock{{Type: "text", Text: header + err.Error()}},
		IsError: true,
	})
	if marshalErr != nil {
		return json.RawMessage(`{"content":[{"type":"text","text":"internal error"}],"isError":true}`)
	}
	return raw
}
