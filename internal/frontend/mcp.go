package frontend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/h8ngry/supersurf/internal/wire"
)

// maxFrameBytes bounds a single Content-Length declared body (spec §4.8
// names no explicit limit; 10 MiB comfortably covers any single tool
// call or result).
const maxFrameBytes = 10 * 1024 * 1024

const protocolVersion = "2024-11-05"

// MCPMode serves the agent-protocol stdio frontend: content/isError
// framing, listTools/callTool methods (spec §4.8), accepting the
// tools/list and tools/call aliases a conventional MCP client sends.
// Accepts either line-delimited or Content-Length framed input so
// either client convention works.
type MCPMode struct {
	logger  *logrus.Logger
	manager Manager
	version string
}

// NewMCPMode constructs the MCP-framed frontend.
func NewMCPMode(logger *logrus.Logger, manager Manager, version string) *MCPMode {
	return &MCPMode{logger: logger, manager: manager, version: version}
}

// Run drives request/response frames between in and out until in is
// exhausted or ctx is canceled. Each frame is handled synchronously and
// in order, matching the single-event-loop model (spec §5).
func (m *MCPMode) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		raw, err := readMessage(reader, maxFrameBytes)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if len(raw) == 0 {
			continue
		}

		var req wire.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			m.writeResponse(out, wire.ErrorResponse(nil, -32700, "parse error: "+err.Error()))
			continue
		}
		if req.IsNotification() {
			continue
		}

		resp := m.handle(ctx, req)
		m.writeResponse(out, resp)
	}
}

func (m *MCPMode) handle(ctx context.Context, req wire.Request) wire.Response {
	switch req.Method {
	case "initialize":
		return m.handleInitialize(req)
	case "initialized":
		result, _ := json.Marshal(map[string]any{})
		return wire.Response{JSONRPC: wire.Version, ID: req.ID, Result: result}
	case "listTools", "tools/list":
		return m.handleListTools(req)
	case "callTool", "tools/call":
		return m.handleCallTool(ctx, req)
	default:
		return wire.ErrorResponse(req.ID, -32601, "method not found: "+req.Method)
	}
}

func (m *MCPMode) handleInitialize(req wire.Request) wire.Response {
	result, err := json.Marshal(map[string]any{
		"protocolVersion": protocolVersion,
		"serverInfo":      map[string]string{"name": "supersurf", "version": m.version},
		"capabilities":    map[string]any{"tools": map[string]any{}},
	})
	if err != nil {
		return wire.ErrorResponse(req.ID, -32603, err.Error())
	}
	return wire.Response{JSONRPC: wire.Version, ID: req.ID, Result: result}
}

func (m *MCPMode) handleListTools(req wire.Request) wire.Response {
	result, err := json.Marshal(map[string]any{"tools": m.manager.ListTools()})
	if err != nil {
		return wire.ErrorResponse(req.ID, -32603, err.Error())
	}
	return wire.Response{JSONRPC: wire.Version, ID: req.ID, Result: result}
}

func (m *MCPMode) handleCallTool(ctx context.Context, req wire.Request) wire.Response {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return wire.ErrorResponse(req.ID, -32602, "invalid params: "+err.Error())
	}

	header := m.statusHeader()
	result, err := m.manager.Dispatch(ctx, params.Name, params.Arguments, false)
	if err != nil {
		return wire.Response{JSONRPC: wire.Version, ID: req.ID, Result: frameError(err, header)}
	}
	framed, err := frameResult(result, header)
	if err != nil {
		return wire.ErrorResponse(req.ID, -32603, err.Error())
	}
	return wire.Response{JSONRPC: wire.Version, ID: req.ID, Result: framed}
}

// headerProvider is the optional surface a Manager can expose to have its
// status line prefixed onto every framed response (spec §6). Declared
// separately from the required Manager interface so test doubles that
// don't track connection state aren't forced to implement it.
type headerProvider interface {
	Header() string
}

func (m *MCPMode) statusHeader() string {
	if hp, ok := m.manager.(headerProvider); ok {
		return hp.Header()
	}
	return ""
}

func (m *MCPMode) writeResponse(out io.Writer, resp wire.Response) {
	raw, err := json.Marshal(resp)
	if err != nil {
		m.logger.WithError(err).Error("failed to marshal mcp response")
		return
	}
	if _, err := fmt.Fprintln(out, string(raw)); err != nil {
		m.logger.WithError(err).Error("failed to write mcp response")
	}
}
