package frontend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/h8ngry/supersurf/internal/connection"
)

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func runMCP(t *testing.T, manager Manager, input string) []map[string]any {
	t.Helper()
	mode := NewMCPMode(discardLogger(), manager, "1.0.0")
	var out bytes.Buffer
	if err := mode.Run(context.Background(), strings.NewReader(input), &out); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	var results []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("failed to decode response line %q: %v", line, err)
		}
		results = append(results, m)
	}
	return results
}

func TestMCPMode_Initialize(t *testing.T) {
	results := runMCP(t, &fakeManager{}, `{"jsonrpc":"2.0","id":"1","method":"initialize"}`+"\n")
	if len(results) != 1 {
		t.Fatalf("expected one response, got %d", len(results))
	}
	result, ok := results[0]["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected a result object, got %+v", results[0])
	}
	if result["protocolVersion"] != protocolVersion {
		t.Fatalf("unexpected protocolVersion: %+v", result)
	}
}

func TestMCPMode_ListTools(t *testing.T) {
	manager := &fakeManager{tools: []connection.ToolDescriptor{{Name: "enable", Description: "enable it"}}}
	results := runMCP(t, manager, `{"jsonrpc":"2.0","id":"2","method":"listTools"}`+"\n")
	result := results[0]["result"].(map[string]any)
	tools := result["tools"].([]any)
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
}

func TestMCPMode_CallToolSuccessIsFramed(t *testing.T) {
	manager := &fakeManager{dispatch: func(ctx context.Context, tool string, args json.RawMessage, rawResult bool) (any, error) {
		if rawResult {
			t.Fatal("MCP mode must call Dispatch with rawResult=false")
		}
		return map[string]any{"text": "clicked"}, nil
	}}
	results := runMCP(t, manager, `{"jsonrpc":"2.0","id":"3","method":"callTool","params":{"name":"browser_click","arguments":{}}}`+"\n")
	result := results[0]["result"].(map[string]any)
	content := result["content"].([]any)[0].(map[string]any)
	if content["text"] != "clicked" {
		t.Fatalf("unexpected content: %+v", content)
	}
	if result["isError"] == true {
		t.Fatal("did not expect isError")
	}
}

func TestMCPMode_CallToolErrorIsFramedNotJSONRPCError(t *testing.T) {
	manager := &fakeManager{dispatch: func(ctx context.Context, tool string, args json.RawMessage, rawResult bool) (any, error) {
		return nil, errors.New("not connected: call enable first")
	}}
	results := runMCP(t, manager, `{"jsonrpc":"2.0","id":"4","method":"callTool","params":{"name":"browser_click","arguments":{}}}`+"\n")
	if results[0]["error"] != nil {
		t.Fatalf("expected the dispatch error to be framed, not surfaced as a JSON-RPC error: %+v", results[0])
	}
	result := results[0]["result"].(map[string]any)
	if result["isError"] != true {
		t.Fatalf("expected isError:true, got %+v", result)
	}
}

func TestMCPMode_UnknownMethodIsJSONRPCError(t *testing.T) {
	results := runMCP(t, &fakeManager{}, `{"jsonrpc":"2.0","id":"5","method":"notAThing"}`+"\n")
	errObj, ok := results[0]["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected a JSON-RPC error, got %+v", results[0])
	}
	if int(errObj["code"].(float64)) != -32601 {
		t.Fatalf("unexpected error code: %+v", errObj)
	}
}

func TestMCPMode_NotificationGetsNoResponse(t *testing.T) {
	results := runMCP(t, &fakeManager{}, `{"jsonrpc":"2.0","method":"initialized"}`+"\n")
	if len(results) != 0 {
		t.Fatalf("expected no response for a notification, got %+v", results)
	}
}

type fakeManagerWithHeader struct {
	fakeManager
	header string
}

func (f *fakeManagerWithHeader) Header() string { return f.header }

func TestMCPMode_CallToolPrefixesStatusHeader(t *testing.T) {
	manager := &fakeManagerWithHeader{
		fakeManager: fakeManager{dispatch: func(ctx context.Context, tool string, args json.RawMessage, rawResult bool) (any, error) {
			return map[string]any{"text": "clicked"}, nil
		}},
		header: "[supersurf: connected to chrome] ",
	}
	results := runMCP(t, manager, `{"jsonrpc":"2.0","id":"6","method":"callTool","params":{"name":"browser_click","arguments":{}}}`+"\n")
	result := results[0]["result"].(map[string]any)
	content := result["content"].([]any)[0].(map[string]any)
	if content["text"] != "[supersurf: connected to chrome] clicked" {
		t.Fatalf("expected status header prefix, got %+v", content)
	}
}
