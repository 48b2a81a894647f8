package frontend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func runScript(t *testing.T, manager Manager, input string) []map[string]any {
	t.Helper()
	mode := NewScriptMode(discardLogger(), manager)
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

func TestScriptMode_DispatchesWithRawResultTrue(t *testing.T) {
	manager := &fakeManager{dispatch: func(ctx context.Context, tool string, args json.RawMessage, rawResult bool) (any, error) {
		if !rawResult {
			t.Fatal("script mode must call Dispatch with rawResult=true")
		}
		return map[string]any{"success": true}, nil
	}}
	results := runScript(t, manager, `{"jsonrpc":"2.0","id":"1","method":"browser_click","params":{}}`+"\n")
	if len(results) != 1 {
		t.Fatalf("expected one response, got %d", len(results))
	}
	result := results[0]["result"].(map[string]any)
	if result["success"] != true {
		t.Fatalf("unexpected raw result: %+v", result)
	}
}

func TestScriptMode_ParseErrorIs32700(t *testing.T) {
	results := runScript(t, &fakeManager{}, `not json`+"\n")
	errObj := results[0]["error"].(map[string]any)
	if int(errObj["code"].(float64)) != -32700 {
		t.Fatalf("expected -32700, got %+v", errObj)
	}
}

func TestScriptMode_MissingMethodIs32600(t *testing.T) {
	results := runScript(t, &fakeManager{}, `{"jsonrpc":"2.0","id":"1"}`+"\n")
	errObj := results[0]["error"].(map[string]any)
	if int(errObj["code"].(float64)) != -32600 {
		t.Fatalf("expected -32600, got %+v", errObj)
	}
}

func TestScriptMode_WrongJSONRPCVersionIs32600(t *testing.T) {
	results := runScript(t, &fakeManager{}, `{"jsonrpc":"1.0","id":"1","method":"ping"}`+"\n")
	errObj := results[0]["error"].(map[string]any)
	if int(errObj["code"].(float64)) != -32600 {
		t.Fatalf("expected -32600, got %+v", errObj)
	}
}

func TestScriptMode_DispatchErrorIs32000(t *testing.T) {
	manager := &fakeManager{dispatch: func(ctx context.Context, tool string, args json.RawMessage, rawResult bool) (any, error) {
		return nil, errors.New("unknown tool: nope")
	}}
	results := runScript(t, manager, `{"jsonrpc":"2.0","id":"1","method":"nope"}`+"\n")
	errObj := results[0]["error"].(map[string]any)
	if int(errObj["code"].(float64)) != -32000 {
		t.Fatalf("expected -32000, got %+v", errObj)
	}
}

func TestScriptMode_BatchArrayProducesBatchResponse(t *testing.T) {
	calls := 0
	manager := &fakeManager{dispatch: func(ctx context.Context, tool string, args json.RawMessage, rawResult bool) (any, error) {
		calls++
		return map[string]any{"ok": true}, nil
	}}
	var out bytes.Buffer
	mode := NewScriptMode(discardLogger(), manager)
	input := `[{"jsonrpc":"2.0","id":"1","method":"a"},{"jsonrpc":"2.0","id":"2","method":"b"}]` + "\n"
	if err := mode.Run(context.Background(), strings.NewReader(input), &out); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	var batch []map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &batch); err != nil {
		t.Fatalf("expected a JSON array response, got %q: %v", out.String(), err)
	}
	if len(batch) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(batch))
	}
	if calls != 2 {
		t.Fatalf("expected 2 dispatch calls, got %d", calls)
	}
}
