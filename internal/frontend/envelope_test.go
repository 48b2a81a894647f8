package frontend

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFrameResult_UsesTextWhenPresent(t *testing.T) {
	raw, err := frameResult(map[string]any{"text": "done"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var env framedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if env.IsError {
		t.Fatal("expected isError to be false")
	}
	if len(env.Content) != 1 || env.Content[0].Text != "done" {
		t.Fatalf("unexpected content: %+v", env.Content)
	}
}

func TestFrameResult_RendersDataAsJSONWhenNoText(t *testing.T) {
	raw, err := frameResult(map[string]any{"data": map[string]any{"tabs": []int{1, 2}}}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var env framedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if env.Content[0].Text != `{"tabs":[1,2]}` {
		t.Fatalf("unexpected content text: %q", env.Content[0].Text)
	}
}

func TestFrameResult_PropagatesIsError(t *testing.T) {
	raw, err := frameResult(map[string]any{"isError": true, "text": "blocked: fetch"}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var env framedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if !env.IsError {
		t.Fatal("expected isError to be true")
	}
	if env.Content[0].Text != "blocked: fetch" {
		t.Fatalf("unexpected content text: %q", env.Content[0].Text)
	}
}

func TestFrameError_WrapsErrorMessage(t *testing.T) {
	raw := frameError(errors.New("not connected: call enable first"), "")
	var env framedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if !env.IsError {
		t.Fatal("expected isError to be true")
	}
	if env.Content[0].Text != "not connected: call enable first" {
		t.Fatalf("unexpected content text: %q", env.Content[0].Text)
	}
}

func TestFrameResult_PrefixesStatusHeader(t *testing.T) {
	raw, err := frameResult(map[string]any{"text": "done"}, "[supersurf: connected] ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var env framedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if env.Content[0].Text != "[supersurf: connected] done" {
		t.Fatalf("unexpected content text: %q", env.Content[0].Text)
	}
}

func TestFrameError_PrefixesStatusHeader(t *testing.T) {
	raw := frameError(errors.New("disconnected"), "[supersurf: passive] ")
	var env framedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if env.Content[0].Text != "[supersurf: passive] disconnected" {
		t.Fatalf("unexpected content text: %q", env.Content[0].Text)
	}
}
