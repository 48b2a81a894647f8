package extension

import "testing"

func TestSandbox_EvaluateArithmetic(t *testing.T) {
	s := NewSandbox()
	raw, exc := s.Evaluate("2 + 2")
	if exc != "" {
		t.Fatalf("unexpected exception: %s", exc)
	}
	if string(raw) != "4" {
		t.Fatalf("expected 4, got %s", raw)
	}
}

func TestSandbox_EvaluateThrowReportsDescription(t *testing.T) {
	s := NewSandbox()
	_, exc := s.Evaluate("throw new Error('boom')")
	if exc == "" {
		t.Fatal("expected an exception description")
	}
}

func TestSandbox_SnapshotReflectsVisibleTextOnly(t *testing.T) {
	s := NewSandbox()
	s.SetTexts([]PageText{
		{Text: "visible one", Visible: true},
		{Text: "hidden one", Visible: false},
	})
	entries, _ := s.Snapshot()
	if len(entries) != 1 || entries[0] != "visible one" {
		t.Fatalf("expected only the visible entry, got %v", entries)
	}
}
