package extension

import "testing"

func TestDebuggerPolicy_AttachThenConflict(t *testing.T) {
	d := NewDebuggerPolicy()
	if err := d.Attach(1); err != nil {
		t.Fatalf("first attach should succeed: %v", err)
	}
	if err := d.Attach(2); err == nil {
		t.Fatal("expected ErrDebuggerBusy attaching a second tab")
	} else if busy, ok := err.(*ErrDebuggerBusy); !ok || busy.AttachedTabID != 1 {
		t.Fatalf("expected ErrDebuggerBusy{AttachedTabID:1}, got %v", err)
	}
}

func TestDebuggerPolicy_ReattachingSameTabIsNoOp(t *testing.T) {
	d := NewDebuggerPolicy()
	_ = d.Attach(1)
	if err := d.Attach(1); err != nil {
		t.Fatalf("re-attaching the same tab should not error: %v", err)
	}
}

func TestDebuggerPolicy_DetachFreesTheSlot(t *testing.T) {
	d := NewDebuggerPolicy()
	_ = d.Attach(1)
	d.Detach(1)
	if _, ok := d.AttachedTab(); ok {
		t.Fatal("expected no tab attached after detach")
	}
	if err := d.Attach(2); err != nil {
		t.Fatalf("expected slot free after detach: %v", err)
	}
}

func TestDebuggerPolicy_DetachingWrongTabIsNoOp(t *testing.T) {
	d := NewDebuggerPolicy()
	_ = d.Attach(1)
	d.Detach(2)
	tabID, ok := d.AttachedTab()
	if !ok || tabID != 1 {
		t.Fatalf("expected tab 1 to remain attached, got tabID=%d ok=%v", tabID, ok)
	}
}
