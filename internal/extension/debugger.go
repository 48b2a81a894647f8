// debugger.go — the single-debugger-attachment policy (spec §4.6): only
// one tab may have CDP attached at a time per browser, tracked as one
// mutex-guarded attach/detach slot.
package extension

import (
	"fmt"
	"sync"
)

// ErrDebuggerBusy reports that another tab already holds the debugger
// attachment, with remediation routed by the broker (spec §4.6).
type ErrDebuggerBusy struct {
	AttachedTabID int
}

func (e *ErrDebuggerBusy) Error() string {
	return fmt.Sprintf("another extension is using the debugger on tab %d", e.AttachedTabID)
}

// DebuggerPolicy enforces the one-tab-at-a-time CDP attachment rule.
type DebuggerPolicy struct {
	mu       sync.Mutex
	tabID    int
	attached bool
}

// NewDebuggerPolicy returns a policy with no tab attached.
func NewDebuggerPolicy() *DebuggerPolicy { return &DebuggerPolicy{} }

// Attach claims the debugger for tabID, or reports ErrDebuggerBusy if a
// different tab already holds it. Re-attaching the same tab is a no-op.
func (d *DebuggerPolicy) Attach(tabID int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.attached && d.tabID != tabID {
		return &ErrDebuggerBusy{AttachedTabID: d.tabID}
	}
	d.attached = true
	d.tabID = tabID
	return nil
}

// Detach releases the debugger if tabID currently holds it; detaching a
// tab that isn't attached is a no-op (spec §4.6's "detaches on close of
// the attached tab").
func (d *DebuggerPolicy) Detach(tabID int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.attached && d.tabID == tabID {
		d.attached = false
		d.tabID = 0
	}
}

// AttachedTab reports the currently attached tab, if any.
func (d *DebuggerPolicy) AttachedTab() (tabID int, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tabID, d.attached
}
