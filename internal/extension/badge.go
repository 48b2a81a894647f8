// badge.go — the toolbar badge/icon manager (spec §4.6): keeps an
// indicator in sync with attachedTabId and stealthMode as tabs are
// attached, closed, or put into/out of stealth. There is no real
// browser toolbar in this reference peer, so BadgeManager just tracks
// the text a real extension's chrome.action.setBadgeText call would
// receive, for tests and for an integration harness to assert against.
package extension

import (
	"fmt"
	"sync"
)

// BadgeManager tracks the label a toolbar badge would display.
type BadgeManager struct {
	mu    sync.Mutex
	label string
}

// NewBadgeManager returns a manager with no tab attached.
func NewBadgeManager() *BadgeManager { return &BadgeManager{label: ""} }

// Sync recomputes the badge label from the current attachment/stealth
// state. Call it after every tab attach/close and every stealth toggle.
func (b *BadgeManager) Sync(attachedTabID int, attached, stealth bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case !attached:
		b.label = ""
	case stealth:
		b.label = fmt.Sprintf("tab %d (stealth)", attachedTabID)
	default:
		b.label = fmt.Sprintf("tab %d", attachedTabID)
	}
}

// Label returns the current badge text.
func (b *BadgeManager) Label() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.label
}
