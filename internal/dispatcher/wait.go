// wait.go — the adaptive-waiting experiment (spec §4.4.2): after
// navigation, invoke the extension's waitForReady(timeout) instead of a
// fixed delay, falling back to the fixed delay on timeout or absence.
package dispatcher

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/h8ngry/supersurf/internal/transport"
)

type waitForReadyResult struct {
	Ready bool `json:"ready"`
}

// waitForReady asks the extension to combine DOM-stability and
// network-idle detection, bounded by timeout. A missing extension-side
// implementation (older client) is distinguished from a timeout only by
// message text; both are treated identically by the caller (fall back to
// the fixed delay), so the distinction is informational only.
func waitForReady(ctx context.Context, t *transport.Transport, timeout time.Duration) (bool, error) {
	raw, err := t.SendCmd(ctx, "waitForReady", map[string]any{"timeoutMs": timeout.Milliseconds()}, timeout)
	if err != nil {
		if strings.Contains(err.Error(), "unknown method") {
			return false, nil
		}
		return false, err
	}
	var result waitForReadyResult
	if json.Unmarshal(raw, &result) != nil {
		return false, nil
	}
	return result.Ready, nil
}
