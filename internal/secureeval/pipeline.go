// Package secureeval implements C5, the three-layer defense applied to
// browser_evaluate when the secure_eval experiment is on (spec §4.5):
// static allow/deny-list screening before forwarding a command, backed
// by dop251/goja's ECMAScript parser for Layer 1. The Proxy traps of the
// membrane and page-proxy layers run in the peer, not in this package.
package secureeval

import (
	"context"
	"fmt"
)

// Verdict is Evaluate's outcome: either Safe with an expression ready to
// send to the page (already layer-3-wrapped), or unsafe with a Reason
// naming the blocking layer (spec §4.5: "errors from any layer surface to
// the agent with the originating layer named").
type Verdict struct {
	Safe              bool
	Reason            string
	WrappedExpression string
}

// Evaluate runs the three-layer pipeline against source. peer is used for
// the Layer 2 round-trip only; if it reports Available:false the layer is
// treated as skipped rather than failed (spec §4.5: "If the extension
// lacks Layer 2 (older client), treat Layer 2 failure as skip").
func Evaluate(ctx context.Context, source string, peer Peer) (Verdict, error) {
	if blocked, chain := screenSource(source); blocked {
		return Verdict{Safe: false, Reason: fmt.Sprintf("[secure_eval:static] Blocked: %s", chain)}, nil
	}

	verdict, err := peer.ValidateEval(ctx, source)
	if err != nil {
		return Verdict{}, err
	}
	if verdict.Available && !verdict.Safe {
		reason := verdict.Reason
		if reason == "" {
			reason = "blocked by membrane"
		}
		return Verdict{Safe: false, Reason: fmt.Sprintf("[secure_eval:membrane] Blocked: %s", reason)}, nil
	}

	return Verdict{Safe: true, WrappedExpression: wrapForPageProxy(source)}, nil
}
