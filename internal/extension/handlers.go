// handlers.go — registers the reference peer's command handlers against
// a Router (spec §4.12): the CDP-forwarding commands the dispatcher
// issues, plus the extension-native ones (capturePageState, waitForReady,
// humanizedMouseMove, validateEval).
package extension

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

// Peer bundles everything RegisterHandlers needs: one simulated tab, its
// session state, and the debugger-attachment policy.
type Peer struct {
	Sandbox   *Sandbox
	Sessions  *SessionStore
	Debugger  *DebuggerPolicy
	Badge     *BadgeManager
	IdleDrift *IdleDriftController

	humanizationEnabled bool
}

// NewPeer builds a Peer with a fresh sandboxed tab, bound to scheduler
// for the idle-drift alarm (spec §4.7).
func NewPeer(sessions *SessionStore, scheduler Scheduler) *Peer {
	rng := rand.New(rand.NewSource(1))
	return &Peer{
		Sandbox:   NewSandbox(),
		Sessions:  sessions,
		Debugger:  NewDebuggerPolicy(),
		Badge:     NewBadgeManager(),
		IdleDrift: NewIdleDriftController(scheduler, sessions, rng),
	}
}

// SetHumanizationEnabled toggles whether attaching a tab starts the
// idle-drift alarm (spec §4.7: "while enabled and a tab is attached").
func (p *Peer) SetHumanizationEnabled(enabled bool) {
	p.humanizationEnabled = enabled
}

// RegisterHandlers wires every command Peer answers onto router.
func (p *Peer) RegisterHandlers(router *Router) {
	router.Handle("cdp", p.handleCDP)
	router.Handle("capturePageState", p.handleCapturePageState)
	router.Handle("waitForReady", p.handleWaitForReady)
	router.Handle("humanizedMouseMove", p.handleHumanizedMouseMove)
	router.Handle("validateEval", p.handleValidateEval)
	p.RegisterTabHandlers(router)
}

type cdpParams struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// handleCDP answers the forwarded CDP command against the fake page. Only
// Runtime.evaluate actually executes JS; every other method gets a
// minimal canned-success result, since this peer has no real browser
// beneath it (spec §4.12's "test/dev fixture, not a production
// requirement").
func (p *Peer) handleCDP(ctx context.Context, raw json.RawMessage) (any, error) {
	var params cdpParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}

	switch params.Method {
	case "Runtime.evaluate":
		var evalParams struct {
			Expression string `json:"expression"`
		}
		_ = json.Unmarshal(params.Params, &evalParams)
		value, exceptionText := p.Sandbox.Evaluate(evalParams.Expression)
		if exceptionText != "" {
			return map[string]any{"exceptionDetails": map[string]any{"text": exceptionText}}, nil
		}
		return map[string]any{"result": map[string]any{"value": json.RawMessage(value)}}, nil
	case "Input.dispatchMouseEvent", "Input.dispatchKeyEvent", "DOM.setFileInputFiles",
		"CSS.forcePseudoState", "CSS.getMatchedStylesForNode", "Page.printToPDF",
		"Page.navigate", "Target.createTarget", "Target.closeTarget", "Target.getTargets",
		"Network.getResponseBody":
		return map[string]any{"result": map[string]any{}}, nil
	default:
		return nil, fmt.Errorf("unsupported cdp method: %s", params.Method)
	}
}

// handleCapturePageState answers a page-diffing snapshot from the
// sandbox's current text entries (spec §4.4.1).
func (p *Peer) handleCapturePageState(ctx context.Context, raw json.RawMessage) (any, error) {
	entries, count := p.Sandbox.Snapshot()
	return map[string]any{
		"textEntries":    entries,
		"elementCount":   count,
		"hasShadowRoots": false,
		"hasIframes":     false,
	}, nil
}

// handleWaitForReady answers the adaptive-waiting primitive immediately:
// the sandbox has no pending network/mutation activity to wait out.
func (p *Peer) handleWaitForReady(ctx context.Context, raw json.RawMessage) (any, error) {
	return map[string]any{"ready": true}, nil
}

type humanizedWaypoint struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	DelayMs int     `json:"delayMs"`
}

// handleHumanizedMouseMove walks the waypoint list with its recorded
// delays and updates the default session's cursor position to the final
// one (spec §4.6's cursorPositions, §4.7's path contract).
func (p *Peer) handleHumanizedMouseMove(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		Waypoints []humanizedWaypoint `json:"waypoints"`
		TabID     int                 `json:"tabId"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	if len(args.Waypoints) == 0 {
		return map[string]any{"ok": true}, nil
	}

	elapsed := 0
	for _, wp := range args.Waypoints {
		if wp.DelayMs > elapsed {
			select {
			case <-time.After(time.Duration(wp.DelayMs-elapsed) * time.Millisecond):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			elapsed = wp.DelayMs
		}
	}

	last := args.Waypoints[len(args.Waypoints)-1]
	p.Sessions.Mutate(defaultSessionKey, func(s *Session) {
		s.CursorPositions[args.TabID] = CursorPosition{X: last.X, Y: last.Y}
	})
	return map[string]any{"ok": true}, nil
}

// handleValidateEval answers the SecureEvalPipeline's Layer 2 round-trip
// using the real goja-backed membrane in membrane.go (spec §4.5).
func (p *Peer) handleValidateEval(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	verdict, err := ValidateEval(ctx, args.Code)
	if err != nil {
		return nil, err
	}
	return map[string]any{"safe": verdict.Safe, "reason": verdict.Reason}, nil
}
