// navigate.go — browser_navigate: url/back/forward/reload. History
// navigation runs in-page via eval then waits 1500ms, or the adaptive wait
// when smart_waiting is on (spec §4.4, §4.4.2).
package dispatcher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/h8ngry/supersurf/internal/experiments"
	"github.com/h8ngry/supersurf/internal/transport"
)

type navigateArgs struct {
	URL     string `json:"url,omitempty"`
	Back    bool   `json:"back,omitempty"`
	Forward bool   `json:"forward,omitempty"`
	Reload  bool   `json:"reload,omitempty"`
}

const fixedNavigateWait = 1500 * time.Millisecond

func (d *Dispatcher) registerNavigateTools() {
	d.register("browser_navigate", "Navigate the attached tab by URL, or via history back/forward/reload.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url":     map[string]any{"type": "string"},
			"back":    map[string]any{"type": "boolean"},
			"forward": map[string]any{"type": "boolean"},
			"reload":  map[string]any{"type": "boolean"},
		},
	}, handleNavigate)
}

func handleNavigate(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
	var args navigateArgs
	if err := decodeArgs(raw, &args); err != nil {
		return toolResult{}, err
	}

	switch {
	case args.URL != "":
		if _, err := d.transport.SendCmd(ctx, "Page.navigate", map[string]any{"url": args.URL}, transport.DefaultTimeout); err != nil {
			return toolResult{}, err
		}
	case args.Back:
		if _, err := eval(ctx, d.transport, "history.back()", false); err != nil {
			return toolResult{}, err
		}
	case args.Forward:
		if _, err := eval(ctx, d.transport, "history.forward()", false); err != nil {
			return toolResult{}, err
		}
	case args.Reload:
		if _, err := cdp(ctx, d.transport, "Page.reload", map[string]any{}); err != nil {
			return toolResult{}, err
		}
	default:
		return errText("browser_navigate requires one of url/back/forward/reload"), nil
	}

	if err := d.waitAfterNavigate(ctx); err != nil {
		return toolResult{}, err
	}
	return ok(map[string]any{"navigated": true}), nil
}

// waitAfterNavigate implements the fixed-delay/adaptive-wait choice
// (spec §4.4.2): on timeout or absence of the extension primitive, fall
// back to the fixed delay.
func (d *Dispatcher) waitAfterNavigate(ctx context.Context) error {
	if !d.experiments.IsEnabled(experiments.SmartWaiting) {
		return sleep(ctx, fixedNavigateWait)
	}
	if ready, err := waitForReady(ctx, d.transport, fixedNavigateWait*4); err == nil && ready {
		return nil
	}
	return sleep(ctx, fixedNavigateWait)
}
