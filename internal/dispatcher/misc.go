// misc.go — the passthrough tool group: extensions, window, dialog,
// performance, and secure-fill (spec §4.4). Secure-fill reads a named
// environment variable and forwards only the value to the extension,
// never reflecting it in any response.
package dispatcher

import (
	"context"
	"encoding/json"
	"os"
)

type passthroughArgs struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params,omitempty"`
}

func (d *Dispatcher) registerMiscTools() {
	d.registerPassthrough("browser_extensions", "List or toggle installed browser extensions.", "extensions")
	d.registerPassthrough("browser_window", "Resize, move, minimize, maximize, or close the browser window.", "window")
	d.registerPassthrough("browser_dialog", "Accept, dismiss, or inspect a pending browser dialog.", "dialog")
	d.registerPassthrough("browser_performance", "Capture CPU/memory/timing performance metrics.", "performance")
	d.registerSecureFill()
}

func (d *Dispatcher) registerPassthrough(name, description, commandPrefix string) {
	d.register(name, description, map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{"type": "string"},
			"params": map[string]any{"type": "object"},
		},
		"required": []string{"action"},
	}, passthroughHandler(commandPrefix))
}

func passthroughHandler(commandPrefix string) handlerFunc {
	return func(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
		var args passthroughArgs
		if err := decodeArgs(raw, &args); err != nil {
			return toolResult{}, err
		}
		result, err := d.transport.SendCmd(ctx, commandPrefix+"."+args.Action, args.Params, 0)
		if err != nil {
			return toolResult{}, err
		}
		var data any
		_ = json.Unmarshal(result, &data)
		return ok(data), nil
	}
}

type secureFillArgs struct {
	Selector string `json:"selector"`
	EnvVar   string `json:"envVar"`
}

func (d *Dispatcher) registerSecureFill() {
	d.register("browser_secure_fill", "Fill a field from a named environment variable without the value ever appearing in a response.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"selector": map[string]any{"type": "string"},
			"envVar":   map[string]any{"type": "string"},
		},
		"required": []string{"selector", "envVar"},
	}, handleSecureFill)
}

func handleSecureFill(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
	var args secureFillArgs
	if err := decodeArgs(raw, &args); err != nil {
		return toolResult{}, err
	}

	value, present := os.LookupEnv(args.EnvVar)
	if !present {
		return errText("environment variable %q is not set", args.EnvVar), nil
	}

	// value never flows into the returned toolResult; only success/failure
	// is reported (spec §4.4).
	if _, err := d.transport.SendCmd(ctx, "secureFill", map[string]any{"selector": args.Selector, "value": value}, 0); err != nil {
		return toolResult{}, err
	}
	return ok(map[string]any{"filled": true}), nil
}
