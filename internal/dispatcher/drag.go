// drag.go — browser_drag: press at source, 10 interpolated mouse moves
// with buttons:1, release at target (spec §4.4).
package dispatcher

import (
	"context"
	"encoding/json"
)

type dragArgs struct {
	SourceSelector string `json:"sourceSelector"`
	TargetSelector string `json:"targetSelector"`
}

const dragInterpolationSteps = 10

func (d *Dispatcher) registerDragTools() {
	d.register("browser_drag", "Drag from one element to another via interpolated mouse moves.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"sourceSelector": map[string]any{"type": "string"},
			"targetSelector": map[string]any{"type": "string"},
		},
		"required": []string{"sourceSelector", "targetSelector"},
	}, handleDrag)
}

func handleDrag(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
	var args dragArgs
	if err := decodeArgs(raw, &args); err != nil {
		return toolResult{}, err
	}

	source, err := getElementCenter(ctx, d.transport, args.SourceSelector)
	if err != nil {
		return toolResult{}, err
	}
	target, err := getElementCenter(ctx, d.transport, args.TargetSelector)
	if err != nil {
		return toolResult{}, err
	}

	if _, err := cdp(ctx, d.transport, "Input.dispatchMouseEvent", map[string]any{
		"type": "mousePressed", "x": source.X, "y": source.Y, "button": "left", "buttons": 1, "clickCount": 1,
	}); err != nil {
		return toolResult{}, err
	}

	for i := 1; i <= dragInterpolationSteps; i++ {
		frac := float64(i) / float64(dragInterpolationSteps)
		x := source.X + (target.X-source.X)*frac
		y := source.Y + (target.Y-source.Y)*frac
		if _, err := cdp(ctx, d.transport, "Input.dispatchMouseEvent", map[string]any{
			"type": "mouseMoved", "x": x, "y": y, "buttons": 1,
		}); err != nil {
			return toolResult{}, err
		}
	}

	if _, err := cdp(ctx, d.transport, "Input.dispatchMouseEvent", map[string]any{
		"type": "mouseReleased", "x": target.X, "y": target.Y, "button": "left", "buttons": 0, "clickCount": 1,
	}); err != nil {
		return toolResult{}, err
	}

	return ok(map[string]any{"dragged": true}), nil
}
