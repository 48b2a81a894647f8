// humanize_motion.go — wires C7 HumanizedMotion into the mouse-moving
// interact primitives (spec §4.7): when mouse_humanization is enabled,
// moveMouseToElement/clickElement send a precomputed waypoint list via
// humanizedMouseMove instead of a single CDP mouse event.
package dispatcher

import (
	"context"

	"github.com/h8ngry/supersurf/internal/experiments"
	"github.com/h8ngry/supersurf/internal/humanize"
	"github.com/h8ngry/supersurf/internal/transport"
)

const defaultViewportWidth, defaultViewportHeight = 1280, 720

// humanizedMoveTo sends the cursor to target using a curved waypoint path
// when mouse_humanization is enabled, or a single CDP mouseMoved event
// otherwise. It always updates the dispatcher's tracked cursor position.
func (d *Dispatcher) humanizedMoveTo(ctx context.Context, target humanize.Point) error {
	if !d.experiments.IsEnabled(experiments.MouseHumanization) {
		_, err := cdp(ctx, d.transport, "Input.dispatchMouseEvent", map[string]any{
			"type": "mouseMoved", "x": target.X, "y": target.Y,
		})
		d.setCursor(target)
		return err
	}

	from, personality := d.cursorState()
	path := humanize.GeneratePath(d.rng, from, target, personality, humanize.Viewport{
		Width: defaultViewportWidth, Height: defaultViewportHeight,
	})

	wire := make([]map[string]any, len(path))
	for i, wp := range path {
		wire[i] = map[string]any{"x": wp.X, "y": wp.Y, "delayMs": wp.DelayMs}
	}
	_, err := d.transport.SendCmd(ctx, "humanizedMouseMove", map[string]any{"waypoints": wire}, transport.DefaultTimeout)
	d.setCursor(target)
	return err
}

func (d *Dispatcher) cursorState() (humanize.Point, humanize.Personality) {
	d.cursorMu.Lock()
	defer d.cursorMu.Unlock()
	return d.cursor, d.personality
}

func (d *Dispatcher) setCursor(p humanize.Point) {
	d.cursorMu.Lock()
	d.cursor = p
	d.cursorMu.Unlock()
}
