// interact.go — browser_interact: executes a sequence of actions against
// the page, with an onError policy and an optional page-diffing report
// (spec §4.4, §4.4.1), recording a step trace as it goes.
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/h8ngry/supersurf/internal/experiments"
	"github.com/h8ngry/supersurf/internal/humanize"
)

// interactAction is one step of a browser_interact sequence. Fields beyond
// Kind/Selector are interpreted per-kind.
type interactAction struct {
	Kind      string `json:"kind"`
	Selector  string `json:"selector,omitempty"`
	Text      string `json:"text,omitempty"`
	Key       string `json:"key,omitempty"`
	DeltaX    int    `json:"deltaX,omitempty"`
	DeltaY    int    `json:"deltaY,omitempty"`
	Value     string `json:"value,omitempty"`
	MS        int    `json:"ms,omitempty"`
	PseudoState string `json:"pseudoState,omitempty"`
	FilePath  string `json:"filePath,omitempty"`
}

type interactArgs struct {
	Actions []interactAction `json:"actions"`
	OnError string           `json:"onError,omitempty"` // "stop" (default) | "ignore"
}

// interactStep records one action's outcome in the sequence trace.
type interactStep struct {
	Kind     string `json:"kind"`
	Selector string `json:"selector,omitempty"`
	Status   string `json:"status"` // "success" | "error"
	Detail   string `json:"detail,omitempty"`
}

func (d *Dispatcher) registerInteractTools() {
	d.register("browser_interact", "Execute a sequence of interaction actions against the attached tab.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"actions": map[string]any{"type": "array"},
			"onError": map[string]any{"type": "string", "enum": []string{"stop", "ignore"}},
		},
		"required": []string{"actions"},
	}, handleInteract)
}

func handleInteract(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
	var args interactArgs
	if err := decodeArgs(raw, &args); err != nil {
		return toolResult{}, err
	}
	if args.OnError == "" {
		args.OnError = "stop"
	}

	diffing := d.experiments.IsEnabled(experiments.PageDiffing)
	var before pageState
	if diffing {
		before, _ = capturePageState(ctx, d.transport)
	}

	steps := make([]interactStep, 0, len(args.Actions))
	var firstErr error
	for _, action := range args.Actions {
		status, detail, err := d.runInteractAction(ctx, action)
		steps = append(steps, interactStep{Kind: action.Kind, Selector: action.Selector, Status: status, Detail: detail})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if args.OnError == "stop" {
				break
			}
		}
	}

	result := map[string]any{"steps": steps}
	if diffing {
		after, _ := capturePageState(ctx, d.transport)
		diff := diffSnapshots(before, after)
		result["diff"] = renderDiff(diff)
	}

	if firstErr != nil && args.OnError == "stop" {
		return toolResult{IsError: true, Data: result, Text: firstErr.Error()}, nil
	}
	return ok(result), nil
}

// runInteractAction dispatches one action kind, returning its step status
// and an optional detail/error.
func (d *Dispatcher) runInteractAction(ctx context.Context, a interactAction) (status, detail string, err error) {
	switch a.Kind {
	case "click":
		err = d.clickElement(ctx, a.Selector)
	case "type":
		err = d.typeIntoElement(ctx, a.Selector, a.Text)
	case "clear":
		_, err = eval(ctx, d.transport, nativeSetterClearSnippet(a.Selector), false)
	case "press_key":
		_, err = cdp(ctx, d.transport, "Input.dispatchKeyEvent", map[string]any{"type": "keyDown", "key": a.Key})
	case "hover":
		err = d.moveMouseToElement(ctx, a.Selector)
	case "wait":
		err = sleep(ctx, time.Duration(a.MS)*time.Millisecond)
	case "mouse_move":
		err = d.moveMouseToElement(ctx, a.Selector)
	case "mouse_click":
		err = d.clickElement(ctx, a.Selector)
	case "scroll_to", "scroll_into_view":
		_, err = eval(ctx, d.transport, scrollIntoViewSnippet(a.Selector), false)
	case "scroll_by":
		_, err = eval(ctx, d.transport, fmt.Sprintf("window.scrollBy(%d, %d)", a.DeltaX, a.DeltaY), false)
	case "select_option":
		err = d.selectOption(ctx, a.Selector, a.Value)
	case "file_upload":
		_, err = cdp(ctx, d.transport, "DOM.setFileInputFiles", map[string]any{"selector": a.Selector, "files": []string{a.FilePath}})
	case "force_pseudo_state":
		_, err = cdp(ctx, d.transport, "CSS.forcePseudoState", map[string]any{"selector": a.Selector, "states": []string{a.PseudoState}})
	default:
		err = &ErrUnknownAction{Tool: "browser_interact", Action: a.Kind}
	}
	if err != nil {
		return "error", err.Error(), err
	}
	return "success", "", nil
}

// clickElement combines a CDP mouse event with a DOM-level .click() for
// reliable navigation-triggering (spec §4.4).
func (d *Dispatcher) clickElement(ctx context.Context, selector string) error {
	center, err := getElementCenter(ctx, d.transport, selector)
	if err != nil {
		return err
	}
	if err := d.humanizedMoveTo(ctx, humanize.Point{X: center.X, Y: center.Y}); err != nil {
		return err
	}
	if _, err := cdp(ctx, d.transport, "Input.dispatchMouseEvent", map[string]any{
		"type": "mousePressed", "x": center.X, "y": center.Y, "button": "left", "clickCount": 1,
	}); err != nil {
		return err
	}
	if _, err := cdp(ctx, d.transport, "Input.dispatchMouseEvent", map[string]any{
		"type": "mouseReleased", "x": center.X, "y": center.Y, "button": "left", "clickCount": 1,
	}); err != nil {
		return err
	}
	_, err = eval(ctx, d.transport, fmt.Sprintf("__supersurfResolveSelector(%s)?.click()", mustJSON(selector)), false)
	return err
}

func (d *Dispatcher) moveMouseToElement(ctx context.Context, selector string) error {
	center, err := getElementCenter(ctx, d.transport, selector)
	if err != nil {
		return err
	}
	return d.humanizedMoveTo(ctx, humanize.Point{X: center.X, Y: center.Y})
}

// typeIntoElement uses a native-setter workaround so framework-bound
// inputs fire input/change events (spec §4.4).
func (d *Dispatcher) typeIntoElement(ctx context.Context, selector, text string) error {
	_, err := eval(ctx, d.transport, nativeSetterTypeSnippet(selector, text), false)
	return err
}

func (d *Dispatcher) selectOption(ctx context.Context, selector, value string) error {
	_, err := eval(ctx, d.transport, fmt.Sprintf(`(() => {
  const el = __supersurfResolveSelector(%s);
  if (!el) return;
  const setter = Object.getOwnPropertyDescriptor(window.HTMLSelectElement.prototype, 'value').set;
  setter.call(el, %s);
  el.dispatchEvent(new Event('input', {bubbles: true}));
  el.dispatchEvent(new Event('change', {bubbles: true}));
})()`, mustJSON(selector), mustJSON(value)), false)
	return err
}

func mustJSON(v string) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func scrollIntoViewSnippet(selector string) string {
	return fmt.Sprintf("__supersurfResolveSelector(%s)?.scrollIntoView({block:'center'})", mustJSON(selector))
}

func nativeSetterClearSnippet(selector string) string {
	return nativeSetterTypeSnippet(selector, "")
}

// nativeSetterTypeSnippet bypasses React/Vue's wrapped value setter by
// calling the native HTMLInputElement prototype setter directly, then
// dispatching input/change so framework listeners observe the change
// (spec §4.4, §4.6 Forms).
func nativeSetterTypeSnippet(selector, value string) string {
	return fmt.Sprintf(`(() => {
  const el = __supersurfResolveSelector(%s);
  if (!el) return;
  const proto = el.tagName === 'TEXTAREA' ? window.HTMLTextAreaElement.prototype : window.HTMLInputElement.prototype;
  const setter = Object.getOwnPropertyDescriptor(proto, 'value').set;
  setter.call(el, %s);
  el.dispatchEvent(new Event('input', {bubbles: true}));
  el.dispatchEvent(new Event('change', {bubbles: true}));
})()`, mustJSON(selector), mustJSON(value))
}
