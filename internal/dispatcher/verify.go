// verify.go — browser_verify_text_visible, browser_verify_element_visible:
// return isError:true when the assertion fails (spec §4.4).
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type verifyTextArgs struct {
	Text string `json:"text"`
}

type verifyElementArgs struct {
	Selector string `json:"selector"`
}

func (d *Dispatcher) registerVerifyTools() {
	d.register("browser_verify_text_visible", "Assert that text is visible somewhere on the page.", map[string]any{
		"type":       "object",
		"properties": map[string]any{"text": map[string]any{"type": "string"}},
		"required":   []string{"text"},
	}, handleVerifyTextVisible)

	d.register("browser_verify_element_visible", "Assert that an element matching a selector is visible.", map[string]any{
		"type":       "object",
		"properties": map[string]any{"selector": map[string]any{"type": "string"}},
		"required":   []string{"selector"},
	}, handleVerifyElementVisible)
}

func handleVerifyTextVisible(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
	var args verifyTextArgs
	if err := decodeArgs(raw, &args); err != nil {
		return toolResult{}, err
	}
	hints, err := findAlternatives(ctx, d.transport, fmt.Sprintf(`:has-text("%s")`, args.Text))
	if err != nil {
		return toolResult{}, err
	}
	for _, h := range hints {
		if h.Visible {
			return ok(map[string]any{"visible": true}), nil
		}
	}
	return errText("text not visible: %q", args.Text), nil
}

func handleVerifyElementVisible(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
	var args verifyElementArgs
	if err := decodeArgs(raw, &args); err != nil {
		return toolResult{}, err
	}
	_, err := getElementCenter(ctx, d.transport, args.Selector)
	if err != nil {
		var notFound *ErrElementNotFound
		if errors.As(err, &notFound) {
			return errText("element not visible: %q", args.Selector), nil
		}
		return toolResult{}, err
	}
	return ok(map[string]any{"visible": true}), nil
}
