// forms.go — browser_fill_form: text, textarea, checkbox/radio, single and
// multi-select fields, all via native-setter detours (spec §4.4).
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
)

type formField struct {
	Selector string   `json:"selector"`
	Kind     string   `json:"kind"` // text | textarea | checkbox | radio | select | multiselect
	Value    string   `json:"value,omitempty"`
	Checked  bool     `json:"checked,omitempty"`
	Values   []string `json:"values,omitempty"`
}

type fillFormArgs struct {
	Fields []formField `json:"fields"`
}

func (d *Dispatcher) registerFormTools() {
	d.register("browser_fill_form", "Fill multiple form fields in one call, bypassing framework value wrapping.", map[string]any{
		"type":       "object",
		"properties": map[string]any{"fields": map[string]any{"type": "array"}},
		"required":   []string{"fields"},
	}, handleFillForm)
}

func handleFillForm(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
	var args fillFormArgs
	if err := decodeArgs(raw, &args); err != nil {
		return toolResult{}, err
	}

	filled := 0
	for _, field := range args.Fields {
		if err := d.fillField(ctx, field); err != nil {
			return toolResult{IsError: true, Data: map[string]any{"filled": filled}, Text: err.Error()}, nil
		}
		filled++
	}
	return ok(map[string]any{"filled": filled}), nil
}

func (d *Dispatcher) fillField(ctx context.Context, f formField) error {
	var snippet string
	switch f.Kind {
	case "text", "textarea":
		snippet = nativeSetterTypeSnippet(f.Selector, f.Value)
	case "checkbox", "radio":
		snippet = checkboxSnippet(f.Selector, f.Checked)
	case "select":
		selJSON, _ := json.Marshal(f.Selector)
		valJSON, _ := json.Marshal(f.Value)
		snippet = fmt.Sprintf(selectSnippet, selJSON, valJSON)
	case "multiselect":
		snippet = multiSelectSnippet(f.Selector, f.Values)
	default:
		return &ErrUnknownAction{Tool: "browser_fill_form", Action: f.Kind}
	}
	_, err := eval(ctx, d.transport, snippet, false)
	return err
}

func checkboxSnippet(selector string, checked bool) string {
	selJSON, _ := json.Marshal(selector)
	return fmt.Sprintf(`(() => {
  const el = __supersurfResolveSelector(%s);
  if (!el) return;
  const setter = Object.getOwnPropertyDescriptor(window.HTMLInputElement.prototype, 'checked').set;
  setter.call(el, %t);
  el.dispatchEvent(new Event('input', {bubbles: true}));
  el.dispatchEvent(new Event('change', {bubbles: true}));
})()`, selJSON, checked)
}

const selectSnippet = `(() => {
  const el = __supersurfResolveSelector(%s);
  if (!el) return;
  const setter = Object.getOwnPropertyDescriptor(window.HTMLSelectElement.prototype, 'value').set;
  setter.call(el, %s);
  el.dispatchEvent(new Event('input', {bubbles: true}));
  el.dispatchEvent(new Event('change', {bubbles: true}));
})()`

func multiSelectSnippet(selector string, values []string) string {
	selJSON, _ := json.Marshal(selector)
	valuesJSON, _ := json.Marshal(values)
	return fmt.Sprintf(`(() => {
  const el = __supersurfResolveSelector(%s);
  if (!el) return;
  const wanted = new Set(%s);
  for (const opt of el.options) opt.selected = wanted.has(opt.value);
  el.dispatchEvent(new Event('input', {bubbles: true}));
  el.dispatchEvent(new Event('change', {bubbles: true}));
})()`, selJSON, valuesJSON)
}
