// primitives.go — the five CDP-forwarding primitives every tool group
// handler composes (spec §4.4), built on the opaque cdp()/eval()
// forwarders Transport.SendCmd already provides.
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/h8ngry/supersurf/internal/transport"
)

// sender is the minimal Transport surface primitives need; satisfied by
// *transport.Transport and by a fake in tests.
type sender interface {
	SendCmd(ctx context.Context, method string, params any, timeout time.Duration) (json.RawMessage, error)
}

type exceptionDetails struct {
	Text      string `json:"text"`
	Exception *struct {
		Description string `json:"description"`
	} `json:"exception"`
}

type cdpEnvelope struct {
	Result           json.RawMessage   `json:"result"`
	ExceptionDetails *exceptionDetails `json:"exceptionDetails"`
}

// cdp forwards one Chrome DevTools Protocol command through the extension
// and returns its raw result, promoting exceptionDetails to an error
// (preferring exception.description over text, per spec §4.4's table).
func cdp(ctx context.Context, s sender, method string, params any) (json.RawMessage, error) {
	raw, err := s.SendCmd(ctx, "cdp", map[string]any{"method": method, "params": params}, transport.DefaultTimeout)
	if err != nil {
		return nil, err
	}
	var env cdpEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return raw, nil
	}
	if env.ExceptionDetails != nil {
		return nil, fmt.Errorf("%s", exceptionMessage(env.ExceptionDetails))
	}
	return env.Result, nil
}

func exceptionMessage(ex *exceptionDetails) string {
	if ex.Exception != nil && ex.Exception.Description != "" {
		return ex.Exception.Description
	}
	return ex.Text
}

type evalResult struct {
	Value json.RawMessage `json:"value"`
}

// eval runs expression via Runtime.evaluate with returnByValue and
// userGesture set, throwing on exceptionDetails (spec §4.4 table).
func eval(ctx context.Context, s sender, expression string, awaitPromise bool) (json.RawMessage, error) {
	raw, err := cdp(ctx, s, "Runtime.evaluate", map[string]any{
		"expression":    expression,
		"returnByValue": true,
		"userGesture":   true,
		"awaitPromise":  awaitPromise,
	})
	if err != nil {
		return nil, err
	}
	var result evalResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return raw, nil
	}
	return result.Value, nil
}

// sleep is the cooperative delay primitive; it respects ctx cancellation so
// a dropped connection or timed-out request doesn't leak a goroutine.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// elementCenterSnippet is the JS getElementCenter evaluates: it resolves
// the selector with the page-side __supersurfResolveSelector helper and
// returns the bounding-rect center, or null on a miss.
const elementCenterSnippet = `(() => {
  const sel = %s;
  const el = __supersurfResolveSelector(sel);
  if (!el) return null;
  const r = el.getBoundingClientRect();
  return {x: r.x + r.width / 2, y: r.y + r.height / 2};
})()`

// getElementCenter resolves selector (including :has-text()) to its
// bounding-rect center, or synthesizes alternatives and returns
// ErrElementNotFound on a miss (spec §4.4 table).
func getElementCenter(ctx context.Context, s sender, selector string) (Point, error) {
	encoded, _ := json.Marshal(selector)
	raw, err := eval(ctx, s, fmt.Sprintf(elementCenterSnippet, encoded), false)
	if err != nil {
		return Point{}, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		hints, _ := findAlternatives(ctx, s, selector)
		return Point{}, &ErrElementNotFound{Selector: selector, Hints: hints}
	}
	var p Point
	if err := json.Unmarshal(raw, &p); err != nil {
		return Point{}, fmt.Errorf("malformed element center result: %w", err)
	}
	return p, nil
}

const findAlternativesSnippet = `(() => {
  const phrase = (%s).toLowerCase();
  const all = Array.from(document.querySelectorAll('*'));
  const visible = [], hidden = [];
  for (const el of all) {
    const text = Array.from(el.childNodes).filter(n => n.nodeType === 3).map(n => n.textContent).join('').trim();
    if (!text.toLowerCase().includes(phrase)) continue;
    const style = getComputedStyle(el);
    const rect = el.getBoundingClientRect();
    const isVisible = style.display !== 'none' && style.visibility !== 'hidden' &&
      style.opacity !== '0' && rect.width > 0 && rect.height > 0;
    const hint = {selector: __supersurfSynthesizeSelector(el), text: text.slice(0, 80), visible: isVisible};
    (isVisible ? visible : hidden).push(hint);
  }
  return visible.slice(0, 3).concat(hidden.slice(0, 2));
})()`

// findAlternatives scans for elements whose direct text contains the
// `:has-text()` phrase, classifies them by visibility, and returns up to 3
// visible + 2 hidden candidates (spec §4.4 table).
func findAlternatives(ctx context.Context, s sender, selector string) ([]ElementHint, error) {
	phrase := extractHasTextPhrase(selector)
	if phrase == "" {
		return nil, nil
	}
	encoded, _ := json.Marshal(phrase)
	raw, err := eval(ctx, s, fmt.Sprintf(findAlternativesSnippet, encoded), false)
	if err != nil {
		return nil, err
	}
	var hints []ElementHint
	if err := json.Unmarshal(raw, &hints); err != nil {
		return nil, nil
	}
	return hints, nil
}

// extractHasTextPhrase pulls the quoted phrase out of a `:has-text("…")`
// selector fragment; returns "" for plain CSS selectors.
func extractHasTextPhrase(selector string) string {
	const marker = ":has-text(\""
	start := strings.Index(selector, marker)
	if start < 0 {
		return ""
	}
	rest := selector[start+len(marker):]
	end := strings.Index(rest, "\")")
	if end < 0 {
		return ""
	}
	return rest[:end]
}
