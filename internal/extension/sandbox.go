// sandbox.go — the reference peer's stand-in for a real browser page
// (spec §4.12). There is no actual DOM here; this is a goja runtime
// seeded with a small fake document so the "cdp"/Runtime.evaluate
// round-trip the dispatcher issues has something real to execute
// against when exercising the broker without a browser.
package extension

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dop251/goja"
)

// PageText is one simulated text-bearing element on the fake page.
type PageText struct {
	Text    string
	Visible bool
}

// Sandbox is one tab's simulated page state plus the goja runtime used to
// evaluate expressions against it.
type Sandbox struct {
	mu           sync.Mutex
	vm           *goja.Runtime
	texts        []PageText
	elementCount int
	url          string
}

// NewSandbox seeds a fresh sandbox with a minimal fake page.
func NewSandbox() *Sandbox {
	s := &Sandbox{
		vm:           goja.New(),
		texts:        []PageText{{Text: "Example page", Visible: true}},
		elementCount: 12,
		url:          "about:blank",
	}
	s.installGlobals()
	return s
}

// installGlobals seeds the minimal globals secureeval's Layer 3 page-proxy
// needs to exercise its real Proxy-trap semantics against: a "window"
// object to wrap, with just enough shape (location, document) for a
// harmless expression to actually read something back. Without this,
// `new Proxy(window, {...})` throws "Cannot create proxy with a
// non-object as target" on every eval, safe or blocked.
func (s *Sandbox) installGlobals() {
	_ = s.vm.Set("__supersurfPageTextCount", func() int { return len(s.texts) })

	window := s.vm.NewObject()
	_ = window.Set("location", map[string]any{"href": s.url})
	_ = window.Set("document", map[string]any{"title": "Example page", "cookie": ""})
	_ = s.vm.Set("window", window)
}

// Evaluate runs a Runtime.evaluate-shaped expression and returns its
// value JSON-encoded, along with any thrown exception's text. handlers.go
// reports that text as exceptionDetails.text, which primitives.go's cdp()
// uses broker-side when no exception.description is present.
func (s *Sandbox) Evaluate(expression string) (json.RawMessage, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := s.vm.RunString(expression)
	if err != nil {
		if exc, ok := err.(*goja.Exception); ok {
			return nil, exc.Value().String()
		}
		return nil, err.Error()
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return json.RawMessage("null"), ""
	}
	raw, marshalErr := json.Marshal(v.Export())
	if marshalErr != nil {
		return nil, fmt.Sprintf("unserializable result: %v", marshalErr)
	}
	return raw, ""
}

// SetTexts replaces the simulated page's visible text entries, used by
// tests driving capturePageState through a changing page.
func (s *Sandbox) SetTexts(texts []PageText) {
	s.mu.Lock()
	s.texts = texts
	s.mu.Unlock()
}

// Snapshot returns the data capturePageState reports (spec §4.4.1).
func (s *Sandbox) Snapshot() ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]string, 0, len(s.texts))
	for _, t := range s.texts {
		if t.Visible {
			entries = append(entries, t.Text)
		}
	}
	return entries, s.elementCount
}
