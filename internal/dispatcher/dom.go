// dom.go — the DOM-read tool group: browser_snapshot, browser_lookup,
// browser_extract_content, browser_get_element_styles (spec §4.4).
package dispatcher

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

func (d *Dispatcher) registerDOMTools() {
	d.register("browser_snapshot", "Return the accessibility tree, filtered of none/generic roles.", emptySchema(), handleSnapshot)
	d.register("browser_lookup", "Search direct text content of the page, visible elements first.", map[string]any{
		"type":       "object",
		"properties": map[string]any{"text": map[string]any{"type": "string"}},
		"required":   []string{"text"},
	}, handleLookup)
	d.register("browser_extract_content", "Return the detected main-content subtree's text (innerText, not converted to markdown), with line pagination.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"offset":  map[string]any{"type": "integer"},
			"maxLine": map[string]any{"type": "integer"},
		},
	}, handleExtractContent)
	d.register("browser_get_element_styles", "Return matched styles for an element, with pseudo-state forcing.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"selector":    map[string]any{"type": "string"},
			"pseudoState": map[string]any{"type": "string"},
		},
		"required": []string{"selector"},
	}, handleGetElementStyles)
}

type accessibilityNode struct {
	Role     string              `json:"role"`
	Name     string              `json:"name,omitempty"`
	Children []accessibilityNode `json:"children,omitempty"`
}

var filteredRoles = map[string]bool{"none": true, "generic": true}

func handleSnapshot(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
	result, err := cdp(ctx, d.transport, "Accessibility.getFullAXTree", map[string]any{})
	if err != nil {
		return toolResult{}, err
	}
	var tree struct {
		Nodes []accessibilityNode `json:"nodes"`
	}
	if err := json.Unmarshal(result, &tree); err != nil {
		return toolResult{}, err
	}
	filtered := make([]accessibilityNode, 0, len(tree.Nodes))
	for _, n := range tree.Nodes {
		if !filteredRoles[n.Role] {
			filtered = append(filtered, n)
		}
	}
	return ok(filtered), nil
}

type lookupArgs struct {
	Text string `json:"text"`
}

func handleLookup(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
	var args lookupArgs
	if err := decodeArgs(raw, &args); err != nil {
		return toolResult{}, err
	}
	hints, err := findAlternatives(ctx, d.transport, `:has-text("`+args.Text+`")`)
	if err != nil {
		return toolResult{}, err
	}
	return ok(hints), nil
}

type extractContentArgs struct {
	Offset  int `json:"offset,omitempty"`
	MaxLine int `json:"maxLine,omitempty"`
}

const extractSnippet = `(() => {
  const candidates = document.querySelectorAll('main, article, [role="main"], #content, .content');
  const root = candidates[0] || document.body;
  return root.innerText || '';
})()`

func handleExtractContent(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
	var args extractContentArgs
	if err := decodeArgs(raw, &args); err != nil {
		return toolResult{}, err
	}
	if args.MaxLine <= 0 {
		args.MaxLine = 200
	}

	result, err := eval(ctx, d.transport, extractSnippet, false)
	if err != nil {
		return toolResult{}, err
	}
	var text string
	_ = json.Unmarshal(result, &text)

	lines := strings.Split(text, "\n")
	end := args.Offset + args.MaxLine
	if end > len(lines) || end < args.Offset {
		end = len(lines)
	}
	start := args.Offset
	if start > len(lines) {
		start = len(lines)
	}
	page := strings.Join(lines[start:end], "\n")
	markdown := toMarkdown(page)

	return ok(map[string]any{"markdown": markdown, "offset": args.Offset, "totalLines": len(lines)}), nil
}

func toMarkdown(text string) string {
	// Plain-text passthrough: the extracted innerText is returned unchanged.
	// No HTML->markdown conversion is done, here or in the page snippet.
	return text
}

type getElementStylesArgs struct {
	Selector    string `json:"selector"`
	PseudoState string `json:"pseudoState,omitempty"`
}

type styleProperty struct {
	Name       string `json:"name"`
	Value      string `json:"value"`
	Status     string `json:"status"` // applied | overridden | computed
	Source     string `json:"source,omitempty"`
}

var hashedFilename = regexp.MustCompile(`-[a-f0-9]{6,10}(\.[a-z]+)$`)

// cleanSourceFilename strips a hashed build suffix like app-abc123.css into
// app.css (spec §4.4).
func cleanSourceFilename(name string) string {
	return hashedFilename.ReplaceAllString(name, "$1")
}

func handleGetElementStyles(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
	var args getElementStylesArgs
	if err := decodeArgs(raw, &args); err != nil {
		return toolResult{}, err
	}

	if args.PseudoState != "" {
		if _, err := cdp(ctx, d.transport, "CSS.forcePseudoState", map[string]any{
			"selector": args.Selector, "states": []string{args.PseudoState},
		}); err != nil {
			return toolResult{}, err
		}
	}

	result, err := cdp(ctx, d.transport, "CSS.getMatchedStylesForNode", map[string]any{"selector": args.Selector})
	if err != nil {
		return toolResult{}, err
	}
	var props []styleProperty
	if err := json.Unmarshal(result, &props); err != nil {
		return toolResult{}, err
	}
	for i := range props {
		props[i].Source = cleanSourceFilename(props[i].Source)
	}
	return ok(props), nil
}
