// console_network.go — browser_console_messages, browser_network_requests:
// list/filter/paginate, details+replay for network, clear (spec §4.4).
package dispatcher

import (
	"context"
	"encoding/json"
)

type consoleMessagesArgs struct {
	Action string `json:"action,omitempty"` // "list" (default) | "clear"
	Level  string `json:"level,omitempty"`
	Offset int    `json:"offset,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type networkRequestsArgs struct {
	Action    string `json:"action,omitempty"` // "list" (default) | "details" | "replay" | "clear"
	RequestID string `json:"requestId,omitempty"`
	Offset    int    `json:"offset,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

const defaultPageLimit = 50

func (d *Dispatcher) registerConsoleNetworkTools() {
	d.register("browser_console_messages", "List, filter, or clear captured console messages.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{"type": "string", "enum": []string{"list", "clear"}},
			"level":  map[string]any{"type": "string"},
			"offset": map[string]any{"type": "integer"},
			"limit":  map[string]any{"type": "integer"},
		},
	}, handleConsoleMessages)

	d.register("browser_network_requests", "List, inspect, replay, or clear captured network requests.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action":    map[string]any{"type": "string", "enum": []string{"list", "details", "replay", "clear"}},
			"requestId": map[string]any{"type": "string"},
			"offset":    map[string]any{"type": "integer"},
			"limit":     map[string]any{"type": "integer"},
		},
	}, handleNetworkRequests)
}

func handleConsoleMessages(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
	var args consoleMessagesArgs
	if err := decodeArgs(raw, &args); err != nil {
		return toolResult{}, err
	}
	if args.Action == "" {
		args.Action = "list"
	}
	if args.Limit <= 0 {
		args.Limit = defaultPageLimit
	}

	if args.Action == "clear" {
		if _, err := d.transport.SendCmd(ctx, "console.clear", nil, 0); err != nil {
			return toolResult{}, err
		}
		return ok(map[string]any{"cleared": true}), nil
	}

	result, err := d.transport.SendCmd(ctx, "console.list", args, 0)
	if err != nil {
		return toolResult{}, err
	}
	var messages []ConsoleMessage
	_ = json.Unmarshal(result, &messages)
	messages = filterByLevel(messages, args.Level)
	return ok(paginate(messages, args.Offset, args.Limit)), nil
}

func filterByLevel(messages []ConsoleMessage, level string) []ConsoleMessage {
	if level == "" {
		return messages
	}
	out := make([]ConsoleMessage, 0, len(messages))
	for _, m := range messages {
		if m.Level == level {
			out = append(out, m)
		}
	}
	return out
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset > len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func handleNetworkRequests(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
	var args networkRequestsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return toolResult{}, err
	}
	if args.Action == "" {
		args.Action = "list"
	}
	if args.Limit <= 0 {
		args.Limit = defaultPageLimit
	}

	switch args.Action {
	case "clear":
		if _, err := d.transport.SendCmd(ctx, "network.clear", nil, 0); err != nil {
			return toolResult{}, err
		}
		return ok(map[string]any{"cleared": true}), nil
	case "details":
		result, err := d.transport.SendCmd(ctx, "network.details", map[string]any{"requestId": args.RequestID}, 0)
		if err != nil {
			return toolResult{}, err
		}
		var req NetworkRequest
		_ = json.Unmarshal(result, &req)
		return ok(req), nil
	case "replay":
		return d.replayNetworkRequest(ctx, args.RequestID)
	default:
		result, err := d.transport.SendCmd(ctx, "network.list", args, 0)
		if err != nil {
			return toolResult{}, err
		}
		var requests []NetworkRequest
		_ = json.Unmarshal(result, &requests)
		return ok(paginate(requests, args.Offset, args.Limit)), nil
	}
}

// replayNetworkRequest executes a synthesized fetch in page context with
// the original method and body (spec §4.4).
func (d *Dispatcher) replayNetworkRequest(ctx context.Context, requestID string) (toolResult, error) {
	detailsRaw, err := d.transport.SendCmd(ctx, "network.details", map[string]any{"requestId": requestID}, 0)
	if err != nil {
		return toolResult{}, err
	}
	var req NetworkRequest
	if err := json.Unmarshal(detailsRaw, &req); err != nil {
		return toolResult{}, err
	}

	snippet := buildFetchReplaySnippet(req)
	result, err := eval(ctx, d.transport, snippet, true)
	if err != nil {
		return toolResult{}, err
	}
	var value any
	_ = json.Unmarshal(result, &value)
	return ok(value), nil
}

func buildFetchReplaySnippet(req NetworkRequest) string {
	urlJSON, _ := json.Marshal(req.URL)
	methodJSON, _ := json.Marshal(req.Method)
	bodyJSON, _ := json.Marshal(req.Body)
	init := `{method: ` + string(methodJSON) + `}`
	if req.Body != "" {
		init = `{method: ` + string(methodJSON) + `, body: ` + string(bodyJSON) + `}`
	}
	return `fetch(` + string(urlJSON) + `, ` + init + `).then(r => r.text())`
}
