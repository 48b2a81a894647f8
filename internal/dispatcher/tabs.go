// tabs.go — browser_tabs: list/new/attach/close, delegated to the
// extension. On new/attach the returned tab record updates the manager's
// AttachedTab (spec §4.4).
package dispatcher

import (
	"context"
	"encoding/json"

	"github.com/h8ngry/supersurf/internal/connection"
	"github.com/h8ngry/supersurf/internal/transport"
)

type tabsArgs struct {
	Action string `json:"action"`
	TabID  int    `json:"tabId,omitempty"`
	URL    string `json:"url,omitempty"`
}

type tabRecord struct {
	TabID int    `json:"tabId"`
	Index int    `json:"index"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

func (d *Dispatcher) registerTabTools() {
	d.register("browser_tabs", "List, create, attach to, or close browser tabs.", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action": map[string]any{"type": "string", "enum": []string{"list", "new", "attach", "close"}},
			"tabId":  map[string]any{"type": "integer"},
			"url":    map[string]any{"type": "string"},
		},
		"required": []string{"action"},
	}, handleTabs)
}

func handleTabs(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
	var args tabsArgs
	if err := decodeArgs(raw, &args); err != nil {
		return toolResult{}, err
	}

	result, err := d.transport.SendCmd(ctx, "tabs."+args.Action, args, transport.DefaultTimeout)
	if err != nil {
		return toolResult{}, err
	}

	switch args.Action {
	case "new", "attach":
		var tab tabRecord
		if json.Unmarshal(result, &tab) == nil {
			d.mgr.SetAttachedTab(connection.AttachedTab{
				TabID: tab.TabID, Index: tab.Index, Title: tab.Title, URL: tab.URL,
			})
		}
	case "close":
		d.mgr.ClearAttachedTab()
	}

	var data any
	_ = json.Unmarshal(result, &data)
	return ok(data), nil
}
