// tabs.go — the reference peer's answer to browser_tabs' forwarded
// "tabs.*" commands, backed by one simulated tab and the
// single-debugger-attachment policy (spec §4.6).
package extension

import (
	"context"
	"encoding/json"
)

type peerTabRecord struct {
	TabID int    `json:"tabId"`
	Index int    `json:"index"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

const simulatedTabID = 1

// RegisterTabHandlers wires tabs.list/new/attach/close onto router,
// routed through the same debugger policy as every other attach path.
func (p *Peer) RegisterTabHandlers(router *Router) {
	router.Handle("tabs.list", p.handleTabsList)
	router.Handle("tabs.new", p.handleTabsAttach)
	router.Handle("tabs.attach", p.handleTabsAttach)
	router.Handle("tabs.close", p.handleTabsClose)
}

func (p *Peer) tabRecord() peerTabRecord {
	return peerTabRecord{TabID: simulatedTabID, Index: 0, Title: "Example page", URL: "about:blank"}
}

func (p *Peer) handleTabsList(ctx context.Context, raw json.RawMessage) (any, error) {
	return []peerTabRecord{p.tabRecord()}, nil
}

func (p *Peer) handleTabsAttach(ctx context.Context, raw json.RawMessage) (any, error) {
	if err := p.Debugger.Attach(simulatedTabID); err != nil {
		return nil, err
	}
	stealth := p.Sessions.Default().StealthMode
	p.Badge.Sync(simulatedTabID, true, stealth)
	if p.humanizationEnabled {
		p.IdleDrift.Start(simulatedTabID)
	}
	return p.tabRecord(), nil
}

func (p *Peer) handleTabsClose(ctx context.Context, raw json.RawMessage) (any, error) {
	p.Debugger.Detach(simulatedTabID)
	p.Badge.Sync(simulatedTabID, false, false)
	p.IdleDrift.Stop()
	return map[string]any{"closed": true}, nil
}
