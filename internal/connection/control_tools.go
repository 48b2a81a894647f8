// control_tools.go — the five connection-control tools ConnectionManager
// handles locally rather than forwarding to the dispatcher (spec §4.2).
package connection

import (
	"context"
	"encoding/json"
	"time"
)

func controlToolDescriptors() []ToolDescriptor {
	return []ToolDescriptor{
		{Name: "enable", Description: "Start listening for a browser extension connection.", InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"client_id": map[string]any{"type": "string"}},
			"required":   []string{"client_id"},
		}},
		{Name: "disable", Description: "Stop listening and disconnect any attached extension.", InputSchema: map[string]any{"type": "object"}},
		{Name: "status", Description: "Report connection state, attached tab, and experiment flags.", InputSchema: map[string]any{"type": "object"}},
		{Name: "experimental_features", Description: "Enable, disable, or list opt-in experiment flags.", InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"action": map[string]any{"type": "string"}, "name": map[string]any{"type": "string"}},
		}},
		{Name: "reload", Description: "Reload the attached tab.", InputSchema: map[string]any{"type": "object"}},
	}
}

type controlResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	State   string `json:"state,omitempty"`
}

func (m *Manager) dispatchControlTool(tool string, args json.RawMessage) (handled bool, result any, err error) {
	switch tool {
	case "enable":
		return true, m.handleEnable(args), nil
	case "disable":
		return true, m.handleDisable(), nil
	case "status":
		return true, m.handleStatus(), nil
	case "experimental_features":
		return true, m.handleExperimentalFeatures(args), nil
	case "reload":
		return true, m.handleReload(), nil
	default:
		return false, nil, nil
	}
}

func (m *Manager) handleEnable(args json.RawMessage) controlResult {
	var req struct {
		ClientID string `json:"client_id"`
	}
	_ = json.Unmarshal(args, &req)

	if err := m.Enable(req.ClientID); err != nil {
		return controlResult{Success: false, Error: err.Error(), State: string(m.State())}
	}
	return controlResult{Success: true, State: string(m.State())}
}

func (m *Manager) handleDisable() controlResult {
	if err := m.Disable(); err != nil {
		return controlResult{Success: false, Error: err.Error(), State: string(m.State())}
	}
	return controlResult{Success: true, State: string(Passive)}
}

type statusResult struct {
	Success     bool              `json:"success"`
	State       string            `json:"state"`
	ClientID    string            `json:"client_id,omitempty"`
	Tab         *AttachedTab      `json:"tab,omitempty"`
	Stealth     bool              `json:"stealth"`
	Experiments map[string]bool   `json:"experiments,omitempty"`
	Peer        *peerStatus       `json:"peer,omitempty"`
}

type peerStatus struct {
	Browser string `json:"browser"`
	Version string `json:"version"`
}

func (m *Manager) handleStatus() statusResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := statusResult{Success: true, State: string(m.state), ClientID: m.clientID, Tab: m.tab, Stealth: m.stealth}
	if m.experiments != nil {
		res.Experiments = m.experiments.GetStates()
	}
	if m.transport != nil {
		if p := m.transport.Peer(); p != nil {
			res.Peer = &peerStatus{Browser: p.Browser, Version: p.Version}
		}
	}
	return res
}

type experimentsResult struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	States  map[string]bool `json:"states,omitempty"`
}

func (m *Manager) handleExperimentalFeatures(args json.RawMessage) experimentsResult {
	var req struct {
		Action string `json:"action"`
		Name   string `json:"name"`
	}
	_ = json.Unmarshal(args, &req)

	m.mu.Lock()
	reg := m.experiments
	m.mu.Unlock()
	if reg == nil {
		return experimentsResult{Success: false, Error: "not enabled"}
	}

	switch req.Action {
	case "enable":
		if err := reg.Enable(req.Name); err != nil {
			return experimentsResult{Success: false, Error: err.Error()}
		}
	case "disable":
		if err := reg.Disable(req.Name); err != nil {
			return experimentsResult{Success: false, Error: err.Error()}
		}
	case "list", "":
		// fall through to report states below
	default:
		return experimentsResult{Success: false, Error: "unknown action: " + req.Action}
	}
	return experimentsResult{Success: true, States: reg.GetStates()}
}

func (m *Manager) handleReload() controlResult {
	m.mu.Lock()
	tr := m.transport
	tab := m.tab
	m.mu.Unlock()
	if tr == nil || tab == nil {
		return controlResult{Success: false, Error: "no attached tab"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := tr.SendCmd(ctx, "cdp", map[string]any{"method": "Page.reload"}, 0)
	if err != nil {
		return controlResult{Success: false, Error: err.Error()}
	}
	return controlResult{Success: true}
}
