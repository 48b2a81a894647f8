// Package connection implements C2: the connection lifecycle state
// machine, connection-control tools, and the shared status header. Cycle
// avoidance (spec §9): the dispatcher is held behind a minimal interface,
// constructed lazily via a factory the composition root supplies, so
// connection never imports the dispatcher package; the dispatcher package
// imports connection, and the dependency runs only that way.
package connection

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/h8ngry/supersurf/internal/experiments"
	"github.com/h8ngry/supersurf/internal/transport"
)

// Dispatcher is the minimal surface Manager needs from the tool dispatcher.
// The concrete dispatcher satisfies the interface structurally; this
// package never imports the dispatcher package.
type Dispatcher interface {
	ListTools() []ToolDescriptor
	Dispatch(ctx context.Context, tool string, args json.RawMessage, rawResult bool) (any, error)
}

// ToolDescriptor is the MCP-facing {name, description, inputSchema} shape,
// re-declared here (rather than imported from dispatcher) to keep the
// dependency one-directional.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// DispatcherFactory builds a Dispatcher bound to a live Transport and
// ExperimentRegistry. Manager calls it on a successful Enable, passing
// itself as the ManagerHandle the dispatcher needs for status headers and
// attached-tab bookkeeping. The dispatcher package is free to import this
// package (it does, for ManagerHandle and AttachedTab) because the
// dependency only runs this one direction: connection never imports
// dispatcher, so there is no cycle to avoid on this side.
type DispatcherFactory func(t *transport.Transport, experiments *experiments.Registry, mgr ManagerHandle) Dispatcher

// StatusProvider is what the dispatcher needs back from Manager to prefix
// its framed responses with the status header (spec §4.2).
type StatusProvider interface {
	Header() string
}

// ManagerHandle is the fuller surface the dispatcher needs from Manager:
// the status header plus the ability to record the extension's tab
// notifications against the single attached-tab slot Manager owns.
type ManagerHandle interface {
	StatusProvider
	SetAttachedTab(tab AttachedTab)
	ClearAttachedTab()
}

const version = "1.0.0"

// Manager owns the connection state machine and, once active, the
// Transport and Dispatcher for the process lifetime of that activation.
type Manager struct {
	logger  *logrus.Logger
	factory DispatcherFactory
	host    string
	port    int

	mu                 sync.Mutex
	state              State
	clientID           string
	transport          *transport.Transport
	dispatcher         Dispatcher
	experiments        *experiments.Registry
	tab                *AttachedTab
	stealth            bool
	debugOn            bool
	startupExperiments []string
}

// SetStartupExperiments records the allow-list (spec §6's
// enabledExperiments/SUPERSURF_EXPERIMENTS) applied to the registry on
// every subsequent Enable. Unknown names are logged and skipped rather
// than failing startup, since this list typically comes from a config
// file or env var the operator may have stale.
func (m *Manager) SetStartupExperiments(names []string) {
	m.mu.Lock()
	m.startupExperiments = append([]string(nil), names...)
	m.mu.Unlock()
}

// New constructs a passive Manager. host/port are the listener bind
// address used on Enable (spec §4.1, §6 default 127.0.0.1:5555).
func New(logger *logrus.Logger, host string, port int, factory DispatcherFactory) *Manager {
	return &Manager{
		logger:  logger,
		factory: factory,
		host:    host,
		port:    port,
		state:   Passive,
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Header implements StatusProvider.
func (m *Manager) Header() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	info := HeaderInfo{Version: version, State: m.state, Stealth: m.stealth, DebugOn: m.debugOn}
	if m.transport != nil {
		if p := m.transport.Peer(); p != nil {
			info.Browser = p.Browser
			info.BuildTimestamp = p.BuildTimestamp
		}
	}
	info.Tab = m.tab
	return FormatHeader(info)
}

// Enable transitions passive -> active: it validates clientID, starts the
// Transport, wires its events, constructs the Dispatcher, and stores the
// ClientID to push as an "authenticated" notification once a peer connects
// (spec §4.2's state table).
func (m *Manager) Enable(clientID string) error {
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return &ErrMissingClientID{}
	}

	m.mu.Lock()
	if m.state != Passive {
		m.mu.Unlock()
		return &ErrAlreadyEnabled{}
	}
	m.mu.Unlock()

	tr := transport.New(m.logger)
	tr.OnReconnect = m.handleReconnect
	tr.OnTabInfoUpdate = m.handleTabInfoUpdate
	tr.OnHandshake = m.NotifyHandshake
	tr.OnPeerClosed = m.NotifyPeerClosed

	if err := tr.Start(m.host, m.port); err != nil {
		return err
	}

	reg := experiments.NewRegistry()

	m.mu.Lock()
	startup := m.startupExperiments
	m.state = Active
	m.clientID = clientID
	m.transport = tr
	m.experiments = reg
	m.dispatcher = m.factory(tr, reg, m)
	m.mu.Unlock()

	for _, name := range startup {
		if err := reg.Enable(name); err != nil {
			m.logger.WithError(err).WithField("experiment", name).Warn("skipping unknown startup experiment")
		}
	}

	return nil
}

// Disable tears everything down and returns to passive, from any state
// (spec §4.2's state table: "any -> disable -> passive").
func (m *Manager) Disable() error {
	m.mu.Lock()
	if m.state == Passive {
		m.mu.Unlock()
		return &ErrAlreadyDisabled{}
	}
	tr := m.transport
	reg := m.experiments
	m.state = Passive
	m.clientID = ""
	m.transport = nil
	m.dispatcher = nil
	m.experiments = nil
	m.tab = nil
	m.stealth = false
	m.mu.Unlock()

	if tr != nil {
		_ = tr.Stop()
	}
	if reg != nil {
		reg.Reset()
	}
	return nil
}

// NotifyHandshake transitions active -> connected once the peer's
// handshake frame has been observed by the Transport, then (re-)announces
// the ClientID.
func (m *Manager) NotifyHandshake() {
	m.mu.Lock()
	if m.state != Active {
		m.mu.Unlock()
		return
	}
	m.state = Connected
	clientID := m.clientID
	tr := m.transport
	m.mu.Unlock()

	m.announceClientID(tr, clientID)
}

func (m *Manager) announceClientID(tr *transport.Transport, clientID string) {
	if tr == nil || clientID == "" {
		return
	}
	if err := tr.SendNotification("authenticated", map[string]string{"clientId": clientID}); err != nil {
		m.logger.WithError(err).Warn("best-effort: failed to announce client id")
	}
}

// NotifyPeerClosed transitions active/connected -> active on peer close,
// clearing the attached tab but keeping the listener up.
func (m *Manager) NotifyPeerClosed() {
	m.mu.Lock()
	if m.state == Connected || m.state == Active {
		m.state = Active
	}
	m.tab = nil
	m.mu.Unlock()
}

func (m *Manager) handleReconnect() {
	m.mu.Lock()
	m.tab = nil
	clientID := m.clientID
	tr := m.transport
	m.mu.Unlock()
	m.announceClientID(tr, clientID)
}

func (m *Manager) handleTabInfoUpdate(tab transport.TabInfo) {
	m.mu.Lock()
	m.tab = &AttachedTab{TabID: tab.TabID, Index: tab.Index, Title: tab.Title, URL: tab.URL}
	m.mu.Unlock()
}

// SetStealth updates the stealth-mode flag reflected in the status header.
func (m *Manager) SetStealth(on bool) {
	m.mu.Lock()
	m.stealth = on
	m.mu.Unlock()
}

// SetDebug toggles whether the status header appends a [HH:MM:SS] suffix.
func (m *Manager) SetDebug(on bool) {
	m.mu.Lock()
	m.debugOn = on
	m.mu.Unlock()
}

// ClearAttachedTab clears the attached tab, e.g. on a `close` tool action.
func (m *Manager) ClearAttachedTab() {
	m.mu.Lock()
	m.tab = nil
	m.mu.Unlock()
}

// SetAttachedTab sets the attached tab, e.g. after `new`/`attach` actions.
func (m *Manager) SetAttachedTab(tab AttachedTab) {
	m.mu.Lock()
	m.tab = &tab
	m.mu.Unlock()
}

// Dispatch routes a tool call: connection-control tools are handled
// locally; everything else forwards to the Dispatcher. ListTools never
// fails (spec §7): if the dispatcher cannot be constructed (state is
// passive), only connection-control tools are listed.
func (m *Manager) Dispatch(ctx context.Context, tool string, args json.RawMessage, rawResult bool) (any, error) {
	if handled, result, err := m.dispatchControlTool(tool, args); handled {
		return result, err
	}

	m.mu.Lock()
	d := m.dispatcher
	m.mu.Unlock()
	if d == nil {
		return nil, &ErrDisconnected{}
	}
	return d.Dispatch(ctx, tool, args, rawResult)
}

// ErrDisconnected is returned when a non-control tool is called while
// passive (no dispatcher exists yet).
type ErrDisconnected struct{}

func (e *ErrDisconnected) Error() string { return "not connected: call enable first" }

// ListTools returns connection-control tools plus, if active, the
// dispatcher's tool list.
func (m *Manager) ListTools() []ToolDescriptor {
	tools := controlToolDescriptors()
	m.mu.Lock()
	d := m.dispatcher
	m.mu.Unlock()
	if d != nil {
		tools = append(tools, d.ListTools()...)
	}
	return tools
}
