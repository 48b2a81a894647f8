// client.go — C6 ExtensionRouter, the peer side of the WebSocket connection
// to the broker: an alarm-scheduled, single-flight reconnect loop plus
// the handshake (spec §4.6).
package extension

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/h8ngry/supersurf/internal/wire"
)

const reconnectDelay = 5 * time.Second

// CommandHandler answers one inbound JSON-RPC command.
type CommandHandler func(ctx context.Context, params json.RawMessage) (any, error)

// Router owns the outbound connection, the command handler registry, and
// reconnect scheduling (spec §4.6).
type Router struct {
	logger    *logrus.Logger
	url       string
	browser   string
	version   string
	buildTime string
	scheduler Scheduler
	sessions  *SessionStore

	mu               sync.Mutex
	conn             *websocket.Conn
	reconnecting     bool
	handlers         map[string]CommandHandler
	notificationSink func(method string, params json.RawMessage)
}

// NewRouter builds a Router identifying itself with the given handshake
// metadata (spec §4.6).
func NewRouter(logger *logrus.Logger, url, browser, version, buildTime string, scheduler Scheduler, sessions *SessionStore) *Router {
	return &Router{
		logger:    logger,
		url:       url,
		browser:   browser,
		version:   version,
		buildTime: buildTime,
		scheduler: scheduler,
		sessions:  sessions,
		handlers:  make(map[string]CommandHandler),
	}
}

// Handle registers a command handler for method.
func (r *Router) Handle(method string, fn CommandHandler) {
	r.mu.Lock()
	r.handlers[method] = fn
	r.mu.Unlock()
}

// OnNotification sets the sink for id-less inbound frames other than
// "authenticated" (which Router handles itself to update SessionContext).
func (r *Router) OnNotification(fn func(method string, params json.RawMessage)) {
	r.mu.Lock()
	r.notificationSink = fn
	r.mu.Unlock()
}

// Connect dials the broker once. On success it sends the handshake frame
// and starts the read loop in a goroutine; on failure it schedules a
// reconnect.
func (r *Router) Connect(ctx context.Context) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.url, nil)
	if err != nil {
		r.logger.WithError(err).Debug("connect failed, scheduling reconnect")
		r.scheduleReconnect(ctx)
		return
	}

	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()

	if err := r.sendHandshake(conn); err != nil {
		r.logger.WithError(err).Warn("failed to send handshake")
	}

	go r.readLoop(ctx, conn)
}

func (r *Router) sendHandshake(conn *websocket.Conn) error {
	hs := wire.Handshake{
		Type:           "handshake",
		Browser:        r.browser,
		Version:        r.version,
		BuildTimestamp: nilIfEmpty(r.buildTime),
	}
	data, err := json.Marshal(hs)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// scheduleReconnect implements spec §4.6's single-flight rule: while a
// reconnect is already scheduled, a second call is a no-op.
func (r *Router) scheduleReconnect(ctx context.Context) {
	r.mu.Lock()
	if r.reconnecting {
		r.mu.Unlock()
		return
	}
	r.reconnecting = true
	r.mu.Unlock()

	r.scheduler.Schedule(reconnectDelay, func() {
		r.mu.Lock()
		r.reconnecting = false
		connected := r.conn != nil
		r.mu.Unlock()
		if !connected {
			r.Connect(ctx)
		}
	})
}

func (r *Router) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			r.mu.Lock()
			if r.conn == conn {
				r.conn = nil
			}
			r.mu.Unlock()
			r.scheduleReconnect(ctx)
			return
		}
		r.handleFrame(ctx, conn, data)
	}
}

func (r *Router) handleFrame(ctx context.Context, conn *websocket.Conn, data []byte) {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		r.logger.WithError(err).Debug("dropping malformed frame")
		return
	}

	var req wire.Request
	if err := json.Unmarshal(data, &req); err == nil && req.HasID() && !req.IsNotification() {
		r.dispatchCommand(ctx, conn, req)
		return
	}

	if _, hasError := object["error"]; hasError && !req.HasID() {
		r.logger.Debug("dropping error-only frame")
		return
	}

	var n wire.Notification
	if err := json.Unmarshal(data, &n); err == nil && n.Method != "" {
		r.handleNotification(n)
	}
}

func (r *Router) dispatchCommand(ctx context.Context, conn *websocket.Conn, req wire.Request) {
	r.mu.Lock()
	fn, ok := r.handlers[req.Method]
	r.mu.Unlock()

	if !ok {
		r.writeResponse(conn, wire.ErrorResponse(req.ID, -32601, fmt.Sprintf("unknown method: %s", req.Method)))
		return
	}

	result, err := fn(ctx, req.Params)
	if err != nil {
		resp := wire.Response{JSONRPC: "2.0", ID: req.ID, Error: &wire.Error{Message: err.Error()}}
		r.writeResponse(conn, resp)
		return
	}

	raw, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		r.writeResponse(conn, wire.ErrorResponse(req.ID, -32603, marshalErr.Error()))
		return
	}
	r.writeResponse(conn, wire.Response{JSONRPC: "2.0", ID: req.ID, Result: raw})
}

func (r *Router) writeResponse(conn *websocket.Conn, resp wire.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = conn.WriteMessage(websocket.TextMessage, data)
}

// handleNotification updates SessionContext on "authenticated" and routes
// everything else to the registered sink (spec §4.6).
func (r *Router) handleNotification(n wire.Notification) {
	if n.Method == "authenticated" {
		var payload struct {
			ClientID string `json:"clientId"`
		}
		if json.Unmarshal(n.Params, &payload) == nil && payload.ClientID != "" {
			r.sessions.Get(payload.ClientID)
		}
		return
	}

	r.mu.Lock()
	sink := r.notificationSink
	r.mu.Unlock()
	if sink != nil {
		sink(n.Method, n.Params)
	}
}

// IsConnected reports whether the socket is currently open.
func (r *Router) IsConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}
