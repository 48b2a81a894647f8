// Package transport implements C1: a localhost WebSocket JSON-RPC 2.0
// transport with request correlation, single-peer enforcement, and
// keep-alive pings, built around one mutex-guarded connection, a
// pendingReqs map for in-flight correlation, and a single read loop
// per connection (spec §4.1).
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/h8ngry/supersurf/internal/wire"
)

const (
	// DefaultTimeout is sendCmd's default per-request timeout (spec §4.1).
	DefaultTimeout = 30 * time.Second
	// pingInterval is the keep-alive cadence to the peer (spec §4.1).
	pingInterval = 10 * time.Second
	// singlePeerCloseDelay is the grace period before closing a rejected
	// second connection (spec §4.1).
	singlePeerCloseDelay = 100 * time.Millisecond
)

// TabInfo is the side-channel tab record extracted from sendCmd results and
// carried by tab-info-update notifications (spec §3 AttachedTab, §4.1).
type TabInfo struct {
	TabID     int    `json:"tabId"`
	Index     int    `json:"index"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	TechStack any    `json:"techStack,omitempty"`
}

// PeerInfo records what the peer announced at handshake time.
type PeerInfo struct {
	Browser        string
	Version        string
	BuildTimestamp string
}

type pendingEntry struct {
	resultCh chan json.RawMessage
	errCh    chan error
	timer    *time.Timer
	done     bool
}

// Transport owns one WebSocket listener and, at most, one connected peer at
// a time. It is safe for concurrent use.
type Transport struct {
	logger *logrus.Logger

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
	peer          *websocket.Conn
	peerOpen      bool
	everConnected bool
	pending       map[string]*pendingEntry
	peerInfo      *PeerInfo

	// OnReconnect fires when a new peer replaces a prior non-open one
	// (spec §4.1). OnTabInfoUpdate fires on tab-info notifications and on
	// side-extracted "currentTab" fields in sendCmd results.
	// OnRawConnection lets an external multiplexer intercept an incoming
	// connection before default handling; returning true means "handled."
	OnReconnect     func()
	OnTabInfoUpdate func(TabInfo)
	OnRawConnection func(r *http.Request) (handled bool)
	// OnHandshake fires once per handshake frame, after peerInfo is
	// recorded, so a Manager can advance active -> connected (spec §4.2).
	OnHandshake func()
	// OnPeerClosed fires after a connected peer's socket closes and its
	// pending requests have been drained, so a Manager can retreat
	// connected -> active (spec §4.2).
	OnPeerClosed func()

	upgrader websocket.Upgrader
	stopPing chan struct{}
}

// New constructs an idle Transport. Call Start to begin listening.
func New(logger *logrus.Logger) *Transport {
	return &Transport{
		logger:  logger,
		pending: make(map[string]*pendingEntry),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Start begins listening on host:port and serving the single "/extension"
// WebSocket upgrade route plus "/health" (spec §4.1, §6).
func (t *Transport) Start(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if isAddrInUse(err) {
			return &ErrPortInUse{Port: port}
		}
		return &ErrBindFailure{Cause: err}
	}
	t.mu.Lock()
	t.listener = ln
	t.mu.Unlock()

	router := chi.NewRouter()
	router.Get("/extension", t.handleUpgrade)
	router.Get("/health", t.handleHealth)

	t.server = &http.Server{Handler: router}
	go func() {
		if err := t.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			t.logger.WithError(err).Error("transport listener exited")
		}
	}()
	return nil
}

func (t *Transport) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	t.mu.Lock()
	connected := t.peerOpen
	t.mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "connected": connected})
}

func (t *Transport) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	if t.OnRawConnection != nil && t.OnRawConnection(r) {
		return
	}

	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	t.mu.Lock()
	priorOpen := t.peerOpen
	if priorOpen {
		t.mu.Unlock()
		t.rejectSecondPeer(conn)
		return
	}
	wasReplacement := t.everConnected
	t.peer = conn
	t.peerOpen = true
	t.everConnected = true
	t.peerInfo = nil
	t.stopPing = make(chan struct{})
	t.mu.Unlock()

	if wasReplacement && t.OnReconnect != nil {
		t.OnReconnect()
	}

	go t.pingLoop(conn, t.stopPing)
	t.readLoop(conn)
}

// rejectSecondPeer implements spec §4.1's single-peer policy: the new peer
// receives a -32001 error envelope, then a close frame 100ms later.
func (t *Transport) rejectSecondPeer(conn *websocket.Conn) {
	resp := wire.ErrorResponse(nil, -32001, "Another browser is already connected. Only one browser at a time.")
	data, _ := json.Marshal(resp)
	_ = conn.WriteMessage(websocket.TextMessage, data)
	time.AfterFunc(singlePeerCloseDelay, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(1008, "single peer policy"), time.Now().Add(time.Second))
		_ = conn.Close()
	})
}

func (t *Transport) pingLoop(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}

func (t *Transport) readLoop(conn *websocket.Conn) {
	conn.SetPongHandler(func(string) error {
		t.logger.Debug("pong received")
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.handlePeerClosed(conn)
			return
		}
		t.handleFrame(data)
	}
}

func (t *Transport) handlePeerClosed(conn *websocket.Conn) {
	t.mu.Lock()
	if t.peer != conn {
		t.mu.Unlock()
		return
	}
	t.peer = nil
	t.peerOpen = false
	t.peerInfo = nil
	if t.stopPing != nil {
		close(t.stopPing)
		t.stopPing = nil
	}
	toDrain := t.pending
	t.pending = make(map[string]*pendingEntry)
	onPeerClosed := t.OnPeerClosed
	t.mu.Unlock()

	for _, entry := range toDrain {
		t.rejectOnce(entry, &ErrDisconnected{})
	}
	if onPeerClosed != nil {
		onPeerClosed()
	}
}

// handleFrame classifies and dispatches one inbound frame per spec §4.1's
// three cases: response, handshake, notification. Malformed frames are
// logged and dropped; they never kill the connection.
func (t *Transport) handleFrame(data []byte) {
	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		t.logger.WithError(err).Debug("dropping malformed frame")
		return
	}

	switch {
	case wire.IsHandshake(object):
		t.handleHandshake(data)
	case wire.IsResponse(object):
		t.handleResponse(object)
	default:
		t.handleNotification(object)
	}
}

func (t *Transport) handleHandshake(data []byte) {
	var hs wire.Handshake
	if err := json.Unmarshal(data, &hs); err != nil {
		t.logger.WithError(err).Debug("malformed handshake frame")
		return
	}
	build := ""
	if hs.BuildTimestamp != nil {
		build = *hs.BuildTimestamp
	}
	t.mu.Lock()
	t.peerInfo = &PeerInfo{Browser: hs.Browser, Version: hs.Version, BuildTimestamp: build}
	onHandshake := t.OnHandshake
	t.mu.Unlock()
	if onHandshake != nil {
		onHandshake()
	}
}

func (t *Transport) handleResponse(object map[string]json.RawMessage) {
	var idRaw json.RawMessage
	if v, ok := object["id"]; ok {
		idRaw = v
	}
	var id string
	_ = json.Unmarshal(idRaw, &id)

	t.mu.Lock()
	entry, ok := t.pending[id]
	if ok {
		delete(t.pending, id)
	}
	t.mu.Unlock()
	if !ok {
		t.logger.WithField("id", id).Debug("response for unknown or already-settled request, dropping")
		return
	}

	if errRaw, ok := object["error"]; ok {
		var e wire.Error
		_ = json.Unmarshal(errRaw, &e)
		t.rejectOnce(entry, &ErrPeerError{Message: e.Message})
		return
	}

	result := object["result"]
	t.extractTabInfo(result)
	t.resolveOnce(entry, result)
}

func (t *Transport) extractTabInfo(result json.RawMessage) {
	if t.OnTabInfoUpdate == nil || len(result) == 0 {
		return
	}
	var wrapper struct {
		CurrentTab *TabInfo `json:"currentTab"`
	}
	if json.Unmarshal(result, &wrapper) == nil && wrapper.CurrentTab != nil {
		t.OnTabInfoUpdate(*wrapper.CurrentTab)
	}
}

func (t *Transport) handleNotification(object map[string]json.RawMessage) {
	var n wire.Notification
	raw, _ := json.Marshal(object)
	if err := json.Unmarshal(raw, &n); err != nil {
		return
	}
	if n.Method != "notifications/tab_info_update" {
		return
	}
	if t.OnTabInfoUpdate == nil {
		return
	}
	var tab TabInfo
	if json.Unmarshal(n.Params, &tab) == nil {
		t.OnTabInfoUpdate(tab)
	}
}

func (t *Transport) resolveOnce(entry *pendingEntry, result json.RawMessage) {
	if entry.timer != nil {
		entry.timer.Stop()
	}
	select {
	case entry.resultCh <- result:
	default:
	}
}

func (t *Transport) rejectOnce(entry *pendingEntry, err error) {
	if entry.timer != nil {
		entry.timer.Stop()
	}
	select {
	case entry.errCh <- err:
	default:
	}
}

// SendCmd sends a JSON-RPC request to the peer and waits for its response,
// or for timeoutMs to elapse (0 means DefaultTimeout). Exactly one outcome
// is ever delivered to the caller per spec invariant 4: a late peer
// response after timeout is looked up by id, found absent (already
// deleted), and silently dropped.
func (t *Transport) SendCmd(ctx context.Context, method string, params any, timeout time.Duration) (json.RawMessage, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	t.mu.Lock()
	if !t.peerOpen {
		t.mu.Unlock()
		return nil, &ErrDisconnected{}
	}
	id := newCorrelationID()
	entry := &pendingEntry{resultCh: make(chan json.RawMessage, 1), errCh: make(chan error, 1)}
	entry.timer = time.AfterFunc(timeout, func() {
		t.mu.Lock()
		if _, still := t.pending[id]; still {
			delete(t.pending, id)
		} else {
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()
		t.rejectOnce(entry, &ErrTimeout{Method: method})
	})
	t.pending[id] = entry
	peer := t.peer
	t.mu.Unlock()

	req, err := wire.NewRequest(id, method, params)
	if err != nil {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
		return nil, err
	}
	data, _ := json.Marshal(req)

	if err := peer.WriteMessage(websocket.TextMessage, data); err != nil {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
		return nil, &ErrDisconnected{}
	}

	select {
	case res := <-entry.resultCh:
		return res, nil
	case err := <-entry.errCh:
		return nil, err
	case <-ctx.Done():
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
		return nil, ctx.Err()
	}
}

// SendNotification sends a fire-and-forget frame; it silently no-ops when
// disconnected (spec §4.1).
func (t *Transport) SendNotification(method string, params any) error {
	t.mu.Lock()
	peer := t.peer
	open := t.peerOpen
	t.mu.Unlock()
	if !open {
		return nil
	}

	n, err := wire.NewNotification(method, params)
	if err != nil {
		return err
	}
	data, _ := json.Marshal(n)
	return peer.WriteMessage(websocket.TextMessage, data)
}

// IsConnected reports whether a peer is currently attached.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peerOpen
}

// Peer returns the peer's handshake metadata, or nil before handshake.
func (t *Transport) Peer() *PeerInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peerInfo
}

// Stop drains all pending requests (rejecting each with ErrDisconnected in
// one synchronous pass), closes the peer socket, and closes the listener.
func (t *Transport) Stop() error {
	t.mu.Lock()
	peer := t.peer
	t.peer = nil
	t.peerOpen = false
	t.peerInfo = nil
	if t.stopPing != nil {
		close(t.stopPing)
		t.stopPing = nil
	}
	toDrain := t.pending
	t.pending = make(map[string]*pendingEntry)
	listener := t.listener
	server := t.server
	t.mu.Unlock()

	for _, entry := range toDrain {
		t.rejectOnce(entry, &ErrDisconnected{})
	}
	if peer != nil {
		_ = peer.Close()
	}
	if server != nil {
		_ = server.Close()
	} else if listener != nil {
		_ = listener.Close()
	}
	return nil
}

func isAddrInUse(err error) bool {
	return errors.Is(err, syscall.EADDRINUSE)
}
