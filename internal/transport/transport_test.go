package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func wsURL(port int) string {
	return fmt.Sprintf("ws://127.0.0.1:%d/extension", port)
}

func freePort(t *testing.T) int {
	t.Helper()
	ln := httptest.NewServer(nil)
	defer ln.Close()
	var port int
	_, _ = fmt.Sscanf(strings.TrimPrefix(ln.URL, "http://127.0.0.1:"), "%d", &port)
	return port
}

func dial(t *testing.T, port int) *websocket.Conn {
	t.Helper()
	var conn *websocket.Conn
	var err error
	for i := 0; i < 50; i++ {
		conn, _, err = websocket.DefaultDialer.Dial(wsURL(port), nil)
		if err == nil {
			return conn
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("dial failed: %v", err)
	return nil
}

func TestSendCmd_RoundTrip(t *testing.T) {
	port := freePort(t)
	tr := New(testLogger())
	require.NoError(t, tr.Start("127.0.0.1", port))
	defer tr.Stop()

	conn := dial(t, port)
	defer conn.Close()

	go func() {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req struct {
			ID     string          `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		_ = json.Unmarshal(data, &req)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": map[string]any{"ok": true}}
		b, _ := json.Marshal(resp)
		_ = conn.WriteMessage(websocket.TextMessage, b)
	}()

	time.Sleep(50 * time.Millisecond) // let the server register the peer
	result, err := tr.SendCmd(context.Background(), "cdp", map[string]any{"method": "Page.navigate"}, time.Second)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(result))
}

func TestSendCmd_Timeout(t *testing.T) {
	port := freePort(t)
	tr := New(testLogger())
	require.NoError(t, tr.Start("127.0.0.1", port))
	defer tr.Stop()

	conn := dial(t, port)
	defer conn.Close()
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			// never respond
		}
	}()
	time.Sleep(50 * time.Millisecond)

	_, err := tr.SendCmd(context.Background(), "slow", nil, 50*time.Millisecond)
	require.Error(t, err)
	var timeoutErr *ErrTimeout
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "slow", timeoutErr.Method)
}

func TestSendCmd_LateResponseAfterTimeoutIsDropped(t *testing.T) {
	port := freePort(t)
	tr := New(testLogger())
	require.NoError(t, tr.Start("127.0.0.1", port))
	defer tr.Stop()

	conn := dial(t, port)
	defer conn.Close()

	respond := make(chan struct{})
	go func() {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(data, &req)
		<-respond
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": map[string]any{"late": true}}
		b, _ := json.Marshal(resp)
		_ = conn.WriteMessage(websocket.TextMessage, b)
	}()
	time.Sleep(50 * time.Millisecond)

	_, err := tr.SendCmd(context.Background(), "slow", nil, 30*time.Millisecond)
	require.Error(t, err)

	close(respond)
	time.Sleep(50 * time.Millisecond) // late response should be a silent drop, not a panic
}

func TestSendCmd_DisconnectedWhenNoPeer(t *testing.T) {
	tr := New(testLogger())
	_, err := tr.SendCmd(context.Background(), "cdp", nil, time.Second)
	require.Error(t, err)
	var disc *ErrDisconnected
	require.ErrorAs(t, err, &disc)
}

func TestDisconnect_DrainsPendingExactlyOnce(t *testing.T) {
	port := freePort(t)
	tr := New(testLogger())
	require.NoError(t, tr.Start("127.0.0.1", port))
	defer tr.Stop()

	conn := dial(t, port)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	time.Sleep(50 * time.Millisecond)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = tr.SendCmd(context.Background(), "cdp", nil, 5*time.Second)
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, conn.Close())
	wg.Wait()

	for _, err := range errs {
		require.Error(t, err)
		var disc *ErrDisconnected
		assert.ErrorAs(t, err, &disc)
	}
}

func TestSinglePeerPolicy_RejectsSecondConnection(t *testing.T) {
	port := freePort(t)
	tr := New(testLogger())
	require.NoError(t, tr.Start("127.0.0.1", port))
	defer tr.Stop()

	first := dial(t, port)
	defer first.Close()
	time.Sleep(50 * time.Millisecond)

	second := dial(t, port)
	defer second.Close()

	_, data, err := second.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), "-32001")
	assert.Contains(t, string(data), "Another browser is already connected")

	_, _, closeErr := second.ReadMessage()
	require.Error(t, closeErr)
	cerr, ok := closeErr.(*websocket.CloseError)
	require.True(t, ok)
	assert.Equal(t, 1008, cerr.Code)
}

func TestReconnect_FiresOnReplacementOfClosedPeer(t *testing.T) {
	port := freePort(t)
	tr := New(testLogger())
	var reconnected int
	var mu sync.Mutex
	tr.OnReconnect = func() {
		mu.Lock()
		reconnected++
		mu.Unlock()
	}
	require.NoError(t, tr.Start("127.0.0.1", port))
	defer tr.Stop()

	first := dial(t, port)
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, first.Close())
	time.Sleep(50 * time.Millisecond)

	second := dial(t, port)
	defer second.Close()
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, reconnected)
}
