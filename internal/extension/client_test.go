package extension

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/h8ngry/supersurf/internal/transport"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func freePort(t *testing.T) int {
	t.Helper()
	ln := httptest.NewServer(nil)
	defer ln.Close()
	var port int
	_, _ = fmt.Sscanf(strings.TrimPrefix(ln.URL, "http://127.0.0.1:"), "%d", &port)
	return port
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestRouter_ConnectsHandshakesAndServesCommands(t *testing.T) {
	port := freePort(t)
	server := transport.New(testLogger())
	if err := server.Start("127.0.0.1", port); err != nil {
		t.Fatalf("failed to start transport: %v", err)
	}
	defer server.Stop()

	sessions := NewSessionStore(nil)
	peer := NewPeer(sessions, &fakeScheduler{})
	router := NewRouter(testLogger(), fmt.Sprintf("ws://127.0.0.1:%d/extension", port), "chrome", "1.0.0", "", NewRealScheduler(), sessions)
	peer.RegisterHandlers(router)

	router.Connect(context.Background())
	waitUntil(t, time.Second, server.IsConnected)
	waitUntil(t, time.Second, func() bool { return server.Peer() != nil })

	if got := server.Peer().Browser; got != "chrome" {
		t.Fatalf("expected handshake browser=chrome, got %q", got)
	}

	raw, err := server.SendCmd(context.Background(), "capturePageState", nil, time.Second)
	if err != nil {
		t.Fatalf("SendCmd failed: %v", err)
	}
	var result struct {
		TextEntries []string `json:"textEntries"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("failed to decode result: %v", err)
	}
	if len(result.TextEntries) == 0 {
		t.Fatal("expected at least one text entry from the default sandbox page")
	}
}

func TestRouter_UnknownMethodReturnsJSONRPCError(t *testing.T) {
	port := freePort(t)
	server := transport.New(testLogger())
	if err := server.Start("127.0.0.1", port); err != nil {
		t.Fatalf("failed to start transport: %v", err)
	}
	defer server.Stop()

	sessions := NewSessionStore(nil)
	router := NewRouter(testLogger(), fmt.Sprintf("ws://127.0.0.1:%d/extension", port), "chrome", "1.0.0", "", NewRealScheduler(), sessions)
	router.Connect(context.Background())
	waitUntil(t, time.Second, server.IsConnected)

	_, err := server.SendCmd(context.Background(), "notAMethodAnyoneRegistered", nil, time.Second)
	if err == nil {
		t.Fatal("expected an error for an unregistered method")
	}
}
