package connection

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h8ngry/supersurf/internal/experiments"
	"github.com/h8ngry/supersurf/internal/transport"
)

type stubDispatcher struct{}

func (stubDispatcher) ListTools() []ToolDescriptor { return []ToolDescriptor{{Name: "browser_tabs"}} }
func (stubDispatcher) Dispatch(ctx context.Context, tool string, args json.RawMessage, raw bool) (any, error) {
	return map[string]any{"tool": tool}, nil
}

func freePort(t *testing.T) int {
	t.Helper()
	srv := httptest.NewServer(nil)
	defer srv.Close()
	var port int
	_, _ = fmt.Sscanf(strings.TrimPrefix(srv.URL, "http://127.0.0.1:"), "%d", &port)
	return port
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	port := freePort(t)
	factory := func(tr *transport.Transport, reg *experiments.Registry, mgr ManagerHandle) Dispatcher {
		return stubDispatcher{}
	}
	return New(logger, "127.0.0.1", port, factory)
}

func TestStateMachine_EnableWithoutClientID(t *testing.T) {
	m := newTestManager(t)
	err := m.Enable("  ")
	require.Error(t, err)
	var missing *ErrMissingClientID
	assert.ErrorAs(t, err, &missing)
	assert.Equal(t, Passive, m.State())
}

func TestStateMachine_EnableFromNonPassiveIsNoop(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Enable("proj"))
	defer m.Disable()

	err := m.Enable("proj")
	require.Error(t, err)
	var already *ErrAlreadyEnabled
	assert.ErrorAs(t, err, &already)
	assert.Equal(t, Active, m.State())
}

func TestStateMachine_DisableFromPassiveIsNoop(t *testing.T) {
	m := newTestManager(t)
	err := m.Disable()
	require.Error(t, err)
	var already *ErrAlreadyDisabled
	assert.ErrorAs(t, err, &already)
	assert.Equal(t, Passive, m.State())
}

func TestStateMachine_FullLifecycle(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Enable("proj"))
	assert.Equal(t, Active, m.State())

	m.NotifyHandshake()
	assert.Equal(t, Connected, m.State())

	m.NotifyPeerClosed()
	assert.Equal(t, Active, m.State())

	require.NoError(t, m.Disable())
	assert.Equal(t, Passive, m.State())
}

func TestDispatch_ControlToolsHandledLocally(t *testing.T) {
	m := newTestManager(t)
	result, err := m.Dispatch(context.Background(), "status", json.RawMessage(`{}`), false)
	require.NoError(t, err)
	sr, ok := result.(statusResult)
	require.True(t, ok)
	assert.Equal(t, string(Passive), sr.State)
}

func TestDispatch_NonControlToolForwardsToDispatcher(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Enable("proj"))
	defer m.Disable()

	result, err := m.Dispatch(context.Background(), "browser_navigate", json.RawMessage(`{}`), false)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"tool": "browser_navigate"}, result)
}

func TestDispatch_NonControlToolWhilePassiveIsDisconnected(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Dispatch(context.Background(), "browser_navigate", json.RawMessage(`{}`), false)
	require.Error(t, err)
}

func TestListTools_NeverFailsEvenWhilePassive(t *testing.T) {
	m := newTestManager(t)
	tools := m.ListTools()
	require.NotEmpty(t, tools)
	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	assert.Contains(t, names, "enable")
}

func TestHeader_PassiveVariant(t *testing.T) {
	m := newTestManager(t)
	assert.Equal(t, "🔴 v1.0.0 | Disabled\n---\n\n", m.Header())
}

func TestHeader_ConnectedVariantHasConnectedPrefix(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Enable("proj"))
	defer m.Disable()
	m.NotifyHandshake()

	header := m.Header()
	assert.True(t, strings.HasPrefix(header, "✅ v1.0.0"))
}

func TestTruncateURL(t *testing.T) {
	short := "https://example.com"
	assert.Equal(t, short, truncateURL(short))

	long := "https://example.com/" + strings.Repeat("a", 60)
	got := truncateURL(long)
	assert.Len(t, got, 50)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestExperimentalFeaturesTool_UnknownNameRejected(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Enable("proj"))
	defer m.Disable()

	args, _ := json.Marshal(map[string]string{"action": "enable", "name": "not_real"})
	result, err := m.Dispatch(context.Background(), "experimental_features", args, false)
	require.NoError(t, err)
	er, ok := result.(experimentsResult)
	require.True(t, ok)
	assert.False(t, er.Success)
}
