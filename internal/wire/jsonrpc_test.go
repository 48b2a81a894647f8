package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_HasID(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		wantHas  bool
		wantNote bool // notification
		wantInv  bool
	}{
		{"string id", `{"jsonrpc":"2.0","id":"abc12345","method":"enable"}`, true, false, false},
		{"numeric id", `{"jsonrpc":"2.0","id":7,"method":"enable"}`, true, false, false},
		{"no id is notification", `{"jsonrpc":"2.0","method":"notifications/tab_info_update"}`, false, true, false},
		{"explicit null id", `{"jsonrpc":"2.0","id":null,"method":"enable"}`, false, false, true},
		{"invalid id type", `{"jsonrpc":"2.0","id":{"x":1},"method":"enable"}`, false, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var r Request
			require.NoError(t, json.Unmarshal([]byte(tc.body), &r))
			assert.Equal(t, tc.wantHas, r.HasID())
			assert.Equal(t, tc.wantNote, r.IsNotification())
			assert.Equal(t, tc.wantInv, r.HasInvalidID())
		})
	}
}

func TestIsHandshake(t *testing.T) {
	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(`{"type":"handshake","browser":"chrome","version":"1.0","buildTimestamp":null}`), &obj))
	assert.True(t, IsHandshake(obj))

	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":"a","result":{}}`), &obj))
	assert.False(t, IsHandshake(obj))
}

func TestIsResponse(t *testing.T) {
	var obj map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":"a","result":{"ok":true}}`), &obj))
	assert.True(t, IsResponse(obj))

	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"notifications/tab_info_update","params":{}}`), &obj))
	assert.False(t, IsResponse(obj))
}

func TestErrorResponseRoundTrip(t *testing.T) {
	resp := ErrorResponse("id1", -32001, "Another browser is already connected. Only one browser at a time.")
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"code":-32001`)
}
