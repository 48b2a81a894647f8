package frontend

import (
	"context"
	"encoding/json"

	"github.com/h8ngry/supersurf/internal/connection"
)

// Manager is the surface both stdio modes drive. *connection.Manager is
// the only production implementation; frontend depends on connection (a
// one-way edge — connection never imports frontend).
type Manager interface {
	ListTools() []connection.ToolDescriptor
	Dispatch(ctx context.Context, tool string, args json.RawMessage, rawResult bool) (any, error)
}
