package frontend

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/h8ngry/supersurf/internal/connection"
)

type fakeManager struct {
	tools    []connection.ToolDescriptor
	dispatch func(ctx context.Context, tool string, args json.RawMessage, rawResult bool) (any, error)
}

func (f *fakeManager) ListTools() []connection.ToolDescriptor {
	return f.tools
}

func (f *fakeManager) Dispatch(ctx context.Context, tool string, args json.RawMessage, rawResult bool) (any, error) {
	if f.dispatch != nil {
		return f.dispatch(ctx, tool, args, rawResult)
	}
	return nil, errors.New("dispatch not configured")
}
