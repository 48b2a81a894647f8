package frontend

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/h8ngry/supersurf/internal/wire"
)

// ScriptMode serves the plain newline-delimited JSON-RPC stdio frontend
// (spec §4.8): one request, or a batch array of requests, per line; one
// response (or array of responses) per line; results are unwrapped
// ("raw" mode, no content/isError framing). Each line is decoded as
// either a single object or an array before dispatch.
type ScriptMode struct {
	logger  *logrus.Logger
	manager Manager
}

// NewScriptMode constructs the script-mode frontend.
func NewScriptMode(logger *logrus.Logger, manager Manager) *ScriptMode {
	return &ScriptMode{logger: logger, manager: manager}
}

// Run reads newline-delimited JSON-RPC frames from in, dispatches each
// (or each member of a batch array), and writes one response line per
// input line until in is exhausted or ctx is canceled.
func (s *ScriptMode) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	const maxLine = 10 * 1024 * 1024
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		s.handleLine(ctx, []byte(line), out)
	}
	return scanner.Err()
}

func (s *ScriptMode) handleLine(ctx context.Context, line []byte, out io.Writer) {
	trimmed := strings.TrimSpace(string(line))
	if strings.HasPrefix(trimmed, "[") {
		var frames []json.RawMessage
		if err := json.Unmarshal(line, &frames); err != nil {
			s.writeResponse(out, wire.ErrorResponse(nil, -32700, "parse error: "+err.Error()))
			return
		}
		responses := make([]wire.Response, 0, len(frames))
		for _, frame := range frames {
			responses = append(responses, s.dispatchFrame(ctx, frame))
		}
		s.writeBatch(out, responses)
		return
	}
	s.writeResponse(out, s.dispatchFrame(ctx, line))
}

func (s *ScriptMode) dispatchFrame(ctx context.Context, raw json.RawMessage) wire.Response {
	var req wire.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return wire.ErrorResponse(nil, -32700, "parse error: "+err.Error())
	}
	if req.JSONRPC != wire.Version || strings.TrimSpace(req.Method) == "" {
		return wire.ErrorResponse(req.ID, -32600, "invalid request: jsonrpc must be \"2.0\" and method must be non-empty")
	}

	result, err := s.manager.Dispatch(ctx, req.Method, req.Params, true)
	if err != nil {
		return wire.ErrorResponse(req.ID, -32000, err.Error())
	}
	resp, err := wire.SuccessResponse(req.ID, result)
	if err != nil {
		return wire.ErrorResponse(req.ID, -32000, err.Error())
	}
	return resp
}

func (s *ScriptMode) writeResponse(out io.Writer, resp wire.Response) {
	raw, err := json.Marshal(resp)
	if err != nil {
		s.logger.WithError(err).Error("failed to marshal script-mode response")
		return
	}
	if _, err := fmt.Fprintln(out, string(raw)); err != nil {
		s.logger.WithError(err).Error("failed to write script-mode response")
	}
}

func (s *ScriptMode) writeBatch(out io.Writer, responses []wire.Response) {
	raw, err := json.Marshal(responses)
	if err != nil {
		s.logger.WithError(err).Error("failed to marshal script-mode batch response")
		return
	}
	if _, err := fmt.Fprintln(out, string(raw)); err != nil {
		s.logger.WithError(err).Error("failed to write script-mode batch response")
	}
}
