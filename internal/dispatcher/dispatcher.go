// Package dispatcher implements C4: the ~25 high-level browser tools
// composed from the CDP primitives in primitives.go, grouped one file
// per tool family. Kept as a single package rather than split further:
// the tool groups share the sender/primitives plumbing tightly enough
// that separate packages would only add interface indirection with no
// import cycle to justify it.
package dispatcher

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"

	"github.com/h8ngry/supersurf/internal/connection"
	"github.com/h8ngry/supersurf/internal/experiments"
	"github.com/h8ngry/supersurf/internal/humanize"
	"github.com/h8ngry/supersurf/internal/transport"
)

// handlerFunc is the uniform shape every registered tool handler has:
// decode its own args from raw JSON, do its work, return a toolResult.
type handlerFunc func(ctx context.Context, d *Dispatcher, args json.RawMessage) (toolResult, error)

// Dispatcher implements connection.Dispatcher: it owns the tool registry
// and the live Transport/Registry/ManagerHandle triple a Manager hands it
// on Enable.
type Dispatcher struct {
	transport   *transport.Transport
	experiments *experiments.Registry
	mgr         connection.ManagerHandle

	handlers map[string]handlerFunc
	descs    []connection.ToolDescriptor

	// cursorMu guards the humanized-motion state: one personality per
	// activation, drawn once and reused for every move (spec §4.7), plus
	// the last known cursor position each path generation starts from.
	cursorMu    sync.Mutex
	cursor      humanize.Point
	personality humanize.Personality
	rng         *rand.Rand
}

// New builds a Dispatcher bound to one activation's Transport/Registry/
// ManagerHandle. Intended to be adapted into a connection.DispatcherFactory
// closure by the composition root.
func New(t *transport.Transport, reg *experiments.Registry, mgr connection.ManagerHandle) *Dispatcher {
	rng := rand.New(rand.NewSource(newPersonalitySeed()))
	d := &Dispatcher{
		transport:   t,
		experiments: reg,
		mgr:         mgr,
		handlers:    make(map[string]handlerFunc),
		rng:         rng,
		personality: humanize.NewPersonality(rng),
	}
	d.registerAll()
	return d
}

func (d *Dispatcher) register(name, description string, schema map[string]any, fn handlerFunc) {
	d.handlers[name] = fn
	d.descs = append(d.descs, connection.ToolDescriptor{
		Name:        name,
		Description: description,
		InputSchema: schema,
	})
}

// ListTools implements connection.Dispatcher.
func (d *Dispatcher) ListTools() []connection.ToolDescriptor {
	out := make([]connection.ToolDescriptor, len(d.descs))
	copy(out, d.descs)
	return out
}

// Dispatch implements connection.Dispatcher. rawResult is threaded through
// for the stdio frontends' script mode (spec §4.8); the dispatcher itself
// always returns the same toolResult shape regardless, leaving envelope
// translation to the frontend.
func (d *Dispatcher) Dispatch(ctx context.Context, tool string, args json.RawMessage, rawResult bool) (any, error) {
	fn, ok := d.handlers[tool]
	if !ok {
		return nil, &ErrUnknownTool{Tool: tool}
	}
	result, err := fn(ctx, d, args)
	if err != nil {
		return nil, classifyHandlerError(err)
	}
	return result, nil
}

func (d *Dispatcher) registerAll() {
	d.registerTabTools()
	d.registerNavigateTools()
	d.registerInteractTools()
	d.registerDOMTools()
	d.registerScreenshotTools()
	d.registerEvaluateTools()
	d.registerConsoleNetworkTools()
	d.registerVerifyTools()
	d.registerFormTools()
	d.registerDragTools()
	d.registerPDFTools()
	d.registerMiscTools()
}

func decodeArgs(args json.RawMessage, v any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// newPersonalitySeed varies the humanized-motion personality across
// activations without depending on wall-clock time at the package level,
// so tests that construct a Dispatcher stay deterministic per-process
// while distinct Dispatcher instances in the same process still diverge.
var personalitySeedCounter int64

func newPersonalitySeed() int64 {
	personalitySeedCounter++
	return personalitySeedCounter
}

func emptySchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}
