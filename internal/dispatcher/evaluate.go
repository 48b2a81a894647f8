// evaluate.go — browser_evaluate, routed through the three-layer
// SecureEvalPipeline when secure_eval is enabled (spec §4.4, §4.5).
package dispatcher

import (
	"context"
	"encoding/json"

	"github.com/h8ngry/supersurf/internal/experiments"
	"github.com/h8ngry/supersurf/internal/secureeval"
	"github.com/h8ngry/supersurf/internal/transport"
)

const defaultSecureEvalTimeout = transport.DefaultTimeout

type evaluateArgs struct {
	Expression string `json:"expression"`
}

func (d *Dispatcher) registerEvaluateTools() {
	d.register("browser_evaluate", "Evaluate a JavaScript expression in the attached page.", map[string]any{
		"type":       "object",
		"properties": map[string]any{"expression": map[string]any{"type": "string"}},
		"required":   []string{"expression"},
	}, handleEvaluate)
}

func handleEvaluate(ctx context.Context, d *Dispatcher, raw json.RawMessage) (toolResult, error) {
	var args evaluateArgs
	if err := decodeArgs(raw, &args); err != nil {
		return toolResult{}, err
	}

	if d.experiments.IsEnabled(experiments.SecureEval) {
		verdict, err := secureeval.Evaluate(ctx, args.Expression, secureevalPeer{d})
		if err != nil {
			return toolResult{}, err
		}
		if !verdict.Safe {
			return errText(verdict.Reason), nil
		}
		args.Expression = verdict.WrappedExpression
	}

	result, err := eval(ctx, d.transport, args.Expression, true)
	if err != nil {
		return toolResult{}, err
	}
	var value any
	_ = json.Unmarshal(result, &value)
	return ok(value), nil
}

// secureevalPeer adapts the Dispatcher's transport to secureeval.Peer so
// Layer 2's validateEval round-trip goes through the same correlated
// Transport.SendCmd path as every other primitive.
type secureevalPeer struct{ d *Dispatcher }

func (p secureevalPeer) ValidateEval(ctx context.Context, source string) (secureeval.MembraneVerdict, error) {
	raw, err := p.d.transport.SendCmd(ctx, "validateEval", map[string]any{"code": source}, defaultSecureEvalTimeout)
	if err != nil {
		return secureeval.MembraneVerdict{}, err
	}
	var verdict secureeval.MembraneVerdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return secureeval.MembraneVerdict{}, err
	}
	verdict.Available = true
	return verdict, nil
}
