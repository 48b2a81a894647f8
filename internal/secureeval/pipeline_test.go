package secureeval

import (
	"context"
	"testing"
)

type fakePeer struct {
	verdict MembraneVerdict
	err     error
}

func (f fakePeer) ValidateEval(ctx context.Context, source string) (MembraneVerdict, error) {
	return f.verdict, f.err
}

func TestEvaluate_StaticLayerBlocksBeforePeerCall(t *testing.T) {
	peer := fakePeer{verdict: MembraneVerdict{Safe: true, Available: true}}
	v, err := Evaluate(context.Background(), `fetch('/api')`, peer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Safe {
		t.Fatal("expected static layer to block")
	}
	if v.Reason == "" {
		t.Fatal("expected a reason naming the layer")
	}
}

func TestEvaluate_MembraneBlocks(t *testing.T) {
	peer := fakePeer{verdict: MembraneVerdict{Safe: false, Reason: "window.fetch", Available: true}}
	v, err := Evaluate(context.Background(), `this.querySelector('.x')`, peer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Safe {
		t.Fatal("expected membrane layer to block")
	}
}

func TestEvaluate_MembraneUnavailableSkipsToLayer3(t *testing.T) {
	peer := fakePeer{verdict: MembraneVerdict{Safe: false, Available: false}}
	v, err := Evaluate(context.Background(), `this.querySelector('.x')`, peer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Safe {
		t.Fatal("expected unavailable membrane to be treated as skip, not block")
	}
	if v.WrappedExpression == "" {
		t.Fatal("expected a layer-3-wrapped expression")
	}
}

func TestEvaluate_SafeWrapsForPageProxy(t *testing.T) {
	peer := fakePeer{verdict: MembraneVerdict{Safe: true, Available: true}}
	v, err := Evaluate(context.Background(), `this.querySelector('.x')`, peer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Safe {
		t.Fatal("expected safe verdict")
	}
	if v.WrappedExpression == "" {
		t.Fatal("expected non-empty wrapped expression")
	}
}
