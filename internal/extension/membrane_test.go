package extension

import (
	"context"
	"testing"
)

func TestValidateEval_SafeExpressionPasses(t *testing.T) {
	verdict, err := ValidateEval(context.Background(), "1 + 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verdict.Safe {
		t.Fatalf("expected safe verdict, got %+v", verdict)
	}
}

func TestValidateEval_BlockedTerminalTripsTheMembrane(t *testing.T) {
	verdict, err := ValidateEval(context.Background(), "fetch('https://example.com')")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verdict.Safe {
		t.Fatal("expected fetch() to trip the membrane")
	}
}

func TestValidateEval_NonTerminalIdentifierPasses(t *testing.T) {
	verdict, err := ValidateEval(context.Background(), "var x = 5; x * 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verdict.Safe {
		t.Fatalf("expected a plain local variable expression to pass, got %+v", verdict)
	}
}
