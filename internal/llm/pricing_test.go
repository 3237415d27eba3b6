package llm

import (
	"math"
	"testing"
)

func TestLookupCost(t *testing.T) {
	c := LookupCost("claude-haiku-4-5")
	if c == nil {
		t.Fatal("expected pricing for claude-haiku-4-5")
	}
	if c.InputPerMTok != 1 || c.OutputPerMTok != 5 {
		t.Fatalf("unexpected pricing: %+v", c)
	}

	if LookupCost("not-a-model") != nil {
		t.Fatal("expected nil for unknown model")
	}
}

func TestLookupCost_VendorPrefix(t *testing.T) {
	// OpenRouter model IDs resolve through the prefix fallback.
	c := LookupCost("anthropic/claude-haiku-4-5")
	if c == nil {
		t.Fatal("expected pricing for prefixed model ID")
	}
	if c.InputPerMTok != 1 {
		t.Fatalf("unexpected input price: %v", c.InputPerMTok)
	}

	if LookupCost("vendor/not-a-model") != nil {
		t.Fatal("expected nil for unknown prefixed model")
	}
}

func TestModelCost_Cost(t *testing.T) {
	c := ModelCost{InputPerMTok: 3, OutputPerMTok: 15}

	got := c.Cost(2_000_000, 1_000_000)
	if math.Abs(got-21) > 1e-9 {
		t.Fatalf("expected $21, got %v", got)
	}

	if got := c.Cost(0, 0); got != 0 {
		t.Fatalf("expected $0 for no tokens, got %v", got)
	}
}
