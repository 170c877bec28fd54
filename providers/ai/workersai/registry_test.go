package workersai

import "testing"

func TestLookup(t *testing.T) {
	registry := DefaultRegistry()

	model, ok := registry.Lookup("@cf/meta/llama-3.1-8b-instruct")
	if !ok {
		t.Fatal("expected llama-3.1-8b-instruct in the default catalog")
	}
	if model.Complexity != ComplexityBalanced {
		t.Errorf("expected balanced complexity, got %q", model.Complexity)
	}

	if _, ok := registry.Lookup("@cf/meta/does-not-exist"); ok {
		t.Error("expected a miss for an unregistered identifier")
	}
}

// TestDefaultRegistry_Catalog pins the capability facts the selection rules
// depend on.
func TestDefaultRegistry_Catalog(t *testing.T) {
	registry := DefaultRegistry()

	if _, ok := registry.Lookup(DefaultTriageModel); !ok {
		t.Errorf("the triage model %q must be registered", DefaultTriageModel)
	}

	model, ok := registry.Lookup("@cf/meta/llama-3-8b-instruct")
	if !ok {
		t.Fatal("expected llama-3-8b-instruct in the default catalog")
	}
	if model.SupportsTools {
		t.Error("llama-3-8b-instruct must not advertise tool support")
	}

	legacy, ok := registry.Lookup("@cf/meta/llama-2-7b-chat-int8")
	if !ok {
		t.Fatal("expected llama-2-7b-chat-int8 in the default catalog")
	}
	if legacy.InputFormat != InputPrompt {
		t.Error("llama-2-7b-chat-int8 predates the messages API and needs the prompt format")
	}
}

// TestBestFit_ToolsPrefersStrongest verifies that a tool requirement lands
// on the most powerful tool-capable model and never on a model that merely
// shares a family name with one.
func TestBestFit_ToolsPrefersStrongest(t *testing.T) {
	got := DefaultRegistry().BestFit(Constraints{Tools: true})

	if !got.SupportsTools {
		t.Fatalf("tool constraint produced %q, which does not support tools", got.ID)
	}
	if got.ID == "@cf/meta/llama-3-8b-instruct" {
		t.Error("llama-3-8b-instruct does not support tool calling")
	}
	if got.Complexity != ComplexityPowerful {
		t.Errorf("expected the strongest tool-capable model, got %q (%s)", got.ID, got.Complexity)
	}
}

// TestBestFit_RelaxesComplexity: when no model satisfies both the capability
// requirement and the complexity pin, the pin goes first.
func TestBestFit_RelaxesComplexity(t *testing.T) {
	registry := NewRegistry([]ModelCapability{
		{ID: "plain-powerful", Complexity: ComplexityPowerful},
		{ID: "tools-balanced", Complexity: ComplexityBalanced, SupportsTools: true},
	})

	got := registry.BestFit(Constraints{Tools: true, Complexity: ComplexityPowerful})
	if got.ID != "tools-balanced" {
		t.Errorf("expected the tool-capable model of lower complexity, got %q", got.ID)
	}
}

// TestBestFit_RelaxesCapabilities: when nothing supports the required
// capability at all, the search falls back to the most capable entry instead
// of failing.
func TestBestFit_RelaxesCapabilities(t *testing.T) {
	registry := NewRegistry([]ModelCapability{
		{ID: "fast-a", Complexity: ComplexityFast},
		{ID: "balanced-b", Complexity: ComplexityBalanced},
	})

	got := registry.BestFit(Constraints{Tools: true})
	if got.ID != "balanced-b" {
		t.Errorf("expected the most capable registered model, got %q", got.ID)
	}
}

func TestBestFit_TieKeepsRegistrationOrder(t *testing.T) {
	registry := NewRegistry([]ModelCapability{
		{ID: "first-fast", Complexity: ComplexityFast},
		{ID: "second-fast", Complexity: ComplexityFast},
	})

	got := registry.BestFit(Constraints{})
	if got.ID != "first-fast" {
		t.Errorf("expected the earlier entry to win the tie, got %q", got.ID)
	}
}

func TestBestFit_ComplexityPin(t *testing.T) {
	registry := DefaultRegistry()

	fast := registry.BestFit(Constraints{Complexity: ComplexityFast})
	if fast.Complexity != ComplexityFast {
		t.Errorf("expected a fast model, got %q", fast.ID)
	}

	powerful := registry.BestFit(Constraints{Complexity: ComplexityPowerful})
	if powerful.Complexity != ComplexityPowerful {
		t.Errorf("expected a powerful model, got %q", powerful.ID)
	}
}
