package workersai

/*
	##### CAPABILITIES #####
*/

// Complexity ranks how capable (and how expensive) a model is.
type Complexity string

const (
	ComplexityFast     Complexity = "fast"
	ComplexityBalanced Complexity = "balanced"
	ComplexityPowerful Complexity = "powerful"
)

// rank orders complexities so best-fit comparisons can prefer the stronger
// model. Unknown values rank below fast.
func (c Complexity) rank() int {
	switch c {
	case ComplexityPowerful:
		return 3
	case ComplexityBalanced:
		return 2
	case ComplexityFast:
		return 1
	default:
		return 0
	}
}

// InputFormat is the request shape a model expects: a chat message array or
// a single flattened prompt string.
type InputFormat string

const (
	InputMessages InputFormat = "messages"
	InputPrompt   InputFormat = "prompt"
)

// ModelCapability describes one Workers AI model: what it can do and how it
// wants its input.
type ModelCapability struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Complexity        Complexity  `json:"complexity"`
	SupportsTools     bool        `json:"supports_tools"`
	SupportsJSON      bool        `json:"supports_json"`
	SupportsStreaming bool        `json:"supports_streaming"`
	InputFormat       InputFormat `json:"input_format"`
	ContextWindow     int         `json:"context_window"`
}

/*
	##### REGISTRY #####
*/

// Registry is an ordered catalog of Workers AI models. Order matters: on
// equal complexity the earlier entry wins, and the first entry is the final
// fallback when every filter has been relaxed away.
type Registry struct {
	models []ModelCapability
}

// NewRegistry builds a registry over the given catalog. The slice is used
// as-is; callers should not mutate it afterwards.
func NewRegistry(models []ModelCapability) *Registry {
	return &Registry{models: models}
}

// DefaultRegistry returns the built-in catalog. Capabilities are maintained
// by hand from the Cloudflare model listing; entries are ordered strongest
// first within each tier.
func DefaultRegistry() *Registry {
	return NewRegistry([]ModelCapability{
		{
			ID:                "@cf/meta/llama-3.3-70b-instruct-fp8-fast",
			Name:              "Llama 3.3 70B Instruct (fp8 fast)",
			Complexity:        ComplexityPowerful,
			SupportsTools:     true,
			SupportsJSON:      true,
			SupportsStreaming: true,
			InputFormat:       InputMessages,
			ContextWindow:     24000,
		},
		{
			ID:                "@cf/meta/llama-4-scout-17b-16e-instruct",
			Name:              "Llama 4 Scout 17B 16E Instruct",
			Complexity:        ComplexityPowerful,
			SupportsTools:     true,
			SupportsJSON:      true,
			SupportsStreaming: true,
			InputFormat:       InputMessages,
			ContextWindow:     131000,
		},
		{
			ID:                "@cf/qwen/qwen2.5-coder-32b-instruct",
			Name:              "Qwen 2.5 Coder 32B Instruct",
			Complexity:        ComplexityPowerful,
			SupportsTools:     false,
			SupportsJSON:      true,
			SupportsStreaming: true,
			InputFormat:       InputMessages,
			ContextWindow:     32768,
		},
		{
			ID:                "@cf/meta/llama-3.1-8b-instruct",
			Name:              "Llama 3.1 8B Instruct",
			Complexity:        ComplexityBalanced,
			SupportsTools:     true,
			SupportsJSON:      true,
			SupportsStreaming: true,
			InputFormat:       InputMessages,
			ContextWindow:     8192,
		},
		{
			// Announced without function calling; keep SupportsTools false
			// so tool requests never land here.
			ID:                "@cf/meta/llama-3-8b-instruct",
			Name:              "Llama 3 8B Instruct",
			Complexity:        ComplexityBalanced,
			SupportsTools:     false,
			SupportsJSON:      true,
			SupportsStreaming: true,
			InputFormat:       InputMessages,
			ContextWindow:     8192,
		},
		{
			ID:                "@cf/mistral/mistral-7b-instruct-v0.1",
			Name:              "Mistral 7B Instruct v0.1",
			Complexity:        ComplexityBalanced,
			SupportsTools:     false,
			SupportsJSON:      false,
			SupportsStreaming: true,
			InputFormat:       InputMessages,
			ContextWindow:     4096,
		},
		{
			ID:                "@cf/meta/llama-3.2-3b-instruct",
			Name:              "Llama 3.2 3B Instruct",
			Complexity:        ComplexityFast,
			SupportsTools:     false,
			SupportsJSON:      true,
			SupportsStreaming: true,
			InputFormat:       InputMessages,
			ContextWindow:     128000,
		},
		{
			ID:                DefaultTriageModel,
			Name:              "Llama 3.2 1B Instruct",
			Complexity:        ComplexityFast,
			SupportsTools:     false,
			SupportsJSON:      false,
			SupportsStreaming: true,
			InputFormat:       InputMessages,
			ContextWindow:     60000,
		},
		{
			// Legacy model that predates the messages API.
			ID:                "@cf/meta/llama-2-7b-chat-int8",
			Name:              "Llama 2 7B Chat (int8)",
			Complexity:        ComplexityFast,
			SupportsTools:     false,
			SupportsJSON:      false,
			SupportsStreaming: true,
			InputFormat:       InputPrompt,
			ContextWindow:     2048,
		},
	})
}

// DefaultTriageModel is the small model complexity triage runs on.
const DefaultTriageModel = "@cf/meta/llama-3.2-1b-instruct"

// Models returns the catalog in registration order.
func (r *Registry) Models() []ModelCapability {
	return r.models
}

// Lookup finds a model by its exact identifier.
func (r *Registry) Lookup(id string) (ModelCapability, bool) {
	for _, model := range r.models {
		if model.ID == id {
			return model, true
		}
	}
	return ModelCapability{}, false
}

// Constraints narrows a best-fit search. Tools and JSON are hard
// requirements (relaxed only when nothing satisfies them); Complexity, when
// set, pins the search to one tier.
type Constraints struct {
	Tools      bool
	JSON       bool
	Complexity Complexity
}

// BestFit picks the model that best satisfies the constraints. The search
// relaxes in stages rather than failing: first the complexity pin is
// dropped, then the capability requirements, and as a final fallback the
// most capable registered model is returned. On a non-empty registry the
// result is always a real entry.
func (r *Registry) BestFit(constraints Constraints) ModelCapability {
	if model, ok := r.pick(constraints); ok {
		return model
	}

	relaxed := constraints
	relaxed.Complexity = ""
	if model, ok := r.pick(relaxed); ok {
		return model
	}

	model, _ := r.pick(Constraints{})
	return model
}

// pick scans the catalog in order and keeps the highest-ranked model that
// passes every filter. Ties keep the earlier entry.
func (r *Registry) pick(constraints Constraints) (ModelCapability, bool) {
	var best ModelCapability
	found := false

	for _, model := range r.models {
		if constraints.Tools && !model.SupportsTools {
			continue
		}
		if constraints.JSON && !model.SupportsJSON {
			continue
		}
		if constraints.Complexity != "" && model.Complexity != constraints.Complexity {
			continue
		}
		if !found || model.Complexity.rank() > best.Complexity.rank() {
			best = model
			found = true
		}
	}

	return best, found
}

// satisfiedBy reports whether a chosen model meets every constraint. Used to
// detect that a best-fit search had to relax.
func (c Constraints) satisfiedBy(model ModelCapability) bool {
	if c.Tools && !model.SupportsTools {
		return false
	}
	if c.JSON && !model.SupportsJSON {
		return false
	}
	if c.Complexity != "" && model.Complexity != c.Complexity {
		return false
	}
	return true
}
