package workersai

import (
	"context"
	"strings"

	"github.com/modelmux/modelmux/core/triage"
	"github.com/modelmux/modelmux/providers/ai"
	"github.com/modelmux/modelmux/providers/observability"
)

const (
	// ModelPrefix marks explicit Workers AI model identifiers.
	ModelPrefix = "@cf/"

	// GenericModel is the alias that delegates the choice of model to the
	// capability registry.
	GenericModel = "workers-ai"
)

// Selection strategies recorded on the model-selected event.
const (
	strategyExplicit = "explicit"
	strategyTools    = "tools"
	strategyJSON     = "json"
	strategyTriage   = "triage"
)

// Triager is the complexity classification consulted by the triage-driven
// selection branch. *triage.Classifier satisfies it. With a nil Triager
// every conversation reads as high complexity.
type Triager interface {
	Classify(ctx context.Context, messages []ai.Message) triage.Verdict
}

// Adapter implements [ai.Adapter] and [ai.StreamAdapter] on top of a
// [Client] transport, a capability [Registry] and an optional [Triager].
//
// Selection precedence for each request, first match wins:
//
//  1. an explicit "@cf/..." model is looked up directly (unknown ids fail)
//  2. tool-carrying requests get the strongest tool-capable model
//  3. JSON mode gets the strongest JSON-capable model
//  4. everything else is triaged: high complexity gets a powerful model,
//     low complexity a fast one
type Adapter struct {
	client   *Client
	registry *Registry
	triager  Triager
}

var _ ai.StreamAdapter = (*Adapter)(nil)

// New returns an [Adapter] with a [NewClient] transport and the built-in
// registry. Credentials come from the environment; see [NewClient].
func New() *Adapter {
	return &Adapter{
		client:   NewClient(),
		registry: DefaultRegistry(),
	}
}

// WithClient replaces the transport and returns the adapter so calls can be
// chained.
func (a *Adapter) WithClient(client *Client) *Adapter {
	a.client = client
	return a
}

// WithRegistry replaces the capability catalog and returns the adapter so
// calls can be chained.
func (a *Adapter) WithRegistry(registry *Registry) *Adapter {
	a.registry = registry
	return a
}

// WithTriager wires the complexity classifier and returns the adapter so
// calls can be chained.
func (a *Adapter) WithTriager(triager Triager) *Adapter {
	a.triager = triager
	return a
}

// Models returns the capability catalog the adapter selects from.
func (a *Adapter) Models() []ModelCapability {
	return a.registry.Models()
}

// Complete implements [ai.Adapter]. The model is resolved through the
// selection precedence first; requests carrying tools then go through the
// emulation round trip, and JSON-mode completions are trimmed to their first
// JSON value. Workers AI reports no token counts, so usage is always
// approximated.
func (a *Adapter) Complete(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrGatewayProvider, providerName),
			observability.String(observability.AttrGatewayModel, request.Model),
		)
	}

	capability, err := a.selectModel(ctx, request)
	if err != nil {
		return nil, err
	}
	if span != nil {
		span.SetAttributes(observability.String(observability.AttrGatewayModelResolved, capability.ID))
	}

	if len(request.Tools) > 0 {
		return a.completeWithTools(ctx, request, capability)
	}

	text, err := a.client.run(ctx, capability.ID, toNativeRequest(request, capability))
	if err != nil {
		return nil, err
	}

	if wantsJSON(request) {
		if extracted, ok := ExtractFirstJSON(text); ok {
			text = extracted
		}
	}

	usage := ai.ApproximateUsage(promptText(request), text)
	return ai.NewChatResponse(request.Model, ai.NewMessage(ai.RoleAssistant, text), ai.FinishReasonStop, usage), nil
}

// completeWithTools runs the emulation round trip: instruction block in, one
// synthetic tool call out when the completion carries an invocation. A
// completion with no recoverable invocation is returned as plain text with
// finish reason "stop"; there is no retry.
func (a *Adapter) completeWithTools(ctx context.Context, request ai.ChatRequest, capability ModelCapability) (*ai.ChatResponse, error) {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.SetAttributes(observability.Int(observability.AttrToolCount, len(request.Tools)))
	}

	instructed := withToolInstruction(request)
	text, err := a.client.run(ctx, capability.ID, toNativeRequest(instructed, capability))
	if err != nil {
		return nil, err
	}

	usage := ai.ApproximateUsage(promptText(instructed), text)

	call, ok := parseEmulatedToolCall(text)
	if !ok {
		return ai.NewChatResponse(request.Model, ai.NewMessage(ai.RoleAssistant, text), ai.FinishReasonStop, usage), nil
	}

	if span != nil {
		span.AddEvent(observability.EventToolCallExtracted,
			observability.String(observability.AttrToolName, call.Function.Name),
		)
	}

	// OpenAI-style tool responses carry a null content alongside the calls.
	message := ai.Message{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{call}}
	return ai.NewChatResponse(request.Model, message, ai.FinishReasonToolCalls, usage), nil
}

// selectModel resolves the request to a concrete registry entry following
// the selection precedence. The decision is recorded as a span event, on a
// dedicated selection span when an observer is wired.
func (a *Adapter) selectModel(ctx context.Context, request ai.ChatRequest) (ModelCapability, error) {
	if observer := observability.ObserverFromContext(ctx); observer != nil {
		var selectionSpan observability.Span
		ctx, selectionSpan = observer.StartSpan(ctx, observability.SpanModelSelection,
			observability.String(observability.AttrGatewayModel, request.Model),
		)
		defer selectionSpan.End()
	}
	span := observability.SpanFromContext(ctx)

	if strings.HasPrefix(request.Model, ModelPrefix) {
		capability, ok := a.registry.Lookup(request.Model)
		if !ok {
			return ModelCapability{}, &ai.UnknownModelError{Model: request.Model}
		}
		recordSelection(span, capability, strategyExplicit)
		return capability, nil
	}

	if len(request.Tools) > 0 {
		return a.bestFit(span, Constraints{Tools: true}, strategyTools), nil
	}

	if wantsJSON(request) {
		return a.bestFit(span, Constraints{JSON: true}, strategyJSON), nil
	}

	verdict := triage.VerdictHigh
	if a.triager != nil {
		verdict = a.triager.Classify(ctx, request.Messages)
	}
	target := ComplexityPowerful
	if verdict == triage.VerdictLow {
		target = ComplexityFast
	}
	return a.bestFit(span, Constraints{Complexity: target}, strategyTriage), nil
}

// bestFit runs the registry search and records when the result had to relax
// away part of the constraints.
func (a *Adapter) bestFit(span observability.Span, constraints Constraints, strategy string) ModelCapability {
	capability := a.registry.BestFit(constraints)

	if span != nil && !constraints.satisfiedBy(capability) {
		span.AddEvent(observability.EventCapabilityRelaxed,
			observability.String(observability.AttrGatewayModelResolved, capability.ID),
		)
	}
	recordSelection(span, capability, strategy)

	return capability
}

func recordSelection(span observability.Span, capability ModelCapability, strategy string) {
	if span != nil {
		span.AddEvent(observability.EventModelSelected,
			observability.String(observability.AttrGatewayModelResolved, capability.ID),
			observability.String(observability.AttrSelectionStrategy, strategy),
		)
	}
}

func wantsJSON(request ai.ChatRequest) bool {
	return request.ResponseFormat != nil && request.ResponseFormat.Type == ai.ResponseFormatJSONObject
}
