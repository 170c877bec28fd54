package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/modelmux/modelmux/providers/ai"
	"github.com/modelmux/modelmux/providers/observability"
)

// Route prefixes, checked in this fixed priority order. First match wins
// and there is no fallback provider. Matching is literal and
// case-sensitive.
const (
	prefixOpenAI    = "gpt-"
	prefixAnthropic = "claude-"
	prefixGemini    = "gemini-"
	prefixWorkersAI = "@cf/"
	aliasWorkersAI  = "workers-ai"
	prefixOllama    = "ollama/"
)

// Provider names used in routing decisions, spans and metrics.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderWorkersAI = "workers-ai"
	ProviderOllama    = "ollama"
)

// route binds one model matcher to one adapter.
type route struct {
	provider string
	matches  func(model string) bool
	adapter  ai.Adapter
}

// Adapters carries one adapter per supported provider, as wired by the
// composition root. A nil entry removes that provider's route, so its
// models fail with [ai.UnsupportedModelError].
type Adapters struct {
	OpenAI    ai.Adapter
	Anthropic ai.Adapter
	Gemini    ai.Adapter
	WorkersAI ai.Adapter
	Ollama    ai.Adapter
}

// Gateway dispatches chat requests to provider adapters by model prefix.
type Gateway struct {
	routes   []route
	observer observability.Provider
}

// New builds a Gateway over the given adapters with the fixed routing
// priority: gpt- to OpenAI, claude- to Anthropic, gemini- to Gemini, @cf/
// or the workers-ai alias to Workers AI, ollama/ to Ollama.
func New(adapters Adapters) *Gateway {
	gateway := &Gateway{}
	gateway.add(ProviderOpenAI, matchPrefix(prefixOpenAI), adapters.OpenAI)
	gateway.add(ProviderAnthropic, matchPrefix(prefixAnthropic), adapters.Anthropic)
	gateway.add(ProviderGemini, matchPrefix(prefixGemini), adapters.Gemini)
	gateway.add(ProviderWorkersAI, matchWorkersAI, adapters.WorkersAI)
	gateway.add(ProviderOllama, matchPrefix(prefixOllama), adapters.Ollama)
	return gateway
}

// WithObserver wires the observability provider and returns the gateway so
// calls can be chained. Without one, dispatches run without spans, metrics
// or logs.
func (g *Gateway) WithObserver(observer observability.Provider) *Gateway {
	g.observer = observer
	return g
}

func (g *Gateway) add(provider string, matches func(string) bool, adapter ai.Adapter) {
	if adapter == nil {
		return
	}
	g.routes = append(g.routes, route{provider: provider, matches: matches, adapter: adapter})
}

func matchPrefix(prefix string) func(string) bool {
	return func(model string) bool {
		return strings.HasPrefix(model, prefix)
	}
}

func matchWorkersAI(model string) bool {
	return strings.HasPrefix(model, prefixWorkersAI) || model == aliasWorkersAI
}

// resolve walks the routing table in priority order.
func (g *Gateway) resolve(model string) (route, error) {
	for _, candidate := range g.routes {
		if candidate.matches(model) {
			return candidate, nil
		}
	}
	return route{}, &ai.UnsupportedModelError{Model: model}
}

// Complete routes the request and executes it synchronously against the
// matched adapter.
func (g *Gateway) Complete(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	matched, err := g.resolve(request.Model)
	if err != nil {
		g.recordUnrouted(ctx, request.Model, err)
		return nil, err
	}

	ctx, span := g.startDispatch(ctx, observability.SpanGatewayComplete, matched, request, false)

	start := time.Now()
	response, err := matched.adapter.Complete(ctx, request)
	elapsed := time.Since(start)

	if err != nil {
		g.recordFailure(ctx, span, matched.provider, elapsed, err)
		return nil, err
	}

	g.recordSuccess(ctx, span, matched.provider, response, elapsed)
	return response, nil
}

// Stream routes the request and opens a stream against the matched adapter.
// Adapters without native streaming fall back to a synchronous call wrapped
// as a single-chunk stream.
func (g *Gateway) Stream(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	matched, err := g.resolve(request.Model)
	if err != nil {
		g.recordUnrouted(ctx, request.Model, err)
		return nil, err
	}

	ctx, span := g.startDispatch(ctx, observability.SpanGatewayStream, matched, request, true)
	start := time.Now()

	streamer, ok := matched.adapter.(ai.StreamAdapter)
	if !ok {
		response, completeErr := matched.adapter.Complete(ctx, request)
		elapsed := time.Since(start)
		if completeErr != nil {
			g.recordFailure(ctx, span, matched.provider, elapsed, completeErr)
			return nil, completeErr
		}
		g.recordSuccess(ctx, span, matched.provider, response, elapsed)
		return ai.NewSingleChunkStream(response), nil
	}

	stream, err := streamer.Stream(ctx, request)
	if err != nil {
		g.recordFailure(ctx, span, matched.provider, time.Since(start), err)
		return nil, err
	}

	if g.observer == nil {
		return stream, nil
	}

	g.observer.Counter(observability.MetricStreamCount).Add(ctx, 1,
		observability.String(observability.AttrGatewayProvider, matched.provider),
	)
	return g.wrapStream(ctx, stream, span, matched.provider, start), nil
}

// startDispatch opens the dispatch span, enriches the context for the
// adapter, and records the routing decision.
func (g *Gateway) startDispatch(ctx context.Context, spanName string, matched route, request ai.ChatRequest, stream bool) (context.Context, observability.Span) {
	if g.observer == nil {
		return ctx, nil
	}

	ctx, span := g.observer.StartSpan(ctx, spanName,
		observability.String(observability.AttrGatewayProvider, matched.provider),
		observability.String(observability.AttrGatewayModel, request.Model),
		observability.Bool(observability.AttrGatewayStream, stream),
	)
	ctx = observability.ContextWithSpan(ctx, span)
	ctx = observability.ContextWithObserver(ctx, g.observer)

	span.AddEvent(observability.EventRouteMatched,
		observability.String(observability.AttrGatewayProvider, matched.provider),
	)

	g.observer.Debug(ctx, "gateway dispatch",
		observability.String(observability.AttrGatewayProvider, matched.provider),
		observability.String(observability.AttrGatewayModel, request.Model),
		observability.Bool(observability.AttrGatewayStream, stream),
	)

	return ctx, span
}

func (g *Gateway) recordUnrouted(ctx context.Context, model string, err error) {
	if g.observer == nil {
		return
	}
	g.observer.Warn(ctx, "no provider route matches",
		observability.String(observability.AttrGatewayModel, model),
		observability.Error(err),
	)
}

func (g *Gateway) recordFailure(ctx context.Context, span observability.Span, provider string, elapsed time.Duration, err error) {
	if g.observer == nil {
		return
	}

	if span != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "dispatch failed")
		span.End()
	}

	g.observer.Error(ctx, "gateway dispatch failed",
		observability.Error(err),
		observability.String(observability.AttrGatewayProvider, provider),
		observability.Duration(observability.AttrDuration, elapsed),
	)
	g.observer.Counter(observability.MetricRequestCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, "error"),
		observability.String(observability.AttrGatewayProvider, provider),
	)
}

func (g *Gateway) recordSuccess(ctx context.Context, span observability.Span, provider string, response *ai.ChatResponse, elapsed time.Duration) {
	if g.observer == nil {
		return
	}

	finishReason := response.FinishReason()

	if span != nil {
		span.SetAttributes(observability.String(observability.AttrGatewayFinishReason, finishReason))
		if response.Usage != nil {
			span.SetAttributes(
				observability.Int(observability.AttrTokensPrompt, response.Usage.PromptTokens),
				observability.Int(observability.AttrTokensCompletion, response.Usage.CompletionTokens),
			)
		}
		span.SetStatus(observability.StatusOK, "success")
		span.End()
	}

	g.observer.Histogram(observability.MetricRequestDuration).Record(ctx, elapsed.Seconds(),
		observability.String(observability.AttrGatewayProvider, provider),
	)
	g.observer.Counter(observability.MetricRequestCount).Add(ctx, 1,
		observability.String(observability.AttrStatus, "success"),
		observability.String(observability.AttrGatewayProvider, provider),
	)

	logAttrs := []observability.Attribute{
		observability.String(observability.AttrGatewayProvider, provider),
		observability.String(observability.AttrGatewayFinishReason, finishReason),
		observability.Duration(observability.AttrDuration, elapsed),
	}
	if response.Usage != nil {
		logAttrs = append(logAttrs,
			observability.Int(observability.AttrTokensPrompt, response.Usage.PromptTokens),
			observability.Int(observability.AttrTokensCompletion, response.Usage.CompletionTokens),
		)
	}
	g.observer.Info(ctx, "gateway dispatch completed", logAttrs...)
}

// wrapStream re-yields every chunk unchanged and records the dispatch
// outcome when the stream drains, fails, or is abandoned by the caller.
func (g *Gateway) wrapStream(ctx context.Context, stream *ai.ChatStream, span observability.Span, provider string, start time.Time) *ai.ChatStream {
	iteratorFunc := func(yield func(ai.StreamChunk, error) bool) {
		finishReason := ""

		for chunk, err := range stream.Iter() {
			if err != nil {
				g.recordFailure(ctx, span, provider, time.Since(start), err)
				yield(chunk, err)
				return
			}

			if len(chunk.Choices) > 0 && chunk.Choices[0].FinishReason != nil {
				finishReason = *chunk.Choices[0].FinishReason
			}

			if !yield(chunk, nil) {
				if span != nil {
					span.SetStatus(observability.StatusOK, "stream abandoned")
					span.End()
				}
				g.observer.Info(ctx, "gateway stream abandoned",
					observability.String(observability.AttrGatewayProvider, provider),
					observability.Duration(observability.AttrDuration, time.Since(start)),
				)
				return
			}
		}

		// Reuse the success recorder through a synthetic response carrying
		// what the stream told us.
		synthetic := &ai.ChatResponse{Choices: []ai.Choice{{FinishReason: finishReason}}}
		g.recordSuccess(ctx, span, provider, synthetic, time.Since(start))
	}

	return ai.NewChatStream(iteratorFunc)
}
