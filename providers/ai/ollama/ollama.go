package ollama

import (
	"context"
	"net/http"
	"os"

	"github.com/modelmux/modelmux/internal/utils"
	"github.com/modelmux/modelmux/providers/ai"
	"github.com/modelmux/modelmux/providers/observability"
)

const (
	// defaultBaseURL is Ollama's standard local address.
	defaultBaseURL = "http://localhost:11434"

	// chatEndpoint is the path for the chat endpoint.
	chatEndpoint = "/api/chat"

	// modelPrefix routes models to this adapter and is stripped before the
	// upstream call.
	modelPrefix = "ollama/"

	providerName = "ollama"
)

// Adapter implements [ai.Adapter] and [ai.StreamAdapter] for a local or
// remote Ollama server. Ollama has no credential, so there is no API key to
// configure.
type Adapter struct {
	baseURL string
	client  *http.Client
}

var _ ai.StreamAdapter = (*Adapter)(nil)

// New returns an [Adapter] initialized from environment variables. It reads
// OLLAMA_BASE_URL for the server address, defaulting to
// http://localhost:11434 when unset.
func New() *Adapter {
	baseURL := os.Getenv("OLLAMA_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Adapter{
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithBaseURL overrides the server address and returns the adapter so calls
// can be chained.
func (a *Adapter) WithBaseURL(baseURL string) *Adapter {
	a.baseURL = baseURL
	return a
}

// WithHttpClient replaces the default [http.Client] used for API calls and
// returns the adapter so calls can be chained.
func (a *Adapter) WithHttpClient(httpClient *http.Client) *Adapter {
	a.client = httpClient
	return a
}

// Complete implements [ai.Adapter] against the /api/chat endpoint with
// stream:false. The model prefix is stripped for the upstream call but the
// response echoes the model exactly as requested, prefix included.
func (a *Adapter) Complete(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrGatewayProvider, providerName),
			observability.String(observability.AttrUpstreamEndpoint, a.baseURL),
			observability.String(observability.AttrGatewayModel, request.Model),
		)
	}
	if observer != nil {
		observer.Trace(ctx, "Ollama adapter preparing request",
			observability.String(observability.AttrGatewayModel, request.Model),
		)
	}

	httpResponse, nativeResponse, err := utils.DoPostSync[ollamaResponse](
		ctx,
		a.client,
		a.baseURL+chatEndpoint,
		"",
		toNativeRequest(request),
	)
	if err != nil {
		return nil, wrapUpstreamError(httpResponse, err)
	}
	if nativeResponse == nil {
		return nil, &ai.UpstreamError{Provider: providerName, StatusCode: httpResponse.StatusCode, Message: "empty response body"}
	}

	result := toChatResponse(*nativeResponse, request)

	if span != nil {
		span.SetAttributes(
			observability.Int(observability.AttrUpstreamStatus, httpResponse.StatusCode),
			observability.String(observability.AttrGatewayFinishReason, result.FinishReason()),
		)
	}

	return result, nil
}

func wrapUpstreamError(httpResponse *http.Response, err error) error {
	statusCode := 0
	if httpResponse != nil {
		statusCode = httpResponse.StatusCode
	}
	return &ai.UpstreamError{Provider: providerName, StatusCode: statusCode, Message: err.Error()}
}
