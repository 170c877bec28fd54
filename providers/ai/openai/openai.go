package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	sdk "github.com/sashabaranov/go-openai"

	"github.com/modelmux/modelmux/providers/ai"
	"github.com/modelmux/modelmux/providers/observability"
)

const providerName = "openai"

// Adapter implements [ai.Adapter] and [ai.StreamAdapter] for OpenAI's chat
// completions API via the official-format SDK client. Use [New] to construct
// a ready-to-use instance.
type Adapter struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	client     *sdk.Client
}

var _ ai.StreamAdapter = (*Adapter)(nil)

// New returns an [Adapter] initialized from environment variables.
// It reads OPENAI_API_KEY for authentication and OPENAI_API_BASE_URL for the
// endpoint base (defaulting to the SDK's https://api.openai.com/v1 when
// unset, which also makes OpenAI-compatible servers reachable).
func New() *Adapter {
	adapter := &Adapter{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: os.Getenv("OPENAI_API_BASE_URL"),
	}
	adapter.rebuildClient()
	return adapter
}

// WithAPIKey sets the API key used for authenticating requests and returns
// the adapter so calls can be chained. It overrides OPENAI_API_KEY.
func (a *Adapter) WithAPIKey(apiKey string) *Adapter {
	a.apiKey = apiKey
	a.rebuildClient()
	return a
}

// WithBaseURL overrides the API base URL and returns the adapter so calls
// can be chained. Use this for proxies, local OpenAI-compatible servers, or
// testing endpoints.
func (a *Adapter) WithBaseURL(baseURL string) *Adapter {
	a.baseURL = baseURL
	a.rebuildClient()
	return a
}

// WithHttpClient replaces the default [http.Client] used for API calls and
// returns the adapter so calls can be chained.
func (a *Adapter) WithHttpClient(httpClient *http.Client) *Adapter {
	a.httpClient = httpClient
	a.rebuildClient()
	return a
}

// rebuildClient reconstructs the SDK client; the client bakes its
// configuration in at construction time, so every setter rebuilds it.
func (a *Adapter) rebuildClient() {
	config := sdk.DefaultConfig(a.apiKey)
	if a.baseURL != "" {
		config.BaseURL = a.baseURL
	}
	if a.httpClient != nil {
		config.HTTPClient = a.httpClient
	}
	a.client = sdk.NewClientWithConfig(config)
}

// Complete implements [ai.Adapter] by calling the chat completions endpoint
// through the SDK. The upstream finish reason and usage pass through
// unmapped; the identifier is minted fresh and the model echoes the request.
func (a *Adapter) Complete(ctx context.Context, request ai.ChatRequest) (*ai.ChatResponse, error) {
	span := observability.SpanFromContext(ctx)
	observer := observability.ObserverFromContext(ctx)

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrGatewayProvider, providerName),
			observability.String(observability.AttrGatewayModel, request.Model),
		)
	}
	if observer != nil {
		observer.Trace(ctx, "OpenAI adapter preparing request",
			observability.String(observability.AttrGatewayModel, request.Model),
		)
	}

	if a.apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	nativeResponse, err := a.client.CreateChatCompletion(ctx, toNativeRequest(request))
	if err != nil {
		return nil, wrapSDKError(err)
	}
	if len(nativeResponse.Choices) == 0 {
		return nil, &ai.UpstreamError{Provider: providerName, Message: "no choices in response"}
	}

	result := toChatResponse(nativeResponse, request.Model)

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrGatewayFinishReason, result.FinishReason()),
		)
	}

	return result, nil
}

// wrapSDKError folds the SDK's error taxonomy into the single typed error
// the gateway exposes for upstream problems. API errors carry the upstream
// status and message; request errors carry the status of the failed call;
// anything else (transport, context) keeps its text with no status.
func wrapSDKError(err error) error {
	var apiErr *sdk.APIError
	if errors.As(err, &apiErr) {
		return &ai.UpstreamError{Provider: providerName, StatusCode: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}

	var requestErr *sdk.RequestError
	if errors.As(err, &requestErr) {
		return &ai.UpstreamError{Provider: providerName, StatusCode: requestErr.HTTPStatusCode, Message: requestErr.Error()}
	}

	return &ai.UpstreamError{Provider: providerName, Message: err.Error()}
}
