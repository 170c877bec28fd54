package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/modelmux/modelmux/internal/utils"
	"github.com/modelmux/modelmux/providers/ai"
	"github.com/modelmux/modelmux/providers/observability"
)

const (
	// defaultBaseURL is the canonical base URL for Anthropic's Messages API.
	defaultBaseURL = "https://api.anthropic.com/v1"

	// messagesEndpoint is the path for the Messages API endpoint.
	messagesEndpoint = "/messages"

	// anthropicVersion is the required anthropic-version header value.
	// Anthropic uses this to version-lock response formats independently of the URL.
	anthropicVersion = "2023-06-01"

	providerName = "anthropic"
)

// Adapter implements [ai.Adapter] and [ai.StreamAdapter] for Anthropic's
// Messages API. Use [New] to construct a ready-to-use instance.
type Adapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// Ensure Adapter satisfies the streaming contract at compile time.
var _ ai.StreamAdapter = (*Adapter)(nil)

// New returns an [Adapter] initialized from environment variables.
// It reads ANTHROPIC_API_KEY for authentication and ANTHROPIC_API_BASE_URL for
// the endpoint base (defaulting to https://api.anthropic.com/v1 when unset).
func New() *Adapter {
	baseURL := os.Getenv("ANTHROPIC_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Adapter{
		apiKey:  os.Getenv("ANTHROPIC_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key used for authenticating requests and returns
// the adapter so calls can be chained. It overrides ANTHROPIC_API_KEY.
func (a *Adapter) WithAPIKey(apiKey string) *Adapter {
	a.apiKey = apiKey
	return a
}

// WithBaseURL overrides the API base URL and returns the adapter so calls can
// be chained. Use this when targeting a proxy or local testing endpoint.
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

// buildHeaders constructs the HTTP headers required for every Anthropic
// request. x-api-key carries the credential (Anthropic does not use Bearer
// tokens) and anthropic-version pins the wire format.
func (a *Adapter) buildHeaders() []utils.HeaderOption {
	return []utils.HeaderOption{
		{Key: "x-api-key", Value: a.apiKey},
		{Key: "anthropic-version", Value: anthropicVersion},
	}
}

// Complete implements [ai.Adapter] by sending a synchronous request to the
// Messages API and returning the response normalized to the OpenAI shape:
// fresh identifier, model echoed from the request, native usage counts, and
// the finish reason mapped through [ai.NormalizeFinishReason].
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
		observer.Trace(ctx, "Anthropic adapter preparing request",
			observability.String(observability.AttrGatewayModel, request.Model),
		)
	}

	if a.apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}

	nativeRequest := toNativeRequest(request)

	// Pass empty apiKey so DoPostSync does not inject a Bearer token;
	// Anthropic authenticates via x-api-key instead.
	httpResponse, nativeResponse, err := utils.DoPostSync[anthropicResponse](
		ctx,
		a.client,
		a.baseURL+messagesEndpoint,
		"",
		nativeRequest,
		a.buildHeaders()...,
	)
	if err != nil {
		return nil, wrapUpstreamError(httpResponse, err)
	}
	if nativeResponse == nil {
		return nil, &ai.UpstreamError{Provider: providerName, StatusCode: httpResponse.StatusCode, Message: "empty response body"}
	}

	result := toChatResponse(*nativeResponse, request.Model)

	if span != nil {
		span.SetAttributes(
			observability.Int(observability.AttrUpstreamStatus, httpResponse.StatusCode),
			observability.String(observability.AttrGatewayFinishReason, result.FinishReason()),
		)
	}

	return result, nil
}

// wrapUpstreamError folds a transport or non-2xx failure into the single
// typed error the gateway exposes for upstream problems.
func wrapUpstreamError(httpResponse *http.Response, err error) error {
	statusCode := 0
	if httpResponse != nil {
		statusCode = httpResponse.StatusCode
	}
	return &ai.UpstreamError{Provider: providerName, StatusCode: statusCode, Message: err.Error()}
}
