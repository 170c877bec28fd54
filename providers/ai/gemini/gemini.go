package gemini

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
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	providerName = "gemini"
)

// Adapter implements [ai.Adapter] and [ai.StreamAdapter] for the Gemini API.
type Adapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

var _ ai.StreamAdapter = (*Adapter)(nil)

// New creates a Gemini adapter with defaults from the environment.
// Environment variables:
//   - GEMINI_API_KEY: API key for authentication
//   - GEMINI_API_BASE_URL: Base URL for the API (optional)
func New() *Adapter {
	baseURL := os.Getenv("GEMINI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Adapter{
		apiKey:  os.Getenv("GEMINI_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key and returns the adapter for chaining.
func (a *Adapter) WithAPIKey(apiKey string) *Adapter {
	a.apiKey = apiKey
	return a
}

// WithBaseURL sets the base URL and returns the adapter for chaining.
func (a *Adapter) WithBaseURL(baseURL string) *Adapter {
	a.baseURL = baseURL
	return a
}

// WithHttpClient sets a custom HTTP client and returns the adapter for chaining.
func (a *Adapter) WithHttpClient(httpClient *http.Client) *Adapter {
	a.client = httpClient
	return a
}

// authHeader carries the credential; Gemini does not use Bearer tokens.
func (a *Adapter) authHeader() utils.HeaderOption {
	return utils.HeaderOption{Key: "x-goog-api-key", Value: a.apiKey}
}

// Complete implements [ai.Adapter] against the generateContent endpoint.
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
		observer.Trace(ctx, "Gemini adapter preparing request",
			observability.String(observability.AttrGatewayModel, request.Model),
		)
	}

	if a.apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", a.baseURL, request.Model)

	httpResponse, nativeResponse, err := utils.DoPostSync[generateContentResponse](
		ctx,
		a.client,
		url,
		"",
		toNativeRequest(request),
		a.authHeader(),
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
