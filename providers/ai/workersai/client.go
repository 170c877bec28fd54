package workersai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/modelmux/modelmux/core/triage"
	"github.com/modelmux/modelmux/internal/utils"
	"github.com/modelmux/modelmux/providers/ai"
)

const (
	// defaultAPIBase is the Cloudflare REST API root.
	defaultAPIBase = "https://api.cloudflare.com/client/v4"

	providerName = "workers-ai"
)

// Client is the low-level Workers AI transport: it knows the account-scoped
// /ai/run endpoint and the Cloudflare response envelope, nothing about the
// OpenAI wire format. The [Adapter] drives it for chat completions and the
// triage classifier drives it directly through [Client.Infer].
type Client struct {
	accountID string
	apiToken  string
	baseURL   string
	client    *http.Client
}

var _ triage.Inferencer = (*Client)(nil)

// NewClient returns a [Client] initialized from environment variables. It
// reads CF_ACCOUNT_ID and CF_API_TOKEN for credentials and CF_API_BASE_URL
// for a non-default API root.
func NewClient() *Client {
	baseURL := os.Getenv("CF_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultAPIBase
	}

	return &Client{
		accountID: os.Getenv("CF_ACCOUNT_ID"),
		apiToken:  os.Getenv("CF_API_TOKEN"),
		baseURL:   baseURL,
		client:    &http.Client{},
	}
}

// WithAccountID overrides the Cloudflare account identifier and returns the
// client so calls can be chained.
func (c *Client) WithAccountID(accountID string) *Client {
	c.accountID = accountID
	return c
}

// WithAPIToken overrides the API token and returns the client so calls can
// be chained.
func (c *Client) WithAPIToken(apiToken string) *Client {
	c.apiToken = apiToken
	return c
}

// WithBaseURL overrides the API root and returns the client so calls can be
// chained.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// WithHttpClient replaces the default [http.Client] used for API calls and
// returns the client so calls can be chained.
func (c *Client) WithHttpClient(httpClient *http.Client) *Client {
	c.client = httpClient
	return c
}

// checkCredentials verifies the account and token are configured before any
// network call is attempted.
func (c *Client) checkCredentials() error {
	if c.accountID == "" {
		return errors.New("CF_ACCOUNT_ID is not set")
	}
	if c.apiToken == "" {
		return errors.New("CF_API_TOKEN is not set")
	}
	return nil
}

// runURL builds the account-scoped inference endpoint for a model.
func (c *Client) runURL(model string) string {
	return fmt.Sprintf("%s/accounts/%s/ai/run/%s", c.baseURL, c.accountID, model)
}

// run executes a synchronous inference call and returns the generated text.
// Envelope-level failures (success:false) are surfaced as [ai.UpstreamError]
// with the first error message Cloudflare reported.
func (c *Client) run(ctx context.Context, model string, payload runRequest) (string, error) {
	if err := c.checkCredentials(); err != nil {
		return "", err
	}

	httpResponse, envelope, err := utils.DoPostSync[runEnvelope](ctx, c.client, c.runURL(model), c.apiToken, payload)
	if err != nil {
		return "", wrapUpstreamError(httpResponse, err)
	}
	if envelope == nil {
		return "", &ai.UpstreamError{Provider: providerName, StatusCode: httpResponse.StatusCode, Message: "empty response body"}
	}
	if !envelope.Success {
		return "", &ai.UpstreamError{Provider: providerName, StatusCode: httpResponse.StatusCode, Message: envelopeErrorMessage(envelope.Errors)}
	}

	return envelope.Result.Response, nil
}

// runStream opens a streaming inference call and returns the HTTP response
// with its body left open for SSE reading.
func (c *Client) runStream(ctx context.Context, model string, payload runRequest) (*http.Response, error) {
	if err := c.checkCredentials(); err != nil {
		return nil, err
	}

	payload.Stream = true
	httpResponse, err := utils.DoPostStream(ctx, c.client, c.runURL(model), c.apiToken, payload)
	if err != nil {
		return nil, wrapUpstreamError(httpResponse, err)
	}
	return httpResponse, nil
}

// Infer satisfies [triage.Inferencer]: a plain prompt in, the raw completion
// text out. No conversion layer is involved.
func (c *Client) Infer(ctx context.Context, model string, prompt string) (string, error) {
	return c.run(ctx, model, runRequest{Prompt: prompt})
}

func envelopeErrorMessage(apiErrors []apiError) string {
	if len(apiErrors) == 0 {
		return "request failed without error detail"
	}
	first := apiErrors[0]
	return fmt.Sprintf("%s (code %d)", first.Message, first.Code)
}

func wrapUpstreamError(httpResponse *http.Response, err error) error {
	statusCode := 0
	if httpResponse != nil {
		statusCode = httpResponse.StatusCode
	}
	return &ai.UpstreamError{Provider: providerName, StatusCode: statusCode, Message: err.Error()}
}
