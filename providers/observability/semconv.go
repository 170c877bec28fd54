package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across the gateway, the provider adapters, triage and the cache.

// --- Gateway / Routing Attributes ---

const (
	// AttrGatewayProvider is the adapter selected for a request (e.g., "openai", "workers-ai")
	AttrGatewayProvider = "gateway.provider"

	// AttrGatewayModel is the model string as the caller sent it
	AttrGatewayModel = "gateway.model"

	// AttrGatewayModelResolved is the concrete upstream model id after selection
	// (differs from gateway.model for generic "workers-ai" requests)
	AttrGatewayModelResolved = "gateway.model.resolved"

	// AttrGatewayStream indicates whether the caller requested streaming
	AttrGatewayStream = "gateway.stream"

	// AttrGatewayFinishReason is the finish reason returned to the caller
	AttrGatewayFinishReason = "gateway.finish_reason"
)

// --- Upstream Call Attributes ---

const (
	// AttrUpstreamStatus is the HTTP status returned by the provider
	AttrUpstreamStatus = "upstream.status"

	// AttrUpstreamEndpoint is the upstream URL called
	AttrUpstreamEndpoint = "upstream.endpoint"
)

// --- Token Usage Attributes ---

const (
	// AttrTokensPrompt is the number of prompt tokens
	AttrTokensPrompt = "tokens.prompt" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrTokensCompletion is the number of completion tokens
	AttrTokensCompletion = "tokens.completion" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrTokensApproximated indicates the counts were estimated, not provider-reported
	AttrTokensApproximated = "tokens.approximated" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- Triage Attributes ---

const (
	// AttrTriageVerdict is the complexity classification ("low" or "high")
	AttrTriageVerdict = "triage.verdict"

	// AttrTriageCacheHit indicates whether the verdict came from the cache
	AttrTriageCacheHit = "triage.cache_hit"

	// AttrTriageModel is the small model used for classification
	AttrTriageModel = "triage.model"
)

// --- Model Selection Attributes ---

const (
	// AttrSelectionStrategy is how the Workers-AI model was chosen
	// ("explicit", "tools", "json", "triage")
	AttrSelectionStrategy = "workersai.selection.strategy"
)

// --- Cache Attributes ---

const (
	// AttrCacheKey is the cache key being read or written
	AttrCacheKey = "cache.key"

	// AttrCacheHit indicates whether a read found a live entry
	AttrCacheHit = "cache.hit"
)

// --- Tool Emulation Attributes ---

const (
	// AttrToolCount is the number of tools carried by the request
	AttrToolCount = "tools.count"

	// AttrToolExtracted indicates whether a tool call was recovered from the completion
	AttrToolExtracted = "tools.extracted"

	// AttrToolName is the name of the extracted tool call
	AttrToolName = "tools.name"
)

// --- HTTP Attributes ---

const (
	// AttrHTTPMethod is the HTTP method (GET, POST, etc.)
	AttrHTTPMethod = "http.method"

	// AttrHTTPStatusCode is the HTTP response status code
	AttrHTTPStatusCode = "http.status_code"

	// AttrHTTPURL is the full request URL
	AttrHTTPURL = "http.url"

	// AttrHTTPRequestBodySize is the request body size in bytes
	AttrHTTPRequestBodySize = "http.request.body.size"

	// AttrHTTPResponseBodySize is the response body size in bytes
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- General Attributes ---

const (
	// AttrDuration is the elapsed wall-clock time of the operation
	AttrDuration = "duration"

	// AttrError is the error message
	AttrError = "error"

	// AttrStatus is the operation status
	AttrStatus = "status"

	// AttrStatusDescription is the status description
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	// SpanGatewayComplete is the span for a non-streaming dispatch
	SpanGatewayComplete = "gateway.complete"

	// SpanGatewayStream is the span for a streaming dispatch
	SpanGatewayStream = "gateway.stream"

	// SpanModelSelection is the span for Workers-AI model selection
	SpanModelSelection = "workersai.selection"

	// SpanTriageClassify is the span for a triage classification
	SpanTriageClassify = "triage.classify"
)

// --- Event Names ---

const (
	// EventRouteMatched marks a routing decision
	EventRouteMatched = "gateway.route.matched"

	// EventModelSelected marks the Workers-AI selection outcome
	EventModelSelected = "workersai.model.selected"

	// EventCapabilityRelaxed marks a best-fit search that had to drop a filter
	EventCapabilityRelaxed = "workersai.capability.relaxed"

	// EventToolCallExtracted marks a successful tool-call extraction
	EventToolCallExtracted = "workersai.tool_call.extracted"

	// EventTriageVerdict marks a triage decision (cached or fresh)
	EventTriageVerdict = "triage.verdict"

	// EventCacheGet marks a cache read
	EventCacheGet = "cache.get"

	// EventCachePut marks a cache write
	EventCachePut = "cache.put"

	// EventStreamCompleted marks a stream that reached its terminal chunk
	EventStreamCompleted = "gateway.stream.completed"

	// EventStreamAborted marks a stream closed without a terminal chunk
	EventStreamAborted = "gateway.stream.aborted"
)

// --- Metric Names ---

const (
	// MetricRequestCount counts dispatched requests per provider
	MetricRequestCount = "modelmux.request.count"

	// MetricRequestDuration is the histogram of dispatch duration in seconds
	MetricRequestDuration = "modelmux.request.duration"

	// MetricStreamCount counts streaming dispatches per provider
	MetricStreamCount = "modelmux.stream.count"

	// MetricTriageCacheHits counts triage verdicts served from cache
	MetricTriageCacheHits = "modelmux.triage.cache_hits"
)
