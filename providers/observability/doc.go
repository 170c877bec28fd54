// Package observability defines the core interfaces and semantic conventions
// used for distributed tracing, metrics collection, and structured logging
// throughout modelmux.
//
// The central entry point is [Provider], which composes [Tracer], [Metrics],
// and [Logger] into a single injectable dependency. Callers propagate an
// active [Provider] and [Span] through a [context.Context] using
// [ContextWithObserver] and [ContextWithSpan]; they can be retrieved with
// [ObserverFromContext] and [SpanFromContext]. Components treat a missing
// observer or span as "record nothing"; observability is never required for
// correct operation.
//
// The semconv.go file contains all standard attribute-key, span-name and
// event-name constants used when recording observations, ensuring consistency
// across the gateway, the adapters, triage and the cache.
package observability
