// Package gateway routes OpenAI-format chat requests to provider adapters
// by model prefix and dispatches them, synchronously or as a stream.
//
// Routing is a literal-prefix table checked in a fixed priority order with
// no default: a model matching no prefix fails with
// [ai.UnsupportedModelError]. Each dispatch is wrapped in a span with
// metrics and structured logs when an observer is wired; adapters pick the
// span and observer up from the context.
package gateway
