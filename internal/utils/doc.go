// Package utils provides shared low-level helpers used throughout the
// modelmux internals. It covers HTTP request helpers for both synchronous
// and streaming (SSE) communication with upstream provider APIs, generic
// pointer and string utilities, and repair-assisted JSON parsing for the
// almost-JSON that language models routinely emit.
//
// Key entry points: [DoPostSync] for synchronous JSON round-trips,
// [DoPostStream] together with [SSEScanner] for Server-Sent Events
// streaming, [ParseJSONAs] for lenient JSON decoding, and [Ptr] for
// converting values to pointers.
package utils
