// Package workersai implements the [ai.Adapter] and [ai.StreamAdapter]
// interfaces for Cloudflare Workers AI.
//
// Unlike the other adapters, this one does not take the model string at face
// value: requests name either a concrete "@cf/..." identifier or the generic
// "workers-ai" alias, and a capability registry resolves the alias to the
// best-fitting model for the request (tool support, JSON output, or a
// complexity triage verdict). Workers AI has no native tool calling, so tool
// requests are emulated through a prompt instruction and the completion is
// scanned for a JSON tool invocation.
//
// The package also exposes [Client.Infer], the minimal plain-prompt call the
// triage classifier runs on.
package workersai
