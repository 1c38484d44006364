// Package provider routes model requests to one of three incompatible
// backend families and normalizes their responses.
//
// # Routing
//
// A model identifier resolves to a Kind exactly once, when the model is
// assigned to a room, via KindForModel:
//
//   - identifiers containing "gpt", or any model when a chat override
//     endpoint is configured, use the OpenAI-style chat-completions route
//   - the reserved identifier "serper" uses the web-search route
//   - everything else uses the Anthropic-style messages route
//
// The persisted Kind is dispatched through the Backend interface, one
// implementation per family.
//
// # Failure Contract
//
// All three routes share one failure contract: transport errors, non-success
// statuses, and response-shape mismatches become ErrFailure. The cause is
// logged; callers show the fixed FailureMessage and roll back the pending
// turn. The dispatcher never panics and never propagates a raw backend error.
package provider
