// Package llm provides an OpenRouter-compatible chat client used to classify
// the sentiment of review text.
//
// Reviews submitted without an explicit sentiment are passed through
// Client.ClassifySentiment, which asks the configured model for a JSON verdict
// of the form {"label":"positive"|"negative","score":0..1}. Callers treat the
// classifier as optional: a failure leaves the review's sentiment empty.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). Retry-After headers are honoured. Context
// cancellation aborts retries immediately.
//
// # Response Tolerance
//
// Some providers return the payload in the streaming delta, the legacy text
// field, a tool call, or wrapped in a Markdown code fence. DecodeLLMJSON and
// the completion extractor accept all of these.
package llm
