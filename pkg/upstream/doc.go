// Package upstream implements the resilient HTTP client used to reach the
// generative model API. A call is a JSON POST that is retried with
// exponential backoff on transport failures, HTTP 429 and any 5xx status,
// and fails immediately on every other non-2xx status. A successful call
// yields a Document: the raw response body, verified to be well-formed
// JSON, with tagged traversal through gjson.
package upstream
