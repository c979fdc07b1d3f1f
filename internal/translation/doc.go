// Package translation sends recognized text to a remote translation backend.
// Client wraps a Backend with the request policy: empty text short-circuits,
// every attempt is rate limited and bounded by its own timeout, transient
// failures are retried with exponential backoff, and the whole call is
// bounded by a total time ceiling. A circuit breaker stops hammering a
// backend that keeps failing.
//
// Backends exist for OpenAI-compatible chat completion APIs (OpenAI and
// DeepSeek) and for Gemini.
package translation
