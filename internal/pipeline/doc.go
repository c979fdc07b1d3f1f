// Package pipeline coordinates capture, preprocessing, recognition, caching
// and translation for user triggered jobs.
//
// Triggers arrive on a bounded channel consumed by a single loop (Run). Each
// accepted request becomes a Job running in its own goroutine. At most one
// job is active: a new request cancels the previous job before the new one
// starts, and every state change of a job is checked against the active job
// under one lock, so results of a superseded job are dropped and it never
// writes to the cache after it was cancelled.
//
// Updates reach the Presenter in the order they happened, from a single
// delivery goroutine.
package pipeline
