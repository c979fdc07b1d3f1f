// Package batch reads files of screen regions and runs them through the
// pipeline one at a time.
package batch
