// Package history persists finished translations in a local SQLite
// database so earlier results can be listed again.
package history
