// Package cache holds recognition and translation results keyed by the
// fingerprint of the processed image and a language code. Lookups are exact
// matches only. The cache is bounded by entry count (least recently used
// entries are evicted first) and by age: entries older than the TTL are
// purged on every Get and Put.
package cache
