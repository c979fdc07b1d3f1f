// Package preprocess turns raw captures into grayscale images tuned for
// recognizing small on-screen text. Processing is deterministic: the same
// capture always yields byte-identical output and the same fingerprint,
// which is what makes the result cache work.
package preprocess
