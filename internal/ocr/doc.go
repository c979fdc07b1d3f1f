// Package ocr wraps a RecognitionBackend with the recognition policy:
// a confidence threshold, a single retry on engine faults, an optional
// fallback language and whitespace cleanup of the extracted lines.
//
// The Tesseract backend is built when cgo is available; without cgo the
// backend reports EngineUnavailable.
package ocr
