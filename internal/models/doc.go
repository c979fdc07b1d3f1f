// Package models lists the chat models an OpenAI compatible endpoint
// offers, for choosing a translation model.
package models
