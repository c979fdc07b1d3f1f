package pipeline

import (
	"codeberg.org/snonux/screentrans/internal/ocr"
	"codeberg.org/snonux/screentrans/internal/translation"
)

// State is the lifecycle position of a job
type State int

const (
	StateCapturing State = iota + 1
	StatePreprocessing
	StateCacheCheck
	StateRecognizing
	StateTranslating
	StateDone
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCapturing:
		return "Capturing"
	case StatePreprocessing:
		return "Preprocessing"
	case StateCacheCheck:
		return "CacheCheck"
	case StateRecognizing:
		return "Recognizing"
	case StateTranslating:
		return "Translating"
	case StateDone:
		return "Done"
	case StateCancelled:
		return "Cancelled"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition can happen
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled || s == StateFailed
}

// Payload carries whatever results exist at a state change. On Failed the
// recognition result is kept when the failure happened during translation.
type Payload struct {
	Recognition *ocr.Result
	Translation *translation.Result
	Err         error
	// FromCache is set when the translation was served from the cache
	FromCache bool
}

// SourceText returns the recognized text, empty if there is none
func (p *Payload) SourceText() string {
	if p == nil {
		return ""
	}
	return p.Recognition.Text()
}

// TranslatedText returns the translated text, empty if there is none
func (p *Payload) TranslatedText() string {
	if p == nil || p.Translation == nil {
		return ""
	}
	return p.Translation.Text
}

// Presenter receives job updates. Calls come from one goroutine, in order.
// Cancelled jobs produce no update.
type Presenter interface {
	OnJobUpdate(jobID string, state State, payload *Payload)
}

// PresenterFunc adapts a function to Presenter
type PresenterFunc func(jobID string, state State, payload *Payload)

// OnJobUpdate calls f
func (f PresenterFunc) OnJobUpdate(jobID string, state State, payload *Payload) {
	f(jobID, state, payload)
}
