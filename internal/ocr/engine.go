package ocr

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync/atomic"

	"codeberg.org/snonux/screentrans/internal/logging"
	"codeberg.org/snonux/screentrans/internal/preprocess"
)

// DefaultLanguage is used when no hint is given
const DefaultLanguage = "eng"

// Raw is what a backend extracted, before any policy is applied
type Raw struct {
	Text string
	// Confidence is in [0,1]
	Confidence float64
	// Language is the language the backend used or detected
	Language string
}

// RecognitionBackend is the narrow contract to an OCR engine
type RecognitionBackend interface {
	Name() string
	// Available returns an EngineUnavailable error if the engine cannot run
	Available() error
	Recognize(ctx context.Context, img *preprocess.Image, language string) (Raw, error)
}

// Result is the cleaned recognition output
type Result struct {
	Lines      []string
	Confidence float64
	Language   string
}

// Text joins the lines with newlines
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Lines, "\n")
}

// Empty reports whether no text was recognized
func (r *Result) Empty() bool {
	return r == nil || len(r.Lines) == 0
}

// Options are per-call recognition settings
type Options struct {
	HintLanguage        string
	FallbackLanguage    string
	ConfidenceThreshold float64
}

// Engine applies the recognition policy to a backend
type Engine struct {
	backend RecognitionBackend
	log     *logging.Logger
	calls   atomic.Int64
}

// NewEngine creates an engine around backend
func NewEngine(backend RecognitionBackend, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.Discard()
	}
	return &Engine{backend: backend, log: log}
}

// Calls returns the number of backend calls made so far
func (e *Engine) Calls() int {
	return int(e.calls.Load())
}

// Recognize extracts text from img. It returns ErrNoTextFound when nothing
// usable was recognized, including text below the confidence threshold.
func (e *Engine) Recognize(ctx context.Context, img *preprocess.Image, opts Options) (*Result, error) {
	if img == nil || img.Gray == nil {
		return nil, &Error{Kind: EngineFault, Err: preprocess.ErrEmptyImage}
	}

	lang := opts.HintLanguage
	if lang == "" {
		lang = DefaultLanguage
	}

	res, err := e.recognizeWithRetry(ctx, img, lang, opts.ConfidenceThreshold)
	if errors.Is(err, ErrNoTextFound) && opts.FallbackLanguage != "" && opts.FallbackLanguage != lang {
		e.log.Debug("retrying with fallback language", "hint", lang, "fallback", opts.FallbackLanguage)
		return e.recognizeWithRetry(ctx, img, opts.FallbackLanguage, opts.ConfidenceThreshold)
	}
	return res, err
}

// recognizeWithRetry retries exactly once on EngineFault
func (e *Engine) recognizeWithRetry(ctx context.Context, img *preprocess.Image, lang string, threshold float64) (*Result, error) {
	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.calls.Add(1)
		raw, err := e.backend.Recognize(ctx, img, lang)
		if err == nil {
			return e.apply(raw, lang, threshold)
		}

		err = classify(err)
		if !errors.Is(err, ErrEngineFault) {
			return nil, err
		}
		e.log.Warn("recognition fault", "backend", e.backend.Name(), "attempt", attempt, "error", err)
		lastErr = err
	}
	return nil, lastErr
}

func (e *Engine) apply(raw Raw, lang string, threshold float64) (*Result, error) {
	lines := CleanLines(raw.Text)
	if len(lines) == 0 {
		return nil, ErrNoTextFound
	}
	if raw.Confidence < threshold {
		e.log.Debug("discarding low confidence text", "confidence", raw.Confidence, "threshold", threshold)
		return nil, ErrNoTextFound
	}

	if raw.Language != "" {
		lang = raw.Language
	}
	return &Result{Lines: lines, Confidence: raw.Confidence, Language: lang}, nil
}

// classify turns foreign backend errors into EngineFault
func classify(err error) error {
	var oe *Error
	if errors.As(err, &oe) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &Error{Kind: EngineFault, Err: err}
}

var spaceRun = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)

// CleanLines normalizes line endings, collapses runs of blanks, trims every
// line and drops empty ones.
func CleanLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(spaceRun.ReplaceAllString(line, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
