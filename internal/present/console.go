package present

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"codeberg.org/snonux/screentrans/internal/pipeline"
)

// Console prints job results to a writer. Intermediate states are only
// printed in verbose mode.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	verbose bool
}

// NewConsole creates a console presenter writing to w
func NewConsole(w io.Writer, verbose bool) *Console {
	return &Console{w: w, verbose: verbose}
}

// OnJobUpdate implements pipeline.Presenter
func (c *Console) OnJobUpdate(jobID string, state pipeline.State, payload *pipeline.Payload) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := shortID(jobID)
	switch state {
	case pipeline.StateDone:
		c.printDone(id, payload)
	case pipeline.StateFailed:
		c.printFailed(id, payload)
	default:
		if c.verbose {
			fmt.Fprintf(c.w, "[%s] %s...\n", id, state)
		}
	}
}

func (c *Console) printDone(id string, payload *pipeline.Payload) {
	source := payload.SourceText()
	if source == "" {
		fmt.Fprintf(c.w, "[%s] No text found\n", id)
		return
	}

	suffix := ""
	if payload.FromCache {
		suffix = " (cached)"
	}
	fmt.Fprintf(c.w, "[%s] Done%s\n", id, suffix)
	fmt.Fprintf(c.w, "  Source: %s\n", indent(source))
	fmt.Fprintf(c.w, "  Translation: %s\n", indent(payload.TranslatedText()))
}

func (c *Console) printFailed(id string, payload *pipeline.Payload) {
	var err error
	if payload != nil {
		err = payload.Err
	}
	fmt.Fprintf(c.w, "[%s] Failed: %v\n", id, err)
	if source := payload.SourceText(); source != "" {
		fmt.Fprintf(c.w, "  Source: %s\n", indent(source))
	}
}

// indent aligns continuation lines of multi-line text
func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n          ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// PrintStats writes a summary of s
func PrintStats(w io.Writer, s pipeline.Stats) {
	fmt.Fprintf(w, "\n=== Session Summary ===\n")
	fmt.Fprintf(w, "Requests: %d\n", s.Submitted)
	fmt.Fprintf(w, "Done: %d\n", s.Done)
	if s.Failed > 0 {
		fmt.Fprintf(w, "Failed: %d\n", s.Failed)
	}
	if s.Cancelled > 0 {
		fmt.Fprintf(w, "Superseded: %d\n", s.Cancelled)
	}
	fmt.Fprintf(w, "Recognition calls: %d (avg %s)\n", s.RecognitionCalls, s.AvgRecognitionTime())
	fmt.Fprintf(w, "Translation calls: %d (avg %s)\n", s.TranslationCalls, s.AvgTranslationTime())
	fmt.Fprintf(w, "Cache: %d hits (%.1f%% of requests), %d entries\n",
		s.CacheHits, s.HitRate()*100, s.Cache.Entries)
	fmt.Fprintf(w, "=======================\n")
}
