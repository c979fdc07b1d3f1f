package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"codeberg.org/snonux/screentrans/internal/capture"
	"codeberg.org/snonux/screentrans/internal/pipeline"
)

// RegionEntry is one region to translate with an optional label
type RegionEntry struct {
	Region capture.Region
	Label  string
}

// ReadBatchFile reads regions from a file, one per line.
// Supported formats:
// - Region only: "10,20,300,40"
// - With label: "10,20,300,40 = title bar"
// Blank lines and lines starting with '#' are skipped.
func ReadBatchFile(filename string) ([]RegionEntry, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return Parse(string(content))
}

// Parse parses batch file content
func Parse(content string) ([]RegionEntry, error) {
	var entries []RegionEntry

	content = strings.ReplaceAll(content, "\r", "")
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		coords, label, _ := strings.Cut(line, "=")
		region, err := capture.ParseRegion(strings.TrimSpace(coords))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		entries = append(entries, RegionEntry{Region: region, Label: strings.TrimSpace(label)})
	}

	return entries, nil
}

// Submitter runs one region to completion
type Submitter interface {
	SubmitAndWait(ctx context.Context, region capture.Region) (pipeline.Outcome, error)
}

// Summary counts batch outcomes
type Summary struct {
	Total     int
	Done      int
	Failed    int
	Cancelled int
}

// Process submits entries one after another so no entry supersedes the
// previous one. Progress goes to w.
func Process(ctx context.Context, s Submitter, entries []RegionEntry, w io.Writer) (Summary, error) {
	sum := Summary{Total: len(entries)}

	for i, entry := range entries {
		name := entry.Label
		if name == "" {
			name = entry.Region.String()
		}
		fmt.Fprintf(w, "\nProcessing %d/%d: %s\n", i+1, len(entries), name)

		out, err := s.SubmitAndWait(ctx, entry.Region)
		if err != nil {
			return sum, fmt.Errorf("batch entry %d: %w", i+1, err)
		}

		switch out.State {
		case pipeline.StateDone:
			sum.Done++
		case pipeline.StateFailed:
			sum.Failed++
		default:
			sum.Cancelled++
		}
	}

	fmt.Fprintf(w, "\n=== Batch Processing Summary ===\n")
	fmt.Fprintf(w, "Total regions: %d\n", sum.Total)
	fmt.Fprintf(w, "Translated: %d\n", sum.Done)
	if sum.Failed > 0 {
		fmt.Fprintf(w, "Errors: %d\n", sum.Failed)
	}
	if sum.Cancelled > 0 {
		fmt.Fprintf(w, "Cancelled: %d\n", sum.Cancelled)
	}
	fmt.Fprintf(w, "================================\n")

	return sum, nil
}
