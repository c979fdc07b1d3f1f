package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/snonux/screentrans/internal/ocr"
	"codeberg.org/snonux/screentrans/internal/pipeline"
	"codeberg.org/snonux/screentrans/internal/translation"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "state", "history.db"), nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return s
}

func payload(source, translated, target string) *pipeline.Payload {
	return &pipeline.Payload{
		Recognition: &ocr.Result{Lines: []string{source}, Language: "eng"},
		Translation: &translation.Result{Text: translated, SourceText: source, TargetLanguage: target, Provider: "deepseek"},
	}
}

func TestOnJobUpdateStoresFinishedJobs(t *testing.T) {
	s := openTestStore(t)

	s.OnJobUpdate("job-1", pipeline.StateRecognizing, nil)
	s.OnJobUpdate("job-1", pipeline.StateDone, payload("OK", "確認", "ja"))
	s.OnJobUpdate("job-2", pipeline.StateDone, &pipeline.Payload{Recognition: &ocr.Result{Language: "eng"}})
	s.OnJobUpdate("job-3", pipeline.StateFailed, &pipeline.Payload{
		Recognition: &ocr.Result{Lines: []string{"Hello"}, Language: "eng"},
		Err:         errors.New("translation: unauthorized"),
	})
	s.OnJobUpdate("job-4", pipeline.StateDone, payload("Hello", "Hallo", "de"))

	records, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	if records[0].JobID != "job-4" || records[2].JobID != "job-1" {
		t.Errorf("Expected newest first, got %s ... %s", records[0].JobID, records[2].JobID)
	}
	if records[2].TranslatedText != "確認" || records[2].TargetLanguage != "ja" || records[2].Provider != "deepseek" {
		t.Errorf("Unexpected record: %+v", records[2])
	}
	if records[1].State != "Failed" || records[1].SourceText != "Hello" || records[1].Error == "" {
		t.Errorf("Expected failed record with source text, got %+v", records[1])
	}
}

func TestAddIgnoresDuplicateJobs(t *testing.T) {
	s := openTestStore(t)

	s.OnJobUpdate("job-1", pipeline.StateDone, payload("OK", "確認", "ja"))
	s.OnJobUpdate("job-1", pipeline.StateDone, payload("OK", "確認", "ja"))

	records, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Expected 1 record, got %d", len(records))
	}
}

func TestRecentLimit(t *testing.T) {
	s := openTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		s.OnJobUpdate(id, pipeline.StateDone, payload("OK", "確認", "ja"))
	}

	records, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(records) != 2 || records[0].JobID != "c" {
		t.Errorf("Expected the 2 newest records, got %+v", records)
	}
}

func TestSummary(t *testing.T) {
	s := openTestStore(t)

	cached := payload("OK", "確認", "ja")
	cached.FromCache = true
	s.OnJobUpdate("a", pipeline.StateDone, payload("OK", "確認", "ja"))
	s.OnJobUpdate("b", pipeline.StateDone, cached)
	s.OnJobUpdate("c", pipeline.StateDone, payload("Hello", "Hallo", "de"))
	s.OnJobUpdate("d", pipeline.StateFailed, &pipeline.Payload{Err: errors.New("boom")})

	sum, err := s.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.Total != 4 || sum.Failed != 1 || sum.Cached != 1 {
		t.Errorf("Unexpected summary: %+v", sum)
	}
	if sum.ByTarget["ja"] != 2 || sum.ByTarget["de"] != 1 {
		t.Errorf("Unexpected per-language counts: %v", sum.ByTarget)
	}
}

func TestSummaryEmpty(t *testing.T) {
	s := openTestStore(t)

	sum, err := s.Summary()
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if sum.Total != 0 || len(sum.ByTarget) != 0 {
		t.Errorf("Expected empty summary, got %+v", sum)
	}
}
