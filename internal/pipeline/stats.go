package pipeline

import (
	"time"

	"codeberg.org/snonux/screentrans/internal/cache"
)

// Stats summarizes the work done since the coordinator was created
type Stats struct {
	Submitted int
	Done      int
	Failed    int
	Cancelled int

	// CacheHits counts jobs answered entirely from the cache;
	// RecognitionReuses counts jobs that skipped recognition only.
	CacheHits         int
	RecognitionReuses int

	// Backend calls, including retries, fallback passes and calls whose
	// job was superseded meanwhile
	RecognitionCalls int
	TranslationCalls int

	recognitionStages int
	translationStages int
	recognitionTime   time.Duration
	translationTime   time.Duration
	jobTime           time.Duration

	Cache cache.Stats
}

// HitRate is the share of submitted requests answered from the cache
func (s Stats) HitRate() float64 {
	if s.Submitted == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(s.Submitted)
}

// AvgRecognitionTime is the mean duration of a completed Recognizing stage
func (s Stats) AvgRecognitionTime() time.Duration {
	return average(s.recognitionTime, s.recognitionStages)
}

// AvgTranslationTime is the mean duration of a completed Translating stage
func (s Stats) AvgTranslationTime() time.Duration {
	return average(s.translationTime, s.translationStages)
}

// AvgJobTime is the mean time from request to Done or Failed
func (s Stats) AvgJobTime() time.Duration {
	return average(s.jobTime, s.Done+s.Failed)
}

func average(total time.Duration, n int) time.Duration {
	if n == 0 {
		return 0
	}
	return total / time.Duration(n)
}
