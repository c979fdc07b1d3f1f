package pipeline

import (
	"context"
	"time"

	"codeberg.org/snonux/screentrans/internal/capture"
	"codeberg.org/snonux/screentrans/internal/config"
	"codeberg.org/snonux/screentrans/internal/preprocess"
)

// Job is the unit of work for one request. Its mutable fields are guarded
// by the coordinator lock.
type Job struct {
	Request capture.Request

	state     State
	ctx       context.Context
	cancel    context.CancelFunc
	cfg       config.Config
	pre       *preprocess.Preprocessor
	hint      string
	started   time.Time
	entered   time.Time
}

// Outcome is the terminal result of a job
type Outcome struct {
	Request capture.Request
	State   State
	Payload *Payload
}
