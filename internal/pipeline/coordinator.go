package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/snonux/screentrans/internal/cache"
	"codeberg.org/snonux/screentrans/internal/capture"
	"codeberg.org/snonux/screentrans/internal/config"
	"codeberg.org/snonux/screentrans/internal/logging"
	"codeberg.org/snonux/screentrans/internal/ocr"
	"codeberg.org/snonux/screentrans/internal/preprocess"
	"codeberg.org/snonux/screentrans/internal/translation"
)

// ErrStopped is returned for requests submitted after Run has returned
var ErrStopped = errors.New("pipeline: coordinator stopped")

// recognitionSlotPrefix marks cache keys holding recognition results only.
// They are keyed by recognition language so any target language can reuse them.
const recognitionSlotPrefix = "ocr:"

// Deps are the external collaborators of a Coordinator
type Deps struct {
	Source     capture.Source
	Recognizer ocr.RecognitionBackend
	Translator translation.Backend
	Presenter  Presenter
	Log        *logging.Logger
}

// Coordinator runs at most one job at a time and supersedes older jobs
type Coordinator struct {
	source     capture.Source
	engine     *ocr.Engine
	translator *translation.Client
	cache      *cache.ResultCache
	log        *logging.Logger

	requests chan capture.Request
	seq      atomic.Uint64
	stopped  chan struct{}
	stopOnce sync.Once
	updates  *dispatcher
	workers  sync.WaitGroup

	mu      sync.Mutex
	cfg     config.Config
	pre     *preprocess.Preprocessor
	hint    string
	active  *Job
	waiters map[string]chan Outcome
	stats   Stats
}

// New creates a coordinator. Call Run to start consuming requests.
func New(cfg config.Config, deps Deps) *Coordinator {
	log := deps.Log
	if log == nil {
		log = logging.Discard()
	}
	queueSize := cfg.QueueSize
	if queueSize < 1 {
		queueSize = 1
	}

	return &Coordinator{
		source:     deps.Source,
		engine:     ocr.NewEngine(deps.Recognizer, log),
		translator: translation.NewClient(deps.Translator, PolicyFrom(cfg), cfg.RequestsPerSecond, log),
		cache:      cache.New(cfg.CacheMaxEntries, cfg.CacheTTL),
		log:        log,
		requests:   make(chan capture.Request, queueSize),
		stopped:    make(chan struct{}),
		updates:    newDispatcher(deps.Presenter),
		cfg:        cfg,
		pre:        preprocess.New(PreprocessOptions(cfg)),
		waiters:    make(map[string]chan Outcome),
	}
}

// PolicyFrom derives the translation retry policy from cfg
func PolicyFrom(cfg config.Config) translation.Policy {
	p := translation.DefaultPolicy()
	p.MaxAttempts = cfg.TranslationMaxRetries
	p.AttemptTimeout = cfg.TranslationAttemptTimeout
	p.TotalTimeout = cfg.TranslationTotalTimeout
	return p
}

// PreprocessOptions derives the preprocessing settings from cfg
func PreprocessOptions(cfg config.Config) preprocess.Options {
	return preprocess.Options{
		Contrast:     cfg.Contrast,
		SharpenSigma: cfg.SharpenSigma,
		Binarize:     cfg.Binarize,
		AutoInvert:   cfg.AutoInvert,
		UpscaleBelow: cfg.UpscaleBelow,
	}
}

// Run consumes requests until ctx is cancelled. On return the active job is
// cancelled, workers have finished and all updates have been delivered.
func (c *Coordinator) Run(ctx context.Context) error {
	defer c.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case req := <-c.requests:
			c.start(req)
		}
	}
}

func (c *Coordinator) shutdown() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		if c.active != nil && !c.active.state.Terminal() {
			c.cancelLocked(c.active)
		}
	drain:
		for {
			select {
			case req := <-c.requests:
				c.notifyLocked(Outcome{Request: req, State: StateCancelled})
			default:
				break drain
			}
		}
		c.mu.Unlock()
		close(c.stopped)

		c.workers.Wait()
		c.updates.close()
	})
}

// Submit enqueues a new request for region. It blocks only while the
// request queue is full.
func (c *Coordinator) Submit(ctx context.Context, region capture.Region) (capture.Request, error) {
	req := capture.NewRequest(c.seq.Add(1), region)
	return req, c.enqueue(ctx, req)
}

// SubmitAndWait enqueues a request and waits for its terminal state,
// including Cancelled when a newer request supersedes it.
func (c *Coordinator) SubmitAndWait(ctx context.Context, region capture.Region) (Outcome, error) {
	req := capture.NewRequest(c.seq.Add(1), region)
	ch := make(chan Outcome, 1)

	c.mu.Lock()
	c.waiters[req.ID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.waiters, req.ID)
		c.mu.Unlock()
	}()

	if err := c.enqueue(ctx, req); err != nil {
		return Outcome{Request: req}, err
	}

	select {
	case o := <-ch:
		return o, nil
	case <-ctx.Done():
		return Outcome{Request: req}, ctx.Err()
	case <-c.stopped:
		select {
		case o := <-ch:
			return o, nil
		default:
			return Outcome{Request: req}, ErrStopped
		}
	}
}

func (c *Coordinator) enqueue(ctx context.Context, req capture.Request) error {
	select {
	case <-c.stopped:
		return ErrStopped
	default:
	}

	select {
	case c.requests <- req:
		c.mu.Lock()
		c.stats.Submitted++
		c.mu.Unlock()
		return nil
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateConfig validates and applies cfg. Running jobs keep the settings
// they started with; cached entries stay valid.
func (c *Coordinator) UpdateConfig(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg = cfg
	c.pre = preprocess.New(PreprocessOptions(cfg))
	if !cfg.PersistHintLanguage {
		c.hint = ""
	}
	c.cache.SetLimits(cfg.CacheMaxEntries, cfg.CacheTTL)
	c.translator.SetPolicy(PolicyFrom(cfg))
	c.translator.SetRate(cfg.RequestsPerSecond)
	return nil
}

// Config returns the current configuration
func (c *Coordinator) Config() config.Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Cache exposes the result cache
func (c *Coordinator) Cache() *cache.ResultCache {
	return c.cache
}

// HintLanguage returns the recognition language the next job will use
func (c *Coordinator) HintLanguage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hintLocked()
}

// Stats returns a snapshot of the counters
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	s := c.stats
	c.mu.Unlock()
	s.RecognitionCalls = c.engine.Calls()
	s.TranslationCalls = c.translator.Calls()
	s.Cache = c.cache.Stats()
	return s
}

// Active returns the request and state of the job still in flight
func (c *Coordinator) Active() (capture.Request, State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.state.Terminal() {
		return capture.Request{}, 0, false
	}
	return c.active.Request, c.active.state, true
}

// CancelActive cancels the active job, reporting whether there was one
func (c *Coordinator) CancelActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil || c.active.state.Terminal() {
		return false
	}
	c.cancelLocked(c.active)
	return true
}

func (c *Coordinator) hintLocked() string {
	if c.cfg.PersistHintLanguage && c.hint != "" {
		return c.hint
	}
	return c.cfg.RecognitionLanguage
}

// start supersedes the active job and launches a new one for req
func (c *Coordinator) start(req capture.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil && !c.active.state.Terminal() {
		c.cancelLocked(c.active)
	}

	ctx, cancel := context.WithCancel(context.Background())
	now := time.Now()
	job := &Job{
		Request: req,
		state:   StateCapturing,
		ctx:     ctx,
		cancel:  cancel,
		cfg:     c.cfg,
		pre:     c.pre,
		hint:    c.hintLocked(),
		started: now,
		entered: now,
	}
	c.active = job
	c.updates.push(update{jobID: req.ID, state: StateCapturing})
	c.log.Debug("job started", "job", req.ID, "seq", req.Seq, "region", req.Region.String())

	c.workers.Add(1)
	go c.run(job)
}

// cancelLocked marks job cancelled. Cancelled jobs are not presented.
func (c *Coordinator) cancelLocked(job *Job) {
	c.log.Debug("job cancelled", "job", job.Request.ID, "state", job.state.String())
	job.cancel()
	job.state = StateCancelled
	c.stats.Cancelled++
	c.notifyLocked(Outcome{Request: job.Request, State: StateCancelled})
}

// transition moves job to next if it is still the active job. apply runs
// inside the same critical section; cache writes go there so a cancelled
// job can never write. The update is queued before the lock is released,
// which keeps presentation order equal to supersession order.
func (c *Coordinator) transition(job *Job, next State, payload *Payload, apply func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != job || job.state.Terminal() {
		return false
	}

	now := time.Now()
	switch job.state {
	case StateRecognizing:
		c.stats.recognitionStages++
		c.stats.recognitionTime += now.Sub(job.entered)
	case StateTranslating:
		c.stats.translationStages++
		c.stats.translationTime += now.Sub(job.entered)
	}

	if apply != nil {
		apply()
	}
	job.state = next
	job.entered = now
	c.updates.push(update{jobID: job.Request.ID, state: next, payload: payload})

	if next.Terminal() {
		job.cancel()
		c.stats.jobTime += now.Sub(job.started)
		if next == StateDone {
			c.stats.Done++
		} else {
			c.stats.Failed++
		}
		c.notifyLocked(Outcome{Request: job.Request, State: next, Payload: payload})
		c.log.Debug("job finished", "job", job.Request.ID, "state", next.String(), "elapsed", now.Sub(job.started))
	}
	return true
}

func (c *Coordinator) notifyLocked(o Outcome) {
	if ch, ok := c.waiters[o.Request.ID]; ok {
		select {
		case ch <- o:
		default:
		}
	}
}

func (c *Coordinator) fail(job *Job, err error) {
	if c.transition(job, StateFailed, &Payload{Err: err}, nil) {
		c.log.Warn("job failed", "job", job.Request.ID, "error", err)
	}
}

// run executes job until it reaches a terminal state or is superseded
func (c *Coordinator) run(job *Job) {
	defer c.workers.Done()
	ctx := job.ctx

	// The worker owns the image buffers and releases each one as soon as
	// it is no longer read, on every exit path.
	raw, err := c.source.Capture(ctx, job.Request.Region)
	if err != nil {
		raw.Release()
		c.fail(job, err)
		return
	}
	if !c.transition(job, StatePreprocessing, nil, nil) {
		raw.Release()
		return
	}

	processed, err := job.pre.Process(raw)
	raw.Release()
	if err != nil {
		c.fail(job, err)
		return
	}
	if !c.transition(job, StateCacheCheck, nil, nil) {
		processed.Release()
		return
	}

	target := job.cfg.TargetLanguage
	fullKey := cache.Key{Fingerprint: processed.Fingerprint, Language: target}
	recKey := cache.Key{Fingerprint: processed.Fingerprint, Language: recognitionSlotPrefix + job.hint}

	entry, hit := c.cache.Get(fullKey)
	if hit && entry.Complete() {
		processed.Release()
		c.transition(job, StateDone, &Payload{
			Recognition: entry.Recognition,
			Translation: entry.Translation,
			FromCache:   true,
		}, func() { c.stats.CacheHits++ })
		return
	}

	rec := entry.Recognition
	if rec == nil {
		if slot, ok := c.cache.Get(recKey); ok {
			rec = slot.Recognition
		}
	}
	reused := rec != nil
	if !reused {
		if !c.transition(job, StateRecognizing, nil, nil) {
			processed.Release()
			return
		}

		rec, err = c.engine.Recognize(ctx, processed, ocr.Options{
			HintLanguage:        job.hint,
			FallbackLanguage:    job.cfg.FallbackLanguage,
			ConfidenceThreshold: job.cfg.RecognitionConfidenceThreshold,
		})
		processed.Release()
		switch {
		case ctx.Err() != nil:
			return
		case errors.Is(err, ocr.ErrNoTextFound):
			c.transition(job, StateDone, &Payload{Recognition: &ocr.Result{Language: job.hint}}, nil)
			return
		case err != nil:
			c.fail(job, err)
			return
		}
	} else {
		processed.Release()
	}

	if !c.transition(job, StateTranslating, &Payload{Recognition: rec}, func() {
		if reused {
			c.stats.RecognitionReuses++
		} else if job.cfg.PersistHintLanguage && rec.Language != "" {
			c.hint = rec.Language
		}
	}) {
		return
	}

	tr, err := c.translator.Translate(ctx, rec.Text(), target)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		// The source text still reaches the presenter, and the recognition
		// result is kept so a retry only repeats the translation.
		if c.transition(job, StateFailed, &Payload{Recognition: rec, Err: err}, func() {
			if !reused {
				c.cache.Put(recKey, cache.Entry{Recognition: rec})
			}
		}) {
			c.log.Warn("translation failed", "job", job.Request.ID, "error", err)
		}
		return
	}

	c.transition(job, StateDone, &Payload{Recognition: rec, Translation: tr}, func() {
		c.cache.Put(fullKey, cache.Entry{Recognition: rec, Translation: tr})
		if !reused {
			c.cache.Put(recKey, cache.Entry{Recognition: rec})
		}
	})
}
