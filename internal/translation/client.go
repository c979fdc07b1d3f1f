package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"codeberg.org/snonux/screentrans/internal/logging"
)

// Backend is the narrow contract to a translation service
type Backend interface {
	Name() string
	// Translate returns the translated text or an *Error
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// Result is a completed translation
type Result struct {
	Text           string
	SourceText     string
	TargetLanguage string
	Provider       string
	Timestamp      time.Time
}

// Policy bounds retries and time spent per Translate call
type Policy struct {
	// MaxAttempts counts every attempt including the first
	MaxAttempts    int
	AttemptTimeout time.Duration
	TotalTimeout   time.Duration
	BackoffBase    time.Duration
	BackoffMax     time.Duration
}

// DefaultPolicy returns three attempts, 10s each, 30s total, 1s/2s backoff
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		AttemptTimeout: 10 * time.Second,
		TotalTimeout:   30 * time.Second,
		BackoffBase:    time.Second,
		BackoffMax:     8 * time.Second,
	}
}

// Backoff returns the wait after the given failed attempt (1-based)
func (p Policy) Backoff(attempt int) time.Duration {
	d := p.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.BackoffMax > 0 && d >= p.BackoffMax {
			return p.BackoffMax
		}
	}
	if p.BackoffMax > 0 && d > p.BackoffMax {
		return p.BackoffMax
	}
	return d
}

// consecutive transient failures before the breaker opens
const breakerTrips = 5

// Client applies the request policy to a Backend. It is safe for
// concurrent use.
type Client struct {
	backend Backend
	breaker *gobreaker.CircuitBreaker
	log     *logging.Logger
	calls   atomic.Int64

	mu      sync.RWMutex
	policy  Policy
	limiter *rate.Limiter
}

// NewClient creates a client. requestsPerSecond <= 0 disables rate limiting.
func NewClient(backend Backend, policy Policy, requestsPerSecond float64, log *logging.Logger) *Client {
	if log == nil {
		log = logging.Discard()
	}

	c := &Client{
		backend: backend,
		log:     log,
		policy:  normalize(policy),
		limiter: rate.NewLimiter(limitFor(requestsPerSecond), 1),
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "translation-" + backend.Name(),
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTrips
		},
		// Only outages count against the backend; a bad request is our fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || !IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return c
}

func limitFor(requestsPerSecond float64) rate.Limit {
	if requestsPerSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(requestsPerSecond)
}

func normalize(p Policy) Policy {
	d := DefaultPolicy()
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.AttemptTimeout <= 0 {
		p.AttemptTimeout = d.AttemptTimeout
	}
	if p.TotalTimeout <= 0 {
		p.TotalTimeout = d.TotalTimeout
	}
	if p.BackoffBase <= 0 {
		p.BackoffBase = d.BackoffBase
	}
	return p
}

// Calls returns the number of backend calls made so far, retries included
func (c *Client) Calls() int {
	return int(c.calls.Load())
}

// Policy returns the active policy
func (c *Client) Policy() Policy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.policy
}

// SetPolicy replaces the policy for subsequent calls
func (c *Client) SetPolicy(p Policy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.policy = normalize(p)
}

// SetRate changes the rate limit for subsequent attempts
func (c *Client) SetRate(requestsPerSecond float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.limiter.SetLimit(limitFor(requestsPerSecond))
}

// Translate translates text into targetLanguage. Empty text returns an empty
// result without contacting the backend. When ctx is cancelled the context
// error is returned unchanged.
func (c *Client) Translate(ctx context.Context, text, targetLanguage string) (*Result, error) {
	start := time.Now()
	result := &Result{
		SourceText:     text,
		TargetLanguage: targetLanguage,
		Provider:       c.backend.Name(),
	}

	if strings.TrimSpace(text) == "" {
		result.Timestamp = start
		return result, nil
	}

	if _, ok := LanguageName(targetLanguage); !ok {
		return nil, &Error{Kind: UnsupportedLanguage, Err: fmt.Errorf("target language %q", targetLanguage)}
	}

	policy := c.Policy()
	deadline := start.Add(policy.TotalTimeout)
	totalCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var lastErr error
	for attempt := 1; ; attempt++ {
		out, err := c.attempt(totalCtx, policy, text, targetLanguage)
		if err == nil {
			result.Text = strings.TrimSpace(out)
			result.Timestamp = time.Now()
			return result, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if totalCtx.Err() != nil {
			return nil, &Error{Kind: Timeout, Err: fmt.Errorf("no translation within %s: %w", policy.TotalTimeout, err)}
		}
		if !IsTransient(err) {
			return nil, err
		}

		lastErr = err
		if attempt >= policy.MaxAttempts {
			return nil, lastErr
		}

		delay := policy.Backoff(attempt)
		if time.Until(deadline) <= delay {
			return nil, &Error{Kind: Timeout, Err: fmt.Errorf("no translation within %s: %w", policy.TotalTimeout, lastErr)}
		}

		c.log.Warn("translation attempt failed, retrying",
			"provider", c.backend.Name(), "attempt", attempt, "backoff", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// attempt runs one rate limited, breaker guarded backend call
func (c *Client) attempt(ctx context.Context, policy Policy, text, targetLanguage string) (string, error) {
	c.mu.RLock()
	limiter := c.limiter
	c.mu.RUnlock()

	if err := limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return "", wrapContextError(ctx.Err())
		}
		// The wait alone would overrun the deadline
		return "", &Error{Kind: Timeout, Err: err}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, policy.AttemptTimeout)
	defer cancel()

	out, err := c.breaker.Execute(func() (interface{}, error) {
		c.calls.Add(1)
		s, err := c.backend.Translate(attemptCtx, text, targetLanguage)
		if err != nil {
			return nil, classify(attemptCtx, err)
		}
		return s, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", &Error{Kind: NetworkFault, Err: fmt.Errorf("backend %s unavailable: %w", c.backend.Name(), err)}
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// classify turns raw backend errors into *Error
func classify(ctx context.Context, err error) error {
	if KindOf(err) != 0 {
		return err
	}
	if ctx.Err() != nil {
		return wrapContextError(ctx.Err())
	}
	return wrapContextError(err)
}
