package translation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend replays errors then succeeds with reply
type fakeBackend struct {
	mu    sync.Mutex
	errs  []error
	reply string
	delay time.Duration
	calls int
	texts []string
}

func (b *fakeBackend) Name() string { return "fake" }

func (b *fakeBackend) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	b.mu.Lock()
	b.calls++
	b.texts = append(b.texts, text)
	var err error
	if len(b.errs) > 0 {
		err = b.errs[0]
		b.errs = b.errs[1:]
	}
	delay := b.delay
	b.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return b.reply, nil
}

func (b *fakeBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func fastPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		AttemptTimeout: time.Second,
		TotalTimeout:   5 * time.Second,
		BackoffBase:    time.Millisecond,
		BackoffMax:     10 * time.Millisecond,
	}
}

func TestTranslate_Success(t *testing.T) {
	backend := &fakeBackend{reply: " 確認 "}
	client := NewClient(backend, fastPolicy(), 0, nil)

	res, err := client.Translate(context.Background(), "OK", "ja")
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if res.Text != "確認" {
		t.Errorf("Expected '確認', got %q", res.Text)
	}
	if res.SourceText != "OK" || res.TargetLanguage != "ja" || res.Provider != "fake" {
		t.Errorf("Unexpected result metadata: %+v", res)
	}
	if res.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
}

func TestTranslate_EmptyTextSkipsBackend(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		backend := &fakeBackend{reply: "nope"}
		client := NewClient(backend, fastPolicy(), 0, nil)

		res, err := client.Translate(context.Background(), text, "ja")
		if err != nil {
			t.Fatalf("Translate(%q) failed: %v", text, err)
		}
		if res.Text != "" {
			t.Errorf("Expected empty translation, got %q", res.Text)
		}
		if backend.Calls() != 0 {
			t.Errorf("Expected no backend call for %q, got %d", text, backend.Calls())
		}
	}
}

func TestTranslate_UnsupportedLanguage(t *testing.T) {
	backend := &fakeBackend{reply: "x"}
	client := NewClient(backend, fastPolicy(), 0, nil)

	_, err := client.Translate(context.Background(), "OK", "klingon")
	if !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("Expected UnsupportedLanguage, got %v", err)
	}
	if backend.Calls() != 0 {
		t.Error("Backend must not be called for unsupported language")
	}
}

func TestTranslate_RetryPolicy(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantErr   error
		wantCalls int
	}{
		{"transient then success", []error{&Error{Kind: NetworkFault}}, nil, 2},
		{"rate limited twice then success", []error{&Error{Kind: RateLimited}, &Error{Kind: RateLimited}}, nil, 3},
		{"timeout exhausts attempts", []error{&Error{Kind: Timeout}, &Error{Kind: Timeout}, &Error{Kind: Timeout}}, ErrTimeout, 3},
		{"network exhausts attempts", []error{&Error{Kind: NetworkFault}, &Error{Kind: NetworkFault}, &Error{Kind: NetworkFault}}, ErrNetworkFault, 3},
		{"unauthorized not retried", []error{&Error{Kind: Unauthorized}}, ErrUnauthorized, 1},
		{"invalid request not retried", []error{&Error{Kind: InvalidRequest}}, ErrInvalidRequest, 1},
		{"unsupported from backend not retried", []error{&Error{Kind: UnsupportedLanguage}}, ErrUnsupportedLanguage, 1},
		{"plain error is network fault", []error{errors.New("connection reset")}, nil, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{errs: tt.errs, reply: "ok"}
			client := NewClient(backend, fastPolicy(), 0, nil)

			res, err := client.Translate(context.Background(), "hello", "de")
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Translate failed: %v", err)
				}
				if res.Text != "ok" {
					t.Errorf("Expected 'ok', got %q", res.Text)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}

			if backend.Calls() != tt.wantCalls {
				t.Errorf("Expected %d calls, got %d", tt.wantCalls, backend.Calls())
			}
			if client.Calls() != tt.wantCalls {
				t.Errorf("Expected client to count %d calls, got %d", tt.wantCalls, client.Calls())
			}
		})
	}
}

func TestTranslate_AttemptTimeout(t *testing.T) {
	backend := &fakeBackend{reply: "slow", delay: 200 * time.Millisecond}
	policy := fastPolicy()
	policy.MaxAttempts = 2
	policy.AttemptTimeout = 20 * time.Millisecond

	_, err := NewClient(backend, policy, 0, nil).Translate(context.Background(), "hello", "de")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected Timeout, got %v", err)
	}
	if backend.Calls() != 2 {
		t.Errorf("Expected timed out attempts to be retried, got %d calls", backend.Calls())
	}
}

func TestTranslate_TotalCeiling(t *testing.T) {
	backend := &fakeBackend{
		errs: []error{&Error{Kind: NetworkFault}, &Error{Kind: NetworkFault}, &Error{Kind: NetworkFault}},
	}
	policy := fastPolicy()
	policy.MaxAttempts = 10
	policy.BackoffBase = 40 * time.Millisecond
	policy.BackoffMax = 0
	policy.TotalTimeout = 100 * time.Millisecond

	start := time.Now()
	_, err := NewClient(backend, policy, 0, nil).Translate(context.Background(), "hello", "de")
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected Timeout once the ceiling is reached, got %v", err)
	}
	if elapsed > time.Second {
		t.Errorf("Expected to stop near the ceiling, took %s", elapsed)
	}
	if backend.Calls() >= 10 {
		t.Errorf("Expected remaining attempts to be abandoned, got %d calls", backend.Calls())
	}
}

func TestTranslate_CancelledDuringBackoff(t *testing.T) {
	backend := &fakeBackend{errs: []error{&Error{Kind: NetworkFault}}}
	policy := fastPolicy()
	policy.BackoffBase = time.Second
	policy.BackoffMax = 0

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := NewClient(backend, policy, 0, nil).Translate(ctx, "hello", "de")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Expected cancellation to interrupt the backoff")
	}
}

func TestTranslate_CancellationDoesNotTripBreaker(t *testing.T) {
	backend := &fakeBackend{reply: "ok", delay: time.Second}
	client := NewClient(backend, fastPolicy(), 0, nil)

	for i := 0; i < breakerTrips+2; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		timer := time.AfterFunc(5*time.Millisecond, cancel)

		_, err := client.Translate(ctx, "hello", "de")
		timer.Stop()
		cancel()
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Expected context.Canceled on call %d, got %v", i+1, err)
		}
		if KindOf(err) != 0 {
			t.Fatalf("Expected a plain context error, got kind %s", KindOf(err))
		}
	}

	backend.mu.Lock()
	backend.delay = 0
	backend.mu.Unlock()

	res, err := client.Translate(context.Background(), "hello", "de")
	if err != nil {
		t.Fatalf("Expected translation after cancelled calls, got %v", err)
	}
	if res.Text != "ok" {
		t.Errorf("Expected 'ok', got %q", res.Text)
	}
}

func TestWrapContextError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind ErrorKind
	}{
		{"canceled", context.Canceled, 0},
		{"deadline", context.DeadlineExceeded, Timeout},
		{"other", errors.New("connection reset"), NetworkFault},
	}

	for _, tt := range tests {
		if got := KindOf(wrapContextError(tt.err)); got != tt.wantKind {
			t.Errorf("%s: Expected kind %v, got %v", tt.name, tt.wantKind, got)
		}
	}
}

func TestTranslate_BreakerOpens(t *testing.T) {
	var errs []error
	for i := 0; i < breakerTrips; i++ {
		errs = append(errs, &Error{Kind: NetworkFault})
	}
	backend := &fakeBackend{errs: errs, reply: "ok"}
	policy := fastPolicy()
	policy.MaxAttempts = breakerTrips
	client := NewClient(backend, policy, 0, nil)

	if _, err := client.Translate(context.Background(), "hello", "de"); !errors.Is(err, ErrNetworkFault) {
		t.Fatalf("Expected NetworkFault, got %v", err)
	}

	policy.MaxAttempts = 1
	client.SetPolicy(policy)
	_, err := client.Translate(context.Background(), "hello", "de")
	if !errors.Is(err, ErrNetworkFault) {
		t.Fatalf("Expected open breaker to fail fast with NetworkFault, got %v", err)
	}
	if backend.Calls() != breakerTrips {
		t.Errorf("Expected no backend call while open, got %d calls", backend.Calls())
	}
}

func TestTranslate_NonTransientDoesNotTripBreaker(t *testing.T) {
	var errs []error
	for i := 0; i < breakerTrips+2; i++ {
		errs = append(errs, &Error{Kind: InvalidRequest})
	}
	backend := &fakeBackend{errs: errs, reply: "ok"}
	client := NewClient(backend, fastPolicy(), 0, nil)

	for i := 0; i < breakerTrips+2; i++ {
		client.Translate(context.Background(), "hello", "de")
	}
	if _, err := client.Translate(context.Background(), "hello", "de"); err != nil {
		t.Errorf("Expected backend to be reachable, got %v", err)
	}
}

func TestPolicyBackoff(t *testing.T) {
	p := Policy{BackoffBase: time.Second, BackoffMax: 5 * time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 5 * time.Second},
		{10, 5 * time.Second},
	}

	for _, tt := range tests {
		if got := p.Backoff(tt.attempt); got != tt.want {
			t.Errorf("Backoff(%d) = %s, want %s", tt.attempt, got, tt.want)
		}
	}
}

func TestSetPolicyNormalizes(t *testing.T) {
	client := NewClient(&fakeBackend{}, Policy{}, 0, nil)
	p := client.Policy()
	if p.MaxAttempts != 1 {
		t.Errorf("Expected at least one attempt, got %d", p.MaxAttempts)
	}
	if p.AttemptTimeout <= 0 || p.TotalTimeout <= 0 || p.BackoffBase <= 0 {
		t.Errorf("Expected defaults filled in, got %+v", p)
	}
}

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{401, Unauthorized},
		{403, Unauthorized},
		{400, InvalidRequest},
		{404, InvalidRequest},
		{422, InvalidRequest},
		{429, RateLimited},
		{408, Timeout},
		{504, Timeout},
		{500, NetworkFault},
		{503, NetworkFault},
	}

	for _, tt := range tests {
		if got := KindForStatus(tt.status); got != tt.want {
			t.Errorf("KindForStatus(%d) = %s, want %s", tt.status, got, tt.want)
		}
	}
}

func TestLanguageName(t *testing.T) {
	if name, ok := LanguageName("JA"); !ok || name != "Japanese" {
		t.Errorf("LanguageName(JA) = %q, %v", name, ok)
	}
	if _, ok := LanguageName("xx"); ok {
		t.Error("Expected xx to be unsupported")
	}

	system, user := BuildPrompt("OK", "ja")
	if system == "" || user != "Translate the following text to Japanese:\n\nOK" {
		t.Errorf("Unexpected prompt: %q / %q", system, user)
	}
}
