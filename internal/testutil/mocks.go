package testutil

import (
	"context"
	"fmt"
	"image"
	"sync"

	"codeberg.org/snonux/screentrans/internal/capture"
	"codeberg.org/snonux/screentrans/internal/ocr"
	"codeberg.org/snonux/screentrans/internal/preprocess"
)

// Gate blocks a mock call until released. Entered receives one value per
// call that reached the gate.
type Gate struct {
	Entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// NewGate creates a closed gate
func NewGate() *Gate {
	return &Gate{
		Entered: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

// Open lets every waiting and future call through
func (g *Gate) Open() {
	g.once.Do(func() { close(g.release) })
}

func (g *Gate) wait() {
	if g == nil {
		return
	}
	g.Entered <- struct{}{}
	<-g.release
}

// MockSource serves fixed images per region
type MockSource struct {
	mu     sync.Mutex
	Images map[capture.Region]image.Image
	Errors map[capture.Region]error
	Calls  []string
	Served []*capture.Image
}

// NewMockSource creates an empty source
func NewMockSource() *MockSource {
	return &MockSource{
		Images: make(map[capture.Region]image.Image),
		Errors: make(map[capture.Region]error),
	}
}

// Set registers img for region
func (m *MockSource) Set(region capture.Region, img image.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Images[region] = img
}

// Capture returns the image registered for region
func (m *MockSource) Capture(ctx context.Context, region capture.Region) (*capture.Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, region.String())

	if err, ok := m.Errors[region]; ok {
		return nil, err
	}
	img, ok := m.Images[region]
	if !ok {
		return nil, &capture.Error{Kind: capture.RegionInvalid, Region: region}
	}
	out := capture.FromImage(img)
	m.Served = append(m.Served, out)
	return out, nil
}

// ServedImages returns every image handed out so far
func (m *MockSource) ServedImages() []*capture.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*capture.Image(nil), m.Served...)
}

// MockRecognizer is an ocr.RecognitionBackend returning canned text.
// ByLanguage maps a language to text and wins over Texts, which maps image
// fingerprints to text; Default is used otherwise.
type MockRecognizer struct {
	mu         sync.Mutex
	ByLanguage map[string]string
	Texts      map[string]string
	Default    string
	Confidence float64
	Errors     []error // returned in order before any text
	Gate       *Gate
	Calls      []string
	Seen       []*preprocess.Image
}

// NewMockRecognizer creates a recognizer answering text for every image
func NewMockRecognizer(text string) *MockRecognizer {
	return &MockRecognizer{Texts: make(map[string]string), Default: text, Confidence: 0.95}
}

// Name returns "mock"
func (m *MockRecognizer) Name() string { return "mock" }

// Available always succeeds
func (m *MockRecognizer) Available() error { return nil }

// Recognize waits at the gate, which ignores ctx like a native engine
// would, then answers.
func (m *MockRecognizer) Recognize(ctx context.Context, img *preprocess.Image, language string) (ocr.Raw, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, fmt.Sprintf("%s:%s", language, img.Fingerprint))
	m.Seen = append(m.Seen, img)
	gate := m.Gate
	var err error
	if len(m.Errors) > 0 {
		err = m.Errors[0]
		m.Errors = m.Errors[1:]
	}
	text, ok := m.ByLanguage[language]
	if !ok {
		text, ok = m.Texts[img.Fingerprint]
	}
	if !ok {
		text = m.Default
	}
	confidence := m.Confidence
	m.mu.Unlock()

	gate.wait()

	if err != nil {
		return ocr.Raw{}, err
	}
	return ocr.Raw{Text: text, Confidence: confidence, Language: language}, nil
}

// CallCount returns the number of Recognize calls
func (m *MockRecognizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// SeenImages returns every image passed to Recognize so far
func (m *MockRecognizer) SeenImages() []*preprocess.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*preprocess.Image(nil), m.Seen...)
}

// SetGate replaces the gate for subsequent calls
func (m *MockRecognizer) SetGate(g *Gate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gate = g
}

// MockTranslator is a translation.Backend with canned replies keyed by
// source text. Unknown text is echoed with a "[lang]" prefix.
type MockTranslator struct {
	mu      sync.Mutex
	Replies map[string]string
	Errors  []error // returned in order before any reply
	Gate    *Gate
	Calls   []string
}

// NewMockTranslator creates a translator with the given replies
func NewMockTranslator(replies map[string]string) *MockTranslator {
	if replies == nil {
		replies = make(map[string]string)
	}
	return &MockTranslator{Replies: replies}
}

// Name returns "mock"
func (m *MockTranslator) Name() string { return "mock" }

// Translate waits at the gate or until ctx is done, then answers
func (m *MockTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, fmt.Sprintf("%s:%s", targetLanguage, text))
	gate := m.Gate
	var err error
	if len(m.Errors) > 0 {
		err = m.Errors[0]
		m.Errors = m.Errors[1:]
	}
	reply, ok := m.Replies[text]
	if !ok {
		reply = fmt.Sprintf("[%s] %s", targetLanguage, text)
	}
	m.mu.Unlock()

	if gate != nil {
		gate.Entered <- struct{}{}
		select {
		case <-gate.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if err != nil {
		return "", err
	}
	return reply, nil
}

// CallCount returns the number of Translate calls
func (m *MockTranslator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// SetGate replaces the gate for subsequent calls
func (m *MockTranslator) SetGate(g *Gate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gate = g
}
