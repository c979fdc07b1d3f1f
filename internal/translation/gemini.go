package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiBackend translates through the Gemini API
type GeminiBackend struct {
	model  string
	client *genai.Client
}

// NewGeminiBackend creates a Gemini backend. The client is created eagerly
// so a missing key is reported at startup.
func NewGeminiBackend(ctx context.Context, apiKey, model string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, &Error{Kind: Unauthorized, Err: fmt.Errorf("gemini API key not found")}
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiBackend{model: model, client: client}, nil
}

// Name returns the provider name
func (b *GeminiBackend) Name() string {
	return "gemini"
}

// Model returns the model in use
func (b *GeminiBackend) Model() string {
	return b.model
}

// Translate sends one generate content request
func (b *GeminiBackend) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	system, user := BuildPrompt(text, targetLanguage)

	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(user), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.3),
	})
	if err != nil {
		return "", classifyGeminiError(ctx, err)
	}

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", &Error{Kind: NetworkFault, Err: fmt.Errorf("no translation returned")}
	}
	return out, nil
}

func classifyGeminiError(ctx context.Context, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindForStatus(apiErr.Code), Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &Error{Kind: KindForStatus(apiErrPtr.Code), Err: err}
	}

	if ctx.Err() != nil {
		return wrapContextError(ctx.Err())
	}
	return wrapContextError(err)
}
