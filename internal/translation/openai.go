package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Defaults for OpenAI-compatible providers
const (
	DefaultOpenAIModel   = openai.GPT4oMini
	DefaultDeepSeekModel = "deepseek-chat"
	DeepSeekBaseURL      = "https://api.deepseek.com"
)

// OpenAIBackend translates through an OpenAI-compatible chat completion API
type OpenAIBackend struct {
	name   string
	apiKey string
	model  string
	client *openai.Client
}

// NewOpenAIBackend creates a backend for the OpenAI API. An empty baseURL
// uses the official endpoint; an empty model uses DefaultOpenAIModel.
func NewOpenAIBackend(apiKey, baseURL, model string) *OpenAIBackend {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return newChatBackend("openai", apiKey, baseURL, model)
}

// NewDeepSeekBackend creates a backend for the DeepSeek API, which speaks
// the OpenAI protocol.
func NewDeepSeekBackend(apiKey, baseURL, model string) *OpenAIBackend {
	if baseURL == "" {
		baseURL = DeepSeekBaseURL
	}
	if model == "" {
		model = DefaultDeepSeekModel
	}
	return newChatBackend("deepseek", apiKey, baseURL, model)
}

func newChatBackend(name, apiKey, baseURL, model string) *OpenAIBackend {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIBackend{
		name:   name,
		apiKey: apiKey,
		model:  model,
		client: openai.NewClientWithConfig(config),
	}
}

// Name returns the provider name
func (b *OpenAIBackend) Name() string {
	return b.name
}

// Model returns the chat model in use
func (b *OpenAIBackend) Model() string {
	return b.model
}

// Translate sends one chat completion request
func (b *OpenAIBackend) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if b.apiKey == "" {
		return "", &Error{Kind: Unauthorized, Err: fmt.Errorf("%s API key not found", b.name)}
	}

	system, user := BuildPrompt(text, targetLanguage)
	req := openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   1000,
		Temperature: 0.3,
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(ctx, err)
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Kind: NetworkFault, Err: fmt.Errorf("no translation returned")}
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func classifyOpenAIError(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindForStatus(apiErr.HTTPStatusCode), Err: err}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{Kind: KindForStatus(reqErr.HTTPStatusCode), Err: err}
	}

	if ctx.Err() != nil {
		return wrapContextError(ctx.Err())
	}
	return wrapContextError(err)
}
