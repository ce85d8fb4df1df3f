package aiclient

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/sashabaranov/go-openai"

	"summatube/api-gateway/internal/apperr"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

const systemPrompt = "You are a helpful assistant that summarizes video transcripts faithfully and concisely."

// OpenAIBackend generates text through any OpenAI-compatible chat completion API.
type OpenAIBackend struct {
	model   string
	baseURL string

	mu      sync.Mutex
	clients map[string]*openai.Client
}

// NewOpenAIBackend returns a backend for model. An empty baseURL targets api.openai.com.
func NewOpenAIBackend(model, baseURL string) *OpenAIBackend {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIBackend{model: model, baseURL: baseURL, clients: make(map[string]*openai.Client)}
}

func (o *OpenAIBackend) Name() string { return "openai" }

func (o *OpenAIBackend) client(apiKey string) *openai.Client {
	o.mu.Lock()
	defer o.mu.Unlock()
	if c, ok := o.clients[apiKey]; ok {
		return c
	}
	cfg := openai.DefaultConfig(apiKey)
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}
	c := openai.NewClientWithConfig(cfg)
	o.clients[apiKey] = c
	return c
}

// Generate sends prompt as the user message of a chat completion.
func (o *OpenAIBackend) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	resp, err := o.client(apiKey).CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: o.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		})
	if err != nil {
		return "", classifyOpenAI(err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.New(apperr.GenerationFailed, "Empty response from model")
	}
	return resp.Choices[len(resp.Choices)-1].Message.Content, nil
}

func (o *OpenAIBackend) Close() error { return nil }

func classifyOpenAI(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperr.Wrap(apperr.ServiceConfiguration, "", err)
		case http.StatusTooManyRequests:
			return apperr.Wrap(apperr.QuotaExceeded, "", err)
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperr.Wrap(apperr.ServiceConfiguration, "", err)
		case http.StatusTooManyRequests:
			return apperr.Wrap(apperr.QuotaExceeded, "", err)
		}
	}
	return err
}
