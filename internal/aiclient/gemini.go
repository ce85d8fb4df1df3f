package aiclient

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"summatube/api-gateway/internal/apperr"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash-001"

// GeminiBackend generates text with Google Gemini. One client is kept per API key.
type GeminiBackend struct {
	model string

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewGeminiBackend returns a backend for the named model.
func NewGeminiBackend(model string) *GeminiBackend {
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiBackend{model: model, clients: make(map[string]*genai.Client)}
}

func (g *GeminiBackend) Name() string { return "gemini" }

func (g *GeminiBackend) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.clients[apiKey]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	g.clients[apiKey] = c
	return c, nil
}

// Generate sends prompt to the configured model.
func (g *GeminiBackend) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	client, err := g.client(ctx, apiKey)
	if err != nil {
		return "", apperr.Wrap(apperr.ServiceConfiguration, "", err)
	}

	resp, err := client.GenerativeModel(g.model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classifyGemini(err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", apperr.New(apperr.GenerationFailed, "Empty response from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}

// Close closes every client opened so far.
func (g *GeminiBackend) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	var firstErr error
	for key, c := range g.clients {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close gemini client: %w", err)
		}
		delete(g.clients, key)
	}
	return firstErr
}

func classifyGemini(err error) error {
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return apperr.Wrap(apperr.ServiceConfiguration, "", err)
	case codes.ResourceExhausted:
		return apperr.Wrap(apperr.QuotaExceeded, "", err)
	case codes.InvalidArgument:
		if strings.Contains(strings.ToLower(err.Error()), "api key") {
			return apperr.Wrap(apperr.ServiceConfiguration, "", err)
		}
	case codes.DeadlineExceeded, codes.Canceled:
		return apperr.Wrap(apperr.GenerationFailed, "Failed to generate summary", err)
	}
	// Unknown codes fall through to the message-based classifier.
	return err
}
