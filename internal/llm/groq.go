package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/zombor/recibos/internal/extraction"
)

// ErrMissingAPIKey is returned when a hosted provider has no key configured
var ErrMissingAPIKey = errors.New("api key is required")

const (
	// DefaultGroqURL is Groq's OpenAI-compatible endpoint
	DefaultGroqURL   = "https://api.groq.com/openai/v1"
	defaultGroqModel = "llama3-8b-8192"
)

// Groq implements extraction.FieldExtractor using Groq's OpenAI-compatible chat API
type Groq struct {
	client *openai.Client
	model  string
}

// NewGroq creates a new Groq extractor. Any OpenAI-compatible endpoint works through baseURL.
func NewGroq(apiKey, baseURL, model string) (*Groq, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq: %w", ErrMissingAPIKey)
	}
	if baseURL == "" {
		baseURL = DefaultGroqURL
	}
	if model == "" {
		model = defaultGroqModel
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL

	return &Groq{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// ExtractFields implements extraction.FieldExtractor
func (g *Groq) ExtractFields(ctx context.Context, text string) (*extraction.Fields, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(text)},
		},
		Temperature: 0.2,
		MaxTokens:   1024,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("calling groq API: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, errors.New("groq API returned an empty response")
	}

	fields, err := ParseFields(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing groq reply: %w", err)
	}
	return fields, nil
}

// Close implements Provider
func (g *Groq) Close() error {
	return nil
}
