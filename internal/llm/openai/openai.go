package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tw-stock-advisor/internal/api"
	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/trace"
)

const DefaultEndpoint = "https://api.openai.com/v1/chat/completions"

// Backend calls an OpenAI-compatible chat completions endpoint.
type Backend struct {
	client      *api.Client
	endpoint    string
	apiKey      string
	model       string
	temperature float32
	maxTokens   int
}

var _ interfaces.Backend = (*Backend)(nil)

type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Endpoint    string
}

func New(cfg Config) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OPENAI_API_KEY missing")
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &Backend{
		client:      api.NewClient(api.WithLogging(true)),
		endpoint:    endpoint,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (b *Backend) Name() string { return b.model }

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (b *Backend) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "openai-api-call")
	defer span.End()

	body := map[string]any{
		"model":       b.model,
		"messages":    []map[string]string{{"role": "user", "content": prompt}},
		"temperature": b.temperature,
	}
	if b.maxTokens > 0 {
		body["max_tokens"] = b.maxTokens
	}

	resp, err := b.client.POST(ctx, b.endpoint, body, map[string]string{
		"Authorization": "Bearer " + b.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}

	var r chatResponse
	if err := resp.ParseJSON(&r); err != nil {
		return "", err
	}
	if len(r.Choices) == 0 {
		return "", errors.New("no choices")
	}
	return strings.TrimSpace(r.Choices[0].Message.Content), nil
}
