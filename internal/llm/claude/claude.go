package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/trace"
)

const defaultMaxTokens = 1024

// Backend generates text with an Anthropic Claude model via the Messages API.
type Backend struct {
	client      anthropic.Client
	model       string
	temperature float32
	maxTokens   int
}

var _ interfaces.Backend = (*Backend)(nil)

// Config holds the per-backend settings. BaseURL overrides the API endpoint when set.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	BaseURL     string
}

func New(cfg Config) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY missing")
	}
	// one attempt per backend; the generator moves on instead of retrying
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &Backend{
		client:      anthropic.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
	}, nil
}

func (b *Backend) Name() string { return b.model }

func (b *Backend) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "claude-api-call")
	defer span.End()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(b.model),
		MaxTokens: int64(b.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if b.temperature > 0 {
		params.Temperature = anthropic.Float(float64(b.temperature))
	}

	resp, err := b.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude messages: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", errors.New("claude returned no text")
	}
	return out.String(), nil
}
