package llm

import (
	"context"
	"fmt"
	"strings"

	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/llm/claude"
	"tw-stock-advisor/internal/llm/gemini"
	"tw-stock-advisor/internal/llm/llmobs"
	"tw-stock-advisor/internal/llm/openai"
	"tw-stock-advisor/internal/logger"
	"tw-stock-advisor/internal/store"
)

// ProviderType names the vendor behind a model id.
type ProviderType string

const (
	ProviderGemini  ProviderType = "gemini"
	ProviderClaude  ProviderType = "claude"
	ProviderOpenAI  ProviderType = "openai"
	ProviderUnknown ProviderType = ""
)

var prefixes = map[string]ProviderType{
	"gemini/":    ProviderGemini,
	"google/":    ProviderGemini,
	"claude/":    ProviderClaude,
	"anthropic/": ProviderClaude,
	"openai/":    ProviderOpenAI,
}

// DetectProvider determines the provider from a model string.
//   - "gemini-2.5-flash", "gemini/gemini-2.5-flash" -> Gemini
//   - "claude-sonnet-4-5", "anthropic/claude-sonnet-4-5" -> Claude
//   - "gpt-4o-mini", "o3-mini", "openai/any-compatible-model" -> OpenAI
func DetectProvider(model string) ProviderType {
	m := strings.ToLower(strings.TrimSpace(model))

	for prefix, p := range prefixes {
		if strings.HasPrefix(m, prefix) {
			return p
		}
	}

	switch {
	case strings.HasPrefix(m, "gemini-"):
		return ProviderGemini
	case strings.HasPrefix(m, "claude-"):
		return ProviderClaude
	case strings.HasPrefix(m, "gpt-"), len(m) > 1 && m[0] == 'o' && m[1] >= '0' && m[1] <= '9':
		return ProviderOpenAI
	}
	return ProviderUnknown
}

// NormalizeModel strips an explicit provider prefix.
func NormalizeModel(model string) string {
	m := strings.TrimSpace(model)
	for prefix := range prefixes {
		if strings.HasPrefix(strings.ToLower(m), prefix) {
			return m[len(prefix):]
		}
	}
	return m
}

// NewBackends builds the configured priority list, skipping entries whose
// provider is unknown or whose credential is missing.
func NewBackends(ctx context.Context, cfg *store.Config) []interfaces.Backend {
	out := make([]interfaces.Backend, 0, len(cfg.LLM.Backends))
	for _, id := range cfg.LLM.Backends {
		b, err := newBackend(ctx, cfg, id)
		if err != nil {
			logger.Warn(ctx, "Skipping generation backend", "backend", id, "error", err.Error())
			continue
		}
		out = append(out, llmobs.Wrap(b))
	}
	if len(out) == 0 {
		logger.Warn(ctx, "No generation backend available, replies will carry the AI failure notice")
	}
	return out
}

func newBackend(ctx context.Context, cfg *store.Config, id string) (interfaces.Backend, error) {
	model := NormalizeModel(id)
	switch DetectProvider(id) {
	case ProviderGemini:
		return gemini.New(ctx, gemini.Config{
			APIKey:      cfg.Secrets.GeminiAPIKey,
			Model:       model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		})
	case ProviderClaude:
		return claude.New(claude.Config{
			APIKey:      cfg.Secrets.AnthropicAPIKey,
			Model:       model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
		})
	case ProviderOpenAI:
		return openai.New(openai.Config{
			APIKey:      cfg.Secrets.OpenAIAPIKey,
			Model:       model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Endpoint:    cfg.LLM.OpenAIEndpoint,
		})
	default:
		return nil, fmt.Errorf("cannot detect provider for %q", id)
	}
}
