package llmobs

import (
	"context"
	"strings"
	"time"

	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/logger"
	"tw-stock-advisor/internal/trace"
)

// observableBackend wraps a Backend with logging and tracing
type observableBackend struct {
	backend interfaces.Backend
}

var _ interfaces.Backend = (*observableBackend)(nil)

// Wrap wraps a backend with observability middleware
func Wrap(backend interfaces.Backend) interfaces.Backend {
	return &observableBackend{backend: backend}
}

func (ob *observableBackend) Name() string {
	return ob.backend.Name()
}

func (ob *observableBackend) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := trace.StartSpan(ctx, "llm.Generate")
	defer span.End()

	fields := []any{
		"backend", ob.backend.Name(),
		"prompt_chars", len([]rune(prompt)),
	}
	if logger.IsDebugEnabled() {
		fields = append(fields, "prompt", prompt)
	}
	// Skip(1) reports the caller rather than this wrapper
	logger.DebugSkip(ctx, 1, "Requesting narrative", fields...)

	start := time.Now()
	text, err := ob.backend.Generate(ctx, prompt)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Backend call failed", err,
			"backend", ob.backend.Name(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		logger.WarnSkip(ctx, 1, "Backend returned empty text",
			"backend", ob.backend.Name(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return text, nil
	}

	logger.InfoSkip(ctx, 1, "Narrative received",
		"backend", ob.backend.Name(),
		"reply_chars", len([]rune(text)),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}
