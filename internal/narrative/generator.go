package narrative

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/logger"
	"tw-stock-advisor/internal/types"
)

// FailureSentinel replaces the commentary when no backend produced text.
const FailureSentinel = "⚠️ AI 連線失敗。"

// ErrAllBackendsExhausted is returned when every backend failed or the stage deadline passed.
var ErrAllBackendsExhausted = errors.New("all generation backends exhausted")

var errEmptyReply = errors.New("empty reply")

// Generator tries each backend once, in priority order, until one returns text.
type Generator struct {
	backends     []interfaces.Backend
	stageTimeout time.Duration
	callTimeout  time.Duration
}

func NewGenerator(backends []interfaces.Backend, stageTimeout, callTimeout time.Duration) *Generator {
	return &Generator{backends: backends, stageTimeout: stageTimeout, callTimeout: callTimeout}
}

// Backends returns the configured priority list.
func (g *Generator) Backends() []interfaces.Backend {
	return g.backends
}

// Generate never fails; on exhaustion the reply carries FailureSentinel and OK=false.
func (g *Generator) Generate(ctx context.Context, res *types.AggregationResult) types.NarrativeReply {
	text, backend, err := g.GenerateText(ctx, BuildPrompt(res))
	if err != nil {
		logger.Warn(ctx, "Narrative unavailable", "ticker", res.Ticker, "error", err.Error())
		return types.NarrativeReply{Text: FailureSentinel}
	}
	return types.NarrativeReply{Text: text, Backend: backend, OK: true}
}

// GenerateText returns the first non-empty reply and the name of the backend that produced it.
func (g *Generator) GenerateText(ctx context.Context, prompt string) (string, string, error) {
	stageCtx, cancel := context.WithTimeout(ctx, g.stageTimeout)
	defer cancel()

	var errs []error
	for _, b := range g.backends {
		if stageCtx.Err() != nil {
			errs = append(errs, fmt.Errorf("stage: %w", stageCtx.Err()))
			break
		}

		text, err := g.call(stageCtx, b, prompt)
		if err == nil {
			return text, b.Name(), nil
		}
		logger.Warn(ctx, "Backend failed, trying next", "backend", b.Name(), "error", err.Error())
		errs = append(errs, fmt.Errorf("%s: %w", b.Name(), err))
	}

	if len(errs) == 0 {
		return "", "", fmt.Errorf("%w: no backends configured", ErrAllBackendsExhausted)
	}
	return "", "", fmt.Errorf("%w: %w", ErrAllBackendsExhausted, errors.Join(errs...))
}

type callResult struct {
	text string
	err  error
}

// call stops waiting at the per-call deadline even if the backend ignores cancellation.
func (g *Generator) call(ctx context.Context, b interfaces.Backend, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.callTimeout)
	defer cancel()

	ch := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- callResult{err: fmt.Errorf("backend panicked: %v", r)}
			}
		}()
		text, err := b.Generate(callCtx, prompt)
		ch <- callResult{text: text, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return "", r.err
		}
		text := strings.TrimSpace(r.text)
		if text == "" {
			return "", errEmptyReply
		}
		return text, nil
	case <-callCtx.Done():
		return "", callCtx.Err()
	}
}
