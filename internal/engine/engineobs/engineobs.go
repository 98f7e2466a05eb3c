package engineobs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/logger"
	"tw-stock-advisor/internal/trace"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

// Wrap tags each run with a request id and logs its outcome.
func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Run(ctx context.Context, chatID int64, ticker string) error {
	if logger.RequestID(ctx) == "" {
		ctx = logger.WithRequestID(ctx, uuid.NewString())
	}
	ctx, span := trace.StartSpan(ctx, "engine.Run")
	defer span.End()

	start := time.Now()

	logger.InfoSkip(ctx, 1, "Request received",
		"ticker", ticker,
		"chat_id", chatID,
	)

	if err := oe.engine.Run(ctx, chatID, ticker); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Request failed", err,
			"ticker", ticker,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return err
	}

	logger.InfoSkip(ctx, 1, "Request completed",
		"ticker", ticker,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
