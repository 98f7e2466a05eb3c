package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/logger"
	"tw-stock-advisor/internal/pipeline"
	"tw-stock-advisor/internal/report"
	"tw-stock-advisor/internal/types"
)

// ErrInvalidTicker is returned for input that is not exactly four ASCII digits.
var ErrInvalidTicker = errors.New("invalid ticker")

// Stage is a step of the per-request state machine.
type Stage string

const (
	StageReceived     Stage = "received"
	StageAggregating  Stage = "aggregating"
	StageNotFound     Stage = "not_found"
	StageNarrative    Stage = "narrative"
	StageFormatting   Stage = "formatting"
	StageDelivered    Stage = "delivered"
	StageFaultHandled Stage = "fault_handled"
)

type engine struct {
	agg      interfaces.Aggregator
	narrator interfaces.Narrator
	notifier interfaces.Notifier
	ack      bool
}

var _ interfaces.Engine = (*engine)(nil)

func newEngine(agg interfaces.Aggregator, narrator interfaces.Narrator, notifier interfaces.Notifier, ack bool) *engine {
	return &engine{agg: agg, narrator: narrator, notifier: notifier, ack: ack}
}

// Run handles one ticker request. Only an invalid ticker or a recovered panic
// is returned; upstream failures end in a reply to the chat.
func (e *engine) Run(ctx context.Context, chatID int64, ticker string) (err error) {
	stage := StageReceived
	advance := func(next Stage) {
		stage = next
		logger.Debug(ctx, "Request stage", "ticker", ticker, "stage", string(next))
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in stage %s: %v", stage, r)
			logger.Error(ctx, "Request fault recovered",
				"ticker", ticker,
				"stage", string(stage),
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
			advance(StageFaultHandled)
		}
	}()

	if !types.ValidTicker(ticker) {
		return fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}

	if e.ack {
		e.deliver(ctx, chatID, ticker, report.Ack(ticker))
	}

	advance(StageAggregating)
	res, err := e.agg.Aggregate(ctx, ticker, "")
	if err != nil {
		if !errors.Is(err, pipeline.ErrTickerNotFound) {
			logger.Warn(ctx, "Aggregation failed, treating ticker as not found", "ticker", ticker, "error", err.Error())
		}
		advance(StageNotFound)
		logger.Info(ctx, "Ticker not found", "ticker", ticker, "reason", err.Error())
		e.deliver(ctx, chatID, ticker, report.NotFound(ticker))
		return nil
	}

	advance(StageNarrative)
	reply := e.narrator.Generate(ctx, res)

	advance(StageFormatting)
	msg := report.Format(res, reply)
	logger.Report(ctx, ticker, reply.Backend, reply.OK,
		"absent", len(res.Absent),
		"chars", len([]rune(msg)))

	e.deliver(ctx, chatID, ticker, msg)
	advance(StageDelivered)
	return nil
}

// deliver is best-effort: failures are logged and never retried.
func (e *engine) deliver(ctx context.Context, chatID int64, ticker, text string) {
	if err := e.notifier.Send(ctx, chatID, text); err != nil {
		logger.Warn(ctx, "Delivery failed", "ticker", ticker, "chat_id", chatID, "error", err.Error())
	}
}
