package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/logger"
	"tw-stock-advisor/internal/news"
	"tw-stock-advisor/internal/trace"
	"tw-stock-advisor/internal/types"
)

// ErrTickerNotFound short-circuits a request whose quote failed, timed out or was unusable.
var ErrTickerNotFound = errors.New("ticker not found")

var errTimedOut = errors.New("timed out")

// Coordinator fans the quote, indicator and news lookups out concurrently
// and joins whatever finished before the deadline.
type Coordinator struct {
	quotes        interfaces.QuoteSource
	indicators    interfaces.IndicatorSource
	domestic      interfaces.NewsFeed
	international interfaces.NewsFeed

	taskTimeout time.Duration
	// budget bounds the whole join; zero disables it.
	budget time.Duration
}

func NewCoordinator(
	quotes interfaces.QuoteSource,
	indicators interfaces.IndicatorSource,
	domestic, international interfaces.NewsFeed,
	taskTimeout, budget time.Duration,
) *Coordinator {
	return &Coordinator{
		quotes:        quotes,
		indicators:    indicators,
		domestic:      domestic,
		international: international,
		taskTimeout:   taskTimeout,
		budget:        budget,
	}
}

type outcome[T any] struct {
	val T
	err error
}

// launch runs fn in its own goroutine with a per-task deadline. The channel is
// buffered so an abandoned task never blocks on send.
func launch[T any](ctx context.Context, task string, timeout time.Duration, fn func(context.Context) (T, error)) <-chan outcome[T] {
	ch := make(chan outcome[T], 1)
	go func() {
		taskCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		taskCtx, span := trace.StartSpan(taskCtx, "pipeline."+task)
		defer span.End()

		defer func() {
			if r := recover(); r != nil {
				logger.Error(taskCtx, "Pipeline task panicked", "task", task, "panic", fmt.Sprint(r))
				ch <- outcome[T]{err: fmt.Errorf("%s panicked: %v", task, r)}
			}
		}()

		v, err := fn(taskCtx)
		ch <- outcome[T]{val: v, err: err}
	}()
	return ch
}

// joinTimeout is the task timeout, shortened by the global budget when set.
func (c *Coordinator) joinTimeout() time.Duration {
	if c.budget > 0 && c.budget < c.taskTimeout {
		return c.budget
	}
	return c.taskTimeout
}

// Aggregate returns ErrTickerNotFound when the quote is missing or unusable;
// every other task that fails or misses the deadline is listed in Absent.
func (c *Coordinator) Aggregate(ctx context.Context, ticker, displayName string) (*types.AggregationResult, error) {
	op := logger.StartOperation(ctx, "aggregate", "ticker", ticker)
	ctx = op.GetContext()

	// tasks still running after the join see this cancellation
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	joinDeadline := time.NewTimer(c.joinTimeout())
	defer joinDeadline.Stop()

	quoteCh := launch(ctx, types.TaskQuote, c.taskTimeout, func(ctx context.Context) (types.Quote, error) {
		return c.quotes.Quote(ctx, ticker)
	})
	indCh := launch(ctx, types.TaskIndicators, c.taskTimeout, func(ctx context.Context) (*types.Indicators, error) {
		return c.indicators.Indicators(ctx, ticker)
	})
	domCh := launch(ctx, types.TaskDomesticNews, c.taskTimeout, func(ctx context.Context) ([]types.NewsItem, error) {
		return c.domestic.Fetch(ctx, ticker, displayName), nil
	})
	intlCh := launch(ctx, types.TaskForeignNews, c.taskTimeout, func(ctx context.Context) ([]types.NewsItem, error) {
		return c.international.Fetch(ctx, ticker, displayName), nil
	})

	result := &types.AggregationResult{Ticker: ticker}
	reasons := map[string]error{}
	var domestic, international []types.NewsItem
	domDone, intlDone := false, false

	pending := 4
wait:
	for pending > 0 {
		select {
		case o := <-quoteCh:
			quoteCh, pending = nil, pending-1
			if o.err != nil {
				op.EndWithError(o.err)
				return nil, fmt.Errorf("%w: %s: %v", ErrTickerNotFound, ticker, o.err)
			}
			if !o.val.Usable() {
				op.EndWithError(ErrTickerNotFound, "reason", "unusable quote")
				return nil, fmt.Errorf("%w: %s: no usable price", ErrTickerNotFound, ticker)
			}
			q := o.val
			result.Quote = &q

		case o := <-indCh:
			indCh, pending = nil, pending-1
			if o.err != nil {
				reasons[types.TaskIndicators] = o.err
			} else {
				result.Indicators = o.val
			}

		case o := <-domCh:
			domCh, pending = nil, pending-1
			domestic, domDone = o.val, o.err == nil
			if o.err != nil {
				reasons[types.TaskDomesticNews] = o.err
			}

		case o := <-intlCh:
			intlCh, pending = nil, pending-1
			international, intlDone = o.val, o.err == nil
			if o.err != nil {
				reasons[types.TaskForeignNews] = o.err
			}

		case <-joinDeadline.C:
			break wait
		case <-ctx.Done():
			break wait
		}
	}

	if quoteCh != nil {
		op.EndWithError(errTimedOut, "task", types.TaskQuote)
		return nil, fmt.Errorf("%w: %s: quote %v", ErrTickerNotFound, ticker, errTimedOut)
	}
	if indCh != nil {
		reasons[types.TaskIndicators] = errTimedOut
	}
	if domCh != nil {
		reasons[types.TaskDomesticNews] = errTimedOut
	}
	if intlCh != nil {
		reasons[types.TaskForeignNews] = errTimedOut
	}

	if domDone || intlDone {
		lists := news.Merge(domestic, international)
		result.News = &lists
	}

	for _, task := range []string{types.TaskIndicators, types.TaskDomesticNews, types.TaskForeignNews} {
		if err, ok := reasons[task]; ok {
			result.Absent = append(result.Absent, task)
			logger.Absence(ctx, ticker, task, err.Error())
		}
	}

	op.End("absent", len(result.Absent))
	return result, nil
}
