package indicator

import (
	"context"
	"errors"
	"time"

	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/logger"
	"tw-stock-advisor/internal/types"
)

// Service resolves a ticker to an indicator snapshot, trying each market
// suffix in order until one returns bars.
type Service struct {
	bars     interfaces.BarSource
	suffixes []string
	timeout  time.Duration
}

var _ interfaces.IndicatorSource = (*Service)(nil)

// NewService builds a Service. timeout bounds each suffix attempt.
func NewService(bars interfaces.BarSource, suffixes []string, timeout time.Duration) *Service {
	return &Service{bars: bars, suffixes: suffixes, timeout: timeout}
}

// Indicators returns ErrNoData when no suffix yields bars and
// ErrInsufficientData when the cleaned series is shorter than MinBars.
func (s *Service) Indicators(ctx context.Context, ticker string) (*types.Indicators, error) {
	raw, err := s.fetch(ctx, ticker)
	if err != nil {
		return nil, err
	}

	series := Clean(raw)
	ind, err := Calculate(series)
	if err != nil {
		logger.Info(ctx, "Indicator series too short", "ticker", ticker, "raw", len(raw), "clean", len(series))
		return nil, err
	}

	logger.Debug(ctx, "Indicators computed",
		"ticker", ticker,
		"bars", ind.Bars,
		"ma5", ind.MA5,
		"upper_band", ind.UpperBand,
		"bias5", ind.Bias5,
		"candle", ind.Candle.String())
	return ind, nil
}

func (s *Service) fetch(ctx context.Context, ticker string) ([]types.RawBar, error) {
	lastErr := ErrNoData
	for _, suffix := range s.suffixes {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		raw, err := s.bars.DailyBars(attemptCtx, ticker, suffix)
		cancel()

		if err == nil && len(raw) > 0 {
			return raw, nil
		}
		if err == nil {
			err = ErrNoData
		}
		logger.Debug(ctx, "No bars for suffix", "ticker", ticker, "suffix", suffix, "error", err.Error())
		lastErr = err
	}

	if errors.Is(lastErr, ErrNoData) {
		return nil, lastErr
	}
	return nil, errors.Join(ErrNoData, lastErr)
}
