package interfaces

import (
	"context"

	"tw-stock-advisor/internal/types"
)

// QuoteSource returns a realtime quote for a ticker.
type QuoteSource interface {
	Quote(ctx context.Context, ticker string) (types.Quote, error)
}

// BarSource returns the recent daily series for a ticker and market suffix.
type BarSource interface {
	DailyBars(ctx context.Context, ticker, suffix string) ([]types.RawBar, error)
}

// IndicatorSource resolves a ticker to its technical snapshot.
type IndicatorSource interface {
	Indicators(ctx context.Context, ticker string) (*types.Indicators, error)
}
