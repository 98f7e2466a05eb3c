package interfaces

import (
	"context"

	"tw-stock-advisor/internal/types"
)

// NewsFeed fetches capped headlines for one market. Errors never escape;
// a failing feed yields an empty list.
type NewsFeed interface {
	Name() string
	Fetch(ctx context.Context, ticker, displayName string) []types.NewsItem
}
