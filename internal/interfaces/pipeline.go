package interfaces

import (
	"context"

	"tw-stock-advisor/internal/types"
)

// Aggregator fans out the per-ticker lookups and joins the results.
type Aggregator interface {
	Aggregate(ctx context.Context, ticker, displayName string) (*types.AggregationResult, error)
}

// Narrator turns an aggregation into commentary. It never fails; a failed
// stage is reported through NarrativeReply.OK.
type Narrator interface {
	Generate(ctx context.Context, res *types.AggregationResult) types.NarrativeReply
}
