package engine

import (
	"tw-stock-advisor/internal/interfaces"
)

// New builds the request engine. ack sends a short "working on it" message first.
func New(agg interfaces.Aggregator, narrator interfaces.Narrator, notifier interfaces.Notifier, ack bool) interfaces.Engine {
	return newEngine(agg, narrator, notifier, ack)
}
