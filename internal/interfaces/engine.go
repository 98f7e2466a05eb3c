package interfaces

import (
	"context"
)

// Engine runs one inbound ticker request end to end and delivers the reply.
type Engine interface {
	Run(ctx context.Context, chatID int64, ticker string) error
}
