package interfaces

import (
	"context"
)

// Notifier delivers a message to a chat on a best-effort basis.
type Notifier interface {
	Send(ctx context.Context, chatID int64, text string) error
}
