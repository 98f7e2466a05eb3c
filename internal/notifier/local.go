package notifier

import (
	"context"
	"fmt"
	"io"
	"sync"

	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/logger"
)

// Writer prints replies to an io.Writer; the report command uses it with stdout.
type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

var _ interfaces.Notifier = (*Writer)(nil)

func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

func (w *Writer) Send(_ context.Context, _ int64, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintln(w.out, text)
	return err
}

// LogOnly stands in when no bot token is configured.
type LogOnly struct{}

var _ interfaces.Notifier = LogOnly{}

func (LogOnly) Send(ctx context.Context, chatID int64, text string) error {
	logger.Warn(ctx, "No delivery channel configured, reply dropped",
		"chat_id", chatID,
		"chars", len([]rune(text)))
	return nil
}
