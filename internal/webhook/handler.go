package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"

	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/logger"
	"tw-stock-advisor/internal/report"
	"tw-stock-advisor/internal/types"
)

// maxUpdateBytes bounds the body read from one update.
const maxUpdateBytes = 1 << 20

// Options controls how updates are dispatched.
type Options struct {
	// UsageHint answers /start and /help with the expected input format.
	UsageHint bool
	// Async runs the engine after the response has been written.
	Async bool
}

// Handler receives bot updates. It always answers 200 {"status":"ok"} so the
// bot platform never redelivers an update.
type Handler struct {
	engine   interfaces.Engine
	notifier interfaces.Notifier
	opts     Options

	inflight sync.WaitGroup
}

func NewHandler(engine interfaces.Engine, notifier interfaces.Notifier, opts Options) *Handler {
	return &Handler{engine: engine, notifier: notifier, opts: opts}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer writeOK(w)
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(r.Context(), "Webhook handler panic recovered",
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBytes))
	if err != nil || len(body) == 0 {
		return
	}

	var upd types.Update
	if err := json.Unmarshal(body, &upd); err != nil {
		logger.Debug(r.Context(), "Ignoring non-JSON update", "bytes", len(body))
		return
	}
	if upd.Message == nil {
		return
	}

	chatID := upd.Message.Chat.ID
	text := strings.TrimSpace(upd.Message.Text)

	switch {
	case types.ValidTicker(text):
		h.dispatch(r.Context(), chatID, text)
	case h.opts.UsageHint && isHelpCommand(text):
		if err := h.notifier.Send(r.Context(), chatID, report.UsageHintText); err != nil {
			logger.Warn(r.Context(), "Usage hint delivery failed", "chat_id", chatID, "error", err.Error())
		}
	}
}

func (h *Handler) dispatch(ctx context.Context, chatID int64, ticker string) {
	if !h.opts.Async {
		h.run(ctx, chatID, ticker)
		return
	}
	// The request context is cancelled once the response is written.
	ctx = context.WithoutCancel(ctx)
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		h.run(ctx, chatID, ticker)
	}()
}

func (h *Handler) run(ctx context.Context, chatID int64, ticker string) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error(ctx, "Engine panic recovered",
				"ticker", ticker,
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()))
		}
	}()
	if err := h.engine.Run(ctx, chatID, ticker); err != nil {
		logger.ErrorWithErr(ctx, "Request ended in fault", err, "ticker", ticker, "chat_id", chatID)
	}
}

// Wait blocks until every dispatched request has finished or ctx is done.
func (h *Handler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isHelpCommand(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return cmd == "/start" || cmd == "/help"
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
