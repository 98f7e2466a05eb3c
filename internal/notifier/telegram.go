package notifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"tw-stock-advisor/internal/api"
	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/trace"
)

// Telegram delivers replies through the Bot API sendMessage method.
type Telegram struct {
	client    *api.Client
	parseMode string
	limiter   *rate.Limiter
	timeout   time.Duration
}

var _ interfaces.Notifier = (*Telegram)(nil)

// NewTelegram builds a sender for one bot. The token is part of the base URL,
// which the api client keeps out of logs and errors.
func NewTelegram(apiBase, token, parseMode string, perSecond float64, timeout time.Duration) *Telegram {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &Telegram{
		client: api.NewClient(
			api.WithBaseURL(strings.TrimRight(apiBase, "/")+"/bot"+token),
			api.WithRedactedBaseURL(),
			api.WithLogging(true),
		),
		parseMode: parseMode,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), burst),
		timeout:   timeout,
	}
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send makes one delivery attempt bounded by the delivery timeout.
func (t *Telegram) Send(ctx context.Context, chatID int64, text string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	ctx, span := trace.StartSpan(ctx, "telegram.sendMessage")
	defer span.End()

	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram rate limit: %w", err)
	}

	resp, err := t.client.POST(ctx, "/sendMessage", sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: t.parseMode,
	})
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}

	var r apiResponse
	if err := resp.ParseJSON(&r); err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	if !r.OK {
		return fmt.Errorf("telegram sendMessage rejected: %s", r.Description)
	}
	return nil
}
