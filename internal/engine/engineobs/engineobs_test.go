package engineobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"tw-stock-advisor/internal/logger"
)

type captureEngine struct {
	requestID string
	err       error
}

func (c *captureEngine) Run(ctx context.Context, chatID int64, ticker string) error {
	c.requestID = logger.RequestID(ctx)
	return c.err
}

func TestWrapAssignsRequestID(t *testing.T) {
	inner := &captureEngine{}
	assert.NoError(t, Wrap(inner).Run(context.Background(), 1, "2330"))
	assert.Len(t, inner.requestID, 36)

	ctx := logger.WithRequestID(context.Background(), "upstream-id")
	assert.NoError(t, Wrap(inner).Run(ctx, 1, "2330"))
	assert.Equal(t, "upstream-id", inner.requestID)
}

func TestWrapReturnsInnerError(t *testing.T) {
	boom := errors.New("boom")
	assert.ErrorIs(t, Wrap(&captureEngine{err: boom}).Run(context.Background(), 1, "2330"), boom)
}
