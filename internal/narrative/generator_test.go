package narrative

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tw-stock-advisor/internal/interfaces"
	"tw-stock-advisor/internal/report"
	"tw-stock-advisor/internal/types"
)

type fakeBackend struct {
	name  string
	text  string
	err   error
	delay time.Duration
	// stubborn ignores context cancellation.
	stubborn bool
	calls    atomic.Int32
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		if f.stubborn {
			time.Sleep(f.delay)
		} else {
			select {
			case <-time.After(f.delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return f.text, f.err
}

func backends(bs ...*fakeBackend) []interfaces.Backend {
	out := make([]interfaces.Backend, len(bs))
	for i, b := range bs {
		out[i] = b
	}
	return out
}

func sampleResult() *types.AggregationResult {
	return &types.AggregationResult{
		Ticker: "2330",
		Quote: &types.Quote{
			Ticker:  "2330",
			Price:   decimal.NewFromInt(600),
			Open:    decimal.NewFromInt(590),
			Success: true,
		},
		Indicators: &types.Indicators{MA5: 595, MA20: 590, StdDev20: 10, UpperBand: 610, Bias5: 0.84, VolumeRatio: 1},
		News:       &types.NoCoverage,
	}
}

func TestGenerateFallsThroughToNextBackend(t *testing.T) {
	a := &fakeBackend{name: "A", err: errors.New("quota exceeded")}
	b := &fakeBackend{name: "B", text: "X"}
	g := NewGenerator(backends(a, b), time.Second, 500*time.Millisecond)

	reply := g.Generate(context.Background(), sampleResult())

	assert.Equal(t, types.NarrativeReply{Text: "X", Backend: "B", OK: true}, reply)
	assert.Equal(t, int32(1), a.calls.Load())
	assert.Equal(t, int32(1), b.calls.Load())
}

func TestGenerateStopsAtFirstSuccess(t *testing.T) {
	a := &fakeBackend{name: "A", text: "first"}
	b := &fakeBackend{name: "B", text: "second"}
	g := NewGenerator(backends(a, b), time.Second, 500*time.Millisecond)

	reply := g.Generate(context.Background(), sampleResult())
	assert.Equal(t, "A", reply.Backend)
	assert.Equal(t, int32(0), b.calls.Load())
}

func TestGenerateSkipsEmptyText(t *testing.T) {
	a := &fakeBackend{name: "A", text: "   \n"}
	b := &fakeBackend{name: "B", text: "  ok  "}
	g := NewGenerator(backends(a, b), time.Second, 500*time.Millisecond)

	reply := g.Generate(context.Background(), sampleResult())
	assert.Equal(t, "ok", reply.Text)
	assert.Equal(t, "B", reply.Backend)
}

func TestGenerateAllFail(t *testing.T) {
	a := &fakeBackend{name: "A", err: errors.New("boom")}
	b := &fakeBackend{name: "B", err: errors.New("bang")}
	g := NewGenerator(backends(a, b), time.Second, 500*time.Millisecond)

	reply := g.Generate(context.Background(), sampleResult())
	assert.Equal(t, types.NarrativeReply{Text: FailureSentinel}, reply)

	_, _, err := g.GenerateText(context.Background(), "p")
	assert.ErrorIs(t, err, ErrAllBackendsExhausted)
	assert.Contains(t, err.Error(), "bang")
}

func TestGenerateNoBackends(t *testing.T) {
	g := NewGenerator(nil, time.Second, time.Second)
	reply := g.Generate(context.Background(), sampleResult())
	assert.False(t, reply.OK)
	assert.Equal(t, FailureSentinel, reply.Text)
}

func TestGeneratePerCallTimeoutAdvances(t *testing.T) {
	slow := &fakeBackend{name: "slow", text: "late", delay: time.Second, stubborn: true}
	fast := &fakeBackend{name: "fast", text: "on time"}
	g := NewGenerator(backends(slow, fast), time.Second, 50*time.Millisecond)

	start := time.Now()
	reply := g.Generate(context.Background(), sampleResult())
	assert.Equal(t, "fast", reply.Backend)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestGenerateStageTimeout(t *testing.T) {
	a := &fakeBackend{name: "A", text: "late", delay: time.Second, stubborn: true}
	b := &fakeBackend{name: "B", text: "never"}
	g := NewGenerator(backends(a, b), 80*time.Millisecond, 500*time.Millisecond)

	start := time.Now()
	reply := g.Generate(context.Background(), sampleResult())

	assert.Equal(t, FailureSentinel, reply.Text)
	assert.False(t, reply.OK)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, int32(0), b.calls.Load(), "stage deadline passed before B")
}

func TestGenerateRecoversBackendPanic(t *testing.T) {
	g := NewGenerator(backends(&fakeBackend{name: "ok", text: "fine"}), time.Second, time.Second)
	panicky := panicBackend{}
	g.backends = append([]interfaces.Backend{panicky}, g.backends...)

	reply := g.Generate(context.Background(), sampleResult())
	assert.Equal(t, "ok", reply.Backend)
}

type panicBackend struct{}

func (panicBackend) Name() string { return "panic" }

func (panicBackend) Generate(context.Context, string) (string, error) { panic("nil map") }

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(sampleResult())

	assert.Contains(t, prompt, "現價：600 (漲幅 1.69%)")
	assert.Contains(t, prompt, "5MA (地板): 595")
	assert.Contains(t, prompt, "布林上軌 (天花板): 610")
	assert.Contains(t, prompt, "乖離率: 0.84%")
	assert.Contains(t, prompt, report.NoCoverageText)
	assert.Contains(t, prompt, "跌破 591.00 (保命價)")
	assert.Contains(t, prompt, "限制 250 字")
}

func TestBuildPromptPlaceholders(t *testing.T) {
	res := sampleResult()
	res.Indicators = nil
	res.News = nil

	prompt := BuildPrompt(res)
	assert.Contains(t, prompt, report.IndicatorsUnavailable)
	assert.Contains(t, prompt, report.NewsUnavailableText)
	require.NotContains(t, prompt, "5MA (地板)")
}
