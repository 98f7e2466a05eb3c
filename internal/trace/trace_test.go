package trace

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledIsNoop(t *testing.T) {
	require.NoError(t, InitWithConfig(Config{Enabled: false}))

	ctx, span := StartSpan(context.Background(), "noop")
	span.End()

	assert.False(t, Enabled())
	_, _, ok := GetTraceFields(ctx)
	assert.False(t, ok)
	assert.NoError(t, Shutdown(context.Background()))
}

func TestEnabledExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithConfig(Config{Enabled: true, Output: &buf, SampleRatio: 1, Version: "test"}))

	ctx, span := StartSpan(context.Background(), "pipeline.quote")
	traceID, spanID, ok := GetTraceFields(ctx)
	span.End()

	require.True(t, ok)
	assert.Len(t, traceID, 32)
	assert.Len(t, spanID, 16)

	require.NoError(t, Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "pipeline.quote")
	assert.Contains(t, buf.String(), "tw-stock-advisor")
	assert.False(t, Enabled())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_TRACING_ENABLED", "true")
	t.Setenv("LOG_TRACING_SAMPLE_RATIO", "0.25")
	cfg := LoadConfigFromEnv("v1")
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 0.25, cfg.SampleRatio)
	assert.Equal(t, "v1", cfg.Version)

	t.Setenv("LOG_TRACING_SAMPLE_RATIO", "7")
	assert.Equal(t, 1.0, LoadConfigFromEnv("v1").SampleRatio)
}
