package claude

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-haiku-4-5",
			"content": [{"type": "text", "text": "買進"}, {"type": "text", "text": "，停損 591"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	b, err := New(Config{APIKey: "sk-ant-test", Model: "claude-haiku-4-5", BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := b.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "買進，停損 591", text)
}

func TestGenerateDoesNotRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	}))
	defer srv.Close()

	b, err := New(Config{APIKey: "k", Model: "claude-haiku-4-5", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = b.Generate(context.Background(), "prompt")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(Config{Model: "claude-haiku-4-5"})
	assert.ErrorContains(t, err, "ANTHROPIC_API_KEY")
}
