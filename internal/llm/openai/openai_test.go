package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])
		assert.EqualValues(t, 512, body["max_tokens"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  觀望  "}}]}`))
	}))
	defer srv.Close()

	b, err := New(Config{APIKey: "sk-test", Model: "gpt-4o-mini", MaxTokens: 512, Endpoint: srv.URL})
	require.NoError(t, err)

	text, err := b.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "觀望", text)
	assert.Equal(t, "gpt-4o-mini", b.Name())
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`},
		{"no choices", http.StatusOK, `{"choices":[]}`},
		{"bad json", http.StatusOK, `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			b, err := New(Config{APIKey: "k", Model: "gpt-4o", Endpoint: srv.URL})
			require.NoError(t, err)
			_, err = b.Generate(context.Background(), "p")
			assert.Error(t, err)
		})
	}
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(Config{Model: "gpt-4o"})
	assert.ErrorContains(t, err, "OPENAI_API_KEY")
}
