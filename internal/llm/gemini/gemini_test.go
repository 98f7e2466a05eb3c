package gemini

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.Contains(r.URL.Path, "gemini-2.5-flash:generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"觀望，"},{"text":"守 5MA"}]}}]}`))
	}))
	defer srv.Close()

	b, err := New(context.Background(), Config{APIKey: "g-test", Model: "gemini-2.5-flash", BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := b.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "觀望，守 5MA", text)
	assert.Equal(t, "gemini-2.5-flash", b.Name())
}

func TestGenerateEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	b, err := New(context.Background(), Config{APIKey: "g-test", Model: "gemini-2.5-flash", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = b.Generate(context.Background(), "prompt")
	assert.Error(t, err)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(context.Background(), Config{Model: "gemini-2.5-flash"})
	assert.ErrorContains(t, err, "GEMINI_API_KEY")
}
