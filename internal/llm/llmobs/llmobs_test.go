package llmobs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stub struct {
	text string
	err  error
}

func (s stub) Name() string { return "stub-model" }

func (s stub) Generate(context.Context, string) (string, error) { return s.text, s.err }

func TestWrapPassesThrough(t *testing.T) {
	b := Wrap(stub{text: "ok"})
	assert.Equal(t, "stub-model", b.Name())

	text, err := b.Generate(context.Background(), "p")
	assert.NoError(t, err)
	assert.Equal(t, "ok", text)

	boom := errors.New("boom")
	_, err = Wrap(stub{err: boom}).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, boom)
}

func TestWrapPassesEmptyTextThrough(t *testing.T) {
	text, err := Wrap(stub{text: "  "}).Generate(context.Background(), "p")
	assert.NoError(t, err)
	assert.Equal(t, "  ", text, "the generator decides that empty text is a failure")
}
