package interfaces

import (
	"context"
)

// Backend is one text-generation service instance identified by a model name.
type Backend interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}
