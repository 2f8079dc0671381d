package llm

import (
	"context"

	"github.com/hat3ck/cryptosense/pkg/models"
)

// Provider is one text-generation backend used for sentiment labeling
type Provider interface {
	// Name returns the provider tag ("cohere", "openai")
	Name() string

	// GenerateText sends a prompt and returns the generated text together
	// with the token usage reported by the provider
	GenerateText(ctx context.Context, prompt string) (*models.Generation, error)
}
