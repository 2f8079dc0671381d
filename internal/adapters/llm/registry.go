package llm

import (
	"fmt"
	"time"

	"github.com/hat3ck/cryptosense/internal/adapters/config"
	"github.com/hat3ck/cryptosense/pkg/models"
)

// ProviderTag enumerates supported text-generation providers
type ProviderTag string

const (
	TagCohere ProviderTag = "cohere"
	TagOpenAI ProviderTag = "openai"
)

type factory func(apiKey, apiURL, model string, timeout time.Duration) Provider

// Registry resolves a stored provider record to a concrete implementation.
// The supported set is fixed at construction; an unknown provider name in the
// database is a configuration error, not a runtime dispatch decision.
type Registry struct {
	cfg       *config.LabelingConfig
	factories map[ProviderTag]factory
}

// NewRegistry creates the provider registry for the enumerated supported set
func NewRegistry(cfg *config.LabelingConfig) *Registry {
	return &Registry{
		cfg: cfg,
		factories: map[ProviderTag]factory{
			TagCohere: func(apiKey, apiURL, model string, timeout time.Duration) Provider {
				return NewCohereProvider(apiKey, apiURL, model, timeout)
			},
			TagOpenAI: func(apiKey, apiURL, model string, timeout time.Duration) Provider {
				return NewOpenAIProvider(apiKey, apiURL, model, timeout)
			},
		},
	}
}

// Resolve builds the provider implementation for a stored provider record.
// The record's API key wins; the environment key is the fallback.
func (r *Registry) Resolve(record *models.LLMProviderRecord) (Provider, error) {
	tag := ProviderTag(record.Name)

	create, ok := r.factories[tag]
	if !ok {
		return nil, fmt.Errorf("unsupported labeling provider %q", record.Name)
	}

	apiKey := record.DefaultAPIKey.String
	if apiKey == "" {
		switch tag {
		case TagCohere:
			apiKey = r.cfg.Cohere.APIKey
		case TagOpenAI:
			apiKey = r.cfg.OpenAI.APIKey
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key configured for labeling provider %q", record.Name)
	}

	return create(apiKey, record.APIURL.String, record.Model, r.cfg.RequestTimeout), nil
}
