package ai

import (
	"fmt"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

// Ensure Factory implements AIServiceFactory
var _ driven.AIServiceFactory = (*Factory)(nil)

// Factory creates AI services based on configuration
type Factory struct {
	// LLMTimeout bounds each completion call on the services this factory
	// creates. Zero selects the adapter default.
	LLMTimeout time.Duration
}

// NewFactory creates a new AI service factory
func NewFactory() *Factory {
	return &Factory{}
}

// CreateEmbeddingService creates an embedding service from settings.
// Unconfigured settings yield nil, nil: the agent runs without semantic
// search until an embedding provider is set up.
func (f *Factory) CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return NewOpenAIEmbedding(settings.APIKey, settings.Model, settings.BaseURL)
	case domain.AIProviderOllama:
		return NewOllamaEmbedding(settings.BaseURL, settings.Model)
	case domain.AIProviderMock:
		return NewMockEmbedding(), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}

// CreateLLMService creates an LLM service from settings.
// Unconfigured settings yield nil, nil: the pipeline still runs but
// every generated reply is the canned fallback.
func (f *Factory) CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return NewOpenAILLM(settings.APIKey, settings.Model, settings.BaseURL, f.LLMTimeout)
	case domain.AIProviderOllama:
		return NewOllamaLLM(settings.BaseURL, settings.Model, f.LLMTimeout)
	case domain.AIProviderMock:
		return NewMockLLM(), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, settings.Provider)
	}
}
