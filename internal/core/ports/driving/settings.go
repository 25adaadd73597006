package driving

import (
	"context"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
)

// SettingsService manages agent behavior settings and the AI provider
// configuration. Updating AI settings hot-reloads the live services;
// the returned status reflects what actually came up.
type SettingsService interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Update(ctx context.Context, updaterID string, req UpdateSettingsRequest) (*domain.Settings, error)

	GetAISettings(ctx context.Context) (*domain.AISettings, error)
	UpdateAISettings(ctx context.Context, req UpdateAISettingsRequest) (*AISettingsStatus, error)

	// GetAIStatus reports which AI services are currently live.
	GetAIStatus(ctx context.Context) (*AISettingsStatus, error)

	// TestConnection health-checks the configured AI providers.
	TestConnection(ctx context.Context) error
}

// UpdateSettingsRequest is a partial settings update; nil fields are
// left unchanged. AI provider configuration goes through
// UpdateAISettingsRequest instead.
type UpdateSettingsRequest struct {
	SweepIntervalMinutes *int     `json:"sweep_interval_minutes,omitempty"`
	SweepBatchSize       *int     `json:"sweep_batch_size,omitempty"`
	SweepEnabled         *bool    `json:"sweep_enabled,omitempty"`
	AutoRespondEnabled   *bool    `json:"auto_respond_enabled,omitempty"`
	ModelTemperature     *float64 `json:"model_temperature,omitempty"`
	RetentionDays        *int     `json:"retention_days,omitempty"`
}

// UpdateAISettingsRequest replaces the embedding and/or LLM provider
// configuration. A nil section is left unchanged.
type UpdateAISettingsRequest struct {
	Embedding *EmbeddingSettingsInput `json:"embedding,omitempty"`
	LLM       *LLMSettingsInput       `json:"llm,omitempty"`
}

// EmbeddingSettingsInput configures the embedding provider.
type EmbeddingSettingsInput struct {
	Provider domain.AIProvider `json:"provider"`
	Model    string            `json:"model"`
	APIKey   string            `json:"api_key"`
	BaseURL  string            `json:"base_url,omitempty"`
}

// LLMSettingsInput configures the LLM provider.
type LLMSettingsInput struct {
	Provider domain.AIProvider `json:"provider"`
	Model    string            `json:"model"`
	APIKey   string            `json:"api_key"`
	BaseURL  string            `json:"base_url,omitempty"`
}

// AISettingsStatus pairs the availability of both AI services.
type AISettingsStatus struct {
	Embedding AIServiceStatus `json:"embedding"`
	LLM       AIServiceStatus `json:"llm"`
}

// AIServiceStatus describes one live AI service. EmbeddingDim is only
// set for the embedding service.
type AIServiceStatus struct {
	Available    bool              `json:"available"`
	Provider     domain.AIProvider `json:"provider,omitempty"`
	Model        string            `json:"model,omitempty"`
	EmbeddingDim int               `json:"embedding_dim,omitempty"`
}
