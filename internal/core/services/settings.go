package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driving"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/runtime"
)

var _ driving.SettingsService = (*settingsService)(nil)

// settingsService manages agent behavior settings and the AI provider
// configuration. AI settings changes hot-reload the runtime services,
// so operators can rotate API keys without restarting.
type settingsService struct {
	settingsStore driven.SettingsStore
	aiFactory     driven.AIServiceFactory
	services      *runtime.Services
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(
	settingsStore driven.SettingsStore,
	aiFactory driven.AIServiceFactory,
	services *runtime.Services,
) driving.SettingsService {
	return &settingsService{
		settingsStore: settingsStore,
		aiFactory:     aiFactory,
		services:      services,
	}
}

// Get returns the current settings, falling back to defaults when none
// were ever saved.
func (s *settingsService) Get(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.settingsStore.GetSettings(ctx)
	if err != nil {
		return domain.DefaultSettings(), nil
	}
	return settings, nil
}

// Update applies partial settings changes and records who made them.
func (s *settingsService) Update(ctx context.Context, updaterID string, req driving.UpdateSettingsRequest) (*domain.Settings, error) {
	settings, err := s.settingsStore.GetSettings(ctx)
	if err != nil {
		settings = domain.DefaultSettings()
	}

	if req.SweepIntervalMinutes != nil {
		settings.SweepIntervalMinutes = *req.SweepIntervalMinutes
	}
	if req.SweepBatchSize != nil {
		settings.SweepBatchSize = *req.SweepBatchSize
	}
	if req.SweepEnabled != nil {
		settings.SweepEnabled = *req.SweepEnabled
	}
	if req.AutoRespondEnabled != nil {
		settings.AutoRespondEnabled = *req.AutoRespondEnabled
	}
	if req.ModelTemperature != nil {
		settings.ModelTemperature = *req.ModelTemperature
	}
	if req.RetentionDays != nil {
		settings.RetentionDays = *req.RetentionDays
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	settings.UpdatedAt = time.Now()
	settings.UpdatedBy = updaterID

	if err := s.settingsStore.SaveSettings(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// GetAISettings returns the stored AI provider configuration.
func (s *settingsService) GetAISettings(ctx context.Context) (*domain.AISettings, error) {
	return s.settingsStore.GetAISettings(ctx)
}

// UpdateAISettings saves new AI provider configuration and hot-reloads
// the runtime services to match. The returned status reflects what
// actually came up, not what was requested.
func (s *settingsService) UpdateAISettings(ctx context.Context, req driving.UpdateAISettingsRequest) (*driving.AISettingsStatus, error) {
	aiSettings, err := s.settingsStore.GetAISettings(ctx)
	if err != nil {
		aiSettings = &domain.AISettings{}
	}

	if req.Embedding != nil {
		aiSettings.Embedding = domain.EmbeddingSettings{
			Provider: req.Embedding.Provider,
			Model:    req.Embedding.Model,
			APIKey:   req.Embedding.APIKey,
			BaseURL:  req.Embedding.BaseURL,
		}
	}
	if req.LLM != nil {
		aiSettings.LLM = domain.LLMSettings{
			Provider: req.LLM.Provider,
			Model:    req.LLM.Model,
			APIKey:   req.LLM.APIKey,
			BaseURL:  req.LLM.BaseURL,
		}
	}

	if err := aiSettings.Validate(); err != nil {
		return nil, err
	}
	aiSettings.UpdatedAt = time.Now()

	if err := s.settingsStore.SaveAISettings(ctx, aiSettings); err != nil {
		return nil, err
	}

	return &driving.AISettingsStatus{
		Embedding: s.reloadEmbedding(ctx, aiSettings),
		LLM:       s.reloadLLM(ctx, aiSettings),
	}, nil
}

// reloadEmbedding builds and installs the embedding service described
// by the settings. A build or health-check failure leaves the service
// unavailable rather than failing the settings update.
func (s *settingsService) reloadEmbedding(ctx context.Context, aiSettings *domain.AISettings) driving.AIServiceStatus {
	if !aiSettings.Embedding.IsConfigured() {
		s.services.SetEmbeddingService(nil)
		return driving.AIServiceStatus{Available: false}
	}

	embSvc, err := s.aiFactory.CreateEmbeddingService(&aiSettings.Embedding)
	if err != nil {
		return driving.AIServiceStatus{Available: false}
	}
	if err := s.services.ValidateAndSetEmbedding(ctx, embSvc); err != nil {
		return driving.AIServiceStatus{Available: false}
	}

	return driving.AIServiceStatus{
		Available:    true,
		Provider:     aiSettings.Embedding.Provider,
		Model:        aiSettings.Embedding.Model,
		EmbeddingDim: embSvc.Dimensions(),
	}
}

// reloadLLM does the same for the LLM service.
func (s *settingsService) reloadLLM(ctx context.Context, aiSettings *domain.AISettings) driving.AIServiceStatus {
	if !aiSettings.LLM.IsConfigured() {
		s.services.SetLLMService(nil)
		return driving.AIServiceStatus{Available: false}
	}

	llmSvc, err := s.aiFactory.CreateLLMService(&aiSettings.LLM)
	if err != nil {
		return driving.AIServiceStatus{Available: false}
	}
	if err := s.services.ValidateAndSetLLM(ctx, llmSvc); err != nil {
		return driving.AIServiceStatus{Available: false}
	}

	return driving.AIServiceStatus{
		Available: true,
		Provider:  aiSettings.LLM.Provider,
		Model:     aiSettings.LLM.Model,
	}
}

// GetAIStatus reports which AI services are currently live.
func (s *settingsService) GetAIStatus(ctx context.Context) (*driving.AISettingsStatus, error) {
	aiSettings, _ := s.settingsStore.GetAISettings(ctx)

	status := &driving.AISettingsStatus{}

	if embSvc := s.services.EmbeddingService(); embSvc != nil {
		status.Embedding = driving.AIServiceStatus{
			Available:    true,
			Model:        embSvc.Model(),
			EmbeddingDim: embSvc.Dimensions(),
		}
		if aiSettings != nil {
			status.Embedding.Provider = aiSettings.Embedding.Provider
		}
	}

	if llmSvc := s.services.LLMService(); llmSvc != nil {
		status.LLM = driving.AIServiceStatus{
			Available: true,
			Model:     llmSvc.Model(),
		}
		if aiSettings != nil {
			status.LLM.Provider = aiSettings.LLM.Provider
		}
	}

	return status, nil
}

// TestConnection health-checks whichever AI services are configured.
func (s *settingsService) TestConnection(ctx context.Context) error {
	if embSvc := s.services.EmbeddingService(); embSvc != nil {
		if err := embSvc.HealthCheck(ctx); err != nil {
			return err
		}
	}
	if llmSvc := s.services.LLMService(); llmSvc != nil {
		if err := llmSvc.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}
