package driven

import (
	"context"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
)

// SettingsStore persists agent and AI settings
type SettingsStore interface {
	// GetSettings retrieves the agent settings
	GetSettings(ctx context.Context) (*domain.Settings, error)

	// SaveSettings persists agent settings
	SaveSettings(ctx context.Context, settings *domain.Settings) error

	// GetAISettings retrieves AI-specific settings
	GetAISettings(ctx context.Context) (*domain.AISettings, error)

	// SaveAISettings persists AI-specific settings
	SaveAISettings(ctx context.Context, settings *domain.AISettings) error
}
