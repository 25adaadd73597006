package domain

import "time"

// AIProvider names a supported AI backend.
type AIProvider string

const (
	AIProviderOpenAI AIProvider = "openai"
	AIProviderOllama AIProvider = "ollama"
	AIProviderMock   AIProvider = "mock"
)

// Settings holds agent-wide behaviour configuration
type Settings struct {
	// Ingestion
	SweepIntervalMinutes int  `json:"sweep_interval_minutes"`
	SweepBatchSize       int  `json:"sweep_batch_size"`
	SweepEnabled         bool `json:"sweep_enabled"`

	// Response generation
	AutoRespondEnabled bool    `json:"auto_respond_enabled"`
	ModelTemperature   float64 `json:"model_temperature"`

	// Retention
	RetentionDays int `json:"retention_days"`

	// Metadata
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"` // User ID
}

// DefaultSettings returns the agent defaults: five-minute sweeps of ten
// messages, auto-respond on, thirty-day retention.
func DefaultSettings() *Settings {
	return &Settings{
		SweepIntervalMinutes: 5,
		SweepBatchSize:       10,
		SweepEnabled:         true,
		AutoRespondEnabled:   true,
		ModelTemperature:     0.7,
		RetentionDays:        30,
		UpdatedAt:            time.Now(),
	}
}

// AISettings is the operator-supplied AI provider configuration.
// Updating it through the API hot-reloads the runtime services.
type AISettings struct {
	Embedding EmbeddingSettings `json:"embedding"`
	LLM       LLMSettings       `json:"llm"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// EmbeddingSettings configures the embedding service.
type EmbeddingSettings struct {
	Provider AIProvider `json:"provider"`
	Model    string     `json:"model"`
	APIKey   string     `json:"-"` // Never serialize to JSON
	BaseURL  string     `json:"base_url,omitempty"`
}

// IsConfigured reports whether the settings are complete enough to
// build a service from.
func (e *EmbeddingSettings) IsConfigured() bool {
	if e.Provider == "" {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings configures the LLM service.
type LLMSettings struct {
	Provider AIProvider `json:"provider"`
	Model    string     `json:"model"`
	APIKey   string     `json:"-"` // Never serialize to JSON
	BaseURL  string     `json:"base_url,omitempty"`
}

// IsConfigured reports whether the settings are complete enough to
// build a service from.
func (l *LLMSettings) IsConfigured() bool {
	if l.Provider == "" {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// RequiresAPIKey reports whether the provider needs a key. Local
// providers (ollama) and the mock do not.
func (p AIProvider) RequiresAPIKey() bool {
	switch p {
	case AIProviderOllama, AIProviderMock:
		return false
	default:
		return true
	}
}

// IsValid reports whether this is a known provider.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderOllama, AIProviderMock:
		return true
	default:
		return false
	}
}

// Validate rejects unknown providers. Empty provider means the
// service is simply not configured.
func (s *AISettings) Validate() error {
	if s.Embedding.Provider != "" && !s.Embedding.Provider.IsValid() {
		return ErrInvalidProvider
	}
	if s.LLM.Provider != "" && !s.LLM.Provider.IsValid() {
		return ErrInvalidProvider
	}
	return nil
}

// Validate checks the agent settings ranges
func (s *Settings) Validate() error {
	if s.SweepIntervalMinutes <= 0 || s.SweepBatchSize <= 0 {
		return ErrInvalidInput
	}
	if s.RetentionDays <= 0 {
		return ErrInvalidInput
	}
	if s.ModelTemperature < 0 || s.ModelTemperature > 2 {
		return ErrInvalidInput
	}
	return nil
}
