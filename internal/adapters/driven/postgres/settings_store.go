package postgres

import (
	"context"
	"database/sql"
	"encoding/base64"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

var _ driven.SettingsStore = (*SettingsStore)(nil)

// SettingsStore keeps agent and AI settings in Postgres. Both tables
// hold a single row; the service layer falls back to defaults when
// nothing has been saved yet.
type SettingsStore struct {
	db  *DB
	enc *APIKeyCipher
}

// NewSettingsStore creates a new SettingsStore.
// API keys are stored in plaintext; use NewSettingsStoreWithCipher
// to encrypt them at rest.
func NewSettingsStore(db *DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// NewSettingsStoreWithCipher creates a SettingsStore that encrypts
// AI API keys with AES-256-GCM before persisting them.
func NewSettingsStoreWithCipher(db *DB, enc *APIKeyCipher) *SettingsStore {
	return &SettingsStore{db: db, enc: enc}
}

// sealKey encrypts an API key for storage. Empty keys pass through.
func (s *SettingsStore) sealKey(key string) (string, error) {
	if s.enc == nil || key == "" {
		return key, nil
	}
	blob, err := s.enc.Encrypt(key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(blob), nil
}

// openKey decrypts a stored API key. Empty values pass through.
func (s *SettingsStore) openKey(stored string) (string, error) {
	if s.enc == nil || stored == "" {
		return stored, nil
	}
	blob, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", err
	}
	return s.enc.Decrypt(blob)
}

// GetSettings retrieves the agent behavior settings. AI provider
// configuration lives in the ai_settings table, not here.
func (s *SettingsStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	query := `
		SELECT sweep_interval_minutes, sweep_batch_size, sweep_enabled,
			   auto_respond_enabled, model_temperature, retention_days,
			   updated_at, updated_by
		FROM settings
		WHERE id = 1
	`

	var settings domain.Settings
	var updatedBy sql.NullString

	err := s.db.QueryRowContext(ctx, query).Scan(
		&settings.SweepIntervalMinutes,
		&settings.SweepBatchSize,
		&settings.SweepEnabled,
		&settings.AutoRespondEnabled,
		&settings.ModelTemperature,
		&settings.RetentionDays,
		&settings.UpdatedAt,
		&updatedBy,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	settings.UpdatedBy = updatedBy.String

	return &settings, nil
}

// SaveSettings upserts the single settings row.
func (s *SettingsStore) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	query := `
		INSERT INTO settings (id, sweep_interval_minutes, sweep_batch_size, sweep_enabled,
							  auto_respond_enabled, model_temperature, retention_days,
							  updated_at, updated_by)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			sweep_interval_minutes = EXCLUDED.sweep_interval_minutes,
			sweep_batch_size = EXCLUDED.sweep_batch_size,
			sweep_enabled = EXCLUDED.sweep_enabled,
			auto_respond_enabled = EXCLUDED.auto_respond_enabled,
			model_temperature = EXCLUDED.model_temperature,
			retention_days = EXCLUDED.retention_days,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by
	`

	settings.UpdatedAt = time.Now()

	_, err := s.db.ExecContext(ctx, query,
		settings.SweepIntervalMinutes,
		settings.SweepBatchSize,
		settings.SweepEnabled,
		settings.AutoRespondEnabled,
		settings.ModelTemperature,
		settings.RetentionDays,
		settings.UpdatedAt,
		settings.UpdatedBy,
	)
	return err
}

// GetAISettings retrieves the AI provider configuration, decrypting
// stored API keys on the way out.
func (s *SettingsStore) GetAISettings(ctx context.Context) (*domain.AISettings, error) {
	query := `
		SELECT embedding_provider, embedding_model, embedding_api_key, embedding_base_url,
			   llm_provider, llm_model, llm_api_key, llm_base_url, updated_at
		FROM ai_settings
		WHERE id = 1
	`

	var settings domain.AISettings
	var embProvider, embModel, embAPIKey, embBaseURL sql.NullString
	var llmProvider, llmModel, llmAPIKey, llmBaseURL sql.NullString

	err := s.db.QueryRowContext(ctx, query).Scan(
		&embProvider,
		&embModel,
		&embAPIKey,
		&embBaseURL,
		&llmProvider,
		&llmModel,
		&llmAPIKey,
		&llmBaseURL,
		&settings.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if embProvider.Valid {
		settings.Embedding.Provider = domain.AIProvider(embProvider.String)
	}
	settings.Embedding.Model = embModel.String
	settings.Embedding.BaseURL = embBaseURL.String
	if settings.Embedding.APIKey, err = s.openKey(embAPIKey.String); err != nil {
		return nil, err
	}

	if llmProvider.Valid {
		settings.LLM.Provider = domain.AIProvider(llmProvider.String)
	}
	settings.LLM.Model = llmModel.String
	settings.LLM.BaseURL = llmBaseURL.String
	if settings.LLM.APIKey, err = s.openKey(llmAPIKey.String); err != nil {
		return nil, err
	}

	return &settings, nil
}

// SaveAISettings upserts the AI provider configuration, sealing API
// keys before they hit the table.
func (s *SettingsStore) SaveAISettings(ctx context.Context, settings *domain.AISettings) error {
	query := `
		INSERT INTO ai_settings (id, embedding_provider, embedding_model, embedding_api_key, embedding_base_url,
								 llm_provider, llm_model, llm_api_key, llm_base_url, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			embedding_provider = EXCLUDED.embedding_provider,
			embedding_model = EXCLUDED.embedding_model,
			embedding_api_key = EXCLUDED.embedding_api_key,
			embedding_base_url = EXCLUDED.embedding_base_url,
			llm_provider = EXCLUDED.llm_provider,
			llm_model = EXCLUDED.llm_model,
			llm_api_key = EXCLUDED.llm_api_key,
			llm_base_url = EXCLUDED.llm_base_url,
			updated_at = EXCLUDED.updated_at
	`

	settings.UpdatedAt = time.Now()

	embKey, err := s.sealKey(settings.Embedding.APIKey)
	if err != nil {
		return err
	}
	llmKey, err := s.sealKey(settings.LLM.APIKey)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query,
		string(settings.Embedding.Provider),
		settings.Embedding.Model,
		embKey,
		settings.Embedding.BaseURL,
		string(settings.LLM.Provider),
		settings.LLM.Model,
		llmKey,
		settings.LLM.BaseURL,
		settings.UpdatedAt,
	)
	return err
}
