package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driving"
)

// Ensure emailService implements EmailService
var _ driving.EmailService = (*emailService)(nil)

// emailService implements the EmailService interface
type emailService struct {
	emailStore    driven.EmailStore
	responseStore driven.ResponseStore
	processor     *Processor
	logger        *slog.Logger
}

// EmailServiceConfig holds dependencies for the email service.
type EmailServiceConfig struct {
	EmailStore    driven.EmailStore
	ResponseStore driven.ResponseStore
	Processor     *Processor
	Logger        *slog.Logger
}

// NewEmailService creates a new EmailService.
func NewEmailService(cfg EmailServiceConfig) driving.EmailService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &emailService{
		emailStore:    cfg.EmailStore,
		responseStore: cfg.ResponseStore,
		processor:     cfg.Processor,
		logger:        logger,
	}
}

// Get retrieves an email record by ID.
func (s *emailService) Get(ctx context.Context, id string) (*domain.EmailRecord, error) {
	return s.emailStore.Get(ctx, id)
}

// List retrieves email records matching the filter, newest first.
func (s *emailService) List(ctx context.Context, filter driven.EmailFilter) ([]*domain.EmailRecord, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.emailStore.List(ctx, filter)
}

// Update applies a manual status or priority change.
func (s *emailService) Update(ctx context.Context, id string, req driving.UpdateEmailRequest) (*domain.EmailRecord, error) {
	rec, err := s.emailStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return nil, fmt.Errorf("unknown priority %q: %w", *req.Priority, domain.ErrInvalidInput)
		}
		rec.Priority = *req.Priority
	}

	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, fmt.Errorf("unknown status %q: %w", *req.Status, domain.ErrInvalidInput)
		}
		if err := rec.ApplyStatus(*req.Status); err != nil {
			return nil, fmt.Errorf("cannot move %s to %s: %w", rec.Status, *req.Status, err)
		}
	}

	if err := s.emailStore.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save email: %w", err)
	}
	return rec, nil
}

// Delete removes an email record and its responses.
func (s *emailService) Delete(ctx context.Context, id string) error {
	if _, err := s.emailStore.Get(ctx, id); err != nil {
		return err
	}

	if err := s.responseStore.DeleteByEmail(ctx, id); err != nil {
		return fmt.Errorf("failed to delete responses: %w", err)
	}
	if err := s.emailStore.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete email: %w", err)
	}

	s.logger.Info("email deleted", "email_id", id)
	return nil
}

// Process runs the analysis pipeline for one record synchronously.
// Records in a terminal state are re-triggered through processing.
func (s *emailService) Process(ctx context.Context, id string) (*domain.EmailRecord, error) {
	result, err := s.processor.ProcessByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return result.Record, nil
}

// GenerateResponse produces and stores a response for a record without sending it.
func (s *emailService) GenerateResponse(ctx context.Context, id string) (*domain.ResponseRecord, error) {
	rec, err := s.emailStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	kbContext := s.processor.searchContext(ctx, rec)
	settings := s.processor.currentSettings(ctx)
	reply := s.processor.analyzer.GenerateReply(ctx, rec, kbContext, settings.ModelTemperature)

	response := domain.NewResponseRecord(rec.ID, reply)
	if err := s.responseStore.Save(ctx, response); err != nil {
		return nil, fmt.Errorf("failed to save response: %w", err)
	}

	s.logger.Info("response drafted", "email_id", rec.ID, "response_id", response.ID,
		"type", response.Type, "confidence", response.Confidence)
	return response, nil
}

// SendResponse dispatches a stored response through the mail provider.
func (s *emailService) SendResponse(ctx context.Context, responseID string) error {
	response, err := s.responseStore.Get(ctx, responseID)
	if err != nil {
		return err
	}
	return s.processor.Send(ctx, response)
}

// Responses retrieves all responses for an email, newest first.
func (s *emailService) Responses(ctx context.Context, emailID string) ([]*domain.ResponseRecord, error) {
	if _, err := s.emailStore.Get(ctx, emailID); err != nil {
		return nil, err
	}
	return s.responseStore.GetByEmail(ctx, emailID)
}

// Stats returns aggregate record counts for the dashboard.
func (s *emailService) Stats(ctx context.Context) (*domain.EmailStats, error) {
	stats, err := s.emailStore.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load email stats: %w", err)
	}

	total, sent, err := s.responseStore.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count responses: %w", err)
	}
	stats.ResponsesTotal = total
	stats.ResponsesSent = sent

	return stats, nil
}
