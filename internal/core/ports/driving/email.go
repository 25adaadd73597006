package driving

import (
	"context"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

// UpdateEmailRequest represents a manual update to an email record
type UpdateEmailRequest struct {
	Status   *domain.EmailStatus `json:"status,omitempty"`
	Priority *domain.Priority    `json:"priority,omitempty"`
}

// EmailService manages stored email records and their responses
type EmailService interface {
	// Get retrieves an email record by ID
	Get(ctx context.Context, id string) (*domain.EmailRecord, error)

	// List retrieves email records matching the filter, newest first
	List(ctx context.Context, filter driven.EmailFilter) ([]*domain.EmailRecord, error)

	// Update applies a manual status or priority change.
	// Status changes go through the record state machine.
	Update(ctx context.Context, id string, req UpdateEmailRequest) (*domain.EmailRecord, error)

	// Delete removes an email record and its responses
	Delete(ctx context.Context, id string) error

	// Process runs the analysis pipeline for one record synchronously
	Process(ctx context.Context, id string) (*domain.EmailRecord, error)

	// GenerateResponse produces (and stores) a response for a record without sending it
	GenerateResponse(ctx context.Context, id string) (*domain.ResponseRecord, error)

	// SendResponse dispatches a stored response through the mail provider
	// and moves the email to responded
	SendResponse(ctx context.Context, responseID string) error

	// Responses retrieves all responses for an email, newest first
	Responses(ctx context.Context, emailID string) ([]*domain.ResponseRecord, error)

	// Stats returns aggregate record counts for the dashboard
	Stats(ctx context.Context) (*domain.EmailStats, error)
}
