package driven

import (
	"context"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
)

// OutboundMessage is a reply ready for dispatch through a mail provider
type OutboundMessage struct {
	To        string
	Subject   string
	Body      string
	InReplyTo string // External ID of the message being answered
	ThreadID  string
}

// MailProvider fetches inbound mail and dispatches replies.
// Implementations exist for Gmail, generic IMAP/SMTP and an in-memory mock.
type MailProvider interface {
	// Provider returns the provider name ("gmail", "imap", "mock")
	Provider() string

	// FetchUnread retrieves up to limit unread messages from the mailbox.
	// Messages stay unread at the source until MarkRead is called.
	FetchUnread(ctx context.Context, limit int) ([]*domain.InboundMessage, error)

	// MarkRead marks a message as read at the source
	MarkRead(ctx context.Context, externalID string) error

	// Send dispatches an outbound message
	Send(ctx context.Context, msg *OutboundMessage) error

	// SaveDraft stores an outbound message as a mailbox draft without sending
	SaveDraft(ctx context.Context, msg *OutboundMessage) error

	// TestConnection verifies mailbox access
	TestConnection(ctx context.Context) error

	// Close releases provider resources
	Close() error
}
