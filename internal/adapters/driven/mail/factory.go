// Package mail provides MailProvider implementations: Gmail via the Gmail
// API, generic IMAP/SMTP mailboxes, and an in-memory mock for development.
package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

// defaultCallTimeout bounds one mailbox operation when no limit is configured.
const defaultCallTimeout = 30 * time.Second

// Config selects and configures a mail provider
type Config struct {
	// Provider is one of "gmail", "imap" or "mock"
	Provider string
	Gmail    GmailConfig
	IMAP     IMAPConfig
}

// NewProvider creates the configured mail provider
func NewProvider(ctx context.Context, cfg Config, normaliser BodyNormaliser) (driven.MailProvider, error) {
	switch cfg.Provider {
	case "gmail":
		return NewGmailProvider(ctx, cfg.Gmail, normaliser)
	case "imap":
		return NewIMAPProvider(cfg.IMAP, normaliser)
	case "mock", "":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidProvider, cfg.Provider)
	}
}
