package mail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

// Ensure GmailProvider implements MailProvider
var _ driven.MailProvider = (*GmailProvider)(nil)

// BodyNormaliser cleans raw message bodies into plain text
type BodyNormaliser interface {
	Normalise(content string, contentType string) string
}

// GmailConfig configures OAuth2 access to a Gmail mailbox
type GmailConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	// Address is the account address used as the From header on replies
	Address string
	// CallTimeout bounds each mailbox operation. Zero selects the default.
	CallTimeout time.Duration
}

// GmailProvider reads and sends mail through the Gmail API
type GmailProvider struct {
	svc        *gmail.Service
	address    string
	normaliser BodyNormaliser
	timeout    time.Duration
}

// NewGmailProvider creates a Gmail mail provider.
// The refresh token must carry the gmail.modify scope.
func NewGmailProvider(ctx context.Context, cfg GmailConfig, normaliser BodyNormaliser) (*GmailProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("gmail client credentials and refresh token are required: %w", domain.ErrInvalidInput)
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
	}
	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       time.Now(), // force refresh on first use
	}
	client := oauth2.NewClient(ctx, oauthCfg.TokenSource(ctx, token))

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	return &GmailProvider{
		svc:        svc,
		address:    cfg.Address,
		normaliser: normaliser,
		timeout:    timeout,
	}, nil
}

// callContext bounds one mailbox operation regardless of the caller's context.
func (g *GmailProvider) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.timeout)
}

// Provider returns the provider name
func (g *GmailProvider) Provider() string {
	return "gmail"
}

// FetchUnread retrieves up to limit unread inbox messages.
// Messages stay unread at Gmail until MarkRead is called.
func (g *GmailProvider) FetchUnread(ctx context.Context, limit int) ([]*domain.InboundMessage, error) {
	if limit <= 0 {
		limit = 10
	}

	ctx, cancel := g.callContext(ctx)
	defer cancel()

	list, err := g.svc.Users.Messages.List("me").
		Q("is:unread in:inbox").
		MaxResults(int64(limit)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list unread messages: %w", err)
	}

	messages := make([]*domain.InboundMessage, 0, len(list.Messages))
	for _, ref := range list.Messages {
		full, err := g.svc.Users.Messages.Get("me", ref.Id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("get message %s: %w", ref.Id, err)
		}
		messages = append(messages, g.toInbound(full))
	}
	return messages, nil
}

// MarkRead removes the UNREAD label from a message
func (g *GmailProvider) MarkRead(ctx context.Context, externalID string) error {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	_, err := g.svc.Users.Messages.Modify("me", externalID, &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"UNREAD"},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("mark message %s read: %w", externalID, err)
	}
	return nil
}

// Send dispatches an outbound message, threading it onto the original
// conversation when the reply references one.
func (g *GmailProvider) Send(ctx context.Context, msg *driven.OutboundMessage) error {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	raw := buildRFC822(g.address, msg)

	gm := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}
	if msg.ThreadID != "" {
		gm.ThreadId = msg.ThreadID
	}

	if _, err := g.svc.Users.Messages.Send("me", gm).Context(ctx).Do(); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// SaveDraft stores an outbound message as a Gmail draft
func (g *GmailProvider) SaveDraft(ctx context.Context, msg *driven.OutboundMessage) error {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	raw := buildRFC822(g.address, msg)

	gm := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}
	if msg.ThreadID != "" {
		gm.ThreadId = msg.ThreadID
	}

	if _, err := g.svc.Users.Drafts.Create("me", &gmail.Draft{Message: gm}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// TestConnection verifies mailbox access
func (g *GmailProvider) TestConnection(ctx context.Context) error {
	ctx, cancel := g.callContext(ctx)
	defer cancel()

	if _, err := g.svc.Users.GetProfile("me").Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail profile: %w", err)
	}
	return nil
}

// Close releases provider resources
func (g *GmailProvider) Close() error {
	return nil
}

// toInbound converts a Gmail message into the provider-neutral form
func (g *GmailProvider) toInbound(msg *gmail.Message) *domain.InboundMessage {
	inbound := &domain.InboundMessage{
		ExternalID: msg.Id,
		ThreadID:   msg.ThreadId,
		Labels:     msg.LabelIds,
		ReceivedAt: time.UnixMilli(msg.InternalDate),
	}

	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "subject":
			inbound.Subject = h.Value
		case "from":
			inbound.Sender = h.Value
		case "to":
			inbound.Recipient = h.Value
		}
	}

	body, contentType := extractBody(msg.Payload)
	if g.normaliser != nil {
		body = g.normaliser.Normalise(body, contentType)
	}
	inbound.Body = body

	return inbound
}

// extractBody walks the MIME tree and returns the first text part,
// preferring text/plain over text/html.
func extractBody(payload *gmail.MessagePart) (string, string) {
	if payload == nil {
		return "", "text/plain"
	}

	var plain, html string
	var walk func(part *gmail.MessagePart)
	walk = func(part *gmail.MessagePart) {
		if part.Body != nil && part.Body.Data != "" {
			decoded, err := base64.URLEncoding.DecodeString(part.Body.Data)
			if err == nil {
				switch {
				case strings.HasPrefix(part.MimeType, "text/plain") && plain == "":
					plain = string(decoded)
				case strings.HasPrefix(part.MimeType, "text/html") && html == "":
					html = string(decoded)
				}
			}
		}
		for _, child := range part.Parts {
			walk(child)
		}
	}
	walk(payload)

	if plain != "" {
		return plain, "text/plain"
	}
	return html, "text/html"
}

// buildRFC822 assembles a minimal reply message
func buildRFC822(from string, msg *driven.OutboundMessage) string {
	var b strings.Builder
	if from != "" {
		fmt.Fprintf(&b, "From: %s\r\n", from)
	}
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	if msg.InReplyTo != "" {
		fmt.Fprintf(&b, "In-Reply-To: %s\r\n", msg.InReplyTo)
		fmt.Fprintf(&b, "References: %s\r\n", msg.InReplyTo)
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return b.String()
}
