package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	gomail "github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

// Ensure IMAPProvider implements MailProvider
var _ driven.MailProvider = (*IMAPProvider)(nil)

// IMAPConfig configures a generic IMAP mailbox with SMTP dispatch
type IMAPConfig struct {
	// IMAPAddr is the IMAP server address with port, e.g. "imap.example.com:993"
	IMAPAddr string
	// SMTPAddr is the SMTP server address with port, e.g. "smtp.example.com:587"
	SMTPAddr string
	Username string
	Password string
	// Address is the account address used as the From header on replies.
	// Defaults to Username.
	Address string
	// CallTimeout bounds each mailbox operation, dial included.
	// Zero selects the default.
	CallTimeout time.Duration
}

// IMAPProvider reads mail over IMAP and dispatches replies over SMTP.
// A fresh connection is made per operation: the agent sweeps on an interval,
// so holding an idle IMAP session open buys nothing.
type IMAPProvider struct {
	cfg        IMAPConfig
	normaliser BodyNormaliser
	timeout    time.Duration
}

// NewIMAPProvider creates an IMAP/SMTP mail provider
func NewIMAPProvider(cfg IMAPConfig, normaliser BodyNormaliser) (*IMAPProvider, error) {
	if cfg.IMAPAddr == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("imap address and credentials are required: %w", domain.ErrInvalidInput)
	}
	if cfg.Address == "" {
		cfg.Address = cfg.Username
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	return &IMAPProvider{cfg: cfg, normaliser: normaliser, timeout: timeout}, nil
}

// Provider returns the provider name
func (p *IMAPProvider) Provider() string {
	return "imap"
}

// callContext bounds one mailbox operation regardless of the caller's context.
func (p *IMAPProvider) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.timeout)
}

// connect dials and authenticates. The context deadline bounds the dial and
// every subsequent command on the returned client.
func (p *IMAPProvider) connect(ctx context.Context) (*client.Client, error) {
	dialer := new(net.Dialer)
	if deadline, ok := ctx.Deadline(); ok {
		dialer.Timeout = time.Until(deadline)
	}

	c, err := client.DialWithDialerTLS(dialer, p.cfg.IMAPAddr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial imap %s: %w", p.cfg.IMAPAddr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		c.Timeout = time.Until(deadline)
	}

	if err := c.Login(p.cfg.Username, p.cfg.Password); err != nil {
		_ = c.Logout()
		return nil, fmt.Errorf("imap login: %w", err)
	}
	return c, nil
}

// FetchUnread retrieves up to limit unseen messages from the inbox.
// The external ID is the message UID within the INBOX mailbox.
func (p *IMAPProvider) FetchUnread(ctx context.Context, limit int) ([]*domain.InboundMessage, error) {
	if limit <= 0 {
		limit = 10
	}

	ctx, cancel := p.callContext(ctx)
	defer cancel()

	c, err := p.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("select inbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("search unseen: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}
	if len(uids) > limit {
		uids = uids[:limit]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	ch := make(chan *imap.Message, limit)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, ch)
	}()

	var messages []*domain.InboundMessage
	for msg := range ch {
		inbound, err := p.toInbound(msg, section)
		if err != nil {
			return nil, err
		}
		messages = append(messages, inbound)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	return messages, nil
}

// MarkRead sets the \Seen flag on a message
func (p *IMAPProvider) MarkRead(ctx context.Context, externalID string) error {
	uid, err := strconv.ParseUint(externalID, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid message id %q: %w", externalID, domain.ErrInvalidInput)
	}

	ctx, cancel := p.callContext(ctx)
	defer cancel()

	c, err := p.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", false); err != nil {
		return fmt.Errorf("select inbox: %w", err)
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uint32(uid))

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.SeenFlag}
	if err := c.UidStore(seqset, item, flags, nil); err != nil {
		return fmt.Errorf("mark %s seen: %w", externalID, err)
	}
	return nil
}

// Send dispatches an outbound message over SMTP
func (p *IMAPProvider) Send(ctx context.Context, msg *driven.OutboundMessage) error {
	if p.cfg.SMTPAddr == "" {
		return fmt.Errorf("smtp address not configured: %w", domain.ErrServiceUnavailable)
	}

	ctx, cancel := p.callContext(ctx)
	defer cancel()
	deadline, _ := ctx.Deadline()

	host, _, err := net.SplitHostPort(p.cfg.SMTPAddr)
	if err != nil {
		host = p.cfg.SMTPAddr
	}

	conn, err := net.DialTimeout("tcp", p.cfg.SMTPAddr, time.Until(deadline))
	if err != nil {
		return fmt.Errorf("dial smtp %s: %w", p.cfg.SMTPAddr, err)
	}

	c, err := smtp.NewClientStartTLS(conn, &tls.Config{ServerName: host})
	if err != nil {
		return fmt.Errorf("smtp starttls: %w", err)
	}
	defer c.Close()
	c.CommandTimeout = time.Until(deadline)
	c.SubmissionTimeout = time.Until(deadline)
	if err := c.Auth(sasl.NewPlainClient("", p.cfg.Username, p.cfg.Password)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}

	raw := buildRFC822(p.cfg.Address, msg)
	if err := c.SendMail(p.cfg.Address, []string{msg.To}, strings.NewReader(raw)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return c.Quit()
}

// SaveDraft appends an outbound message to the Drafts mailbox
func (p *IMAPProvider) SaveDraft(ctx context.Context, msg *driven.OutboundMessage) error {
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	c, err := p.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Logout()

	raw := buildRFC822(p.cfg.Address, msg)
	if err := c.Append("Drafts", []string{imap.DraftFlag}, time.Now(), strings.NewReader(raw)); err != nil {
		return fmt.Errorf("append draft: %w", err)
	}
	return nil
}

// TestConnection verifies mailbox access
func (p *IMAPProvider) TestConnection(ctx context.Context) error {
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	c, err := p.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", true); err != nil {
		return fmt.Errorf("select inbox: %w", err)
	}
	return nil
}

// Close releases provider resources
func (p *IMAPProvider) Close() error {
	return nil
}

// toInbound parses a fetched message into the provider-neutral form
func (p *IMAPProvider) toInbound(msg *imap.Message, section *imap.BodySectionName) (*domain.InboundMessage, error) {
	inbound := &domain.InboundMessage{
		ExternalID: strconv.FormatUint(uint64(msg.Uid), 10),
	}

	if env := msg.Envelope; env != nil {
		inbound.Subject = env.Subject
		inbound.ReceivedAt = env.Date
		inbound.ThreadID = env.MessageId
		if len(env.From) > 0 {
			inbound.Sender = env.From[0].Address()
		}
		if len(env.To) > 0 {
			inbound.Recipient = env.To[0].Address()
		}
	}

	body := msg.GetBody(section)
	if body == nil {
		return inbound, nil
	}

	text, contentType, err := readBody(body)
	if err != nil {
		return nil, fmt.Errorf("parse message %d: %w", msg.Uid, err)
	}
	if p.normaliser != nil {
		text = p.normaliser.Normalise(text, contentType)
	}
	inbound.Body = text

	return inbound, nil
}

// readBody walks the MIME parts and returns the first text part,
// preferring text/plain over text/html.
func readBody(r io.Reader) (string, string, error) {
	mr, err := gomail.CreateReader(r)
	if err != nil {
		return "", "", err
	}

	var plain, html string
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", "", err
		}

		header, ok := part.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, err := header.ContentType()
		if err != nil {
			continue
		}

		data, err := io.ReadAll(part.Body)
		if err != nil {
			return "", "", err
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain") && plain == "":
			plain = string(data)
		case strings.HasPrefix(contentType, "text/html") && html == "":
			html = string(data)
		}
	}

	if plain != "" {
		return plain, "text/plain", nil
	}
	return html, "text/html", nil
}
