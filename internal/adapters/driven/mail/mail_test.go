package mail

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

func TestMockProvider_FetchUnread(t *testing.T) {
	p := NewMockProvider()
	p.Seed(&domain.InboundMessage{ExternalID: "msg-1", Subject: "First"})
	p.Seed(&domain.InboundMessage{ExternalID: "msg-2", Subject: "Second"})
	p.Seed(&domain.InboundMessage{ExternalID: "msg-3", Subject: "Third"})

	msgs, err := p.FetchUnread(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].ExternalID != "msg-1" {
		t.Errorf("expected msg-1 first, got %s", msgs[0].ExternalID)
	}
}

func TestMockProvider_MarkRead(t *testing.T) {
	p := NewMockProvider()
	p.Seed(&domain.InboundMessage{ExternalID: "msg-1"})
	p.Seed(&domain.InboundMessage{ExternalID: "msg-2"})

	if err := p.MarkRead(context.Background(), "msg-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msgs, err := p.FetchUnread(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ExternalID != "msg-2" {
		t.Errorf("expected only msg-2 unread, got %+v", msgs)
	}
}

func TestMockProvider_MarkRead_Unknown(t *testing.T) {
	p := NewMockProvider()

	err := p.MarkRead(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMockProvider_Send(t *testing.T) {
	p := NewMockProvider()

	err := p.Send(context.Background(), &driven.OutboundMessage{
		To:      "customer@example.com",
		Subject: "Re: Order status",
		Body:    "Your order shipped yesterday.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sent := p.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 sent message, got %d", len(sent))
	}
	if sent[0].To != "customer@example.com" {
		t.Errorf("unexpected recipient %q", sent[0].To)
	}
}

func TestMockProvider_SaveDraft(t *testing.T) {
	p := NewMockProvider()

	err := p.SaveDraft(context.Background(), &driven.OutboundMessage{
		To:      "customer@example.com",
		Subject: "Re: Pricing",
		Body:    "Draft pending review.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if drafts := p.Drafts(); len(drafts) != 1 || drafts[0].Subject != "Re: Pricing" {
		t.Errorf("unexpected drafts %+v", drafts)
	}
	if len(p.Sent()) != 0 {
		t.Error("draft must not be recorded as sent")
	}
}

func TestMockProvider_FailSends(t *testing.T) {
	p := NewMockProvider()
	sendErr := errors.New("smtp down")
	p.FailSends(sendErr)

	err := p.Send(context.Background(), &driven.OutboundMessage{To: "a@b.c"})
	if !errors.Is(err, sendErr) {
		t.Errorf("expected send error, got %v", err)
	}
	if len(p.Sent()) != 0 {
		t.Error("failed send must not be recorded")
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Provider() != "mock" {
		t.Errorf("expected mock provider, got %s", p.Provider())
	}
}

func TestNewProvider_DefaultsToMock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Provider() != "mock" {
		t.Errorf("expected mock provider, got %s", p.Provider())
	}
}

func TestNewProvider_Invalid(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Provider: "pigeon"}, nil)
	if !errors.Is(err, domain.ErrInvalidProvider) {
		t.Errorf("expected ErrInvalidProvider, got %v", err)
	}
}

func TestNewGmailProvider_RequiresCredentials(t *testing.T) {
	_, err := NewGmailProvider(context.Background(), GmailConfig{}, nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewIMAPProvider_RequiresCredentials(t *testing.T) {
	_, err := NewIMAPProvider(IMAPConfig{IMAPAddr: "imap.example.com:993"}, nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNewIMAPProvider_DefaultsAddress(t *testing.T) {
	p, err := NewIMAPProvider(IMAPConfig{
		IMAPAddr: "imap.example.com:993",
		Username: "agent@example.com",
		Password: "secret",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.cfg.Address != "agent@example.com" {
		t.Errorf("expected address to default to username, got %q", p.cfg.Address)
	}
}

func TestNewGmailProvider_CallTimeout(t *testing.T) {
	cfg := GmailConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RefreshToken: "refresh-token",
		Address:      "agent@example.com",
	}

	p, err := NewGmailProvider(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.timeout != defaultCallTimeout {
		t.Errorf("expected default timeout %v, got %v", defaultCallTimeout, p.timeout)
	}

	cfg.CallTimeout = 5 * time.Second
	p, err = NewGmailProvider(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.timeout != 5*time.Second {
		t.Errorf("expected configured timeout, got %v", p.timeout)
	}

	ctx, cancel := p.callContext(context.Background())
	defer cancel()
	if _, ok := ctx.Deadline(); !ok {
		t.Error("expected a deadline on the call context")
	}
}

func TestNewIMAPProvider_CallTimeout(t *testing.T) {
	base := IMAPConfig{
		IMAPAddr: "imap.example.com:993",
		Username: "agent@example.com",
		Password: "secret",
	}

	p, err := NewIMAPProvider(base, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.timeout != defaultCallTimeout {
		t.Errorf("expected default timeout %v, got %v", defaultCallTimeout, p.timeout)
	}

	base.CallTimeout = 5 * time.Second
	p, err = NewIMAPProvider(base, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.timeout != 5*time.Second {
		t.Errorf("expected configured timeout, got %v", p.timeout)
	}
}

func TestIMAPProvider_CallContextSetsDeadline(t *testing.T) {
	p, err := NewIMAPProvider(IMAPConfig{
		IMAPAddr:    "imap.example.com:993",
		Username:    "agent@example.com",
		Password:    "secret",
		CallTimeout: 10 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	before := time.Now()
	ctx, cancel := p.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline on the call context")
	}
	if deadline.After(before.Add(11 * time.Second)) {
		t.Errorf("deadline %v exceeds the configured timeout", deadline)
	}
}

func TestBuildRFC822(t *testing.T) {
	raw := buildRFC822("agent@example.com", &driven.OutboundMessage{
		To:        "customer@example.com",
		Subject:   "Re: Invoice",
		Body:      "Attached below.",
		InReplyTo: "<abc123@mail.example.com>",
	})

	for _, want := range []string{
		"From: agent@example.com\r\n",
		"To: customer@example.com\r\n",
		"Subject: Re: Invoice\r\n",
		"In-Reply-To: <abc123@mail.example.com>\r\n",
		"References: <abc123@mail.example.com>\r\n",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("missing header %q in:\n%s", want, raw)
		}
	}
	if !strings.HasSuffix(raw, "\r\n\r\nAttached below.") {
		t.Errorf("body not separated from headers:\n%s", raw)
	}
}

func TestReadBody_PrefersPlainText(t *testing.T) {
	raw := "MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=\"sep\"\r\n" +
		"\r\n" +
		"--sep\r\n" +
		"Content-Type: text/html; charset=\"utf-8\"\r\n" +
		"\r\n" +
		"<p>Hello there</p>\r\n" +
		"--sep\r\n" +
		"Content-Type: text/plain; charset=\"utf-8\"\r\n" +
		"\r\n" +
		"Hello there\r\n" +
		"--sep--\r\n"

	text, contentType, err := readBody(strings.NewReader(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if contentType != "text/plain" {
		t.Errorf("expected text/plain, got %s", contentType)
	}
	if !strings.Contains(text, "Hello there") {
		t.Errorf("unexpected body %q", text)
	}
}

func TestMockProvider_FetchUnread_Empty(t *testing.T) {
	p := NewMockProvider()

	msgs, err := p.FetchUnread(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected empty inbox, got %d messages", len(msgs))
	}
}

func TestMockProvider_SeededTimestamps(t *testing.T) {
	p := NewMockProvider()
	received := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	p.Seed(&domain.InboundMessage{ExternalID: "msg-1", ReceivedAt: received})

	msgs, _ := p.FetchUnread(context.Background(), 1)
	if len(msgs) != 1 || !msgs[0].ReceivedAt.Equal(received) {
		t.Errorf("expected seeded timestamp preserved, got %+v", msgs)
	}
}
