package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven/mocks"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/runtime"
)

type processorFixture struct {
	processor     *Processor
	emailStore    *mocks.MockEmailStore
	responseStore *mocks.MockResponseStore
	settingsStore *mocks.MockSettingsStore
	mail          *mocks.MockMailProvider
	llm           *mocks.MockLLMService
	services      *runtime.Services
}

// Test helper to create a processor with a scripted LLM and mock mail
func createTestProcessor(t *testing.T) *processorFixture {
	t.Helper()

	f := &processorFixture{
		emailStore:    mocks.NewMockEmailStore(),
		responseStore: mocks.NewMockResponseStore(),
		settingsStore: mocks.NewMockSettingsStore(),
		mail:          mocks.NewMockMailProvider(),
		llm:           mocks.NewMockLLMService(),
	}

	f.services = runtime.NewServices(domain.NewRuntimeConfig("memory", "mock"))
	f.services.SetLLMService(f.llm)

	f.processor = NewProcessor(ProcessorConfig{
		EmailStore:    f.emailStore,
		ResponseStore: f.responseStore,
		SettingsStore: f.settingsStore,
		Analyzer:      NewAnalyzer(AnalyzerConfig{Services: f.services}),
		Mail:          f.mail,
	})
	return f
}

func (f *processorFixture) storedEmail(t *testing.T, id string) *domain.EmailRecord {
	t.Helper()
	rec, err := f.emailStore.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to load stored email: %v", err)
	}
	return rec
}

// queueAnalysis scripts the three pipeline completions: classification,
// key info extraction and the reply itself.
func (f *processorFixture) queueAnalysis(reply string) {
	f.llm.QueueResponse(`{"priority": "medium", "category": "support", "keywords": ["order"]}`)
	f.llm.QueueResponse(`{"action_required": true, "requires_response": true, "sentiment": "neutral"}`)
	f.llm.QueueResponse(reply)
}

// confidentReply is long enough that its confidence clears the auto-send threshold.
func confidentReply() string {
	return strings.Repeat("Thank you for your message. ", 12)
}

func TestProcessor_Process_AutoSends(t *testing.T) {
	f := createTestProcessor(t)
	ctx := context.Background()
	f.queueAnalysis(confidentReply())

	rec := testEmailRecord("Order status", "Where is my order?")
	if err := f.emailStore.Save(ctx, rec); err != nil {
		t.Fatalf("failed to save record: %v", err)
	}

	result, err := f.processor.Process(ctx, rec)
	if err != nil {
		t.Fatalf("processing failed: %v", err)
	}

	if !result.Responded {
		t.Error("expected auto-send")
	}
	if result.Record.Status != domain.EmailStatusResponded {
		t.Errorf("expected responded status, got %s", result.Record.Status)
	}
	if result.Record.Priority != domain.PriorityMedium || result.Record.Category != "support" {
		t.Errorf("expected classification applied, got %s/%s", result.Record.Priority, result.Record.Category)
	}
	if result.Record.KeyInfo == nil || !result.Record.KeyInfo.ActionRequired {
		t.Error("expected key info applied")
	}
	if !result.Response.Sent {
		t.Error("expected response marked sent")
	}
	if result.Response.ModelUsed != f.llm.Model() {
		t.Errorf("expected response attributed to %q, got %q", f.llm.Model(), result.Response.ModelUsed)
	}

	sent := f.mail.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 outbound message, got %d", len(sent))
	}
	if sent[0].To != rec.Sender {
		t.Errorf("expected reply addressed to sender, got %q", sent[0].To)
	}
	if sent[0].Subject != "Re: Order status" {
		t.Errorf("unexpected reply subject %q", sent[0].Subject)
	}
	if sent[0].InReplyTo != rec.ExternalID {
		t.Errorf("expected threading header, got %q", sent[0].InReplyTo)
	}

	if !f.mail.WasRead(rec.ExternalID) {
		t.Error("expected message marked read at source")
	}

	stored := f.storedEmail(t, rec.ID)
	if stored.Status != domain.EmailStatusResponded {
		t.Errorf("expected stored status responded, got %s", stored.Status)
	}
	if stored.ProcessedAt == nil {
		t.Error("expected processed timestamp")
	}
}

func TestProcessor_Process_LowConfidenceLeavesDraft(t *testing.T) {
	f := createTestProcessor(t)
	ctx := context.Background()
	f.queueAnalysis("Short reply below the threshold.")

	rec := testEmailRecord("Question", "A question.")
	f.emailStore.Save(ctx, rec)

	result, err := f.processor.Process(ctx, rec)
	if err != nil {
		t.Fatalf("processing failed: %v", err)
	}

	if result.Responded {
		t.Error("expected no auto-send below threshold")
	}
	if result.Record.Status != domain.EmailStatusRead {
		t.Errorf("expected read status, got %s", result.Record.Status)
	}
	if len(f.mail.Sent()) != 0 {
		t.Error("expected no outbound mail")
	}

	// The draft stays reviewable
	draft, err := f.responseStore.GetLatestByEmail(ctx, rec.ID)
	if err != nil {
		t.Fatalf("expected stored draft: %v", err)
	}
	if draft.Sent {
		t.Error("expected draft unsent")
	}

	// And is mirrored into the mailbox for review there
	if drafts := f.mail.Drafts(); len(drafts) != 1 {
		t.Errorf("expected 1 mailbox draft, got %d", len(drafts))
	}
}

func TestProcessor_Process_AutoRespondDisabled(t *testing.T) {
	f := createTestProcessor(t)
	ctx := context.Background()

	settings := domain.DefaultSettings()
	settings.AutoRespondEnabled = false
	f.settingsStore.SaveSettings(ctx, settings)

	f.queueAnalysis(confidentReply())

	rec := testEmailRecord("Order status", "Where is my order?")
	f.emailStore.Save(ctx, rec)

	result, err := f.processor.Process(ctx, rec)
	if err != nil {
		t.Fatalf("processing failed: %v", err)
	}

	if result.Responded {
		t.Error("expected no dispatch with auto-respond disabled")
	}
	if result.Record.Status != domain.EmailStatusRead {
		t.Errorf("expected read status, got %s", result.Record.Status)
	}
	if len(f.mail.Sent()) != 0 {
		t.Error("expected no outbound mail")
	}
}

func TestProcessor_Process_NoLLMUsesFallback(t *testing.T) {
	f := createTestProcessor(t)
	f.services.SetLLMService(nil)
	ctx := context.Background()

	rec := testEmailRecord("Hello", "Hi there.")
	f.emailStore.Save(ctx, rec)

	result, err := f.processor.Process(ctx, rec)
	if err != nil {
		t.Fatalf("processing failed: %v", err)
	}

	if result.Response.Type != domain.ResponseTypeFallback {
		t.Errorf("expected fallback response, got %s", result.Response.Type)
	}
	if result.Response.Text != FallbackReplyText {
		t.Errorf("expected canned reply, got %q", result.Response.Text)
	}
	if result.Responded {
		t.Error("fallback replies must never auto-send")
	}
	if result.Record.Status != domain.EmailStatusRead {
		t.Errorf("expected read status, got %s", result.Record.Status)
	}
	if result.Record.Priority != domain.PriorityMedium {
		t.Errorf("expected medium priority fallback, got %s", result.Record.Priority)
	}
}

func TestProcessor_Process_SendFailureLeavesDraft(t *testing.T) {
	f := createTestProcessor(t)
	ctx := context.Background()
	f.mail.SetSendError(errors.New("smtp down"))
	f.queueAnalysis(confidentReply())

	rec := testEmailRecord("Order status", "Where is my order?")
	f.emailStore.Save(ctx, rec)

	result, err := f.processor.Process(ctx, rec)
	if err != nil {
		t.Fatalf("dispatch failure must not fail the record: %v", err)
	}

	if result.Responded {
		t.Error("expected no successful dispatch")
	}
	if result.Record.Status != domain.EmailStatusRead {
		t.Errorf("expected read status after failed dispatch, got %s", result.Record.Status)
	}

	draft, err := f.responseStore.GetLatestByEmail(ctx, rec.ID)
	if err != nil {
		t.Fatalf("expected stored draft: %v", err)
	}
	if draft.Sent {
		t.Error("expected draft unsent after dispatch failure")
	}
}

func TestProcessor_Process_RejectsProcessingRecord(t *testing.T) {
	f := createTestProcessor(t)
	ctx := context.Background()

	rec := testEmailRecord("Hello", "Hi.")
	if err := rec.ApplyStatus(domain.EmailStatusProcessing); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	f.emailStore.Save(ctx, rec)

	_, err := f.processor.Process(ctx, rec)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestProcessor_Process_ResponseStoreFailureFailsRecord(t *testing.T) {
	f := createTestProcessor(t)
	ctx := context.Background()
	f.responseStore.SetFailNext(errors.New("disk full"))

	rec := testEmailRecord("Hello", "Hi.")
	f.emailStore.Save(ctx, rec)

	_, err := f.processor.Process(ctx, rec)
	if err == nil {
		t.Fatal("expected error")
	}

	stored := f.storedEmail(t, rec.ID)
	if stored.Status != domain.EmailStatusFailed {
		t.Errorf("expected failed status, got %s", stored.Status)
	}
	if stored.LastError == "" {
		t.Error("expected diagnostic retained")
	}
}

func TestProcessor_Send_ReviewedDraft(t *testing.T) {
	f := createTestProcessor(t)
	ctx := context.Background()
	f.queueAnalysis("Short reply below the threshold.")

	rec := testEmailRecord("Question", "A question.")
	f.emailStore.Save(ctx, rec)

	result, err := f.processor.Process(ctx, rec)
	if err != nil {
		t.Fatalf("processing failed: %v", err)
	}
	if result.Record.Status != domain.EmailStatusRead {
		t.Fatalf("expected a read record with a draft, got %s", result.Record.Status)
	}

	if err := f.processor.Send(ctx, result.Response); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if len(f.mail.Sent()) != 1 {
		t.Fatalf("expected 1 outbound message, got %d", len(f.mail.Sent()))
	}
	if !result.Response.Sent {
		t.Error("expected response marked sent")
	}

	stored := f.storedEmail(t, rec.ID)
	if stored.Status != domain.EmailStatusResponded {
		t.Errorf("expected record moved to responded, got %s", stored.Status)
	}
}

func TestProcessor_Send_AlreadySentIsNoop(t *testing.T) {
	f := createTestProcessor(t)
	ctx := context.Background()

	response := domain.NewResponseRecord("email-1", &domain.GeneratedReply{
		ResponseText: "Done.",
		ResponseType: domain.ResponseTypeGenerated,
		Confidence:   0.9,
	})
	response.MarkSent()
	sentAt := *response.SentAt
	time.Sleep(time.Millisecond)

	if err := f.processor.Send(ctx, response); err != nil {
		t.Fatalf("resend must be a no-op: %v", err)
	}
	if len(f.mail.Sent()) != 0 {
		t.Error("expected no outbound mail for an already-sent response")
	}
	if !response.SentAt.Equal(sentAt) {
		t.Error("expected sent timestamp unchanged")
	}
}

func TestProcessor_Send_NoMailProvider(t *testing.T) {
	f := createTestProcessor(t)
	ctx := context.Background()

	rec := testEmailRecord("Hello", "Hi.")
	f.emailStore.Save(ctx, rec)

	response := domain.NewResponseRecord(rec.ID, &domain.GeneratedReply{
		ResponseText: "Reply.",
		ResponseType: domain.ResponseTypeGenerated,
		Confidence:   0.9,
	})
	f.responseStore.Save(ctx, response)

	p := NewProcessor(ProcessorConfig{
		EmailStore:    f.emailStore,
		ResponseStore: f.responseStore,
		SettingsStore: f.settingsStore,
		Analyzer:      NewAnalyzer(AnalyzerConfig{Services: f.services}),
	})

	err := p.Send(ctx, response)
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestReplySubject(t *testing.T) {
	tests := []struct {
		subject string
		want    string
	}{
		{"Order status", "Re: Order status"},
		{"Re: Order status", "Re: Order status"},
		{"RE: Order status", "RE: Order status"},
		{"  spaced  ", "Re: spaced"},
		{"", "Re: your email"},
	}

	for _, tt := range tests {
		if got := replySubject(tt.subject); got != tt.want {
			t.Errorf("replySubject(%q) = %q, want %q", tt.subject, got, tt.want)
		}
	}
}
