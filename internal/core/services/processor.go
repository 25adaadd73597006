package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driving"
)

// Processor runs the analysis pipeline for a single email record:
//  1. Move the record to processing
//  2. Classify priority, category and keywords
//  3. Extract key information
//  4. Search the knowledge base for context
//  5. Generate and record a response
//  6. Auto-send when confidence clears the threshold, otherwise leave
//     the draft for review
//  7. Mark the message read at the source
//
// Each stage degrades rather than aborts: a missing LLM yields the fallback
// reply, a failed knowledge search yields an uncontextualised one. Only
// store and state machine failures fail the record.
type Processor struct {
	emailStore    driven.EmailStore
	responseStore driven.ResponseStore
	settingsStore driven.SettingsStore
	knowledge     driving.KnowledgeService
	analyzer      *Analyzer
	mail          driven.MailProvider
	logger        *slog.Logger
}

// ProcessorConfig holds dependencies for the Processor.
type ProcessorConfig struct {
	EmailStore    driven.EmailStore
	ResponseStore driven.ResponseStore
	SettingsStore driven.SettingsStore
	Knowledge     driving.KnowledgeService
	Analyzer      *Analyzer
	Mail          driven.MailProvider
	Logger        *slog.Logger
}

// NewProcessor creates a new Processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Processor{
		emailStore:    cfg.EmailStore,
		responseStore: cfg.ResponseStore,
		settingsStore: cfg.SettingsStore,
		knowledge:     cfg.Knowledge,
		analyzer:      cfg.Analyzer,
		mail:          cfg.Mail,
		logger:        logger,
	}
}

// ProcessResult reports the outcome of processing one record.
type ProcessResult struct {
	Record    *domain.EmailRecord
	Response  *domain.ResponseRecord
	Responded bool
}

// ProcessByID loads a record and runs the pipeline on it.
func (p *Processor) ProcessByID(ctx context.Context, emailID string) (*ProcessResult, error) {
	rec, err := p.emailStore.Get(ctx, emailID)
	if err != nil {
		return nil, fmt.Errorf("failed to load email: %w", err)
	}
	return p.Process(ctx, rec)
}

// Process runs the pipeline on a loaded record. On failure the record is
// moved to failed with the error retained as diagnostic.
func (p *Processor) Process(ctx context.Context, rec *domain.EmailRecord) (*ProcessResult, error) {
	if err := rec.ApplyStatus(domain.EmailStatusProcessing); err != nil {
		return nil, fmt.Errorf("email %s in status %s: %w", rec.ID, rec.Status, err)
	}
	if err := p.emailStore.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save email: %w", err)
	}

	result, err := p.analyze(ctx, rec)
	if err != nil {
		rec.MarkFailed(err)
		if saveErr := p.emailStore.Save(ctx, rec); saveErr != nil {
			p.logger.Error("failed to record email failure", "email_id", rec.ID, "error", saveErr)
		}
		return nil, err
	}
	return result, nil
}

// analyze is the pipeline body; the caller owns failure bookkeeping.
func (p *Processor) analyze(ctx context.Context, rec *domain.EmailRecord) (*ProcessResult, error) {
	settings := p.currentSettings(ctx)

	classification := p.analyzer.Classify(ctx, rec)
	rec.Priority = classification.Priority
	rec.Category = classification.Category
	rec.Keywords = classification.Keywords
	rec.KeyInfo = p.analyzer.ExtractKeyInfo(ctx, rec)

	kbContext := p.searchContext(ctx, rec)
	reply := p.analyzer.GenerateReply(ctx, rec, kbContext, settings.ModelTemperature)

	response := domain.NewResponseRecord(rec.ID, reply)
	if err := p.responseStore.Save(ctx, response); err != nil {
		return nil, fmt.Errorf("failed to save response: %w", err)
	}

	responded := false
	if settings.AutoRespondEnabled && response.AutoSendable() {
		if err := p.send(ctx, rec, response); err != nil {
			// Dispatch failure leaves a reviewable draft, not a failed record
			p.logger.Warn("auto-send failed, leaving draft for review",
				"email_id", rec.ID, "response_id", response.ID, "error", err)
		} else {
			responded = true
		}
	}
	if !responded && response.Type == domain.ResponseTypeGenerated {
		p.saveDraftAtSource(ctx, rec, response)
	}

	next := domain.EmailStatusRead
	if responded {
		next = domain.EmailStatusResponded
	}
	if err := rec.ApplyStatus(next); err != nil {
		return nil, err
	}
	if err := p.emailStore.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save email: %w", err)
	}

	p.markReadAtSource(ctx, rec)

	p.logger.Info("email processed",
		"email_id", rec.ID,
		"priority", rec.Priority,
		"status", rec.Status,
		"response_type", response.Type,
		"confidence", response.Confidence,
	)

	return &ProcessResult{Record: rec, Response: response, Responded: responded}, nil
}

// Send dispatches a stored response and moves its email to responded.
// Sending an already-sent response is a no-op.
func (p *Processor) Send(ctx context.Context, response *domain.ResponseRecord) error {
	if response.Sent {
		return nil
	}

	rec, err := p.emailStore.Get(ctx, response.EmailID)
	if err != nil {
		return fmt.Errorf("failed to load email: %w", err)
	}

	if err := p.send(ctx, rec, response); err != nil {
		return err
	}

	// A reviewed draft is dispatched from the read state; re-walk the
	// state machine so the transition stays legal.
	if rec.Status != domain.EmailStatusResponded {
		if rec.Status.IsTerminal() {
			if err := rec.ApplyStatus(domain.EmailStatusProcessing); err != nil {
				return err
			}
		}
		if err := rec.ApplyStatus(domain.EmailStatusResponded); err != nil {
			return err
		}
		if err := p.emailStore.Save(ctx, rec); err != nil {
			return fmt.Errorf("failed to save email: %w", err)
		}
	}
	return nil
}

// send dispatches the response text through the mail provider and marks the
// response record sent.
func (p *Processor) send(ctx context.Context, rec *domain.EmailRecord, response *domain.ResponseRecord) error {
	if p.mail == nil {
		return fmt.Errorf("mail provider not configured: %w", domain.ErrServiceUnavailable)
	}

	msg := &driven.OutboundMessage{
		To:        rec.Sender,
		Subject:   replySubject(rec.Subject),
		Body:      response.Text,
		InReplyTo: rec.ExternalID,
		ThreadID:  rec.ThreadID,
	}
	if err := p.mail.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	if err := p.responseStore.MarkSent(ctx, response.ID); err != nil {
		p.logger.Warn("response sent but not marked", "response_id", response.ID, "error", err)
	}
	response.MarkSent()

	p.logger.Info("response sent", "email_id", rec.ID, "response_id", response.ID, "to", rec.Sender)
	return nil
}

// searchContext fetches knowledge base context for reply generation.
// Degrades to no context when search is unavailable.
func (p *Processor) searchContext(ctx context.Context, rec *domain.EmailRecord) string {
	if p.knowledge == nil {
		return ""
	}

	query := rec.Subject
	if query == "" {
		query = truncate(rec.Body, 200)
	}

	kbContext, err := p.knowledge.SearchContext(ctx, query, 3)
	if err != nil {
		p.logger.Debug("knowledge search unavailable", "email_id", rec.ID, "error", err)
		return ""
	}
	return kbContext
}

// saveDraftAtSource mirrors a held response into the mailbox as a draft so a
// reviewer can finish it in their mail client. Best effort: the response
// store already holds the authoritative copy.
func (p *Processor) saveDraftAtSource(ctx context.Context, rec *domain.EmailRecord, response *domain.ResponseRecord) {
	if p.mail == nil {
		return
	}

	msg := &driven.OutboundMessage{
		To:        rec.Sender,
		Subject:   replySubject(rec.Subject),
		Body:      response.Text,
		InReplyTo: rec.ExternalID,
		ThreadID:  rec.ThreadID,
	}
	if err := p.mail.SaveDraft(ctx, msg); err != nil {
		p.logger.Warn("failed to save draft at source",
			"email_id", rec.ID, "response_id", response.ID, "error", err)
	}
}

// markReadAtSource marks the message read in the mailbox. Failures are logged
// only; the record already carries the authoritative state.
func (p *Processor) markReadAtSource(ctx context.Context, rec *domain.EmailRecord) {
	if p.mail == nil {
		return
	}
	if err := p.mail.MarkRead(ctx, rec.ExternalID); err != nil {
		p.logger.Warn("failed to mark message read at source",
			"email_id", rec.ID, "external_id", rec.ExternalID, "error", err)
	}
}

// currentSettings loads agent settings, falling back to defaults.
func (p *Processor) currentSettings(ctx context.Context) *domain.Settings {
	if p.settingsStore == nil {
		return domain.DefaultSettings()
	}
	settings, err := p.settingsStore.GetSettings(ctx)
	if err != nil {
		return domain.DefaultSettings()
	}
	return settings
}

// replySubject prefixes "Re:" unless the subject already carries one.
func replySubject(subject string) string {
	trimmed := strings.TrimSpace(subject)
	if trimmed == "" {
		return "Re: your email"
	}
	if strings.HasPrefix(strings.ToLower(trimmed), "re:") {
		return trimmed
	}
	return "Re: " + trimmed
}
