package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/runtime"
)

// FallbackReplyText is the canned reply used when generation fails.
const FallbackReplyText = "Thank you for your email. I'll review it and get back to you soon."

// fallbackReplyConfidence keeps canned replies well below the auto-send threshold.
const fallbackReplyConfidence = 0.3

// llmParseAttempts is how many times a malformed LLM response is re-requested
// before the zero-value fallback applies.
const llmParseAttempts = 3

// analysisBodyLimit caps how much of a long email body goes into a prompt.
const analysisBodyLimit = 2000

// Analyzer runs LLM-backed email analysis: priority classification, key
// information extraction and reply drafting. Every method degrades to a safe
// default instead of failing when the model is unavailable or returns garbage.
type Analyzer struct {
	services *runtime.Services
	logger   *slog.Logger
}

// AnalyzerConfig holds dependencies for the Analyzer.
type AnalyzerConfig struct {
	Services *runtime.Services
	Logger   *slog.Logger
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Analyzer{
		services: cfg.Services,
		logger:   logger,
	}
}

// Classification is the result of priority analysis for one email.
type Classification struct {
	Priority domain.Priority `json:"priority"`
	Category string          `json:"category"`
	Keywords []string        `json:"keywords"`
}

// Classify determines the priority, category and keywords of an email.
// Defaults to medium priority when the model is unavailable or unparseable.
func (a *Analyzer) Classify(ctx context.Context, rec *domain.EmailRecord) *Classification {
	fallback := &Classification{Priority: domain.PriorityMedium}

	llm := a.services.LLMService()
	if llm == nil {
		return fallback
	}

	system := "You are an email triage assistant. Classify the email and respond with a JSON object: " +
		`{"priority": "low"|"medium"|"high"|"urgent", "category": string, "keywords": [string]}. ` +
		"Respond with JSON only."
	user := fmt.Sprintf("Subject: %s\nFrom: %s\n\n%s", rec.Subject, rec.Sender, truncate(rec.Body, analysisBodyLimit))

	var result Classification
	if err := a.completeJSON(ctx, system, user, &result); err != nil {
		a.logger.Warn("priority classification failed, defaulting to medium",
			"email_id", rec.ID, "error", err)
		return fallback
	}

	result.Priority = domain.Priority(strings.ToLower(string(result.Priority)))
	if !result.Priority.IsValid() {
		result.Priority = domain.PriorityMedium
	}
	return &result
}

// ExtractKeyInfo pulls structured facts out of an email body.
// Returns zero values when extraction fails.
func (a *Analyzer) ExtractKeyInfo(ctx context.Context, rec *domain.EmailRecord) *domain.KeyInfo {
	llm := a.services.LLMService()
	if llm == nil {
		return &domain.KeyInfo{}
	}

	system := "You extract structured facts from emails. Respond with a JSON object: " +
		`{"action_required": bool, "deadline": string, "meeting_request": bool, ` +
		`"key_topics": [string], "sentiment": "positive"|"neutral"|"negative", "requires_response": bool}. ` +
		"Use empty values for anything not present. Respond with JSON only."
	user := fmt.Sprintf("Subject: %s\n\n%s", rec.Subject, truncate(rec.Body, analysisBodyLimit))

	var info domain.KeyInfo
	if err := a.completeJSON(ctx, system, user, &info); err != nil {
		a.logger.Warn("key info extraction failed, using empty result",
			"email_id", rec.ID, "error", err)
		return &domain.KeyInfo{}
	}
	return &info
}

// GenerateReply drafts a reply to an email, optionally grounded on knowledge
// base context. Generation failures produce the canned fallback reply with a
// confidence low enough to never auto-send.
func (a *Analyzer) GenerateReply(ctx context.Context, rec *domain.EmailRecord, kbContext string, temperature float64) *domain.GeneratedReply {
	llm := a.services.LLMService()
	if llm == nil {
		return fallbackReply()
	}

	system := "You are a professional email assistant. Write a concise, polite reply to the email. " +
		"Use the provided background information when it is relevant. " +
		"Reply with the response text only, no subject line and no commentary."

	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\nFrom: %s\n\n%s\n", rec.Subject, rec.Sender, truncate(rec.Body, analysisBodyLimit))
	if kbContext != "" {
		fmt.Fprintf(&b, "\nBackground information:\n%s\n", kbContext)
	}

	text, err := llm.Complete(ctx, system, b.String(), driven.CompletionOptions{
		Temperature: temperature,
	})
	if err != nil {
		a.logger.Warn("reply generation failed, using fallback",
			"email_id", rec.ID, "error", err)
		return fallbackReply()
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fallbackReply()
	}

	return &domain.GeneratedReply{
		ResponseText: text,
		ResponseType: domain.ResponseTypeGenerated,
		Confidence:   replyConfidence(text, rec.Body),
		ModelUsed:    llm.Model(),
	}
}

// completeJSON runs a JSON-mode completion and decodes the response into v,
// re-requesting on malformed output up to llmParseAttempts times.
func (a *Analyzer) completeJSON(ctx context.Context, system, user string, v any) error {
	llm := a.services.LLMService()
	if llm == nil {
		return domain.ErrServiceUnavailable
	}

	var lastErr error
	for attempt := 1; attempt <= llmParseAttempts; attempt++ {
		raw, err := llm.Complete(ctx, system, user, driven.CompletionOptions{
			Temperature: 0.0,
			JSONMode:    true,
		})
		if err != nil {
			return err
		}

		if err := json.Unmarshal([]byte(extractJSON(raw)), v); err != nil {
			lastErr = fmt.Errorf("attempt %d: malformed JSON response: %w", attempt, err)
			continue
		}
		return nil
	}
	return lastErr
}

// extractJSON strips markdown code fences and surrounding prose from a model
// response, keeping the outermost JSON object.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// replyConfidence scores a generated reply. Very short replies and replies to
// long, complex emails score lower; substantial replies score higher.
func replyConfidence(reply, emailBody string) float64 {
	confidence := 0.7

	if len(reply) < 50 {
		confidence -= 0.2
	}
	if len(reply) > 300 {
		confidence += 0.1
	}
	if len(emailBody) > 1000 {
		confidence -= 0.1
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

func fallbackReply() *domain.GeneratedReply {
	return &domain.GeneratedReply{
		ResponseText: FallbackReplyText,
		ResponseType: domain.ResponseTypeFallback,
		Confidence:   fallbackReplyConfidence,
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
