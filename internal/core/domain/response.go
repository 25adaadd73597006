package domain

import "time"

// ResponseType classifies how a generated response was produced
type ResponseType string

const (
	// ResponseTypeGenerated means the language model produced the text
	ResponseTypeGenerated ResponseType = "generated"
	// ResponseTypeFallback means generation failed and the canned reply was used
	ResponseTypeFallback ResponseType = "fallback"
)

// AutoSendThreshold is the minimum confidence for dispatching a response
// without human review.
const AutoSendThreshold = 0.8

// GeneratedReply is the raw output of response generation before it is recorded
type GeneratedReply struct {
	ResponseText     string       `json:"response_text"`
	ResponseType     ResponseType `json:"response_type"`
	Confidence       float64      `json:"confidence"`
	ModelUsed        string       `json:"model_used,omitempty"`
	SuggestedActions []string     `json:"suggested_actions,omitempty"`
}

// ResponseRecord is the persistent record of one generated response.
// Sent is monotonic: once true it never reverts, and SentAt is set exactly
// when Sent first becomes true.
type ResponseRecord struct {
	ID         string       `json:"id"`
	EmailID    string       `json:"email_id"`
	Text       string       `json:"text"`
	Type       ResponseType `json:"type"`
	Confidence float64      `json:"confidence"`
	// ModelUsed names the model that produced the text; empty for the
	// canned fallback.
	ModelUsed string     `json:"model_used,omitempty"`
	Sent      bool       `json:"sent"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewResponseRecord creates an unsent response record for an email
func NewResponseRecord(emailID string, reply *GeneratedReply) *ResponseRecord {
	return &ResponseRecord{
		ID:         GenerateID(),
		EmailID:    emailID,
		Text:       reply.ResponseText,
		Type:       reply.ResponseType,
		Confidence: reply.Confidence,
		ModelUsed:  reply.ModelUsed,
		CreatedAt:  time.Now(),
	}
}

// AutoSendable reports whether the response clears the auto-send threshold
func (r *ResponseRecord) AutoSendable() bool {
	return r.Confidence >= AutoSendThreshold
}

// MarkSent records dispatch. Idempotent: a second call leaves SentAt unchanged.
func (r *ResponseRecord) MarkSent() {
	if r.Sent {
		return
	}
	now := time.Now()
	r.Sent = true
	r.SentAt = &now
}
