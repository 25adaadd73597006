package domain

import "time"

// EmailStatus represents the processing state of an email record
type EmailStatus string

const (
	// EmailStatusUnread is the initial state of a newly created record
	EmailStatusUnread EmailStatus = "unread"
	// EmailStatusProcessing means the pipeline has picked the record up
	EmailStatusProcessing EmailStatus = "processing"
	// EmailStatusRead means analysis completed but no response was sent
	EmailStatusRead EmailStatus = "read"
	// EmailStatusResponded means a response was generated and dispatched
	EmailStatusResponded EmailStatus = "responded"
	// EmailStatusFailed means processing hit an unrecoverable error
	EmailStatusFailed EmailStatus = "failed"
)

// IsValid returns true if this is a known status
func (s EmailStatus) IsValid() bool {
	switch s {
	case EmailStatusUnread, EmailStatusProcessing, EmailStatusRead,
		EmailStatusResponded, EmailStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the status ends a processing cycle
func (s EmailStatus) IsTerminal() bool {
	switch s {
	case EmailStatusRead, EmailStatusResponded, EmailStatusFailed:
		return true
	default:
		return false
	}
}

// Priority represents the urgency tier of an email
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// IsValid returns true if this is a known priority
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// Rank returns the priority as an ordered integer (higher = more urgent)
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// InboundMessage is a raw message as delivered by a mail source
type InboundMessage struct {
	ExternalID string    `json:"external_id"`
	ThreadID   string    `json:"thread_id"`
	Subject    string    `json:"subject"`
	Sender     string    `json:"sender"`
	Recipient  string    `json:"recipient"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
	Labels     []string  `json:"labels"`
}

// KeyInfo holds structured facts extracted from an email body
type KeyInfo struct {
	ActionRequired   bool     `json:"action_required"`
	Deadline         string   `json:"deadline,omitempty"`
	MeetingRequest   bool     `json:"meeting_request"`
	KeyTopics        []string `json:"key_topics,omitempty"`
	Sentiment        string   `json:"sentiment,omitempty"`
	RequiresResponse bool     `json:"requires_response"`
}

// EmailRecord is the persistent record of one inbound message.
// ExternalID is the dedup key: at most one record exists per source message.
// Status changes only through ApplyStatus so illegal transitions are rejected.
type EmailRecord struct {
	ID          string      `json:"id"`
	ExternalID  string      `json:"external_id"`
	ThreadID    string      `json:"thread_id"`
	Subject     string      `json:"subject"`
	Sender      string      `json:"sender"`
	Recipient   string      `json:"recipient"`
	Body        string      `json:"body"`
	Labels      []string    `json:"labels"`
	Status      EmailStatus `json:"status"`
	Priority    Priority    `json:"priority"`
	Category    string      `json:"category,omitempty"`
	Keywords    []string    `json:"keywords,omitempty"`
	KeyInfo     *KeyInfo    `json:"key_info,omitempty"`
	LastError   string      `json:"last_error,omitempty"`
	ReceivedAt  time.Time   `json:"received_at"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	ProcessedAt *time.Time  `json:"processed_at,omitempty"`
}

// NewEmailRecord creates a record from an inbound message.
// The record starts in the unread state with medium priority.
func NewEmailRecord(msg *InboundMessage) *EmailRecord {
	now := time.Now()
	return &EmailRecord{
		ID:         GenerateID(),
		ExternalID: msg.ExternalID,
		ThreadID:   msg.ThreadID,
		Subject:    msg.Subject,
		Sender:     msg.Sender,
		Recipient:  msg.Recipient,
		Body:       msg.Body,
		Labels:     msg.Labels,
		Status:     EmailStatusUnread,
		Priority:   PriorityMedium,
		ReceivedAt: msg.ReceivedAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// CanTransitionTo reports whether the status machine allows moving to next
func (e *EmailRecord) CanTransitionTo(next EmailStatus) bool {
	switch e.Status {
	case EmailStatusUnread:
		return next == EmailStatusProcessing
	case EmailStatusProcessing:
		return next == EmailStatusRead || next == EmailStatusResponded || next == EmailStatusFailed
	default:
		// Terminal states are only left via an explicit re-trigger,
		// which resets the record to processing.
		return next == EmailStatusProcessing
	}
}

// ApplyStatus moves the record to the next status, stamping timestamps.
// Returns ErrInvalidTransition if the state machine forbids the move.
func (e *EmailRecord) ApplyStatus(next EmailStatus) error {
	if !e.CanTransitionTo(next) {
		return ErrInvalidTransition
	}

	now := time.Now()
	e.Status = next
	e.UpdatedAt = now

	if next.IsTerminal() {
		e.ProcessedAt = &now
	}
	if next != EmailStatusFailed {
		e.LastError = ""
	}
	return nil
}

// MarkFailed transitions the record to failed, retaining the error as diagnostic
func (e *EmailRecord) MarkFailed(err error) {
	_ = e.ApplyStatus(EmailStatusFailed)
	if err != nil {
		e.LastError = err.Error()
	}
}

// EmailStats aggregates record counts for the dashboard
type EmailStats struct {
	Total          int                 `json:"total"`
	ByStatus       map[EmailStatus]int `json:"by_status"`
	ByPriority     map[Priority]int    `json:"by_priority"`
	ResponsesTotal int                 `json:"responses_total"`
	ResponsesSent  int                 `json:"responses_sent"`
	AvgConfidence  float64             `json:"avg_confidence"`
}
