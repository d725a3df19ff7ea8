package events

import (
	"time"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated          EventType = "ticket_created"
	EventTicketFlaggedForReview EventType = "ticket_flagged_for_review"
	EventTicketMarkedDuplicate  EventType = "ticket_marked_duplicate"
	EventTicketStatusChanged    EventType = "ticket_status_changed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Location  string                `json:"location"`
	Category  string                `json:"category"`
	Priority  domain.TicketPriority `json:"priority"`
	UserEmail *string               `json:"user_email,omitempty"`
}

// TicketFlaggedPayload payload.
type TicketFlaggedPayload struct {
	Location  string  `json:"location"`
	Reason    string  `json:"reason"`
	UserEmail *string `json:"user_email,omitempty"`
}

// TicketDuplicatePayload payload.
type TicketDuplicatePayload struct {
	Location          string   `json:"location"`
	Category          string   `json:"category"`
	OriginalTicketIDs []string `json:"original_ticket_ids"`
	UserEmail         *string  `json:"user_email,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	UserEmail *string             `json:"user_email,omitempty"`
}
