package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatuses lists every accepted status value.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid reports whether s is one of the four ticket states.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// TicketPriority enumerates maintenance urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the persisted record for a triaged report. Regular tickets,
// manual-review records and duplicate records share this shape.
type Ticket struct {
	ID           string
	Description  string
	Location     string
	Category     *string
	UserEmail    *string
	Status       TicketStatus
	Priority     TicketPriority
	ManualReview bool
	ReviewReason *string
	DuplicateOf  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CategoryValue returns the category or an empty string.
func (t *Ticket) CategoryValue() string {
	if t == nil || t.Category == nil {
		return ""
	}
	return *t.Category
}
