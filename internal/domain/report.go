package domain

import "time"

// Report is an inbound maintenance request after validation.
type Report struct {
	Description string  `json:"description"`
	Location    string  `json:"location"`
	UserEmail   *string `json:"user_email,omitempty"`
}

// ClassificationResult is the transient verdict of the classifier.
type ClassificationResult struct {
	Success           bool
	Category          *string
	NeedsManualReview bool
	Reason            string
	Error             string
}

// DuplicateCheckResult lists the open tickets a report restates.
type DuplicateCheckResult struct {
	IsDuplicate      bool
	DuplicateTickets []Ticket
}

// TriageOutcome names the terminal state of one report.
type TriageOutcome string

const (
	OutcomeTicketCreated TriageOutcome = "ticket_created"
	OutcomeManualReview  TriageOutcome = "manual_review"
	OutcomeDuplicate     TriageOutcome = "duplicate"
)

// RequestState tracks a submitted report through the triage queue.
type RequestState string

const (
	RequestStateReceived   RequestState = "received"
	RequestStateProcessing RequestState = "processing"
	RequestStateCompleted  RequestState = "completed"
	RequestStateRejected   RequestState = "rejected"
	RequestStateFailed     RequestState = "failed"
)

// Settled reports whether triage has nothing left to do for the request.
func (s RequestState) Settled() bool {
	return s == RequestStateCompleted || s == RequestStateRejected || s == RequestStateFailed
}

// TriageRequest joins a submitter's requestId to the record triage produced.
type TriageRequest struct {
	ID                string
	Description       string
	Location          string
	UserEmail         *string
	State             RequestState
	Outcome           *TriageOutcome
	TicketID          *string
	OriginalTicketIDs []string
	Reason            *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
