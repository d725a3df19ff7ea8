package dto

import (
	"time"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
)

// SubmitFeedbackRequest payload.
type SubmitFeedbackRequest struct {
	Description string  `json:"description"`
	Location    string  `json:"location"`
	UserEmail   *string `json:"userEmail"`
}

// SubmitFeedbackResponse acknowledges an accepted report.
type SubmitFeedbackResponse struct {
	Success   bool   `json:"success"`
	Status    string `json:"status"`
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

// TriageRequestResponse reports where a submitted report ended up.
type TriageRequestResponse struct {
	ID                string                `json:"id"`
	State             domain.RequestState   `json:"state"`
	Outcome           *domain.TriageOutcome `json:"outcome"`
	TicketID          *string               `json:"ticket_id"`
	OriginalTicketIDs []string              `json:"original_ticket_ids"`
	Reason            *string               `json:"reason"`
	Location          string                `json:"location"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}
