package dto

import (
	"time"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
)

// TicketSummary response.
type TicketSummary struct {
	ID           string                `json:"id"`
	Description  string                `json:"description"`
	Location     string                `json:"location"`
	Category     *string               `json:"category"`
	UserEmail    *string               `json:"user_email"`
	Status       domain.TicketStatus   `json:"status"`
	Priority     domain.TicketPriority `json:"priority"`
	ManualReview bool                  `json:"manual_review"`
	ReviewReason *string               `json:"review_reason,omitempty"`
	DuplicateOf  *string               `json:"duplicate_of,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	History []TicketHistoryResponse `json:"history"`
}

// TicketHistoryResponse describes an audit entry.
type TicketHistoryResponse struct {
	ID         string                  `json:"id"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	OldValue   map[string]any          `json:"old_value,omitempty"`
	NewValue   map[string]any          `json:"new_value,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// TicketListResponse wraps a page of tickets.
type TicketListResponse struct {
	Data     []TicketSummary `json:"data"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}
