package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/events"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/repository"
	apperrors "github.com/DerekWilliams9191/AI-Facilities-Feedback/pkg/util/errorutil"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Location     *string
	Category     *string
	ManualReview *bool
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	Limit        int
	Offset       int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// CreateTicket persists an open ticket for a classified report.
func (s *TicketService) CreateTicket(ctx context.Context, report domain.Report, category string) (*domain.Ticket, error) {
	ticket := newTicketFromReport(report)
	ticket.Category = &category
	ticket.Priority = PriorityFor(category)

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.recordCreated(ctx, ticket)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			Location:  ticket.Location,
			Category:  category,
			Priority:  ticket.Priority,
			UserEmail: ticket.UserEmail,
		},
	})
	return ticket, nil
}

// FlagForManualReview persists an uncategorized record awaiting a human.
func (s *TicketService) FlagForManualReview(ctx context.Context, report domain.Report, reason string) (*domain.Ticket, error) {
	ticket := newTicketFromReport(report)
	ticket.ManualReview = true
	ticket.ReviewReason = &reason

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.recordCreated(ctx, ticket)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketFlaggedForReview,
		TicketID: ticket.ID,
		Payload: events.TicketFlaggedPayload{
			Location:  ticket.Location,
			Reason:    reason,
			UserEmail: ticket.UserEmail,
		},
	})
	return ticket, nil
}

// MarkAsDuplicate persists a closed record pointing at the first original.
func (s *TicketService) MarkAsDuplicate(ctx context.Context, report domain.Report, category string, originals []domain.Ticket) (*domain.Ticket, error) {
	if len(originals) == 0 {
		return nil, apperrors.NewValidationError("duplicate requires at least one original ticket", nil)
	}
	ticket := newTicketFromReport(report)
	ticket.Category = &category
	ticket.Priority = PriorityFor(category)
	ticket.Status = domain.TicketStatusClosed
	originalID := originals[0].ID
	ticket.DuplicateOf = &originalID

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.recordCreated(ctx, ticket)
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketMarkedDuplicate,
		TicketID: ticket.ID,
		Payload: events.TicketDuplicatePayload{
			Location:          ticket.Location,
			Category:          category,
			OriginalTicketIDs: ticketIDs(originals),
			UserEmail:         ticket.UserEmail,
		},
	})
	return ticket, nil
}

// ListOpenAtLocation returns open and in-progress tickets at exactly location,
// oldest first.
func (s *TicketService) ListOpenAtLocation(ctx context.Context, location string) ([]domain.Ticket, error) {
	return s.tickets.ListOpenByLocation(ctx, location)
}

// ListTickets returns tickets newest first.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, invalidStatusError(status)
		}
	}
	for _, priority := range filter.Priorities {
		if !priority.Valid() {
			return nil, apperrors.NewValidationError("invalid priority", map[string]any{
				"priority": priority,
				"allowed":  []domain.TicketPriority{domain.TicketPriorityHigh, domain.TicketPriorityMedium, domain.TicketPriorityLow},
			})
		}
	}
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		Location:     filter.Location,
		Category:     filter.Category,
		ManualReview: filter.ManualReview,
		Statuses:     filter.Statuses,
		Priorities:   filter.Priorities,
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	})
}

// GetTicket fetches a ticket by id.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	return ticket, nil
}

// UpdateStatus moves a ticket to any of the four states. The value is
// validated before the ticket is looked up.
func (s *TicketService) UpdateStatus(ctx context.Context, id string, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if !newStatus.Valid() {
		return nil, invalidStatusError(newStatus)
	}
	ticket, oldStatus, err := s.tickets.UpdateStatus(ctx, id, newStatus)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	if err := s.recordStatusChange(ctx, ticket.ID, oldStatus, newStatus); err != nil {
		s.logger.Warn("record status history failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			UserEmail: ticket.UserEmail,
		},
	})
	return ticket, nil
}

// ListHistory returns the audit trail of a ticket.
func (s *TicketService) ListHistory(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	if _, err := s.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.history.ListByTicket(ctx, ticketID)
}

func newTicketFromReport(report domain.Report) *domain.Ticket {
	ticket := &domain.Ticket{
		ID:          generateTicketID(),
		Description: strings.TrimSpace(report.Description),
		Location:    strings.TrimSpace(report.Location),
		Status:      domain.TicketStatusOpen,
		Priority:    domain.TicketPriorityLow,
	}
	if report.UserEmail != nil {
		email := strings.TrimSpace(*report.UserEmail)
		if email != "" {
			ticket.UserEmail = &email
		}
	}
	return ticket
}

func generateTicketID() string {
	return uuid.NewString()
}

func ticketIDs(tickets []domain.Ticket) []string {
	ids := make([]string, 0, len(tickets))
	for _, t := range tickets {
		ids = append(ids, t.ID)
	}
	return ids
}

func invalidStatusError(status domain.TicketStatus) error {
	return apperrors.NewValidationError("invalid status", map[string]any{
		"status":  status,
		"allowed": domain.TicketStatuses,
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.String("ticket_id", event.TicketID), zap.Error(err))
	}
}

// recordCreated never fails the write it follows.
func (s *TicketService) recordCreated(ctx context.Context, ticket *domain.Ticket) {
	if s.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		ID:         uuid.NewString(),
		TicketID:   ticket.ID,
		ChangeType: domain.ChangeTypeCreated,
		NewValue: map[string]any{
			"status":        ticket.Status,
			"priority":      ticket.Priority,
			"category":      ticket.Category,
			"manual_review": ticket.ManualReview,
			"review_reason": ticket.ReviewReason,
			"duplicate_of":  ticket.DuplicateOf,
		},
	}
	if err := s.history.Create(ctx, entry); err != nil {
		s.logger.Warn("record creation history failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
}

func (s *TicketService) recordStatusChange(ctx context.Context, ticketID string, oldStatus, newStatus domain.TicketStatus) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.TicketHistory{
		ID:         uuid.NewString(),
		TicketID:   ticketID,
		ChangeType: domain.ChangeTypeStatus,
		OldValue: map[string]any{
			"status": oldStatus,
		},
		NewValue: map[string]any{
			"status": newStatus,
		},
	}
	return s.history.Create(ctx, entry)
}
