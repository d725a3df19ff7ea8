package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
)

// MemoryTicketRepository keeps tickets in process memory. It is used when no
// database is configured and in tests.
type MemoryTicketRepository struct {
	mu      sync.RWMutex
	order   []string
	tickets map[string]domain.Ticket
	now     func() time.Time
}

// NewMemoryTicketRepository builds an empty in-memory ticket store.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{
		tickets: make(map[string]domain.Ticket),
		now:     time.Now,
	}
}

func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tickets[ticket.ID]; exists {
		return fmt.Errorf("ticket %s already exists", ticket.ID)
	}
	now := r.now().UTC()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.tickets[ticket.ID] = cloneTicket(*ticket)
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, fmt.Errorf("ticket %s: %w", id, ErrNotFound)
	}
	out := cloneTicket(ticket)
	return &out, nil
}

func (r *MemoryTicketRepository) ListOpenByLocation(_ context.Context, location string) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := []domain.Ticket{}
	for _, id := range r.order {
		ticket := r.tickets[id]
		if ticket.Location != location || !isOpen(ticket.Status) {
			continue
		}
		result = append(result, cloneTicket(ticket))
	}
	return result, nil
}

func (r *MemoryTicketRepository) ListWithFilter(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	result := []domain.Ticket{}
	for i := len(r.order) - 1; i >= 0; i-- {
		ticket := r.tickets[r.order[i]]
		if matchesFilter(ticket, filter) {
			result = append(result, cloneTicket(ticket))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		if offset >= len(result) {
			return []domain.Ticket{}, nil
		}
		end := offset + filter.Limit
		if end > len(result) {
			end = len(result)
		}
		result = result[offset:end]
	}
	return result, nil
}

func (r *MemoryTicketRepository) UpdateStatus(_ context.Context, id string, status domain.TicketStatus) (*domain.Ticket, domain.TicketStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, "", fmt.Errorf("ticket %s: %w", id, ErrNotFound)
	}
	previous := ticket.Status
	ticket.Status = status
	ticket.UpdatedAt = r.now().UTC()
	r.tickets[id] = ticket
	out := cloneTicket(ticket)
	return &out, previous, nil
}

func isOpen(status domain.TicketStatus) bool {
	for _, s := range OpenStatuses {
		if s == status {
			return true
		}
	}
	return false
}

func matchesFilter(ticket domain.Ticket, filter TicketFilter) bool {
	if filter.Location != nil && ticket.Location != *filter.Location {
		return false
	}
	if filter.Category != nil && ticket.CategoryValue() != *filter.Category {
		return false
	}
	if filter.ManualReview != nil && ticket.ManualReview != *filter.ManualReview {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
		return false
	}
	return true
}

func containsStatus(list []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, p domain.TicketPriority) bool {
	for _, candidate := range list {
		if candidate == p {
			return true
		}
	}
	return false
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	t.Category = cloneString(t.Category)
	t.UserEmail = cloneString(t.UserEmail)
	t.ReviewReason = cloneString(t.ReviewReason)
	t.DuplicateOf = cloneString(t.DuplicateOf)
	return t
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// MemoryTicketHistoryRepository keeps audit entries in memory.
type MemoryTicketHistoryRepository struct {
	mu      sync.RWMutex
	entries map[string][]domain.TicketHistory
}

// NewMemoryTicketHistoryRepository builds an empty history store.
func NewMemoryTicketHistoryRepository() *MemoryTicketHistoryRepository {
	return &MemoryTicketHistoryRepository{entries: make(map[string][]domain.TicketHistory)}
}

func (r *MemoryTicketHistoryRepository) Create(_ context.Context, history *domain.TicketHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	history.CreatedAt = time.Now().UTC()
	r.entries[history.TicketID] = append(r.entries[history.TicketID], *history)
	return nil
}

func (r *MemoryTicketHistoryRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.TicketHistory, len(r.entries[ticketID]))
	copy(out, r.entries[ticketID])
	return out, nil
}

// MemoryTriageRequestRepository keeps tracked requests in memory.
type MemoryTriageRequestRepository struct {
	mu       sync.RWMutex
	requests map[string]domain.TriageRequest
}

// NewMemoryTriageRequestRepository builds an empty request store.
func NewMemoryTriageRequestRepository() *MemoryTriageRequestRepository {
	return &MemoryTriageRequestRepository{requests: make(map[string]domain.TriageRequest)}
}

func (r *MemoryTriageRequestRepository) Create(_ context.Context, req *domain.TriageRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.requests[req.ID]; exists {
		return fmt.Errorf("triage request %s already exists", req.ID)
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	r.requests[req.ID] = cloneRequest(*req)
	return nil
}

func (r *MemoryTriageRequestRepository) Update(_ context.Context, req *domain.TriageRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.requests[req.ID]
	if !ok {
		return fmt.Errorf("triage request %s: %w", req.ID, ErrNotFound)
	}
	req.CreatedAt = existing.CreatedAt
	req.UpdatedAt = time.Now().UTC()
	r.requests[req.ID] = cloneRequest(*req)
	return nil
}

func (r *MemoryTriageRequestRepository) GetByID(_ context.Context, id string) (*domain.TriageRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, fmt.Errorf("triage request %s: %w", id, ErrNotFound)
	}
	out := cloneRequest(req)
	return &out, nil
}

func (r *MemoryTriageRequestRepository) ListByStates(_ context.Context, states ...domain.RequestState) ([]domain.TriageRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.TriageRequest, 0)
	for _, req := range r.requests {
		for _, state := range states {
			if req.State == state {
				out = append(out, cloneRequest(req))
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func cloneRequest(req domain.TriageRequest) domain.TriageRequest {
	req.UserEmail = cloneString(req.UserEmail)
	req.TicketID = cloneString(req.TicketID)
	req.Reason = cloneString(req.Reason)
	if req.Outcome != nil {
		outcome := *req.Outcome
		req.Outcome = &outcome
	}
	if req.OriginalTicketIDs != nil {
		req.OriginalTicketIDs = append([]string(nil), req.OriginalTicketIDs...)
	}
	return req
}
