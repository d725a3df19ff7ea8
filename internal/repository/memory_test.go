package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
)

func strPtr(s string) *string { return &s }

func newTicket(id, location string, status domain.TicketStatus) *domain.Ticket {
	return &domain.Ticket{
		ID:          id,
		Description: "Leaking faucet in room 204",
		Location:    location,
		Category:    strPtr("PLUMBING REPAIR"),
		Status:      status,
		Priority:    domain.TicketPriorityHigh,
	}
}

func TestMemoryTicketRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository()

	ticket := newTicket("t-1", "Holland Hall", domain.TicketStatusOpen)
	require.NoError(t, repo.Create(ctx, ticket))
	assert.False(t, ticket.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "Holland Hall", got.Location)
	assert.Equal(t, "PLUMBING REPAIR", got.CategoryValue())

	*got.Category = "mutated"
	again, err := repo.GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "PLUMBING REPAIR", again.CategoryValue(), "stored record must not alias caller copies")
}

func TestMemoryTicketRepository_CreateRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository()
	require.NoError(t, repo.Create(ctx, newTicket("t-1", "Holland Hall", domain.TicketStatusOpen)))

	assert.Error(t, repo.Create(ctx, newTicket("t-1", "Holland Hall", domain.TicketStatusOpen)))
}

func TestMemoryTicketRepository_GetMissing(t *testing.T) {
	_, err := NewMemoryTicketRepository().GetByID(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryTicketRepository_ListOpenByLocation(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository()
	require.NoError(t, repo.Create(ctx, newTicket("a", "Holland Hall", domain.TicketStatusOpen)))
	require.NoError(t, repo.Create(ctx, newTicket("b", "Todd Hall", domain.TicketStatusOpen)))
	require.NoError(t, repo.Create(ctx, newTicket("c", "Holland Hall", domain.TicketStatusClosed)))
	require.NoError(t, repo.Create(ctx, newTicket("d", "Holland Hall", domain.TicketStatusInProgress)))
	require.NoError(t, repo.Create(ctx, newTicket("e", "holland hall", domain.TicketStatusOpen)))
	require.NoError(t, repo.Create(ctx, newTicket("f", "Holland Hall", domain.TicketStatusResolved)))

	open, err := repo.ListOpenByLocation(ctx, "Holland Hall")
	require.NoError(t, err)

	ids := make([]string, 0, len(open))
	for _, tk := range open {
		ids = append(ids, tk.ID)
	}
	assert.Equal(t, []string{"a", "d"}, ids)
}

func TestMemoryTicketRepository_ListWithFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository()
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newTicket(fmt.Sprintf("h-%d", i), "Holland Hall", domain.TicketStatusOpen)))
	}
	review := newTicket("r-1", "Todd Hall", domain.TicketStatusOpen)
	review.Category = nil
	review.ManualReview = true
	review.Priority = domain.TicketPriorityLow
	require.NoError(t, repo.Create(ctx, review))

	all, err := repo.ListWithFilter(ctx, TicketFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 6)
	assert.Equal(t, "r-1", all[0].ID, "newest first")

	holland, err := repo.ListWithFilter(ctx, TicketFilter{Location: strPtr("Holland Hall")})
	require.NoError(t, err)
	assert.Len(t, holland, 5)

	manual := true
	reviews, err := repo.ListWithFilter(ctx, TicketFilter{ManualReview: &manual})
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "r-1", reviews[0].ID)

	page, err := repo.ListWithFilter(ctx, TicketFilter{Location: strPtr("Holland Hall"), Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	empty, err := repo.ListWithFilter(ctx, TicketFilter{Limit: 2, Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, empty)

	high, err := repo.ListWithFilter(ctx, TicketFilter{Priorities: []domain.TicketPriority{domain.TicketPriorityHigh}, Category: strPtr("PLUMBING REPAIR")})
	require.NoError(t, err)
	assert.Len(t, high, 5)
}

func TestMemoryTicketRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository()
	require.NoError(t, repo.Create(ctx, newTicket("t-1", "Holland Hall", domain.TicketStatusOpen)))

	updated, previous, err := repo.UpdateStatus(ctx, "t-1", domain.TicketStatusResolved)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, previous)
	assert.Equal(t, domain.TicketStatusResolved, updated.Status)
	assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

	_, _, err = repo.UpdateStatus(ctx, "missing", domain.TicketStatusClosed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryTicketRepository_ConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketRepository()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = repo.Create(ctx, newTicket(fmt.Sprintf("c-%d", i), "Holland Hall", domain.TicketStatusOpen))
		}(i)
	}
	wg.Wait()

	open, err := repo.ListOpenByLocation(ctx, "Holland Hall")
	require.NoError(t, err)
	assert.Len(t, open, 50)
}

func TestMemoryTicketHistoryRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTicketHistoryRepository()
	require.NoError(t, repo.Create(ctx, &domain.TicketHistory{ID: "h1", TicketID: "t-1", ChangeType: domain.ChangeTypeCreated}))
	require.NoError(t, repo.Create(ctx, &domain.TicketHistory{ID: "h2", TicketID: "t-1", ChangeType: domain.ChangeTypeStatus}))

	entries, err := repo.ListByTicket(ctx, "t-1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ChangeTypeCreated, entries[0].ChangeType)

	none, err := repo.ListByTicket(ctx, "t-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryTriageRequestRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTriageRequestRepository()

	req := &domain.TriageRequest{ID: "req_1", Description: "Broken door", Location: "Todd Hall", State: domain.RequestStateReceived}
	require.NoError(t, repo.Create(ctx, req))
	assert.Error(t, repo.Create(ctx, req))

	outcome := domain.OutcomeDuplicate
	req.State = domain.RequestStateCompleted
	req.Outcome = &outcome
	req.OriginalTicketIDs = []string{"t-1", "t-2"}
	require.NoError(t, repo.Update(ctx, req))

	got, err := repo.GetByID(ctx, "req_1")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStateCompleted, got.State)
	require.NotNil(t, got.Outcome)
	assert.Equal(t, domain.OutcomeDuplicate, *got.Outcome)
	assert.Equal(t, []string{"t-1", "t-2"}, got.OriginalTicketIDs)

	_, err = repo.GetByID(ctx, "req_missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &domain.TriageRequest{ID: "req_missing"}), ErrNotFound)
}

func TestMemoryTriageRequestRepository_ListByStates(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTriageRequestRepository()
	for id, state := range map[string]domain.RequestState{
		"req_a": domain.RequestStateReceived,
		"req_b": domain.RequestStateProcessing,
		"req_c": domain.RequestStateCompleted,
		"req_d": domain.RequestStateReceived,
	} {
		require.NoError(t, repo.Create(ctx, &domain.TriageRequest{ID: id, Description: "Broken door", Location: "Todd Hall", State: state}))
	}

	pending, err := repo.ListByStates(ctx, domain.RequestStateReceived, domain.RequestStateProcessing)
	require.NoError(t, err)
	ids := make([]string, 0, len(pending))
	for _, req := range pending {
		ids = append(ids, req.ID)
	}
	assert.ElementsMatch(t, []string{"req_a", "req_b", "req_d"}, ids)

	none, err := repo.ListByStates(ctx, domain.RequestStateFailed)
	require.NoError(t, err)
	assert.Empty(t, none)
}
