package service

import (
	"context"
	"errors"
	"sync"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/events"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/repository"
)

var errStoreDown = errors.New("store down")

// flakyTicketRepo fails selected calls of an in-memory store.
type flakyTicketRepo struct {
	*repository.MemoryTicketRepository
	failCreate func(*domain.Ticket) bool
	listErr    error
	creates    int
}

func newFlakyTicketRepo() *flakyTicketRepo {
	return &flakyTicketRepo{MemoryTicketRepository: repository.NewMemoryTicketRepository()}
}

func (r *flakyTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.creates++
	if r.failCreate != nil && r.failCreate(ticket) {
		return errStoreDown
	}
	return r.MemoryTicketRepository.Create(ctx, ticket)
}

func (r *flakyTicketRepo) ListOpenByLocation(ctx context.Context, location string) ([]domain.Ticket, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.MemoryTicketRepository.ListOpenByLocation(ctx, location)
}

func (r *flakyTicketRepo) all() []domain.Ticket {
	tickets, _ := r.ListWithFilter(context.Background(), repository.TicketFilter{})
	return tickets
}

type classifierFunc func(ctx context.Context, description, location string) domain.ClassificationResult

func (f classifierFunc) Classify(ctx context.Context, description, location string) domain.ClassificationResult {
	return f(ctx, description, location)
}

func categorized(category string) classifierFunc {
	return func(context.Context, string, string) domain.ClassificationResult {
		return domain.ClassificationResult{Success: true, Category: strPtr(category)}
	}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *eventRecorder) subscribeAll(d events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventTicketCreated,
		events.EventTicketFlaggedForReview,
		events.EventTicketMarkedDuplicate,
		events.EventTicketStatusChanged,
	} {
		d.Subscribe(eventType, func(_ context.Context, e events.Event) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, e)
			return nil
		})
	}
}

func (r *eventRecorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type outcomeCounter struct {
	mu     sync.Mutex
	counts map[domain.TriageOutcome]int
}

func (c *outcomeCounter) RecordOutcome(outcome domain.TriageOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = map[domain.TriageOutcome]int{}
	}
	c.counts[outcome]++
}

type ticketFixture struct {
	repo     *flakyTicketRepo
	history  *repository.MemoryTicketHistoryRepository
	recorder *eventRecorder
	service  *TicketService
}

func newTicketFixture() *ticketFixture {
	f := &ticketFixture{
		repo:     newFlakyTicketRepo(),
		history:  repository.NewMemoryTicketHistoryRepository(),
		recorder: &eventRecorder{},
	}
	dispatcher := events.NewInMemoryDispatcher()
	f.recorder.subscribeAll(dispatcher)
	f.service = NewTicketService(TicketDependencies{
		TicketRepo:  f.repo,
		HistoryRepo: f.history,
		Dispatcher:  dispatcher,
	})
	return f
}
