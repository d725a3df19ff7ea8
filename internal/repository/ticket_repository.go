package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
	apperrors "github.com/DerekWilliams9191/AI-Facilities-Feedback/pkg/util/errorutil"
)

// ErrNotFound is returned when a keyed lookup misses.
var ErrNotFound = apperrors.ErrNotFound

// OpenStatuses are the states a ticket can be in while its issue is unresolved.
var OpenStatuses = []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusInProgress}

// TicketFilter captures listing parameters.
type TicketFilter struct {
	Location     *string
	Category     *string
	ManualReview *bool
	Statuses     []domain.TicketStatus
	Priorities   []domain.TicketPriority
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence. Each call is atomic for
// the single record it touches.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListOpenByLocation(ctx context.Context, location string) ([]domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, domain.TicketStatus, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres-backed repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, description, location, category, user_email, status, priority,
               manual_review, review_reason, duplicate_of, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, description, location, category, user_email, status, priority, manual_review, review_reason, duplicate_of)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.Description,
		ticket.Location,
		ticket.Category,
		ticket.UserEmail,
		ticket.Status,
		ticket.Priority,
		ticket.ManualReview,
		ticket.ReviewReason,
		ticket.DuplicateOf,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("ticket %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) ListOpenByLocation(ctx context.Context, location string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
             FROM tickets WHERE location=$1 AND status = ANY($2) ORDER BY created_at ASC, id ASC`
	statuses := make([]string, len(OpenStatuses))
	for i, s := range OpenStatuses {
		statuses[i] = string(s)
	}
	rows, err := r.pool.Query(ctx, query, location, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Location != nil {
		args = append(args, *filter.Location)
		clauses = append(clauses, fmt.Sprintf("location=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.ManualReview != nil {
		args = append(args, *filter.ManualReview)
		clauses = append(clauses, fmt.Sprintf("manual_review=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC, id DESC`, base, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) (*domain.Ticket, domain.TicketStatus, error) {
	query := `
        WITH prev AS (SELECT id, status FROM tickets WHERE id=$2 FOR UPDATE)
        UPDATE tickets t SET status=$1, updated_at=NOW()
        FROM prev WHERE t.id = prev.id
        RETURNING t.id, t.description, t.location, t.category, t.user_email, t.status, t.priority,
                  t.manual_review, t.review_reason, t.duplicate_of, t.created_at, t.updated_at, prev.status`
	var (
		ticket   domain.Ticket
		previous domain.TicketStatus
	)
	err := r.pool.QueryRow(ctx, query, status, id).Scan(
		&ticket.ID,
		&ticket.Description,
		&ticket.Location,
		&ticket.Category,
		&ticket.UserEmail,
		&ticket.Status,
		&ticket.Priority,
		&ticket.ManualReview,
		&ticket.ReviewReason,
		&ticket.DuplicateOf,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&previous,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", fmt.Errorf("ticket %s: %w", id, ErrNotFound)
		}
		return nil, "", err
	}
	return &ticket, previous, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Description,
		&ticket.Location,
		&ticket.Category,
		&ticket.UserEmail,
		&ticket.Status,
		&ticket.Priority,
		&ticket.ManualReview,
		&ticket.ReviewReason,
		&ticket.DuplicateOf,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
