package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
)

// TriageRequestRepository persists submitted reports and their outcome.
type TriageRequestRepository interface {
	Create(ctx context.Context, req *domain.TriageRequest) error
	Update(ctx context.Context, req *domain.TriageRequest) error
	GetByID(ctx context.Context, id string) (*domain.TriageRequest, error)
	// ListByStates returns requests in any of states, oldest first.
	ListByStates(ctx context.Context, states ...domain.RequestState) ([]domain.TriageRequest, error)
}

type triageRequestRepository struct {
	pool *pgxpool.Pool
}

// NewTriageRequestRepository builds the Postgres-backed repository.
func NewTriageRequestRepository(pool *pgxpool.Pool) TriageRequestRepository {
	return &triageRequestRepository{pool: pool}
}

func (r *triageRequestRepository) Create(ctx context.Context, req *domain.TriageRequest) error {
	const query = `
        INSERT INTO triage_requests (id, description, location, user_email, state)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		req.ID,
		req.Description,
		req.Location,
		req.UserEmail,
		req.State,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
}

func (r *triageRequestRepository) Update(ctx context.Context, req *domain.TriageRequest) error {
	const query = `
        UPDATE triage_requests SET state=$1, outcome=$2, ticket_id=$3, original_ticket_ids=$4, reason=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	var outcome *string
	if req.Outcome != nil {
		value := string(*req.Outcome)
		outcome = &value
	}
	originals := req.OriginalTicketIDs
	if originals == nil {
		originals = []string{}
	}
	err := r.pool.QueryRow(ctx, query,
		req.State,
		outcome,
		req.TicketID,
		originals,
		req.Reason,
		req.ID,
	).Scan(&req.UpdatedAt)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("triage request %s: %w", req.ID, ErrNotFound)
	}
	return err
}

const selectTriageRequest = `
        SELECT id, description, location, user_email, state, outcome, ticket_id, original_ticket_ids, reason, created_at, updated_at
        FROM triage_requests`

func (r *triageRequestRepository) GetByID(ctx context.Context, id string) (*domain.TriageRequest, error) {
	req, err := scanTriageRequest(r.pool.QueryRow(ctx, selectTriageRequest+` WHERE id=$1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("triage request %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return req, nil
}

func (r *triageRequestRepository) ListByStates(ctx context.Context, states ...domain.RequestState) ([]domain.TriageRequest, error) {
	values := make([]string, 0, len(states))
	for _, state := range states {
		values = append(values, string(state))
	}
	rows, err := r.pool.Query(ctx, selectTriageRequest+` WHERE state = ANY($1) ORDER BY created_at ASC, id ASC`, values)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TriageRequest
	for rows.Next() {
		req, err := scanTriageRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	return out, rows.Err()
}

func scanTriageRequest(row pgx.Row) (*domain.TriageRequest, error) {
	var (
		req     domain.TriageRequest
		outcome *string
	)
	err := row.Scan(
		&req.ID,
		&req.Description,
		&req.Location,
		&req.UserEmail,
		&req.State,
		&outcome,
		&req.TicketID,
		&req.OriginalTicketIDs,
		&req.Reason,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if outcome != nil {
		value := domain.TriageOutcome(*outcome)
		req.Outcome = &value
	}
	return &req, nil
}
