package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/repository"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/worker"
	apperrors "github.com/DerekWilliams9191/AI-Facilities-Feedback/pkg/util/errorutil"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Field bounds match the columns in migrations/001_init.sql.
const (
	MaxDescriptionLength = 1000
	MaxLocationLength    = 255
	MaxEmailLength       = 255
)

// EnqueueRecorder counts reports the queue refused.
type EnqueueRecorder interface {
	RecordEnqueueFailure()
}

// SubmissionInput is the raw submit payload.
type SubmissionInput struct {
	Description string
	Location    string
	UserEmail   *string
}

// SubmissionService validates reports and hands them to the triage queue.
type SubmissionService struct {
	requests  repository.TriageRequestRepository
	queue     worker.Queue
	recorder  EnqueueRecorder
	logger    *zap.Logger
	minLength int
	maxLength int
}

// SubmissionDependencies bundles collaborators for the submission service.
type SubmissionDependencies struct {
	RequestRepo          repository.TriageRequestRepository
	Queue                worker.Queue
	Recorder             EnqueueRecorder
	Logger               *zap.Logger
	MinDescriptionLength int
	MaxDescriptionLength int
}

// NewSubmissionService constructs the service.
func NewSubmissionService(deps SubmissionDependencies) *SubmissionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxLength := deps.MaxDescriptionLength
	if maxLength <= 0 || maxLength > MaxDescriptionLength {
		maxLength = MaxDescriptionLength
	}
	return &SubmissionService{
		requests:  deps.RequestRepo,
		queue:     deps.Queue,
		recorder:  deps.Recorder,
		logger:    logger,
		minLength: deps.MinDescriptionLength,
		maxLength: maxLength,
	}
}

// Validate trims the input and reports every violation at once.
func (s *SubmissionService) Validate(input SubmissionInput) (domain.Report, error) {
	var problems []string

	description := strings.TrimSpace(input.Description)
	length := utf8.RuneCountInString(description)
	switch {
	case description == "":
		problems = append(problems, "Description is required and must be a non-empty string")
	case length > s.maxLength:
		problems = append(problems, fmt.Sprintf("Description must be at most %d characters", s.maxLength))
	case s.minLength > 0 && length < s.minLength:
		problems = append(problems, fmt.Sprintf("Description must be at least %d characters", s.minLength))
	}

	location := strings.TrimSpace(input.Location)
	switch {
	case location == "":
		problems = append(problems, "Location is required and must be a non-empty string")
	case utf8.RuneCountInString(location) > MaxLocationLength:
		problems = append(problems, fmt.Sprintf("Location must be at most %d characters", MaxLocationLength))
	}

	var email *string
	if input.UserEmail != nil {
		trimmed := strings.TrimSpace(*input.UserEmail)
		if trimmed != "" {
			switch {
			case utf8.RuneCountInString(trimmed) > MaxEmailLength:
				problems = append(problems, fmt.Sprintf("Email must be at most %d characters", MaxEmailLength))
			case !emailPattern.MatchString(trimmed):
				problems = append(problems, "Email must be a valid email address")
			}
			email = &trimmed
		}
	}

	if len(problems) > 0 {
		return domain.Report{}, apperrors.NewValidationError("Validation failed", map[string]any{"errors": problems})
	}
	return domain.Report{Description: description, Location: location, UserEmail: email}, nil
}

// Submit validates, persists and enqueues a report. The returned request is
// in the received state; triage happens in the background.
func (s *SubmissionService) Submit(ctx context.Context, input SubmissionInput) (*domain.TriageRequest, error) {
	report, err := s.Validate(input)
	if err != nil {
		return nil, err
	}

	req := &domain.TriageRequest{
		ID:          generateRequestID(),
		Description: report.Description,
		Location:    report.Location,
		UserEmail:   report.UserEmail,
		State:       domain.RequestStateReceived,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("persist triage request: %w", err))
	}

	task := worker.Task{RequestID: req.ID, Report: report, EnqueuedAt: time.Now().UTC()}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		if s.recorder != nil {
			s.recorder.RecordEnqueueFailure()
		}
		s.logger.Warn("enqueue triage task failed", zap.String("request_id", req.ID), zap.Error(err))
		s.reject(ctx, req, err)
		if errors.Is(err, worker.ErrQueueFull) {
			return nil, apperrors.NewUnavailable("triage queue is full, try again later", err)
		}
		return nil, apperrors.NewUnavailable("triage queue unavailable", err)
	}

	s.logger.Info("feedback received", zap.String("request_id", req.ID), zap.String("location", req.Location))
	return req, nil
}

// GetRequest returns the tracked state of a submitted report.
func (s *SubmissionService) GetRequest(ctx context.Context, id string) (*domain.TriageRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewNotFound("request", map[string]any{"id": id})
		}
		return nil, err
	}
	return req, nil
}

// Resume re-enqueues tracked requests left in any of states, oldest first,
// and returns how many were handed back to the queue. It runs at startup
// before workers consume, to recover reports lost with a previous process.
func (s *SubmissionService) Resume(ctx context.Context, states ...domain.RequestState) (int, error) {
	pending, err := s.requests.ListByStates(ctx, states...)
	if err != nil {
		return 0, fmt.Errorf("list pending triage requests: %w", err)
	}
	resumed := 0
	for _, req := range pending {
		task := worker.Task{
			RequestID:  req.ID,
			Report:     domain.Report{Description: req.Description, Location: req.Location, UserEmail: req.UserEmail},
			EnqueuedAt: time.Now().UTC(),
		}
		if err := s.queue.Enqueue(ctx, task); err != nil {
			return resumed, fmt.Errorf("re-enqueue triage request %s: %w", req.ID, err)
		}
		resumed++
	}
	if resumed > 0 {
		s.logger.Info("resumed pending triage requests", zap.Int("count", resumed))
	}
	return resumed, nil
}

func (s *SubmissionService) reject(ctx context.Context, req *domain.TriageRequest, cause error) {
	req.State = domain.RequestStateRejected
	reason := cause.Error()
	req.Reason = &reason
	if err := s.requests.Update(ctx, req); err != nil {
		s.logger.Warn("mark triage request rejected failed", zap.String("request_id", req.ID), zap.Error(err))
	}
}

func generateRequestID() string {
	return "req_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
