package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/classifier"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/repository"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/worker"
)

// Manual review reasons assigned by the pipeline itself.
const (
	ReasonClassificationFailed = "Classification service failed"
	ReasonTicketCreationFailed = "Ticket creation failed"
	processingErrorPrefix      = "Processing error: "
)

// Classifier is the categorization step of the pipeline.
type Classifier interface {
	Classify(ctx context.Context, description, location string) domain.ClassificationResult
}

// OutcomeRecorder counts terminal outcomes.
type OutcomeRecorder interface {
	RecordOutcome(outcome domain.TriageOutcome)
}

// TriageResult describes what a single Process call persisted.
type TriageResult struct {
	RequestID         string
	Outcome           domain.TriageOutcome
	Ticket            *domain.Ticket
	OriginalTicketIDs []string
	Reason            string
	// Err is set when no record could be written at all.
	Err error
}

// TriageService routes a validated report to exactly one persisted record.
type TriageService struct {
	classifier Classifier
	tickets    *TicketService
	requests   repository.TriageRequestRepository
	detector   DuplicateDetector
	outcomes   OutcomeRecorder
	logger     *zap.Logger
}

// TriageDependencies bundles collaborators for the triage service.
type TriageDependencies struct {
	Classifier          Classifier
	Tickets             *TicketService
	RequestRepo         repository.TriageRequestRepository
	SimilarityThreshold float64
	Outcomes            OutcomeRecorder
	Logger              *zap.Logger
}

// NewTriageService constructs the service.
func NewTriageService(deps TriageDependencies) *TriageService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TriageService{
		classifier: deps.Classifier,
		tickets:    deps.Tickets,
		requests:   deps.RequestRepo,
		detector:   NewDuplicateDetector(deps.SimilarityThreshold),
		outcomes:   deps.Outcomes,
		logger:     logger,
	}
}

// Process classifies, deduplicates and persists one report. It never
// panics and never returns an error to the caller: every failure is routed
// to manual review, and a failure of that write is logged.
func (s *TriageService) Process(ctx context.Context, requestID string, report domain.Report) (result TriageResult) {
	logger := s.logger.With(zap.String("request_id", requestID), zap.String("location", report.Location))
	if settled := s.markProcessing(ctx, logger, requestID); settled != nil {
		logger.Info("triage request already settled, skipping", zap.String("state", string(settled.State)))
		return settledResult(settled)
	}
	run := &triageRun{service: s, logger: logger, report: report}

	defer func() {
		if r := recover(); r != nil {
			message := fmt.Sprint(r)
			if run.written {
				logger.Error("triage panicked after record was written", zap.String("panic", message))
				result = run.result
			} else {
				logger.Error("triage panicked", zap.String("panic", message))
				result = run.flagAfterPanic(ctx, processingErrorPrefix+message)
			}
		}
		result.RequestID = requestID
		s.finish(ctx, logger, result)
	}()

	return run.route(ctx)
}

type triageRun struct {
	service *TriageService
	logger  *zap.Logger
	report  domain.Report
	written bool
	result  TriageResult
}

func (r *triageRun) route(ctx context.Context) TriageResult {
	s := r.service
	classification := s.classifier.Classify(ctx, r.report.Description, r.report.Location)
	if !classification.Success {
		r.logger.Warn("classification failed", zap.String("error", classification.Error))
		return r.flag(ctx, ReasonClassificationFailed, true)
	}
	if classification.NeedsManualReview || classification.Category == nil {
		reason := classification.Reason
		if reason == "" {
			reason = classifier.ReasonNoMatch
		}
		return r.flag(ctx, reason, true)
	}

	category := *classification.Category
	logger := r.logger.With(zap.String("category", category))

	candidates, err := s.tickets.ListOpenAtLocation(ctx, r.report.Location)
	if err != nil {
		logger.Warn("list open tickets failed", zap.Error(err))
		return r.flag(ctx, processingErrorPrefix+err.Error(), false)
	}

	check := s.detector.FindDuplicates(r.report.Description, r.report.Location, category, candidates)
	if check.IsDuplicate {
		originals := ticketIDs(check.DuplicateTickets)
		ticket, err := s.tickets.MarkAsDuplicate(ctx, r.report, category, check.DuplicateTickets)
		if err != nil {
			logger.Warn("duplicate record failed", zap.Error(err))
			return r.flag(ctx, processingErrorPrefix+err.Error(), false)
		}
		logger.Info("report marked as duplicate",
			zap.String("ticket_id", ticket.ID),
			zap.Strings("original_ticket_ids", originals))
		return r.commit(TriageResult{
			Outcome:           domain.OutcomeDuplicate,
			Ticket:            ticket,
			OriginalTicketIDs: originals,
		})
	}

	ticket, err := s.tickets.CreateTicket(ctx, r.report, category)
	if err != nil {
		logger.Warn("ticket creation failed", zap.Error(err))
		return r.flag(ctx, ReasonTicketCreationFailed, false)
	}
	logger.Info("ticket created",
		zap.String("ticket_id", ticket.ID),
		zap.String("priority", string(ticket.Priority)))
	return r.commit(TriageResult{Outcome: domain.OutcomeTicketCreated, Ticket: ticket})
}

// flag writes a manual-review record. When fallback is set a failed write is
// retried once as a processing error; otherwise it is only logged.
func (r *triageRun) flag(ctx context.Context, reason string, fallback bool) TriageResult {
	ticket, err := r.service.tickets.FlagForManualReview(ctx, r.report, reason)
	if err == nil {
		r.logger.Info("report flagged for manual review", zap.String("ticket_id", ticket.ID), zap.String("reason", reason))
		return r.commit(TriageResult{Outcome: domain.OutcomeManualReview, Ticket: ticket, Reason: reason})
	}
	if fallback {
		r.logger.Warn("manual review record failed", zap.String("reason", reason), zap.Error(err))
		return r.flag(ctx, processingErrorPrefix+err.Error(), false)
	}
	r.logger.Error("report could not be persisted", zap.String("reason", reason), zap.Error(err))
	return TriageResult{Reason: reason, Err: err}
}

func (r *triageRun) flagAfterPanic(ctx context.Context, reason string) (result TriageResult) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("manual review write panicked", zap.String("reason", reason), zap.Any("panic", p))
			result = TriageResult{Reason: reason, Err: fmt.Errorf("manual review write panicked: %v", p)}
		}
	}()
	return r.flag(ctx, reason, false)
}

func (r *triageRun) commit(result TriageResult) TriageResult {
	r.written = true
	r.result = result
	return result
}

// markProcessing moves the tracked request to processing. A request that is
// already settled is returned untouched so a replayed task writes nothing.
func (s *TriageService) markProcessing(ctx context.Context, logger *zap.Logger, requestID string) *domain.TriageRequest {
	if s.requests == nil || requestID == "" {
		return nil
	}
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		logger.Warn("load triage request failed", zap.Error(err))
		return nil
	}
	if req.State.Settled() {
		return req
	}
	req.State = domain.RequestStateProcessing
	if err := s.requests.Update(ctx, req); err != nil {
		logger.Warn("mark triage request processing failed", zap.Error(err))
	}
	return nil
}

func settledResult(req *domain.TriageRequest) TriageResult {
	result := TriageResult{RequestID: req.ID, OriginalTicketIDs: req.OriginalTicketIDs}
	if req.Outcome != nil {
		result.Outcome = *req.Outcome
	}
	if req.Reason != nil {
		result.Reason = *req.Reason
	}
	return result
}

func (s *TriageService) finish(ctx context.Context, logger *zap.Logger, result TriageResult) {
	if result.Err == nil && s.outcomes != nil {
		s.outcomes.RecordOutcome(result.Outcome)
	}
	if s.requests == nil || result.RequestID == "" {
		return
	}
	req, err := s.requests.GetByID(ctx, result.RequestID)
	if err != nil {
		logger.Warn("load triage request failed", zap.Error(err))
		return
	}
	if result.Err != nil {
		req.State = domain.RequestStateFailed
	} else {
		req.State = domain.RequestStateCompleted
		outcome := result.Outcome
		req.Outcome = &outcome
		req.TicketID = &result.Ticket.ID
		req.OriginalTicketIDs = result.OriginalTicketIDs
	}
	if result.Reason != "" {
		reason := result.Reason
		req.Reason = &reason
	}
	if err := s.requests.Update(ctx, req); err != nil {
		logger.Warn("record triage outcome failed", zap.Error(err))
	}
}

// HandleTask adapts Process to the worker pool.
func (s *TriageService) HandleTask(ctx context.Context, task worker.Task) error {
	result := s.Process(ctx, task.RequestID, task.Report)
	return result.Err
}
