package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/api/dto"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/service"
	apperrors "github.com/DerekWilliams9191/AI-Facilities-Feedback/pkg/util/errorutil"
)

// FeedbackHandler accepts reports and answers request status queries.
type FeedbackHandler struct {
	submissions *service.SubmissionService
}

// NewFeedbackHandler constructs handler.
func NewFeedbackHandler(submissions *service.SubmissionService) *FeedbackHandler {
	return &FeedbackHandler{submissions: submissions}
}

// Submit POST /api/feedback/submit.
func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitFeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("Invalid JSON in request body", nil)
	}
	tracked, err := h.submissions.Submit(c.UserContext(), service.SubmissionInput{
		Description: req.Description,
		Location:    req.Location,
		UserEmail:   req.UserEmail,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.SubmitFeedbackResponse{
		Success:   true,
		Status:    string(domain.RequestStateReceived),
		Message:   "Your feedback has been received and is being processed",
		RequestID: tracked.ID,
	})
}

// GetRequest GET /api/feedback/requests/:id.
func (h *FeedbackHandler) GetRequest(c *fiber.Ctx) error {
	req, err := h.submissions.GetRequest(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	originals := req.OriginalTicketIDs
	if originals == nil {
		originals = []string{}
	}
	return c.JSON(fiber.Map{"data": dto.TriageRequestResponse{
		ID:                req.ID,
		State:             req.State,
		Outcome:           req.Outcome,
		TicketID:          req.TicketID,
		OriginalTicketIDs: originals,
		Reason:            req.Reason,
		Location:          req.Location,
		CreatedAt:         req.CreatedAt,
		UpdatedAt:         req.UpdatedAt,
	}})
}
