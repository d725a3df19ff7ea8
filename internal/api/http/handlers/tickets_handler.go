package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/api/dto"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/domain"
	"github.com/DerekWilliams9191/AI-Facilities-Feedback/internal/service"
	apperrors "github.com/DerekWilliams9191/AI-Facilities-Feedback/pkg/util/errorutil"
)

const maxPageSize = 500

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /api/feedback/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, page, pageSize, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(dto.TicketListResponse{Data: items, Page: page, PageSize: pageSize})
}

// GetTicket GET /api/feedback/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	history, err := h.service.ListHistory(c.UserContext(), ticket.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, history)})
}

// UpdateStatus PATCH /api/feedback/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketListFilter, int, int, error) {
	filter := service.TicketListFilter{}
	if location := strings.TrimSpace(c.Query("location")); location != "" {
		filter.Location = &location
	}
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		filter.Category = &category
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if reviewStr := c.Query("manual_review"); reviewStr != "" {
		review, err := strconv.ParseBool(reviewStr)
		if err != nil {
			return filter, 0, 0, apperrors.NewValidationError("manual_review must be a boolean", map[string]any{"manual_review": reviewStr})
		}
		filter.ManualReview = &review
	}

	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 0)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if pageSize > 0 {
		filter.Limit = pageSize
		filter.Offset = (page - 1) * pageSize
	}
	return filter, page, pageSize, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:           ticket.ID,
		Description:  ticket.Description,
		Location:     ticket.Location,
		Category:     ticket.Category,
		UserEmail:    ticket.UserEmail,
		Status:       ticket.Status,
		Priority:     ticket.Priority,
		ManualReview: ticket.ManualReview,
		ReviewReason: ticket.ReviewReason,
		DuplicateOf:  ticket.DuplicateOf,
		CreatedAt:    ticket.CreatedAt,
		UpdatedAt:    ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, history []domain.TicketHistory) dto.TicketDetailResponse {
	return dto.TicketDetailResponse{
		TicketSummary: ticketSummary(ticket),
		History:       historyResponses(history),
	}
}

func historyResponses(entries []domain.TicketHistory) []dto.TicketHistoryResponse {
	resp := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, dto.TicketHistoryResponse{
			ID:         entry.ID,
			ChangeType: entry.ChangeType,
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return resp
}
