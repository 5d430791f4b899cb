package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/deskline/support-tickets/internal/api/dto"
	"github.com/deskline/support-tickets/internal/domain"
	"github.com/deskline/support-tickets/internal/service"
	apperrors "github.com/deskline/support-tickets/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	var query dto.TicketListQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query parameters", map[string]any{"query": err.Error()})
	}
	query.Normalize()

	page, err := h.service.GetTickets(c.UserContext(), service.TicketFilter{
		Status:   query.Status,
		Search:   query.Search,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		return err
	}

	items := make([]dto.TicketResponse, 0, len(page.Items))
	for _, ticket := range page.Items {
		items = append(items, dto.NewTicketResponse(ticket))
	}
	return c.JSON(dto.PagedResponse[dto.TicketResponse]{
		Items:      items,
		TotalCount: page.TotalCount,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id := c.Params("id")
	ticket, found, err := h.service.GetTicketByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !found {
		return apperrors.NewNotFound("Ticket", map[string]any{"id": id})
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if errs := req.Validate(); errs != nil {
		return apperrors.NewValidationError("validation failed", errs)
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), service.TicketCreateInput{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Description: strings.TrimSpace(req.Description),
	})
	if err != nil {
		return err
	}
	c.Location("/api/tickets/" + ticket.ID)
	return c.Status(http.StatusCreated).JSON(dto.NewTicketResponse(ticket))
}

// UpdateTicket PUT /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	id := c.Params("id")
	ticket, found, err := h.service.UpdateTicket(c.UserContext(), id, service.TicketUpdateInput{
		Status:     req.Status,
		Resolution: req.Resolution,
	})
	if err != nil {
		return err
	}
	if !found {
		return apperrors.NewNotFound("Ticket", map[string]any{"id": id})
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}

// Statuses GET /api/tickets/statuses lists the accepted status values.
func (h *TicketsHandler) Statuses(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"items": domain.AllStatuses})
}
