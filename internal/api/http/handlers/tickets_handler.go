package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-inventory/internal/api/dto"
	"github.com/spec-kit/ticket-inventory/internal/clock"
	"github.com/spec-kit/ticket-inventory/internal/domain"
	"github.com/spec-kit/ticket-inventory/internal/service"
	apperrors "github.com/spec-kit/ticket-inventory/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets   *service.TicketService
	purchases *service.PurchaseService
	clock     clock.Clock
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, purchases *service.PurchaseService, clk clock.Clock) *TicketsHandler {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &TicketsHandler{tickets: tickets, purchases: purchases, clock: clk}
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.CreateTicket(c.UserContext(), createInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// CreateTicketsBatch POST /api/tickets/batch.
func (h *TicketsHandler) CreateTicketsBatch(c *fiber.Ctx) error {
	var reqs []dto.CreateTicketRequest
	if err := c.BodyParser(&reqs); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if len(reqs) == 0 {
		return apperrors.NewValidationError("at least one ticket required", nil)
	}
	inputs := make([]service.TicketCreateInput, 0, len(reqs))
	for _, req := range reqs {
		inputs = append(inputs, createInput(req))
	}
	results := h.tickets.CreateTicketsBatch(c.UserContext(), inputs)
	items := make([]dto.BatchCreateItemResponse, 0, len(results))
	for _, res := range results {
		item := dto.BatchCreateItemResponse{Index: res.Index}
		if res.Err != nil {
			item.Error = apperrors.ToDomainError(res.Err).Message
		} else {
			resp := ticketResponse(res.Ticket)
			item.Ticket = &resp
		}
		items = append(items, item)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": items})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := parseListQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListByEvent GET /api/tickets/event/:eventId.
func (h *TicketsHandler) ListByEvent(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	tickets, err := h.tickets.ListByEvent(c.UserContext(), c.Params("eventId"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// ListAvailable GET /api/tickets/available.
func (h *TicketsHandler) ListAvailable(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	tickets, err := h.tickets.ListAvailable(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// UpdateTicket PUT /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateTicket(c.UserContext(), c.Params("id"), service.TicketUpdateInput{
		Type:        req.Type,
		Price:       req.Price,
		Quota:       req.Quota,
		Description: req.Description,
		SaleStart:   req.SaleStart,
		SaleEnd:     req.SaleEnd,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateStatus PATCH /api/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Purchase POST /api/tickets/:id/purchase.
func (h *TicketsHandler) Purchase(c *fiber.Ctx) error {
	var req dto.PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	now := h.clock.Now()
	if req.Timestamp != nil {
		now = *req.Timestamp
	}
	ticket, err := h.purchases.Execute(c.UserContext(), c.Params("id"), req.Amount, now)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ValidateTicket POST /api/tickets/:id/validate.
func (h *TicketsHandler) ValidateTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.ValidateTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ExpireTicket POST /api/tickets/:id/expire.
func (h *TicketsHandler) ExpireTicket(c *fiber.Ctx) error {
	ticket, err := h.tickets.ExpireTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.tickets.DeleteTicket(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func createInput(req dto.CreateTicketRequest) service.TicketCreateInput {
	return service.TicketCreateInput{
		EventID:     req.EventID,
		Type:        req.Type,
		Price:       req.Price,
		Quota:       req.Quota,
		Description: req.Description,
		SaleStart:   req.SaleStart,
		SaleEnd:     req.SaleEnd,
	}
}

func parseListQuery(c *fiber.Ctx) (service.TicketListFilter, error) {
	filter := service.TicketListFilter{}
	if eventID := c.Query("event_id"); eventID != "" {
		filter.EventID = &eventID
	}
	if typeStr := c.Query("type"); typeStr != "" {
		ticketType := domain.TicketType(strings.ToUpper(typeStr))
		if !domain.ValidType(ticketType) {
			return filter, apperrors.NewValidationError("unknown ticket type", fiber.Map{"type": typeStr})
		}
		filter.Type = &ticketType
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			status := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(part)))
			if !domain.ValidStatus(status) {
				return filter, apperrors.NewValidationError("unknown status", fiber.Map{"status": part})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if minStr := c.Query("min_price"); minStr != "" {
		min, err := strconv.ParseFloat(minStr, 64)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid min_price", nil)
		}
		filter.MinPrice = &min
	}
	if maxStr := c.Query("max_price"); maxStr != "" {
		max, err := strconv.ParseFloat(maxStr, 64)
		if err != nil {
			return filter, apperrors.NewValidationError("invalid max_price", nil)
		}
		filter.MaxPrice = &max
	}
	filter.ActiveOnly = c.QueryBool("active_only")
	filter.Limit, filter.Offset = parsePagination(c)
	return filter, nil
}

func parsePagination(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	return pageSize, (page - 1) * pageSize
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

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:             ticket.ID,
		EventID:        ticket.EventID,
		Type:           ticket.Type,
		Price:          ticket.Price,
		Quota:          ticket.Quota,
		RemainingQuota: ticket.RemainingQuota,
		Description:    ticket.Description,
		SaleStart:      ticket.SaleStart,
		SaleEnd:        ticket.SaleEnd,
		Status:         ticket.Status,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
	}
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return items
}
