package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/bluefin/internal/domain"
	"github.com/mansoorceksport/bluefin/internal/service"
)

// SupportHandler exposes the support ticket workflow
type SupportHandler struct {
	ticketService *service.TicketService
}

func NewSupportHandler(ticketService *service.TicketService) *SupportHandler {
	return &SupportHandler{ticketService: ticketService}
}

// Create handles POST /api/support/tickets
func (h *SupportHandler) Create(c *fiber.Ctx) error {
	var input service.CreateTicketInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	ticket, err := h.ticketService.Create(c.UserContext(), actorFrom(c), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Support ticket created successfully",
		"ticket":  ticket,
	})
}

// ListMine handles GET /api/support/tickets
func (h *SupportHandler) ListMine(c *fiber.Ctx) error {
	tickets, err := h.ticketService.ListMine(c.UserContext(), actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tickets)
}

// Get handles GET /api/support/tickets/:id
func (h *SupportHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.ticketService.Get(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(ticket)
}

type replyRequest struct {
	Message string `json:"message"`
}

// UserReply handles POST /api/support/tickets/:id/reply
func (h *SupportHandler) UserReply(c *fiber.Ctx) error {
	var req replyRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	ticket, err := h.ticketService.UserReply(c.UserContext(), actorFrom(c), c.Params("id"), req.Message)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Reply added successfully", "ticket": ticket})
}

// AdminList handles GET /api/support/admin/tickets
func (h *SupportHandler) AdminList(c *fiber.Ctx) error {
	tickets, err := h.ticketService.AdminList(c.UserContext(), domain.TicketFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tickets)
}

// Stats handles GET /api/support/admin/stats
func (h *SupportHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.ticketService.Stats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// AdminReply handles POST /api/support/admin/tickets/:id/reply
func (h *SupportHandler) AdminReply(c *fiber.Ctx) error {
	var req replyRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	ticket, err := h.ticketService.AdminReply(c.UserContext(), actorFrom(c), c.Params("id"), req.Message)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Reply added successfully", "ticket": ticket})
}

type statusRequest struct {
	Status string `json:"status"`
}

// SetStatus handles PUT /api/support/admin/tickets/:id/status
func (h *SupportHandler) SetStatus(c *fiber.Ctx) error {
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	ticket, err := h.ticketService.SetStatus(c.UserContext(), actorFrom(c), c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Ticket status updated successfully", "ticket": ticket})
}

type priorityRequest struct {
	Priority string `json:"priority"`
}

// SetPriority handles PUT /api/support/admin/tickets/:id/priority
func (h *SupportHandler) SetPriority(c *fiber.Ctx) error {
	var req priorityRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	ticket, err := h.ticketService.SetPriority(c.UserContext(), c.Params("id"), req.Priority)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Ticket priority updated successfully", "ticket": ticket})
}

type updateTicketRequest struct {
	Priority string `json:"priority"`
	Category string `json:"category"`
}

// Update handles PUT /api/support/admin/tickets/:id
func (h *SupportHandler) Update(c *fiber.Ctx) error {
	var req updateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	ticket, err := h.ticketService.Update(c.UserContext(), c.Params("id"), req.Priority, req.Category)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Ticket updated successfully", "ticket": ticket})
}
