package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/bluefin/internal/service"
)

type ContactHandler struct {
	contactService *service.ContactService
}

func NewContactHandler(contactService *service.ContactService) *ContactHandler {
	return &ContactHandler{contactService: contactService}
}

// Get handles GET /api/contact
func (h *ContactHandler) Get(c *fiber.Ctx) error {
	contact, err := h.contactService.Get(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(contact)
}

// Update handles PUT /api/contact
func (h *ContactHandler) Update(c *fiber.Ctx) error {
	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil {
		return badBody(c)
	}

	contact, err := h.contactService.Update(c.UserContext(), body)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Contact information updated successfully", "contact": contact})
}
