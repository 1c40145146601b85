package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/bluefin/internal/middleware"
	"github.com/mansoorceksport/bluefin/internal/service"
)

// UsageHandler serves usage history, speed tests and stats
type UsageHandler struct {
	usageService *service.UsageService
}

func NewUsageHandler(usageService *service.UsageService) *UsageHandler {
	return &UsageHandler{usageService: usageService}
}

// History handles GET /api/usage/history
func (h *UsageHandler) History(c *fiber.Ctx) error {
	history, err := h.usageService.History(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(history)
}

// SpeedTest handles POST /api/usage/speed-test
func (h *UsageHandler) SpeedTest(c *fiber.Ctx) error {
	var input service.SpeedTestInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	usage, err := h.usageService.RecordSpeedTest(c.UserContext(), middleware.GetUserID(c), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(usage)
}

// Stats handles GET /api/usage/stats
func (h *UsageHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.usageService.Stats(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// RecordForUser handles POST /api/admin/users/:id/usage
func (h *UsageHandler) RecordForUser(c *fiber.Ctx) error {
	var input service.MeterReadingInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	usage, err := h.usageService.RecordMeterReading(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(usage)
}
