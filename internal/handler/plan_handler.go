package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/bluefin/internal/domain"
	"github.com/mansoorceksport/bluefin/internal/service"
)

// PlanHandler serves the public catalog and admin plan management
type PlanHandler struct {
	planService *service.PlanService
}

func NewPlanHandler(planService *service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// ListActive handles GET /api/plans
func (h *PlanHandler) ListActive(c *fiber.Ctx) error {
	plans, err := h.planService.ListActive(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plans)
}

// Get handles GET /api/plans/:id
func (h *PlanHandler) Get(c *fiber.Ctx) error {
	plan, err := h.planService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plan)
}

// ListAll handles GET /api/admin/plans
func (h *PlanHandler) ListAll(c *fiber.Ctx) error {
	plans, err := h.planService.ListAll(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plans)
}

// Create handles POST /api/admin/plans
func (h *PlanHandler) Create(c *fiber.Ctx) error {
	var input domain.PlanInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	plan, err := h.planService.Create(c.UserContext(), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

// Update handles PUT /api/admin/plans/:id
func (h *PlanHandler) Update(c *fiber.Ctx) error {
	var input domain.PlanInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c)
	}

	plan, err := h.planService.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plan)
}

// Delete handles DELETE /api/admin/plans/:id
func (h *PlanHandler) Delete(c *fiber.Ctx) error {
	if err := h.planService.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Plan deleted successfully"})
}
