package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/bluefin/internal/service"
)

// UserHandler serves the admin customer views
type UserHandler struct {
	userService *service.UserService
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List handles GET /api/admin/users
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.userService.ListCustomers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// Detail handles GET /api/admin/users/:id
func (h *UserHandler) Detail(c *fiber.Ctx) error {
	detail, err := h.userService.Detail(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}
