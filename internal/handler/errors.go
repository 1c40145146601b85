package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/bluefin/internal/domain"
	"github.com/mansoorceksport/bluefin/internal/middleware"
	"github.com/mansoorceksport/bluefin/internal/service"
	"github.com/rs/zerolog/log"
)

// respondError maps service errors onto HTTP responses. Unknown errors are
// logged and hidden behind a generic 500.
func respondError(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"errors": verr.Errors})
	}

	switch {
	case domain.IsNotFound(err):
		return message(c, fiber.StatusNotFound, notFoundMessage(err))
	case errors.Is(err, domain.ErrForbidden):
		return message(c, fiber.StatusForbidden, "Access denied")
	case errors.Is(err, domain.ErrPaymentAlreadyDecided):
		return message(c, fiber.StatusConflict, "Payment has already been reviewed")
	case errors.Is(err, domain.ErrDecisionInProgress):
		return message(c, fiber.StatusConflict, "Another decision for this user is in progress, try again")
	case errors.Is(err, domain.ErrDuplicatePendingPayment):
		return message(c, fiber.StatusBadRequest, "You already have a pending payment for this plan")
	case errors.Is(err, domain.ErrTicketChanged):
		return message(c, fiber.StatusConflict, "Ticket was updated by someone else, try again")
	case errors.Is(err, domain.ErrReplyRequired):
		return message(c, fiber.StatusBadRequest, "Cannot mark as resolved/closed without replying to the ticket first")
	case errors.Is(err, domain.ErrInvalidStatus):
		return message(c, fiber.StatusBadRequest, "Invalid status")
	case errors.Is(err, domain.ErrInvalidPriority):
		return message(c, fiber.StatusBadRequest, "Invalid priority")
	case errors.Is(err, domain.ErrInvalidCategory):
		return message(c, fiber.StatusBadRequest, "Invalid category")
	case errors.Is(err, service.ErrInvalidIdentity):
		return message(c, fiber.StatusUnauthorized, "Invalid or expired identity token")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		return message(c, fiber.StatusUnauthorized, "Invalid or expired refresh token")
	}

	log.Error().
		Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Str("user_id", middleware.GetUserID(c)).
		Msg("[HTTP] request failed")
	return message(c, fiber.StatusInternalServerError, "Server error")
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrPlanNotFound):
		return "Plan not found"
	case errors.Is(err, domain.ErrPaymentNotFound):
		return "Payment not found"
	case errors.Is(err, domain.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, domain.ErrTicketNotFound):
		return "Ticket not found"
	case errors.Is(err, domain.ErrNotificationNotFound):
		return "Notification not found"
	}
	return "Not found"
}

func message(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg})
}

func badBody(c *fiber.Ctx) error {
	return message(c, fiber.StatusBadRequest, "Invalid request body")
}

// actorFrom builds the service actor from the claims stored by Authenticate
func actorFrom(c *fiber.Ctx) service.Actor {
	return service.Actor{
		ID:   middleware.GetUserID(c),
		Name: middleware.GetName(c),
		Role: middleware.GetRole(c),
	}
}
