package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/bluefin/internal/domain"
)

// Context keys for storing user info
const (
	UserIDKey = "userID"
	RoleKey   = "role"
	NameKey   = "name"
)

// Authenticate validates the portal access token and stores its claims in locals
func Authenticate(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "No token, authorization denied",
			})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.ParseWithClaims(tokenString, &domain.PortalClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Token is not valid",
			})
		}

		claims, ok := token.Claims.(*domain.PortalClaims)
		if !ok || !token.Valid || claims.UserID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Token is not valid",
			})
		}

		c.Locals(UserIDKey, claims.UserID)
		c.Locals(RoleKey, claims.Role)
		c.Locals(NameKey, claims.Name)

		return c.Next()
	}
}

// RequireAdmin rejects callers without the admin role. Must run after Authenticate.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if GetRole(c) != domain.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"message": "Access denied. Admin only.",
			})
		}
		return c.Next()
	}
}

// GetUserID extracts the user ID stored by Authenticate
func GetUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals(UserIDKey).(string)
	return userID
}

func GetRole(c *fiber.Ctx) string {
	role, _ := c.Locals(RoleKey).(string)
	return role
}

func GetName(c *fiber.Ctx) string {
	name, _ := c.Locals(NameKey).(string)
	return name
}
