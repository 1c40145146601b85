package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/bluefin/internal/middleware"
	"github.com/mansoorceksport/bluefin/internal/service"
)

// RefreshCookieName is the httpOnly cookie carrying the refresh token
const RefreshCookieName = "bluefin-refresh-token"

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService   *service.AuthService
	tokenService  *service.TokenService
	userService   *service.UserService
	refreshExpiry time.Duration
	secureCookie  bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *service.AuthService,
	tokenService *service.TokenService,
	userService *service.UserService,
	refreshExpiry time.Duration,
	secureCookie bool,
) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		tokenService:  tokenService,
		userService:   userService,
		refreshExpiry: refreshExpiry,
		secureCookie:  secureCookie,
	}
}

// Login handles POST /api/auth/login with a Firebase ID token as bearer
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return message(c, fiber.StatusUnauthorized, "Missing Authorization header")
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")

	resp, err := h.authService.LoginOrRegister(c.UserContext(), token)
	if err != nil {
		return respondError(c, err)
	}

	tokenPair, err := h.tokenService.GenerateTokenPair(c.UserContext(), resp.User, c.Get("User-Agent"), c.IP())
	if err != nil {
		return respondError(c, err)
	}
	h.setRefreshCookie(c, tokenPair.RefreshToken)

	msg := "Welcome back!"
	if resp.IsNewUser {
		msg = "Welcome! Your account has been created."
	}

	return c.JSON(fiber.Map{
		"token":       tokenPair.AccessToken,
		"expires_in":  tokenPair.ExpiresIn,
		"is_new_user": resp.IsNewUser,
		"message":     msg,
		"user":        resp.User,
	})
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	refreshToken := c.Cookies(RefreshCookieName)
	if refreshToken == "" {
		return message(c, fiber.StatusUnauthorized, "No refresh token provided")
	}

	tokenPair, err := h.tokenService.RefreshAccessToken(c.UserContext(), refreshToken, c.Get("User-Agent"), c.IP())
	if err != nil {
		h.clearRefreshCookie(c)
		return respondError(c, err)
	}
	h.setRefreshCookie(c, tokenPair.RefreshToken)

	return c.JSON(fiber.Map{
		"token":      tokenPair.AccessToken,
		"expires_in": tokenPair.ExpiresIn,
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if refreshToken := c.Cookies(RefreshCookieName); refreshToken != "" {
		_ = h.tokenService.RevokeRefreshToken(c.UserContext(), refreshToken)
	}
	h.clearRefreshCookie(c)

	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	profile, err := h.userService.Me(c.UserContext(), middleware.GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

func (h *AuthHandler) setRefreshCookie(c *fiber.Ctx, value string) {
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Expires:  time.Now().Add(h.refreshExpiry),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: "Lax",
		Path:     "/",
	})
}

func (h *AuthHandler) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: "Lax",
		Path:     "/",
	})
}
