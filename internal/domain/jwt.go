package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// PortalClaims are the custom JWT claims issued at login
type PortalClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
