package domain

import (
	"context"
	"time"
)

// RefreshToken is a stored login session. Only the SHA256 hash is persisted.
type RefreshToken struct {
	ID        string     `bson:"_id,omitempty" json:"id"`
	UserID    string     `bson:"user_id" json:"user_id"`
	TokenHash string     `bson:"token_hash" json:"-"`
	ExpiresAt time.Time  `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	UserAgent string     `bson:"user_agent" json:"user_agent"`
	IPAddress string     `bson:"ip_address" json:"ip_address"`
	Revoked   bool       `bson:"revoked" json:"revoked"`
	RevokedAt *time.Time `bson:"revoked_at,omitempty" json:"revoked_at,omitempty"`
}

// IsValid checks the session is neither expired nor revoked at now
func (r *RefreshToken) IsValid(now time.Time) bool {
	return !r.Revoked && now.Before(r.ExpiresAt)
}

// RefreshTokenRepository defines the interface for refresh token storage
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *RefreshToken) error
	// FindByHash returns nil, nil when no live token matches
	FindByHash(ctx context.Context, hash string) (*RefreshToken, error)
	RevokeByHash(ctx context.Context, hash string) error
	RevokeAllByUserID(ctx context.Context, userID string) error
}
