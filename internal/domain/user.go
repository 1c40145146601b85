package domain

import (
	"context"
	"time"
)

// Role constants
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Active plan status values
const (
	ActivePlanStatusActive  = "active"
	ActivePlanStatusExpired = "expired"
)

// ActivePlan is the single plan currently in effect for a user
type ActivePlan struct {
	PlanID    string    `bson:"plan_id" json:"planId"`
	StartDate time.Time `bson:"start_date" json:"startDate"`
	EndDate   time.Time `bson:"end_date" json:"endDate"`
	Status    string    `bson:"status" json:"status"`
}

// IsCurrent reports whether the plan window covers t
func (a *ActivePlan) IsCurrent(t time.Time) bool {
	if a == nil || a.Status != ActivePlanStatusActive {
		return false
	}
	return !t.Before(a.StartDate) && t.Before(a.EndDate)
}

// User is a portal account. Password handling lives with the identity provider.
type User struct {
	ID          string      `bson:"_id,omitempty" json:"id"`
	FirebaseUID string      `bson:"firebase_uid,omitempty" json:"-"`
	Email       string      `bson:"email" json:"email"`
	Name        string      `bson:"name" json:"name"`
	Phone       string      `bson:"phone" json:"phone"`
	Address     string      `bson:"address" json:"address"`
	Role        string      `bson:"role" json:"role"`
	ActivePlan  *ActivePlan `bson:"active_plan,omitempty" json:"activePlan,omitempty"`
	CreatedAt   time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time   `bson:"updated_at" json:"updatedAt"`
}

// IsAdmin checks if user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserRepository defines operations for managing users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByFirebaseUID(ctx context.Context, uid string) (*User, error)
	UpdateFirebaseUID(ctx context.Context, userID string, firebaseUID string) error

	// SetActivePlan overwrites any prior active plan reference
	SetActivePlan(ctx context.Context, userID string, plan ActivePlan) error

	GetByRole(ctx context.Context, role string) ([]*User, error)
}
