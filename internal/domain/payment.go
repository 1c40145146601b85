package domain

import (
	"context"
	"time"
)

// Payment status constants
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
)

// Payment is a user's proof-of-payment claim awaiting or after admin review
type Payment struct {
	ID            string     `bson:"_id,omitempty" json:"id"`
	UserID        string     `bson:"user_id" json:"userId"`
	PlanID        string     `bson:"plan_id" json:"planId"`
	Amount        float64    `bson:"amount" json:"amount"` // plan price at submission
	Screenshot    string     `bson:"screenshot" json:"screenshot"`
	ScreenshotKey string     `bson:"screenshot_key" json:"-"`
	Status        string     `bson:"status" json:"status"`
	AdminNotes    string     `bson:"admin_notes" json:"adminNotes"`
	ReviewedAt    *time.Time `bson:"reviewed_at,omitempty" json:"reviewedAt,omitempty"`
	ReviewedBy    string     `bson:"reviewed_by,omitempty" json:"reviewedBy,omitempty"`
	SubmittedAt   time.Time  `bson:"submitted_at" json:"submittedAt"`
}

// IsPending reports whether the payment still awaits a decision
func (p *Payment) IsPending() bool {
	return p.Status == PaymentStatusPending
}

// PaymentDetail is a payment joined with its plan, and for admin views its
// payer. Plan is nil when the plan has since been deleted.
type PaymentDetail struct {
	*Payment
	Plan *Plan `json:"plan,omitempty"`
	User *User `json:"user,omitempty"`
}

// PaymentDecision is the admin outcome applied to a pending payment
type PaymentDecision struct {
	Status     string
	AdminNotes string
	ReviewedBy string
	ReviewedAt time.Time
}

// IsValidDecision checks the decision value
func IsValidDecision(status string) bool {
	return status == PaymentStatusApproved || status == PaymentStatusRejected
}

// PaymentRepository defines operations for managing payments
type PaymentRepository interface {
	// Create returns ErrDuplicatePendingPayment if a pending payment for the
	// same user and plan already exists
	Create(ctx context.Context, payment *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	GetByUserID(ctx context.Context, userID string) ([]*Payment, error)
	GetPendingByUserAndPlan(ctx context.Context, userID, planID string) (*Payment, error)
	List(ctx context.Context, status string) ([]*Payment, error)

	// Decide applies a decision only if the payment is still pending.
	// Returns ErrPaymentAlreadyDecided otherwise.
	Decide(ctx context.Context, id string, decision PaymentDecision) error
}
