package domain

import (
	"context"
	"fmt"
	"time"
)

// Notification type constants
const (
	NotificationTypeInfo    = "info"
	NotificationTypeSuccess = "success"
	NotificationTypeError   = "error"
)

// Notification is a per-user message created as a side effect of workflows
type Notification struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"user_id" json:"userId"`
	Title     string    `bson:"title" json:"title"`
	Message   string    `bson:"message" json:"message"`
	Type      string    `bson:"type" json:"type"`
	Link      string    `bson:"link" json:"link"`
	Read      bool      `bson:"read" json:"read"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// PaymentApprovedNotification is sent to the payer once the plan is active
func PaymentApprovedNotification(userID, planName string) *Notification {
	return &Notification{
		UserID:  userID,
		Title:   "Payment Approved",
		Message: fmt.Sprintf("Your payment for %s has been approved. Your plan is now active!", planName),
		Type:    NotificationTypeSuccess,
		Link:    "/dashboard",
	}
}

// PaymentRejectedNotification is sent to the payer on rejection
func PaymentRejectedNotification(userID, adminNotes string) *Notification {
	detail := "Please contact support for more information."
	if adminNotes != "" {
		detail = "Reason: " + adminNotes
	}
	return &Notification{
		UserID:  userID,
		Title:   "Payment Rejected",
		Message: "Your payment has been rejected. " + detail,
		Type:    NotificationTypeError,
		Link:    "/dashboard",
	}
}

// NotificationRepository defines operations for the notification log
type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	CreateMany(ctx context.Context, ns []*Notification) error
	GetByID(ctx context.Context, id string) (*Notification, error)
	GetRecentByUserID(ctx context.Context, userID string, limit int64) ([]*Notification, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
}
