package domain

import (
	"context"
	"time"
)

// Ticket status constants
const (
	TicketStatusOpen       = "open"
	TicketStatusInProgress = "in-progress"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
)

// Ticket priority constants
const (
	TicketPriorityLow    = "low"
	TicketPriorityMedium = "medium"
	TicketPriorityHigh   = "high"
	TicketPriorityUrgent = "urgent"
)

// Ticket category constants
const (
	TicketCategoryTechnical = "technical"
	TicketCategoryBilling   = "billing"
	TicketCategoryGeneral   = "general"
	TicketCategoryComplaint = "complaint"
)

var (
	validTicketStatuses   = map[string]bool{TicketStatusOpen: true, TicketStatusInProgress: true, TicketStatusResolved: true, TicketStatusClosed: true}
	validTicketPriorities = map[string]bool{TicketPriorityLow: true, TicketPriorityMedium: true, TicketPriorityHigh: true, TicketPriorityUrgent: true}
	validTicketCategories = map[string]bool{TicketCategoryTechnical: true, TicketCategoryBilling: true, TicketCategoryGeneral: true, TicketCategoryComplaint: true}
)

func IsValidTicketStatus(s string) bool   { return validTicketStatuses[s] }
func IsValidTicketPriority(p string) bool { return validTicketPriorities[p] }
func IsValidTicketCategory(c string) bool { return validTicketCategories[c] }

// IsTerminalTicketStatus reports whether a status closes out the ticket
func IsTerminalTicketStatus(s string) bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketReply is an append-only message on a ticket
type TicketReply struct {
	Message    string    `bson:"message" json:"message"`
	RepliedBy  string    `bson:"replied_by" json:"repliedBy"`
	AuthorName string    `bson:"author_name" json:"authorName"`
	IsAdmin    bool      `bson:"is_admin" json:"isAdmin"`
	RepliedAt  time.Time `bson:"replied_at" json:"repliedAt"`
}

// SupportTicket is a user-raised support request
type SupportTicket struct {
	ID         string        `bson:"_id,omitempty" json:"id"`
	UserID     string        `bson:"user_id" json:"userId"`
	Subject    string        `bson:"subject" json:"subject"`
	Message    string        `bson:"message" json:"message"`
	Category   string        `bson:"category" json:"category"`
	Priority   string        `bson:"priority" json:"priority"`
	Status     string        `bson:"status" json:"status"`
	Replies    []TicketReply `bson:"replies" json:"replies"`
	ResolvedAt *time.Time    `bson:"resolved_at,omitempty" json:"resolvedAt,omitempty"`
	ResolvedBy string        `bson:"resolved_by,omitempty" json:"resolvedBy,omitempty"`
	CreatedAt  time.Time     `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time     `bson:"updated_at" json:"updatedAt"`
}

// StatusAfterUserReply returns the status a user reply moves the ticket to.
// Replying to a resolved or closed ticket reopens it.
func (t *SupportTicket) StatusAfterUserReply() string {
	if IsTerminalTicketStatus(t.Status) {
		return TicketStatusOpen
	}
	return t.Status
}

// StatusAfterAdminReply returns the status an admin reply moves the ticket to.
// An admin reply picks up an open ticket.
func (t *SupportTicket) StatusAfterAdminReply() string {
	if t.Status == TicketStatusOpen {
		return TicketStatusInProgress
	}
	return t.Status
}

// CanTransitionTo checks whether an admin may set status on this ticket
func (t *SupportTicket) CanTransitionTo(status string) error {
	if !IsValidTicketStatus(status) {
		return ErrInvalidStatus
	}
	if IsTerminalTicketStatus(status) && len(t.Replies) == 0 {
		return ErrReplyRequired
	}
	return nil
}

// TicketDetail is a ticket joined with its owner for admin views
type TicketDetail struct {
	*SupportTicket
	User *User `json:"user,omitempty"`
}

// TicketFilter narrows the admin ticket listing. Empty fields do not filter.
type TicketFilter struct {
	Status   string
	Priority string
	Category string
	Search   string
}

// TicketStats holds per-status ticket counts
type TicketStats struct {
	Total      int64 `json:"total"`
	Open       int64 `json:"open"`
	InProgress int64 `json:"inProgress"`
	Resolved   int64 `json:"resolved"`
	Closed     int64 `json:"closed"`
	Urgent     int64 `json:"urgent"`
}

// TicketStatusChange is applied atomically by the repository
type TicketStatusChange struct {
	Status     string
	ResolvedAt *time.Time
	ResolvedBy string
}

// TicketRepository defines operations for managing support tickets
type TicketRepository interface {
	Create(ctx context.Context, ticket *SupportTicket) error
	GetByID(ctx context.Context, id string) (*SupportTicket, error)
	GetByUserID(ctx context.Context, userID string) ([]*SupportTicket, error)
	List(ctx context.Context, filter TicketFilter) ([]*SupportTicket, error)

	// AppendReply pushes a reply and moves the status from -> to in one update.
	// It returns ErrTicketChanged when the stored status is no longer from.
	AppendReply(ctx context.Context, id string, reply TicketReply, from, to string) error

	// UpdateStatus sets the status. For resolved/closed the update only matches
	// tickets with at least one reply and returns ErrReplyRequired otherwise.
	// A nil ResolvedAt leaves any earlier resolution stamp in place.
	UpdateStatus(ctx context.Context, id string, change TicketStatusChange) error

	UpdateFields(ctx context.Context, id string, priority, category string) error
	Count(ctx context.Context, status, priority string, excludeStatus string) (int64, error)
}
