package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mansoorceksport/bluefin/internal/domain"
	"github.com/mansoorceksport/bluefin/internal/telemetry"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// TicketService runs the support ticket status machine
type TicketService struct {
	ticketRepo       domain.TicketRepository
	userRepo         domain.UserRepository
	notificationRepo domain.NotificationRepository
	metrics          *telemetry.Metrics
	now              func() time.Time
}

func NewTicketService(
	ticketRepo domain.TicketRepository,
	userRepo domain.UserRepository,
	notificationRepo domain.NotificationRepository,
	metrics *telemetry.Metrics,
) *TicketService {
	return &TicketService{
		ticketRepo:       ticketRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		metrics:          metrics,
		now:              time.Now,
	}
}

// CreateTicketInput is a new ticket as submitted by a user
type CreateTicketInput struct {
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// Create opens a ticket and notifies every admin
func (s *TicketService) Create(ctx context.Context, actor Actor, input CreateTicketInput) (*domain.SupportTicket, error) {
	input.Subject = strings.TrimSpace(input.Subject)
	input.Message = strings.TrimSpace(input.Message)
	if input.Category == "" {
		input.Category = domain.TicketCategoryGeneral
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}

	verr := &domain.ValidationError{}
	if input.Subject == "" {
		verr.Add("subject", "Subject is required")
	}
	if input.Message == "" {
		verr.Add("message", "Message is required")
	}
	if !domain.IsValidTicketCategory(input.Category) {
		verr.Add("category", "Invalid category")
	}
	if !domain.IsValidTicketPriority(input.Priority) {
		verr.Add("priority", "Invalid priority")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	ticket := &domain.SupportTicket{
		UserID:   actor.ID,
		Subject:  input.Subject,
		Message:  input.Message,
		Category: input.Category,
		Priority: input.Priority,
		Status:   domain.TicketStatusOpen,
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.notifyAdmins(ctx, "New Support Ticket", "New ticket: "+ticket.Subject, "/admin/support/"+ticket.ID)
	return ticket, nil
}

// ListMine returns the actor's own tickets, newest first
func (s *TicketService) ListMine(ctx context.Context, actor Actor) ([]*domain.SupportTicket, error) {
	return s.ticketRepo.GetByUserID(ctx, actor.ID)
}

// Get returns a ticket visible to its owner or any admin
func (s *TicketService) Get(ctx context.Context, actor Actor, id string) (*domain.TicketDetail, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.canAccess(ticket.UserID) {
		return nil, domain.ErrForbidden
	}
	return s.withOwner(ctx, ticket)
}

func (s *TicketService) withOwner(ctx context.Context, ticket *domain.SupportTicket) (*domain.TicketDetail, error) {
	owner, err := s.userRepo.GetByID(ctx, ticket.UserID)
	if err != nil && !domain.IsNotFound(err) {
		return nil, err
	}
	return &domain.TicketDetail{SupportTicket: ticket, User: owner}, nil
}

func replyMessage(message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		verr := &domain.ValidationError{}
		verr.Add("message", "Reply message is required")
		return "", verr
	}
	return message, nil
}

// maxReplyAttempts bounds how often a reply is re-applied after the ticket
// status moved between the read and the conditional update
const maxReplyAttempts = 3

// appendReply stores reply and the status next derives from the current
// ticket. The update is conditioned on the status that was read; when another
// request moved it first the ticket is re-read and the transition recomputed.
// check runs on every read so ownership is enforced against fresh data.
func (s *TicketService) appendReply(
	ctx context.Context,
	id string,
	reply domain.TicketReply,
	check func(*domain.SupportTicket) error,
	next func(*domain.SupportTicket) string,
) (*domain.SupportTicket, error) {
	var err error
	for attempt := 0; attempt < maxReplyAttempts; attempt++ {
		var ticket *domain.SupportTicket
		ticket, err = s.ticketRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err = check(ticket); err != nil {
			return nil, err
		}

		status := next(ticket)
		err = s.ticketRepo.AppendReply(ctx, ticket.ID, reply, ticket.Status, status)
		if errors.Is(err, domain.ErrTicketChanged) {
			log.Warn().Str("ticket_id", ticket.ID).Str("status", ticket.Status).Int("attempt", attempt+1).Msg("[Support] status moved during reply, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
		if status != ticket.Status {
			s.metrics.TicketTransitioned(status)
		}
		return ticket, nil
	}
	return nil, err
}

// UserReply appends the owner's reply. Replying to a resolved or closed
// ticket reopens it.
func (s *TicketService) UserReply(ctx context.Context, actor Actor, id, message string) (*domain.SupportTicket, error) {
	message, err := replyMessage(message)
	if err != nil {
		return nil, err
	}

	reply := domain.TicketReply{
		Message:    message,
		RepliedBy:  actor.ID,
		AuthorName: actor.Name,
		IsAdmin:    false,
		RepliedAt:  s.now().UTC(),
	}
	ownerOnly := func(t *domain.SupportTicket) error {
		if t.UserID != actor.ID {
			return domain.ErrForbidden
		}
		return nil
	}
	ticket, err := s.appendReply(ctx, id, reply, ownerOnly, (*domain.SupportTicket).StatusAfterUserReply)
	if err != nil {
		return nil, err
	}

	s.notifyAdmins(ctx, "New Reply on Ticket", fmt.Sprintf("User replied to ticket: \"%s\"", ticket.Subject), "/admin/support")
	return s.ticketRepo.GetByID(ctx, ticket.ID)
}

// AdminReply appends an admin reply. Replying to an open ticket moves it
// to in-progress.
func (s *TicketService) AdminReply(ctx context.Context, admin Actor, id, message string) (*domain.SupportTicket, error) {
	message, err := replyMessage(message)
	if err != nil {
		return nil, err
	}

	reply := domain.TicketReply{
		Message:    message,
		RepliedBy:  admin.ID,
		AuthorName: admin.Name,
		IsAdmin:    true,
		RepliedAt:  s.now().UTC(),
	}
	anyTicket := func(*domain.SupportTicket) error { return nil }
	ticket, err := s.appendReply(ctx, id, reply, anyTicket, (*domain.SupportTicket).StatusAfterAdminReply)
	if err != nil {
		return nil, err
	}

	s.notify(ctx, &domain.Notification{
		UserID:  ticket.UserID,
		Title:   "New Reply on Your Ticket",
		Message: fmt.Sprintf("Admin replied to: \"%s\"", ticket.Subject),
		Type:    domain.NotificationTypeInfo,
		Link:    "/support",
	})
	return s.ticketRepo.GetByID(ctx, ticket.ID)
}

// SetStatus moves a ticket to status. Resolved and closed require at least
// one reply; the check is repeated atomically by the repository.
func (s *TicketService) SetStatus(ctx context.Context, admin Actor, id, status string) (*domain.SupportTicket, error) {
	if !domain.IsValidTicketStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ticket.CanTransitionTo(status); err != nil {
		return nil, err
	}

	change := domain.TicketStatusChange{Status: status}
	if domain.IsTerminalTicketStatus(status) {
		now := s.now().UTC()
		change.ResolvedAt = &now
		change.ResolvedBy = admin.ID
	}
	if err := s.ticketRepo.UpdateStatus(ctx, ticket.ID, change); err != nil {
		return nil, err
	}
	s.metrics.TicketTransitioned(status)

	notificationType := domain.NotificationTypeInfo
	if domain.IsTerminalTicketStatus(status) {
		notificationType = domain.NotificationTypeSuccess
	}
	s.notify(ctx, &domain.Notification{
		UserID:  ticket.UserID,
		Title:   "Ticket Status Updated",
		Message: fmt.Sprintf("Your ticket \"%s\" has been marked as %s", ticket.Subject, status),
		Type:    notificationType,
		Link:    "/support",
	})

	log.Info().Str("ticket_id", ticket.ID).Str("status", status).Str("admin_id", admin.ID).Msg("[Support] status changed")
	return s.ticketRepo.GetByID(ctx, ticket.ID)
}

// SetPriority changes only the priority
func (s *TicketService) SetPriority(ctx context.Context, id, priority string) (*domain.SupportTicket, error) {
	if !domain.IsValidTicketPriority(priority) {
		return nil, domain.ErrInvalidPriority
	}
	if err := s.ticketRepo.UpdateFields(ctx, id, priority, ""); err != nil {
		return nil, err
	}
	return s.ticketRepo.GetByID(ctx, id)
}

// Update changes priority and/or category. Empty values are left unchanged.
func (s *TicketService) Update(ctx context.Context, id, priority, category string) (*domain.TicketDetail, error) {
	if priority != "" && !domain.IsValidTicketPriority(priority) {
		return nil, domain.ErrInvalidPriority
	}
	if category != "" && !domain.IsValidTicketCategory(category) {
		return nil, domain.ErrInvalidCategory
	}
	if err := s.ticketRepo.UpdateFields(ctx, id, priority, category); err != nil {
		return nil, err
	}

	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withOwner(ctx, ticket)
}

// AdminList returns tickets matching filter, newest first, with their owners.
// "all" behaves like an empty filter value.
func (s *TicketService) AdminList(ctx context.Context, filter domain.TicketFilter) ([]*domain.TicketDetail, error) {
	if filter.Status == "all" {
		filter.Status = ""
	}
	if filter.Priority == "all" {
		filter.Priority = ""
	}
	if filter.Category == "all" {
		filter.Category = ""
	}

	tickets, err := s.ticketRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	owners := make(map[string]*domain.User)
	details := make([]*domain.TicketDetail, 0, len(tickets))
	for _, t := range tickets {
		owner, seen := owners[t.UserID]
		if !seen {
			owner, err = s.userRepo.GetByID(ctx, t.UserID)
			if err != nil && !domain.IsNotFound(err) {
				return nil, err
			}
			owners[t.UserID] = owner
		}
		details = append(details, &domain.TicketDetail{SupportTicket: t, User: owner})
	}
	return details, nil
}

// Stats counts tickets per status. Urgent counts urgent tickets not yet closed.
func (s *TicketService) Stats(ctx context.Context) (*domain.TicketStats, error) {
	stats := &domain.TicketStats{}
	g, gctx := errgroup.WithContext(ctx)

	count := func(dst *int64, status, priority, exclude string) {
		g.Go(func() error {
			n, err := s.ticketRepo.Count(gctx, status, priority, exclude)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}

	count(&stats.Total, "", "", "")
	count(&stats.Open, domain.TicketStatusOpen, "", "")
	count(&stats.InProgress, domain.TicketStatusInProgress, "", "")
	count(&stats.Resolved, domain.TicketStatusResolved, "", "")
	count(&stats.Closed, domain.TicketStatusClosed, "", "")
	count(&stats.Urgent, "", domain.TicketPriorityUrgent, domain.TicketStatusClosed)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// notifyAdmins fans a notification out to every admin. Failures are logged;
// the ticket change has already been stored.
func (s *TicketService) notifyAdmins(ctx context.Context, title, message, link string) {
	admins, err := s.userRepo.GetByRole(ctx, domain.RoleAdmin)
	if err != nil {
		log.Error().Err(err).Msg("[Support] failed to load admins for notification")
		return
	}
	if len(admins) == 0 {
		return
	}

	now := s.now().UTC()
	notifications := make([]*domain.Notification, 0, len(admins))
	for _, admin := range admins {
		notifications = append(notifications, &domain.Notification{
			UserID:    admin.ID,
			Title:     title,
			Message:   message,
			Type:      domain.NotificationTypeInfo,
			Link:      link,
			CreatedAt: now,
		})
	}
	if err := s.notificationRepo.CreateMany(ctx, notifications); err != nil {
		log.Error().Err(err).Str("title", title).Msg("[Support] failed to notify admins")
		return
	}
	s.metrics.NotificationCreated(domain.NotificationTypeInfo, len(notifications))
}

func (s *TicketService) notify(ctx context.Context, n *domain.Notification) {
	n.CreatedAt = s.now().UTC()
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		log.Error().Err(err).Str("user_id", n.UserID).Str("title", n.Title).Msg("[Support] failed to notify user")
		return
	}
	s.metrics.NotificationCreated(n.Type, 1)
}
