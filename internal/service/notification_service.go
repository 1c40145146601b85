package service

import (
	"context"

	"github.com/mansoorceksport/bluefin/internal/domain"
)

// NotificationListLimit caps how many notifications a user sees
const NotificationListLimit = 50

// NotificationService exposes a user's notification inbox
type NotificationService struct {
	notificationRepo domain.NotificationRepository
}

func NewNotificationService(notificationRepo domain.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

func (s *NotificationService) List(ctx context.Context, userID string) ([]*domain.Notification, error) {
	return s.notificationRepo.GetRecentByUserID(ctx, userID, NotificationListLimit)
}

// MarkRead marks one of the actor's own notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) (*domain.Notification, error) {
	n, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, domain.ErrForbidden
	}
	if err := s.notificationRepo.MarkRead(ctx, id); err != nil {
		return nil, err
	}
	n.Read = true
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}
