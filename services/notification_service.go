package services

import (
	"context"

	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/repositories"
)

// NotificationService is the inbox view over stored notifications.
type NotificationService interface {
	Inbox(ctx context.Context, actor models.Actor, unreadOnly bool) ([]*models.Notification, error)
	MarkRead(ctx context.Context, actor models.Actor, id string) error
}

type notificationService struct {
	repo repositories.NotificationRepository
}

func NewNotificationService(repo repositories.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) Inbox(ctx context.Context, actor models.Actor, unreadOnly bool) ([]*models.Notification, error) {
	list, err := s.repo.ListByRecipient(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !unreadOnly {
		return list, nil
	}
	out := list[:0]
	for _, n := range list {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out, nil
}

// MarkRead only touches the caller's own notifications; anything else looks
// missing.
func (s *notificationService) MarkRead(ctx context.Context, actor models.Actor, id string) error {
	return notFound(s.repo.MarkRead(ctx, id, actor.UserID))
}
