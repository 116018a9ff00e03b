package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/tournament-scheduler/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ExistsByDedupeKey(ctx context.Context, key string) (bool, error)
	ListByRecipient(ctx context.Context, recipientID string) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, recipientID string) error
}

type notificationRepository struct {
	docs collection[models.Notification]
}

func NewNotificationRepository(store DocumentStore) NotificationRepository {
	return &notificationRepository{docs: newCollection[models.Notification](store, CollectionNotifications, ErrNotificationNotFound)}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	switch {
	case n.ID != "":
	case n.DedupeKey != "":
		// Keyed notifications collide on insert, so racing producers
		// store one copy.
		n.ID = "dedupe:" + n.DedupeKey
	default:
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return r.docs.insert(ctx, n.ID, n)
}

func (r *notificationRepository) ExistsByDedupeKey(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	found, err := r.docs.find(ctx, Filter{"dedupe_key": key})
	if err != nil {
		return false, err
	}
	return len(found) > 0, nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string) ([]*models.Notification, error) {
	return r.docs.find(ctx, Filter{"recipient_id": recipientID})
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	n, err := r.docs.store.Update(ctx, CollectionNotifications, Filter{"id": id, "recipient_id": recipientID}, Patch{"read": true})
	return checkAffected(n, err, ErrNotificationNotFound)
}
