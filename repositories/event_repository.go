package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/tournament-scheduler/models"
)

var ErrEventNotFound = errors.New("event not found")

type EventRepository interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context) ([]*models.Event, error)
	Update(ctx context.Context, e *models.Event) error
}

type eventRepository struct {
	docs collection[models.Event]
}

func NewEventRepository(store DocumentStore) EventRepository {
	return &eventRepository{docs: newCollection[models.Event](store, CollectionEvents, ErrEventNotFound)}
}

func (r *eventRepository) Create(ctx context.Context, e *models.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return r.docs.insert(ctx, e.ID, e)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	return r.docs.get(ctx, id)
}

func (r *eventRepository) List(ctx context.Context) ([]*models.Event, error) {
	return r.docs.find(ctx, nil)
}

func (r *eventRepository) Update(ctx context.Context, e *models.Event) error {
	if err := r.docs.replace(ctx, e.ID, e.Version, e); err != nil {
		return err
	}
	e.Version++
	return nil
}
