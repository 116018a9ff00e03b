package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/tournament-scheduler/models"
)

var ErrParticipantNotFound = errors.New("participant not found")

type ParticipantRepository interface {
	Create(ctx context.Context, p *models.Participant) error
	GetByID(ctx context.Context, id string) (*models.Participant, error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.Participant, error)
	Update(ctx context.Context, p *models.Participant) error
	Delete(ctx context.Context, id string) error
}

type participantRepository struct {
	docs collection[models.Participant]
}

func NewParticipantRepository(store DocumentStore) ParticipantRepository {
	return &participantRepository{docs: newCollection[models.Participant](store, CollectionParticipants, ErrParticipantNotFound)}
}

func (r *participantRepository) Create(ctx context.Context, p *models.Participant) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return r.docs.insert(ctx, p.ID, p)
}

func (r *participantRepository) GetByID(ctx context.Context, id string) (*models.Participant, error) {
	return r.docs.get(ctx, id)
}

// ListByEvent returns the roster in registration order.
func (r *participantRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Participant, error) {
	return r.docs.find(ctx, Filter{"event_id": eventID})
}

func (r *participantRepository) Update(ctx context.Context, p *models.Participant) error {
	if err := r.docs.replace(ctx, p.ID, p.Version, p); err != nil {
		return err
	}
	p.Version++
	return nil
}

func (r *participantRepository) Delete(ctx context.Context, id string) error {
	n, err := r.docs.remove(ctx, Filter{"id": id})
	return checkAffected(n, err, ErrParticipantNotFound)
}
