package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/Dosada05/tournament-scheduler/models"
)

var ErrStandingNotFound = errors.New("standing not found")

type StandingRepository interface {
	// GetOrCreate returns the row of an entrant in a group, inserting an
	// empty one first if needed. Concurrent callers end up with the same row.
	GetOrCreate(ctx context.Context, eventID, groupID string, entrant models.EntrantRef) (*models.Standing, error)
	Get(ctx context.Context, groupID, entrantKey string) (*models.Standing, error)
	ListByGroup(ctx context.Context, groupID string) ([]*models.Standing, error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.Standing, error)
	// Update is a compare-and-swap on s.Version.
	Update(ctx context.Context, s *models.Standing) error
	DeleteByGroup(ctx context.Context, groupID string) (int64, error)
}

type standingRepository struct {
	docs collection[models.Standing]
}

func NewStandingRepository(store DocumentStore) StandingRepository {
	return &standingRepository{docs: newCollection[models.Standing](store, CollectionStandings, ErrStandingNotFound)}
}

// StandingID is deterministic so one entrant never gets two rows in a group.
func StandingID(groupID, entrantKey string) string {
	return groupID + ":" + entrantKey
}

func (r *standingRepository) GetOrCreate(ctx context.Context, eventID, groupID string, entrant models.EntrantRef) (*models.Standing, error) {
	id := StandingID(groupID, entrant.Key())
	s, err := r.docs.get(ctx, id)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrStandingNotFound) {
		return nil, err
	}
	s = &models.Standing{
		ID:        id,
		EventID:   eventID,
		GroupID:   groupID,
		Entrant:   entrant,
		EntrantK:  entrant.Key(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := r.docs.insert(ctx, id, s); err != nil {
		if errors.Is(err, ErrDuplicateDocument) {
			return r.docs.get(ctx, id)
		}
		return nil, err
	}
	return s, nil
}

func (r *standingRepository) Get(ctx context.Context, groupID, entrantKey string) (*models.Standing, error) {
	return r.docs.get(ctx, StandingID(groupID, entrantKey))
}

func (r *standingRepository) ListByGroup(ctx context.Context, groupID string) ([]*models.Standing, error) {
	return r.docs.find(ctx, Filter{"group_id": groupID})
}

func (r *standingRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Standing, error) {
	return r.docs.find(ctx, Filter{"event_id": eventID})
}

func (r *standingRepository) Update(ctx context.Context, s *models.Standing) error {
	s.UpdatedAt = time.Now().UTC()
	if err := r.docs.replace(ctx, s.ID, s.Version, s); err != nil {
		return err
	}
	s.Version++
	return nil
}

func (r *standingRepository) DeleteByGroup(ctx context.Context, groupID string) (int64, error) {
	return r.docs.remove(ctx, Filter{"group_id": groupID})
}
