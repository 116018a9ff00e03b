package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/tournament-scheduler/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	Create(ctx context.Context, m *models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	ListByGroup(ctx context.Context, groupID string) ([]*models.Match, error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.Match, error)
	ListByStatus(ctx context.Context, status models.MatchStatus) ([]*models.Match, error)
	// Update is a compare-and-swap on m.Version; ErrConflictingUpdate means
	// another writer got there first and the caller must reload.
	Update(ctx context.Context, m *models.Match) error
	// MarkStandingsApplied flips standings_updated from false to true on a
	// completed match at m.Version and stores the contribution. It returns
	// false when the guard no longer holds.
	MarkStandingsApplied(ctx context.Context, m *models.Match, c *models.Contribution) (bool, error)
	// ClearStandingsApplied is the reverse guard used by corrections.
	ClearStandingsApplied(ctx context.Context, m *models.Match) (bool, error)
	DeleteByGroup(ctx context.Context, groupID string) (int64, error)
}

type matchRepository struct {
	docs collection[models.Match]
}

func NewMatchRepository(store DocumentStore) MatchRepository {
	return &matchRepository{docs: newCollection[models.Match](store, CollectionMatches, ErrMatchNotFound)}
}

func (r *matchRepository) Create(ctx context.Context, m *models.Match) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	return r.docs.insert(ctx, m.ID, m)
}

func (r *matchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	return r.docs.get(ctx, id)
}

func (r *matchRepository) ListByGroup(ctx context.Context, groupID string) ([]*models.Match, error) {
	return r.docs.find(ctx, Filter{"group_id": groupID})
}

func (r *matchRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Match, error) {
	return r.docs.find(ctx, Filter{"event_id": eventID})
}

func (r *matchRepository) ListByStatus(ctx context.Context, status models.MatchStatus) ([]*models.Match, error) {
	return r.docs.find(ctx, Filter{"status": status})
}

func (r *matchRepository) Update(ctx context.Context, m *models.Match) error {
	if err := r.docs.replace(ctx, m.ID, m.Version, m); err != nil {
		return err
	}
	m.Version++
	return nil
}

func (r *matchRepository) MarkStandingsApplied(ctx context.Context, m *models.Match, c *models.Contribution) (bool, error) {
	ok, err := r.docs.patch(ctx, m.ID,
		Filter{"version": m.Version, "standings_updated": false, "status": models.MatchCompleted},
		Patch{"standings_updated": true, "applied": c, "version": m.Version + 1},
	)
	if err != nil || !ok {
		return false, err
	}
	m.StandingsUpdated = true
	m.Applied = c
	m.Version++
	return true, nil
}

func (r *matchRepository) ClearStandingsApplied(ctx context.Context, m *models.Match) (bool, error) {
	ok, err := r.docs.patch(ctx, m.ID,
		Filter{"version": m.Version, "standings_updated": true},
		Patch{"standings_updated": false, "applied": nil, "version": m.Version + 1},
	)
	if err != nil || !ok {
		return false, err
	}
	m.StandingsUpdated = false
	m.Applied = nil
	m.Version++
	return true, nil
}

func (r *matchRepository) DeleteByGroup(ctx context.Context, groupID string) (int64, error) {
	return r.docs.remove(ctx, Filter{"group_id": groupID})
}
