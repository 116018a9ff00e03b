package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/tournament-scheduler/models"
)

var ErrCorrectionNotFound = errors.New("score correction not found")

// CorrectionRepository is the append-only audit log of score corrections.
type CorrectionRepository interface {
	Create(ctx context.Context, c *models.ScoreCorrection) error
	ListByMatch(ctx context.Context, matchID string) ([]*models.ScoreCorrection, error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.ScoreCorrection, error)
}

type correctionRepository struct {
	docs collection[models.ScoreCorrection]
}

func NewCorrectionRepository(store DocumentStore) CorrectionRepository {
	return &correctionRepository{docs: newCollection[models.ScoreCorrection](store, CollectionCorrections, ErrCorrectionNotFound)}
}

func (r *correctionRepository) Create(ctx context.Context, c *models.ScoreCorrection) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return r.docs.insert(ctx, c.ID, c)
}

func (r *correctionRepository) ListByMatch(ctx context.Context, matchID string) ([]*models.ScoreCorrection, error) {
	return r.docs.find(ctx, Filter{"match_id": matchID})
}

func (r *correctionRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.ScoreCorrection, error) {
	return r.docs.find(ctx, Filter{"event_id": eventID})
}
