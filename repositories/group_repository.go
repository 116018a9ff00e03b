package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/tournament-scheduler/models"
)

var ErrGroupNotFound = errors.New("group not found")

type GroupRepository interface {
	Create(ctx context.Context, g *models.Group) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.Group, error)
	ListByCategory(ctx context.Context, eventID string, tag models.CategoryTag) ([]*models.Group, error)
	Update(ctx context.Context, g *models.Group) error
	Delete(ctx context.Context, id string) error
}

type groupRepository struct {
	docs collection[models.Group]
}

func NewGroupRepository(store DocumentStore) GroupRepository {
	return &groupRepository{docs: newCollection[models.Group](store, CollectionGroups, ErrGroupNotFound)}
}

func (r *groupRepository) Create(ctx context.Context, g *models.Group) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	return r.docs.insert(ctx, g.ID, g)
}

func (r *groupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	return r.docs.get(ctx, id)
}

func (r *groupRepository) ListByEvent(ctx context.Context, eventID string) ([]*models.Group, error) {
	return r.docs.find(ctx, Filter{"event_id": eventID})
}

// ListByCategory compares structured keys in Go: containment on the tag
// object would let a tag without an age bracket match every bracket.
func (r *groupRepository) ListByCategory(ctx context.Context, eventID string, tag models.CategoryTag) ([]*models.Group, error) {
	all, err := r.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Group, 0, len(all))
	for _, g := range all {
		if g.Category.Key() == tag.Key() {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *groupRepository) Update(ctx context.Context, g *models.Group) error {
	if err := r.docs.replace(ctx, g.ID, g.Version, g); err != nil {
		return err
	}
	g.Version++
	return nil
}

func (r *groupRepository) Delete(ctx context.Context, id string) error {
	n, err := r.docs.remove(ctx, Filter{"id": id})
	return checkAffected(n, err, ErrGroupNotFound)
}
