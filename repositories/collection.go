package repositories

import (
	"context"
	"errors"
	"fmt"
)

const (
	CollectionEvents        = "events"
	CollectionParticipants  = "participants"
	CollectionGroups        = "groups"
	CollectionMatches       = "matches"
	CollectionStandings     = "standings"
	CollectionSportRules    = "sport_rules"
	CollectionNotifications = "notifications"
	CollectionCorrections   = "score_corrections"
)

// collection is the typed view over one DocumentStore collection. Documents
// carry an "id" and a "version"; replace is a compare-and-swap on version.
type collection[T any] struct {
	store    DocumentStore
	name     string
	notFound error
}

func newCollection[T any](store DocumentStore, name string, notFound error) collection[T] {
	return collection[T]{store: store, name: name, notFound: notFound}
}

func (c collection[T]) get(ctx context.Context, id string) (*T, error) {
	var doc T
	err := c.store.FindOne(ctx, c.name, Filter{"id": id}, &doc)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return nil, fmt.Errorf("%w: %s", c.notFound, id)
		}
		return nil, err
	}
	return &doc, nil
}

func (c collection[T]) find(ctx context.Context, filter Filter) ([]*T, error) {
	var docs []T
	if err := c.store.Find(ctx, c.name, filter, &docs); err != nil {
		return nil, err
	}
	out := make([]*T, len(docs))
	for i := range docs {
		out[i] = &docs[i]
	}
	return out, nil
}

func (c collection[T]) insert(ctx context.Context, id string, doc *T) error {
	return c.store.Insert(ctx, c.name, id, doc)
}

// replace overwrites the stored document if it is still at version and
// bumps the stored version. The caller bumps its own copy on success.
func (c collection[T]) replace(ctx context.Context, id string, version int, doc *T) error {
	patch, err := toObject(doc)
	if err != nil {
		return err
	}
	patch["version"] = version + 1
	n, err := c.store.Update(ctx, c.name, Filter{"id": id, "version": version}, Patch(patch))
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	return c.missOrConflict(ctx, id)
}

// patch is a conditional partial update. It returns false when the document
// exists but cond no longer holds.
func (c collection[T]) patch(ctx context.Context, id string, cond Filter, p Patch) (bool, error) {
	filter := Filter{"id": id}
	for k, v := range cond {
		filter[k] = v
	}
	n, err := c.store.Update(ctx, c.name, filter, p)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	if err := c.missOrConflict(ctx, id); !errors.Is(err, ErrConflictingUpdate) {
		return false, err
	}
	return false, nil
}

func (c collection[T]) missOrConflict(ctx context.Context, id string) error {
	var current map[string]any
	err := c.store.FindOne(ctx, c.name, Filter{"id": id}, &current)
	if errors.Is(err, ErrDocumentNotFound) {
		return fmt.Errorf("%w: %s", c.notFound, id)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s/%s", ErrConflictingUpdate, c.name, id)
}

func (c collection[T]) remove(ctx context.Context, filter Filter) (int64, error) {
	return c.store.Delete(ctx, c.name, filter)
}
