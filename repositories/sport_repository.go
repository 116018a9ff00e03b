package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/Dosada05/tournament-scheduler/models"
)

var ErrSportNotFound = errors.New("sport not found")

// SportRuleRepository stores organizer overrides of the sport catalogue.
type SportRuleRepository interface {
	Upsert(ctx context.Context, rules models.SportRules) error
	GetByName(ctx context.Context, name string) (*models.SportRules, error)
	GetAll(ctx context.Context) ([]models.SportRules, error)
}

type sportRuleDocument struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	models.SportRules
}

type sportRuleRepository struct {
	docs collection[sportRuleDocument]
}

func NewSportRuleRepository(store DocumentStore) SportRuleRepository {
	return &sportRuleRepository{docs: newCollection[sportRuleDocument](store, CollectionSportRules, ErrSportNotFound)}
}

// SportKey normalizes a sport name into its document id.
func SportKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *sportRuleRepository) Upsert(ctx context.Context, rules models.SportRules) error {
	id := SportKey(rules.Name)
	for {
		current, err := r.docs.get(ctx, id)
		if errors.Is(err, ErrSportNotFound) {
			err = r.docs.insert(ctx, id, &sportRuleDocument{ID: id, SportRules: rules})
			if errors.Is(err, ErrDuplicateDocument) {
				continue
			}
			return err
		}
		if err != nil {
			return err
		}
		err = r.docs.replace(ctx, id, current.Version, &sportRuleDocument{ID: id, Version: current.Version, SportRules: rules})
		if errors.Is(err, ErrConflictingUpdate) {
			continue
		}
		return err
	}
}

func (r *sportRuleRepository) GetByName(ctx context.Context, name string) (*models.SportRules, error) {
	doc, err := r.docs.get(ctx, SportKey(name))
	if err != nil {
		return nil, err
	}
	return &doc.SportRules, nil
}

func (r *sportRuleRepository) GetAll(ctx context.Context) ([]models.SportRules, error) {
	docs, err := r.docs.find(ctx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]models.SportRules, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.SportRules)
	}
	return out, nil
}
