package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/repositories"
)

// SportRulesProvider resolves a sport name to its scoring rules.
type SportRulesProvider interface {
	Rules(ctx context.Context, sport string) (models.SportRules, error)
	// All lists the catalogue with stored overrides applied.
	All(ctx context.Context) ([]models.SportRules, error)
	// Override stores admin rules for a sport, replacing the catalogue entry.
	Override(ctx context.Context, actor models.Actor, rules models.SportRules) error
}

type sportRulesProvider struct {
	repo      repositories.SportRuleRepository
	catalogue map[string]models.SportRules
	logger    *slog.Logger
}

// NewSportRulesProvider looks up organizer overrides in the store first,
// then the configured catalogue, then falls back to 3/0/1 points.
func NewSportRulesProvider(repo repositories.SportRuleRepository, catalogue []models.SportRules, logger *slog.Logger) SportRulesProvider {
	byName := make(map[string]models.SportRules, len(catalogue))
	for _, r := range catalogue {
		byName[repositories.SportKey(r.Name)] = r
	}
	return &sportRulesProvider{repo: repo, catalogue: byName, logger: logger}
}

func (p *sportRulesProvider) Rules(ctx context.Context, sport string) (models.SportRules, error) {
	if p.repo != nil {
		r, err := p.repo.GetByName(ctx, sport)
		switch {
		case err == nil:
			return *r, nil
		case !errors.Is(err, repositories.ErrSportNotFound):
			return models.SportRules{}, err
		}
	}
	if r, ok := p.catalogue[repositories.SportKey(sport)]; ok {
		return r, nil
	}
	p.logger.Debug("no rules configured for sport, using defaults", slog.String("sport", sport))
	return models.DefaultSportRules(sport), nil
}

func (p *sportRulesProvider) All(ctx context.Context) ([]models.SportRules, error) {
	merged := make(map[string]models.SportRules, len(p.catalogue))
	for k, r := range p.catalogue {
		merged[k] = r
	}
	if p.repo != nil {
		stored, err := p.repo.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range stored {
			merged[repositories.SportKey(r.Name)] = r
		}
	}
	out := make([]models.SportRules, 0, len(merged))
	for _, r := range merged {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return repositories.SportKey(out[i].Name) < repositories.SportKey(out[j].Name) })
	return out, nil
}

func (p *sportRulesProvider) Override(ctx context.Context, actor models.Actor, rules models.SportRules) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: admin rights required", ErrForbidden)
	}
	rules.Name = strings.TrimSpace(rules.Name)
	switch {
	case rules.Name == "":
		return fmt.Errorf("%w: sport name is required", ErrValidation)
	case rules.UsesSets && rules.MaxSets > 0 && rules.MaxSets%2 == 0:
		return fmt.Errorf("%w: max sets must be odd, got %d", ErrValidation, rules.MaxSets)
	case rules.MaxSets < 0:
		return fmt.Errorf("%w: max sets cannot be negative", ErrValidation)
	}
	if p.repo == nil {
		return fmt.Errorf("%w: sport overrides are not stored", ErrValidation)
	}
	if err := p.repo.Upsert(ctx, rules); err != nil {
		return err
	}
	p.logger.Info("sport rules overridden", slog.String("sport", rules.Name))
	return nil
}
