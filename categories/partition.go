// Package categories splits an event roster into disjoint categories by game
// type, gender and age bracket.
package categories

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Dosada05/tournament-scheduler/models"
)

var (
	ErrNoEvent         = errors.New("event is required for partitioning")
	ErrUnknownGameType = errors.New("unknown game type")
	ErrNothingToMerge  = errors.New("at least two categories are needed to merge")
)

// Result is the outcome of partitioning one event.
type Result struct {
	Categories []models.Category `json:"categories"`
	// Pairs holds every resolved doubles/mixed pair by entrant key.
	Pairs    map[string]models.PairEntry `json:"pairs,omitempty"`
	Excluded []Exclusion                 `json:"excluded,omitempty"`
}

// Entrants returns the entrants of the category with the given key.
func (r *Result) Entrants(key string) []models.EntrantRef {
	for _, c := range r.Categories {
		if c.Tag.Key() == key {
			return c.Entrants
		}
	}
	return nil
}

// Partition computes the categories of an event from its roster.
//
// Open events, and elimination or Swiss events that declare no filters, get
// one category holding everyone. Otherwise every (game type, gender, age
// bracket) combination that has at least one entrant becomes a category.
// Undeclared dimensions are not split on.
func Partition(event *models.Event, roster []models.Participant) (*Result, error) {
	if event == nil {
		return nil, ErrNoEvent
	}
	for _, gt := range event.GameTypes {
		if gt != models.GameSingles && gt != models.GameDoubles && gt != models.GameMixed {
			return nil, fmt.Errorf("%w: %q", ErrUnknownGameType, gt)
		}
	}

	skip := event.Open || ((event.System.Elimination() || event.System == models.SystemSwiss) && !event.HasFilters())
	if skip {
		return openCategory(event, roster), nil
	}

	p := &partitioner{
		event:   event,
		refYear: event.ReferenceYearOrDefault(),
		buckets: map[string]*models.Category{},
		res:     &Result{Pairs: map[string]models.PairEntry{}},
	}

	gameTypes := event.GameTypes
	if len(gameTypes) == 0 {
		gameTypes = []models.GameType{models.GameSingles}
	}
	for _, gt := range gameTypes {
		if gt == models.GameSingles {
			p.singles(roster)
			continue
		}
		p.pairs(roster, gt)
	}

	p.res.Categories = make([]models.Category, 0, len(p.buckets))
	for _, c := range p.buckets {
		p.res.Categories = append(p.res.Categories, *c)
	}
	SortCategories(p.res.Categories, gameTypes, event.Genders)
	return p.res, nil
}

func openCategory(event *models.Event, roster []models.Participant) *Result {
	gt := models.GameSingles
	if len(event.GameTypes) == 1 {
		gt = event.GameTypes[0]
	}
	tag := models.CategoryTag{GameType: gt, Open: true}
	res := &Result{}
	cat := models.Category{Tag: tag, Label: tag.Label()}

	if gt == models.GameSingles {
		for _, p := range roster {
			cat.Entrants = append(cat.Entrants, models.Single(p.ID))
		}
	} else {
		pairs, excluded := ResolvePairs(roster, gt)
		res.Pairs = make(map[string]models.PairEntry, len(pairs))
		res.Excluded = excluded
		for _, pr := range pairs {
			cat.Entrants = append(cat.Entrants, pr.Ref)
			res.Pairs[pr.Ref.Key()] = pr.PairEntry
		}
	}
	if len(cat.Entrants) > 0 {
		res.Categories = []models.Category{cat}
	}
	return res
}

type partitioner struct {
	event   *models.Event
	refYear int
	buckets map[string]*models.Category
	res     *Result
}

func (p *partitioner) exclude(id string, gt models.GameType, reason ExclusionReason) {
	p.res.Excluded = append(p.res.Excluded, Exclusion{ParticipantID: id, GameType: gt, Reason: reason})
}

func (p *partitioner) add(tag models.CategoryTag, e models.EntrantRef) {
	key := tag.Key()
	c, ok := p.buckets[key]
	if !ok {
		c = &models.Category{Tag: tag, Label: tag.Label()}
		p.buckets[key] = c
	}
	c.Entrants = append(c.Entrants, e)
}

func (p *partitioner) genderOffered(g models.Gender) bool {
	if len(p.event.Genders) == 0 {
		return true
	}
	for _, allowed := range p.event.Genders {
		if allowed == g {
			return true
		}
	}
	return false
}

// ageGroup folds a player's bracket down to the highest declared age group
// not above it. ok is false when the player cannot be placed.
func (p *partitioner) ageGroup(part *models.Participant) (models.AgeBracket, ExclusionReason, bool) {
	if len(p.event.AgeGroups) == 0 {
		return 0, "", true
	}
	if part.BirthYear == nil || *part.BirthYear <= 0 {
		return 0, ReasonMissingBirthYear, false
	}
	bracket, ok := models.BracketForAge(p.refYear - *part.BirthYear)
	if !ok {
		return 0, ReasonBelowAgeGroups, false
	}
	return FoldAgeGroup(bracket, p.event.AgeGroups)
}

// FoldAgeGroup picks the highest declared group that does not exceed bracket.
func FoldAgeGroup(bracket models.AgeBracket, declared []models.AgeBracket) (models.AgeBracket, ExclusionReason, bool) {
	best := models.AgeBracket(0)
	for _, g := range declared {
		if g <= bracket && g > best {
			best = g
		}
	}
	if best == 0 {
		return 0, ReasonBelowAgeGroups, false
	}
	return best, "", true
}

func (p *partitioner) singles(roster []models.Participant) {
	for i := range roster {
		part := &roster[i]
		if !plays(part, models.GameSingles) {
			continue
		}
		if !p.genderOffered(part.Gender) {
			p.exclude(part.ID, models.GameSingles, ReasonGenderNotOffered)
			continue
		}
		age, reason, ok := p.ageGroup(part)
		if !ok {
			p.exclude(part.ID, models.GameSingles, reason)
			continue
		}
		tag := models.CategoryTag{GameType: models.GameSingles, AgeBracket: age}
		if len(p.event.Genders) > 0 {
			tag.Gender = part.Gender
		}
		p.add(tag, models.Single(part.ID))
	}
}

func (p *partitioner) pairs(roster []models.Participant, gt models.GameType) {
	pairs, excluded := ResolvePairs(roster, gt)
	p.res.Excluded = append(p.res.Excluded, excluded...)

	for _, pr := range pairs {
		gender := models.GenderMixed
		if gt == models.GameDoubles {
			gender = pr.First.Gender
			if !p.genderOffered(gender) {
				p.exclude(pr.First.ID, gt, ReasonGenderNotOffered)
				p.exclude(pr.Second.ID, gt, ReasonGenderNotOffered)
				continue
			}
		}

		// The pair plays in the younger member's bracket.
		ageA, reasonA, okA := p.ageGroup(pr.First)
		ageB, reasonB, okB := p.ageGroup(pr.Second)
		if !okA || !okB {
			if !okA {
				p.exclude(pr.First.ID, gt, reasonA)
			}
			if !okB {
				p.exclude(pr.Second.ID, gt, reasonB)
			}
			continue
		}
		age := min(ageA, ageB)

		tag := models.CategoryTag{GameType: gt, AgeBracket: age}
		if gt == models.GameMixed {
			tag.Gender = models.GenderMixed
		} else if len(p.event.Genders) > 0 {
			tag.Gender = gender
		}
		entry := pr.PairEntry
		entry.AgeBracket = age
		p.res.Pairs[entry.Ref.Key()] = entry
		p.add(tag, entry.Ref)
	}
}

// SortCategories orders categories by declared game type, then declared
// gender, then age bracket ascending.
func SortCategories(cats []models.Category, gameTypes []models.GameType, genders []models.Gender) {
	rank := func(list []string, v string) int {
		for i, s := range list {
			if s == v {
				return i
			}
		}
		return len(list)
	}
	gts := make([]string, len(gameTypes))
	for i, g := range gameTypes {
		gts[i] = string(g)
	}
	gens := make([]string, len(genders))
	for i, g := range genders {
		gens[i] = string(g)
	}
	gens = append(gens, string(models.GenderMixed))

	sort.SliceStable(cats, func(i, j int) bool {
		a, b := cats[i].Tag, cats[j].Tag
		if ra, rb := rank(gts, string(a.GameType)), rank(gts, string(b.GameType)); ra != rb {
			return ra < rb
		}
		if ra, rb := rank(gens, string(a.Gender)), rank(gens, string(b.Gender)); ra != rb {
			return ra < rb
		}
		return a.AgeBracket < b.AgeBracket
	})
}

// MergeCategories folds several categories into one, keeping the first
// occurrence of every entrant. The merged tag keeps only the dimensions all
// inputs agree on and the youngest age bracket.
func MergeCategories(label string, cats ...models.Category) (models.Category, error) {
	if len(cats) < 2 {
		return models.Category{}, ErrNothingToMerge
	}
	tag := cats[0].Tag
	seen := map[string]bool{}
	var out models.Category
	labels := make([]string, 0, len(cats))
	for _, c := range cats {
		if c.Tag.GameType != tag.GameType {
			return models.Category{}, fmt.Errorf("cannot merge %s with %s: game types differ", cats[0].Label, c.Label)
		}
		if c.Tag.Gender != tag.Gender {
			tag.Gender = models.GenderMixed
		}
		if c.Tag.AgeBracket < tag.AgeBracket {
			tag.AgeBracket = c.Tag.AgeBracket
		}
		labels = append(labels, c.Label)
		for _, e := range c.Entrants {
			if !seen[e.Key()] {
				seen[e.Key()] = true
				out.Entrants = append(out.Entrants, e)
			}
		}
	}
	tag.Open = false
	out.Tag = tag
	out.Label = label
	if out.Label == "" {
		out.Label = strings.Join(labels, " + ")
	}
	return out, nil
}
