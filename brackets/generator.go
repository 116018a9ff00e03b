package brackets

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/Dosada05/tournament-scheduler/models"
)

var (
	ErrTooFewEntrants    = errors.New("at least two entrants are required")
	ErrDuplicateEntrant  = errors.New("entrant appears more than once")
	ErrUnsupportedSystem = errors.New("unsupported match system")
	ErrByeAgainstBye     = errors.New("two byes met in one bracket slot pair")
)

// Pairing is one generated match row. A or B is nil when the slot is not yet
// known (placeholder shells of later rounds).
type Pairing struct {
	UID       string             `json:"uid"`
	Round     int                `json:"round"`
	Index     int                `json:"index"`
	Bracket   models.BracketSide `json:"bracket"`
	RoundName string             `json:"round_name"`
	Stage     models.Stage       `json:"stage"`
	Group     string             `json:"group,omitempty"`

	A *models.EntrantRef `json:"a"`
	B *models.EntrantRef `json:"b"`

	SourceA string `json:"source_a,omitempty"`
	SourceB string `json:"source_b,omitempty"`
}

func (p Pairing) Placeholder() bool {
	return p.A == nil || p.B == nil
}

// GroupSplit is a child group produced by the group-stage generator.
type GroupSplit struct {
	Name     string              `json:"name"`
	Entrants []models.EntrantRef `json:"entrants"`
}

// Fixture is everything a generator produced for one group.
type Fixture struct {
	System   models.MatchSystem `json:"system"`
	Pairings []Pairing          `json:"pairings"`
	Bracket  *models.Bracket    `json:"bracket,omitempty"`
	Groups   []GroupSplit       `json:"groups,omitempty"`
	// RoundByes lists the entrant sitting out each round-robin round.
	RoundByes map[int]models.EntrantRef `json:"round_byes,omitempty"`
	Excluded  []Pairing                 `json:"excluded,omitempty"`
	Rounds    int                       `json:"rounds"`
}

// Round returns the pairings of one round in index order.
func (f *Fixture) Round(round int, side models.BracketSide) []Pairing {
	var out []Pairing
	for _, p := range f.Pairings {
		if p.Round == round && p.Bracket == side {
			out = append(out, p)
		}
	}
	return out
}

// Playable returns the pairings that have both entrants.
func (f *Fixture) Playable() []Pairing {
	var out []Pairing
	for _, p := range f.Pairings {
		if !p.Placeholder() {
			out = append(out, p)
		}
	}
	return out
}

// GenerateParams is the input of every generator. Entrants must be in seed
// order: index 0 is rank 1.
type GenerateParams struct {
	Entrants  []models.EntrantRef
	GroupSize int
	// SwissRounds overrides the planned Swiss round count.
	SwissRounds int
	Rand        *rand.Rand
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateParams) (*Fixture, error)

	GetName() string
}

// NewGenerator returns the generator of a match system.
func NewGenerator(system models.MatchSystem) (BracketGenerator, error) {
	switch system {
	case models.SystemRoundRobin:
		return NewRoundRobinGenerator(false), nil
	case models.SystemDoubleRoundRobin:
		return NewRoundRobinGenerator(true), nil
	case models.SystemSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.SystemDoubleElimination:
		return NewDoubleEliminationGenerator(), nil
	case models.SystemSwiss:
		return NewSwissGenerator(), nil
	case models.SystemGroupStage:
		return NewGroupStageGenerator(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedSystem, system)
}

func validateEntrants(entrants []models.EntrantRef) error {
	if len(entrants) < 2 {
		return fmt.Errorf("%w (found %d)", ErrTooFewEntrants, len(entrants))
	}
	seen := make(map[string]struct{}, len(entrants))
	for _, e := range entrants {
		if err := e.Validate(); err != nil {
			return err
		}
		if _, dup := seen[e.Key()]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateEntrant, e.Key())
		}
		seen[e.Key()] = struct{}{}
	}
	return nil
}

func refPtr(e models.EntrantRef) *models.EntrantRef {
	return &e
}
