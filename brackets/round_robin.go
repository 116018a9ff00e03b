package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-scheduler/models"
)

type RoundRobinGenerator struct {
	double bool
}

func NewRoundRobinGenerator(double bool) BracketGenerator {
	return &RoundRobinGenerator{double: double}
}

func (g *RoundRobinGenerator) GetName() string {
	if g.double {
		return "DoubleRoundRobin"
	}
	return "RoundRobin"
}

// GenerateBracket pairs everyone with everyone using the circle method.
// A double round robin appends a second leg with home and away swapped and
// round numbers continuing after the first leg.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateParams) (*Fixture, error) {
	if err := validateEntrants(params.Entrants); err != nil {
		return nil, fmt.Errorf("RoundRobinGenerator: %w", err)
	}

	rounds := RoundRobin(params.Entrants)
	f := &Fixture{System: models.SystemRoundRobin, RoundByes: make(map[int]models.EntrantRef)}
	if g.double {
		f.System = models.SystemDoubleRoundRobin
	}

	for ri, round := range rounds {
		for i, pr := range round.Pairs {
			f.Pairings = append(f.Pairings, leaguePairing(ri+1, i, pr[0], pr[1], "L1"))
		}
		if round.Bye != nil {
			f.RoundByes[ri+1] = *round.Bye
		}
	}
	f.Rounds = len(rounds)

	if g.double {
		offset := len(rounds)
		for ri, round := range rounds {
			for i, pr := range round.Pairs {
				f.Pairings = append(f.Pairings, leaguePairing(offset+ri+1, i, pr[1], pr[0], "L2"))
			}
			if round.Bye != nil {
				f.RoundByes[offset+ri+1] = *round.Bye
			}
		}
		f.Rounds = 2 * len(rounds)
	}
	return f, nil
}

func leaguePairing(round, index int, a, b models.EntrantRef, leg string) Pairing {
	return Pairing{
		UID:       fmt.Sprintf("%s-R%dM%d", leg, round, index+1),
		Round:     round,
		Index:     index,
		RoundName: LeagueRoundName(round),
		A:         refPtr(a),
		B:         refPtr(b),
	}
}

// RRRound is one round of the circle method.
type RRRound struct {
	Pairs [][2]models.EntrantRef
	Bye   *models.EntrantRef
}

// RoundRobin runs the circle method. With an odd count a BYE placeholder is
// appended; whoever meets it sits the round out. The first entry stays
// fixed and the rest rotate: [p0, pN-1, p1 ... pN-2].
func RoundRobin(entrants []models.EntrantRef) []RRRound {
	slots := make([]*models.EntrantRef, len(entrants), len(entrants)+1)
	for i := range entrants {
		slots[i] = refPtr(entrants[i])
	}
	if len(slots)%2 == 1 {
		slots = append(slots, nil)
	}
	n := len(slots)
	if n < 2 {
		return nil
	}

	rounds := make([]RRRound, 0, n-1)
	for r := 0; r < n-1; r++ {
		var round RRRound
		for i := 0; i < n/2; i++ {
			a, b := slots[i], slots[n-1-i]
			switch {
			case a == nil && b != nil:
				round.Bye = b
			case b == nil && a != nil:
				round.Bye = a
			case a != nil && b != nil:
				round.Pairs = append(round.Pairs, [2]models.EntrantRef{*a, *b})
			}
		}
		rounds = append(rounds, round)

		rotated := make([]*models.EntrantRef, 0, n)
		rotated = append(rotated, slots[0], slots[n-1])
		rotated = append(rotated, slots[1:n-1]...)
		slots = rotated
	}
	return rounds
}
