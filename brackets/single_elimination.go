package brackets

import (
	"context"
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-scheduler/models"
)

type node struct {
	entrant   *models.EntrantRef
	sourceUID string
	bye       bool
}

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket seeds the entrants into a power-of-two bracket. Round 1
// only holds real matches: a bye-holder is written straight into its round 2
// slot. Later rounds are shells, halving down to the final.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateParams) (*Fixture, error) {
	pairings, bracket, err := buildEliminationTree(params.Entrants, models.SideNone, "")
	if err != nil {
		return nil, fmt.Errorf("SingleEliminationGenerator: %w", err)
	}
	return &Fixture{
		System:   models.SystemSingleElimination,
		Pairings: pairings,
		Bracket:  bracket,
		Rounds:   bracket.WinnersRounds,
	}, nil
}

func buildEliminationTree(ranked []models.EntrantRef, side models.BracketSide, uidPrefix string) ([]Pairing, *models.Bracket, error) {
	bracket, err := SeedBracket(ranked)
	if err != nil {
		return nil, nil, err
	}
	n := len(ranked)

	current := make([]*node, bracket.Size)
	for slot, seed := range bracket.SlotSeeds {
		if seed > n {
			current[slot] = &node{bye: true}
			continue
		}
		current[slot] = &node{entrant: refPtr(ranked[seed-1])}
	}

	pairings := make([]Pairing, 0, bracket.Size-1)
	for r := 1; r <= bracket.WinnersRounds; r++ {
		matchesInRound := len(current) / 2
		next := make([]*node, 0, matchesInRound)
		for idx := 0; idx < matchesInRound; idx++ {
			n1, n2 := current[2*idx], current[2*idx+1]
			if n1.bye && n2.bye {
				return nil, nil, fmt.Errorf("%w: round %d, match %d", ErrByeAgainstBye, r, idx+1)
			}
			if n1.bye {
				next = append(next, &node{entrant: n2.entrant})
				continue
			}
			if n2.bye {
				next = append(next, &node{entrant: n1.entrant})
				continue
			}

			uid := fmt.Sprintf("%sR%dM%d", uidPrefix, r, idx+1)
			p := Pairing{
				UID:       uid,
				Round:     r,
				Index:     idx,
				Bracket:   side,
				RoundName: EliminationRoundName(r, matchesInRound),
				Stage:     eliminationStage(matchesInRound),
				A:         n1.entrant,
				B:         n2.entrant,
				SourceA:   n1.sourceUID,
				SourceB:   n2.sourceUID,
			}
			if side != models.SideNone {
				p.RoundName = SideRoundName(side, r, matchesInRound)
			}
			pairings = append(pairings, p)
			next = append(next, &node{sourceUID: uid})
		}
		current = next
	}
	if len(current) != 1 {
		return nil, nil, fmt.Errorf("internal error: %d nodes left after the final", len(current))
	}

	sort.SliceStable(pairings, func(i, j int) bool {
		if pairings[i].Round != pairings[j].Round {
			return pairings[i].Round < pairings[j].Round
		}
		return pairings[i].Index < pairings[j].Index
	})
	return pairings, bracket, nil
}
