package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-scheduler/models"
)

type DoubleEliminationGenerator struct{}

func NewDoubleEliminationGenerator() BracketGenerator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) GetName() string {
	return "DoubleElimination"
}

// GenerateBracket lays out the winners side like a single elimination
// bracket, then reserves empty losers rounds and a grand-final slot. Only
// the shape is produced here; losers matches are filled by live progression.
func (g *DoubleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateParams) (*Fixture, error) {
	pairings, bracket, err := buildEliminationTree(params.Entrants, models.SideWinners, "W")
	if err != nil {
		return nil, fmt.Errorf("DoubleEliminationGenerator: %w", err)
	}

	lbRounds := LosersRounds(bracket.WinnersRounds)
	for r := 1; r <= lbRounds; r++ {
		count := LosersRoundSize(bracket.Size, r)
		for idx := 0; idx < count; idx++ {
			pairings = append(pairings, Pairing{
				UID:       fmt.Sprintf("LR%dM%d", r, idx+1),
				Round:     r,
				Index:     idx,
				Bracket:   models.SideLosers,
				RoundName: SideRoundName(models.SideLosers, r, count),
			})
		}
	}
	pairings = append(pairings, Pairing{
		UID:       "GF1",
		Round:     1,
		Bracket:   models.SideGrandFinal,
		RoundName: SideRoundName(models.SideGrandFinal, 1, 1),
		Stage:     models.StageFinal,
	})

	return &Fixture{
		System:   models.SystemDoubleElimination,
		Pairings: pairings,
		Bracket:  bracket,
		Rounds:   bracket.WinnersRounds,
	}, nil
}

// LosersRounds is the number of losers rounds for a winners side with the
// given number of rounds: two per winners round after the first.
func LosersRounds(winnersRounds int) int {
	if winnersRounds <= 1 {
		return 0
	}
	return 2 * (winnersRounds - 1)
}

// LosersRoundSize is the match count of a full losers round.
func LosersRoundSize(bracketSize, round int) int {
	shift := (round+1)/2 + 1
	size := bracketSize >> shift
	if size < 1 {
		return 1
	}
	return size
}

// LosersFeedRound is the winners round whose losers drop into the given
// losers round: round 1 takes winners round 1, even round r takes winners
// round r/2+1, odd rounds after the first take nobody (0).
func LosersFeedRound(losersRound int) int {
	switch {
	case losersRound == 1:
		return 1
	case losersRound%2 == 0:
		return losersRound/2 + 1
	}
	return 0
}

// DropRound is the losers round a loser of the given winners round enters.
func DropRound(winnersRound int) int {
	if winnersRound <= 1 {
		return 1
	}
	return 2 * (winnersRound - 1)
}
