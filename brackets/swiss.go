package brackets

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/Dosada05/tournament-scheduler/models"
)

type SwissGenerator struct{}

func NewSwissGenerator() BracketGenerator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) GetName() string {
	return "Swiss"
}

// DefaultSwissRounds is ceil(log2 n), the usual count to separate a winner.
func DefaultSwissRounds(n int) int {
	rounds := 0
	for size := 1; size < n; size <<= 1 {
		rounds++
	}
	if rounds == 0 {
		return 1
	}
	return rounds
}

// GenerateBracket pairs round 1 at random. An odd roster gives the bye to the
// lowest-ranked entrant. Later rounds are placeholders; they are paired live
// from standings by PairSwissRound.
func (g *SwissGenerator) GenerateBracket(ctx context.Context, params GenerateParams) (*Fixture, error) {
	if err := validateEntrants(params.Entrants); err != nil {
		return nil, fmt.Errorf("SwissGenerator: %w", err)
	}
	rng := params.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	totalRounds := params.SwissRounds
	if totalRounds <= 0 {
		totalRounds = DefaultSwissRounds(len(params.Entrants))
	}

	pool := append([]models.EntrantRef(nil), params.Entrants...)
	f := &Fixture{System: models.SystemSwiss, Rounds: totalRounds, RoundByes: make(map[int]models.EntrantRef)}
	if len(pool)%2 == 1 {
		f.RoundByes[1] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]
	}
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	for i := 0; i+1 < len(pool); i += 2 {
		f.Pairings = append(f.Pairings, Pairing{
			UID:       fmt.Sprintf("S-R1M%d", i/2+1),
			Round:     1,
			Index:     i / 2,
			RoundName: LeagueRoundName(1),
			A:         refPtr(pool[i]),
			B:         refPtr(pool[i+1]),
		})
	}
	perRound := len(params.Entrants) / 2
	for r := 2; r <= totalRounds; r++ {
		for i := 0; i < perRound; i++ {
			f.Pairings = append(f.Pairings, Pairing{
				UID:       fmt.Sprintf("S-R%dM%d", r, i+1),
				Round:     r,
				Index:     i,
				RoundName: LeagueRoundName(r),
			})
		}
	}
	return f, nil
}
