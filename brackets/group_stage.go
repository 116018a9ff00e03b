package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-scheduler/models"
)

const DefaultGroupSize = 4

type GroupStageGenerator struct{}

func NewGroupStageGenerator() BracketGenerator {
	return &GroupStageGenerator{}
}

func (g *GroupStageGenerator) GetName() string {
	return "GroupStage"
}

// GroupName returns "Grup A", "Grup B", ... then "Grup AA" past Z.
func GroupName(i int) string {
	name := ""
	for {
		name = string(rune('A'+i%26)) + name
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	return "Grup " + name
}

// SplitIntoGroups deals seeded entrants into ceil(n/size) groups in snake
// order so each group gets a comparable spread of seeds.
func SplitIntoGroups(entrants []models.EntrantRef, size int) []GroupSplit {
	if size <= 1 {
		size = DefaultGroupSize
	}
	count := (len(entrants) + size - 1) / size
	if count == 0 {
		return nil
	}
	groups := make([]GroupSplit, count)
	for i := range groups {
		groups[i].Name = GroupName(i)
	}
	for i, e := range entrants {
		lap, pos := i/count, i%count
		if lap%2 == 1 {
			pos = count - 1 - pos
		}
		groups[pos].Entrants = append(groups[pos].Entrants, e)
	}
	return groups
}

// GenerateBracket splits the roster into groups, plays a round robin inside
// each and appends knockout placeholders sized at half the group count.
func (g *GroupStageGenerator) GenerateBracket(ctx context.Context, params GenerateParams) (*Fixture, error) {
	if err := validateEntrants(params.Entrants); err != nil {
		return nil, fmt.Errorf("GroupStageGenerator: %w", err)
	}
	groups := SplitIntoGroups(params.Entrants, params.GroupSize)
	f := &Fixture{System: models.SystemGroupStage, Groups: groups}

	for gi, grp := range groups {
		for ri, round := range RoundRobin(grp.Entrants) {
			for i, pr := range round.Pairs {
				p := leaguePairing(ri+1, i, pr[0], pr[1], fmt.Sprintf("G%d", gi+1))
				p.Group = grp.Name
				f.Pairings = append(f.Pairings, p)
				if ri+1 > f.Rounds {
					f.Rounds = ri + 1
				}
			}
		}
	}

	knockout := len(groups) / 2
	for i := 0; i < knockout; i++ {
		f.Pairings = append(f.Pairings, Pairing{
			UID:       fmt.Sprintf("KO-R1M%d", i+1),
			Round:     f.Rounds + 1,
			Index:     i,
			Bracket:   models.SideWinners,
			RoundName: EliminationRoundName(f.Rounds+1, knockout),
			Stage:     eliminationStage(knockout),
		})
	}
	return f, nil
}
