package brackets

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func swissField(points map[string]float64) []SwissPlayer {
	out := make([]SwissPlayer, 0, len(points))
	for k, p := range points {
		out = append(out, SwissPlayer{Key: k, Name: k, Points: p, Met: map[string]int{}})
	}
	return out
}

func meet(players []SwissPlayer, a, b string) {
	for i := range players {
		switch players[i].Key {
		case a:
			players[i].Met[b]++
		case b:
			players[i].Met[a]++
		}
	}
}

func pairSet(r SwissRound) map[[2]string]bool {
	out := map[[2]string]bool{}
	for _, p := range r.Pairs {
		out[pairKey(p[0], p[1])] = true
	}
	return out
}

func TestSwissScoreGroupsPairInside(t *testing.T) {
	players := swissField(map[string]float64{"P1": 2, "P2": 2, "P3": 1, "P4": 1, "P5": 0, "P6": 0})

	r := PairSwissRound(players)
	got := pairSet(r)
	assert.True(t, got[pairKey("P1", "P2")])
	assert.True(t, got[pairKey("P3", "P4")])
	assert.True(t, got[pairKey("P5", "P6")])
	assert.Empty(t, r.Bye)
	assert.Empty(t, r.Repeats)
}

func TestSwissFallsBackToNearestGroup(t *testing.T) {
	players := swissField(map[string]float64{"P1": 2, "P2": 2, "P3": 1, "P4": 1, "P5": 0, "P6": 0})
	meet(players, "P1", "P2")

	r := PairSwissRound(players)
	got := pairSet(r)
	assert.False(t, got[pairKey("P1", "P2")])
	assert.True(t, got[pairKey("P1", "P3")])
	assert.True(t, got[pairKey("P2", "P4")])
	assert.True(t, got[pairKey("P5", "P6")])
	assert.Empty(t, r.Repeats)
}

func TestSwissUpperHalfMeetsLowerHalf(t *testing.T) {
	players := []SwissPlayer{
		{Key: "a", Points: 1, Rating: 2400, Met: map[string]int{}},
		{Key: "b", Points: 1, Rating: 2300, Met: map[string]int{}},
		{Key: "c", Points: 1, Rating: 2200, Met: map[string]int{}},
		{Key: "d", Points: 1, Rating: 2100, Met: map[string]int{}},
	}
	r := PairSwissRound(players)
	got := pairSet(r)
	assert.True(t, got[pairKey("a", "c")])
	assert.True(t, got[pairKey("b", "d")])
}

func TestSwissByeGoesToLowestNeverByed(t *testing.T) {
	players := swissField(map[string]float64{"a": 2, "b": 1, "c": 1, "d": 0, "e": 0})
	for i := range players {
		if players[i].Key == "e" {
			players[i].HadBye = true
		}
	}

	r := PairSwissRound(players)
	assert.Equal(t, "d", r.Bye)
	assert.Len(t, r.Pairs, 2)
}

func TestSwissRepeatOnlyAsLastResort(t *testing.T) {
	players := swissField(map[string]float64{"a": 1, "b": 1})
	meet(players, "a", "b")

	r := PairSwissRound(players)
	require.Len(t, r.Pairs, 1)
	require.Len(t, r.Repeats, 1)
	assert.Equal(t, pairKey("a", "b"), pairKey(r.Repeats[0][0], r.Repeats[0][1]))
}

// Simulates full Swiss events with random results and checks that every
// repeat pairing happened while one side had no unmet opponent left among
// the players still unpaired at that point of the last pool.
func TestSwissNoRepeatWhileUnmetOpponentsExist(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	for trial := 0; trial < 50; trial++ {
		n := 6 + rng.IntN(9)
		rounds := DefaultSwissRounds(n) + 1
		players := make([]SwissPlayer, n)
		for i := range players {
			players[i] = SwissPlayer{Key: fmt.Sprintf("p%02d", i), Name: fmt.Sprintf("p%02d", i), Rating: float64(rng.IntN(3000)), Met: map[string]int{}}
		}
		byes := map[string]int{}
		for round := 0; round < rounds; round++ {
			r := PairSwissRound(players)
			seen := map[string]bool{}
			for _, p := range r.Pairs {
				assert.False(t, seen[p[0]] || seen[p[1]], "player paired twice in a round")
				seen[p[0]], seen[p[1]] = true, true
			}
			if r.Bye != "" {
				assert.False(t, seen[r.Bye])
				byes[r.Bye]++
			}
			assert.Equal(t, n, len(seen)+boolInt(r.Bye != ""))

			if len(r.Repeats) > 0 {
				// A repeat is only legitimate when the pair had no fresh
				// opponent among the players left unpaired with them.
				for _, rep := range r.Repeats {
					assert.True(t, allMet(players, rep[0], r) || allMet(players, rep[1], r),
						"trial %d round %d: avoidable repeat %v", trial, round, rep)
				}
			}

			index := map[string]int{}
			for i := range players {
				index[players[i].Key] = i
			}
			for _, p := range r.Pairs {
				a, b := &players[index[p[0]]], &players[index[p[1]]]
				a.Met[b.Key]++
				b.Met[a.Key]++
				switch rng.IntN(3) {
				case 0:
					a.Points++
				case 1:
					b.Points++
				default:
					a.Points += 0.5
					b.Points += 0.5
				}
			}
			if r.Bye != "" {
				players[index[r.Bye]].Points++
				players[index[r.Bye]].HadBye = true
			}
		}
		for k, c := range byes {
			assert.LessOrEqual(t, c, 1+boolInt(rounds > n), "player %s had %d byes", k, c)
		}
	}
}

// allMet reports whether key had already met every other player that ended
// up in a repeat pair this round, i.e. there was no fresh opponent left.
func allMet(players []SwissPlayer, key string, r SwissRound) bool {
	var self *SwissPlayer
	for i := range players {
		if players[i].Key == key {
			self = &players[i]
		}
	}
	for _, rep := range r.Repeats {
		for _, other := range rep {
			if other != key && self.Met[other] == 0 {
				return false
			}
		}
	}
	return true
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func TestSwissTiebreaks(t *testing.T) {
	points := map[string]float64{"a": 2, "b": 1.5, "c": 1, "d": 0.5}
	games := []SwissGame{
		{A: "a", B: "b", Winner: "a"},
		{A: "c", B: "d", Draw: true},
		{A: "a", B: "c", Winner: "a"},
		{A: "b", B: "d", Winner: "b"},
		{A: "d", Winner: "d"},
	}
	tb := SwissTiebreaks(points, games)

	assert.Equal(t, 2.5, tb["a"].Buchholz)
	assert.Equal(t, 2.5, tb["a"].SonnebornBerger)
	assert.Equal(t, 2.5, tb["b"].Buchholz)
	assert.Equal(t, 0.5, tb["b"].SonnebornBerger)
	assert.Equal(t, 2.5, tb["c"].Buchholz)
	assert.Equal(t, 0.25, tb["c"].SonnebornBerger)
	assert.Equal(t, 2.5, tb["d"].Buchholz)
	assert.Equal(t, 0.5, tb["d"].SonnebornBerger)
}

func TestRankSwiss(t *testing.T) {
	rows := []SwissRank{
		{Key: "x", Points: 3, Buchholz: 4, SonnebornBerger: 2, Rating: 1500},
		{Key: "y", Points: 3, Buchholz: 5, SonnebornBerger: 1, Rating: 1400},
		{Key: "z", Points: 3, Buchholz: 5, SonnebornBerger: 1, Rating: 1600},
		{Key: "w", Points: 4},
	}
	got := RankSwiss(rows)
	var keys []string
	for _, r := range got {
		keys = append(keys, r.Key)
	}
	assert.Equal(t, []string{"w", "z", "y", "x"}, keys)
}
