package brackets

import "sort"

// SwissPlayer is the pairing view of one Swiss entrant.
type SwissPlayer struct {
	Key    string
	Name   string
	Rating float64
	Points float64
	// Met counts previous games against each opponent key.
	Met    map[string]int
	HadBye bool
}

func (p *SwissPlayer) hasMet(key string) bool {
	return p.Met[key] > 0
}

// SwissRound is the result of pairing one round.
type SwissRound struct {
	Pairs [][2]string
	Bye   string
	// Repeats lists pairs that had already met; they only happen when one
	// side had no unmet opponent left.
	Repeats [][2]string
}

func sortSwiss(players []*SwissPlayer) {
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Key < b.Key
	})
}

// PairSwissRound pairs one round from current standings.
//
// Players are ordered by points, rating and name and bucketed into score
// groups. An odd roster first hands the bye to the lowest-ranked player who
// never had one. Each group, together with anyone carried down from above,
// is split in halves and upper[i] meets the first lower-half player they have
// not met, else any unmet player of the pool. An odd pool moves its
// lowest-ranked player down, and players with no unmet opponent in the pool
// are carried down too. Only the last pool may fall back to a repeat.
func PairSwissRound(players []SwissPlayer) SwissRound {
	ordered := make([]*SwissPlayer, len(players))
	for i := range players {
		ordered[i] = &players[i]
	}
	sortSwiss(ordered)

	var res SwissRound
	if len(ordered)%2 == 1 {
		idx := len(ordered) - 1
		for i := len(ordered) - 1; i >= 0; i-- {
			if !ordered[i].HadBye {
				idx = i
				break
			}
		}
		res.Bye = ordered[idx].Key
		ordered = append(ordered[:idx:idx], ordered[idx+1:]...)
	}

	groups := scoreGroups(ordered)
	var carry []*SwissPlayer
	for gi, grp := range groups {
		pool := make([]*SwissPlayer, 0, len(carry)+len(grp))
		pool = append(pool, carry...)
		pool = append(pool, grp...)
		pairs, repeats, left := pairPool(pool, gi == len(groups)-1)
		res.Pairs = append(res.Pairs, pairs...)
		res.Repeats = append(res.Repeats, repeats...)
		carry = left
	}
	return res
}

func scoreGroups(ordered []*SwissPlayer) [][]*SwissPlayer {
	var groups [][]*SwissPlayer
	for i, p := range ordered {
		if i == 0 || p.Points != ordered[i-1].Points {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], p)
	}
	return groups
}

func pairPool(pool []*SwissPlayer, final bool) (pairs, repeats [][2]string, left []*SwissPlayer) {
	var mover *SwissPlayer
	if len(pool)%2 == 1 && !final {
		mover = pool[len(pool)-1]
		pool = pool[:len(pool)-1]
	}

	used := make([]bool, len(pool))
	pair := func(i, j int) {
		used[i], used[j] = true, true
		pairs = append(pairs, [2]string{pool[i].Key, pool[j].Key})
	}
	firstUnmet := func(i, from int) int {
		for j := from; j < len(pool); j++ {
			if j != i && !used[j] && !pool[i].hasMet(pool[j].Key) {
				return j
			}
		}
		return -1
	}

	half := len(pool) / 2
	for i := 0; i < half; i++ {
		if used[i] {
			continue
		}
		j := firstUnmet(i, half)
		if j < 0 {
			j = firstUnmet(i, 0)
		}
		if j >= 0 {
			pair(i, j)
		}
	}
	for i := range pool {
		if used[i] {
			continue
		}
		if j := firstUnmet(i, i+1); j >= 0 {
			pair(i, j)
		}
	}

	for i := range pool {
		if !used[i] {
			left = append(left, pool[i])
		}
	}
	if final {
		for len(left) >= 2 {
			a, b := left[0], left[1]
			pairs = append(pairs, [2]string{a.Key, b.Key})
			repeats = append(repeats, [2]string{a.Key, b.Key})
			left = left[2:]
		}
	}
	if mover != nil {
		left = append(left, mover)
	}
	return pairs, repeats, left
}

// SwissGame is one finished Swiss game. B is empty for a bye.
type SwissGame struct {
	A, B   string
	Winner string
	Draw   bool
}

// Tiebreak holds the Swiss tie-break scores of one entrant.
type Tiebreak struct {
	Buchholz        float64
	SonnebornBerger float64
}

// SwissTiebreaks computes Buchholz (sum of all opponents' points) and
// Sonneborn-Berger (points of beaten opponents plus half of drawn ones).
func SwissTiebreaks(points map[string]float64, games []SwissGame) map[string]Tiebreak {
	out := make(map[string]Tiebreak, len(points))
	for key := range points {
		out[key] = Tiebreak{}
	}
	for _, g := range games {
		if g.B == "" {
			continue
		}
		for _, side := range [2][2]string{{g.A, g.B}, {g.B, g.A}} {
			self, opp := side[0], side[1]
			tb := out[self]
			tb.Buchholz += points[opp]
			switch {
			case g.Draw:
				tb.SonnebornBerger += points[opp] / 2
			case g.Winner == self:
				tb.SonnebornBerger += points[opp]
			}
			out[self] = tb
		}
	}
	return out
}

// SwissRank is one row of the final Swiss ordering.
type SwissRank struct {
	Key             string
	Points          float64
	Buchholz        float64
	SonnebornBerger float64
	Rating          float64
}

// RankSwiss orders by points, Buchholz, Sonneborn-Berger then rating.
func RankSwiss(rows []SwissRank) []SwissRank {
	out := append([]SwissRank(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Buchholz != b.Buchholz {
			return a.Buchholz > b.Buchholz
		}
		if a.SonnebornBerger != b.SonnebornBerger {
			return a.SonnebornBerger > b.SonnebornBerger
		}
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		return a.Key < b.Key
	})
	return out
}
