package brackets

import (
	"fmt"
	"sort"

	"github.com/Dosada05/tournament-scheduler/models"
)

// NextPowerOfTwo returns the smallest power of two >= n (1 for n <= 1).
func NextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// StandardBracketOrder returns the seed sitting in each slot of a bracket of
// the given size. Size 2 is [1 2]; size 2k takes the order of size k and puts
// seed s next to 2k+1-s, so seeds 1 and 2 can only meet in the final.
// Every bracket-size dependent computation goes through this function.
func StandardBracketOrder(size int) ([]int, error) {
	if size < 1 || size&(size-1) != 0 {
		return nil, fmt.Errorf("bracket size %d is not a power of two", size)
	}
	order := []int{1}
	for len(order) < size {
		n := len(order) * 2
		next := make([]int, 0, n)
		for _, s := range order {
			next = append(next, s, n+1-s)
		}
		order = next
	}
	return order, nil
}

// NextSlot maps a bracket index to the index of the match its winner feeds
// and whether the winner takes the first slot there.
func NextSlot(index int) (next int, first bool) {
	return index / 2, index%2 == 0
}

// SeedBracket places ranked entrants into a bracket. Slots whose seed exceeds
// the entrant count are byes; the entrants facing them are recorded as
// bye-holders and advance without a first-round match.
func SeedBracket(ranked []models.EntrantRef) (*models.Bracket, error) {
	if err := validateEntrants(ranked); err != nil {
		return nil, err
	}
	n := len(ranked)
	size := NextPowerOfTwo(n)
	order, err := StandardBracketOrder(size)
	if err != nil {
		return nil, err
	}
	b := &models.Bracket{
		Size:      size,
		SlotSeeds: order,
		Seeds:     append([]models.EntrantRef(nil), ranked...),
	}
	for r := size; r > 1; r >>= 1 {
		b.WinnersRounds++
	}
	for i := 0; i+1 < size; i += 2 {
		s1, s2 := order[i], order[i+1]
		bye1, bye2 := s1 > n, s2 > n
		switch {
		case bye1 && bye2:
			return nil, fmt.Errorf("%w at slots %d/%d", ErrByeAgainstBye, i, i+1)
		case bye2:
			b.Byes = append(b.Byes, models.ByeSlot{Entrant: ranked[s1-1], Seed: s1, Slot: i, Index: i / 2})
		case bye1:
			b.Byes = append(b.Byes, models.ByeSlot{Entrant: ranked[s2-1], Seed: s2, Slot: i + 1, Index: i / 2})
		}
	}
	return b, nil
}

// SeedCandidate is one entrant with everything seeding precedence looks at.
type SeedCandidate struct {
	Entrant    models.EntrantRef
	ManualSeed *int
	Wins       int
	Losses     int
	// Order is the stable fallback, usually registration order.
	Order int
	// Bye marks an organizer-designated bye entrant; these take the top seeds.
	Bye bool
}

// RankingScore combines win rate and win count into one number.
func RankingScore(wins, losses int) float64 {
	played := wins + losses
	if played == 0 {
		return 0
	}
	return float64(wins)/float64(played)*100 + float64(wins)
}

// RankEntrants orders candidates: designated bye entrants first, then manual
// seeds at their seed position, then the rest by ranking score and stable
// order.
func RankEntrants(cands []SeedCandidate) []models.EntrantRef {
	byScore := func(list []SeedCandidate) {
		sort.SliceStable(list, func(i, j int) bool {
			si, sj := RankingScore(list[i].Wins, list[i].Losses), RankingScore(list[j].Wins, list[j].Losses)
			if si != sj {
				return si > sj
			}
			return list[i].Order < list[j].Order
		})
	}

	var byes, manual, rest []SeedCandidate
	for _, c := range cands {
		switch {
		case c.Bye:
			byes = append(byes, c)
		case c.ManualSeed != nil && *c.ManualSeed > 0:
			manual = append(manual, c)
		default:
			rest = append(rest, c)
		}
	}
	byScore(byes)
	byScore(rest)
	sort.SliceStable(manual, func(i, j int) bool {
		return *manual[i].ManualSeed < *manual[j].ManualSeed
	})

	out := make([]models.EntrantRef, 0, len(cands))
	for _, c := range byes {
		out = append(out, c.Entrant)
	}
	slots := make([]*models.EntrantRef, len(cands)-len(byes))
	var overflow []SeedCandidate
	for _, c := range manual {
		pos := *c.ManualSeed - 1 - len(byes)
		if pos < 0 || pos >= len(slots) || slots[pos] != nil {
			overflow = append(overflow, c)
			continue
		}
		slots[pos] = refPtr(c.Entrant)
	}
	queue := append(overflow, rest...)
	for i := range slots {
		if slots[i] == nil && len(queue) > 0 {
			slots[i] = refPtr(queue[0].Entrant)
			queue = queue[1:]
		}
	}
	for _, s := range slots {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

// Qualifier is one group finisher considered for an elimination group.
type Qualifier struct {
	Entrant      models.EntrantRef
	Position     int
	Points       float64
	Differential int
}

// RankQualifiers orders group finishers: every group winner before any
// runner-up, then points, then differential.
func RankQualifiers(qs []Qualifier) []models.EntrantRef {
	sorted := append([]Qualifier(nil), qs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		return a.Differential > b.Differential
	})
	out := make([]models.EntrantRef, len(sorted))
	for i, q := range sorted {
		out[i] = q.Entrant
	}
	return out
}
