package brackets

import (
	"log/slog"

	"github.com/Dosada05/tournament-scheduler/models"
)

// ApplyExclusions drops pairings between declared rank pairs. Ranks are
// 1-based positions in the seeded entrant list. Dropped pairings are moved
// to Excluded and logged; they are never rescheduled.
func ApplyExclusions(f *Fixture, ranked []models.EntrantRef, exclusions [][2]int, logger *slog.Logger) {
	if f == nil || len(exclusions) == 0 {
		return
	}
	rankOf := make(map[string]int, len(ranked))
	for i, e := range ranked {
		rankOf[e.Key()] = i + 1
	}
	banned := make(map[[2]int]struct{}, len(exclusions))
	for _, ex := range exclusions {
		a, b := ex[0], ex[1]
		if a > b {
			a, b = b, a
		}
		banned[[2]int{a, b}] = struct{}{}
	}

	kept := f.Pairings[:0]
	for _, p := range f.Pairings {
		if p.Placeholder() {
			kept = append(kept, p)
			continue
		}
		ra, rb := rankOf[p.A.Key()], rankOf[p.B.Key()]
		if ra > rb {
			ra, rb = rb, ra
		}
		if _, hit := banned[[2]int{ra, rb}]; hit && ra > 0 {
			f.Excluded = append(f.Excluded, p)
			if logger != nil {
				logger.Info("pairing excluded by rank rule",
					slog.String("uid", p.UID),
					slog.String("a", p.A.Key()),
					slog.String("b", p.B.Key()),
					slog.Int("rank_a", ra),
					slog.Int("rank_b", rb))
			}
			continue
		}
		kept = append(kept, p)
	}
	f.Pairings = kept
}
