package scheduling

import (
	"sort"
	"time"

	"github.com/Dosada05/tournament-scheduler/models"
)

// maxAttempts bounds the search for a feasible start of one match.
const maxAttempts = 10000

// Item is one match waiting for a slot.
type Item struct {
	ID       string
	Group    string
	Category models.CategoryTag
	Round    int
	Stage    models.Stage
	// Players are the player ids on both sides; empty for TBD slots.
	Players []string
	// GroupMembers are the players of the match's group, used to draw an
	// in-group referee.
	GroupMembers []string
	// NotBefore is an optional lower bound on the start time.
	NotBefore time.Time
	// Feeders are the items whose results decide this item's entrants. It
	// starts no earlier than MinRest after the last of them ends.
	Feeders []string
}

// Assignment is a placed match.
type Assignment struct {
	ItemID    string    `json:"item_id"`
	Court     int       `json:"court"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	RefereeID string    `json:"referee_id,omitempty"`
}

// Placed is an already scheduled match whose resources stay occupied.
type Placed struct {
	Item       Item
	Assignment Assignment
}

// Schedule is the result of one run. Unscheduled items keep their input
// order and are never silently dropped.
type Schedule struct {
	Assignments []Assignment `json:"assignments"`
	Unscheduled []string     `json:"unscheduled"`
}

func (s *Schedule) Lookup(itemID string) (Assignment, bool) {
	for _, a := range s.Assignments {
		if a.ItemID == itemID {
			return a, true
		}
	}
	return Assignment{}, false
}

type interval struct {
	start, end time.Time
}

func (iv interval) overlaps(start, end time.Time) bool {
	return start.Before(iv.end) && iv.start.Before(end)
}

// Scheduler is a greedy, priority-ordered, day-aware court allocator.
type Scheduler struct {
	cfg Config

	courtFree []time.Time
	courtLoad []int
	groupFree map[string]time.Time
	playing   map[string][]interval
	refereing map[string][]interval
	affinity  map[string]int
	finished  map[string]time.Time
}

// New validates cfg and returns a Scheduler with empty resource state.
func New(cfg Config) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.EndDate.IsZero() {
		cfg.EndDate = cfg.StartDate
	}
	s := &Scheduler{
		cfg:       cfg,
		courtFree: make([]time.Time, cfg.Courts),
		courtLoad: make([]int, cfg.Courts),
		groupFree: map[string]time.Time{},
		playing:   map[string][]interval{},
		refereing: map[string][]interval{},
		affinity:  map[string]int{},
		finished:  map[string]time.Time{},
	}
	first := cfg.DayStart.On(cfg.StartDate)
	for i := range s.courtFree {
		s.courtFree[i] = first
	}
	return s, nil
}

// Reserve marks the resources of an already scheduled match as taken.
func (s *Scheduler) Reserve(p Placed) {
	s.occupy(p.Item, p.Assignment)
}

// Order sorts items by the configured priority: event type, age group,
// gender, then group and round. A group's matches stay contiguous.
func (s *Scheduler) Order(items []Item) []Item {
	out := append([]Item(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ra, rb := rankOf(s.cfg.EventTypeOrder, a.Category.GameType), rankOf(s.cfg.EventTypeOrder, b.Category.GameType); ra != rb {
			return ra < rb
		}
		if ra, rb := rankOf(s.cfg.AgeGroupOrder, a.Category.AgeBracket), rankOf(s.cfg.AgeGroupOrder, b.Category.AgeBracket); ra != rb {
			return ra < rb
		}
		if ra, rb := rankOf(s.cfg.GenderOrder, a.Category.Gender), rankOf(s.cfg.GenderOrder, b.Category.Gender); ra != rb {
			return ra < rb
		}
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		return a.Round < b.Round
	})
	return out
}

func rankOf[T comparable](order []T, v T) int {
	for i, o := range order {
		if o == v {
			return i
		}
	}
	return len(order)
}

// Schedule places every item it can and reports the rest as unscheduled.
func (s *Scheduler) Schedule(items []Item) *Schedule {
	ordered := afterFeeders(s.Order(items))
	if s.cfg.GroupCourtAffinity {
		s.assignAffinity(ordered)
	}

	inRun := make(map[string]bool, len(ordered))
	for _, it := range ordered {
		inRun[it.ID] = true
	}
	res := &Schedule{}
	for _, it := range ordered {
		bound, ok := s.feedersDone(it, inRun)
		if !ok {
			res.Unscheduled = append(res.Unscheduled, it.ID)
			continue
		}
		if bound.After(it.NotBefore) {
			it.NotBefore = bound
		}
		a, ok := s.place(it)
		if !ok {
			res.Unscheduled = append(res.Unscheduled, it.ID)
			continue
		}
		res.Assignments = append(res.Assignments, a)
	}
	return res
}

// afterFeeders keeps the priority order but moves every item behind the
// items of the same run that feed it.
func afterFeeders(ordered []Item) []Item {
	byID := make(map[string]int, len(ordered))
	for i, it := range ordered {
		byID[it.ID] = i
	}
	out := make([]Item, 0, len(ordered))
	seen := make([]bool, len(ordered))
	var visit func(i int)
	visit = func(i int) {
		if seen[i] {
			return
		}
		seen[i] = true
		for _, f := range ordered[i].Feeders {
			if j, ok := byID[f]; ok {
				visit(j)
			}
		}
		out = append(out, ordered[i])
	}
	for i := range ordered {
		visit(i)
	}
	return out
}

// feedersDone returns the earliest start the feeders of it allow. ok is
// false when a feeder of the same run could not be placed.
func (s *Scheduler) feedersDone(it Item, inRun map[string]bool) (time.Time, bool) {
	var bound time.Time
	for _, f := range it.Feeders {
		end, ok := s.finished[f]
		if !ok {
			if inRun[f] {
				return time.Time{}, false
			}
			continue
		}
		if t := end.Add(s.cfg.MinRest); t.After(bound) {
			bound = t
		}
	}
	return bound, true
}

// assignAffinity pins each group to a court, round-robin in priority order.
func (s *Scheduler) assignAffinity(ordered []Item) {
	next := len(s.affinity)
	for _, it := range ordered {
		if it.Group == "" {
			continue
		}
		if _, ok := s.affinity[it.Group]; ok {
			continue
		}
		s.affinity[it.Group] = next % s.cfg.Courts
		next++
	}
}

func (s *Scheduler) place(it Item) (Assignment, bool) {
	courts := s.candidateCourts(it)

	best := -1
	var bestStart time.Time
	for _, c := range courts {
		start, ok := s.earliest(it, c)
		if !ok {
			continue
		}
		if best < 0 || start.Before(bestStart) || (start.Equal(bestStart) && s.preferCourt(it, c, best)) {
			best, bestStart = c, start
		}
	}
	if best < 0 {
		return Assignment{}, false
	}

	a := Assignment{
		ItemID: it.ID,
		Court:  best + 1,
		Start:  bestStart,
		End:    bestStart.Add(s.cfg.MatchDuration),
	}
	if s.cfg.InGroupRefereeing {
		a.RefereeID = s.pickReferee(it, a)
	}
	s.occupy(it, a)
	return a, true
}

func (s *Scheduler) candidateCourts(it Item) []int {
	if c, ok := s.affinity[it.Group]; ok && s.cfg.GroupCourtAffinity {
		return []int{c}
	}
	out := make([]int, s.cfg.Courts)
	for i := range out {
		out[i] = i
	}
	return out
}

// preferCourt breaks a start-time tie between court c and the current best.
// Important matches go to the most central court; otherwise the less loaded
// court wins when balancing, then the lower number.
func (s *Scheduler) preferCourt(it Item, c, best int) bool {
	if it.Stage.Important() {
		dc, db := s.centerDistance(c), s.centerDistance(best)
		if dc != db {
			return dc < db
		}
	}
	if s.cfg.BalanceCourts && s.courtLoad[c] != s.courtLoad[best] {
		return s.courtLoad[c] < s.courtLoad[best]
	}
	return c < best
}

// centerDistance is doubled so it stays integral for an even court count.
func (s *Scheduler) centerDistance(c int) int {
	d := 2*c - (s.cfg.Courts - 1)
	if d < 0 {
		return -d
	}
	return d
}

// earliest finds the first feasible start of it on court c.
func (s *Scheduler) earliest(it Item, c int) (time.Time, bool) {
	t := s.courtFree[c]
	if g, ok := s.groupFree[it.Group]; ok && it.Group != "" && g.After(t) {
		t = g
	}
	if it.NotBefore.After(t) {
		t = it.NotBefore
	}
	t = t.Truncate(time.Minute)

	for i := 0; i < maxAttempts; i++ {
		next, ok := s.fitDay(t)
		if !ok {
			return time.Time{}, false
		}
		if next.Equal(t) {
			if clash, until := s.playerClash(it, t); clash {
				next = until
			}
		}
		if next.Equal(t) {
			return t, true
		}
		t = next
	}
	return time.Time{}, false
}

// fitDay moves t into the venue's open hours and out of the break window.
// ok is false once t runs past the last day.
func (s *Scheduler) fitDay(t time.Time) (time.Time, bool) {
	dur := s.cfg.MatchDuration
	for {
		day := dayOf(t)
		if day.After(dayOf(s.cfg.EndDate)) {
			return time.Time{}, false
		}
		open, closing := s.cfg.DayStart.On(day), s.cfg.DayEnd.On(day)
		if t.Before(open) {
			t = open
		}
		if s.cfg.BreakStart != nil {
			bs, be := s.cfg.BreakStart.On(day), s.cfg.BreakEnd.On(day)
			if t.Before(be) && t.Add(dur).After(bs) {
				t = be
			}
		}
		if !t.Add(dur).After(closing) {
			return t, true
		}
		t = s.cfg.DayStart.On(day.AddDate(0, 0, 1))
	}
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// playerClash checks every player of it against their matches and referee
// duties. It returns the earliest start that clears the first conflict.
func (s *Scheduler) playerClash(it Item, t time.Time) (bool, time.Time) {
	end := t.Add(s.cfg.MatchDuration)
	rest := s.cfg.MinRest
	for _, p := range it.Players {
		for _, iv := range s.playing[p] {
			if iv.overlaps(t.Add(-rest), end.Add(rest)) {
				return true, iv.end.Add(rest)
			}
		}
		for _, iv := range s.refereing[p] {
			if iv.overlaps(t, end) {
				return true, iv.end
			}
		}
	}
	return false, t
}

// pickReferee draws the first group member who is neither playing in the
// match nor busy around it.
func (s *Scheduler) pickReferee(it Item, a Assignment) string {
	playing := make(map[string]bool, len(it.Players))
	for _, p := range it.Players {
		playing[p] = true
	}
	for _, cand := range it.GroupMembers {
		if !playing[cand] && !s.busy(cand, a) {
			return cand
		}
	}
	return ""
}

// busy reports whether a player is playing within the rest window of a, or
// already refereeing an overlapping match.
func (s *Scheduler) busy(player string, a Assignment) bool {
	rest := s.cfg.MinRest
	for _, iv := range s.playing[player] {
		if iv.overlaps(a.Start.Add(-rest), a.End.Add(rest)) {
			return true
		}
	}
	for _, iv := range s.refereing[player] {
		if iv.overlaps(a.Start, a.End) {
			return true
		}
	}
	return false
}

func (s *Scheduler) occupy(it Item, a Assignment) {
	c := a.Court - 1
	next := a.End.Add(s.cfg.BreakDuration)
	if c >= 0 && c < len(s.courtFree) {
		if next.After(s.courtFree[c]) {
			s.courtFree[c] = next
		}
		s.courtLoad[c]++
	}
	if it.Group != "" && next.After(s.groupFree[it.Group]) {
		s.groupFree[it.Group] = next
	}
	if it.ID != "" {
		s.finished[it.ID] = a.End
	}
	iv := interval{start: a.Start, end: a.End}
	for _, p := range it.Players {
		s.playing[p] = append(s.playing[p], iv)
	}
	if a.RefereeID != "" {
		s.refereing[a.RefereeID] = append(s.refereing[a.RefereeID], iv)
	}
}
