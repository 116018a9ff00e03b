package scoring

import (
	"slices"
	"sort"
	"strings"

	"github.com/Dosada05/tournament-scheduler/models"
)

// FormLength is how many recent results Form displays.
const FormLength = 5

// Table is an in-memory standings table of one group. It is a pure fold:
// Apply adds a contribution, Reverse subtracts one.
type Table struct {
	eventID string
	groupID string
	rows    map[string]*models.Standing
	order   []string
}

// NewTable seeds a table with existing rows (which may be empty).
func NewTable(eventID, groupID string, rows []models.Standing) *Table {
	t := &Table{eventID: eventID, groupID: groupID, rows: make(map[string]*models.Standing, len(rows))}
	for i := range rows {
		r := rows[i]
		t.rows[r.EntrantK] = &r
		t.order = append(t.order, r.EntrantK)
	}
	return t
}

// Ensure adds an empty row for an entrant that has not played yet.
func (t *Table) Ensure(e models.EntrantRef) *models.Standing {
	key := e.Key()
	if r, ok := t.rows[key]; ok {
		return r
	}
	r := &models.Standing{EventID: t.eventID, GroupID: t.groupID, Entrant: e, EntrantK: key}
	t.rows[key] = r
	t.order = append(t.order, key)
	return r
}

func (t *Table) Row(key string) *models.Standing {
	return t.rows[key]
}

// Apply adds every entry of c to its entrant's row.
func (t *Table) Apply(c *models.Contribution) {
	if c == nil {
		return
	}
	for _, e := range c.Entries {
		ApplyEntry(t.Ensure(e.Entrant), e, 1)
	}
}

// Reverse subtracts every entry of c.
func (t *Table) Reverse(c *models.Contribution) {
	if c == nil {
		return
	}
	for _, e := range c.Entries {
		ApplyEntry(t.Ensure(e.Entrant), e, -1)
	}
}

// ApplyEntry adds (sign 1) or removes (sign -1) one entry from a row.
func ApplyEntry(r *models.Standing, e models.ContributionEntry, sign int) {
	r.Played += sign * e.Played
	r.Wins += sign * e.Wins
	r.Losses += sign * e.Losses
	r.Draws += sign * e.Draws
	r.Points += float64(sign) * e.Points
	r.ScoredFor += sign * e.ScoredFor
	r.ScoredAgainst += sign * e.ScoredAgainst

	if e.Result == "" {
		return
	}
	if sign > 0 {
		r.Results = insertResult(r.Results, models.FormEntry{MatchID: e.MatchID, Result: e.Result, At: e.At})
	} else {
		r.Results = removeResult(r.Results, e)
	}
	var b strings.Builder
	for _, f := range r.Results {
		b.WriteString(f.Result)
	}
	r.Form = b.String()
	r.Streak = streakOf(r.Form)
}

// insertResult places f after every result completed no later than it.
func insertResult(list []models.FormEntry, f models.FormEntry) []models.FormEntry {
	i := sort.Search(len(list), func(i int) bool { return list[i].At.After(f.At) })
	return slices.Insert(slices.Clone(list), i, f)
}

// removeResult drops the result of e's match, or the latest result of the
// same kind when the entry carries no match id.
func removeResult(list []models.FormEntry, e models.ContributionEntry) []models.FormEntry {
	for i := len(list) - 1; i >= 0; i-- {
		if e.MatchID != "" && list[i].MatchID != e.MatchID {
			continue
		}
		if list[i].Result == e.Result {
			return slices.Delete(slices.Clone(list), i, i+1)
		}
	}
	return list
}

// streakOf is the trailing run of identical results: positive for wins,
// negative for losses, zero after a draw.
func streakOf(form string) int {
	if form == "" {
		return 0
	}
	last := form[len(form)-1]
	n := 0
	for i := len(form) - 1; i >= 0 && form[i] == last; i-- {
		n++
	}
	switch string(last) {
	case ResultWin:
		return n
	case ResultLoss:
		return -n
	}
	return 0
}

// RecentForm returns the last FormLength results of a row.
func RecentForm(r *models.Standing) string {
	if len(r.Form) <= FormLength {
		return r.Form
	}
	return r.Form[len(r.Form)-FormLength:]
}

// Rows returns the rows ranked by Rank.
func (t *Table) Rows() []models.Standing {
	out := make([]models.Standing, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, *t.rows[k])
	}
	Rank(out)
	return out
}

// Ranks maps entrant keys to their 1-based table position.
func (t *Table) Ranks() map[string]int {
	rows := t.Rows()
	out := make(map[string]int, len(rows))
	for i, r := range rows {
		out[r.EntrantK] = i + 1
	}
	return out
}

// Rank orders rows by points, differential, scored, wins, then key.
func Rank(rows []models.Standing) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := &rows[i], &rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Differential() != b.Differential() {
			return a.Differential() > b.Differential()
		}
		if a.ScoredFor != b.ScoredFor {
			return a.ScoredFor > b.ScoredFor
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.EntrantK < b.EntrantK
	})
}

// Recompute rebuilds a group's table from scratch out of the contributions
// stored on its applied matches, in completion order.
func Recompute(eventID, groupID string, entrants []models.EntrantRef, applied []*models.Contribution) []models.Standing {
	t := NewTable(eventID, groupID, nil)
	for _, e := range entrants {
		t.Ensure(e)
	}
	for _, c := range applied {
		t.Apply(c)
	}
	return t.Rows()
}
