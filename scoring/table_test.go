package scoring

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-scheduler/models"
)

var plainRules = models.SportRules{Name: "masa tenisi", WinPoints: 3, LossPoints: 0, DrawPoints: 1, AllowDraw: true}

func decided(t *testing.T, a, b string, raw string, rules models.SportRules) (*models.Match, Decision) {
	t.Helper()
	m := &models.Match{
		ID:           a + "-" + b,
		Participant1: models.RefPtr(models.Single(a)),
		Participant2: models.RefPtr(models.Single(b)),
	}
	d, err := Decide(raw, rules, true)
	require.NoError(t, err)
	return m, d
}

func contribution(t *testing.T, in Input) *models.Contribution {
	t.Helper()
	c, err := Contribute(in)
	require.NoError(t, err)
	return c
}

func TestContributeBasePoints(t *testing.T) {
	m, d := decided(t, "x", "y", "3-1", plainRules)
	c := contribution(t, Input{Match: m, Decision: d, Rules: plainRules})

	require.Len(t, c.Entries, 2)
	x, y := c.Entries[0], c.Entries[1]
	assert.Equal(t, 3.0, x.Points)
	assert.Equal(t, 1, x.Wins)
	assert.Equal(t, 3, x.ScoredFor)
	assert.Equal(t, 1, x.ScoredAgainst)
	assert.Equal(t, 0.0, y.Points)
	assert.Equal(t, 1, y.Losses)
	assert.Equal(t, ResultLoss, y.Result)
}

func TestContributeDraw(t *testing.T) {
	m, d := decided(t, "x", "y", "1-1", plainRules)
	c := contribution(t, Input{Match: m, Decision: d, Rules: plainRules})
	for _, e := range c.Entries {
		assert.Equal(t, 1, e.Draws)
		assert.Equal(t, 1.0, e.Points)
	}
}

func TestContributeBye(t *testing.T) {
	m := &models.Match{Participant1: models.RefPtr(models.Single("x")), IsBye: true}
	c := contribution(t, Input{Match: m, Rules: plainRules})
	require.Len(t, c.Entries, 1)
	assert.Equal(t, 3.0, c.Entries[0].Points)
	assert.Equal(t, 1, c.Entries[0].Wins)
}

func TestContributeCustomScoring(t *testing.T) {
	custom := models.DefaultCustomScoring()
	custom.Enabled = true
	custom.ScoreDifference.Enabled = true
	custom.SetDifference.Enabled = true
	custom.OpponentStrength.Enabled = true
	custom.FairPlay.Enabled = true
	custom.Participation.Enabled = true

	t.Run("close upset", func(t *testing.T) {
		m, d := decided(t, "under", "fav", "6-4 4-6 7-5", tennis)
		m.FairPlay2 = models.FairPlay{YellowCards: 1}
		c := contribution(t, Input{
			Match: m, Decision: d, Rules: tennis, Custom: &custom,
			Ranks:       map[string]int{"under": 8, "fav": 2},
			Appearances: map[string]int{"under": 2},
		})
		under, fav := c.Entries[0], c.Entries[1]

		assert.Equal(t, map[string]float64{
			KeyMatchResult:      2,
			KeySetDifference:    1,
			KeyOpponentStrength: 25,
			KeyFairPlay:         5,
			KeyAttendance:       5,
			KeyStreak:           10,
		}, under.Breakdown)
		assert.Equal(t, 48.0, under.Points)

		// Lost 17-15 in games: within the close threshold.
		assert.Equal(t, map[string]float64{
			KeyMatchResult:      0,
			KeyCloseScore:       10,
			KeySetDifference:    -1,
			KeyOpponentStrength: -5,
			KeyFairPlay:         -5,
			KeyAttendance:       5,
		}, fav.Breakdown)
		assert.Equal(t, 4.0, fav.Points)
	})

	t.Run("forfeit replaces base points", func(t *testing.T) {
		m := &models.Match{Participant1: models.RefPtr(models.Single("a")), Participant2: models.RefPtr(models.Single("b")), Forfeit: true}
		d, err := DecideForfeit(1)
		require.NoError(t, err)
		c := contribution(t, Input{Match: m, Decision: d, Rules: plainRules, Custom: &custom})
		a, b := c.Entries[0], c.Entries[1]
		assert.Equal(t, 2.0, a.Breakdown[KeyMatchResult])
		assert.Equal(t, -2.0, b.Breakdown[KeyMatchResult])
		assert.Equal(t, -10.0, b.Breakdown[KeyNoShow])
		assert.NotContains(t, b.Breakdown, KeyAttendance)
		assert.NotContains(t, a.Breakdown, KeyCloseScore)
	})

	t.Run("disabled custom keeps sport points", func(t *testing.T) {
		off := custom
		off.Enabled = false
		m, d := decided(t, "a", "b", "3-0", plainRules)
		c := contribution(t, Input{Match: m, Decision: d, Rules: plainRules, Custom: &off})
		assert.Equal(t, 3.0, c.Entries[0].Points)
	})
}

func TestApplyReverseCorrection(t *testing.T) {
	entrants := []models.EntrantRef{models.Single("x"), models.Single("y")}
	rules := models.SportRules{WinPoints: 3, LossPoints: 0}

	m, d := decided(t, "x", "y", "2-1", plainRules)
	original := contribution(t, Input{Match: m, Decision: d, Rules: rules})

	table := NewTable("ev", "g", nil)
	for _, e := range entrants {
		table.Ensure(e)
	}
	table.Apply(original)
	assert.Equal(t, 3.0, table.Row("x").Points)
	assert.Equal(t, 1, table.Row("y").Played)

	// Corrected to a win for y.
	d2, err := Decide("1-2", plainRules, true)
	require.NoError(t, err)
	corrected := contribution(t, Input{Match: m, Decision: d2, Rules: rules})
	table.Reverse(original)

	x := table.Row("x")
	assert.Equal(t, 0, x.Played)
	assert.Equal(t, 0.0, x.Points)
	assert.Equal(t, "", x.Form)

	table.Apply(corrected)
	want := Recompute("ev", "g", entrants, []*models.Contribution{corrected})
	if diff := cmp.Diff(want, table.Rows(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("corrected table differs from a rebuild (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3.0, table.Row("y").Points)
}

func TestRankAndForm(t *testing.T) {
	table := NewTable("ev", "g", nil)
	results := []struct {
		a, b, raw string
	}{
		{"a", "b", "2-0"},
		{"a", "c", "1-0"},
		{"b", "c", "3-0"},
		{"a", "b", "0-1"},
	}
	for _, r := range results {
		m, d := decided(t, r.a, r.b, r.raw, plainRules)
		table.Apply(contribution(t, Input{Match: m, Decision: d, Rules: plainRules}))
	}

	rows := table.Rows()
	var order []string
	for _, r := range rows {
		order = append(order, r.EntrantK)
	}
	// a and b both have 6 points and +2; b scored more (4 vs 3).
	assert.Equal(t, []string{"b", "a", "c"}, order)
	assert.Equal(t, "WWL", table.Row("a").Form)
	assert.Equal(t, -1, table.Row("a").Streak)
	assert.Equal(t, 2, table.Row("b").Streak)
	assert.Equal(t, map[string]int{"b": 1, "a": 2, "c": 3}, table.Ranks())

	long := &models.Standing{Form: "WWLLDWW"}
	assert.Equal(t, "LLDWW", RecentForm(long))
}

func TestCorrectionKeepsFormInMatchOrder(t *testing.T) {
	base := time.Date(2026, 6, 6, 9, 0, 0, 0, time.UTC)
	var applied []*models.Contribution
	table := NewTable("ev", "g", nil)
	for i, raw := range []string{"2-0", "0-2", "2-1"} {
		m, d := decided(t, "a", fmt.Sprintf("o%d", i+1), raw, plainRules)
		at := base.Add(time.Duration(i) * time.Hour)
		m.CompletedAt = &at
		c := contribution(t, Input{Match: m, Decision: d, Rules: plainRules})
		table.Apply(c)
		applied = append(applied, c)
	}
	require.Equal(t, "WLW", table.Row("a").Form)

	// The first match is corrected into a loss.
	first, d := decided(t, "a", "o1", "0-2", plainRules)
	first.CompletedAt = &base
	corrected := contribution(t, Input{Match: first, Decision: d, Rules: plainRules})
	table.Reverse(applied[0])
	table.Apply(corrected)

	a := table.Row("a")
	assert.Equal(t, "LLW", a.Form)
	assert.Equal(t, 1, a.Streak)

	want := Recompute("ev", "g", nil, []*models.Contribution{applied[2], corrected, applied[1]})
	if diff := cmp.Diff(want, table.Rows(), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("corrected table differs from a rebuild (-want +got):\n%s", diff)
	}
}
