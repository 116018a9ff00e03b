package services

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/scoring"
)

func TestApplyResultIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, entrants := h.newEvent(t, models.SystemRoundRobin, 4)
	g, _ := h.newGroup(t, ev, models.SystemRoundRobin, entrants, GenerateOptions{})

	m := h.play(t, MatchID(g.ID, "L1-R1M1"), "3-1")
	applied, err := h.standings.ApplyResult(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, applied, "completion already applied the result")

	winner := h.standingOf(t, g.ID, m.WinnerKey)
	assert.Equal(t, 1, winner.Played)
	assert.Equal(t, 1, winner.Wins)
	assert.InDelta(t, 3.0, winner.Points, 1e-9)
	assert.Equal(t, "W", winner.Form)

	reversed, err := h.standings.ReverseResult(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, reversed)
	reversed, err = h.standings.ReverseResult(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, reversed)

	winner = h.standingOf(t, g.ID, m.WinnerKey)
	assert.Zero(t, winner.Played)
	assert.Zero(t, winner.Points)
	assert.Empty(t, winner.Form)
}

func TestConcurrentApplyCountsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, entrants := h.newEvent(t, models.SystemRoundRobin, 4)
	g, _ := h.newGroup(t, ev, models.SystemRoundRobin, entrants, GenerateOptions{})

	m := h.play(t, MatchID(g.ID, "L1-R1M1"), "3-1")
	_, err := h.standings.ReverseResult(ctx, m.ID)
	require.NoError(t, err)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		count int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := h.standings.ApplyResult(ctx, m.ID)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, h.standingOf(t, g.ID, m.WinnerKey).Wins)
}

func TestRebuildRestoresDriftedRows(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, entrants := h.newEvent(t, models.SystemRoundRobin, 4)
	g, _ := h.newGroup(t, ev, models.SystemRoundRobin, entrants, GenerateOptions{})
	h.playAll(t, g.ID)

	before, err := h.standings.GroupStandings(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, before, 4)

	row, err := h.rows.Get(ctx, g.ID, before[0].EntrantK)
	require.NoError(t, err)
	row.Points += 40
	row.Wins = 0
	require.NoError(t, h.rows.Update(ctx, row))

	after, err := h.standings.Rebuild(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].EntrantK, after[i].EntrantK)
		assert.Equal(t, before[i].Wins, after[i].Wins)
		assert.InDelta(t, before[i].Points, after[i].Points, 1e-9)
	}
	assert.Equal(t, models.GroupStandingsComputed, h.group(t, g.ID).Status)
}

func TestCorrectedStandingsEqualRebuild(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, entrants := h.newEvent(t, models.SystemRoundRobin, 4)
	g, _ := h.newGroup(t, ev, models.SystemRoundRobin, entrants, GenerateOptions{})
	h.playAll(t, g.ID)

	id := MatchID(g.ID, "L1-R1M1")
	m := h.match(t, id)
	loser := m.Participant2.Key()
	before := h.standingOf(t, g.ID, loser)
	idx := slicesIndex(before.Results, id)
	require.GreaterOrEqual(t, idx, 0)
	require.Equal(t, scoring.ResultLoss, before.Results[idx].Result)

	_, err := h.matchSvc.CorrectScore(ctx, organizer, id, ResultInput{Score: "1-3", Reason: "skor ters girildi"})
	require.NoError(t, err)

	incremental, err := h.standings.GroupStandings(ctx, g.ID)
	require.NoError(t, err)
	after := h.standingOf(t, g.ID, loser)
	require.Len(t, after.Results, len(before.Results))
	assert.Equal(t, id, after.Results[idx].MatchID, "the corrected match keeps its place in the form")
	assert.Equal(t, scoring.ResultWin, after.Results[idx].Result)

	rebuilt, err := h.standings.Rebuild(ctx, g.ID)
	require.NoError(t, err)
	opts := cmp.Options{
		cmpopts.IgnoreFields(models.Standing{}, "ID", "Version", "UpdatedAt"),
		cmpopts.EquateEmpty(),
	}
	if diff := cmp.Diff(rebuilt, incremental, opts); diff != "" {
		t.Errorf("standings after correction differ from a rebuild (-rebuilt +incremental):\n%s", diff)
	}
}

func slicesIndex(list []models.FormEntry, matchID string) int {
	for i, f := range list {
		if f.MatchID == matchID {
			return i
		}
	}
	return -1
}

func TestStreakBonusNeedsConsecutiveAppearances(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, entrants := h.newEvent(t, models.SystemRoundRobin, 4)
	custom := models.DefaultCustomScoring()
	custom.Enabled = true
	custom.Participation.Enabled = true
	ev.CustomScoring = &custom
	require.NoError(t, h.events.Update(ctx, ev))
	g, _ := h.newGroup(t, ev, models.SystemRoundRobin, entrants, GenerateOptions{})

	list, err := h.matches.ListByGroup(ctx, g.ID)
	require.NoError(t, err)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Round < list[j].Round })
	var last *models.Match
	for _, m := range list {
		if !m.HasPlayer("p1") {
			h.play(t, m.ID, "3-1")
			continue
		}
		if m.Round == 1 {
			// p1 does not show up for the first round.
			opp := m.Participant1
			if m.Side("p1") == 1 {
				opp = m.Participant2
			}
			_, err := h.matchSvc.SubmitResult(ctx, organizer, m.ID, ResultInput{Forfeit: true, WinnerKey: opp.Key()})
			require.NoError(t, err)
			continue
		}
		last = h.play(t, m.ID, "3-1")
	}
	require.NotNil(t, last)
	require.Equal(t, 3, last.Round)

	entries := map[string]models.ContributionEntry{}
	for _, e := range h.match(t, last.ID).Applied.Entries {
		entries[e.EntrantKey] = e
	}
	assert.NotContains(t, entries["p1"].Breakdown, scoring.KeyStreak, "the no-show broke p1's run")
	for key, e := range entries {
		if key != "p1" {
			assert.Contains(t, e.Breakdown, scoring.KeyStreak, "%s played every round", key)
		}
	}
}

func TestSwissStandingsBreakTiesByRating(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, entrants := h.newEvent(t, models.SystemSwiss, 4)
	p3, err := h.participants.GetByID(ctx, "p3")
	require.NoError(t, err)
	p3.RatingPoints = 1800
	require.NoError(t, h.participants.Update(ctx, p3))
	g, _ := h.newGroup(t, ev, models.SystemSwiss, entrants, GenerateOptions{})

	rows, err := h.standings.GroupStandings(ctx, g.ID)
	require.NoError(t, err)
	var order []string
	for _, r := range rows {
		order = append(order, r.EntrantK)
	}
	assert.Equal(t, []string{"p3", "p1", "p2", "p4"}, order, "level on every score, the rating decides")
}
