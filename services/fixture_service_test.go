package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-scheduler/models"
)

func entrantKeys(es []models.EntrantRef) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Key()
	}
	return out
}

func TestPartitionCreatesOneGroupPerCategory(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, _ := h.newEvent(t, models.SystemRoundRobin, 3)
	ev.Open = false
	ev.Genders = []models.Gender{models.GenderMale, models.GenderFemale}
	require.NoError(t, h.events.Update(ctx, ev))
	for i := 1; i <= 2; i++ {
		require.NoError(t, h.participants.Create(ctx, &models.Participant{
			ID:        fmt.Sprintf("f%d", i),
			EventID:   ev.ID,
			Name:      fmt.Sprintf("Oyuncu %d", i),
			Gender:    models.GenderFemale,
			GameTypes: []models.GameType{models.GameSingles},
		}))
	}

	res, err := h.fixtures.Partition(ctx, organizer, ev.ID)
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)
	assert.Equal(t, models.OutcomeSucceeded, res.Outcome.Status)
	assert.Equal(t, 5, res.Outcome.Processed)

	sizes := map[models.Gender]int{}
	for _, g := range res.Groups {
		assert.Equal(t, models.GroupPopulated, g.Status)
		sizes[g.Category.Gender] = len(g.Entrants)
	}
	assert.Equal(t, map[models.Gender]int{models.GenderMale: 3, models.GenderFemale: 2}, sizes)

	again, err := h.fixtures.Partition(ctx, organizer, ev.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Groups, "existing categories are left alone")

	_, err = h.fixtures.Partition(ctx, player("u1"), ev.ID)
	assert.ErrorIs(t, err, ErrOrganizerOnly)
}

func TestGeneratedGroupIsFrozen(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, entrants := h.newEvent(t, models.SystemRoundRobin, 5)
	g, err := h.fixtures.CreateGroup(ctx, organizer, ev.ID, GroupInput{Name: "Grup A", Entrants: entrants[:4]})
	require.NoError(t, err)
	assert.Equal(t, models.SystemRoundRobin, g.System, "system defaults to the event's")

	_, err = h.fixtures.AddEntrant(ctx, organizer, g.ID, entrants[0])
	assert.ErrorIs(t, err, ErrConflict)

	res, err := h.fixtures.GenerateFixture(ctx, organizer, g.ID, GenerateOptions{})
	require.NoError(t, err)
	assert.Len(t, res.Matches, 6)
	assert.Equal(t, models.GroupFixtureGenerated, res.Group.Status)

	_, err = h.fixtures.AddEntrant(ctx, organizer, g.ID, entrants[4])
	assert.ErrorIs(t, err, ErrFixtureGenerated)
	_, err = h.fixtures.GenerateFixture(ctx, organizer, g.ID, GenerateOptions{})
	assert.ErrorIs(t, err, ErrFixtureGenerated)

	list, err := h.matches.ListByGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, list, 6, "a second generation adds nothing")
}

func TestGenerateRejectsLoneEntrant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, entrants := h.newEvent(t, models.SystemSingleElimination, 1)
	g, err := h.fixtures.CreateGroup(ctx, organizer, ev.ID, GroupInput{Name: "Grup A", Entrants: entrants})
	require.NoError(t, err)

	_, err = h.fixtures.GenerateFixture(ctx, organizer, g.ID, GenerateOptions{})
	assert.ErrorIs(t, err, ErrTooFewEntrants)
	assert.Equal(t, ClassValidation, ClassOf(err))
}

func TestExclusionsAreReported(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, entrants := h.newEvent(t, models.SystemRoundRobin, 4)
	ev.Exclusions = [][2]int{{1, 2}}
	require.NoError(t, h.events.Update(ctx, ev))

	_, res := h.newGroup(t, ev, models.SystemRoundRobin, entrants, GenerateOptions{})
	assert.Len(t, res.Matches, 5)
	assert.Equal(t, models.OutcomePartial, res.Outcome.Status)
	require.Len(t, res.Outcome.Excluded, 1)
	assert.Contains(t, res.Outcome.Excluded[0], "p1")
	assert.Contains(t, res.Outcome.Excluded[0], "p2")
	for _, m := range res.Matches {
		assert.False(t, m.Side("p1") != 0 && m.Side("p2") != 0, "p1 and p2 never meet")
	}
}

func TestSplitMergeAndByes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, entrants := h.newEvent(t, models.SystemRoundRobin, 8)
	g, err := h.fixtures.CreateGroup(ctx, organizer, ev.ID, GroupInput{Name: "Tekler", Entrants: entrants})
	require.NoError(t, err)

	parts, err := h.fixtures.SplitGroup(ctx, organizer, g.ID, 2)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "Tekler Grup A", parts[0].Name)
	if diff := cmp.Diff([]string{"p1", "p4", "p5", "p8"}, entrantKeys(parts[0].Entrants)); diff != "" {
		t.Errorf("first split mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"p2", "p3", "p6", "p7"}, entrantKeys(parts[1].Entrants)); diff != "" {
		t.Errorf("second split mismatch (-want +got):\n%s", diff)
	}
	_, err = h.groups.GetByID(ctx, g.ID)
	assert.Error(t, err, "the split source is removed")

	require.NoError(t, h.fixtures.MoveEntrant(ctx, organizer, parts[0].ID, parts[1].ID, "p8"))
	assert.Len(t, h.group(t, parts[1].ID).Entrants, 5)

	merged, err := h.fixtures.MergeGroups(ctx, organizer, []string{parts[0].ID, parts[1].ID}, "Tekler")
	require.NoError(t, err)
	assert.Len(t, merged.Entrants, 8)
	groups, err := h.fixtures.ListGroups(ctx, ev.ID)
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	_, err = h.fixtures.SetByes(ctx, organizer, merged.ID, []string{"nobody"})
	assert.ErrorIs(t, err, ErrValidation)
	withByes, err := h.fixtures.SetByes(ctx, organizer, merged.ID, []string{"p8"})
	require.NoError(t, err)
	assert.True(t, withByes.IsBye("p8"))

	removed, err := h.fixtures.RemoveEntrant(ctx, organizer, merged.ID, "p8")
	require.NoError(t, err)
	assert.False(t, removed.IsBye("p8"))
	assert.Len(t, removed.Entrants, 7)
}

func TestDesignatedByeSkipsFirstRound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, entrants := h.newEvent(t, models.SystemSingleElimination, 3)
	g, err := h.fixtures.CreateGroup(ctx, organizer, ev.ID, GroupInput{
		Name:        "Grup A",
		Entrants:    entrants,
		ByeEntrants: []models.EntrantRef{entrants[2]},
	})
	require.NoError(t, err)

	_, err = h.fixtures.GenerateFixture(ctx, organizer, g.ID, GenerateOptions{})
	require.NoError(t, err)
	final := h.match(t, MatchID(g.ID, "R2M1"))
	require.NotNil(t, final.Participant1)
	assert.Equal(t, "p3", final.Participant1.Key(), "a designated bye outranks a better record")
}

func TestEliminationFromGroupStage(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, entrants := h.newEvent(t, models.SystemGroupStage, 8)
	_, res := h.newGroup(t, ev, models.SystemGroupStage, entrants, GenerateOptions{GroupSize: 4})

	require.Len(t, res.Groups, 2)
	assert.Len(t, res.Matches, 12)
	ids := make([]string, 0, len(res.Groups))
	for _, child := range res.Groups {
		assert.Equal(t, models.SystemRoundRobin, child.System)
		ids = append(ids, child.ID)
	}

	_, err := h.fixtures.BuildEliminationFromGroups(ctx, organizer, ev.ID, EliminationInput{GroupIDs: ids})
	assert.ErrorIs(t, err, ErrGroupsNotFinished)

	for _, id := range ids {
		h.playAll(t, id)
		assert.Equal(t, models.GroupStandingsComputed, h.group(t, id).Status)
	}

	ko, err := h.fixtures.BuildEliminationFromGroups(ctx, organizer, ev.ID, EliminationInput{GroupIDs: ids})
	require.NoError(t, err)
	assert.Len(t, ko.Group.Entrants, 4)
	assert.Equal(t, models.SystemSingleElimination, ko.Group.System)
	assert.Len(t, ko.Matches, 3)

	for _, id := range ids {
		src := h.group(t, id)
		assert.Equal(t, models.GroupSuperseded, src.Status)
		assert.Equal(t, ko.Group.ID, src.SupersededBy)
		rows, err := h.standings.GroupStandings(ctx, id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, ko.Group.IndexOf(rows[0].EntrantK), 0, "group winner qualifies")
	}

	_, err = h.fixtures.BuildEliminationFromGroups(ctx, organizer, ev.ID, EliminationInput{GroupIDs: ids})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestEliminationMatchesRecordFeeders(t *testing.T) {
	h := newHarness(t)
	ev, entrants := h.newEvent(t, models.SystemSingleElimination, 5)
	g, res := h.newGroup(t, ev, models.SystemSingleElimination, entrants, GenerateOptions{})
	require.Len(t, res.Matches, 4)

	byRound := map[int][]*models.Match{}
	for _, m := range res.Matches {
		byRound[m.Round] = append(byRound[m.Round], m)
	}
	require.Len(t, byRound[3], 1)
	var semis []string
	for _, m := range byRound[2] {
		semis = append(semis, m.ID)
	}
	final := h.match(t, byRound[3][0].ID)
	assert.ElementsMatch(t, semis, final.Feeders)

	fed := map[string]int{}
	for _, m := range byRound[2] {
		for _, f := range h.match(t, m.ID).Feeders {
			fed[f]++
		}
	}
	for _, m := range byRound[1] {
		assert.Empty(t, m.Feeders)
		assert.Equal(t, 1, fed[m.ID], "%s feeds exactly one match", m.ID)
	}
	for id := range fed {
		assert.Contains(t, id, g.ID+":")
	}
}
