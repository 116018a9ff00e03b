package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-scheduler/models"
)

func TestSwissRoundsWithRotatingBye(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	seed := uint64(7)
	ev, entrants := h.newEvent(t, models.SystemSwiss, 5)
	g, res := h.newGroup(t, ev, models.SystemSwiss, entrants, GenerateOptions{SwissRounds: 3, Seed: &seed})

	require.NotNil(t, g.Swiss)
	assert.Equal(t, 3, g.Swiss.TotalRounds)
	assert.Equal(t, []string{"p5"}, g.Swiss.ByeHistory, "lowest ranked sits out first")
	assert.Equal(t, 1, h.standingOf(t, g.ID, "p5").Wins)
	for _, m := range res.Matches {
		assert.Equal(t, 1, m.Round, "later rounds are paired from standings")
	}

	_, err := h.swiss.PairNextRound(ctx, organizer, g.ID)
	assert.ErrorIs(t, err, ErrRoundNotFinished)

	byes := map[string]bool{"p5": true}
	for round := 2; round <= 3; round++ {
		h.playAll(t, g.ID)
		next, err := h.swiss.PairNextRound(ctx, organizer, g.ID)
		require.NoError(t, err)
		assert.Equal(t, round, next.Round)
		assert.Len(t, next.Matches, 2)
		require.NotNil(t, next.Bye)
		bye := next.Bye.Participant1.Key()
		assert.False(t, byes[bye], "%s got a second bye", bye)
		byes[bye] = true
	}

	_, err = h.swiss.PairNextRound(ctx, organizer, g.ID)
	assert.ErrorIs(t, err, ErrAllRoundsPlayed)

	h.playAll(t, g.ID)
	assert.Equal(t, models.GroupStandingsComputed, h.group(t, g.ID).Status)

	ranking, err := h.swiss.Ranking(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, ranking, 5)
	for i := 1; i < len(ranking); i++ {
		prev, cur := ranking[i-1], ranking[i]
		assert.GreaterOrEqual(t, prev.Points, cur.Points)
		if prev.Points == cur.Points {
			assert.GreaterOrEqual(t, prev.Buchholz, cur.Buchholz)
		}
	}
	var played int
	for _, r := range ranking {
		played += r.Played
	}
	// Six games of two players plus three byes.
	assert.Equal(t, 15, played)
}

func TestSwissPairingNeedsOrganizer(t *testing.T) {
	h := newHarness(t)
	ev, entrants := h.newEvent(t, models.SystemSwiss, 4)
	g, _ := h.newGroup(t, ev, models.SystemSwiss, entrants, GenerateOptions{SwissRounds: 2})
	h.playAll(t, g.ID)

	_, err := h.swiss.PairNextRound(context.Background(), player("u1"), g.ID)
	assert.ErrorIs(t, err, ErrOrganizerOnly)

	next, err := h.swiss.PairNextRound(context.Background(), organizer, g.ID)
	require.NoError(t, err)
	assert.Nil(t, next.Bye)
	assert.Len(t, next.Matches, 2)
}
