package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-scheduler/models"
)

func TestScheduleEventPlacesEveryMatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, entrants := h.newEvent(t, models.SystemRoundRobin, 4)
	g, _ := h.newGroup(t, ev, models.SystemRoundRobin, entrants, GenerateOptions{})

	res, err := h.schedule.ScheduleEvent(ctx, organizer, ev.ID, ScheduleOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSucceeded, res.Outcome.Status)
	assert.Len(t, res.Assignments, 6)

	placed, err := h.schedule.EventSchedule(ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, placed, 6)
	open := time.Date(2026, 6, 6, 9, 0, 0, 0, time.UTC)
	for i, m := range placed {
		assert.Equal(t, g.ID, m.GroupID)
		assert.Contains(t, []int{1, 2}, *m.Court)
		assert.False(t, m.ScheduledAt.Before(open))
		if i > 0 {
			assert.False(t, m.ScheduledAt.Before(*placed[i-1].ScheduledAt), "sorted by time")
		}
		for _, o := range placed[:i] {
			if !o.ScheduledAt.Equal(*m.ScheduledAt) {
				continue
			}
			assert.NotEqual(t, *o.Court, *m.Court, "%s and %s share a court", o.ID, m.ID)
			for _, p := range m.Players() {
				assert.NotContains(t, o.Players(), p, "%s plays twice at %s", p, m.ScheduledAt)
			}
		}
	}
	assert.Len(t, h.notes.to("u1", models.NotifyMatchScheduled), 3)

	again, err := h.schedule.ScheduleEvent(ctx, organizer, ev.ID, ScheduleOptions{})
	require.NoError(t, err)
	assert.Empty(t, again.Assignments, "placed matches keep their slot")
	assert.Equal(t, models.OutcomeSucceeded, again.Outcome.Status)
}

func TestScheduleEventReportsWhatDoesNotFit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, entrants := h.newEvent(t, models.SystemRoundRobin, 4)
	ev.Schedule.Courts = 1
	ev.Schedule.DayEnd = "10:00"
	require.NoError(t, h.events.Update(ctx, ev))
	h.newGroup(t, ev, models.SystemRoundRobin, entrants, GenerateOptions{})

	res, err := h.schedule.ScheduleEvent(ctx, organizer, ev.ID, ScheduleOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomePartial, res.Outcome.Status)
	assert.Len(t, res.Assignments, 2)
	assert.Len(t, res.Outcome.Unscheduled, 4)

	ev.Schedule.DayEnd = "09:15"
	require.NoError(t, h.events.Update(ctx, ev))
	res, err = h.schedule.ScheduleEvent(ctx, organizer, ev.ID, ScheduleOptions{Reschedule: true})
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeRejected, res.Outcome.Status)
	placed, err := h.schedule.EventSchedule(ctx, ev.ID)
	require.NoError(t, err)
	assert.Empty(t, placed, "rescheduling clears slots that no longer fit")
}

func TestScheduleEventValidatesInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, _ := h.newEvent(t, models.SystemRoundRobin, 2)

	_, err := h.schedule.ScheduleEvent(ctx, player("u1"), ev.ID, ScheduleOptions{})
	assert.ErrorIs(t, err, ErrOrganizerOnly)
	_, err = h.schedule.ScheduleEvent(ctx, organizer, ev.ID, ScheduleOptions{GroupIDs: []string{"missing"}})
	assert.ErrorIs(t, err, ErrNotFound)

	ev.Schedule.Courts = 0
	require.NoError(t, h.events.Update(ctx, ev))
	_, err = h.schedule.ScheduleEvent(ctx, organizer, ev.ID, ScheduleOptions{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestScheduleEventRestsPlayersBeforeLaterRounds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, entrants := h.newEvent(t, models.SystemSingleElimination, 4)
	ev.Schedule.MinRestMinutes = 30
	ev.Schedule.BreakMinutes = 0
	require.NoError(t, h.events.Update(ctx, ev))
	g, _ := h.newGroup(t, ev, models.SystemSingleElimination, entrants, GenerateOptions{})

	res, err := h.schedule.ScheduleEvent(ctx, organizer, ev.ID, ScheduleOptions{})
	require.NoError(t, err)
	require.Len(t, res.Assignments, 3)

	final := h.match(t, MatchID(g.ID, "R2M1"))
	require.NotNil(t, final.ScheduledAt)
	assert.Empty(t, final.Players(), "the final is still waiting for its entrants")
	rest := 30 * time.Minute
	for _, uid := range []string{"R1M1", "R1M2"} {
		semi := h.match(t, MatchID(g.ID, uid))
		require.NotNil(t, semi.ScheduledAt)
		end := semi.ScheduledAt.Add(30 * time.Minute)
		assert.False(t, final.ScheduledAt.Before(end.Add(rest)),
			"final at %s starts within the rest window after %s ends at %s", final.ScheduledAt, uid, end)
	}
}

func TestScheduleEventFeedsDoubleEliminationRest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	ev, entrants := h.newEvent(t, models.SystemDoubleElimination, 4)
	ev.Schedule.MinRestMinutes = 20
	require.NoError(t, h.events.Update(ctx, ev))
	g, _ := h.newGroup(t, ev, models.SystemDoubleElimination, entrants, GenerateOptions{})

	_, err := h.schedule.ScheduleEvent(ctx, organizer, ev.ID, ScheduleOptions{})
	require.NoError(t, err)
	winnersFinal := h.match(t, MatchID(g.ID, "WR2M1"))
	require.NotNil(t, winnersFinal.ScheduledAt)
	for _, uid := range []string{"WR1M1", "WR1M2"} {
		m := h.match(t, MatchID(g.ID, uid))
		require.NotNil(t, m.ScheduledAt)
		assert.False(t, winnersFinal.ScheduledAt.Before(m.ScheduledAt.Add(50*time.Minute)), uid)
	}
}
