package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/repositories"
)

var organizer = models.Actor{UserID: "org", Role: models.RoleOrganizer}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*models.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg *models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

func (n *recordingNotifier) to(recipient string, typ models.NotificationType) []*models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []*models.Notification
	for _, m := range n.sent {
		if m.RecipientID == recipient && m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

type recordingHub struct {
	mu       sync.Mutex
	messages map[string]int
}

func (h *recordingHub) BroadcastToRoom(roomID string, _ any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.messages == nil {
		h.messages = map[string]int{}
	}
	h.messages[roomID]++
}

func (h *recordingHub) count(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.messages[roomID]
}

type harness struct {
	events        repositories.EventRepository
	participants  repositories.ParticipantRepository
	groups        repositories.GroupRepository
	matches       repositories.MatchRepository
	rows          repositories.StandingRepository
	notifications repositories.NotificationRepository
	corrections   repositories.CorrectionRepository

	hub   *recordingHub
	notes *recordingNotifier

	standings   StandingsService
	progression ProgressionService
	matchSvc    MatchService
	fixtures    FixtureService
	swiss       SwissService
	schedule    ScheduleService
	reminders   ReminderService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := repositories.NewMemoryStore()
	logger := discardLogger()
	h := &harness{
		events:        repositories.NewEventRepository(store),
		participants:  repositories.NewParticipantRepository(store),
		groups:        repositories.NewGroupRepository(store),
		matches:       repositories.NewMatchRepository(store),
		rows:          repositories.NewStandingRepository(store),
		notifications: repositories.NewNotificationRepository(store),
		corrections:   repositories.NewCorrectionRepository(store),
		hub:           &recordingHub{},
		notes:         &recordingNotifier{},
	}
	rules := NewSportRulesProvider(repositories.NewSportRuleRepository(store), nil, logger)
	metrics := NewMetrics(nil)

	h.standings = NewStandingsService(h.events, h.participants, h.groups, h.matches, h.rows, rules, h.hub, metrics, nil, logger)
	h.progression = NewProgressionService(h.events, h.groups, h.matches, h.hub, metrics, nil, logger)
	h.matchSvc = NewMatchService(MatchServiceDeps{
		Events:       h.events,
		Participants: h.participants,
		Groups:       h.groups,
		Matches:      h.matches,
		Corrections:  h.corrections,
		Rules:        rules,
		Standings:    h.standings,
		Progression:  h.progression,
		Notifier:     h.notes,
		Hub:          h.hub,
		Metrics:      metrics,
		Logger:       logger,
	})
	h.fixtures = NewFixtureService(h.events, h.participants, h.groups, h.matches, h.standings, h.hub, nil, logger)
	h.swiss = NewSwissService(h.events, h.participants, h.groups, h.matches, h.rows, h.standings, h.hub, nil, logger)
	h.schedule = NewScheduleService(h.events, h.participants, h.groups, h.matches, h.notes, h.hub, metrics, nil, logger)
	h.reminders = NewReminderService(h.participants, h.matches, h.notifications, h.notes, nil, metrics, logger)
	return h
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var eventStart = time.Date(2026, 6, 6, 0, 0, 0, 0, time.UTC)

// newEvent stores an open event and n singles players p1..pn, each with an
// account u1..un.
func (h *harness) newEvent(t *testing.T, system models.MatchSystem, n int) (*models.Event, []models.EntrantRef) {
	t.Helper()
	ctx := context.Background()
	faker := gofakeit.New(uint64(n))
	ev := &models.Event{
		Name:        "Bahar Turnuvası",
		Sport:       "masa tenisi",
		OrganizerID: organizer.UserID,
		Open:        true,
		System:      system,
		Schedule: models.ScheduleConfig{
			Courts:       2,
			MatchMinutes: 30,
			DayStart:     "09:00",
			DayEnd:       "18:00",
		},
		StartDate: eventStart,
	}
	require.NoError(t, h.events.Create(ctx, ev))

	entrants := make([]models.EntrantRef, 0, n)
	for i := 1; i <= n; i++ {
		p := &models.Participant{
			ID:        fmt.Sprintf("p%d", i),
			EventID:   ev.ID,
			UserID:    fmt.Sprintf("u%d", i),
			Name:      faker.Name(),
			Gender:    models.GenderMale,
			GameTypes: []models.GameType{models.GameSingles},
			Wins:      n - i,
			Losses:    i,
		}
		require.NoError(t, h.participants.Create(ctx, p))
		entrants = append(entrants, models.Single(p.ID))
	}
	return ev, entrants
}

// newGroup creates a populated group and generates its fixture.
func (h *harness) newGroup(t *testing.T, ev *models.Event, system models.MatchSystem, entrants []models.EntrantRef, opts GenerateOptions) (*models.Group, *FixtureResult) {
	t.Helper()
	ctx := context.Background()
	g, err := h.fixtures.CreateGroup(ctx, organizer, ev.ID, GroupInput{Name: "Grup A", System: system, Entrants: entrants})
	require.NoError(t, err)
	res, err := h.fixtures.GenerateFixture(ctx, organizer, g.ID, opts)
	require.NoError(t, err)
	return res.Group, res
}

// play records a result as the organizer.
func (h *harness) play(t *testing.T, matchID, score string) *models.Match {
	t.Helper()
	m, err := h.matchSvc.SubmitResult(context.Background(), organizer, matchID, ResultInput{Score: score})
	require.NoError(t, err)
	require.Equal(t, models.MatchCompleted, m.Status)
	return m
}

func (h *harness) match(t *testing.T, id string) *models.Match {
	t.Helper()
	m, err := h.matches.GetByID(context.Background(), id)
	require.NoError(t, err)
	return m
}

func (h *harness) group(t *testing.T, id string) *models.Group {
	t.Helper()
	g, err := h.groups.GetByID(context.Background(), id)
	require.NoError(t, err)
	return g
}

// open lists the group's matches that can be played now.
func (h *harness) open(t *testing.T, groupID string) []*models.Match {
	t.Helper()
	list, err := h.matches.ListByGroup(context.Background(), groupID)
	require.NoError(t, err)
	var out []*models.Match
	for _, m := range list {
		if m.Status == models.MatchScheduled && m.Ready() {
			out = append(out, m)
		}
	}
	return out
}

// playAll completes every playable match of the group, side one winning,
// until nothing is left.
func (h *harness) playAll(t *testing.T, groupID string) {
	t.Helper()
	for i := 0; i < 100; i++ {
		ready := h.open(t, groupID)
		if len(ready) == 0 {
			return
		}
		for _, m := range ready {
			h.play(t, m.ID, "3-1")
		}
	}
	t.Fatalf("group %s never ran out of playable matches", groupID)
}

func (h *harness) standingOf(t *testing.T, groupID, key string) models.Standing {
	t.Helper()
	rows, err := h.standings.GroupStandings(context.Background(), groupID)
	require.NoError(t, err)
	for _, r := range rows {
		if r.EntrantK == key {
			return r
		}
	}
	t.Fatalf("no standing for %s in %s", key, groupID)
	return models.Standing{}
}
