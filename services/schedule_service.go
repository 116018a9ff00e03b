package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/repositories"
	"github.com/Dosada05/tournament-scheduler/scheduling"
)

// ScheduleOptions narrows a scheduling run.
type ScheduleOptions struct {
	// GroupIDs limits the run to some groups; empty means the whole event.
	GroupIDs []string `json:"group_ids,omitempty"`
	// Reschedule drops the existing slots of not yet started matches.
	Reschedule bool `json:"reschedule"`
}

type ScheduleResult struct {
	Outcome     models.Outcome           `json:"outcome"`
	Assignments []scheduling.Assignment `json:"assignments"`
}

type ScheduleService interface {
	ScheduleEvent(ctx context.Context, actor models.Actor, eventID string, opts ScheduleOptions) (*ScheduleResult, error)
	// EventSchedule lists the placed matches of an event by start time and court.
	EventSchedule(ctx context.Context, eventID string) ([]*models.Match, error)
}

type scheduleService struct {
	events       repositories.EventRepository
	participants repositories.ParticipantRepository
	groups       repositories.GroupRepository
	matches      repositories.MatchRepository
	notifier     Notifier
	hub          Broadcaster
	metrics      *Metrics
	tracer       trace.Tracer
	logger       *slog.Logger
}

func NewScheduleService(
	events repositories.EventRepository,
	participants repositories.ParticipantRepository,
	groups repositories.GroupRepository,
	matches repositories.MatchRepository,
	notifier Notifier,
	hub Broadcaster,
	metrics *Metrics,
	tracer trace.Tracer,
	logger *slog.Logger,
) ScheduleService {
	return &scheduleService{
		events:       events,
		participants: participants,
		groups:       groups,
		matches:      matches,
		notifier:     notifier,
		hub:          hub,
		metrics:      metrics,
		tracer:       tracer,
		logger:       logger,
	}
}

// schedulable reports whether a match may still be given a court and time.
func schedulable(m *models.Match) bool {
	if m.IsBye {
		return false
	}
	return m.Status == models.MatchScheduled || m.Status == models.MatchAwaitingParticipants
}

// groupKey keeps same-named groups of different categories apart while
// ordering by name.
func groupKey(g *models.Group) string {
	return g.Name + "/" + g.ID
}

func (s *scheduleService) ScheduleEvent(ctx context.Context, actor models.Actor, eventID string, opts ScheduleOptions) (res *ScheduleResult, err error) {
	ctx, span := startSpan(ctx, s.tracer, "schedule.run", attribute.String("event_id", eventID))
	defer func() { endSpan(span, err) }()
	defer s.metrics.observe("schedule", time.Now())

	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err)
	}
	if !actor.CanManage(ev) {
		return nil, ErrOrganizerOnly
	}
	cfg, err := scheduling.ConfigFromEvent(ev)
	if err != nil {
		return nil, validationf(err, "event %s schedule", eventID)
	}

	var (
		groups  []*models.Group
		matches []*models.Match
		roster  []*models.Participant
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		groups, err = s.groups.ListByEvent(egCtx, eventID)
		return err
	})
	eg.Go(func() error {
		var err error
		matches, err = s.matches.ListByEvent(egCtx, eventID)
		return err
	})
	eg.Go(func() error {
		var err error
		roster, err = s.participants.ListByEvent(egCtx, eventID)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("loading event %s: %w", eventID, err)
	}

	byGroup := make(map[string]*models.Group, len(groups))
	members := make(map[string][]string, len(groups))
	for _, g := range groups {
		byGroup[g.ID] = g
		for _, e := range g.Entrants {
			members[g.ID] = append(members[g.ID], e.Members()...)
		}
	}
	wanted := make(map[string]bool, len(opts.GroupIDs))
	for _, id := range opts.GroupIDs {
		if _, ok := byGroup[id]; !ok {
			return nil, fmt.Errorf("%w: group %s is not part of event %s", ErrNotFound, id, eventID)
		}
		wanted[id] = true
	}

	sched, err := scheduling.New(cfg)
	if err != nil {
		return nil, validationf(err, "event %s schedule", eventID)
	}
	feeders, err := feederIndex(byGroup, matches)
	if err != nil {
		return nil, fmt.Errorf("event %s bracket: %w", eventID, err)
	}
	players := possiblePlayers(matches, feeders)
	item := func(m *models.Match) scheduling.Item {
		it := scheduling.Item{
			ID:       m.ID,
			Category: m.Category,
			Round:    m.Round,
			Stage:    m.Stage,
			Players:  players(m),
			Feeders:  feeders[m.ID],
		}
		if g, ok := byGroup[m.GroupID]; ok {
			it.Group = groupKey(g)
			it.GroupMembers = members[g.ID]
		}
		return it
	}

	var items []scheduling.Item
	for _, m := range matches {
		inRun := schedulable(m) && (len(wanted) == 0 || wanted[m.GroupID])
		if inRun && (m.ScheduledAt == nil || opts.Reschedule) {
			items = append(items, item(m))
			continue
		}
		if m.ScheduledAt == nil || m.Court == nil || m.IsBye || m.Status == models.MatchCancelled {
			continue
		}
		// Everything already on the calendar keeps its court and players busy.
		sched.Reserve(scheduling.Placed{
			Item: item(m),
			Assignment: scheduling.Assignment{
				ItemID:    m.ID,
				Court:     *m.Court,
				Start:     *m.ScheduledAt,
				End:       m.ScheduledAt.Add(cfg.MatchDuration),
				RefereeID: m.RefereeID,
			},
		})
	}

	plan := sched.Schedule(items)
	res = &ScheduleResult{}
	for _, a := range plan.Assignments {
		m, err := s.place(ctx, a, opts.Reschedule)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		res.Assignments = append(res.Assignments, a)
		publish(s.hub, eventID, UpdateMatchUpdated, m)
		s.notifyScheduled(ctx, roster, m)
	}
	if opts.Reschedule {
		for _, id := range plan.Unscheduled {
			if err := s.clearSlot(ctx, id); err != nil {
				return nil, err
			}
		}
	}
	for _, id := range plan.Unscheduled {
		s.logger.Warn("match could not be scheduled", slog.String("event_id", eventID), slog.String("match_id", id))
	}

	s.metrics.scheduleRun(len(res.Assignments), len(plan.Unscheduled))
	res.Outcome = models.NewOutcome(len(res.Assignments), plan.Unscheduled, nil)
	if len(res.Assignments) == 0 && len(plan.Unscheduled) > 0 {
		res.Outcome.Status = models.OutcomeRejected
		res.Outcome.Message = ErrUnschedulable.Error()
	}
	publish(s.hub, eventID, UpdateScheduleSaved, res)
	span.SetAttributes(attribute.Int("scheduled", len(res.Assignments)), attribute.Int("unscheduled", len(plan.Unscheduled)))
	s.logger.Info("schedule written",
		slog.String("event_id", eventID),
		slog.Int("scheduled", len(res.Assignments)),
		slog.Int("unscheduled", len(plan.Unscheduled)))
	return res, nil
}

// place writes one assignment, reloading on concurrent updates. A match that
// left the schedulable states meanwhile is skipped and nil is returned.
func (s *scheduleService) place(ctx context.Context, a scheduling.Assignment, overwrite bool) (*models.Match, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		m, err := s.matches.GetByID(ctx, a.ItemID)
		if err != nil {
			return nil, err
		}
		if !schedulable(m) || (m.ScheduledAt != nil && !overwrite) {
			return nil, nil
		}
		court, start := a.Court, a.Start
		m.Court = &court
		m.ScheduledAt = &start
		if a.RefereeID != "" && m.RefereeID == "" {
			m.RefereeID = a.RefereeID
		}
		err = s.matches.Update(ctx, m)
		if err == nil {
			return m, nil
		}
		if !errors.Is(err, repositories.ErrConflictingUpdate) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: match %s kept changing while scheduling", ErrConflict, a.ItemID)
}

func (s *scheduleService) clearSlot(ctx context.Context, matchID string) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		m, err := s.matches.GetByID(ctx, matchID)
		if err != nil {
			return err
		}
		if !schedulable(m) || m.ScheduledAt == nil {
			return nil
		}
		m.Court, m.ScheduledAt = nil, nil
		err = s.matches.Update(ctx, m)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repositories.ErrConflictingUpdate) {
			return err
		}
	}
	return fmt.Errorf("%w: match %s kept changing while scheduling", ErrConflict, matchID)
}

func (s *scheduleService) notifyScheduled(ctx context.Context, roster []*models.Participant, m *models.Match) {
	recipients := accountIDs(roster, m.Players())
	if m.RefereeID != "" {
		recipients = append(recipients, m.RefereeID)
	}
	when := m.ScheduledAt.Format("02.01.2006 15:04")
	notifyAll(ctx, s.notifier, recipients, func(to string) *models.Notification {
		return &models.Notification{
			RecipientID: to,
			Type:        models.NotifyMatchScheduled,
			Title:       "Maç programı",
			Body:        fmt.Sprintf("%s maçınız %s saatinde %d. kortta.", m.RoundName, when, *m.Court),
			Payload:     map[string]any{"match_id": m.ID, "court": *m.Court, "scheduled_at": m.ScheduledAt},
		}
	})
}

func (s *scheduleService) EventSchedule(ctx context.Context, eventID string) ([]*models.Match, error) {
	list, err := s.matches.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	out := list[:0:0]
	for _, m := range list {
		if m.ScheduledAt != nil && m.Court != nil {
			out = append(out, m)
		}
	}
	sortBySlot(out)
	return out, nil
}

func sortBySlot(list []*models.Match) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.ScheduledAt.Equal(*b.ScheduledAt) {
			return a.ScheduledAt.Before(*b.ScheduledAt)
		}
		return *a.Court < *b.Court
	})
}
