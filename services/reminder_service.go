package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/repositories"
)

// reminderWindow is how far from its target lead time a match may start and
// still get that reminder.
const reminderWindow = 30 * time.Minute

type reminderKind struct {
	lead  time.Duration
	label string
	typ   models.NotificationType
	body  string
}

var reminderKinds = []reminderKind{
	{lead: 24 * time.Hour, label: "24h", typ: models.NotifyReminder24h, body: "%s maçınız yarın %s saatinde, %d. kortta."},
	{lead: time.Hour, label: "1h", typ: models.NotifyReminder1h, body: "%s maçınız bir saat sonra (%s), %d. kortta."},
}

// ReminderService sends one reminder per player for matches starting in
// about a day and in about an hour.
type ReminderService interface {
	// Sweep returns how many reminders were created. Running it twice, or
	// from two processes at once, sends nothing new.
	Sweep(ctx context.Context, now time.Time) (int, error)
}

type reminderService struct {
	participants  repositories.ParticipantRepository
	matches       repositories.MatchRepository
	notifications repositories.NotificationRepository
	push          Notifier
	limiter       *rate.Limiter
	metrics       *Metrics
	logger        *slog.Logger
}

// NewReminderService wires the sweep. push delivers created reminders live
// and may be nil; limiter throttles inserts and may be nil.
func NewReminderService(
	participants repositories.ParticipantRepository,
	matches repositories.MatchRepository,
	notifications repositories.NotificationRepository,
	push Notifier,
	limiter *rate.Limiter,
	metrics *Metrics,
	logger *slog.Logger,
) ReminderService {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &reminderService{
		participants:  participants,
		matches:       matches,
		notifications: notifications,
		push:          push,
		limiter:       limiter,
		metrics:       metrics,
		logger:        logger,
	}
}

func reminderKey(matchID, recipient, label string) string {
	return fmt.Sprintf("%s:%s:%s", matchID, recipient, label)
}

type reminderJob struct {
	match *models.Match
	kind  reminderKind
	to    []string
}

func (s *reminderService) Sweep(ctx context.Context, now time.Time) (int, error) {
	defer s.metrics.observe("reminder_sweep", time.Now())

	list, err := s.matches.ListByStatus(ctx, models.MatchScheduled)
	if err != nil {
		return 0, fmt.Errorf("listing scheduled matches: %w", err)
	}
	rosters := make(map[string][]*models.Participant)
	var jobs []reminderJob
	for _, m := range list {
		if m.ScheduledAt == nil || m.Court == nil {
			continue
		}
		for _, k := range reminderKinds {
			gap := m.ScheduledAt.Sub(now.Add(k.lead))
			if gap < -reminderWindow || gap > reminderWindow {
				continue
			}
			roster, ok := rosters[m.EventID]
			if !ok {
				if roster, err = s.participants.ListByEvent(ctx, m.EventID); err != nil {
					return 0, err
				}
				rosters[m.EventID] = roster
			}
			jobs = append(jobs, reminderJob{match: m, kind: k, to: accountIDs(roster, m.Players())})
		}
	}
	if len(jobs) == 0 {
		return 0, nil
	}

	var sent atomic.Int64
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, job := range jobs {
		g.Go(func() error {
			n, err := s.remind(gCtx, job)
			sent.Add(int64(n))
			return err
		})
	}
	err = g.Wait()
	total := int(sent.Load())
	if total > 0 {
		s.logger.Info("reminders sent", slog.Int("count", total), slog.Int("matches", len(jobs)))
	}
	return total, err
}

func (s *reminderService) remind(ctx context.Context, job reminderJob) (int, error) {
	m, k := job.match, job.kind
	sent := 0
	seen := make(map[string]bool, len(job.to))
	for _, to := range job.to {
		if seen[to] {
			continue
		}
		seen[to] = true
		key := reminderKey(m.ID, to, k.label)
		exists, err := s.notifications.ExistsByDedupeKey(ctx, key)
		if err != nil {
			return sent, err
		}
		if exists {
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return sent, err
		}
		n := &models.Notification{
			RecipientID: to,
			Type:        k.typ,
			Title:       "Maç hatırlatması",
			Body:        fmt.Sprintf(k.body, m.RoundName, m.ScheduledAt.Format("15:04"), *m.Court),
			Payload:     map[string]any{"match_id": m.ID, "scheduled_at": m.ScheduledAt},
			DedupeKey:   key,
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			if errors.Is(err, repositories.ErrDuplicateDocument) {
				continue
			}
			s.logger.Error("failed to store reminder", slog.String("dedupe_key", key), slog.Any("error", err))
			return sent, err
		}
		if s.push != nil {
			s.push.Notify(ctx, n)
		}
		s.metrics.reminderSent(k.label)
		sent++
	}
	return sent, nil
}
