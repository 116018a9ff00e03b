package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/repositories"
	"github.com/Dosada05/tournament-scheduler/scoring"
)

// ResultInput is a reported match result. WinnerKey is optional for scored
// results and required for a forfeit.
type ResultInput struct {
	Score     string          `json:"score"`
	WinnerKey string          `json:"winner_key"`
	Forfeit   bool            `json:"forfeit"`
	FairPlay1 models.FairPlay `json:"fair_play_1"`
	FairPlay2 models.FairPlay `json:"fair_play_2"`
	// Reason is recorded on corrections.
	Reason string `json:"reason,omitempty"`
}

type MatchService interface {
	GetByID(ctx context.Context, id string) (*models.Match, error)
	ListByEvent(ctx context.Context, eventID string) ([]*models.Match, error)
	ListByGroup(ctx context.Context, groupID string) ([]*models.Match, error)

	Start(ctx context.Context, actor models.Actor, matchID string) (*models.Match, error)
	// SubmitResult completes the match straight away for organizers and
	// referees; a player's submission waits for confirmation.
	SubmitResult(ctx context.Context, actor models.Actor, matchID string, in ResultInput) (*models.Match, error)
	ConfirmResult(ctx context.Context, actor models.Actor, matchID string) (*models.Match, error)
	RejectResult(ctx context.Context, actor models.Actor, matchID, reason string) (*models.Match, error)
	// CorrectScore replaces the result of a completed match. Standings are
	// reversed and re-applied and the bracket is rerouted.
	CorrectScore(ctx context.Context, actor models.Actor, matchID string, in ResultInput) (*models.Match, error)
	Corrections(ctx context.Context, matchID string) ([]*models.ScoreCorrection, error)
	Cancel(ctx context.Context, actor models.Actor, matchID string) (*models.Match, error)
	AssignReferee(ctx context.Context, actor models.Actor, matchID, refereeID string) (*models.Match, error)
	// AutoAssignReferees gives every scheduled match without a referee the
	// least loaded free referee of pool, or of the event's pool when empty.
	AutoAssignReferees(ctx context.Context, actor models.Actor, eventID string, pool []string) (*RefereeAssignment, error)
}

// RefereeAssignment is the result of an automatic referee run. Matches no
// referee was free for are listed as unscheduled in the outcome.
type RefereeAssignment struct {
	Outcome models.Outcome  `json:"outcome"`
	Matches []*models.Match `json:"matches"`
}

type matchService struct {
	events       repositories.EventRepository
	participants repositories.ParticipantRepository
	groups       repositories.GroupRepository
	matches      repositories.MatchRepository
	corrections  repositories.CorrectionRepository
	rules        SportRulesProvider
	standings    StandingsService
	progression  ProgressionService
	notifier     Notifier
	hub          Broadcaster
	metrics      *Metrics
	tracer       trace.Tracer
	logger       *slog.Logger
}

// MatchServiceDeps groups the collaborators of the match service.
type MatchServiceDeps struct {
	Events       repositories.EventRepository
	Participants repositories.ParticipantRepository
	Groups       repositories.GroupRepository
	Matches      repositories.MatchRepository
	Corrections  repositories.CorrectionRepository
	Rules        SportRulesProvider
	Standings    StandingsService
	Progression  ProgressionService
	Notifier     Notifier
	Hub          Broadcaster
	Metrics      *Metrics
	Tracer       trace.Tracer
	Logger       *slog.Logger
}

func NewMatchService(d MatchServiceDeps) MatchService {
	return &matchService{
		events:       d.Events,
		participants: d.Participants,
		groups:       d.Groups,
		matches:      d.Matches,
		corrections:  d.Corrections,
		rules:        d.Rules,
		standings:    d.Standings,
		progression:  d.Progression,
		notifier:     d.Notifier,
		hub:          d.Hub,
		metrics:      d.Metrics,
		tracer:       d.Tracer,
		logger:       d.Logger,
	}
}

// matchContext is a match with everything authorization looks at.
type matchContext struct {
	match  *models.Match
	group  *models.Group
	event  *models.Event
	roster []*models.Participant
}

func (s *matchService) load(ctx context.Context, matchID string) (*matchContext, error) {
	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, notFound(err)
	}
	g, err := s.groups.GetByID(ctx, m.GroupID)
	if err != nil {
		return nil, notFound(err)
	}
	ev, err := s.events.GetByID(ctx, m.EventID)
	if err != nil {
		return nil, notFound(err)
	}
	roster, err := s.participants.ListByEvent(ctx, m.EventID)
	if err != nil {
		return nil, err
	}
	return &matchContext{match: m, group: g, event: ev, roster: roster}, nil
}

// privileged actors record results without confirmation.
func (mc *matchContext) privileged(actor models.Actor) bool {
	if actor.CanManage(mc.event) || actor.Role == models.RoleReferee {
		return true
	}
	return mc.match.RefereeID != "" && mc.match.RefereeID == actor.UserID
}

// sideOf returns the side (1 or 2) the actor plays on, 0 if none.
func (mc *matchContext) sideOf(userID string) int {
	if userID == "" {
		return 0
	}
	for _, p := range mc.roster {
		if p.UserID != userID && p.ID != userID {
			continue
		}
		switch {
		case mc.match.Participant1 != nil && mc.match.Participant1.HasMember(p.ID):
			return 1
		case mc.match.Participant2 != nil && mc.match.Participant2.HasMember(p.ID):
			return 2
		}
	}
	return 0
}

func (mc *matchContext) userIDs(playerIDs []string) []string {
	return accountIDs(mc.roster, playerIDs)
}

func (mc *matchContext) sideMembers(side int) []string {
	switch side {
	case 1:
		if mc.match.Participant1 != nil {
			return mc.userIDs(mc.match.Participant1.Members())
		}
	case 2:
		if mc.match.Participant2 != nil {
			return mc.userIDs(mc.match.Participant2.Members())
		}
	}
	return nil
}

// decide validates a reported result against the sport rules. Elimination
// matches never end in a draw.
func (s *matchService) decide(ctx context.Context, mc *matchContext, in ResultInput) (scoring.Decision, string, error) {
	m := mc.match
	if !m.Ready() {
		return scoring.Decision{}, "", ErrMatchNotReady
	}
	var d scoring.Decision
	var err error
	if in.Forfeit {
		d, err = scoring.DecideForfeit(m.Side(in.WinnerKey))
	} else {
		rules, rerr := s.rules.Rules(ctx, mc.event.Sport)
		if rerr != nil {
			return scoring.Decision{}, "", rerr
		}
		allowDraw := rules.AllowDraw && !mc.group.System.Elimination()
		d, err = scoring.Decide(in.Score, rules, allowDraw)
		if err == nil && in.WinnerKey != "" {
			declared := m.Side(in.WinnerKey)
			if declared == 0 {
				err = fmt.Errorf("%w: %s does not play in this match", scoring.ErrWinnerMismatch, in.WinnerKey)
			} else {
				err = scoring.CheckWinner(d, declared)
			}
		}
	}
	if err != nil {
		return scoring.Decision{}, "", fmt.Errorf("%w: %w", ErrInvalidScore, err)
	}
	switch d.Winner {
	case 1:
		return d, m.Participant1.Key(), nil
	case 2:
		return d, m.Participant2.Key(), nil
	}
	return d, "", nil
}

func setResult(m *models.Match, in ResultInput, winnerKey string) {
	m.Score = nil
	if in.Score != "" && !in.Forfeit {
		score := in.Score
		m.Score = &score
	}
	m.WinnerKey = winnerKey
	m.Draw = winnerKey == ""
	m.Forfeit = in.Forfeit
	m.FairPlay1 = in.FairPlay1
	m.FairPlay2 = in.FairPlay2
}

func (s *matchService) GetByID(ctx context.Context, id string) (*models.Match, error) {
	m, err := s.matches.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

func (s *matchService) ListByEvent(ctx context.Context, eventID string) ([]*models.Match, error) {
	return s.matches.ListByEvent(ctx, eventID)
}

func (s *matchService) ListByGroup(ctx context.Context, groupID string) ([]*models.Match, error) {
	return s.matches.ListByGroup(ctx, groupID)
}

func (s *matchService) transition(m *models.Match, next models.MatchStatus) error {
	if !m.Status.CanTransitionTo(next) {
		if m.Status.Terminal() {
			return fmt.Errorf("%w: match %s is %s", ErrMatchClosed, m.ID, m.Status)
		}
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.Status, next)
	}
	m.Status = next
	return nil
}

func (s *matchService) save(ctx context.Context, m *models.Match, kind string) error {
	if err := s.matches.Update(ctx, m); err != nil {
		if errors.Is(err, repositories.ErrConflictingUpdate) {
			return fmt.Errorf("%w: match %s changed, reload and retry", ErrConflict, m.ID)
		}
		return err
	}
	publish(s.hub, m.EventID, kind, m)
	return nil
}

func (s *matchService) Start(ctx context.Context, actor models.Actor, matchID string) (*models.Match, error) {
	mc, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !mc.privileged(actor) {
		return nil, ErrOrganizerOnly
	}
	m := mc.match
	if !m.Ready() {
		return nil, ErrMatchNotReady
	}
	if err := s.transition(m, models.MatchInProgress); err != nil {
		return nil, err
	}
	if err := s.save(ctx, m, UpdateMatchUpdated); err != nil {
		return nil, err
	}
	s.logger.Info("match started", slog.String("match_id", m.ID))
	return m, nil
}

func (s *matchService) SubmitResult(ctx context.Context, actor models.Actor, matchID string, in ResultInput) (m *models.Match, err error) {
	ctx, span := startSpan(ctx, s.tracer, "match.submit_result", attribute.String("match_id", matchID))
	defer func() { endSpan(span, err) }()
	defer s.metrics.observe("submit_result", time.Now())

	mc, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	m = mc.match
	privileged := mc.privileged(actor)
	side := mc.sideOf(actor.UserID)
	if !privileged && side == 0 {
		return nil, ErrNotAParticipant
	}
	if !m.Status.AcceptsResult() {
		if m.Status == models.MatchPendingConfirmation {
			return nil, fmt.Errorf("%w: match %s already has a result awaiting confirmation", ErrConflict, m.ID)
		}
		return nil, fmt.Errorf("%w: match %s is %s", ErrMatchClosed, m.ID, m.Status)
	}
	_, winnerKey, err := s.decide(ctx, mc, in)
	if err != nil {
		return nil, err
	}

	if privileged {
		return s.complete(ctx, mc, in, winnerKey, "direct")
	}

	now := time.Now().UTC()
	m.Pending = &models.PendingResult{
		Score:      in.Score,
		WinnerKey:  winnerKey,
		ProposedBy: actor.UserID,
		ProposedAt: now,
		Forfeit:    in.Forfeit,
		FairPlay1:  in.FairPlay1,
		FairPlay2:  in.FairPlay2,
	}
	if err := s.transition(m, models.MatchPendingConfirmation); err != nil {
		return nil, err
	}
	if err := s.save(ctx, m, UpdateResultProposed); err != nil {
		return nil, err
	}
	s.metrics.resultRecorded("proposed")

	recipients := append(mc.sideMembers(3-side), m.RefereeID, mc.event.OrganizerID)
	notifyAll(ctx, s.notifier, recipients, func(to string) *models.Notification {
		return &models.Notification{
			RecipientID: to,
			Type:        models.NotifyResultProposed,
			Title:       "Skor onayı bekleniyor",
			Body:        fmt.Sprintf("%s maçı için %s skoru bildirildi.", m.RoundName, in.Score),
			Payload:     map[string]any{"match_id": m.ID, "score": in.Score, "proposed_by": actor.UserID},
		}
	})
	s.logger.Info("result proposed",
		slog.String("match_id", m.ID),
		slog.String("proposed_by", actor.UserID),
		slog.String("score", in.Score))
	return m, nil
}

// complete writes the final result and runs standings and progression.
func (s *matchService) complete(ctx context.Context, mc *matchContext, in ResultInput, winnerKey, kind string) (*models.Match, error) {
	m := mc.match
	if err := s.transition(m, models.MatchCompleted); err != nil {
		return nil, err
	}
	setResult(m, in, winnerKey)
	if mc.group.System.Elimination() && winnerKey == "" {
		return nil, fmt.Errorf("%w: elimination match needs a winner", ErrInvalidScore)
	}
	now := time.Now().UTC()
	m.CompletedAt = &now
	m.Pending = nil
	if err := s.save(ctx, m, UpdateMatchCompleted); err != nil {
		return nil, err
	}
	s.metrics.resultRecorded(kind)
	s.logger.Info("match completed",
		slog.String("match_id", m.ID),
		slog.String("winner", m.WinnerKey),
		slog.Bool("draw", m.Draw),
		slog.String("kind", kind))

	if _, err := s.standings.ApplyResult(ctx, m.ID); err != nil {
		return m, err
	}
	if err := s.progression.Advance(ctx, m.ID); err != nil {
		return m, err
	}
	return s.matches.GetByID(ctx, m.ID)
}

// mayConfirm allows organizers, the referee and the opposing side. The
// proposer never confirms their own result.
func (mc *matchContext) mayConfirm(actor models.Actor) error {
	p := mc.match.Pending
	if p == nil || mc.match.Status != models.MatchPendingConfirmation {
		return ErrNoPendingResult
	}
	if mc.privileged(actor) {
		if p.ProposedBy == actor.UserID {
			return ErrOwnProposal
		}
		return nil
	}
	if p.ProposedBy == actor.UserID {
		return ErrOwnProposal
	}
	side := mc.sideOf(actor.UserID)
	if side == 0 {
		return ErrNotAParticipant
	}
	if side == mc.sideOf(p.ProposedBy) {
		return fmt.Errorf("%w: confirmation must come from the opposing side", ErrForbidden)
	}
	return nil
}

func (s *matchService) ConfirmResult(ctx context.Context, actor models.Actor, matchID string) (m *models.Match, err error) {
	ctx, span := startSpan(ctx, s.tracer, "match.confirm_result", attribute.String("match_id", matchID))
	defer func() { endSpan(span, err) }()

	mc, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := mc.mayConfirm(actor); err != nil {
		return nil, err
	}
	p := *mc.match.Pending
	in := ResultInput{Score: p.Score, WinnerKey: p.WinnerKey, Forfeit: p.Forfeit, FairPlay1: p.FairPlay1, FairPlay2: p.FairPlay2}
	m, err = s.complete(ctx, mc, in, p.WinnerKey, "confirmed")
	if err != nil {
		return m, err
	}
	notifyAll(ctx, s.notifier, []string{p.ProposedBy}, func(to string) *models.Notification {
		return &models.Notification{
			RecipientID: to,
			Type:        models.NotifyResultConfirmed,
			Title:       "Skor onaylandı",
			Body:        fmt.Sprintf("%s skoru onaylandı.", p.Score),
			Payload:     map[string]any{"match_id": m.ID, "confirmed_by": actor.UserID},
		}
	})
	return m, nil
}

func (s *matchService) RejectResult(ctx context.Context, actor models.Actor, matchID, reason string) (*models.Match, error) {
	mc, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := mc.mayConfirm(actor); err != nil {
		return nil, err
	}
	m := mc.match
	if err := s.transition(m, models.MatchDisputed); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	m.Pending.RejectedBy = actor.UserID
	m.Pending.RejectedAt = &now
	m.Pending.RejectCause = reason
	if err := s.save(ctx, m, UpdateMatchUpdated); err != nil {
		return nil, err
	}
	s.metrics.resultRecorded("rejected")
	proposer := m.Pending.ProposedBy
	notifyAll(ctx, s.notifier, []string{proposer}, func(to string) *models.Notification {
		return &models.Notification{
			RecipientID: to,
			Type:        models.NotifyResultRejected,
			Title:       "Skor reddedildi",
			Body:        reason,
			Payload:     map[string]any{"match_id": m.ID, "rejected_by": actor.UserID},
		}
	})
	s.logger.Info("result rejected", slog.String("match_id", m.ID), slog.String("rejected_by", actor.UserID))
	return m, nil
}

func (s *matchService) CorrectScore(ctx context.Context, actor models.Actor, matchID string, in ResultInput) (m *models.Match, err error) {
	ctx, span := startSpan(ctx, s.tracer, "match.correct_score", attribute.String("match_id", matchID))
	defer func() { endSpan(span, err) }()

	mc, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(mc.event) {
		return nil, ErrOrganizerOnly
	}
	m = mc.match
	if m.Status != models.MatchCompleted || m.IsBye {
		return nil, fmt.Errorf("%w: only a played, completed match can be corrected", ErrInvalidTransition)
	}
	_, winnerKey, err := s.decide(ctx, mc, in)
	if err != nil {
		return nil, err
	}
	if mc.group.System.Elimination() && winnerKey == "" {
		return nil, fmt.Errorf("%w: elimination match needs a winner", ErrInvalidScore)
	}
	if err := s.progression.CheckCorrectable(ctx, m, winnerKey); err != nil {
		return nil, err
	}

	oldScore, oldWinner := "", m.WinnerKey
	if m.Score != nil {
		oldScore = *m.Score
	}
	if _, err := s.standings.ReverseResult(ctx, m.ID); err != nil {
		return nil, err
	}
	if m, err = s.matches.GetByID(ctx, m.ID); err != nil {
		return nil, err
	}
	setResult(m, in, winnerKey)
	if err := s.save(ctx, m, UpdateMatchUpdated); err != nil {
		return nil, err
	}
	if _, err := s.standings.ApplyResult(ctx, m.ID); err != nil {
		return m, err
	}

	correction := &models.ScoreCorrection{
		MatchID:   m.ID,
		EventID:   m.EventID,
		OldScore:  oldScore,
		NewScore:  in.Score,
		OldWinner: oldWinner,
		NewWinner: winnerKey,
		ActorID:   actor.UserID,
		Reason:    in.Reason,
	}
	if err := s.corrections.Create(ctx, correction); err != nil {
		return m, err
	}
	if err := s.progression.Reroute(ctx, m.ID, oldWinner); err != nil {
		return m, err
	}
	s.metrics.resultRecorded("corrected")
	s.logger.Info("score corrected",
		slog.String("match_id", m.ID),
		slog.String("old_score", oldScore),
		slog.String("new_score", in.Score),
		slog.String("actor_id", actor.UserID))

	mc.match = m
	notifyAll(ctx, s.notifier, append(mc.sideMembers(1), mc.sideMembers(2)...), func(to string) *models.Notification {
		return &models.Notification{
			RecipientID: to,
			Type:        models.NotifyScoreCorrected,
			Title:       "Skor düzeltildi",
			Body:        fmt.Sprintf("%s -> %s", oldScore, in.Score),
			Payload:     map[string]any{"match_id": m.ID, "correction_id": correction.ID},
		}
	})
	return s.matches.GetByID(ctx, m.ID)
}

func (s *matchService) Corrections(ctx context.Context, matchID string) ([]*models.ScoreCorrection, error) {
	return s.corrections.ListByMatch(ctx, matchID)
}

func (s *matchService) Cancel(ctx context.Context, actor models.Actor, matchID string) (*models.Match, error) {
	mc, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(mc.event) {
		return nil, ErrOrganizerOnly
	}
	m := mc.match
	if err := s.transition(m, models.MatchCancelled); err != nil {
		return nil, err
	}
	m.Pending = nil
	if err := s.save(ctx, m, UpdateMatchUpdated); err != nil {
		return nil, err
	}
	s.logger.Info("match cancelled", slog.String("match_id", m.ID), slog.String("actor_id", actor.UserID))
	return m, nil
}

func (s *matchService) AssignReferee(ctx context.Context, actor models.Actor, matchID, refereeID string) (*models.Match, error) {
	mc, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(mc.event) {
		return nil, ErrOrganizerOnly
	}
	m := mc.match
	if m.Status.Terminal() {
		return nil, fmt.Errorf("%w: match %s is %s", ErrMatchClosed, m.ID, m.Status)
	}
	if mc.sideOf(refereeID) != 0 {
		return nil, ErrRefereeIsPlayer
	}
	if m.ScheduledAt != nil {
		if err := s.checkRefereeFree(ctx, mc, refereeID); err != nil {
			return nil, err
		}
	}
	m.RefereeID = refereeID
	if err := s.save(ctx, m, UpdateMatchUpdated); err != nil {
		return nil, err
	}
	notifyAll(ctx, s.notifier, []string{refereeID}, func(to string) *models.Notification {
		return &models.Notification{
			RecipientID: to,
			Type:        models.NotifyRefereeAssigned,
			Title:       "Hakem ataması",
			Body:        fmt.Sprintf("%s maçına hakem olarak atandınız.", m.RoundName),
			Payload:     map[string]any{"match_id": m.ID},
		}
	})
	s.logger.Info("referee assigned", slog.String("match_id", m.ID), slog.String("referee_id", refereeID))
	return m, nil
}

// checkRefereeFree rejects a referee who already officiates or plays an
// overlapping match of the event.
func (s *matchService) checkRefereeFree(ctx context.Context, mc *matchContext, refereeID string) error {
	list, err := s.matches.ListByEvent(ctx, mc.event.ID)
	if err != nil {
		return err
	}
	return refereeClash(list, mc.roster, mc.match, refereeID, matchSlot(mc.event))
}

func matchSlot(ev *models.Event) time.Duration {
	minutes := ev.Schedule.MatchMinutes
	if minutes <= 0 {
		minutes = 60
	}
	return time.Duration(minutes) * time.Minute
}

// playsIn matches id against player ids and the accounts behind them.
func playsIn(m *models.Match, roster []*models.Participant, id string) bool {
	if m.HasPlayer(id) {
		return true
	}
	for _, p := range roster {
		if p.UserID == id && m.HasPlayer(p.ID) {
			return true
		}
	}
	return false
}

func refereeClash(list []*models.Match, roster []*models.Participant, m *models.Match, refereeID string, dur time.Duration) error {
	start := *m.ScheduledAt
	end := start.Add(dur)
	for _, o := range list {
		if o.ID == m.ID || o.ScheduledAt == nil || o.Status.Terminal() {
			continue
		}
		if !o.ScheduledAt.Before(end) || !start.Before(o.ScheduledAt.Add(dur)) {
			continue
		}
		if o.RefereeID == refereeID {
			return fmt.Errorf("%w: %s at %s", ErrRefereeDoubleBook, o.ID, o.ScheduledAt.Format(time.RFC3339))
		}
		if playsIn(o, roster, refereeID) {
			return fmt.Errorf("%w: plays %s at %s", ErrRefereeDoubleBook, o.ID, o.ScheduledAt.Format(time.RFC3339))
		}
	}
	return nil
}

func (s *matchService) AutoAssignReferees(ctx context.Context, actor models.Actor, eventID string, pool []string) (res *RefereeAssignment, err error) {
	ctx, span := startSpan(ctx, s.tracer, "match.auto_assign_referees", attribute.String("event_id", eventID))
	defer func() { endSpan(span, err) }()

	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err)
	}
	if !actor.CanManage(ev) {
		return nil, ErrOrganizerOnly
	}
	if len(pool) == 0 {
		pool = ev.Referees
	}
	if len(pool) == 0 {
		return nil, ErrNoReferees
	}
	list, err := s.matches.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	roster, err := s.participants.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	load := map[string]int{}
	var open []*models.Match
	for _, m := range list {
		if m.RefereeID != "" && m.Status != models.MatchCancelled {
			load[m.RefereeID]++
		}
		if m.RefereeID == "" && m.Status == models.MatchScheduled && m.ScheduledAt != nil && m.Court != nil && !m.IsBye {
			open = append(open, m)
		}
	}
	sortBySlot(open)

	dur := matchSlot(ev)
	res = &RefereeAssignment{}
	var unassigned []string
	for _, m := range open {
		pick := ""
		for _, cand := range pool {
			if playsIn(m, roster, cand) || refereeClash(list, roster, m, cand, dur) != nil {
				continue
			}
			if pick == "" || load[cand] < load[pick] {
				pick = cand
			}
		}
		if pick == "" {
			unassigned = append(unassigned, m.ID)
			continue
		}
		saved, err := s.setReferee(ctx, m.ID, pick)
		if err != nil {
			return nil, err
		}
		if saved == nil {
			continue
		}
		// Later candidates see this assignment when checking overlaps.
		m.RefereeID = pick
		load[pick]++
		res.Matches = append(res.Matches, saved)
		notifyAll(ctx, s.notifier, []string{pick}, func(to string) *models.Notification {
			return &models.Notification{
				RecipientID: to,
				Type:        models.NotifyRefereeAssigned,
				Title:       "Hakem ataması",
				Body:        fmt.Sprintf("%s maçına hakem olarak atandınız.", saved.RoundName),
				Payload:     map[string]any{"match_id": saved.ID},
			}
		})
	}
	if len(res.Matches) == 0 && len(unassigned) > 0 {
		return nil, fmt.Errorf("%w: %d matches left without a referee", ErrNoRefereeFree, len(unassigned))
	}
	res.Outcome = models.NewOutcome(len(res.Matches), unassigned, nil)
	s.logger.Info("referees assigned",
		slog.String("event_id", eventID),
		slog.Int("assigned", len(res.Matches)),
		slog.Int("unassigned", len(unassigned)))
	return res, nil
}

// setReferee writes the referee of a still unrefereed scheduled match. A
// match that changed meanwhile is skipped and nil is returned.
func (s *matchService) setReferee(ctx context.Context, matchID, refereeID string) (*models.Match, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		m, err := s.matches.GetByID(ctx, matchID)
		if err != nil {
			return nil, notFound(err)
		}
		if m.RefereeID != "" || m.Status != models.MatchScheduled {
			return nil, nil
		}
		m.RefereeID = refereeID
		err = s.matches.Update(ctx, m)
		if errors.Is(err, repositories.ErrConflictingUpdate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		publish(s.hub, m.EventID, UpdateMatchUpdated, m)
		return m, nil
	}
	return nil, fmt.Errorf("%w: match %s kept changing", ErrConflict, matchID)
}
