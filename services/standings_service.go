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

	"github.com/Dosada05/tournament-scheduler/brackets"
	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/repositories"
	"github.com/Dosada05/tournament-scheduler/scoring"
)

// maxCASAttempts bounds every compare-and-swap retry loop.
const maxCASAttempts = 8

type StandingsService interface {
	// ApplyResult folds a completed match into standings exactly once. It
	// reports false when the match had already been applied.
	ApplyResult(ctx context.Context, matchID string) (bool, error)
	// ReverseResult subtracts what ApplyResult added. It reports false when
	// nothing was applied.
	ReverseResult(ctx context.Context, matchID string) (bool, error)
	// GroupStandings returns the group's rows, ranked.
	GroupStandings(ctx context.Context, groupID string) ([]models.Standing, error)
	// Rebuild recomputes the group's rows from the applied match log.
	Rebuild(ctx context.Context, groupID string) ([]models.Standing, error)
}

type standingsService struct {
	events       repositories.EventRepository
	participants repositories.ParticipantRepository
	groups       repositories.GroupRepository
	matches      repositories.MatchRepository
	standings    repositories.StandingRepository
	rules        SportRulesProvider
	hub          Broadcaster
	metrics      *Metrics
	tracer       trace.Tracer
	logger       *slog.Logger
}

func NewStandingsService(
	events repositories.EventRepository,
	participants repositories.ParticipantRepository,
	groups repositories.GroupRepository,
	matches repositories.MatchRepository,
	standings repositories.StandingRepository,
	rules SportRulesProvider,
	hub Broadcaster,
	metrics *Metrics,
	tracer trace.Tracer,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		events:       events,
		participants: participants,
		groups:       groups,
		matches:      matches,
		standings:    standings,
		rules:        rules,
		hub:          hub,
		metrics:      metrics,
		tracer:       tracer,
		logger:       logger,
	}
}

func (s *standingsService) ApplyResult(ctx context.Context, matchID string) (applied bool, err error) {
	ctx, span := startSpan(ctx, s.tracer, "standings.apply", attribute.String("match_id", matchID))
	defer func() { endSpan(span, err) }()

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		m, err := s.matches.GetByID(ctx, matchID)
		if err != nil {
			return false, notFound(err)
		}
		if m.StandingsUpdated {
			return false, nil
		}
		if m.Status != models.MatchCompleted {
			return false, fmt.Errorf("%w: match %s is %s", ErrInvalidTransition, m.ID, m.Status)
		}
		if err := m.CheckCompletedInvariant(); err != nil {
			return false, fmt.Errorf("%w: %v", ErrValidation, err)
		}

		ev, err := s.events.GetByID(ctx, m.EventID)
		if err != nil {
			return false, notFound(err)
		}
		c, err := s.contributionFor(ctx, ev, m)
		if err != nil {
			return false, err
		}

		ok, err := s.matches.MarkStandingsApplied(ctx, m, c)
		if err != nil {
			return false, err
		}
		if !ok {
			// Someone else changed the match; reload and look again.
			continue
		}
		if err := s.fold(ctx, m.EventID, m.GroupID, c, 1); err != nil {
			return true, err
		}
		if err := s.refreshTiebreaks(ctx, m.GroupID); err != nil {
			return true, err
		}
		s.logger.Info("standings applied",
			slog.String("match_id", m.ID),
			slog.String("group_id", m.GroupID),
			slog.String("winner", m.WinnerKey))
		publish(s.hub, m.EventID, UpdateStandings, map[string]string{"group_id": m.GroupID, "match_id": m.ID})
		return true, nil
	}
	return false, fmt.Errorf("%w: match %s", ErrStandingsRetry, matchID)
}

func (s *standingsService) ReverseResult(ctx context.Context, matchID string) (reversed bool, err error) {
	ctx, span := startSpan(ctx, s.tracer, "standings.reverse", attribute.String("match_id", matchID))
	defer func() { endSpan(span, err) }()

	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		m, err := s.matches.GetByID(ctx, matchID)
		if err != nil {
			return false, notFound(err)
		}
		if !m.StandingsUpdated {
			return false, nil
		}
		c := m.Applied
		ok, err := s.matches.ClearStandingsApplied(ctx, m)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		if err := s.fold(ctx, m.EventID, m.GroupID, c, -1); err != nil {
			return true, err
		}
		if err := s.refreshTiebreaks(ctx, m.GroupID); err != nil {
			return true, err
		}
		s.logger.Info("standings reversed", slog.String("match_id", m.ID), slog.String("group_id", m.GroupID))
		return true, nil
	}
	return false, fmt.Errorf("%w: match %s", ErrStandingsRetry, matchID)
}

// contributionFor prices a completed match against the group's current
// table, which the opponent-strength and streak modules read.
func (s *standingsService) contributionFor(ctx context.Context, ev *models.Event, m *models.Match) (*models.Contribution, error) {
	rules, err := s.rules.Rules(ctx, ev.Sport)
	if err != nil {
		return nil, err
	}
	d, err := decisionOf(m, rules)
	if err != nil {
		return nil, validationf(err, "match %s", m.ID)
	}
	rows, err := s.standings.ListByGroup(ctx, m.GroupID)
	if err != nil {
		return nil, err
	}
	table := scoring.NewTable(ev.ID, m.GroupID, derefStandings(rows))
	var appearances map[string]int
	if ev.CustomScoring != nil && ev.CustomScoring.Enabled && ev.CustomScoring.Participation.Enabled {
		played, err := s.matches.ListByGroup(ctx, m.GroupID)
		if err != nil {
			return nil, err
		}
		appearances = attendanceRuns(played, m)
	}
	c, err := scoring.Contribute(scoring.Input{
		Match:       m,
		Decision:    d,
		Rules:       rules,
		Custom:      ev.CustomScoring,
		Ranks:       table.Ranks(),
		Appearances: appearances,
	})
	if err != nil {
		return nil, validationf(err, "match %s", m.ID)
	}
	return c, nil
}

// attendanceRuns counts, per entrant, the matches played in a row before m
// was completed. A no-show breaks the run; byes do not count.
func attendanceRuns(matches []*models.Match, m *models.Match) map[string]int {
	var done []*models.Match
	for _, o := range matches {
		if o.ID == m.ID || o.IsBye || o.Status != models.MatchCompleted || o.CompletedAt == nil {
			continue
		}
		if m.CompletedAt != nil && !o.CompletedAt.Before(*m.CompletedAt) {
			continue
		}
		done = append(done, o)
	}
	sort.SliceStable(done, func(i, j int) bool { return done[i].CompletedAt.Before(*done[j].CompletedAt) })

	runs := map[string]int{}
	for _, o := range done {
		for side, p := range []*models.EntrantRef{o.Participant1, o.Participant2} {
			if p == nil {
				continue
			}
			if o.Forfeit && o.Side(o.WinnerKey) != side+1 {
				runs[p.Key()] = 0
				continue
			}
			runs[p.Key()]++
		}
	}
	return runs
}

// decisionOf re-derives the decision of a stored, completed match.
func decisionOf(m *models.Match, rules models.SportRules) (scoring.Decision, error) {
	switch {
	case m.IsBye:
		return scoring.Decision{Winner: 1}, nil
	case m.Forfeit:
		return scoring.DecideForfeit(m.Side(m.WinnerKey))
	case m.Score == nil:
		return scoring.Decision{}, scoring.ErrNotDecided
	}
	return scoring.Decide(*m.Score, rules, true)
}

// fold adds (sign 1) or subtracts (sign -1) every entry of c, one row at a
// time, each row guarded by its own version.
func (s *standingsService) fold(ctx context.Context, eventID, groupID string, c *models.Contribution, sign int) error {
	if c == nil {
		return nil
	}
	for _, e := range c.Entries {
		if err := s.updateRow(ctx, eventID, groupID, e.Entrant, func(r *models.Standing) {
			scoring.ApplyEntry(r, e, sign)
		}); err != nil {
			return fmt.Errorf("fold %s into group %s: %w", e.EntrantKey, groupID, err)
		}
	}
	return nil
}

func (s *standingsService) updateRow(ctx context.Context, eventID, groupID string, entrant models.EntrantRef, mutate func(*models.Standing)) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		row, err := s.standings.GetOrCreate(ctx, eventID, groupID, entrant)
		if err != nil {
			return err
		}
		mutate(row)
		err = s.standings.Update(ctx, row)
		if errors.Is(err, repositories.ErrConflictingUpdate) {
			continue
		}
		return err
	}
	return ErrStandingsRetry
}

// refreshTiebreaks recomputes Buchholz and Sonneborn-Berger of a Swiss
// group. They depend on every opponent's total, so they are derived rather
// than folded.
func (s *standingsService) refreshTiebreaks(ctx context.Context, groupID string) error {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			return nil
		}
		return err
	}
	if g.System != models.SystemSwiss {
		return nil
	}
	rows, err := s.standings.ListByGroup(ctx, groupID)
	if err != nil {
		return err
	}
	matches, err := s.matches.ListByGroup(ctx, groupID)
	if err != nil {
		return err
	}
	points := make(map[string]float64, len(rows))
	for _, r := range rows {
		points[r.EntrantK] = r.Points
	}
	tbs := brackets.SwissTiebreaks(points, swissGames(matches))
	for _, r := range rows {
		tb := tbs[r.EntrantK]
		if r.Buchholz == tb.Buchholz && r.SonnebornBerger == tb.SonnebornBerger {
			continue
		}
		if err := s.updateRow(ctx, g.EventID, groupID, r.Entrant, func(row *models.Standing) {
			row.Buchholz = tb.Buchholz
			row.SonnebornBerger = tb.SonnebornBerger
		}); err != nil {
			return err
		}
	}
	return nil
}

// swissGames lists the applied games of a Swiss group.
func swissGames(matches []*models.Match) []brackets.SwissGame {
	games := make([]brackets.SwissGame, 0, len(matches))
	for _, m := range matches {
		if m.Status != models.MatchCompleted || !m.StandingsUpdated || m.Participant1 == nil {
			continue
		}
		g := brackets.SwissGame{A: m.Participant1.Key(), Winner: m.WinnerKey, Draw: m.Draw}
		if m.Participant2 != nil && !m.IsBye {
			g.B = m.Participant2.Key()
		}
		games = append(games, g)
	}
	return games
}

func (s *standingsService) GroupStandings(ctx context.Context, groupID string) ([]models.Standing, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, notFound(err)
	}
	rows, err := s.standings.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	table := scoring.NewTable(g.EventID, g.ID, derefStandings(rows))
	for _, e := range g.Entrants {
		table.Ensure(e)
	}
	out := table.Rows()
	if g.System == models.SystemSwiss {
		roster, err := s.participants.ListByEvent(ctx, g.EventID)
		if err != nil {
			return nil, err
		}
		ratings := make(map[string]float64, len(g.Entrants))
		for k, p := range profiles(roster, g.Entrants) {
			ratings[k] = p.rating
		}
		out = rankSwissRows(out, ratings)
	}
	return out, nil
}

// rankSwissRows orders rows by points, Buchholz, Sonneborn-Berger and rating.
func rankSwissRows(rows []models.Standing, ratings map[string]float64) []models.Standing {
	ranks := make([]brackets.SwissRank, len(rows))
	byKey := make(map[string]models.Standing, len(rows))
	for i, r := range rows {
		ranks[i] = brackets.SwissRank{
			Key:             r.EntrantK,
			Points:          r.Points,
			Buchholz:        r.Buchholz,
			SonnebornBerger: r.SonnebornBerger,
			Rating:          ratings[r.EntrantK],
		}
		byKey[r.EntrantK] = r
	}
	out := make([]models.Standing, 0, len(rows))
	for _, r := range brackets.RankSwiss(ranks) {
		out = append(out, byKey[r.Key])
	}
	return out
}

func (s *standingsService) Rebuild(ctx context.Context, groupID string) ([]models.Standing, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, notFound(err)
	}
	matches, err := s.matches.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	var applied []*models.Contribution
	for _, m := range matches {
		if m.StandingsUpdated && m.Applied != nil {
			applied = append(applied, m.Applied)
		}
	}
	want := scoring.Recompute(g.EventID, g.ID, g.Entrants, applied)

	points := make(map[string]float64, len(want))
	for _, r := range want {
		points[r.EntrantK] = r.Points
	}
	tbs := brackets.SwissTiebreaks(points, swissGames(matches))
	for i := range want {
		target := want[i]
		if g.System == models.SystemSwiss {
			target.Buchholz = tbs[target.EntrantK].Buchholz
			target.SonnebornBerger = tbs[target.EntrantK].SonnebornBerger
		}
		if err := s.updateRow(ctx, g.EventID, g.ID, target.Entrant, func(row *models.Standing) {
			id, version := row.ID, row.Version
			*row = target
			row.ID, row.Version, row.UpdatedAt = id, version, time.Now().UTC()
		}); err != nil {
			return nil, err
		}
		want[i] = target
	}
	s.logger.Info("standings rebuilt", slog.String("group_id", groupID), slog.Int("rows", len(want)))
	return s.GroupStandings(ctx, groupID)
}

func derefStandings(rows []*models.Standing) []models.Standing {
	out := make([]models.Standing, 0, len(rows))
	for _, r := range rows {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
