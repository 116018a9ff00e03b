package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Dosada05/tournament-scheduler/brackets"
	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/repositories"
)

// SwissRoundResult is one freshly paired Swiss round.
type SwissRoundResult struct {
	Round   int             `json:"round"`
	Matches []*models.Match `json:"matches"`
	Bye     *models.Match   `json:"bye,omitempty"`
	// Repeats lists entrant keys that had to meet again.
	Repeats [][2]string `json:"repeats,omitempty"`
}

type SwissService interface {
	// PairNextRound pairs the next round from current standings once every
	// match of the current round is over.
	PairNextRound(ctx context.Context, actor models.Actor, groupID string) (*SwissRoundResult, error)
	// Ranking returns the group ordered by points, Buchholz,
	// Sonneborn-Berger and rating.
	Ranking(ctx context.Context, groupID string) ([]models.Standing, error)
}

type swissService struct {
	events       repositories.EventRepository
	participants repositories.ParticipantRepository
	groups       repositories.GroupRepository
	matches      repositories.MatchRepository
	standings    repositories.StandingRepository
	results      StandingsService
	hub          Broadcaster
	tracer       trace.Tracer
	logger       *slog.Logger
}

func NewSwissService(
	events repositories.EventRepository,
	participants repositories.ParticipantRepository,
	groups repositories.GroupRepository,
	matches repositories.MatchRepository,
	standings repositories.StandingRepository,
	results StandingsService,
	hub Broadcaster,
	tracer trace.Tracer,
	logger *slog.Logger,
) SwissService {
	return &swissService{
		events:       events,
		participants: participants,
		groups:       groups,
		matches:      matches,
		standings:    standings,
		results:      results,
		hub:          hub,
		tracer:       tracer,
		logger:       logger,
	}
}

func swissUID(round, index int) string {
	return fmt.Sprintf("S-R%dM%d", round, index+1)
}

func swissByeUID(round int) string {
	return fmt.Sprintf("S-R%dBYE", round)
}

// entrantProfile is the display name and rating of an entrant. A pair is
// rated by the mean of its two players.
type entrantProfile struct {
	name   string
	rating float64
}

func profiles(list []*models.Participant, entrants []models.EntrantRef) map[string]entrantProfile {
	byID := make(map[string]*models.Participant, len(list))
	for _, p := range list {
		byID[p.ID] = p
	}
	out := make(map[string]entrantProfile, len(entrants))
	for _, e := range entrants {
		var names []string
		var rating float64
		members := e.Members()
		for _, id := range members {
			if p, ok := byID[id]; ok {
				names = append(names, p.Name)
				rating += p.RatingPoints
			} else {
				names = append(names, id)
			}
		}
		if len(members) > 0 {
			rating /= float64(len(members))
		}
		out[e.Key()] = entrantProfile{name: strings.Join(names, " / "), rating: rating}
	}
	return out
}

func (s *swissService) PairNextRound(ctx context.Context, actor models.Actor, groupID string) (res *SwissRoundResult, err error) {
	ctx, span := startSpan(ctx, s.tracer, "swiss.pair_round", attribute.String("group_id", groupID))
	defer func() { endSpan(span, err) }()

	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, notFound(err)
	}
	ev, err := s.events.GetByID(ctx, g.EventID)
	if err != nil {
		return nil, notFound(err)
	}
	if !actor.CanManage(ev) {
		return nil, ErrOrganizerOnly
	}
	if g.System != models.SystemSwiss || g.Swiss == nil {
		return nil, fmt.Errorf("%w: group %s is not a generated Swiss group", ErrFixtureMissing, g.ID)
	}
	st := g.Swiss
	if st.CurrentRound >= st.TotalRounds {
		return nil, fmt.Errorf("%w: %d of %d", ErrAllRoundsPlayed, st.CurrentRound, st.TotalRounds)
	}

	played, err := s.matches.ListByGroup(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	for _, m := range played {
		if m.Round == st.CurrentRound && !m.Status.Terminal() {
			return nil, fmt.Errorf("%w: match %s is %s", ErrRoundNotFinished, m.ID, m.Status)
		}
	}

	roster, err := s.participants.ListByEvent(ctx, g.EventID)
	if err != nil {
		return nil, err
	}
	rows, err := s.standings.ListByGroup(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	points := make(map[string]float64, len(rows))
	for _, r := range rows {
		points[r.EntrantK] = r.Points
	}
	met := make(map[string]map[string]int, len(g.Entrants))
	for _, m := range played {
		if m.IsBye || !m.Ready() || m.Status == models.MatchCancelled {
			continue
		}
		a, b := m.Participant1.Key(), m.Participant2.Key()
		for _, pair := range [2][2]string{{a, b}, {b, a}} {
			if met[pair[0]] == nil {
				met[pair[0]] = make(map[string]int)
			}
			met[pair[0]][pair[1]]++
		}
	}

	prof := profiles(roster, g.Entrants)
	players := make([]brackets.SwissPlayer, 0, len(g.Entrants))
	for _, e := range g.Entrants {
		key := e.Key()
		players = append(players, brackets.SwissPlayer{
			Key:    key,
			Name:   prof[key].name,
			Rating: prof[key].rating,
			Points: points[key],
			Met:    met[key],
			HadBye: st.HadBye(key),
		})
	}
	paired := brackets.PairSwissRound(players)
	round := st.CurrentRound + 1

	// Claim the round first so two organizers cannot pair it twice.
	prevRound := st.CurrentRound
	st.CurrentRound = round
	if paired.Bye != "" {
		st.ByeHistory = append(st.ByeHistory, paired.Bye)
	}
	if err := s.groups.Update(ctx, g); err != nil {
		if errors.Is(err, repositories.ErrConflictingUpdate) {
			return nil, fmt.Errorf("%w: round %d is being paired concurrently", ErrConflict, prevRound+1)
		}
		return nil, err
	}

	byKey := make(map[string]models.EntrantRef, len(g.Entrants))
	for _, e := range g.Entrants {
		byKey[e.Key()] = e
	}
	res = &SwissRoundResult{Round: round, Repeats: paired.Repeats}
	for i, pr := range paired.Pairs {
		m := &models.Match{
			ID:           MatchID(g.ID, swissUID(round, i)),
			EventID:      g.EventID,
			GroupID:      g.ID,
			Category:     g.Category,
			Round:        round,
			RoundName:    brackets.LeagueRoundName(round),
			BracketIndex: i,
			Participant1: models.RefPtr(byKey[pr[0]]),
			Participant2: models.RefPtr(byKey[pr[1]]),
			Status:       models.MatchScheduled,
		}
		if err := s.matches.Create(ctx, m); err != nil {
			return nil, err
		}
		res.Matches = append(res.Matches, m)
		publish(s.hub, g.EventID, UpdateMatchCreated, m)
	}
	if paired.Bye != "" {
		bye, err := createByeMatch(ctx, s.matches, s.results, g, byKey[paired.Bye], round)
		if err != nil {
			return nil, err
		}
		res.Bye = bye
	}
	for _, r := range paired.Repeats {
		s.logger.Warn("swiss repeat pairing", slog.String("group_id", g.ID), slog.String("a", r[0]), slog.String("b", r[1]))
	}
	s.logger.Info("swiss round paired",
		slog.String("group_id", g.ID),
		slog.Int("round", round),
		slog.Int("matches", len(res.Matches)),
		slog.String("bye", paired.Bye))
	return res, nil
}

// createByeMatch stores a completed bye row worth one win and applies it.
func createByeMatch(ctx context.Context, matches repositories.MatchRepository, results StandingsService, g *models.Group, e models.EntrantRef, round int) (*models.Match, error) {
	now := time.Now().UTC()
	m := &models.Match{
		ID:           MatchID(g.ID, swissByeUID(round)),
		EventID:      g.EventID,
		GroupID:      g.ID,
		Category:     g.Category,
		Round:        round,
		RoundName:    brackets.LeagueRoundName(round),
		Participant1: models.RefPtr(e),
		IsBye:        true,
		Status:       models.MatchCompleted,
		WinnerKey:    e.Key(),
		CompletedAt:  &now,
	}
	if err := matches.Create(ctx, m); err != nil {
		if errors.Is(err, repositories.ErrDuplicateDocument) {
			return matches.GetByID(ctx, m.ID)
		}
		return nil, err
	}
	if _, err := results.ApplyResult(ctx, m.ID); err != nil {
		return nil, err
	}
	return m, nil
}

// Ranking is the Swiss table: points, Buchholz, Sonneborn-Berger, rating.
func (s *swissService) Ranking(ctx context.Context, groupID string) ([]models.Standing, error) {
	return s.results.GroupStandings(ctx, groupID)
}
