package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Dosada05/tournament-scheduler/brackets"
	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/repositories"
)

// ProgressionService moves entrants through elimination brackets after a
// match completes, and closes league groups once every match is played.
type ProgressionService interface {
	Advance(ctx context.Context, matchID string) error
	// CheckCorrectable fails with ErrDownstreamStarted when changing the
	// winner of m to newWinner would rewrite a match that already started.
	CheckCorrectable(ctx context.Context, m *models.Match, newWinner string) error
	// Reroute swaps the entrants of a corrected match in every match and
	// bracket slot its previous result fed.
	Reroute(ctx context.Context, matchID, previousWinner string) error
}

type progressionService struct {
	events  repositories.EventRepository
	groups  repositories.GroupRepository
	matches repositories.MatchRepository
	hub     Broadcaster
	metrics *Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

func NewProgressionService(
	events repositories.EventRepository,
	groups repositories.GroupRepository,
	matches repositories.MatchRepository,
	hub Broadcaster,
	metrics *Metrics,
	tracer trace.Tracer,
	logger *slog.Logger,
) ProgressionService {
	return &progressionService{
		events:  events,
		groups:  groups,
		matches: matches,
		hub:     hub,
		metrics: metrics,
		tracer:  tracer,
		logger:  logger,
	}
}

// MatchID is the stored id of a generated pairing. Bracket matches are
// looked up by it, and a second insert of the same lazily built round fails
// as a duplicate instead of creating it twice.
func MatchID(groupID, uid string) string {
	return groupID + ":" + uid
}

func winnersUID(side models.BracketSide, round, index int) string {
	if side == models.SideWinners {
		return fmt.Sprintf("WR%dM%d", round, index+1)
	}
	return fmt.Sprintf("R%dM%d", round, index+1)
}

func losersUID(round, index int) string {
	return fmt.Sprintf("LR%dM%d", round, index+1)
}

func grandFinalUID(round int) string {
	return fmt.Sprintf("GF%d", round)
}

// notStarted reports whether a match can still have its entrants replaced.
func notStarted(m *models.Match) bool {
	return (m.Status == models.MatchAwaitingParticipants || m.Status == models.MatchScheduled) && m.Pending == nil
}

func (s *progressionService) Advance(ctx context.Context, matchID string) (err error) {
	ctx, span := startSpan(ctx, s.tracer, "progression.advance", attribute.String("match_id", matchID))
	defer func() { endSpan(span, err) }()

	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return notFound(err)
	}
	if m.Status != models.MatchCompleted {
		return fmt.Errorf("%w: match %s is %s", ErrInvalidTransition, m.ID, m.Status)
	}
	g, err := s.groups.GetByID(ctx, m.GroupID)
	if err != nil {
		return notFound(err)
	}

	switch g.System {
	case models.SystemSingleElimination:
		return s.advanceSingle(ctx, g, m)
	case models.SystemDoubleElimination:
		return s.advanceDouble(ctx, g, m)
	case models.SystemSwiss:
		if g.Swiss != nil && g.Swiss.CurrentRound < g.Swiss.TotalRounds {
			return nil
		}
	}
	return s.closeLeague(ctx, g.ID)
}

func (s *progressionService) advanceSingle(ctx context.Context, g *models.Group, m *models.Match) error {
	winner, ok := m.Winner()
	if !ok {
		return fmt.Errorf("%w: elimination match %s has no winner", ErrValidation, m.ID)
	}
	if g.Bracket == nil || m.Round >= g.Bracket.WinnersRounds {
		return s.crown(ctx, g.ID, winner)
	}
	return s.advanceWinner(ctx, g, m, winner)
}

// advanceWinner writes the winner into the next match of the same side at
// index div 2, slot by parity.
func (s *progressionService) advanceWinner(ctx context.Context, g *models.Group, m *models.Match, winner models.EntrantRef) error {
	next, first := brackets.NextSlot(m.BracketIndex)
	nextID := MatchID(g.ID, winnersUID(m.Bracket, m.Round+1, next))

	referee := ""
	if loser, ok := m.Loser(); ok {
		ev, err := s.events.GetByID(ctx, g.EventID)
		if err != nil {
			return notFound(err)
		}
		if ev.Schedule.InGroupRefereeing {
			referee = loser.Members()[0]
		}
	}

	target, err := s.fill(ctx, nextID, first, winner, referee)
	if err != nil {
		return err
	}
	if err := s.link(ctx, m.ID, nextID, false); err != nil {
		return err
	}
	s.metrics.advanced(string(m.Bracket))
	s.logger.Info("winner advanced",
		slog.String("match_id", m.ID),
		slog.String("next_match_id", nextID),
		slog.String("entrant", winner.Key()))
	publish(s.hub, g.EventID, UpdateBracketAdvance, target)
	return nil
}

// fill places e into one slot of the target match. Writing the same entrant
// twice is a no-op; a different entrant already in the slot is a conflict.
func (s *progressionService) fill(ctx context.Context, targetID string, first bool, e models.EntrantRef, referee string) (*models.Match, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		t, err := s.matches.GetByID(ctx, targetID)
		if err != nil {
			return nil, notFound(err)
		}
		slot := &t.Participant2
		if first {
			slot = &t.Participant1
		}
		if *slot != nil {
			if (*slot).Key() == e.Key() {
				return t, nil
			}
			return nil, fmt.Errorf("%w: slot of match %s already holds %s", ErrConflict, t.ID, (*slot).Key())
		}
		*slot = models.RefPtr(e)
		if t.Ready() && t.Status == models.MatchAwaitingParticipants {
			t.Status = models.MatchScheduled
		}
		if referee != "" && t.RefereeID == "" && !t.HasPlayer(referee) {
			t.RefereeID = referee
		}
		err = s.matches.Update(ctx, t)
		if errors.Is(err, repositories.ErrConflictingUpdate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return t, nil
	}
	return nil, fmt.Errorf("%w: match %s kept changing", ErrConflict, targetID)
}

// link records where a match sent its winner (or loser) so a correction
// can follow it.
func (s *progressionService) link(ctx context.Context, sourceID, targetID string, loser bool) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		m, err := s.matches.GetByID(ctx, sourceID)
		if err != nil {
			return notFound(err)
		}
		field := &m.WinnerTo
		if loser {
			field = &m.LoserTo
		}
		if *field == targetID {
			return nil
		}
		*field = targetID
		err = s.matches.Update(ctx, m)
		if errors.Is(err, repositories.ErrConflictingUpdate) {
			continue
		}
		return err
	}
	return fmt.Errorf("%w: match %s kept changing", ErrConflict, sourceID)
}

// updateGroup reloads the group and applies mutate under compare-and-swap.
// mutate returns false to leave the group untouched.
func (s *progressionService) updateGroup(ctx context.Context, groupID string, mutate func(*models.Group) (bool, error)) (*models.Group, error) {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		g, err := s.groups.GetByID(ctx, groupID)
		if err != nil {
			return nil, notFound(err)
		}
		changed, err := mutate(g)
		if err != nil || !changed {
			return g, err
		}
		err = s.groups.Update(ctx, g)
		if errors.Is(err, repositories.ErrConflictingUpdate) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	return nil, fmt.Errorf("%w: group %s kept changing", ErrConflict, groupID)
}

func (s *progressionService) crown(ctx context.Context, groupID string, champion models.EntrantRef) error {
	g, err := s.updateGroup(ctx, groupID, func(g *models.Group) (bool, error) {
		if g.ChampionKey == champion.Key() {
			return false, nil
		}
		g.ChampionKey = champion.Key()
		if g.Status.CanTransitionTo(models.GroupStandingsComputed) {
			g.Status = models.GroupStandingsComputed
		}
		return true, nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("group champion decided", slog.String("group_id", g.ID), slog.String("champion", champion.Key()))
	publish(s.hub, g.EventID, UpdateBracketAdvance, map[string]string{"group_id": g.ID, "champion": champion.Key()})
	return nil
}

// closeLeague marks a league group finished once all its matches are over.
func (s *progressionService) closeLeague(ctx context.Context, groupID string) error {
	list, err := s.matches.ListByGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return nil
	}
	for _, m := range list {
		if !m.Status.Terminal() {
			return nil
		}
	}
	_, err = s.updateGroup(ctx, groupID, func(g *models.Group) (bool, error) {
		if g.Status == models.GroupStandingsComputed || !g.Status.CanTransitionTo(models.GroupStandingsComputed) {
			return false, nil
		}
		g.Status = models.GroupStandingsComputed
		return true, nil
	})
	if err == nil {
		s.logger.Info("group finished", slog.String("group_id", groupID))
	}
	return err
}

func (s *progressionService) advanceDouble(ctx context.Context, g *models.Group, m *models.Match) error {
	winner, ok := m.Winner()
	if !ok {
		return fmt.Errorf("%w: elimination match %s has no winner", ErrValidation, m.ID)
	}
	switch m.Bracket {
	case models.SideWinners:
		if g.Bracket != nil && m.Round < g.Bracket.WinnersRounds {
			if err := s.advanceWinner(ctx, g, m, winner); err != nil {
				return err
			}
		} else {
			if _, err := s.updateGroup(ctx, g.ID, func(g *models.Group) (bool, error) {
				st := doubleElimState(g)
				if st.WinnersChampion != nil && st.WinnersChampion.Key() == winner.Key() {
					return false, nil
				}
				st.WinnersChampion = models.RefPtr(winner)
				return true, nil
			}); err != nil {
				return err
			}
		}
	case models.SideGrandFinal:
		return s.settleGrandFinal(ctx, g, m, winner)
	}
	if err := s.buildLosers(ctx, g.ID); err != nil {
		return err
	}
	return s.openGrandFinal(ctx, g.ID)
}

func doubleElimState(g *models.Group) *models.DoubleElimState {
	if g.DoubleElim == nil {
		g.DoubleElim = &models.DoubleElimState{}
	}
	if g.DoubleElim.LoserByes == nil {
		g.DoubleElim.LoserByes = make(map[int]models.EntrantRef)
	}
	if g.DoubleElim.LoserByeFrom == nil {
		g.DoubleElim.LoserByeFrom = make(map[int]string)
	}
	return g.DoubleElim
}

// seat is an entrant waiting for a losers-side match and the match it came
// out of.
type seat struct {
	entrant models.EntrantRef
	from    string
	loser   bool
}

type bracketIndex map[models.BracketSide]map[int][]*models.Match

func indexMatches(list []*models.Match) bracketIndex {
	idx := make(bracketIndex)
	for _, m := range list {
		if idx[m.Bracket] == nil {
			idx[m.Bracket] = make(map[int][]*models.Match)
		}
		idx[m.Bracket][m.Round] = append(idx[m.Bracket][m.Round], m)
	}
	for _, rounds := range idx {
		for _, ms := range rounds {
			sort.Slice(ms, func(i, j int) bool { return ms[i].BracketIndex < ms[j].BracketIndex })
		}
	}
	return idx
}

func roundComplete(ms []*models.Match) bool {
	for _, m := range ms {
		if m.Status != models.MatchCompleted {
			return false
		}
	}
	return true
}

// losersSeats returns the entrants of losers round r, or false while a
// feeding round is still being played. Survivors of round r-1 come first;
// when they are as many as the winners-side drop-ins the two lists are
// interleaved, drop-ins reversed, so early rematches are pushed back.
func losersSeats(g *models.Group, st *models.DoubleElimState, idx bracketIndex, r int) ([]seat, bool) {
	var survivors, drops []seat
	if r > 1 {
		prev := idx[models.SideLosers][r-1]
		if !roundComplete(prev) {
			return nil, false
		}
		for _, m := range prev {
			if w, ok := m.Winner(); ok {
				survivors = append(survivors, seat{entrant: w, from: m.ID})
			}
		}
		if bye, ok := st.LoserByes[r-1]; ok {
			from := st.LoserByeFrom[r-1]
			survivors = append(survivors, seat{entrant: bye, from: from, loser: sideOf(idx, from) == models.SideWinners})
		}
	}
	if feed := brackets.LosersFeedRound(r); feed > 0 && feed <= g.Bracket.WinnersRounds {
		ms := idx[models.SideWinners][feed]
		if len(ms) == 0 || !roundComplete(ms) {
			return nil, false
		}
		for _, m := range ms {
			if l, ok := m.Loser(); ok {
				drops = append(drops, seat{entrant: l, from: m.ID, loser: true})
			}
		}
	}
	if len(survivors) > 0 && len(survivors) == len(drops) {
		out := make([]seat, 0, 2*len(drops))
		for i := range survivors {
			out = append(out, survivors[i], drops[len(drops)-1-i])
		}
		return out, true
	}
	return append(survivors, drops...), true
}

func sideOf(idx bracketIndex, matchID string) models.BracketSide {
	for side, rounds := range idx {
		for _, ms := range rounds {
			for _, m := range ms {
				if m.ID == matchID {
					return side
				}
			}
		}
	}
	return models.SideNone
}

// buildLosers creates every losers round whose feeders are complete. The
// losers side has 2(W-1) rounds (at least one); the single entrant left
// after the last one is the losers champion.
func (s *progressionService) buildLosers(ctx context.Context, groupID string) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		g, err := s.groups.GetByID(ctx, groupID)
		if err != nil {
			return notFound(err)
		}
		if g.Bracket == nil {
			return fmt.Errorf("%w: group %s has no bracket", ErrFixtureMissing, g.ID)
		}
		st := doubleElimState(g)
		if st.LosersChampion != nil {
			return nil
		}
		list, err := s.matches.ListByGroup(ctx, g.ID)
		if err != nil {
			return err
		}
		idx := indexMatches(list)
		last := brackets.LosersRounds(g.Bracket.WinnersRounds)
		if last < 1 {
			last = 1
		}

		startBuilt := st.LoserRoundsBuilt
		var created []*models.Match
		var links []seat
		var linkTo []string
		for r := st.LoserRoundsBuilt + 1; ; r++ {
			seats, ready := losersSeats(g, st, idx, r)
			if !ready || len(seats) == 0 {
				break
			}
			if len(seats) == 1 && r >= last {
				st.LosersChampion = models.RefPtr(seats[0].entrant)
				st.LosersChampionFrom = seats[0].from
				break
			}
			if len(seats)%2 == 1 {
				bye := seats[len(seats)-1]
				seats = seats[:len(seats)-1]
				st.LoserByes[r] = bye.entrant
				st.LoserByeFrom[r] = bye.from
			}
			count := len(seats) / 2
			for i := 0; i < count; i++ {
				a, b := seats[2*i], seats[2*i+1]
				m := &models.Match{
					ID:           MatchID(g.ID, losersUID(r, i)),
					EventID:      g.EventID,
					GroupID:      g.ID,
					Category:     g.Category,
					Bracket:      models.SideLosers,
					Round:        r,
					RoundName:    brackets.SideRoundName(models.SideLosers, r, count),
					BracketIndex: i,
					Participant1: models.RefPtr(a.entrant),
					Participant2: models.RefPtr(b.entrant),
					Status:       models.MatchScheduled,
				}
				created = append(created, m)
				links = append(links, a, b)
				linkTo = append(linkTo, m.ID, m.ID)
				if idx[models.SideLosers] == nil {
					idx[models.SideLosers] = make(map[int][]*models.Match)
				}
				idx[models.SideLosers][r] = append(idx[models.SideLosers][r], m)
			}
			st.LoserRoundsBuilt = r
		}
		if st.LoserRoundsBuilt == startBuilt && st.LosersChampion == nil {
			return nil
		}

		for _, m := range created {
			if err := s.matches.Create(ctx, m); err != nil && !errors.Is(err, repositories.ErrDuplicateDocument) {
				return err
			}
		}
		err = s.groups.Update(ctx, g)
		if errors.Is(err, repositories.ErrConflictingUpdate) {
			continue
		}
		if err != nil {
			return err
		}
		for i, seat := range links {
			if seat.from == "" {
				continue
			}
			if err := s.link(ctx, seat.from, linkTo[i], seat.loser); err != nil {
				return err
			}
		}
		for _, m := range created {
			s.metrics.advanced(string(models.SideLosers))
			publish(s.hub, g.EventID, UpdateMatchCreated, m)
		}
		if len(created) > 0 {
			s.logger.Info("losers rounds built",
				slog.String("group_id", g.ID),
				slog.Int("rounds_built", st.LoserRoundsBuilt),
				slog.Int("matches", len(created)))
		}
		return nil
	}
	return fmt.Errorf("%w: group %s kept changing", ErrConflict, groupID)
}

// openGrandFinal creates the grand final once both sides have a champion.
func (s *progressionService) openGrandFinal(ctx context.Context, groupID string) error {
	var gf *models.Match
	var winnersFrom, losersFrom string
	g, err := s.updateGroup(ctx, groupID, func(g *models.Group) (bool, error) {
		st := doubleElimState(g)
		if st.GrandFinalMatchID != "" || st.WinnersChampion == nil || st.LosersChampion == nil {
			return false, nil
		}
		gf = &models.Match{
			ID:           MatchID(g.ID, grandFinalUID(1)),
			EventID:      g.EventID,
			GroupID:      g.ID,
			Category:     g.Category,
			Bracket:      models.SideGrandFinal,
			Round:        1,
			RoundName:    brackets.SideRoundName(models.SideGrandFinal, 1, 1),
			Stage:        models.StageFinal,
			Participant1: models.RefPtr(*st.WinnersChampion),
			Participant2: models.RefPtr(*st.LosersChampion),
			Status:       models.MatchScheduled,
		}
		if err := s.matches.Create(ctx, gf); err != nil && !errors.Is(err, repositories.ErrDuplicateDocument) {
			return false, err
		}
		st.GrandFinalMatchID = gf.ID
		winnersFrom = MatchID(g.ID, winnersUID(models.SideWinners, g.Bracket.WinnersRounds, 0))
		losersFrom = st.LosersChampionFrom
		return true, nil
	})
	if err != nil || gf == nil {
		return err
	}
	if err := s.link(ctx, winnersFrom, gf.ID, false); err != nil {
		return err
	}
	if losersFrom != "" {
		src, err := s.matches.GetByID(ctx, losersFrom)
		if err != nil {
			return notFound(err)
		}
		if err := s.link(ctx, losersFrom, gf.ID, src.Bracket == models.SideWinners); err != nil {
			return err
		}
	}
	s.metrics.advanced(string(models.SideGrandFinal))
	s.logger.Info("grand final created", slog.String("group_id", g.ID), slog.String("match_id", gf.ID))
	publish(s.hub, g.EventID, UpdateMatchCreated, gf)
	return nil
}

// settleGrandFinal crowns the winners-side finalist when they win the first
// grand final. A losers-side win means both have lost once, so a reset match
// is created between the same two entrants.
func (s *progressionService) settleGrandFinal(ctx context.Context, g *models.Group, m *models.Match, winner models.EntrantRef) error {
	if m.Round > 1 || m.Side(winner.Key()) == 1 {
		return s.crown(ctx, g.ID, winner)
	}
	var reset *models.Match
	if _, err := s.updateGroup(ctx, g.ID, func(g *models.Group) (bool, error) {
		st := doubleElimState(g)
		if st.ResetMatchID != "" {
			return false, nil
		}
		reset = &models.Match{
			ID:           MatchID(g.ID, grandFinalUID(2)),
			EventID:      g.EventID,
			GroupID:      g.ID,
			Category:     g.Category,
			Bracket:      models.SideGrandFinal,
			Round:        2,
			RoundName:    brackets.SideRoundName(models.SideGrandFinal, 2, 1),
			Stage:        models.StageFinal,
			Participant1: models.RefPtr(*m.Participant1),
			Participant2: models.RefPtr(*m.Participant2),
			Status:       models.MatchScheduled,
		}
		if err := s.matches.Create(ctx, reset); err != nil && !errors.Is(err, repositories.ErrDuplicateDocument) {
			return false, err
		}
		st.ResetRequired = true
		st.ResetMatchID = reset.ID
		return true, nil
	}); err != nil || reset == nil {
		return err
	}
	if err := s.link(ctx, m.ID, reset.ID, false); err != nil {
		return err
	}
	if err := s.link(ctx, m.ID, reset.ID, true); err != nil {
		return err
	}
	s.logger.Info("grand final reset required", slog.String("group_id", g.ID), slog.String("match_id", reset.ID))
	publish(s.hub, g.EventID, UpdateMatchCreated, reset)
	return nil
}

func (s *progressionService) CheckCorrectable(ctx context.Context, m *models.Match, newWinner string) error {
	if newWinner == m.WinnerKey {
		return nil
	}
	if m.Bracket == models.SideGrandFinal && m.Round == 1 && m.WinnerTo != "" {
		return fmt.Errorf("%w: grand final %s already has a reset match", ErrDownstreamStarted, m.ID)
	}
	next, err := s.nextMatches(ctx, m)
	if err != nil {
		return err
	}
	for _, id := range next {
		t, err := s.matches.GetByID(ctx, id)
		if err != nil {
			return notFound(err)
		}
		if !notStarted(t) {
			return fmt.Errorf("%w: %s is %s", ErrDownstreamStarted, t.ID, t.Status)
		}
	}
	return nil
}

func (s *progressionService) Reroute(ctx context.Context, matchID, previousWinner string) (err error) {
	ctx, span := startSpan(ctx, s.tracer, "progression.reroute", attribute.String("match_id", matchID))
	defer func() { endSpan(span, err) }()

	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return notFound(err)
	}
	if m.WinnerKey == previousWinner || previousWinner == "" {
		return nil
	}
	winner, ok := m.Winner()
	if !ok {
		return fmt.Errorf("%w: corrected match %s has no winner", ErrValidation, m.ID)
	}
	loser, ok := m.Loser()
	if !ok {
		return nil
	}
	swap := map[string]models.EntrantRef{loser.Key(): winner, winner.Key(): loser}

	next, err := s.nextMatches(ctx, m)
	if err != nil {
		return err
	}
	for _, id := range next {
		if err := s.swapEntrants(ctx, id, swap); err != nil {
			return err
		}
	}

	g, err := s.updateGroup(ctx, m.GroupID, func(g *models.Group) (bool, error) {
		changed := false
		if g.ChampionKey == previousWinner && m.WinnerTo == "" {
			g.ChampionKey = winner.Key()
			changed = true
		}
		st := g.DoubleElim
		if st == nil {
			return changed, nil
		}
		for r, e := range st.LoserByes {
			if repl, ok := swap[e.Key()]; ok && st.LoserByeFrom[r] == m.ID {
				st.LoserByes[r] = repl
				changed = true
			}
		}
		winnersFinal := m.Bracket == models.SideWinners && g.Bracket != nil && m.Round == g.Bracket.WinnersRounds
		if st.WinnersChampion != nil && winnersFinal {
			if repl, ok := swap[st.WinnersChampion.Key()]; ok {
				st.WinnersChampion = models.RefPtr(repl)
				changed = true
			}
		}
		if st.LosersChampion != nil && st.LosersChampionFrom == m.ID {
			if repl, ok := swap[st.LosersChampion.Key()]; ok {
				st.LosersChampion = models.RefPtr(repl)
				changed = true
			}
		}
		return changed, nil
	})
	if err != nil {
		return err
	}

	if m.Bracket == models.SideGrandFinal && m.Round == 1 {
		if err := s.settleGrandFinal(ctx, g, m, winner); err != nil {
			return err
		}
		if m.Side(winner.Key()) == 2 {
			if _, err := s.updateGroup(ctx, g.ID, func(g *models.Group) (bool, error) {
				if g.ChampionKey == "" {
					return false, nil
				}
				g.ChampionKey = ""
				return true, nil
			}); err != nil {
				return err
			}
		}
	}
	s.logger.Info("bracket rerouted after correction",
		slog.String("match_id", m.ID),
		slog.String("previous_winner", previousWinner),
		slog.String("winner", winner.Key()))
	return nil
}

// swapEntrants replaces entrants of a not yet started match in one pass.
func (s *progressionService) swapEntrants(ctx context.Context, targetID string, swap map[string]models.EntrantRef) error {
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		t, err := s.matches.GetByID(ctx, targetID)
		if err != nil {
			return notFound(err)
		}
		if !notStarted(t) {
			return fmt.Errorf("%w: %s is %s", ErrDownstreamStarted, t.ID, t.Status)
		}
		for _, slot := range []**models.EntrantRef{&t.Participant1, &t.Participant2} {
			if *slot == nil {
				continue
			}
			if repl, ok := swap[(*slot).Key()]; ok {
				*slot = models.RefPtr(repl)
			}
		}
		if t.RefereeID != "" && t.HasPlayer(t.RefereeID) {
			t.RefereeID = ""
		}
		err = s.matches.Update(ctx, t)
		if errors.Is(err, repositories.ErrConflictingUpdate) {
			continue
		}
		if err != nil {
			return err
		}
		publish(s.hub, t.EventID, UpdateMatchUpdated, t)
		return nil
	}
	return fmt.Errorf("%w: match %s kept changing", ErrConflict, targetID)
}
