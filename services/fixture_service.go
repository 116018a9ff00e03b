package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Dosada05/tournament-scheduler/brackets"
	"github.com/Dosada05/tournament-scheduler/categories"
	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/repositories"
)

// PartitionResult is the outcome of splitting an event roster into
// category groups.
type PartitionResult struct {
	Outcome models.Outcome  `json:"outcome"`
	Groups  []*models.Group `json:"groups"`
}

// GenerateOptions tunes fixture generation.
type GenerateOptions struct {
	GroupSize   int `json:"group_size"`
	SwissRounds int `json:"swiss_rounds"`
	// Seed makes the random Swiss first round reproducible.
	Seed *uint64 `json:"seed,omitempty"`
}

// FixtureResult lists what a generation stored.
type FixtureResult struct {
	Outcome models.Outcome  `json:"outcome"`
	Group   *models.Group   `json:"group"`
	Groups  []*models.Group `json:"groups,omitempty"`
	Matches []*models.Match `json:"matches"`
}

// GroupInput creates a group by hand.
type GroupInput struct {
	Name        string              `json:"name"`
	Category    models.CategoryTag  `json:"category"`
	System      models.MatchSystem  `json:"system"`
	Entrants    []models.EntrantRef `json:"entrants"`
	ByeEntrants []models.EntrantRef `json:"bye_entrants,omitempty"`
}

// EliminationInput builds a knockout group from finished groups.
type EliminationInput struct {
	GroupIDs []string `json:"group_ids"`
	// PerGroup is how many finishers of each group qualify.
	PerGroup int                `json:"per_group"`
	System   models.MatchSystem `json:"system"`
	Name     string             `json:"name"`
}

type FixtureService interface {
	Partition(ctx context.Context, actor models.Actor, eventID string) (*PartitionResult, error)
	ListGroups(ctx context.Context, eventID string) ([]*models.Group, error)
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	CreateGroup(ctx context.Context, actor models.Actor, eventID string, in GroupInput) (*models.Group, error)

	AddEntrant(ctx context.Context, actor models.Actor, groupID string, e models.EntrantRef) (*models.Group, error)
	RemoveEntrant(ctx context.Context, actor models.Actor, groupID, entrantKey string) (*models.Group, error)
	MoveEntrant(ctx context.Context, actor models.Actor, fromID, toID, entrantKey string) error
	MergeGroups(ctx context.Context, actor models.Actor, groupIDs []string, name string) (*models.Group, error)
	SplitGroup(ctx context.Context, actor models.Actor, groupID string, parts int) ([]*models.Group, error)
	SetByes(ctx context.Context, actor models.Actor, groupID string, entrantKeys []string) (*models.Group, error)

	GenerateFixture(ctx context.Context, actor models.Actor, groupID string, opts GenerateOptions) (*FixtureResult, error)
	BuildEliminationFromGroups(ctx context.Context, actor models.Actor, eventID string, in EliminationInput) (*FixtureResult, error)
}

type fixtureService struct {
	events       repositories.EventRepository
	participants repositories.ParticipantRepository
	groups       repositories.GroupRepository
	matches      repositories.MatchRepository
	standings    StandingsService
	hub          Broadcaster
	tracer       trace.Tracer
	logger       *slog.Logger
}

func NewFixtureService(
	events repositories.EventRepository,
	participants repositories.ParticipantRepository,
	groups repositories.GroupRepository,
	matches repositories.MatchRepository,
	standings StandingsService,
	hub Broadcaster,
	tracer trace.Tracer,
	logger *slog.Logger,
) FixtureService {
	return &fixtureService{
		events:       events,
		participants: participants,
		groups:       groups,
		matches:      matches,
		standings:    standings,
		hub:          hub,
		tracer:       tracer,
		logger:       logger,
	}
}

func (s *fixtureService) managedEvent(ctx context.Context, actor models.Actor, eventID string) (*models.Event, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, notFound(err)
	}
	if !actor.CanManage(ev) {
		return nil, ErrOrganizerOnly
	}
	return ev, nil
}

// editableGroup loads a group whose roster may still change.
func (s *fixtureService) editableGroup(ctx context.Context, actor models.Actor, groupID string) (*models.Group, *models.Event, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, nil, notFound(err)
	}
	ev, err := s.managedEvent(ctx, actor, g.EventID)
	if err != nil {
		return nil, nil, err
	}
	if !g.Status.Editable() {
		return nil, nil, fmt.Errorf("%w: group %s is %s", ErrFixtureGenerated, g.ID, g.Status)
	}
	return g, ev, nil
}

func (s *fixtureService) saveGroup(ctx context.Context, g *models.Group) error {
	if err := s.groups.Update(ctx, g); err != nil {
		if errors.Is(err, repositories.ErrConflictingUpdate) {
			return fmt.Errorf("%w: group %s changed, reload and retry", ErrConflict, g.ID)
		}
		return err
	}
	return nil
}

func rosterValues(list []*models.Participant) []models.Participant {
	out := make([]models.Participant, 0, len(list))
	for _, p := range list {
		out = append(out, *p)
	}
	return out
}

func (s *fixtureService) Partition(ctx context.Context, actor models.Actor, eventID string) (*PartitionResult, error) {
	ev, err := s.managedEvent(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	roster, err := s.participants.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	res, err := categories.Partition(ev, rosterValues(roster))
	if err != nil {
		return nil, validationf(err, "event %s", eventID)
	}
	existing, err := s.groups.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	have := make(map[string]bool, len(existing))
	for _, g := range existing {
		have[g.Category.Key()] = true
	}

	out := &PartitionResult{}
	processed := 0
	for _, c := range res.Categories {
		processed += len(c.Entrants)
		if have[c.Tag.Key()] {
			s.logger.Debug("category already has groups", slog.String("category", c.Tag.Key()))
			continue
		}
		g := &models.Group{
			EventID:  eventID,
			Name:     c.Label,
			Category: c.Tag,
			System:   ev.System,
			Status:   models.GroupPopulated,
			Entrants: c.Entrants,
		}
		if err := s.groups.Create(ctx, g); err != nil {
			return nil, err
		}
		out.Groups = append(out.Groups, g)
	}
	excluded := make([]string, 0, len(res.Excluded))
	for _, ex := range res.Excluded {
		excluded = append(excluded, fmt.Sprintf("%s:%s:%s", ex.ParticipantID, ex.GameType, ex.Reason))
		s.logger.Warn("participant excluded from category",
			slog.String("participant_id", ex.ParticipantID),
			slog.String("game_type", string(ex.GameType)),
			slog.String("reason", string(ex.Reason)))
	}
	out.Outcome = models.NewOutcome(processed, nil, excluded)
	s.logger.Info("event partitioned",
		slog.String("event_id", eventID),
		slog.Int("categories", len(res.Categories)),
		slog.Int("groups_created", len(out.Groups)))
	return out, nil
}

func (s *fixtureService) ListGroups(ctx context.Context, eventID string) ([]*models.Group, error) {
	return s.groups.ListByEvent(ctx, eventID)
}

func (s *fixtureService) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, notFound(err)
	}
	return g, nil
}

func (s *fixtureService) CreateGroup(ctx context.Context, actor models.Actor, eventID string, in GroupInput) (*models.Group, error) {
	ev, err := s.managedEvent(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	system := in.System
	if system == "" {
		system = ev.System
	}
	if !system.Valid() {
		return nil, fmt.Errorf("%w: %q", brackets.ErrUnsupportedSystem, system)
	}
	for _, e := range append(append([]models.EntrantRef(nil), in.Entrants...), in.ByeEntrants...) {
		if err := e.Validate(); err != nil {
			return nil, validationf(err, "entrant %s", e.Key())
		}
	}
	status := models.GroupCreated
	if len(in.Entrants) > 0 {
		status = models.GroupPopulated
	}
	g := &models.Group{
		EventID:     eventID,
		Name:        in.Name,
		Category:    in.Category,
		System:      system,
		Status:      status,
		Entrants:    in.Entrants,
		ByeEntrants: in.ByeEntrants,
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// checkPartner rejects a pair whose player is already paired in the group.
func checkPartner(g *models.Group, e models.EntrantRef) error {
	for _, other := range g.Entrants {
		if other.Key() == e.Key() {
			return fmt.Errorf("%w: %s is already in group %s", ErrConflict, e.Key(), g.Name)
		}
		if !e.IsPair() || !other.IsPair() {
			continue
		}
		for _, id := range e.Members() {
			if other.HasMember(id) {
				return fmt.Errorf("%w: %s plays in %s", ErrPartnerPaired, id, other.Key())
			}
		}
	}
	return nil
}

func (s *fixtureService) AddEntrant(ctx context.Context, actor models.Actor, groupID string, e models.EntrantRef) (*models.Group, error) {
	if err := e.Validate(); err != nil {
		return nil, validationf(err, "entrant")
	}
	g, _, err := s.editableGroup(ctx, actor, groupID)
	if err != nil {
		return nil, err
	}
	if err := checkPartner(g, e); err != nil {
		return nil, err
	}
	g.Entrants = append(g.Entrants, e)
	g.Status = models.GroupPopulated
	if err := s.saveGroup(ctx, g); err != nil {
		return nil, err
	}
	s.logger.Info("entrant added", slog.String("group_id", g.ID), slog.String("entrant", e.Key()))
	return g, nil
}

func removeEntrant(g *models.Group, key string) (models.EntrantRef, bool) {
	i := g.IndexOf(key)
	if i < 0 {
		return models.EntrantRef{}, false
	}
	e := g.Entrants[i]
	g.Entrants = append(g.Entrants[:i:i], g.Entrants[i+1:]...)
	byes := g.ByeEntrants[:0]
	for _, b := range g.ByeEntrants {
		if b.Key() != key {
			byes = append(byes, b)
		}
	}
	g.ByeEntrants = byes
	if len(g.Entrants) == 0 {
		g.Status = models.GroupCreated
	}
	return e, true
}

func (s *fixtureService) RemoveEntrant(ctx context.Context, actor models.Actor, groupID, entrantKey string) (*models.Group, error) {
	g, _, err := s.editableGroup(ctx, actor, groupID)
	if err != nil {
		return nil, err
	}
	if _, ok := removeEntrant(g, entrantKey); !ok {
		return nil, fmt.Errorf("%w: %s is not in group %s", ErrNotFound, entrantKey, g.ID)
	}
	if err := s.saveGroup(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *fixtureService) MoveEntrant(ctx context.Context, actor models.Actor, fromID, toID, entrantKey string) error {
	from, _, err := s.editableGroup(ctx, actor, fromID)
	if err != nil {
		return err
	}
	to, _, err := s.editableGroup(ctx, actor, toID)
	if err != nil {
		return err
	}
	if from.EventID != to.EventID {
		return fmt.Errorf("%w: groups belong to different events", ErrValidation)
	}
	e, ok := removeEntrant(from, entrantKey)
	if !ok {
		return fmt.Errorf("%w: %s is not in group %s", ErrNotFound, entrantKey, from.ID)
	}
	if err := checkPartner(to, e); err != nil {
		return err
	}
	to.Entrants = append(to.Entrants, e)
	to.Status = models.GroupPopulated
	if err := s.saveGroup(ctx, from); err != nil {
		return err
	}
	if err := s.saveGroup(ctx, to); err != nil {
		return err
	}
	s.logger.Info("entrant moved", slog.String("from", from.ID), slog.String("to", to.ID), slog.String("entrant", entrantKey))
	return nil
}

func (s *fixtureService) MergeGroups(ctx context.Context, actor models.Actor, groupIDs []string, name string) (*models.Group, error) {
	if len(groupIDs) < 2 {
		return nil, fmt.Errorf("%w: %w", ErrValidation, categories.ErrNothingToMerge)
	}
	var sources []*models.Group
	cats := make([]models.Category, 0, len(groupIDs))
	for _, id := range groupIDs {
		g, _, err := s.editableGroup(ctx, actor, id)
		if err != nil {
			return nil, err
		}
		if len(sources) > 0 && g.EventID != sources[0].EventID {
			return nil, fmt.Errorf("%w: groups belong to different events", ErrValidation)
		}
		sources = append(sources, g)
		cats = append(cats, models.Category{Tag: g.Category, Label: g.Name, Entrants: g.Entrants})
	}
	merged, err := categories.MergeCategories(name, cats...)
	if err != nil {
		return nil, validationf(err, "merge")
	}
	g := &models.Group{
		EventID:  sources[0].EventID,
		Name:     merged.Label,
		Category: merged.Tag,
		System:   sources[0].System,
		Status:   models.GroupPopulated,
		Entrants: merged.Entrants,
	}
	for _, src := range sources {
		for _, b := range src.ByeEntrants {
			if g.IndexOf(b.Key()) >= 0 && !g.IsBye(b.Key()) {
				g.ByeEntrants = append(g.ByeEntrants, b)
			}
		}
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	for _, src := range sources {
		if err := s.groups.Delete(ctx, src.ID); err != nil {
			return nil, err
		}
	}
	s.logger.Info("groups merged", slog.String("group_id", g.ID), slog.Int("sources", len(sources)), slog.Int("entrants", len(g.Entrants)))
	return g, nil
}

func (s *fixtureService) SplitGroup(ctx context.Context, actor models.Actor, groupID string, parts int) ([]*models.Group, error) {
	g, _, err := s.editableGroup(ctx, actor, groupID)
	if err != nil {
		return nil, err
	}
	if parts < 2 || parts > len(g.Entrants) {
		return nil, fmt.Errorf("%w: cannot split %d entrants into %d groups", ErrValidation, len(g.Entrants), parts)
	}
	roster, err := s.participants.ListByEvent(ctx, g.EventID)
	if err != nil {
		return nil, err
	}
	ranked := seedEntrants(g, roster)
	size := (len(ranked) + parts - 1) / parts

	var out []*models.Group
	for _, split := range brackets.SplitIntoGroups(ranked, size) {
		child := &models.Group{
			EventID:  g.EventID,
			Name:     strings.TrimSpace(g.Name + " " + split.Name),
			Category: g.Category,
			System:   g.System,
			Status:   models.GroupPopulated,
			Entrants: split.Entrants,
		}
		for _, b := range g.ByeEntrants {
			if child.IndexOf(b.Key()) >= 0 {
				child.ByeEntrants = append(child.ByeEntrants, b)
			}
		}
		if err := s.groups.Create(ctx, child); err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	if err := s.groups.Delete(ctx, g.ID); err != nil {
		return nil, err
	}
	s.logger.Info("group split", slog.String("group_id", g.ID), slog.Int("parts", len(out)))
	return out, nil
}

func (s *fixtureService) SetByes(ctx context.Context, actor models.Actor, groupID string, entrantKeys []string) (*models.Group, error) {
	g, _, err := s.editableGroup(ctx, actor, groupID)
	if err != nil {
		return nil, err
	}
	byes := make([]models.EntrantRef, 0, len(entrantKeys))
	for _, key := range entrantKeys {
		i := g.IndexOf(key)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s is not in group %s", ErrValidation, key, g.ID)
		}
		byes = append(byes, g.Entrants[i])
	}
	g.ByeEntrants = byes
	if err := s.saveGroup(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// seedEntrants ranks a group's entrants: designated byes, manual seeds, then
// ranking score. A pair takes its better manual seed and its combined record.
func seedEntrants(g *models.Group, roster []*models.Participant) []models.EntrantRef {
	byID := make(map[string]*models.Participant, len(roster))
	for _, p := range roster {
		byID[p.ID] = p
	}
	cands := make([]brackets.SeedCandidate, 0, len(g.Entrants))
	for i, e := range g.Entrants {
		c := brackets.SeedCandidate{Entrant: e, Order: i, Bye: g.IsBye(e.Key())}
		for _, id := range e.Members() {
			p, ok := byID[id]
			if !ok {
				continue
			}
			c.Wins += p.Wins
			c.Losses += p.Losses
			if p.Seed != nil && (c.ManualSeed == nil || *p.Seed < *c.ManualSeed) {
				seed := *p.Seed
				c.ManualSeed = &seed
			}
		}
		cands = append(cands, c)
	}
	return brackets.RankEntrants(cands)
}

func (s *fixtureService) GenerateFixture(ctx context.Context, actor models.Actor, groupID string, opts GenerateOptions) (res *FixtureResult, err error) {
	ctx, span := startSpan(ctx, s.tracer, "fixture.generate", attribute.String("group_id", groupID))
	defer func() { endSpan(span, err) }()

	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, notFound(err)
	}
	ev, err := s.managedEvent(ctx, actor, g.EventID)
	if err != nil {
		return nil, err
	}
	if !g.Status.Editable() {
		return nil, fmt.Errorf("%w: group %s is %s", ErrFixtureGenerated, g.ID, g.Status)
	}
	if len(g.Entrants) < 2 {
		return nil, fmt.Errorf("%w: group %s has %d", ErrTooFewEntrants, g.ID, len(g.Entrants))
	}
	roster, err := s.participants.ListByEvent(ctx, g.EventID)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, ev, g, seedEntrants(g, roster), opts)
}

// generate runs the group's generator over ranked entrants and stores the
// playable part of the fixture. The group is claimed first, so a concurrent
// second generation fails with a conflict instead of duplicating matches.
func (s *fixtureService) generate(ctx context.Context, ev *models.Event, g *models.Group, ranked []models.EntrantRef, opts GenerateOptions) (*FixtureResult, error) {
	gen, err := brackets.NewGenerator(g.System)
	if err != nil {
		return nil, validationf(err, "group %s", g.ID)
	}
	params := brackets.GenerateParams{Entrants: ranked, GroupSize: opts.GroupSize, SwissRounds: opts.SwissRounds}
	if opts.Seed != nil {
		params.Rand = rand.New(rand.NewPCG(*opts.Seed, *opts.Seed))
	}
	f, err := gen.GenerateBracket(ctx, params)
	if err != nil {
		return nil, validationf(err, "group %s", g.ID)
	}
	switch g.System {
	case models.SystemRoundRobin, models.SystemDoubleRoundRobin, models.SystemSwiss:
		brackets.ApplyExclusions(f, ranked, ev.Exclusions, s.logger)
	}

	var kept []brackets.Pairing
	for _, p := range f.Pairings {
		if keepPairing(g.System, p) {
			kept = append(kept, p)
		}
	}
	feeders, err := eliminationFeeders(g, kept)
	if err != nil {
		return nil, err
	}

	g.Status = models.GroupFixtureGenerated
	g.Bracket = f.Bracket
	switch g.System {
	case models.SystemDoubleElimination:
		g.DoubleElim = &models.DoubleElimState{}
	case models.SystemSwiss:
		g.Swiss = &models.SwissState{TotalRounds: f.Rounds, CurrentRound: 1}
		if bye, ok := f.RoundByes[1]; ok {
			g.Swiss.ByeHistory = []string{bye.Key()}
		}
	}
	if err := s.saveGroup(ctx, g); err != nil {
		return nil, err
	}

	res := &FixtureResult{Group: g}
	if g.System == models.SystemGroupStage {
		if err := s.storeGroupStage(ctx, g, f, res); err != nil {
			return nil, err
		}
	} else {
		for _, p := range kept {
			m, err := s.storePairing(ctx, g, p, feeders[p.UID])
			if err != nil {
				return nil, err
			}
			res.Matches = append(res.Matches, m)
		}
	}
	if bye, ok := f.RoundByes[1]; ok && g.System == models.SystemSwiss {
		m, err := createByeMatch(ctx, s.matches, s.standings, g, bye, 1)
		if err != nil {
			return nil, err
		}
		res.Matches = append(res.Matches, m)
	}

	excluded := make([]string, 0, len(f.Excluded))
	for _, p := range f.Excluded {
		excluded = append(excluded, fmt.Sprintf("%s: %s vs %s", p.UID, p.A.Key(), p.B.Key()))
	}
	res.Outcome = models.NewOutcome(len(res.Matches), nil, excluded)
	s.logger.Info("fixture generated",
		slog.String("group_id", g.ID),
		slog.String("system", string(g.System)),
		slog.Int("matches", len(res.Matches)),
		slog.Int("excluded", len(excluded)))
	return res, nil
}

// keepPairing decides which generated pairings become match rows. Single
// elimination stores its shells so winners can be written into them; the
// losers side and grand final of double elimination are built live, as are
// later Swiss rounds.
func keepPairing(system models.MatchSystem, p brackets.Pairing) bool {
	switch system {
	case models.SystemSingleElimination:
		return true
	case models.SystemDoubleElimination:
		return p.Bracket == models.SideWinners
	}
	return !p.Placeholder()
}

// eliminationFeeders checks that the stored part of an elimination bracket
// narrows to a single final and returns, per pairing, the match ids feeding
// it. Other systems have no feeders.
func eliminationFeeders(g *models.Group, kept []brackets.Pairing) (map[string][]string, error) {
	if !g.System.Elimination() || len(kept) == 0 {
		return nil, nil
	}
	eg, err := brackets.NewEliminationGraph(kept)
	if err != nil {
		return nil, validationf(err, "group %s", g.ID)
	}
	if err := eg.Validate(); err != nil {
		return nil, validationf(err, "group %s", g.ID)
	}
	out := make(map[string][]string, len(kept))
	for _, p := range kept {
		src, err := eg.Feeders(p.UID)
		if err != nil {
			return nil, err
		}
		for _, uid := range src {
			out[p.UID] = append(out[p.UID], MatchID(g.ID, uid))
		}
	}
	return out, nil
}

func (s *fixtureService) storePairing(ctx context.Context, g *models.Group, p brackets.Pairing, feeders []string) (*models.Match, error) {
	m := &models.Match{
		ID:           MatchID(g.ID, p.UID),
		EventID:      g.EventID,
		GroupID:      g.ID,
		Category:     g.Category,
		Bracket:      p.Bracket,
		Round:        p.Round,
		RoundName:    p.RoundName,
		BracketIndex: p.Index,
		Stage:        p.Stage,
		Participant1: p.A,
		Participant2: p.B,
		Feeders:      feeders,
		Status:       models.MatchAwaitingParticipants,
	}
	if m.Ready() {
		m.Status = models.MatchScheduled
	}
	if err := s.matches.Create(ctx, m); err != nil {
		return nil, err
	}
	publish(s.hub, g.EventID, UpdateMatchCreated, m)
	return m, nil
}

// storeGroupStage turns every split of a group-stage fixture into its own
// round-robin child group. The knockout is built later from final standings.
func (s *fixtureService) storeGroupStage(ctx context.Context, parent *models.Group, f *brackets.Fixture, res *FixtureResult) error {
	for _, split := range f.Groups {
		child := &models.Group{
			EventID:      parent.EventID,
			Name:         split.Name,
			Category:     parent.Category,
			System:       models.SystemRoundRobin,
			Status:       models.GroupFixtureGenerated,
			Entrants:     split.Entrants,
			ParentGroups: []string{parent.ID},
		}
		if err := s.groups.Create(ctx, child); err != nil {
			return err
		}
		res.Groups = append(res.Groups, child)
		for _, p := range f.Pairings {
			if p.Group != split.Name || p.Placeholder() {
				continue
			}
			m, err := s.storePairing(ctx, child, p, nil)
			if err != nil {
				return err
			}
			res.Matches = append(res.Matches, m)
		}
	}
	return nil
}

func (s *fixtureService) BuildEliminationFromGroups(ctx context.Context, actor models.Actor, eventID string, in EliminationInput) (res *FixtureResult, err error) {
	ctx, span := startSpan(ctx, s.tracer, "fixture.elimination_from_groups", attribute.String("event_id", eventID))
	defer func() { endSpan(span, err) }()

	ev, err := s.managedEvent(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	if len(in.GroupIDs) == 0 {
		return nil, fmt.Errorf("%w: no source groups", ErrValidation)
	}
	system := in.System
	if system == "" {
		system = models.SystemSingleElimination
	}
	if !system.Elimination() {
		return nil, fmt.Errorf("%w: %s is not an elimination system", ErrValidation, system)
	}
	perGroup := in.PerGroup
	if perGroup <= 0 {
		perGroup = 2
	}

	var sources []*models.Group
	var qualifiers []brackets.Qualifier
	for _, id := range in.GroupIDs {
		g, err := s.groups.GetByID(ctx, id)
		if err != nil {
			return nil, notFound(err)
		}
		if g.EventID != eventID {
			return nil, fmt.Errorf("%w: group %s belongs to another event", ErrValidation, g.ID)
		}
		if g.Status == models.GroupSuperseded {
			return nil, fmt.Errorf("%w: group %s was already superseded", ErrConflict, g.ID)
		}
		list, err := s.matches.ListByGroup(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("%w: group %s", ErrFixtureMissing, g.ID)
		}
		for _, m := range list {
			if !m.Status.Terminal() {
				return nil, fmt.Errorf("%w: %s is %s", ErrGroupsNotFinished, m.ID, m.Status)
			}
		}
		rows, err := s.standings.GroupStandings(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		for i, r := range rows {
			if i >= perGroup {
				break
			}
			qualifiers = append(qualifiers, brackets.Qualifier{
				Entrant:      r.Entrant,
				Position:     i + 1,
				Points:       r.Points,
				Differential: r.Differential(),
			})
		}
		sources = append(sources, g)
	}
	ranked := brackets.RankQualifiers(qualifiers)
	if len(ranked) < 2 {
		return nil, fmt.Errorf("%w: %d qualifiers", ErrTooFewEntrants, len(ranked))
	}

	name := in.Name
	if name == "" {
		name = brackets.EliminationRoundName(1, len(ranked)/2)
	}
	g := &models.Group{
		EventID:      eventID,
		Name:         name,
		Category:     sources[0].Category,
		System:       system,
		Status:       models.GroupPopulated,
		Entrants:     ranked,
		ParentGroups: in.GroupIDs,
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, err
	}
	res, err = s.generate(ctx, ev, g, ranked, GenerateOptions{})
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		src.SupersededBy = g.ID
		if src.Status.CanTransitionTo(models.GroupSuperseded) {
			src.Status = models.GroupSuperseded
		}
		if err := s.saveGroup(ctx, src); err != nil {
			return nil, err
		}
	}
	s.logger.Info("elimination built from groups",
		slog.String("group_id", g.ID),
		slog.Int("sources", len(sources)),
		slog.Int("qualifiers", len(ranked)))
	return res, nil
}
