package models

import "time"

// MatchSystem is the pairing format a group plays.
type MatchSystem string

const (
	SystemRoundRobin        MatchSystem = "round_robin"
	SystemDoubleRoundRobin  MatchSystem = "double_round_robin"
	SystemSingleElimination MatchSystem = "single_elimination"
	SystemDoubleElimination MatchSystem = "double_elimination"
	SystemSwiss             MatchSystem = "swiss"
	SystemGroupStage        MatchSystem = "group_stage"
)

func (s MatchSystem) Valid() bool {
	switch s {
	case SystemRoundRobin, SystemDoubleRoundRobin, SystemSingleElimination,
		SystemDoubleElimination, SystemSwiss, SystemGroupStage:
		return true
	}
	return false
}

func (s MatchSystem) Elimination() bool {
	return s == SystemSingleElimination || s == SystemDoubleElimination
}

type GroupStatus string

const (
	GroupCreated           GroupStatus = "created"
	GroupPopulated         GroupStatus = "populated"
	GroupFixtureGenerated  GroupStatus = "fixture_generated"
	GroupStandingsComputed GroupStatus = "standings_computed"
	GroupSuperseded        GroupStatus = "superseded"
)

var groupTransitions = map[GroupStatus][]GroupStatus{
	GroupCreated:           {GroupPopulated, GroupFixtureGenerated},
	GroupPopulated:         {GroupCreated, GroupFixtureGenerated},
	GroupFixtureGenerated:  {GroupStandingsComputed, GroupSuperseded},
	GroupStandingsComputed: {GroupSuperseded},
	GroupSuperseded:        {},
}

func (s GroupStatus) CanTransitionTo(next GroupStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range groupTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Editable reports whether the roster may still change.
func (s GroupStatus) Editable() bool {
	return s == GroupCreated || s == GroupPopulated
}

// Bracket is the elimination metadata of a group.
type Bracket struct {
	Size int `json:"size"`
	// SlotSeeds[i] is the seed placed in slot i (1-based seeds).
	SlotSeeds []int `json:"slot_seeds"`
	// Seeds[k] is the entrant holding seed k+1.
	Seeds []EntrantRef `json:"seeds"`
	Byes  []ByeSlot    `json:"byes"`
	// WinnersRounds is the number of rounds of the winners side.
	WinnersRounds int `json:"winners_rounds"`
}

// ByeSlot records a bye-holder and the first-round slot pair it skipped.
type ByeSlot struct {
	Entrant EntrantRef `json:"entrant"`
	Seed    int        `json:"seed"`
	Slot    int        `json:"slot"`
	Index   int        `json:"index"`
}

// DoubleElimState is the live bookkeeping of a double-elimination group.
type DoubleElimState struct {
	LoserRoundsBuilt int `json:"loser_rounds_built"`
	// LoserByes holds the entrant that sat out a losers round, by round.
	LoserByes map[int]EntrantRef `json:"loser_byes,omitempty"`
	// LoserByeFrom is the match each bye-holder last came out of.
	LoserByeFrom map[int]string `json:"loser_bye_from,omitempty"`

	WinnersChampion *EntrantRef `json:"winners_champion,omitempty"`
	LosersChampion  *EntrantRef `json:"losers_champion,omitempty"`
	// LosersChampionFrom is the match the losers-side champion came out of.
	LosersChampionFrom string `json:"losers_champion_from,omitempty"`

	GrandFinalMatchID string `json:"grand_final_match_id,omitempty"`
	// ResetRequired is set when the losers-side finalist wins the first
	// grand final; the reset match is created only then.
	ResetRequired bool   `json:"reset_required"`
	ResetMatchID  string `json:"reset_match_id,omitempty"`
}

// SwissState tracks round-by-round pairing of a Swiss group.
type SwissState struct {
	TotalRounds  int      `json:"total_rounds"`
	CurrentRound int      `json:"current_round"`
	ByeHistory   []string `json:"bye_history"`
}

func (s *SwissState) HadBye(key string) bool {
	for _, k := range s.ByeHistory {
		if k == key {
			return true
		}
	}
	return false
}

// Group is a named subset of entrants within a category.
type Group struct {
	ID       string      `json:"id"`
	EventID  string      `json:"event_id"`
	Name     string      `json:"name"`
	Category CategoryTag `json:"category"`
	System   MatchSystem `json:"system"`
	Status   GroupStatus `json:"status"`

	Entrants     []EntrantRef `json:"entrants"`
	ByeEntrants  []EntrantRef `json:"bye_entrants,omitempty"`
	ParentGroups []string     `json:"parent_groups,omitempty"`
	SupersededBy string       `json:"superseded_by,omitempty"`

	Bracket     *Bracket         `json:"bracket,omitempty"`
	DoubleElim  *DoubleElimState `json:"double_elim,omitempty"`
	Swiss       *SwissState      `json:"swiss,omitempty"`
	ChampionKey string           `json:"champion_key,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

func (g *Group) IndexOf(key string) int {
	for i, e := range g.Entrants {
		if e.Key() == key {
			return i
		}
	}
	return -1
}

func (g *Group) IsBye(key string) bool {
	for _, e := range g.ByeEntrants {
		if e.Key() == key {
			return true
		}
	}
	return false
}
