package models

import "time"

// Standing is one row per (group, entrant). Every field except the Swiss
// tie-breaks is a running sum of the contributions of applied matches.
type Standing struct {
	ID       string     `json:"id"`
	EventID  string     `json:"event_id"`
	GroupID  string     `json:"group_id"`
	Entrant  EntrantRef `json:"entrant"`
	EntrantK string     `json:"entrant_key"`

	Played        int     `json:"played"`
	Wins          int     `json:"wins"`
	Losses        int     `json:"losses"`
	Draws         int     `json:"draws"`
	Points        float64 `json:"points"`
	ScoredFor     int     `json:"scored_for"`
	ScoredAgainst int     `json:"scored_against"`

	Buchholz        float64 `json:"buchholz"`
	SonnebornBerger float64 `json:"sonneborn_berger"`

	// Form holds the results in match order, newest last: W, L or D. It is
	// derived from Results.
	Form    string      `json:"form"`
	Streak  int         `json:"streak"`
	Results []FormEntry `json:"results,omitempty"`

	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Standing) Differential() int {
	return s.ScoredFor - s.ScoredAgainst
}

// FormEntry is one result of an entrant, kept per match so a corrected
// match keeps its place in the form.
type FormEntry struct {
	MatchID string    `json:"match_id"`
	Result  string    `json:"result"`
	At      time.Time `json:"at"`
}

// ContributionEntry is what one match added to one entrant's row.
type ContributionEntry struct {
	MatchID       string             `json:"match_id,omitempty"`
	At            time.Time          `json:"at"`
	EntrantKey    string             `json:"entrant_key"`
	Entrant       EntrantRef         `json:"entrant"`
	Played        int                `json:"played"`
	Wins          int                `json:"wins"`
	Losses        int                `json:"losses"`
	Draws         int                `json:"draws"`
	Points        float64            `json:"points"`
	ScoredFor     int                `json:"scored_for"`
	ScoredAgainst int                `json:"scored_against"`
	Result        string             `json:"result"`
	Breakdown     map[string]float64 `json:"breakdown,omitempty"`
}

// Contribution is stored on the match when applied so reversal subtracts
// exactly what was added.
type Contribution struct {
	Entries []ContributionEntry `json:"entries"`
}
