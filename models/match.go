package models

import (
	"fmt"
	"time"
)

type MatchStatus string

const (
	MatchAwaitingParticipants MatchStatus = "awaiting_participants"
	MatchScheduled            MatchStatus = "scheduled"
	MatchInProgress           MatchStatus = "in_progress"
	MatchPendingConfirmation  MatchStatus = "pending_confirmation"
	MatchCompleted            MatchStatus = "completed"
	MatchDisputed             MatchStatus = "disputed"
	MatchCancelled            MatchStatus = "cancelled"
)

var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchAwaitingParticipants: {MatchScheduled, MatchCancelled},
	MatchScheduled:            {MatchInProgress, MatchPendingConfirmation, MatchCompleted, MatchCancelled},
	MatchInProgress:           {MatchPendingConfirmation, MatchCompleted, MatchCancelled},
	MatchPendingConfirmation:  {MatchCompleted, MatchDisputed, MatchCancelled},
	MatchDisputed:             {MatchPendingConfirmation, MatchCompleted, MatchCancelled},
	MatchCompleted:            {},
	MatchCancelled:            {},
}

func (s MatchStatus) Valid() bool {
	_, ok := matchTransitions[s]
	return ok
}

// CanTransitionTo reports whether the table allows current -> next.
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	for _, allowed := range matchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s MatchStatus) Terminal() bool {
	return s == MatchCompleted || s == MatchCancelled
}

// AcceptsResult reports whether a score may be submitted in this state.
func (s MatchStatus) AcceptsResult() bool {
	return s == MatchScheduled || s == MatchInProgress || s == MatchDisputed
}

type BracketSide string

const (
	SideNone       BracketSide = ""
	SideWinners    BracketSide = "winners"
	SideLosers     BracketSide = "losers"
	SideGrandFinal BracketSide = "grand_final"
)

// Stage marks matches the scheduler treats as important.
type Stage string

const (
	StageRegular   Stage = ""
	StageSemifinal Stage = "semifinal"
	StageFinal     Stage = "final"
)

func (s Stage) Important() bool {
	return s == StageSemifinal || s == StageFinal
}

// FairPlay is the disciplinary record of one side in one match.
type FairPlay struct {
	Warnings        int `json:"warnings"`
	YellowCards     int `json:"yellow_cards"`
	RedCards        int `json:"red_cards"`
	Unsportsmanlike int `json:"unsportsmanlike"`
}

func (f FairPlay) Clean() bool {
	return f.Warnings == 0 && f.YellowCards == 0 && f.RedCards == 0 && f.Unsportsmanlike == 0
}

// PendingResult is a participant-submitted score awaiting confirmation.
type PendingResult struct {
	Score       string     `json:"score"`
	WinnerKey   string     `json:"winner_key"`
	ProposedBy  string     `json:"proposed_by"`
	ProposedAt  time.Time  `json:"proposed_at"`
	Forfeit     bool       `json:"forfeit,omitempty"`
	FairPlay1   FairPlay   `json:"fair_play_1"`
	FairPlay2   FairPlay   `json:"fair_play_2"`
	RejectedBy  string     `json:"rejected_by,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	RejectCause string     `json:"reject_cause,omitempty"`
}

// Match is the core mutable entity of the engine.
type Match struct {
	ID       string      `json:"id"`
	EventID  string      `json:"event_id"`
	GroupID  string      `json:"group_id"`
	Category CategoryTag `json:"category"`

	Bracket      BracketSide `json:"bracket"`
	Round        int         `json:"round"`
	RoundName    string      `json:"round_name"`
	BracketIndex int         `json:"bracket_index"`
	Stage        Stage       `json:"stage"`

	Participant1 *EntrantRef `json:"participant1"`
	Participant2 *EntrantRef `json:"participant2"`
	// IsBye marks a Swiss bye row: Participant2 stays nil and the match is
	// completed at creation.
	IsBye bool `json:"is_bye,omitempty"`

	Status      MatchStatus `json:"status"`
	Court       *int        `json:"court"`
	ScheduledAt *time.Time  `json:"scheduled_at"`
	RefereeID   string      `json:"referee_id,omitempty"`

	Score     *string  `json:"score"`
	WinnerKey string   `json:"winner_key,omitempty"`
	Draw      bool     `json:"draw,omitempty"`
	Forfeit   bool     `json:"forfeit,omitempty"`
	FairPlay1 FairPlay `json:"fair_play_1"`
	FairPlay2 FairPlay `json:"fair_play_2"`

	Pending *PendingResult `json:"pending,omitempty"`

	StandingsUpdated bool          `json:"standings_updated"`
	Applied          *Contribution `json:"applied,omitempty"`

	// Feeders are the elimination matches whose results decide this match's
	// entrants, fixed when the bracket is generated.
	Feeders []string `json:"feeders,omitempty"`

	// Downstream matches this one fed; used to undo an advance on correction.
	WinnerTo string `json:"winner_to,omitempty"`
	LoserTo  string `json:"loser_to,omitempty"`

	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Side returns 1 or 2 for the slot holding the entrant key, 0 if absent.
func (m *Match) Side(key string) int {
	if m.Participant1 != nil && m.Participant1.Key() == key {
		return 1
	}
	if m.Participant2 != nil && m.Participant2.Key() == key {
		return 2
	}
	return 0
}

func (m *Match) Ready() bool {
	return m.Participant1 != nil && m.Participant2 != nil
}

// Winner returns the winning entrant of a completed match.
func (m *Match) Winner() (EntrantRef, bool) {
	switch m.Side(m.WinnerKey) {
	case 1:
		return *m.Participant1, true
	case 2:
		return *m.Participant2, true
	}
	return EntrantRef{}, false
}

// Loser returns the losing entrant of a completed, decided match.
func (m *Match) Loser() (EntrantRef, bool) {
	switch m.Side(m.WinnerKey) {
	case 1:
		if m.Participant2 != nil {
			return *m.Participant2, true
		}
	case 2:
		return *m.Participant1, true
	}
	return EntrantRef{}, false
}

// Players lists every player id appearing in either slot.
func (m *Match) Players() []string {
	var out []string
	if m.Participant1 != nil {
		out = append(out, m.Participant1.Members()...)
	}
	if m.Participant2 != nil {
		out = append(out, m.Participant2.Members()...)
	}
	return out
}

func (m *Match) HasPlayer(playerID string) bool {
	return (m.Participant1 != nil && m.Participant1.HasMember(playerID)) ||
		(m.Participant2 != nil && m.Participant2.HasMember(playerID))
}

// CheckCompletedInvariant verifies a completed match has exactly one winner
// drawn from its two participants, or is a recorded draw.
func (m *Match) CheckCompletedInvariant() error {
	if m.Status != MatchCompleted {
		return nil
	}
	if m.IsBye {
		if m.Side(m.WinnerKey) != 1 {
			return fmt.Errorf("bye match %s must be won by its only entrant", m.ID)
		}
		return nil
	}
	if m.Draw {
		if m.WinnerKey != "" {
			return fmt.Errorf("drawn match %s must not carry a winner", m.ID)
		}
		return nil
	}
	if m.Side(m.WinnerKey) == 0 {
		return fmt.Errorf("completed match %s has winner %q outside its participants", m.ID, m.WinnerKey)
	}
	return nil
}

// ScoreCorrection is the audit record of an organizer score change.
type ScoreCorrection struct {
	ID        string    `json:"id"`
	MatchID   string    `json:"match_id"`
	EventID   string    `json:"event_id"`
	OldScore  string    `json:"old_score"`
	NewScore  string    `json:"new_score"`
	OldWinner string    `json:"old_winner"`
	NewWinner string    `json:"new_winner"`
	ActorID   string    `json:"actor_id"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
