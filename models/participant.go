package models

import "time"

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	// GenderMixed only appears on categories, never on a participant.
	GenderMixed Gender = "mixed"
)

type GameType string

const (
	GameSingles GameType = "singles"
	GameDoubles GameType = "doubles"
	GameMixed   GameType = "mixed"
)

// Participant is a registered player of one event.
type Participant struct {
	ID        string     `json:"id"`
	EventID   string     `json:"event_id"`
	UserID    string     `json:"user_id,omitempty"`
	Name      string     `json:"name"`
	Gender    Gender     `json:"gender"`
	BirthYear *int       `json:"birth_year,omitempty"`
	GameTypes []GameType `json:"game_types"`

	DoublesPartnerID string `json:"doubles_partner_id,omitempty"`
	MixedPartnerID   string `json:"mixed_partner_id,omitempty"`

	// Seed is a manual override; nil means the seed is derived from history.
	Seed         *int    `json:"seed,omitempty"`
	RatingPoints float64 `json:"rating_points"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *Participant) Plays(gt GameType) bool {
	for _, g := range p.GameTypes {
		if g == gt {
			return true
		}
	}
	return false
}

// PartnerFor returns the declared partner for a pair game type.
func (p *Participant) PartnerFor(gt GameType) string {
	switch gt {
	case GameDoubles:
		return p.DoublesPartnerID
	case GameMixed:
		return p.MixedPartnerID
	}
	return ""
}

// RosterEntry is the identity/roster view of one player: enough to seed,
// partition and display without touching the participant document.
type RosterEntry struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Gender       Gender  `json:"gender"`
	BirthYear    *int    `json:"birth_year,omitempty"`
	RatingPoints float64 `json:"rating_points"`
}

// PairEntry is a resolved doubles team.
type PairEntry struct {
	Ref        EntrantRef `json:"ref"`
	Name       string     `json:"name"`
	AgeBracket AgeBracket `json:"age_bracket"`
}
