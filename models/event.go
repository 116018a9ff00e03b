package models

import "time"

// Event is a tournament occasion: one venue, one sport, many categories.
type Event struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Sport       string   `json:"sport"`
	OrganizerID string   `json:"organizer_id"`
	ManagerIDs  []string `json:"manager_ids,omitempty"`

	// Open events skip partitioning: everyone lands in one category.
	Open      bool         `json:"open"`
	Genders   []Gender     `json:"genders,omitempty"`
	AgeGroups []AgeBracket `json:"age_groups,omitempty"`
	GameTypes []GameType   `json:"game_types,omitempty"`
	System    MatchSystem  `json:"system"`
	// ReferenceYear is used to derive ages; zero means the start date's year.
	ReferenceYear int `json:"reference_year,omitempty"`

	// Exclusions are seed-rank pairs that must never meet in a generated fixture.
	Exclusions [][2]int `json:"exclusions,omitempty"`

	Schedule      ScheduleConfig `json:"schedule"`
	CustomScoring *CustomScoring `json:"custom_scoring,omitempty"`

	// Referees is the pool drawn from by automatic referee assignment.
	Referees []string `json:"referees,omitempty"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// IsManager reports organizer-level rights over the event.
func (e *Event) IsManager(userID string) bool {
	if userID == "" {
		return false
	}
	if e.OrganizerID == userID {
		return true
	}
	for _, id := range e.ManagerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (e *Event) ReferenceYearOrDefault() int {
	if e.ReferenceYear > 0 {
		return e.ReferenceYear
	}
	if !e.StartDate.IsZero() {
		return e.StartDate.Year()
	}
	return time.Now().Year()
}

// HasFilters reports whether any partitioning dimension was declared.
func (e *Event) HasFilters() bool {
	return len(e.Genders) > 0 || len(e.AgeGroups) > 0 || len(e.GameTypes) > 0
}

// ScheduleConfig is the venue and priority configuration of an event.
type ScheduleConfig struct {
	Courts         int    `json:"courts"`
	MatchMinutes   int    `json:"match_minutes"`
	BreakMinutes   int    `json:"break_minutes"`
	DayStart       string `json:"day_start"`
	DayEnd         string `json:"day_end"`
	BreakStart     string `json:"break_start,omitempty"`
	BreakEnd       string `json:"break_end,omitempty"`
	MinRestMinutes int    `json:"min_rest_minutes"`

	GroupCourtAffinity bool `json:"group_court_affinity"`
	BalanceCourts      bool `json:"balance_courts"`
	InGroupRefereeing  bool `json:"in_group_refereeing"`

	EventTypeOrder []GameType   `json:"event_type_order,omitempty"`
	AgeGroupOrder  []AgeBracket `json:"age_group_order,omitempty"`
	GenderOrder    []Gender     `json:"gender_order,omitempty"`
}

// CustomScoring toggles the point modules that replace plain win/loss points.
type CustomScoring struct {
	Enabled bool `json:"enabled"`

	MatchResult      MatchResultPoints      `json:"match_result"`
	ScoreDifference  ScoreDifferencePoints  `json:"score_difference"`
	SetDifference    SetDifferencePoints    `json:"set_difference"`
	OpponentStrength OpponentStrengthPoints `json:"opponent_strength"`
	FairPlay         FairPlayPoints         `json:"fair_play"`
	Participation    ParticipationPoints    `json:"participation"`
}

type MatchResultPoints struct {
	Enabled     bool    `json:"enabled"`
	Win         float64 `json:"win"`
	Loss        float64 `json:"loss"`
	Draw        float64 `json:"draw"`
	ForfeitWin  float64 `json:"forfeit_win"`
	ForfeitLoss float64 `json:"forfeit_loss"`
}

type ScoreDifferencePoints struct {
	Enabled bool `json:"enabled"`
	// A loss by at most CloseThreshold earns the loser CloseBonus.
	CloseThreshold int     `json:"close_threshold"`
	CloseBonus     float64 `json:"close_bonus"`
	// A win by at least DominantThreshold earns the winner DominantBonus.
	DominantThreshold int     `json:"dominant_threshold"`
	DominantBonus     float64 `json:"dominant_bonus"`
}

type SetDifferencePoints struct {
	Enabled      bool    `json:"enabled"`
	PointsPerSet float64 `json:"points_per_set"`
}

type OpponentStrengthPoints struct {
	Enabled        bool    `json:"enabled"`
	BeatHigher     float64 `json:"beat_higher"`
	BeatMuchHigher float64 `json:"beat_much_higher"`
	MuchHigherGap  int     `json:"much_higher_gap"`
	LoseToLower    float64 `json:"lose_to_lower"`
}

type FairPlayPoints struct {
	Enabled         bool    `json:"enabled"`
	NoWarnings      float64 `json:"no_warnings"`
	Warning         float64 `json:"warning"`
	YellowCard      float64 `json:"yellow_card"`
	RedCard         float64 `json:"red_card"`
	Unsportsmanlike float64 `json:"unsportsmanlike"`
}

type ParticipationPoints struct {
	Enabled     bool    `json:"enabled"`
	Attendance  float64 `json:"attendance"`
	StreakBonus float64 `json:"streak_bonus"`
	StreakAfter int     `json:"streak_after"`
	NoShow      float64 `json:"no_show"`
}

// DefaultCustomScoring mirrors the values organizers start from.
func DefaultCustomScoring() CustomScoring {
	return CustomScoring{
		MatchResult:      MatchResultPoints{Enabled: true, Win: 2, Loss: 0, Draw: 1, ForfeitWin: 2, ForfeitLoss: -2},
		ScoreDifference:  ScoreDifferencePoints{CloseThreshold: 2, CloseBonus: 10, DominantThreshold: 5, DominantBonus: 5},
		SetDifference:    SetDifferencePoints{PointsPerSet: 1},
		OpponentStrength: OpponentStrengthPoints{BeatHigher: 15, BeatMuchHigher: 25, MuchHigherGap: 5, LoseToLower: -5},
		FairPlay:         FairPlayPoints{NoWarnings: 5, Warning: -2, YellowCard: -5, RedCard: -15, Unsportsmanlike: -20},
		Participation:    ParticipationPoints{Attendance: 5, StreakBonus: 10, StreakAfter: 3, NoShow: -10},
	}
}
