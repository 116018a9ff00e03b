package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Dosada05/tournament-scheduler/models"
)

// rosterFile is the YAML document fixturectl works from.
type rosterFile struct {
	Event        eventSpec         `yaml:"event"`
	Participants []participantSpec `yaml:"participants"`
}

type eventSpec struct {
	Name       string              `yaml:"name"`
	Sport      string              `yaml:"sport"`
	System     models.MatchSystem  `yaml:"system"`
	Open       bool                `yaml:"open"`
	Genders    []models.Gender     `yaml:"genders"`
	AgeGroups  []models.AgeBracket `yaml:"age_groups"`
	GameTypes  []models.GameType   `yaml:"game_types"`
	StartDate  string              `yaml:"start_date"`
	EndDate    string              `yaml:"end_date"`
	Exclusions [][2]int            `yaml:"exclusions"`
	Schedule   scheduleSpec        `yaml:"schedule"`
}

type scheduleSpec struct {
	Courts             int    `yaml:"courts"`
	MatchMinutes       int    `yaml:"match_minutes"`
	BreakMinutes       int    `yaml:"break_minutes"`
	DayStart           string `yaml:"day_start"`
	DayEnd             string `yaml:"day_end"`
	BreakStart         string `yaml:"break_start"`
	BreakEnd           string `yaml:"break_end"`
	MinRestMinutes     int    `yaml:"min_rest_minutes"`
	GroupCourtAffinity bool   `yaml:"group_court_affinity"`
	BalanceCourts      bool   `yaml:"balance_courts"`
	InGroupRefereeing  bool   `yaml:"in_group_refereeing"`
}

type participantSpec struct {
	ID             string            `yaml:"id"`
	Name           string            `yaml:"name"`
	Gender         models.Gender     `yaml:"gender"`
	BirthYear      *int              `yaml:"birth_year"`
	GameTypes      []models.GameType `yaml:"game_types"`
	DoublesPartner string            `yaml:"doubles_partner"`
	MixedPartner   string            `yaml:"mixed_partner"`
	Seed           *int              `yaml:"seed"`
	RatingPoints   float64           `yaml:"rating_points"`
	Wins           int               `yaml:"wins"`
	Losses         int               `yaml:"losses"`
}

const dateLayout = "2006-01-02"

func loadRoster(path string) (*rosterFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading roster: %w", err)
	}
	var rf rosterFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing roster %s: %w", path, err)
	}
	if len(rf.Participants) == 0 {
		return nil, fmt.Errorf("roster %s lists no participants", path)
	}
	seen := make(map[string]bool, len(rf.Participants))
	for i, p := range rf.Participants {
		if p.ID == "" {
			return nil, fmt.Errorf("participant %d has no id", i+1)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("participant id %q is listed twice", p.ID)
		}
		seen[p.ID] = true
	}
	return &rf, nil
}

func (s eventSpec) toEvent() (*models.Event, error) {
	start, err := parseDate(s.StartDate)
	if err != nil {
		return nil, fmt.Errorf("event start_date: %w", err)
	}
	end, err := parseDate(s.EndDate)
	if err != nil {
		return nil, fmt.Errorf("event end_date: %w", err)
	}
	system := s.System
	if system == "" {
		system = models.SystemRoundRobin
	}
	return &models.Event{
		Name:       s.Name,
		Sport:      s.Sport,
		System:     system,
		Open:       s.Open,
		Genders:    s.Genders,
		AgeGroups:  s.AgeGroups,
		GameTypes:  s.GameTypes,
		Exclusions: s.Exclusions,
		StartDate:  start,
		EndDate:    end,
		Schedule: models.ScheduleConfig{
			Courts:             s.Schedule.Courts,
			MatchMinutes:       s.Schedule.MatchMinutes,
			BreakMinutes:       s.Schedule.BreakMinutes,
			DayStart:           s.Schedule.DayStart,
			DayEnd:             s.Schedule.DayEnd,
			BreakStart:         s.Schedule.BreakStart,
			BreakEnd:           s.Schedule.BreakEnd,
			MinRestMinutes:     s.Schedule.MinRestMinutes,
			GroupCourtAffinity: s.Schedule.GroupCourtAffinity,
			BalanceCourts:      s.Schedule.BalanceCourts,
			InGroupRefereeing:  s.Schedule.InGroupRefereeing,
		},
	}, nil
}

func (p participantSpec) toParticipant(eventID string) *models.Participant {
	gameTypes := p.GameTypes
	if len(gameTypes) == 0 {
		gameTypes = []models.GameType{models.GameSingles}
	}
	return &models.Participant{
		ID:               p.ID,
		EventID:          eventID,
		Name:             p.Name,
		Gender:           p.Gender,
		BirthYear:        p.BirthYear,
		GameTypes:        gameTypes,
		DoublesPartnerID: p.DoublesPartner,
		MixedPartnerID:   p.MixedPartner,
		Seed:             p.Seed,
		RatingPoints:     p.RatingPoints,
		Wins:             p.Wins,
		Losses:           p.Losses,
	}
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}
