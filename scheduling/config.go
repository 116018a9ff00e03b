// Package scheduling assigns courts and start times to matches.
package scheduling

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-scheduler/models"
)

var (
	ErrInvalidConfig = errors.New("invalid schedule configuration")
	ErrInvalidClock  = errors.New("invalid clock time")
)

// Clock is a time of day in minutes since midnight.
type Clock int

// ParseClock reads "HH:MM".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On returns the instant of c on the calendar day of d.
func (c Clock) On(d time.Time) time.Time {
	y, m, day := d.Date()
	return time.Date(y, m, day, int(c)/60, int(c)%60, 0, 0, d.Location())
}

// Config is the venue and policy input of one scheduling run.
type Config struct {
	Courts        int
	MatchDuration time.Duration
	BreakDuration time.Duration
	MinRest       time.Duration

	DayStart Clock
	DayEnd   Clock
	// Optional daily break window; both nil when unused.
	BreakStart *Clock
	BreakEnd   *Clock

	// StartDate and EndDate bound the calendar days; EndDate is inclusive.
	StartDate time.Time
	EndDate   time.Time

	GroupCourtAffinity bool
	BalanceCourts      bool
	InGroupRefereeing  bool

	EventTypeOrder []models.GameType
	AgeGroupOrder  []models.AgeBracket
	GenderOrder    []models.Gender
}

// Validate checks the configuration before a run.
func (c Config) Validate() error {
	switch {
	case c.Courts <= 0:
		return fmt.Errorf("%w: at least one court is required", ErrInvalidConfig)
	case c.MatchDuration <= 0:
		return fmt.Errorf("%w: match duration must be positive", ErrInvalidConfig)
	case c.BreakDuration < 0 || c.MinRest < 0:
		return fmt.Errorf("%w: break and rest cannot be negative", ErrInvalidConfig)
	case c.DayEnd <= c.DayStart:
		return fmt.Errorf("%w: day ends at %s before it starts at %s", ErrInvalidConfig, c.DayEnd, c.DayStart)
	case c.StartDate.IsZero():
		return fmt.Errorf("%w: start date is required", ErrInvalidConfig)
	case !c.EndDate.IsZero() && c.EndDate.Before(c.StartDate):
		return fmt.Errorf("%w: end date before start date", ErrInvalidConfig)
	}
	if (c.BreakStart == nil) != (c.BreakEnd == nil) {
		return fmt.Errorf("%w: break window needs both ends", ErrInvalidConfig)
	}
	if c.BreakStart != nil && *c.BreakEnd <= *c.BreakStart {
		return fmt.Errorf("%w: break window ends before it starts", ErrInvalidConfig)
	}
	return nil
}

// ConfigFromEvent builds a Config from the event's schedule settings.
func ConfigFromEvent(ev *models.Event) (Config, error) {
	sc := ev.Schedule
	cfg := Config{
		Courts:             sc.Courts,
		MatchDuration:      time.Duration(sc.MatchMinutes) * time.Minute,
		BreakDuration:      time.Duration(sc.BreakMinutes) * time.Minute,
		MinRest:            time.Duration(sc.MinRestMinutes) * time.Minute,
		StartDate:          ev.StartDate,
		EndDate:            ev.EndDate,
		GroupCourtAffinity: sc.GroupCourtAffinity,
		BalanceCourts:      sc.BalanceCourts,
		InGroupRefereeing:  sc.InGroupRefereeing,
		EventTypeOrder:     sc.EventTypeOrder,
		AgeGroupOrder:      sc.AgeGroupOrder,
		GenderOrder:        sc.GenderOrder,
	}

	var err error
	if cfg.DayStart, err = ParseClock(defaultString(sc.DayStart, "09:00")); err != nil {
		return Config{}, err
	}
	if cfg.DayEnd, err = ParseClock(defaultString(sc.DayEnd, "18:00")); err != nil {
		return Config{}, err
	}
	if sc.BreakStart != "" || sc.BreakEnd != "" {
		bs, err := ParseClock(sc.BreakStart)
		if err != nil {
			return Config{}, err
		}
		be, err := ParseClock(sc.BreakEnd)
		if err != nil {
			return Config{}, err
		}
		cfg.BreakStart, cfg.BreakEnd = &bs, &be
	}
	return cfg, cfg.Validate()
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
