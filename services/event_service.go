package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/repositories"
	"github.com/Dosada05/tournament-scheduler/scheduling"
)

var (
	ErrEventNameRequired = fmt.Errorf("%w: event name is required", ErrValidation)
	ErrInvalidSystem     = fmt.Errorf("%w: unknown match system", ErrValidation)
	ErrInvalidGender     = fmt.Errorf("%w: participant gender must be male or female", ErrValidation)
	ErrInvalidGameType   = fmt.Errorf("%w: unknown game type", ErrValidation)
	ErrAlreadyRegistered = fmt.Errorf("%w: user already registered for this event", ErrConflict)
)

// ParticipantInput registers one player. Organizers may register anyone;
// other users only themselves.
type ParticipantInput struct {
	Name             string            `json:"name"`
	UserID           string            `json:"user_id,omitempty"`
	Gender           models.Gender     `json:"gender"`
	BirthYear        *int              `json:"birth_year,omitempty"`
	GameTypes        []models.GameType `json:"game_types"`
	DoublesPartnerID string            `json:"doubles_partner_id,omitempty"`
	MixedPartnerID   string            `json:"mixed_partner_id,omitempty"`
	Seed             *int              `json:"seed,omitempty"`
	RatingPoints     float64           `json:"rating_points"`
}

type EventService interface {
	CreateEvent(ctx context.Context, actor models.Actor, ev *models.Event) error
	GetEvent(ctx context.Context, id string) (*models.Event, error)
	ListEvents(ctx context.Context) ([]*models.Event, error)
	UpdateSchedule(ctx context.Context, actor models.Actor, eventID string, cfg models.ScheduleConfig) (*models.Event, error)

	Register(ctx context.Context, actor models.Actor, eventID string, in ParticipantInput) (*models.Participant, error)
	Participants(ctx context.Context, eventID string) ([]*models.Participant, error)
}

type eventService struct {
	events       repositories.EventRepository
	participants repositories.ParticipantRepository
	logger       *slog.Logger
}

func NewEventService(events repositories.EventRepository, participants repositories.ParticipantRepository, logger *slog.Logger) EventService {
	return &eventService{events: events, participants: participants, logger: logger}
}

func (s *eventService) CreateEvent(ctx context.Context, actor models.Actor, ev *models.Event) error {
	if actor.Role != models.RoleOrganizer && !actor.IsAdmin() {
		return ErrOrganizerOnly
	}
	ev.Name = strings.TrimSpace(ev.Name)
	if ev.Name == "" {
		return ErrEventNameRequired
	}
	if !ev.System.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSystem, ev.System)
	}
	if err := validateSchedule(ev); err != nil {
		return err
	}
	if ev.OrganizerID == "" {
		ev.OrganizerID = actor.UserID
	}
	ev.ID = ""
	ev.Version = 0

	if err := s.events.Create(ctx, ev); err != nil {
		return err
	}
	s.logger.Info("event created", slog.String("event_id", ev.ID), slog.String("system", string(ev.System)))
	return nil
}

// validateSchedule accepts an empty config: events may be created before the
// venue is known.
func validateSchedule(ev *models.Event) error {
	if ev.Schedule.Courts == 0 && ev.Schedule.DayStart == "" {
		return nil
	}
	if _, err := scheduling.ConfigFromEvent(ev); err != nil {
		return validationf(err, "schedule")
	}
	return nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*models.Event, error) {
	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return ev, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]*models.Event, error) {
	return s.events.List(ctx)
}

func (s *eventService) UpdateSchedule(ctx context.Context, actor models.Actor, eventID string, cfg models.ScheduleConfig) (*models.Event, error) {
	ev, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(ev) {
		return nil, ErrOrganizerOnly
	}
	prev := ev.Schedule
	ev.Schedule = cfg
	if err := validateSchedule(ev); err != nil {
		ev.Schedule = prev
		return nil, err
	}
	if err := s.events.Update(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *eventService) Register(ctx context.Context, actor models.Actor, eventID string, in ParticipantInput) (*models.Participant, error) {
	ev, err := s.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	manager := actor.CanManage(ev)
	if !manager {
		if in.UserID != "" && in.UserID != actor.UserID {
			return nil, ErrOrganizerOnly
		}
		in.UserID = actor.UserID
		in.Seed = nil
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: participant name is required", ErrValidation)
	}
	if in.Gender != models.GenderMale && in.Gender != models.GenderFemale {
		return nil, ErrInvalidGender
	}
	if len(in.GameTypes) == 0 {
		in.GameTypes = []models.GameType{models.GameSingles}
	}
	for _, gt := range in.GameTypes {
		switch gt {
		case models.GameSingles, models.GameDoubles, models.GameMixed:
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidGameType, gt)
		}
	}

	roster, err := s.participants.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if in.UserID != "" {
		for _, p := range roster {
			if p.UserID == in.UserID {
				return nil, ErrAlreadyRegistered
			}
		}
	}

	p := &models.Participant{
		EventID:          eventID,
		UserID:           in.UserID,
		Name:             strings.TrimSpace(in.Name),
		Gender:           in.Gender,
		BirthYear:        in.BirthYear,
		GameTypes:        in.GameTypes,
		DoublesPartnerID: in.DoublesPartnerID,
		MixedPartnerID:   in.MixedPartnerID,
		Seed:             in.Seed,
		RatingPoints:     in.RatingPoints,
	}
	if err := s.participants.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("participant registered", slog.String("event_id", eventID), slog.String("participant_id", p.ID))
	return p, nil
}

func (s *eventService) Participants(ctx context.Context, eventID string) ([]*models.Participant, error) {
	if _, err := s.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.participants.ListByEvent(ctx, eventID)
}
