package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/repositories"
	"github.com/Dosada05/tournament-scheduler/scheduling"
	"github.com/Dosada05/tournament-scheduler/storage"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// PublishedExport is an uploaded schedule workbook.
type PublishedExport struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type ExportService interface {
	// Workbook renders the event schedule as xlsx and returns its file name.
	Workbook(ctx context.Context, actor models.Actor, eventID string) ([]byte, string, error)
	// Publish uploads the workbook to object storage.
	Publish(ctx context.Context, actor models.Actor, eventID string) (*PublishedExport, error)
}

type exportService struct {
	events       repositories.EventRepository
	participants repositories.ParticipantRepository
	groups       repositories.GroupRepository
	schedule     ScheduleService
	uploader     storage.FileUploader
	logger       *slog.Logger
}

// NewExportService builds the exporter; uploader may be nil when no bucket
// is configured, in which case Publish fails with ErrExportNotAvailable.
func NewExportService(
	events repositories.EventRepository,
	participants repositories.ParticipantRepository,
	groups repositories.GroupRepository,
	schedule ScheduleService,
	uploader storage.FileUploader,
	logger *slog.Logger,
) ExportService {
	return &exportService{
		events:       events,
		participants: participants,
		groups:       groups,
		schedule:     schedule,
		uploader:     uploader,
		logger:       logger,
	}
}

func (s *exportService) Workbook(ctx context.Context, actor models.Actor, eventID string) ([]byte, string, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, "", notFound(err)
	}
	if !actor.CanManage(ev) {
		return nil, "", ErrOrganizerOnly
	}
	rows, err := s.rows(ctx, ev)
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	if err := scheduling.WriteWorkbook(&buf, rows); err != nil {
		return nil, "", fmt.Errorf("exporting schedule of %s: %w", eventID, err)
	}
	return buf.Bytes(), fmt.Sprintf("program-%s.xlsx", ev.ID), nil
}

func (s *exportService) rows(ctx context.Context, ev *models.Event) ([]scheduling.Row, error) {
	matches, err := s.schedule.EventSchedule(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	groups, err := s.groups.ListByEvent(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	roster, err := s.participants.ListByEvent(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(roster))
	for _, p := range roster {
		names[p.ID] = p.Name
		if p.UserID != "" {
			names[p.UserID] = p.Name
		}
	}
	byGroup := make(map[string]*models.Group, len(groups))
	var entrants []models.EntrantRef
	for _, g := range groups {
		byGroup[g.ID] = g
		entrants = append(entrants, g.Entrants...)
	}
	prof := profiles(roster, entrants)
	side := func(e *models.EntrantRef) string {
		if e == nil {
			return "?"
		}
		if p, ok := prof[e.Key()]; ok {
			return p.name
		}
		return profiles(roster, []models.EntrantRef{*e})[e.Key()].name
	}

	rows := make([]scheduling.Row, 0, len(matches))
	for _, m := range matches {
		r := scheduling.Row{
			Start:    *m.ScheduledAt,
			Court:    *m.Court,
			Category: m.Category.Label(),
			Round:    m.RoundName,
			Side1:    side(m.Participant1),
			Side2:    side(m.Participant2),
			Referee:  names[m.RefereeID],
		}
		if r.Referee == "" {
			r.Referee = m.RefereeID
		}
		if g, ok := byGroup[m.GroupID]; ok {
			r.Group = g.Name
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func (s *exportService) Publish(ctx context.Context, actor models.Actor, eventID string) (*PublishedExport, error) {
	if s.uploader == nil {
		return nil, ErrExportNotAvailable
	}
	data, name, err := s.Workbook(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("schedules/%s/%d-%s", eventID, time.Now().UTC().Unix(), name)
	res, err := s.uploader.Upload(ctx, key, xlsxContentType, bytes.NewReader(data))
	if err != nil {
		s.logger.Error("failed to upload schedule", slog.String("event_id", eventID), slog.Any("error", err))
		return nil, err
	}
	s.logger.Info("schedule published", slog.String("event_id", eventID), slog.String("key", res.Key))
	return &PublishedExport{Key: res.Key, URL: res.Location}, nil
}
