package services

import (
	"context"
	"log/slog"

	"github.com/Dosada05/tournament-scheduler/brackets"
	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/repositories"
)

// Notifier is fire-and-forget: delivery failures are logged by the
// implementation and never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification)
}

// Broadcaster pushes live updates to websocket rooms. *brackets.Hub
// implements it.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message any)
}

type storeNotifier struct {
	repo   repositories.NotificationRepository
	logger *slog.Logger
}

// NewStoreNotifier persists notifications so clients can list them later.
func NewStoreNotifier(repo repositories.NotificationRepository, logger *slog.Logger) Notifier {
	return &storeNotifier{repo: repo, logger: logger}
}

func (n *storeNotifier) Notify(ctx context.Context, msg *models.Notification) {
	if err := n.repo.Create(ctx, msg); err != nil {
		n.logger.Error("failed to store notification",
			slog.String("recipient_id", msg.RecipientID),
			slog.String("type", string(msg.Type)),
			slog.Any("error", err))
	}
}

type hubNotifier struct {
	hub Broadcaster
}

// NewHubNotifier pushes notifications to the recipient's websocket room.
func NewHubNotifier(hub Broadcaster) Notifier {
	return &hubNotifier{hub: hub}
}

func (n *hubNotifier) Notify(ctx context.Context, msg *models.Notification) {
	n.hub.BroadcastToRoom(brackets.UserRoom(msg.RecipientID), brackets.WebSocketMessage{
		Type:    "notification",
		Payload: msg,
		RoomID:  brackets.UserRoom(msg.RecipientID),
	})
}

// MultiNotifier fans a notification out to every dispatcher in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, msg *models.Notification) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, msg)
		}
	}
}

// Match update kinds pushed to the event room.
const (
	UpdateMatchCreated   = "match_created"
	UpdateMatchUpdated   = "match_updated"
	UpdateResultProposed = "result_proposed"
	UpdateMatchCompleted = "match_completed"
	UpdateBracketAdvance = "bracket_advanced"
	UpdateScheduleSaved  = "schedule_saved"
	UpdateStandings      = "standings_updated"
)

func publish(hub Broadcaster, eventID, kind string, payload any) {
	if hub == nil || eventID == "" {
		return
	}
	room := brackets.EventRoom(eventID)
	hub.BroadcastToRoom(room, brackets.WebSocketMessage{Type: kind, Payload: payload, RoomID: room})
}

func notifyAll(ctx context.Context, n Notifier, recipients []string, build func(recipient string) *models.Notification) {
	if n == nil {
		return
	}
	seen := make(map[string]struct{}, len(recipients))
	for _, r := range recipients {
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		n.Notify(ctx, build(r))
	}
}

// accountIDs maps player ids to account ids; players without an account are
// addressed by their participant id.
func accountIDs(roster []*models.Participant, playerIDs []string) []string {
	byID := make(map[string]*models.Participant, len(roster))
	for _, p := range roster {
		byID[p.ID] = p
	}
	out := make([]string, 0, len(playerIDs))
	for _, id := range playerIDs {
		if p, ok := byID[id]; ok && p.UserID != "" {
			out = append(out, p.UserID)
			continue
		}
		out = append(out, id)
	}
	return out
}
