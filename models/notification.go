package models

import "time"

type NotificationType string

const (
	NotifyResultProposed  NotificationType = "result_proposed"
	NotifyResultRejected  NotificationType = "result_rejected"
	NotifyResultConfirmed NotificationType = "result_confirmed"
	NotifyScoreCorrected  NotificationType = "score_corrected"
	NotifyMatchScheduled  NotificationType = "match_scheduled"
	NotifyRefereeAssigned NotificationType = "referee_assigned"
	NotifyReminder24h     NotificationType = "event_reminder_24h"
	NotifyReminder1h      NotificationType = "event_reminder_1h"
)

// Notification is a dispatched message. DedupeKey makes periodic producers
// idempotent: a second insert with the same key is skipped by lookup.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Body        string           `json:"body"`
	Payload     map[string]any   `json:"payload,omitempty"`
	DedupeKey   string           `json:"dedupe_key,omitempty"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}
