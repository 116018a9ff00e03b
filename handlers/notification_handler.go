package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-scheduler/services"
)

type NotificationHandler struct {
	notifications services.NotificationService
}

func NewNotificationHandler(notifications services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Inbox lists the caller's notifications; ?unread=true hides read ones.
func (h *NotificationHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	unread := r.URL.Query().Get("unread") == "true"
	list, err := h.notifications.Inbox(r.Context(), actor, unread)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "notifications", list)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	id, ok := urlParam(w, r, "notificationID")
	if !ok {
		return
	}
	if err := h.notifications.MarkRead(r.Context(), actor, id); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
