package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/tournament-scheduler/brackets"
	"github.com/Dosada05/tournament-scheduler/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer in front of the router.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub    *brackets.Hub
	events services.EventService
	logger *slog.Logger
}

func NewWebSocketHandler(hub *brackets.Hub, events services.EventService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, events: events, logger: logger}
}

// ServeEvent subscribes to live match updates of an event.
// Clients connect to /ws/events/{eventID}.
func (h *WebSocketHandler) ServeEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := urlParam(w, r, "eventID")
	if !ok {
		return
	}
	if _, err := h.events.GetEvent(r.Context(), eventID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.serve(w, r, brackets.EventRoom(eventID))
}

// ServeInbox pushes the caller's notifications as they are dispatched.
func (h *WebSocketHandler) ServeInbox(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	h.serve(w, r, brackets.UserRoom(actor.UserID))
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, room string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		h.logger.Warn("websocket upgrade failed", slog.String("room", room), slog.Any("error", err))
		return
	}

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: room,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	h.logger.Debug("websocket client connected", slog.String("room", room))
}
