package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/services"
)

type EventHandler struct {
	events services.EventService
}

func NewEventHandler(events services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var ev models.Event
	if err := readJSON(w, r, &ev); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.events.CreateEvent(r.Context(), actor, &ev); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, "event", ev)
}

func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := h.events.ListEvents(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "events", list)
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := urlParam(w, r, "eventID")
	if !ok {
		return
	}
	ev, err := h.events.GetEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "event", ev)
}

func (h *EventHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	eventID, ok := urlParam(w, r, "eventID")
	if !ok {
		return
	}
	var cfg models.ScheduleConfig
	if err := readJSON(w, r, &cfg); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	ev, err := h.events.UpdateSchedule(r.Context(), actor, eventID, cfg)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "event", ev)
}

func (h *EventHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	eventID, ok := urlParam(w, r, "eventID")
	if !ok {
		return
	}
	var in services.ParticipantInput
	if err := readJSON(w, r, &in); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	p, err := h.events.Register(r.Context(), actor, eventID, in)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, "participant", p)
}

func (h *EventHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	eventID, ok := urlParam(w, r, "eventID")
	if !ok {
		return
	}
	list, err := h.events.Participants(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "participants", list)
}
