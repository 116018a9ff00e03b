package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-scheduler/services"
)

type MatchHandler struct {
	matches services.MatchService
}

func NewMatchHandler(matches services.MatchService) *MatchHandler {
	return &MatchHandler{matches: matches}
}

type rejectResultRequest struct {
	Reason string `json:"reason"`
}

type assignRefereeRequest struct {
	RefereeID string `json:"referee_id"`
}

type autoAssignRequest struct {
	RefereeIDs []string `json:"referee_ids"`
}

func (h *MatchHandler) ListByEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := urlParam(w, r, "eventID")
	if !ok {
		return
	}
	list, err := h.matches.ListByEvent(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "matches", list)
}

func (h *MatchHandler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := urlParam(w, r, "groupID")
	if !ok {
		return
	}
	list, err := h.matches.ListByGroup(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "matches", list)
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := urlParam(w, r, "matchID")
	if !ok {
		return
	}
	m, err := h.matches.GetByID(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "match", m)
}

func (h *MatchHandler) Start(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	matchID, ok := urlParam(w, r, "matchID")
	if !ok {
		return
	}
	m, err := h.matches.Start(r.Context(), actor, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "match", m)
}

func (h *MatchHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	matchID, ok := urlParam(w, r, "matchID")
	if !ok {
		return
	}
	var in services.ResultInput
	if err := readJSON(w, r, &in); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	m, err := h.matches.SubmitResult(r.Context(), actor, matchID, in)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "match", m)
}

func (h *MatchHandler) ConfirmResult(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	matchID, ok := urlParam(w, r, "matchID")
	if !ok {
		return
	}
	m, err := h.matches.ConfirmResult(r.Context(), actor, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "match", m)
}

func (h *MatchHandler) RejectResult(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	matchID, ok := urlParam(w, r, "matchID")
	if !ok {
		return
	}
	var in rejectResultRequest
	if err := readOptionalJSON(w, r, &in); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	m, err := h.matches.RejectResult(r.Context(), actor, matchID, in.Reason)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "match", m)
}

func (h *MatchHandler) CorrectScore(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	matchID, ok := urlParam(w, r, "matchID")
	if !ok {
		return
	}
	var in services.ResultInput
	if err := readJSON(w, r, &in); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	m, err := h.matches.CorrectScore(r.Context(), actor, matchID, in)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "match", m)
}

func (h *MatchHandler) Corrections(w http.ResponseWriter, r *http.Request) {
	matchID, ok := urlParam(w, r, "matchID")
	if !ok {
		return
	}
	list, err := h.matches.Corrections(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "corrections", list)
}

func (h *MatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	matchID, ok := urlParam(w, r, "matchID")
	if !ok {
		return
	}
	m, err := h.matches.Cancel(r.Context(), actor, matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "match", m)
}

func (h *MatchHandler) AssignReferee(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	matchID, ok := urlParam(w, r, "matchID")
	if !ok {
		return
	}
	var in assignRefereeRequest
	if err := readJSON(w, r, &in); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	m, err := h.matches.AssignReferee(r.Context(), actor, matchID, in.RefereeID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "match", m)
}

// AutoAssignReferees fills every scheduled match without a referee. The body
// is optional; without it the event's referee pool is used.
func (h *MatchHandler) AutoAssignReferees(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	eventID, ok := urlParam(w, r, "eventID")
	if !ok {
		return
	}
	var in autoAssignRequest
	if err := readOptionalJSON(w, r, &in); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	res, err := h.matches.AutoAssignReferees(r.Context(), actor, eventID, in.RefereeIDs)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "referees", res)
}
