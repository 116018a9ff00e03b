package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-scheduler/services"
)

// StandingsHandler serves group tables and Swiss rounds.
type StandingsHandler struct {
	standings services.StandingsService
	swiss     services.SwissService
}

func NewStandingsHandler(standings services.StandingsService, swiss services.SwissService) *StandingsHandler {
	return &StandingsHandler{standings: standings, swiss: swiss}
}

func (h *StandingsHandler) GroupStandings(w http.ResponseWriter, r *http.Request) {
	groupID, ok := urlParam(w, r, "groupID")
	if !ok {
		return
	}
	rows, err := h.standings.GroupStandings(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "standings", rows)
}

// Rebuild recomputes a group table from its completed matches. Only admins
// reach it through the router.
func (h *StandingsHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	groupID, ok := urlParam(w, r, "groupID")
	if !ok {
		return
	}
	rows, err := h.standings.Rebuild(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "standings", rows)
}

func (h *StandingsHandler) PairNextRound(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	groupID, ok := urlParam(w, r, "groupID")
	if !ok {
		return
	}
	res, err := h.swiss.PairNextRound(r.Context(), actor, groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, "round", res)
}

func (h *StandingsHandler) SwissRanking(w http.ResponseWriter, r *http.Request) {
	groupID, ok := urlParam(w, r, "groupID")
	if !ok {
		return
	}
	rows, err := h.swiss.Ranking(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "ranking", rows)
}
