package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/services"
)

type SportHandler struct {
	rules services.SportRulesProvider
}

func NewSportHandler(rules services.SportRulesProvider) *SportHandler {
	return &SportHandler{rules: rules}
}

func (h *SportHandler) ListSports(w http.ResponseWriter, r *http.Request) {
	list, err := h.rules.All(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "sports", list)
}

func (h *SportHandler) GetSport(w http.ResponseWriter, r *http.Request) {
	name, ok := urlParam(w, r, "sportName")
	if !ok {
		return
	}
	rules, err := h.rules.Rules(r.Context(), name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "sport", rules)
}

// OverrideSport replaces the rules of the sport named in the path.
func (h *SportHandler) OverrideSport(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	name, ok := urlParam(w, r, "sportName")
	if !ok {
		return
	}
	var rules models.SportRules
	if err := readJSON(w, r, &rules); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	rules.Name = name
	if err := h.rules.Override(r.Context(), actor, rules); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "sport", rules)
}
