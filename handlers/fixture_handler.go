package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-scheduler/models"
	"github.com/Dosada05/tournament-scheduler/services"
)

type FixtureHandler struct {
	fixtures services.FixtureService
}

func NewFixtureHandler(fixtures services.FixtureService) *FixtureHandler {
	return &FixtureHandler{fixtures: fixtures}
}

type mergeGroupsRequest struct {
	GroupIDs []string `json:"group_ids"`
	Name     string   `json:"name"`
}

type moveEntrantRequest struct {
	ToGroupID string `json:"to_group_id"`
}

type splitGroupRequest struct {
	Parts int `json:"parts"`
}

type byesRequest struct {
	EntrantKeys []string `json:"entrant_keys"`
}

func (h *FixtureHandler) Partition(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	eventID, ok := urlParam(w, r, "eventID")
	if !ok {
		return
	}
	res, err := h.fixtures.Partition(r.Context(), actor, eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "partition", res)
}

func (h *FixtureHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	eventID, ok := urlParam(w, r, "eventID")
	if !ok {
		return
	}
	groups, err := h.fixtures.ListGroups(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "groups", groups)
}

func (h *FixtureHandler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	eventID, ok := urlParam(w, r, "eventID")
	if !ok {
		return
	}
	var in services.GroupInput
	if err := readJSON(w, r, &in); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	g, err := h.fixtures.CreateGroup(r.Context(), actor, eventID, in)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, "group", g)
}

func (h *FixtureHandler) MergeGroups(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	var in mergeGroupsRequest
	if err := readJSON(w, r, &in); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	g, err := h.fixtures.MergeGroups(r.Context(), actor, in.GroupIDs, in.Name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "group", g)
}

func (h *FixtureHandler) BuildElimination(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	eventID, ok := urlParam(w, r, "eventID")
	if !ok {
		return
	}
	var in services.EliminationInput
	if err := readJSON(w, r, &in); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	res, err := h.fixtures.BuildEliminationFromGroups(r.Context(), actor, eventID, in)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, "fixture", res)
}

func (h *FixtureHandler) GetGroup(w http.ResponseWriter, r *http.Request) {
	groupID, ok := urlParam(w, r, "groupID")
	if !ok {
		return
	}
	g, err := h.fixtures.GetGroup(r.Context(), groupID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "group", g)
}

func (h *FixtureHandler) AddEntrant(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	groupID, ok := urlParam(w, r, "groupID")
	if !ok {
		return
	}
	var e models.EntrantRef
	if err := readJSON(w, r, &e); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	g, err := h.fixtures.AddEntrant(r.Context(), actor, groupID, e)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "group", g)
}

func (h *FixtureHandler) RemoveEntrant(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	groupID, ok := urlParam(w, r, "groupID")
	if !ok {
		return
	}
	key, ok := urlParam(w, r, "entrantKey")
	if !ok {
		return
	}
	g, err := h.fixtures.RemoveEntrant(r.Context(), actor, groupID, key)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "group", g)
}

func (h *FixtureHandler) MoveEntrant(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	groupID, ok := urlParam(w, r, "groupID")
	if !ok {
		return
	}
	key, ok := urlParam(w, r, "entrantKey")
	if !ok {
		return
	}
	var in moveEntrantRequest
	if err := readJSON(w, r, &in); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.fixtures.MoveEntrant(r.Context(), actor, groupID, in.ToGroupID, key); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FixtureHandler) SplitGroup(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	groupID, ok := urlParam(w, r, "groupID")
	if !ok {
		return
	}
	var in splitGroupRequest
	if err := readJSON(w, r, &in); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	groups, err := h.fixtures.SplitGroup(r.Context(), actor, groupID, in.Parts)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "groups", groups)
}

func (h *FixtureHandler) SetByes(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	groupID, ok := urlParam(w, r, "groupID")
	if !ok {
		return
	}
	var in byesRequest
	if err := readJSON(w, r, &in); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	g, err := h.fixtures.SetByes(r.Context(), actor, groupID, in.EntrantKeys)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "group", g)
}

// GenerateFixture accepts an empty body for the default options.
func (h *FixtureHandler) GenerateFixture(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	groupID, ok := urlParam(w, r, "groupID")
	if !ok {
		return
	}
	var opts services.GenerateOptions
	if err := readOptionalJSON(w, r, &opts); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	res, err := h.fixtures.GenerateFixture(r.Context(), actor, groupID, opts)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, "fixture", res)
}
