package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/tournament-scheduler/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ScheduleHandler struct {
	schedule services.ScheduleService
	export   services.ExportService
}

func NewScheduleHandler(schedule services.ScheduleService, export services.ExportService) *ScheduleHandler {
	return &ScheduleHandler{schedule: schedule, export: export}
}

func (h *ScheduleHandler) ScheduleEvent(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	eventID, ok := urlParam(w, r, "eventID")
	if !ok {
		return
	}
	var opts services.ScheduleOptions
	if err := readOptionalJSON(w, r, &opts); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	res, err := h.schedule.ScheduleEvent(r.Context(), actor, eventID, opts)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "schedule", res)
}

func (h *ScheduleHandler) EventSchedule(w http.ResponseWriter, r *http.Request) {
	eventID, ok := urlParam(w, r, "eventID")
	if !ok {
		return
	}
	list, err := h.schedule.EventSchedule(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, "matches", list)
}

// DownloadWorkbook streams the schedule as an xlsx attachment.
func (h *ScheduleHandler) DownloadWorkbook(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	eventID, ok := urlParam(w, r, "eventID")
	if !ok {
		return
	}
	data, name, err := h.export.Workbook(r.Context(), actor, eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *ScheduleHandler) PublishWorkbook(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	eventID, ok := urlParam(w, r, "eventID")
	if !ok {
		return
	}
	res, err := h.export.Publish(r.Context(), actor, eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, "export", res)
}
