package rest

import (
	"errors"
	"net/http"

	"knallbonbon/internal/domain"
	"knallbonbon/internal/domain/entities"
)

func (h *Handler) createEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeBadRequest(w, r, err)
		return
	}
	event := req.toEntity()
	if err := h.events.CreateEvent(r.Context(), event); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventResponse(event))
}

func (h *Handler) setCapacity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domain.ErrEventNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req capacityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeBadRequest(w, r, err)
		return
	}
	if req.Capacity == nil {
		h.writeBadRequest(w, r, errors.New("capacity is required"))
		return
	}
	event, err := h.events.SetCapacity(r.Context(), id, *req.Capacity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event))
}

// promoteNext answers 204 when nobody could be promoted.
func (h *Handler) promoteNext(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domain.ErrEventNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entry, err := h.regs.PromoteNext(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if entry == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) listRegistrations(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domain.ErrEventNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	regs, err := h.events.GetRegistrations(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]registrationResponse, 0, len(regs))
	for i := range regs {
		out = append(out, toRegistrationResponse(&regs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) listWaitlist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domain.ErrEventNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entries, err := h.events.GetWaitlist(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]entryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, toEntryResponse(&entries[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Current(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) putSettings(w http.ResponseWriter, r *http.Request) {
	var settings entities.Settings
	if err := decodeJSON(w, r, &settings); err != nil {
		h.writeBadRequest(w, r, err)
		return
	}
	if err := h.settings.Update(r.Context(), settings); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *Handler) runSweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.sweeper.RunOnce(r.Context())
	if isSweepRunning(err) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "sweep_running", Message: err.Error()})
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
