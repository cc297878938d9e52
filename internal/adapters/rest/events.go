package rest

import (
	"net/http"

	"knallbonbon/internal/domain"
)

func (h *Handler) listEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.ListEvents(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]eventResponse, 0, len(events))
	for i := range events {
		out = append(out, toEventResponse(&events[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domain.ErrEventNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	event, err := h.events.GetEventByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(event))
}

func (h *Handler) getOccupancy(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domain.ErrEventNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	occ, err := h.events.GetOccupancy(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, occ)
}
