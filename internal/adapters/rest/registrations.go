package rest

import (
	"net/http"

	"knallbonbon/internal/domain"
)

// submit answers 201 with the registration, or 202 with the waitlist entry
// when the event is full.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domain.ErrEventNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeBadRequest(w, r, err)
		return
	}
	applicant, err := req.toApplicant()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if applicant.Contact.Locale == "" {
		applicant.Contact.Locale = requestLocale(r)
	}

	result, err := h.regs.Submit(r.Context(), id, applicant)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if result.Waitlisted() {
		writeJSON(w, http.StatusAccepted, map[string]entryResponse{
			"waitlistEntry": toEntryResponse(result.WaitlistEntry),
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]registrationResponse{
		"registration": toRegistrationResponse(result.Registration),
	})
}

func (h *Handler) cancelRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domain.ErrRegistrationNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	reg, err := h.regs.CancelRegistration(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistrationResponse(reg))
}

func (h *Handler) confirmEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domain.ErrEntryNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	reg, err := h.regs.Confirm(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistrationResponse(reg))
}

func (h *Handler) cancelEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domain.ErrEntryNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entry, err := h.regs.CancelEntry(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) getRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domain.ErrRegistrationNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	reg, err := h.regs.GetRegistration(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRegistrationResponse(reg))
}

// getEntry lets a waitlisted applicant check their position's status and
// confirmation deadline.
func (h *Handler) getEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, domain.ErrEntryNotFound)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	entry, err := h.regs.GetEntry(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryResponse(entry))
}
