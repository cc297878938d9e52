// Package rest exposes the registration workflow as a JSON API.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"knallbonbon/internal/adapters/scheduler"
	"knallbonbon/internal/domain"
	"knallbonbon/internal/log"
	"knallbonbon/internal/ports/input"
	"knallbonbon/internal/ports/output"
)

// SweepRunner triggers one expiry sweep.
type SweepRunner interface {
	RunOnce(ctx context.Context) (*input.SweepReport, error)
}

// Handler holds the use cases behind the HTTP routes.
type Handler struct {
	events     input.EventUseCase
	regs       input.RegistrationUseCase
	settings   input.SettingsUseCase
	sweeper    SweepRunner
	translator output.T
	adminHash  string
	logger     *logrus.Entry
}

func NewHandler(
	events input.EventUseCase,
	regs input.RegistrationUseCase,
	settings input.SettingsUseCase,
	sweeper SweepRunner,
	translator output.T,
	adminTokenHash string,
	logger *logrus.Entry,
) *Handler {
	return &Handler{
		events:     events,
		regs:       regs,
		settings:   settings,
		sweeper:    sweeper,
		translator: translator,
		adminHash:  adminTokenHash,
		logger:     logger,
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"errorMessage"`
	Details string `json:"errorDetails,omitempty"`
}

const codeBadRequest = "bad_request"

var codeStatus = map[string]int{
	"event_not_found":          http.StatusNotFound,
	"registration_not_found":   http.StatusNotFound,
	"entry_not_found":          http.StatusNotFound,
	"duplicate_submission":     http.StatusConflict,
	"invalid_state_transition": http.StatusConflict,
	"capacity_exceeded":        http.StatusConflict,
	"capacity_below_occupancy": http.StatusConflict,
	"invalid_applicant":        http.StatusUnprocessableEntity,
	"invalid_event":            http.StatusUnprocessableEntity,
	"invalid_settings":         http.StatusUnprocessableEntity,
	"store_unavailable":        http.StatusServiceUnavailable,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeError maps err to a status code and a translated message. Details
// are only exposed for client errors.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.Code(err)
	status, ok := codeStatus[code]
	if !ok {
		code, status = "unknown", http.StatusInternalServerError
	}
	resp := errorResponse{
		Error:   code,
		Message: h.translator.T(requestLocale(r), "error."+code, nil),
	}
	if status < http.StatusInternalServerError {
		resp.Details = err.Error()
	} else {
		h.logger.WithError(err).WithField(log.FldRequest, r.URL.Path).Error("Request failed")
	}
	writeJSON(w, status, resp)
}

func (h *Handler) writeBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:   codeBadRequest,
		Message: h.translator.T(requestLocale(r), "error."+codeBadRequest, nil),
		Details: err.Error(),
	})
}

var supportedLocales = language.NewMatcher([]language.Tag{language.German, language.English})

// requestLocale picks de or en from Accept-Language; "" lets the translator
// use its default.
func requestLocale(r *http.Request) string {
	header := r.Header.Get("Accept-Language")
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, idx, conf := supportedLocales.Match(tags...)
	if conf == language.No {
		return ""
	}
	if idx == 1 {
		return "en"
	}
	return "de"
}

// pathID reads the {id} URL parameter. Every stored record has a UUID, so
// anything else is reported as notFound without a store round trip.
func pathID(r *http.Request, notFound error) (string, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", notFound, raw)
	}
	return id.String(), nil
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func isSweepRunning(err error) bool {
	return errors.Is(err, scheduler.ErrSweepRunning)
}
