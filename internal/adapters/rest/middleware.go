package rest

import (
	"net/http"
	"strings"
	"time"

	scrypt "github.com/elithrar/simple-scrypt"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"knallbonbon/internal/log"
)

// accessLog writes one log line per request.
func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.WithFields(logrus.Fields{
			log.FldRequest:  chimiddleware.GetReqID(r.Context()),
			log.FldIP:       r.RemoteAddr,
			"method":        r.Method,
			"path":          r.URL.Path,
			"status":        ww.Status(),
			"bytes":         ww.BytesWritten(),
			log.FldDuration: time.Since(start).String(),
		}).Info("HTTP request")
	})
}

// requireAdmin checks the bearer token against the configured scrypt hash.
// Without a configured hash every admin request is rejected.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" || h.adminHash == "" ||
			scrypt.CompareHashAndPassword([]byte(h.adminHash), []byte(token)) != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="knallbonbon-admin"`)
			writeJSON(w, http.StatusUnauthorized, errorResponse{
				Error:   "unauthorized",
				Message: http.StatusText(http.StatusUnauthorized),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
