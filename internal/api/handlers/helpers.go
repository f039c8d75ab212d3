package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"technician-route-service/internal/domain"
	"technician-route-service/internal/platform/obs"
	"technician-route-service/internal/services"

	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"req_id": obs.RequestID(r.Context()),
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads exactly one JSON object into dst, rejecting unknown fields.
// It writes the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}

	return true
}

// writeServiceError maps domain and service errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		cfgErr   *domain.ConfigurationError
		provErr  *domain.ProviderError
		mismatch *domain.OptimizationMismatchError
		outside  *services.OutsideServiceAreaError
		fieldErr *services.BookingFieldError
	)

	switch {
	case errors.As(err, &cfgErr):
		writeError(w, r, http.StatusServiceUnavailable, cfgErr.Error())
	case errors.As(err, &mismatch):
		writeError(w, r, http.StatusUnprocessableEntity, mismatch.Error())
	case errors.As(err, &provErr):
		writeError(w, r, http.StatusBadGateway, provErr.Error())
	case errors.As(err, &outside):
		writeError(w, r, http.StatusUnprocessableEntity, outside.Error())
	case errors.As(err, &fieldErr):
		writeError(w, r, http.StatusBadRequest, fieldErr.Error())
	case errors.Is(err, services.ErrSessionBusy),
		errors.Is(err, services.ErrStaleResult),
		errors.Is(err, services.ErrValidationPending):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidOrder),
		errors.Is(err, services.ErrUnknownTestPlace):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrAddressNotValidated):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrFormNotFound):
		writeError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, "upstream request timed out")
	default:
		log.WithError(err).WithFields(log.Fields{
			"req_id": obs.RequestID(r.Context()),
			"path":   r.URL.Path,
		}).Error("request failed")
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
