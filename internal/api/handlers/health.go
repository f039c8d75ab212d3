package handlers

import (
	"net/http"
)

type HealthHandler struct {
	DirectionsConfigured bool
}

// Health provides a minimal liveness check endpoint. It also reports whether
// a directions credential is configured so clients can show a banner.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	res := map[string]any{
		"status":               "ok",
		"directionsConfigured": h.DirectionsConfigured,
	}
	writeJSON(w, r, http.StatusOK, res)
}
