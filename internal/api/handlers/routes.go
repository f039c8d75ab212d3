package handlers

import (
	"net/http"

	"technician-route-service/internal/api/dto"
	"technician-route-service/internal/services"

	"github.com/go-chi/chi/v5"
)

type RouteHandler struct {
	Registry *services.Registry
}

func (h *RouteHandler) session(w http.ResponseWriter, r *http.Request) (*services.RouteSession, bool) {
	name := chi.URLParam(r, "name")
	s, ok := h.Registry.Get(name)
	if !ok {
		writeError(w, r, http.StatusNotFound, "route not found")
		return nil, false
	}
	return s, true
}

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, dto.ListRouteResponse{Routes: h.Registry.Names()})
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteResponse(s.Snapshot()))
}

// Refresh fetches directions for the route's current order.
func (h *RouteHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := s.RefreshRoute(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteResponse(s.Snapshot()))
}

// Reorder applies a manual order, e.g. after a drag-and-drop.
func (h *RouteHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.ReorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Order) == 0 {
		writeError(w, r, http.StatusBadRequest, "order is required")
		return
	}

	if err := s.Reorder(r.Context(), req.Order); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteResponse(s.Snapshot()))
}

// Optimize asks the reordering oracle for a better order.
func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	if err := s.Optimize(r.Context()); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRouteResponse(s.Snapshot()))
}

func toRouteResponse(snap services.RouteSnapshot) dto.RouteResponse {
	res := dto.RouteResponse{
		Name:       snap.Name,
		Status:     string(snap.Status),
		Generation: snap.Generation,
		Stops:      make([]dto.StopResponse, 0, len(snap.Stops)),
		Error:      snap.LastError,
		UpdatedAt:  snap.UpdatedAt,
	}

	for _, s := range snap.Stops {
		stop := dto.StopResponse{
			ID:            s.ID,
			CustomerName:  s.CustomerName,
			Address:       s.Address,
			Coordinates:   s.Coordinates.CoordsToList(),
			ScheduledTime: s.ScheduledTime.String(),
		}
		if s.EstimatedArrival != nil {
			stop.EstimatedArrivalTime = s.EstimatedArrival.String()
		}
		res.Stops = append(res.Stops, stop)
	}

	if rt := snap.Route; rt != nil {
		d := &dto.DirectionsResponse{
			Geometry:        dto.LineString{Type: "LineString", Coordinates: make([][]float64, 0, len(rt.Geometry))},
			DistanceMeters:  rt.DistanceMeters,
			DurationSeconds: rt.DurationSeconds,
			DistanceKm:      rt.DistanceMeters / 1000,
			DurationMinutes: rt.DurationSeconds / 60,
			Legs:            make([]dto.LegResponse, 0, len(rt.Legs)),
		}
		for _, c := range rt.Geometry {
			d.Geometry.Coordinates = append(d.Geometry.Coordinates, c.CoordsToList())
		}
		for _, l := range rt.Legs {
			d.Legs = append(d.Legs, dto.LegResponse{DistanceMeters: l.DistanceMeters, DurationSeconds: l.DurationSeconds})
		}
		res.Route = d
	}

	return res
}
