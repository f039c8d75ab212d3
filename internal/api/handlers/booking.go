package handlers

import (
	"net/http"
	"strings"

	"technician-route-service/internal/api/dto"
	"technician-route-service/internal/domain"
	"technician-route-service/internal/ports"
	"technician-route-service/internal/services"

	"github.com/go-chi/chi/v5"
)

type BookingHandler struct {
	Desk        *services.BookingDesk
	Geocoder    ports.Geocoder
	ServiceArea domain.ServiceArea
}

func (h *BookingHandler) Options(w http.ResponseWriter, r *http.Request) {
	opts := h.Desk.Options()

	res := dto.BookingOptionsResponse{
		Services:   make([]dto.ServiceOptionResponse, 0, len(opts.Services)),
		TestPlaces: make([]dto.TestPlaceResponse, 0, len(opts.TestPlaces)),
		ServiceArea: dto.ServiceAreaResponse{
			Center:   opts.ServiceArea.Center.CoordsToList(),
			RadiusKm: opts.ServiceArea.RadiusKm,
		},
	}
	for _, s := range opts.Services {
		res.Services = append(res.Services, dto.ServiceOptionResponse{Value: s.Value, Label: s.Label})
	}
	for _, p := range opts.TestPlaces {
		res.TestPlaces = append(res.TestPlaces, dto.TestPlaceResponse{
			Name:         p.Name,
			Address:      p.Address,
			Coordinates:  p.Coordinates.CoordsToList(),
			WithinRadius: p.WithinRadius,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

// CheckServiceArea validates an address, or raw coordinates, against the
// service area without touching any form.
func (h *BookingHandler) CheckServiceArea(w http.ResponseWriter, r *http.Request) {
	var req dto.AreaCheckRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Coordinates != nil {
		c, ok := domain.CoordinatesFromList(req.Coordinates)
		if !ok {
			writeError(w, r, http.StatusBadRequest, "coordinates must be [lon, lat]")
			return
		}
		check := services.IsWithinServiceArea(c, h.ServiceArea.Center, h.ServiceArea.RadiusKm)
		status := services.AddressWithin
		if !check.IsValid {
			status = services.AddressOutside
		}
		writeJSON(w, r, http.StatusOK, toValidationResponse(services.AddressValidation{
			Status:      status,
			Coordinates: &c,
			DistanceKm:  check.DistanceKm,
		}, h.ServiceArea.RadiusKm))
		return
	}

	if strings.TrimSpace(req.Address) == "" {
		writeError(w, r, http.StatusBadRequest, "address or coordinates is required")
		return
	}

	v, err := services.CheckAddress(r.Context(), h.Geocoder, h.ServiceArea, req.Address)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toValidationResponse(v, h.ServiceArea.RadiusKm))
}

func (h *BookingHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	_, state := h.Desk.OpenForm(r.Context())
	writeJSON(w, r, http.StatusCreated, h.toFormResponse(state))
}

func (h *BookingHandler) form(w http.ResponseWriter, r *http.Request) (*services.AddressForm, bool) {
	f, err := h.Desk.Form(chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	return f, true
}

func (h *BookingHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	f, ok := h.form(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, h.toFormResponse(f.State()))
}

// SetAddress records an address edit. The check runs after the debounce
// period, so the response only acknowledges the edit.
func (h *BookingHandler) SetAddress(w http.ResponseWriter, r *http.Request) {
	f, ok := h.form(w, r)
	if !ok {
		return
	}

	var req dto.SetAddressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	writeJSON(w, r, http.StatusAccepted, h.toFormResponse(f.SetAddress(req.Address)))
}

func (h *BookingHandler) SelectTestPlace(w http.ResponseWriter, r *http.Request) {
	f, ok := h.form(w, r)
	if !ok {
		return
	}

	var req dto.TestPlaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	state, err := f.SelectTestPlace(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, h.toFormResponse(state))
}

func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	f, ok := h.form(w, r)
	if !ok {
		return
	}

	var req dto.SubmitBookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := f.Submit(r.Context(), services.BookingRequest{
		Service: req.Service,
		Date:    req.Date,
		Time:    req.Time,
		Notes:   req.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.BookingResponse{
		ID:           b.ID,
		Service:      dto.ServiceOptionResponse{Value: b.Service.Value, Label: b.Service.Label},
		Date:         b.Date.Format("2006-01-02"),
		Time:         b.Time.String(),
		Address:      b.Address,
		Coordinates:  b.Coordinates.CoordsToList(),
		DistanceKm:   b.DistanceKm,
		Notes:        b.Notes,
		SubmittedAt:  b.SubmittedAt,
		Confirmation: services.Confirmation(*b),
	})
}

func (h *BookingHandler) toFormResponse(s services.FormState) dto.FormResponse {
	return dto.FormResponse{
		ID:         s.ID,
		Address:    s.Address,
		Generation: s.Generation,
		Validation: toValidationResponse(s.Validation, h.ServiceArea.RadiusKm),
	}
}

func toValidationResponse(v services.AddressValidation, radiusKm float64) dto.AddressValidationResponse {
	res := dto.AddressValidationResponse{
		Status:   string(v.Status),
		IsValid:  v.Valid(),
		Query:    v.Query,
		Address:  v.Address,
		RadiusKm: radiusKm,
		Message:  v.Message,
	}
	if v.Coordinates != nil {
		res.Coordinates = v.Coordinates.CoordsToList()
		d := v.DistanceKm
		res.DistanceKm = &d
	}
	return res
}
