package api

import (
	"net/http"

	"technician-route-service/internal/api/handlers"
	"technician-route-service/internal/domain"
	"technician-route-service/internal/ports"
	"technician-route-service/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Deps holds everything the HTTP layer needs. Handlers only see ports and
// services, never concrete adapters.
type Deps struct {
	Registry             *services.Registry
	Desk                 *services.BookingDesk
	Geocoder             ports.Geocoder
	ServiceArea          domain.ServiceArea
	DirectionsConfigured bool
	Metrics              http.Handler
	CORSOrigins          []string
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: d.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	}))

	health := &handlers.HealthHandler{DirectionsConfigured: d.DirectionsConfigured}
	routes := &handlers.RouteHandler{Registry: d.Registry}
	booking := &handlers.BookingHandler{
		Desk:        d.Desk,
		Geocoder:    d.Geocoder,
		ServiceArea: d.ServiceArea,
	}

	r.Get("/health", health.Health)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/routes", func(r chi.Router) {
		r.Get("/", routes.List)
		r.Get("/{name}", routes.Get)
		r.Post("/{name}/refresh", routes.Refresh)
		r.Put("/{name}/order", routes.Reorder)
		r.Post("/{name}/optimize", routes.Optimize)
	})

	r.Post("/service-area/check", booking.CheckServiceArea)

	r.Route("/booking", func(r chi.Router) {
		r.Get("/options", booking.Options)
		r.Post("/forms", booking.CreateForm)
		r.Get("/forms/{id}", booking.GetForm)
		r.Put("/forms/{id}/address", booking.SetAddress)
		r.Post("/forms/{id}/test-place", booking.SelectTestPlace)
		r.Post("/forms/{id}/submit", booking.Submit)
	})

	return r
}
