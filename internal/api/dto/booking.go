package dto

import "time"

type ServiceAreaResponse struct {
	Center   []float64 `json:"center"`
	RadiusKm float64   `json:"radiusKm"`
}

type ServiceOptionResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type TestPlaceResponse struct {
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Coordinates  []float64 `json:"coordinates"`
	WithinRadius bool      `json:"withinRadius"`
}

type BookingOptionsResponse struct {
	Services    []ServiceOptionResponse `json:"services"`
	TestPlaces  []TestPlaceResponse     `json:"testPlaces"`
	ServiceArea ServiceAreaResponse     `json:"serviceArea"`
}

// AreaCheckRequest carries either a free-text address or a [lon, lat] pair.
type AreaCheckRequest struct {
	Address     string    `json:"address"`
	Coordinates []float64 `json:"coordinates"`
}

type AddressValidationResponse struct {
	Status      string    `json:"status"`
	IsValid     bool      `json:"isValid"`
	Query       string    `json:"query,omitempty"`
	Address     string    `json:"address,omitempty"`
	Coordinates []float64 `json:"coordinates,omitempty"`
	DistanceKm  *float64  `json:"distanceKm,omitempty"`
	RadiusKm    float64   `json:"radiusKm"`
	Message     string    `json:"message,omitempty"`
}

type FormResponse struct {
	ID         string                    `json:"id"`
	Address    string                    `json:"address"`
	Generation uint64                    `json:"generation"`
	Validation AddressValidationResponse `json:"validation"`
}

type SetAddressRequest struct {
	Address string `json:"address"`
}

type TestPlaceRequest struct {
	Name string `json:"name"`
}

type SubmitBookingRequest struct {
	Service string `json:"service"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Notes   string `json:"notes"`
}

type BookingResponse struct {
	ID           string                `json:"id"`
	Service      ServiceOptionResponse `json:"service"`
	Date         string                `json:"date"`
	Time         string                `json:"time"`
	Address      string                `json:"address"`
	Coordinates  []float64             `json:"coordinates"`
	DistanceKm   float64               `json:"distanceKm"`
	Notes        string                `json:"notes,omitempty"`
	SubmittedAt  time.Time             `json:"submittedAt"`
	Confirmation string                `json:"confirmation"`
}
