package dto

import "time"

type StopResponse struct {
	ID                   string    `json:"id"`
	CustomerName         string    `json:"customerName"`
	Address              string    `json:"address"`
	Coordinates          []float64 `json:"coordinates"`
	ScheduledTime        string    `json:"scheduledTime"`
	EstimatedArrivalTime string    `json:"estimatedArrivalTime,omitempty"`
}

type LineString struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

type LegResponse struct {
	DistanceMeters  float64 `json:"distance"`
	DurationSeconds float64 `json:"duration"`
}

type DirectionsResponse struct {
	Geometry        LineString    `json:"geometry"`
	DistanceMeters  float64       `json:"distance"`
	DurationSeconds float64       `json:"duration"`
	DistanceKm      float64       `json:"distanceKm"`
	DurationMinutes float64       `json:"durationMinutes"`
	Legs            []LegResponse `json:"legs"`
}

type RouteResponse struct {
	Name       string              `json:"name"`
	Status     string              `json:"status"`
	Generation uint64              `json:"generation"`
	Stops      []StopResponse      `json:"stops"`
	Route      *DirectionsResponse `json:"route"`
	Error      string              `json:"error,omitempty"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

type ListRouteResponse struct {
	Routes []string `json:"routes"`
}

type ReorderRequest struct {
	Order []string `json:"order"`
}
