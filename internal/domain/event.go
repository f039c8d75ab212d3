package domain

import "time"

const (
	EventRouteReordered   = "route.reordered"
	EventRouteOptimized   = "route.optimized"
	EventBookingSubmitted = "booking.submitted"
)

// Event is a notification emitted after a state change has been accepted.
type Event struct {
	Type       string    `json:"type"`
	Route      string    `json:"route,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload,omitempty"`
}
