package domain

import (
	"fmt"
	"strings"
)

// Represents one scheduled technician visit (a job).
// ID is the only field used to correlate a stop across reorderings;
// everything else is payload that must pass through unchanged.
// EstimatedArrival is derived from the current route and is nil until
// one has been computed.
type Stop struct {
	ID               string
	CustomerName     string
	Address          string
	Coordinates      Coordinates
	ScheduledTime    ClockTime
	EstimatedArrival *ClockTime
}

// WithoutETA returns a copy of the stop with the derived arrival time cleared.
func (s Stop) WithoutETA() Stop {
	s.EstimatedArrival = nil
	return s
}

// Waypoints returns the stop coordinates in order.
func Waypoints(stops []Stop) []Coordinates {
	out := make([]Coordinates, 0, len(stops))
	for _, s := range stops {
		out = append(out, s.Coordinates)
	}
	return out
}

// StopIDs returns the stop identifiers in order.
func StopIDs(stops []Stop) []string {
	out := make([]string, 0, len(stops))
	for _, s := range stops {
		out = append(out, s.ID)
	}
	return out
}

// ValidateStops checks the identifier invariant of a stop list.
func ValidateStops(stops []Stop) error {
	seen := make(map[string]struct{}, len(stops))
	for i, s := range stops {
		if strings.TrimSpace(s.ID) == "" {
			return fmt.Errorf("validate stops: stop at index %d has an empty id", i)
		}
		if _, ok := seen[s.ID]; ok {
			return fmt.Errorf("validate stops: duplicate stop id %q", s.ID)
		}
		seen[s.ID] = struct{}{}
	}

	return nil
}

// JobSummary is the per-stop payload exchanged with a reordering oracle.
type JobSummary struct {
	ID                   string `json:"id"`
	CustomerName         string `json:"customerName"`
	Address              string `json:"address"`
	ScheduledTime        string `json:"scheduledTime"`
	EstimatedArrivalTime string `json:"estimatedArrivalTime,omitempty"`
}
