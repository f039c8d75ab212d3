package services

import "technician-route-service/internal/domain"

var defaultDayStart = domain.MustClockTime("09:00 AM")

// DayStart returns the time the first stop is reached: its scheduled time,
// or 09:00 AM when there are no stops.
func DayStart(stops []domain.Stop) domain.ClockTime {
	if len(stops) == 0 {
		return defaultDayStart
	}
	return stops[0].ScheduledTime
}

// ComputeETAs annotates each stop with an estimated arrival time derived
// from the route legs. The first stop is reached at dayStart and every
// later stop adds the duration of the leg leading to it.
//
// With a nil route the stops are returned as copies without ETAs. Missing
// trailing legs contribute nothing, so later stops repeat the last value.
// The input slice is never modified.
func ComputeETAs(stops []domain.Stop, route *domain.Route, dayStart domain.ClockTime) []domain.Stop {
	out := make([]domain.Stop, len(stops))
	copy(out, stops)

	if route == nil {
		return out
	}

	var cumulative float64
	for i := range out {
		if i > 0 && len(route.Legs) > i-1 {
			cumulative += route.Legs[i-1].DurationSeconds
		}
		eta := dayStart.AddSeconds(cumulative)
		out[i].EstimatedArrival = &eta
	}

	return out
}
