package services

import (
	"context"
	"fmt"

	"technician-route-service/internal/domain"
	"technician-route-service/internal/ports"
	"technician-route-service/internal/platform/obs"
)

// BuildReorderRequest converts stops to the oracle payload. A stop without
// an ETA reports its scheduled time as the estimated arrival.
func BuildReorderRequest(stops []domain.Stop) []domain.JobSummary {
	jobs := make([]domain.JobSummary, 0, len(stops))
	for _, s := range stops {
		eta := s.ScheduledTime
		if s.EstimatedArrival != nil {
			eta = *s.EstimatedArrival
		}
		jobs = append(jobs, domain.JobSummary{
			ID:                   s.ID,
			CustomerName:         s.CustomerName,
			Address:              s.Address,
			ScheduledTime:        s.ScheduledTime.String(),
			EstimatedArrivalTime: eta.String(),
		})
	}
	return jobs
}

// RequestReorder asks the oracle for a new order and reconciles the answer
// against the local stops. Only identifiers are read from the answer; the
// returned stops are copies of the local ones with ETAs cleared.
//
// Unknown identifiers in the answer are dropped. The answer is accepted
// only if what remains names every local stop exactly once; anything else
// is an OptimizationMismatchError.
func RequestReorder(ctx context.Context, oracle ports.ReorderOracle, stops []domain.Stop) (_ []domain.Stop, err error) {
	defer obs.Time(ctx, "services.RequestReorder")(&err)

	answer, err := oracle.Reorder(ctx, BuildReorderRequest(stops))
	if err != nil {
		return nil, fmt.Errorf("request reorder: %w", err)
	}

	byID := make(map[string]domain.Stop, len(stops))
	for _, s := range stops {
		byID[s.ID] = s
	}

	known := 0
	for _, j := range answer {
		if _, ok := byID[j.ID]; ok {
			known++
		}
	}

	seen := make(map[string]struct{}, len(answer))
	reordered := make([]domain.Stop, 0, len(stops))
	for _, j := range answer {
		s, ok := byID[j.ID]
		if !ok {
			continue
		}
		if _, dup := seen[j.ID]; dup {
			return nil, &domain.OptimizationMismatchError{Expected: len(stops), Got: known}
		}
		seen[j.ID] = struct{}{}
		reordered = append(reordered, s.WithoutETA())
	}

	if len(reordered) != len(stops) {
		return nil, &domain.OptimizationMismatchError{Expected: len(stops), Got: len(reordered)}
	}

	return reordered, nil
}
