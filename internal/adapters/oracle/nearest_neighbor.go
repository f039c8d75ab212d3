package oracle

import (
	"context"
	"fmt"
	"math"

	"technician-route-service/internal/domain"
	"technician-route-service/internal/geo"
	"technician-route-service/internal/platform/obs"
)

// Locator resolves a job id to its coordinates.
type Locator interface {
	Locate(ctx context.Context, id string) (domain.Coordinates, bool)
}

// StaticLocator is a Locator backed by a fixed map.
type StaticLocator map[string]domain.Coordinates

func (l StaticLocator) Locate(_ context.Context, id string) (domain.Coordinates, bool) {
	c, ok := l[id]
	return c, ok
}

// NearestNeighbor reorders jobs with a greedy nearest-neighbor walk.
//
// The walk starts at the first job and repeatedly moves to the closest
// unvisited job by great-circle distance. It does not attempt global
// optimization; it exists so the optimize flow works without an LLM.
type NearestNeighbor struct {
	locator Locator
}

func NewNearestNeighbor(locator Locator) *NearestNeighbor {
	return &NearestNeighbor{locator: locator}
}

func (n *NearestNeighbor) Reorder(ctx context.Context, jobs []domain.JobSummary) (_ []domain.JobSummary, err error) {
	defer obs.Time(ctx, "oracle.NearestNeighbor")(&err)

	if len(jobs) < 2 {
		return append([]domain.JobSummary(nil), jobs...), nil
	}

	coords := make(map[string]domain.Coordinates, len(jobs))
	for _, j := range jobs {
		c, ok := n.locator.Locate(ctx, j.ID)
		if !ok {
			return nil, fmt.Errorf("nearest neighbor: no coordinates for job %q", j.ID)
		}
		coords[j.ID] = c
	}

	remaining := make(map[int]struct{}, len(jobs)-1)
	for i := 1; i < len(jobs); i++ {
		remaining[i] = struct{}{}
	}

	out := make([]domain.JobSummary, 0, len(jobs))
	out = append(out, jobs[0])
	current := coords[jobs[0].ID]

	for len(remaining) > 0 {
		best := -1
		minDistance := math.Inf(1)

		for i := range remaining {
			d := geo.DistanceKm(current, coords[jobs[i].ID])
			// Tie-breaker keeps the walk deterministic despite map iteration order.
			if d < minDistance || (d == minDistance && best >= 0 && jobs[i].ID < jobs[best].ID) {
				minDistance = d
				best = i
			}
		}

		if best < 0 {
			return nil, fmt.Errorf("nearest neighbor: failed to select next job after %q", out[len(out)-1].ID)
		}

		out = append(out, jobs[best])
		current = coords[jobs[best].ID]
		delete(remaining, best)
	}

	return out, nil
}
