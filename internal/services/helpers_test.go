package services

import (
	"context"
	"sync"
	"testing"

	"technician-route-service/internal/domain"
)

func testStops() []domain.Stop {
	return []domain.Stop{
		{ID: "job-1", CustomerName: "Ferry Building Marketplace", Address: "1 Ferry Building", Coordinates: domain.Coordinates{Lon: -122.3932, Lat: 37.7956}, ScheduledTime: domain.MustClockTime("09:00 AM")},
		{ID: "job-2", CustomerName: "Coit Tower", Address: "1 Telegraph Hill Blvd", Coordinates: domain.Coordinates{Lon: -122.4058, Lat: 37.8024}, ScheduledTime: domain.MustClockTime("10:00 AM")},
		{ID: "job-3", CustomerName: "Palace of Fine Arts", Address: "3601 Lyon St", Coordinates: domain.Coordinates{Lon: -122.4486, Lat: 37.8021}, ScheduledTime: domain.MustClockTime("11:30 AM")},
		{ID: "job-4", CustomerName: "Golden Gate Bridge Pavilion", Address: "Golden Gate Bridge", Coordinates: domain.Coordinates{Lon: -122.4784, Lat: 37.8078}, ScheduledTime: domain.MustClockTime("01:00 PM")},
		{ID: "job-5", CustomerName: "Twin Peaks", Address: "501 Twin Peaks Blvd", Coordinates: domain.Coordinates{Lon: -122.4475, Lat: 37.7545}, ScheduledTime: domain.MustClockTime("02:30 PM")},
	}
}

func summaries(ids ...string) []domain.JobSummary {
	out := make([]domain.JobSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.JobSummary{ID: id})
	}
	return out
}

// fakeOracle answers with a fixed permutation of ids, or with err.
// When gate is set, each call blocks until gate yields or ctx ends.
type fakeOracle struct {
	mu     sync.Mutex
	answer []string
	err    error
	gate   chan struct{}
	calls  [][]domain.JobSummary
}

func (f *fakeOracle) Reorder(ctx context.Context, jobs []domain.JobSummary) ([]domain.JobSummary, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]domain.JobSummary(nil), jobs...))
	gate, answer, err := f.gate, f.answer, f.err
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return summaries(answer...), nil
}

func (f *fakeOracle) lastCall(t *testing.T) []domain.JobSummary {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatalf("oracle was not called")
	}
	return f.calls[len(f.calls)-1]
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{counts: map[string]int{}}
}

func (c *countingObserver) inc(k string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[k]++
}

func (c *countingObserver) get(k string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[k]
}

func (c *countingObserver) ReorderOutcome(o string) { c.inc("reorder:" + o) }
func (c *countingObserver) StaleResult(k string)    { c.inc("stale:" + k) }
func (c *countingObserver) AddressChecked(s string) { c.inc("address:" + s) }
func (c *countingObserver) BookingOutcome(o string) { c.inc("booking:" + o) }
func (c *countingObserver) EventPublished(t string, err error) {
	if err != nil {
		c.inc("event_err:" + t)
		return
	}
	c.inc("event:" + t)
}
