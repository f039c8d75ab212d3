package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"technician-route-service/internal/domain"
	"technician-route-service/internal/ports"
	"technician-route-service/internal/platform/obs"

	log "github.com/sirupsen/logrus"
)

var (
	ErrSessionBusy  = errors.New("route is busy loading or optimizing")
	ErrStaleResult  = errors.New("result superseded by a newer change")
	ErrInvalidOrder = errors.New("order must be a permutation of the current stop ids")
)

type SessionStatus string

const (
	StatusIdle       SessionStatus = "idle"
	StatusLoading    SessionStatus = "loading"
	StatusOptimizing SessionStatus = "optimizing"
)

// RouteSnapshot is a consistent copy of a session's state.
type RouteSnapshot struct {
	Name       string
	Status     SessionStatus
	Generation uint64
	Stops      []domain.Stop // with ETAs when a route is present
	Route      *domain.Route
	LastError  string
	UpdatedAt  time.Time
}

// RouteSession owns one named stop list and the directions route computed
// for its current order.
//
// Every order change bumps the generation and discards the route. Calls to
// the directions provider and the oracle are made without holding the lock;
// their results are applied only if the generation is unchanged, so a late
// answer for an older order can never overwrite newer state.
type RouteSession struct {
	name       string
	directions ports.DirectionsProvider
	oracle     ports.ReorderOracle
	publisher  ports.EventPublisher
	observer   Observer
	now        func() time.Time

	mu         sync.Mutex
	stops      []domain.Stop
	route      *domain.Route
	generation uint64
	loading    int
	optimizing bool
	lastErr    string
	updatedAt  time.Time
}

type SessionOption func(*RouteSession)

func WithPublisher(p ports.EventPublisher) SessionOption {
	return func(s *RouteSession) { s.publisher = p }
}

func WithObserver(o Observer) SessionOption {
	return func(s *RouteSession) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithClock(now func() time.Time) SessionOption {
	return func(s *RouteSession) { s.now = now }
}

func NewRouteSession(
	name string,
	stops []domain.Stop,
	directions ports.DirectionsProvider,
	oracle ports.ReorderOracle,
	opts ...SessionOption,
) (*RouteSession, error) {
	if err := domain.ValidateStops(stops); err != nil {
		return nil, fmt.Errorf("new route session %q: %w", name, err)
	}

	s := &RouteSession{
		name:       name,
		directions: directions,
		oracle:     oracle,
		observer:   nopObserver{},
		now:        time.Now,
		stops:      make([]domain.Stop, 0, len(stops)),
	}
	for _, st := range stops {
		s.stops = append(s.stops, st.WithoutETA())
	}
	for _, opt := range opts {
		opt(s)
	}
	s.updatedAt = s.now()

	return s, nil
}

func (s *RouteSession) Name() string { return s.name }

func (s *RouteSession) Snapshot() RouteSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *RouteSession) snapshotLocked() RouteSnapshot {
	return RouteSnapshot{
		Name:       s.name,
		Status:     s.statusLocked(),
		Generation: s.generation,
		Stops:      ComputeETAs(s.stops, s.route, DayStart(s.stops)),
		Route:      s.route,
		LastError:  s.lastErr,
		UpdatedAt:  s.updatedAt,
	}
}

func (s *RouteSession) statusLocked() SessionStatus {
	switch {
	case s.optimizing:
		return StatusOptimizing
	case s.loading > 0:
		return StatusLoading
	default:
		return StatusIdle
	}
}

// applyOrderLocked replaces the stop order and invalidates the route.
func (s *RouteSession) applyOrderLocked(stops []domain.Stop) {
	s.stops = stops
	s.route = nil
	s.generation++
	s.updatedAt = s.now()
}

// RefreshRoute fetches directions for the current order.
//
// A provider error leaves the previous route in place and is recorded as
// the session's last error. ErrStaleResult is returned when the order
// changed while the request was in flight.
func (s *RouteSession) RefreshRoute(ctx context.Context) (err error) {
	defer obs.Time(ctx, "session.RefreshRoute")(&err)

	s.mu.Lock()
	if len(s.stops) < 2 {
		s.route = nil
		s.lastErr = ""
		s.updatedAt = s.now()
		s.mu.Unlock()
		return nil
	}
	gen := s.generation
	waypoints := domain.Waypoints(s.stops)
	s.loading++
	s.mu.Unlock()

	route, err := s.directions.Route(ctx, waypoints)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--

	if gen != s.generation {
		s.observer.StaleResult("directions")
		return ErrStaleResult
	}
	if err != nil {
		s.lastErr = err.Error()
		return fmt.Errorf("refresh route %q: %w", s.name, err)
	}

	s.route = route
	s.lastErr = ""
	s.updatedAt = s.now()

	return nil
}

// Reorder applies a caller-supplied order, given as stop ids, and then
// refreshes the route. A refresh failure does not undo the new order; it is
// visible through the snapshot's last error.
func (s *RouteSession) Reorder(ctx context.Context, ids []string) error {
	s.mu.Lock()

	byID := make(map[string]domain.Stop, len(s.stops))
	for _, st := range s.stops {
		byID[st.ID] = st
	}
	if len(ids) != len(s.stops) {
		s.mu.Unlock()
		return fmt.Errorf("reorder %q: %w: got %d ids for %d stops", s.name, ErrInvalidOrder, len(ids), len(s.stops))
	}

	next := make([]domain.Stop, 0, len(ids))
	for _, id := range ids {
		st, ok := byID[id]
		if !ok {
			s.mu.Unlock()
			return fmt.Errorf("reorder %q: %w: unknown or repeated id %q", s.name, ErrInvalidOrder, id)
		}
		delete(byID, id)
		next = append(next, st)
	}

	s.applyOrderLocked(next)
	s.lastErr = ""
	s.mu.Unlock()

	publish(ctx, s.publisher, s.observer, domain.Event{
		Type:       domain.EventRouteReordered,
		Route:      s.name,
		OccurredAt: s.now(),
		Payload:    map[string]any{"order": ids},
	})

	s.refreshAfterChange(ctx)
	return nil
}

// Optimize sends the current stops, with their ETAs, to the reordering
// oracle and applies the answer if it is a permutation of the stops.
//
// It refuses to run while the route is loading or already optimizing.
// Rejected or failed answers leave the order untouched.
func (s *RouteSession) Optimize(ctx context.Context) (err error) {
	defer obs.Time(ctx, "session.Optimize")(&err)

	s.mu.Lock()
	if s.statusLocked() != StatusIdle {
		s.mu.Unlock()
		return ErrSessionBusy
	}
	if len(s.stops) < 2 {
		s.mu.Unlock()
		return nil
	}
	withETAs := ComputeETAs(s.stops, s.route, DayStart(s.stops))
	gen := s.generation
	s.optimizing = true
	s.lastErr = ""
	s.mu.Unlock()

	reordered, err := RequestReorder(ctx, s.oracle, withETAs)

	s.mu.Lock()
	s.optimizing = false

	if err != nil {
		var mismatch *domain.OptimizationMismatchError
		if errors.As(err, &mismatch) {
			s.observer.ReorderOutcome("mismatch")
		} else {
			s.observer.ReorderOutcome("error")
		}
		s.lastErr = err.Error()
		s.mu.Unlock()
		return fmt.Errorf("optimize %q: %w", s.name, err)
	}
	if gen != s.generation {
		s.observer.StaleResult("optimize")
		s.observer.ReorderOutcome("stale")
		s.mu.Unlock()
		return ErrStaleResult
	}

	s.applyOrderLocked(reordered)
	s.mu.Unlock()

	s.observer.ReorderOutcome("accepted")
	publish(ctx, s.publisher, s.observer, domain.Event{
		Type:       domain.EventRouteOptimized,
		Route:      s.name,
		OccurredAt: s.now(),
		Payload:    map[string]any{"order": domain.StopIDs(reordered)},
	})

	s.refreshAfterChange(ctx)
	return nil
}

func (s *RouteSession) refreshAfterChange(ctx context.Context) {
	err := s.RefreshRoute(ctx)
	if err != nil && !errors.Is(err, ErrStaleResult) {
		log.WithError(err).WithFields(log.Fields{
			"req_id": obs.RequestID(ctx),
			"route":  s.name,
		}).Warn("route refresh after order change failed")
	}
}
