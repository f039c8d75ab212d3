package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"technician-route-service/internal/ports"

	log "github.com/sirupsen/logrus"
)

// Registry holds one RouteSession per route name.
type Registry struct {
	names    []string
	sessions map[string]*RouteSession
}

// LoadRegistry builds a session for every route the repository lists.
func LoadRegistry(
	ctx context.Context,
	repo ports.StopRepository,
	directions ports.DirectionsProvider,
	oracle ports.ReorderOracle,
	opts ...SessionOption,
) (*Registry, error) {
	names, err := repo.ListRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}

	r := &Registry{sessions: make(map[string]*RouteSession, len(names))}
	for _, name := range names {
		stops, err := repo.ListStops(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("load registry: %w", err)
		}

		s, err := NewRouteSession(name, stops, directions, oracle, opts...)
		if err != nil {
			return nil, fmt.Errorf("load registry: %w", err)
		}

		r.names = append(r.names, name)
		r.sessions[name] = s
	}

	return r, nil
}

func (r *Registry) Names() []string { return append([]string(nil), r.names...) }

func (r *Registry) Get(name string) (*RouteSession, bool) {
	s, ok := r.sessions[name]
	return s, ok
}

func (r *Registry) Snapshots() []RouteSnapshot {
	out := make([]RouteSnapshot, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.sessions[name].Snapshot())
	}
	return out
}

// RefreshAll fetches directions for every route concurrently. Failures are
// logged per route and returned joined.
func (r *Registry) RefreshAll(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)

	for _, name := range r.names {
		s := r.sessions[name]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.RefreshRoute(ctx); err != nil && !errors.Is(err, ErrStaleResult) {
				log.WithError(err).WithField("route", s.Name()).Warn("initial route load failed")
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errors.Join(errs...)
}
