package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"technician-route-service/internal/domain"
)

type StopSeed struct {
	ID            string    `json:"id"`
	CustomerName  string    `json:"customerName"`
	Address       string    `json:"address"`
	ScheduledTime string    `json:"scheduledTime"`
	Coordinates   []float64 `json:"coordinates"`
}

// In-memory implementation of the StopRepository port, loaded once from a
// JSON seed file shaped {"<route>": [stops...]}. Routes are listed by name.
type JSONStopRepository struct {
	routes map[string][]domain.Stop
	names  []string
	byID   map[string]domain.Coordinates
}

// Load and validate the seed file at path.
func LoadJSONStopRepository(path string) (*JSONStopRepository, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed stops: read %q: %w", path, err)
	}
	return ParseStopSeeds(raw)
}

// ParseStopSeeds builds a repository from raw seed JSON.
func ParseStopSeeds(raw []byte) (*JSONStopRepository, error) {
	var data map[string][]StopSeed
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("seed stops: parse json: %w", err)
	}

	repo := &JSONStopRepository{
		routes: make(map[string][]domain.Stop, len(data)),
		byID:   make(map[string]domain.Coordinates),
	}

	for name, items := range data {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("seed stops: route name cannot be empty")
		}

		stops := make([]domain.Stop, 0, len(items))
		for i, item := range items {
			stop, err := item.toStop()
			if err != nil {
				return nil, fmt.Errorf("seed stops: route %q item %d: %w", name, i+1, err)
			}
			if _, dup := repo.byID[stop.ID]; dup {
				return nil, fmt.Errorf("seed stops: route %q item %d: duplicate stop id %q", name, i+1, stop.ID)
			}
			repo.byID[stop.ID] = stop.Coordinates
			stops = append(stops, stop)
		}

		repo.routes[name] = stops
		repo.names = append(repo.names, name)
	}

	sort.Strings(repo.names)
	return repo, nil
}

func (s StopSeed) toStop() (domain.Stop, error) {
	id := strings.TrimSpace(s.ID)
	if id == "" {
		return domain.Stop{}, fmt.Errorf("id cannot be empty")
	}

	scheduled, err := domain.ParseClockTime(s.ScheduledTime)
	if err != nil {
		return domain.Stop{}, fmt.Errorf("stop %q: %w", id, err)
	}

	coord, ok := domain.CoordinatesFromList(s.Coordinates)
	if !ok {
		return domain.Stop{}, fmt.Errorf("stop %q: coordinates must be [lon, lat]", id)
	}
	if coord.Lon < -180 || coord.Lon > 180 || coord.Lat < -90 || coord.Lat > 90 {
		return domain.Stop{}, fmt.Errorf("stop %q: coordinates out of range", id)
	}

	return domain.Stop{
		ID:            id,
		CustomerName:  strings.TrimSpace(s.CustomerName),
		Address:       strings.TrimSpace(s.Address),
		Coordinates:   coord,
		ScheduledTime: scheduled,
	}, nil
}

func (r *JSONStopRepository) ListRoutes(ctx context.Context) ([]string, error) {
	return append([]string(nil), r.names...), nil
}

func (r *JSONStopRepository) ListStops(ctx context.Context, route string) ([]domain.Stop, error) {
	stops, ok := r.routes[route]
	if !ok {
		return nil, fmt.Errorf("list stops: unknown route %q", route)
	}
	return append([]domain.Stop(nil), stops...), nil
}

// Locate returns the seeded coordinates for a stop id.
func (r *JSONStopRepository) Locate(_ context.Context, id string) (domain.Coordinates, bool) {
	c, ok := r.byID[id]
	return c, ok
}
