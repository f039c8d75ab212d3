package mapbox

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"technician-route-service/internal/domain"
	"technician-route-service/internal/platform/obs"
)

type directionsResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
		Legs []struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"legs"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Route requests a driving route through the waypoints in order and returns
// the first candidate. A nil route with a nil error means the provider found
// no route, or there were fewer than two waypoints.
func (c *Client) Route(ctx context.Context, waypoints []domain.Coordinates) (_ *domain.Route, err error) {
	if len(waypoints) < 2 {
		return nil, nil
	}
	if err := c.requireToken(); err != nil {
		return nil, err
	}

	defer obs.Time(ctx, "mapbox.Route")(&err)

	pairs := make([]string, 0, len(waypoints))
	for _, w := range waypoints {
		pairs = append(pairs, w.String())
	}

	endpoint := fmt.Sprintf(
		"%s/directions/v5/mapbox/%s/%s",
		c.baseURL, url.PathEscape(c.profile), strings.Join(pairs, ";"),
	)

	q := url.Values{}
	q.Set("geometries", "geojson")
	q.Set("overview", "full")
	q.Set("steps", "false")

	req, err := c.newRequest(ctx, endpoint, q)
	if err != nil {
		return nil, fmt.Errorf("mapbox route: %w", err)
	}

	var decoded directionsResponse
	if err := c.getJSON(req, "directions", &decoded); err != nil {
		return nil, fmt.Errorf("mapbox route: %w", err)
	}

	switch decoded.Code {
	case "", "Ok":
	case "NoRoute":
		return nil, nil
	default:
		msg := decoded.Message
		if msg == "" {
			msg = decoded.Code
		}
		return nil, fmt.Errorf("mapbox route: %w", &domain.ProviderError{Provider: providerName, Message: msg})
	}

	if len(decoded.Routes) == 0 {
		return nil, nil
	}

	first := decoded.Routes[0]
	route := &domain.Route{
		Geometry:        make([]domain.Coordinates, 0, len(first.Geometry.Coordinates)),
		DistanceMeters:  first.Distance,
		DurationSeconds: first.Duration,
		Legs:            make([]domain.Leg, 0, len(first.Legs)),
	}

	for _, p := range first.Geometry.Coordinates {
		coord, ok := domain.CoordinatesFromList(p)
		if !ok {
			return nil, fmt.Errorf("mapbox route: %w", &domain.ProviderError{
				Provider: providerName,
				Message:  "invalid coordinate in route geometry",
			})
		}
		route.Geometry = append(route.Geometry, coord)
	}

	for _, l := range first.Legs {
		route.Legs = append(route.Legs, domain.Leg{
			DistanceMeters:  l.Distance,
			DurationSeconds: l.Duration,
		})
	}

	return route, nil
}
