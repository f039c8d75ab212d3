package mapbox

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"technician-route-service/internal/domain"
	"technician-route-service/internal/platform/obs"
)

type geocodeResponse struct {
	Features []struct {
		PlaceName string    `json:"place_name"`
		Center    []float64 `json:"center"`
	} `json:"features"`
}

// Geocode resolves a free-text address to the provider's top match.
// It returns nil, nil when nothing matches.
func (c *Client) Geocode(ctx context.Context, address string) (_ *domain.GeocodeResult, err error) {
	if err := c.requireToken(); err != nil {
		return nil, err
	}

	query := strings.Join(strings.Fields(address), " ")
	if query == "" {
		return nil, nil
	}

	defer obs.Time(ctx, "mapbox.Geocode")(&err)

	endpoint := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json", c.baseURL, url.PathEscape(query))

	q := url.Values{}
	q.Set("limit", "1")

	req, err := c.newRequest(ctx, endpoint, q)
	if err != nil {
		return nil, fmt.Errorf("mapbox geocode: %w", err)
	}

	var decoded geocodeResponse
	if err := c.getJSON(req, "geocode", &decoded); err != nil {
		return nil, fmt.Errorf("mapbox geocode %q: %w", query, err)
	}

	if len(decoded.Features) == 0 {
		return nil, nil
	}

	top := decoded.Features[0]
	coord, ok := domain.CoordinatesFromList(top.Center)
	if !ok {
		return nil, fmt.Errorf("mapbox geocode %q: %w", query, &domain.ProviderError{
			Provider: providerName,
			Message:  "invalid coordinate format",
		})
	}

	canonical := strings.TrimSpace(top.PlaceName)
	if canonical == "" {
		canonical = query
	}

	return &domain.GeocodeResult{Address: canonical, Coordinates: coord}, nil
}
