package domain

// Geographic admission boundary for bookings.
type ServiceArea struct {
	Center   Coordinates
	RadiusKm float64
}

// DefaultServiceArea is centered on downtown San Francisco.
func DefaultServiceArea() ServiceArea {
	return ServiceArea{
		Center:   Coordinates{Lon: -122.4194, Lat: 37.7749},
		RadiusKm: 15,
	}
}
