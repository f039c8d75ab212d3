package domain

import "time"

// A bookable service offered by the form.
type ServiceOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Predefined address used to exercise the service-area check.
type TestPlace struct {
	Name         string      `json:"name"`
	Address      string      `json:"address"`
	Coordinates  Coordinates `json:"-"`
	WithinRadius bool        `json:"withinRadius"`
}

// Accepted appointment. Bookings are acknowledged and published, never stored.
type Booking struct {
	ID          string
	Service     ServiceOption
	Date        time.Time
	Time        ClockTime
	Address     string
	Coordinates Coordinates
	DistanceKm  float64
	Notes       string
	SubmittedAt time.Time
}

func ServiceCatalog() []ServiceOption {
	return []ServiceOption{
		{Value: "standard", Label: "Standard Service"},
		{Value: "premium", Label: "Premium Service"},
		{Value: "express", Label: "Express Service"},
		{Value: "maintenance", Label: "Maintenance"},
	}
}

// LookupService finds a catalog entry by value.
func LookupService(value string) (ServiceOption, bool) {
	for _, s := range ServiceCatalog() {
		if s.Value == value {
			return s, true
		}
	}
	return ServiceOption{}, false
}

// TestPlaces lists addresses around the default service area, some inside the
// radius and some outside it. WithinRadius is relative to DefaultServiceArea.
func TestPlaces() []TestPlace {
	return []TestPlace{
		{Name: "Ferry Building", Address: "1 Ferry Building, San Francisco, CA 94111", Coordinates: Coordinates{Lon: -122.3932, Lat: 37.7956}, WithinRadius: true},
		{Name: "Golden Gate Park", Address: "Golden Gate Park, San Francisco, CA 94117", Coordinates: Coordinates{Lon: -122.4833, Lat: 37.7694}, WithinRadius: true},
		{Name: "Mission District", Address: "Mission St & 24th St, San Francisco, CA 94110", Coordinates: Coordinates{Lon: -122.4194, Lat: 37.7528}, WithinRadius: true},
		{Name: "Fisherman's Wharf", Address: "Fisherman's Wharf, San Francisco, CA 94133", Coordinates: Coordinates{Lon: -122.4098, Lat: 37.8080}, WithinRadius: true},
		{Name: "Presidio", Address: "Presidio of San Francisco, CA 94129", Coordinates: Coordinates{Lon: -122.4662, Lat: 37.7989}, WithinRadius: true},
		{Name: "Oakland Downtown", Address: "Broadway & 14th St, Oakland, CA 94612", Coordinates: Coordinates{Lon: -122.2711, Lat: 37.8044}, WithinRadius: true},
		{Name: "Berkeley", Address: "University Ave & Shattuck Ave, Berkeley, CA 94704", Coordinates: Coordinates{Lon: -122.2585, Lat: 37.8715}, WithinRadius: false},
		{Name: "San Jose", Address: "1 N 1st St, San Jose, CA 95113", Coordinates: Coordinates{Lon: -121.8863, Lat: 37.3382}, WithinRadius: false},
		{Name: "Palo Alto", Address: "University Ave, Palo Alto, CA 94301", Coordinates: Coordinates{Lon: -122.1430, Lat: 37.4419}, WithinRadius: false},
		{Name: "Sausalito", Address: "Bridgeway, Sausalito, CA 94965", Coordinates: Coordinates{Lon: -122.4852, Lat: 37.8591}, WithinRadius: true},
	}
}
