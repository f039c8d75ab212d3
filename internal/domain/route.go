package domain

// Travel segment between two consecutive stops.
type Leg struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Represents a directions result over an ordered stop list.
// A Route is created fresh by every directions call and is never patched;
// when the stop order changes it is discarded and replaced.
// Legs has one entry per consecutive stop pair.
type Route struct {
	Geometry        []Coordinates
	DistanceMeters  float64
	DurationSeconds float64
	Legs            []Leg
}

// Address text resolved to coordinates by a geocoding provider.
// Address is the provider's canonical form and may differ from the query.
type GeocodeResult struct {
	Address     string
	Coordinates Coordinates
}
