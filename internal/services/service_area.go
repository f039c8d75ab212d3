package services

import (
	"context"
	"fmt"
	"strings"

	"technician-route-service/internal/domain"
	"technician-route-service/internal/geo"
	"technician-route-service/internal/ports"
)

type AreaCheck struct {
	IsValid    bool
	DistanceKm float64
}

// IsWithinServiceArea reports whether point lies within radiusKm of center.
// The boundary is inclusive.
func IsWithinServiceArea(point, center domain.Coordinates, radiusKm float64) AreaCheck {
	d := geo.DistanceKm(center, point)
	return AreaCheck{IsValid: d <= radiusKm, DistanceKm: d}
}

type AddressStatus string

const (
	AddressUnchecked AddressStatus = "unchecked"
	AddressChecking  AddressStatus = "checking"
	AddressNotFound  AddressStatus = "not_found"
	AddressWithin    AddressStatus = "within"
	AddressOutside   AddressStatus = "outside"
	AddressError     AddressStatus = "error"
)

// AddressValidation is the outcome of checking an address against the
// service area. Address holds the provider's canonical form when found.
type AddressValidation struct {
	Status      AddressStatus
	Query       string
	Address     string
	Coordinates *domain.Coordinates
	DistanceKm  float64
	Message     string
}

// Valid reports whether a booking may be submitted for this address.
func (v AddressValidation) Valid() bool { return v.Status == AddressWithin }

// CheckAddress geocodes the address and tests it against the service area.
// Geocoder errors are returned as-is; a missing match is a not_found status.
func CheckAddress(
	ctx context.Context,
	geocoder ports.Geocoder,
	area domain.ServiceArea,
	address string,
) (AddressValidation, error) {
	query := strings.TrimSpace(address)
	if query == "" {
		return AddressValidation{Status: AddressUnchecked}, nil
	}

	res, err := geocoder.Geocode(ctx, query)
	if err != nil {
		return AddressValidation{}, fmt.Errorf("check address: %w", err)
	}
	if res == nil {
		return AddressValidation{
			Status:  AddressNotFound,
			Query:   query,
			Message: "Could not find the specified address. Please try again.",
		}, nil
	}

	check := IsWithinServiceArea(res.Coordinates, area.Center, area.RadiusKm)
	coord := res.Coordinates

	v := AddressValidation{
		Status:      AddressWithin,
		Query:       query,
		Address:     res.Address,
		Coordinates: &coord,
		DistanceKm:  check.DistanceKm,
	}
	if !check.IsValid {
		v.Status = AddressOutside
		v.Message = outsideMessage(check.DistanceKm, area.RadiusKm)
	}

	return v, nil
}

func outsideMessage(distanceKm, radiusKm float64) string {
	return fmt.Sprintf(
		"The address is %.1f km away, which is outside our %s km service radius.",
		distanceKm, formatKm(radiusKm),
	)
}

func formatKm(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
