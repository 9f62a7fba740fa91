// Package geo evaluates great-circle distances and circular zone membership.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371e3

var (
	// ErrInvalidPoint is returned when a coordinate is not finite or out of range.
	ErrInvalidPoint = errors.New("geo: invalid point")
	// ErrInvalidZone is returned when a zone has an invalid center or radius.
	ErrInvalidZone = errors.New("geo: invalid zone")
)

// Point is a position in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Validate reports whether the point is finite and within the WGS84 ranges.
func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) || math.Abs(p.Latitude) > 90 {
		return fmt.Errorf("%w: latitude %v", ErrInvalidPoint, p.Latitude)
	}
	if math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) || math.Abs(p.Longitude) > 180 {
		return fmt.Errorf("%w: longitude %v", ErrInvalidPoint, p.Longitude)
	}
	return nil
}

// Distance returns the haversine great-circle distance between a and b in meters.
func Distance(a, b Point) float64 {
	phi1 := radians(a.Latitude)
	phi2 := radians(b.Latitude)
	dPhi := radians(b.Latitude - a.Latitude)
	dLambda := radians(b.Longitude - a.Longitude)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Zone is a circular admissible region.
type Zone struct {
	Center       Point   `json:"center" yaml:"center"`
	RadiusMeters float64 `json:"radius_meters" yaml:"radius_meters"`
}

// Validate checks the center coordinates and requires a positive finite radius.
func (z Zone) Validate() error {
	if err := z.Center.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidZone, err)
	}
	if math.IsNaN(z.RadiusMeters) || math.IsInf(z.RadiusMeters, 0) || z.RadiusMeters <= 0 {
		return fmt.Errorf("%w: radius %v", ErrInvalidZone, z.RadiusMeters)
	}
	return nil
}

// Contains reports whether p lies within the zone. The boundary is inclusive.
func (z Zone) Contains(p Point) bool {
	return Distance(p, z.Center) <= z.RadiusMeters
}

// Evaluation is the outcome of classifying a point against a zone.
type Evaluation struct {
	DistanceMeters float64 `json:"distance_meters"`
	InZone         bool    `json:"in_zone"`
}

// Evaluate measures the distance from p to the zone center and classifies it.
func (z Zone) Evaluate(p Point) Evaluation {
	d := Distance(p, z.Center)
	return Evaluation{DistanceMeters: d, InZone: d <= z.RadiusMeters}
}
