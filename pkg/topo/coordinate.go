package topo

import (
	"fmt"
	"math"
)

// Coordinate is a point on the sphere. Latitude and longitude are stored in
// radians.
type Coordinate struct {
	Lat float64
	Lng float64
}

func NewCoordinateFromRadians(lat, lng float64) Coordinate {
	return Coordinate{Lat: lat, Lng: lng}
}

func NewCoordinateFromDegrees(lat, lng float64) Coordinate {
	return Coordinate{Lat: lat * kRad, Lng: lng * kRad}
}

func (c Coordinate) LatDegrees() float64 {
	return c.Lat / kRad
}

func (c Coordinate) LngDegrees() float64 {
	return c.Lng / kRad
}

// sin^2(a/2)
func havFunction(angleRad float64) float64 {
	return math.Pow(math.Sin(angleRad/2.0), 2)
}

// Distance returns the central angle between the two coordinates in radians,
// computed with the haversine formula.
func (c Coordinate) Distance(other Coordinate) float64 {
	return 2.0 * math.Asin(math.Sqrt(havFunction(c.Lat-other.Lat)+
		math.Cos(c.Lat)*math.Cos(other.Lat)*havFunction(c.Lng-other.Lng)))
}

// DistanceKm returns the great-circle distance between the two coordinates
// in kilometers.
func (c Coordinate) DistanceKm(other Coordinate) float64 {
	return earthRadiusKM * c.Distance(other)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%f,%f)", c.LatDegrees(), c.LngDegrees())
}
