package topo

import (
	"fmt"
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// Region is the geometric extent of a location: either a single point or a
// latitude/longitude rectangle. All angles are in radians.
type Region interface {
	Center() Coordinate
	ContainsRadians(lat, lng float64) bool
	MinLat() float64
	MaxLat() float64
	MinLng() float64
	MaxLng() float64
	// Representatives returns the coordinates standing in for the region in
	// distance computations.
	Representatives() []Coordinate
}

func RegionContains(r Region, coord Coordinate) bool {
	return r.ContainsRadians(coord.Lat, coord.Lng)
}

// RegionDistance returns the minimum pairwise central angle between the two
// regions' representative sets, in radians.
func RegionDistance(a, b Region) float64 {
	minDist := math.Inf(1)
	for _, coord := range a.Representatives() {
		for _, otherCoord := range b.Representatives() {
			curDist := coord.Distance(otherCoord)
			if curDist < minDist {
				minDist = curDist
			}
		}
	}
	return minDist
}

// RegionCoordDistance returns the minimum central angle from any
// representative of r to coord, in radians.
func RegionCoordDistance(r Region, coord Coordinate) float64 {
	minDist := math.Inf(1)
	for _, rep := range r.Representatives() {
		curDist := rep.Distance(coord)
		if curDist < minDist {
			minDist = curDist
		}
	}
	return minDist
}

// RegionDistanceKm returns the distance between two regions in kilometers.
// When both regions are single points the center distance is used directly.
func RegionDistanceKm(a, b Region) float64 {
	if len(a.Representatives()) == 1 && len(b.Representatives()) == 1 {
		return a.Center().DistanceKm(b.Center())
	}
	return earthRadiusKM * RegionDistance(a, b)
}

// PointRegion is a degenerate region consisting of a single coordinate.
type PointRegion struct {
	coord Coordinate
}

func NewPointRegion(coord Coordinate) *PointRegion {
	return &PointRegion{coord: coord}
}

func (p *PointRegion) Center() Coordinate {
	return p.coord
}

func (p *PointRegion) ContainsRadians(lat, lng float64) bool {
	return p.coord.Lat == lat && p.coord.Lng == lng
}

func (p *PointRegion) MinLat() float64 { return p.coord.Lat }
func (p *PointRegion) MaxLat() float64 { return p.coord.Lat }
func (p *PointRegion) MinLng() float64 { return p.coord.Lng }
func (p *PointRegion) MaxLng() float64 { return p.coord.Lng }

func (p *PointRegion) Representatives() []Coordinate {
	return []Coordinate{p.coord}
}

// RectRegion is a latitude/longitude rectangle. Rectangles may straddle the
// antimeridian; containment is delegated to an s2 rect, whose longitude
// interval handles the wraparound.
type RectRegion struct {
	minLat float64
	maxLat float64
	minLng float64
	maxLng float64
	rect   s2.Rect
}

func NewRectRegionFromRadians(minLat, maxLat, minLng, maxLng float64) *RectRegion {
	return &RectRegion{
		minLat: minLat,
		maxLat: maxLat,
		minLng: minLng,
		maxLng: maxLng,
		rect: s2.Rect{
			Lat: r1.Interval{Lo: minLat, Hi: maxLat},
			Lng: s1.Interval{Lo: minLng, Hi: maxLng},
		},
	}
}

func NewRectRegionFromDegrees(minLat, maxLat, minLng, maxLng float64) *RectRegion {
	return NewRectRegionFromRadians(minLat*kRad, maxLat*kRad, minLng*kRad, maxLng*kRad)
}

func NewRectRegionFromCoordinates(sw, ne Coordinate) *RectRegion {
	return NewRectRegionFromRadians(sw.Lat, ne.Lat, sw.Lng, ne.Lng)
}

// Center returns the average of the rectangle bounds. Not meaningful for
// rectangles straddling the antimeridian.
func (r *RectRegion) Center() Coordinate {
	return NewCoordinateFromRadians((r.maxLat+r.minLat)/2.0, (r.maxLng+r.minLng)/2.0)
}

func (r *RectRegion) ContainsRadians(lat, lng float64) bool {
	return r.rect.ContainsLatLng(s2.LatLng{Lat: s1.Angle(lat), Lng: s1.Angle(lng)})
}

func (r *RectRegion) MinLat() float64 { return r.minLat }
func (r *RectRegion) MaxLat() float64 { return r.maxLat }
func (r *RectRegion) MinLng() float64 { return r.minLng }
func (r *RectRegion) MaxLng() float64 { return r.maxLng }

// Representatives returns the four corners of the rectangle.
func (r *RectRegion) Representatives() []Coordinate {
	return []Coordinate{
		NewCoordinateFromRadians(r.minLat, r.minLng),
		NewCoordinateFromRadians(r.maxLat, r.minLng),
		NewCoordinateFromRadians(r.maxLat, r.maxLng),
		NewCoordinateFromRadians(r.minLat, r.maxLng),
	}
}

func (r *RectRegion) String() string {
	return fmt.Sprintf("lat: [%f, %f] lon: [%f, %f]",
		r.minLat/kRad, r.maxLat/kRad, r.minLng/kRad, r.maxLng/kRad)
}
