package topo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordinateDistance(t *testing.T) {
	t.Run("success distance is symmetric and zero on self", func(t *testing.T) {
		a := NewCoordinateFromDegrees(40.0, -90.0)
		b := NewCoordinateFromDegrees(37.0, -89.0)

		assert.Equal(t, a.DistanceKm(b), b.DistanceKm(a))
		assert.Equal(t, 0.0, a.DistanceKm(a))
	})

	t.Run("success known distance", func(t *testing.T) {
		paris := NewCoordinateFromDegrees(48.8566, 2.3522)
		london := NewCoordinateFromDegrees(51.5074, -0.1278)

		dist := paris.DistanceKm(london)
		assert.InDelta(t, 344.0, dist, 5.0)
	})
}

func TestRectRegionContains(t *testing.T) {
	t.Run("success contains point inside", func(t *testing.T) {
		rect := NewRectRegionFromDegrees(35.0, 40.0, -95.0, -85.0)
		inside := NewCoordinateFromDegrees(37.0, -89.0)
		outside := NewCoordinateFromDegrees(30.0, -89.0)

		assert.True(t, RegionContains(rect, inside))
		assert.False(t, RegionContains(rect, outside))
	})

	t.Run("success contains across the antimeridian", func(t *testing.T) {
		// a box from 170E to 170W straddles the 180 meridian
		rect := NewRectRegionFromDegrees(-10.0, 10.0, 170.0, -170.0)

		assert.True(t, RegionContains(rect, NewCoordinateFromDegrees(0.0, 175.0)))
		assert.True(t, RegionContains(rect, NewCoordinateFromDegrees(0.0, -175.0)))
		assert.False(t, RegionContains(rect, NewCoordinateFromDegrees(0.0, 0.0)))
	})
}

func TestRegionDistance(t *testing.T) {
	t.Run("success point regions use center distance", func(t *testing.T) {
		a := NewPointRegion(NewCoordinateFromDegrees(40.0, -90.0))
		b := NewPointRegion(NewCoordinateFromDegrees(37.0, -89.0))

		expected := a.Center().DistanceKm(b.Center())
		assert.Equal(t, expected, RegionDistanceKm(a, b))
	})

	t.Run("success rect distance uses nearest representatives", func(t *testing.T) {
		point := NewPointRegion(NewCoordinateFromDegrees(41.0, -90.0))
		rect := NewRectRegionFromDegrees(35.0, 40.0, -95.0, -85.0)

		// distance must be the minimum over all four corners, not the
		// center distance
		minCorner := math.Inf(1)
		for _, corner := range rect.Representatives() {
			if d := corner.DistanceKm(point.Center()); d < minCorner {
				minCorner = d
			}
		}
		assert.Equal(t, minCorner, RegionDistanceKm(point, rect))
		assert.Equal(t, RegionDistanceKm(point, rect), RegionDistanceKm(rect, point))
	})
}

func TestDistanceTable(t *testing.T) {
	t.Run("success caches symmetric distances", func(t *testing.T) {
		table := NewDistanceTable()
		a := NewPointLocation(1, "a", NewCoordinateFromDegrees(40.0, -90.0))
		b := NewPointLocation(2, "b", NewCoordinateFromDegrees(37.0, -89.0))

		dist := table.Distance(a, b)
		assert.Equal(t, a.DistanceKm(b), dist)
		assert.Equal(t, dist, table.Distance(b, a))
		assert.Equal(t, 1, table.Size())

		assert.Equal(t, 0.0, table.Distance(a, a))
		assert.Equal(t, 1, table.Size())
	})
}
