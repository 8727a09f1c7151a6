package topo

import "math"

const (
	// mean earth radius used to convert central angles to kilometers.
	earthRadiusKM = 6372.8
	kRad          = math.Pi / 180.0
)
