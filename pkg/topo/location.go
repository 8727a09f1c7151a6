package topo

type LocationType int

const (
	LocationState LocationType = iota
	LocationCity
	LocationOther
)

// Location is one candidate referent for a toponym, built from gazetteer
// data. Immutable once constructed.
type Location struct {
	id         int
	name       string
	region     Region
	population int
	admin1Code string
	locType    LocationType
}

func NewLocation(id int, name string, region Region, population int,
	admin1Code string, locType LocationType) *Location {

	return &Location{
		id:         id,
		name:       name,
		region:     region,
		population: population,
		admin1Code: admin1Code,
		locType:    locType,
	}
}

// NewPointLocation builds a bare location at a single coordinate, used for
// synthetic document-coordinate toponyms.
func NewPointLocation(id int, name string, coord Coordinate) *Location {
	return NewLocation(id, name, NewPointRegion(coord), 0, "", LocationOther)
}

func (l *Location) ID() int            { return l.id }
func (l *Location) Name() string       { return l.name }
func (l *Location) Region() Region     { return l.region }
func (l *Location) Population() int    { return l.population }
func (l *Location) Admin1Code() string { return l.admin1Code }
func (l *Location) Type() LocationType { return l.locType }

// DistanceKm returns the distance between the two locations' regions in
// kilometers.
func (l *Location) DistanceKm(other *Location) float64 {
	return RegionDistanceKm(l.region, other.region)
}

// CoordDistance returns the central angle from this location's region to the
// given coordinate, in radians.
func (l *Location) CoordDistance(coord Coordinate) float64 {
	return RegionCoordDistance(l.region, coord)
}
