package topo

import "sync"

// DistanceTable memoizes pairwise distances between candidate locations,
// keyed by the unordered pair of location IDs. The cache grows monotonically
// for the lifetime of the process.
type DistanceTable struct {
	distances map[[2]int]float64
	sync.Mutex
}

func NewDistanceTable() *DistanceTable {
	return &DistanceTable{
		distances: make(map[[2]int]float64),
	}
}

// Distance returns the distance in kilometers between the two locations'
// regions, computing and caching it on first use.
func (dt *DistanceTable) Distance(a, b *Location) float64 {
	if a.ID() == b.ID() {
		return 0.0
	}

	key := [2]int{a.ID(), b.ID()}
	if key[0] > key[1] {
		key[0], key[1] = key[1], key[0]
	}

	dt.Lock()
	defer dt.Unlock()
	if dist, ok := dt.distances[key]; ok {
		return dist
	}

	dist := RegionDistanceKm(a.Region(), b.Region())
	dt.distances[key] = dist
	return dist
}

func (dt *DistanceTable) Size() int {
	dt.Lock()
	defer dt.Unlock()
	return len(dt.distances)
}
