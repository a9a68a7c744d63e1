package sphere

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Distance returns the great-circle distance between two (lng, lat) points
// on a sphere of the given radius.
func Distance(a, b orb.Point, radius float64) float64 {
	return geo.DistanceHaversine(a, b) / orb.EarthRadius * radius
}

// PathLength returns the summed great-circle length of a path.
func PathLength(path []orb.Point, radius float64) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += Distance(path[i-1], path[i], radius)
	}
	return total
}
