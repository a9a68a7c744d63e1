// Package sample densifies coordinate paths before they are projected onto
// the globe.
//
// Two samplers are provided. GreatCircle walks the shortest arc between
// consecutive vertices by interpolating rotations. Linear interpolates
// straight lines in (lng, lat) space and corrects for the antimeridian.
package sample

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/gogpu/globe/internal/sphere"
)

// DefaultDensity is the number of great-circle samples per planar degree.
const DefaultDensity = 8

// DefaultLinearDivisions is the number of linear samples per segment.
const DefaultLinearDivisions = 100

// Divisions returns how many great-circle samples a segment from a to b
// gets: ceil(d*density) where d is the planar distance in degrees, never
// less than one.
func Divisions(a, b orb.Point, density float64) int {
	d := math.Hypot(b.Lon()-a.Lon(), b.Lat()-a.Lat())
	n := int(math.Ceil(d * density))
	if n < 1 {
		n = 1
	}
	return n
}

// GreatCircle densifies path along great-circle arcs. For every consecutive
// pair it emits Divisions samples at t = j/n for j = 0..n-1, so the final
// vertex of the path is not included. Callers that draw a line append it.
//
// Each sample is the first vertex of the pair rotated by the slerp of
// identity and the rotation taking the first vertex onto the second.
func GreatCircle(path []orb.Point, density float64) []orb.Point {
	if len(path) < 2 {
		return nil
	}
	if density <= 0 {
		density = DefaultDensity
	}

	out := make([]orb.Point, 0, estimate(path, density))
	for i := 0; i < len(path)-1; i++ {
		a, b := path[i], path[i+1]
		pa := sphere.ProjectPoint(a, 1)
		pb := sphere.ProjectPoint(b, 1)

		q0 := sphere.QuatFromUnitVectors(pa, pa)
		q1 := sphere.QuatFromUnitVectors(pa, pb)

		n := Divisions(a, b, density)
		for j := 0; j < n; j++ {
			q := q0.Slerp(q1, float64(j)/float64(n))
			out = append(out, sphere.Unproject(q.Rotate(pa)))
		}
	}
	return out
}

func estimate(path []orb.Point, density float64) int {
	n := 0
	for i := 0; i < len(path)-1; i++ {
		n += Divisions(path[i], path[i+1], density)
	}
	return n
}

// Linear densifies path with divisions evenly spaced samples per segment,
// t = j/divisions for j = 0..divisions-1. Like GreatCircle it leaves out
// the final vertex of the path. Segments that cross the
// antimeridian are interpolated in shifted longitude space and the samples
// are mapped back into (-180, 180].
func Linear(path []orb.Point, divisions int) []orb.Point {
	if len(path) < 2 {
		return nil
	}
	if divisions < 1 {
		divisions = DefaultLinearDivisions
	}

	out := make([]orb.Point, 0, (len(path)-1)*divisions)
	for i := 0; i < len(path)-1; i++ {
		a, b := path[i], path[i+1]
		c := Correct(a.Lon(), b.Lon())
		for j := 0; j < divisions; j++ {
			t := float64(j) / float64(divisions)
			lng := c.Start + (c.End-c.Start)*t
			lat := a.Lat() + (b.Lat()-a.Lat())*t
			out = append(out, orb.Point{c.Restore(lng), lat})
		}
	}
	return out
}
