package sample

import (
	"math"

	"github.com/gogpu/globe/internal/sphere"
)

// Correction describes how to interpolate the longitudes of one segment.
// Start and End stay in the segment's original order.
type Correction struct {
	Start, End float64
	// Offset is subtracted from every interpolated longitude of a crossing
	// segment before it is projected.
	Offset   float64
	Crossing bool
}

// Crosses reports whether a segment between two longitudes crosses the
// antimeridian: the endpoints have opposite signs and both lie more than
// 90 degrees from the prime meridian.
func Crosses(lng0, lng1 float64) bool {
	return (lng0 < 0) != (lng1 < 0) && math.Abs(lng0) > 90 && math.Abs(lng1) > 90
}

// Correct returns the interpolation space for the segment lng0 -> lng1.
//
// On a crossing the larger longitude hi is moved to 0 and the smaller one is
// shifted by Offset = |180-hi| + 180, which places both ends on the same
// side of the wrap.
func Correct(lng0, lng1 float64) Correction {
	if !Crosses(lng0, lng1) {
		return Correction{Start: lng0, End: lng1}
	}
	hi, lo := lng0, lng1
	swapped := lng1 > lng0
	if swapped {
		hi, lo = lng1, lng0
	}
	off := math.Abs(180-hi) + 180
	c := Correction{Start: 0, End: lo + off, Offset: off, Crossing: true}
	if swapped {
		c.Start, c.End = c.End, c.Start
	}
	return c
}

// Restore maps an interpolated longitude back into (-180, 180].
func (c Correction) Restore(lng float64) float64 {
	if !c.Crossing {
		return lng
	}
	return sphere.NormalizeLng(lng - c.Offset)
}
