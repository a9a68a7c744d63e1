// Package sphere maps geographic coordinates onto a sphere centered at the
// origin and back, and provides the small amount of 3D math the globe needs:
// quaternions, UV sphere meshes and great-circle distances.
//
// The projection uses a Y-up frame. The north pole lies on +Y and
// longitude 0 on the equator lies on -X:
//
//	phi   = (90 - lat) degrees
//	theta = (180 - lng) degrees
//	x = r sin(phi) cos(theta)
//	y = r cos(phi)
//	z = r sin(phi) sin(theta)
package sphere

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
	"github.com/paulmach/orb"
)

// Polar returns the polar angle of a latitude, measured from the north pole.
func Polar(lat float64) s1.Angle {
	return s1.Angle(90-lat) * s1.Degree
}

// Azimuth returns the azimuthal angle of a longitude.
func Azimuth(lng float64) s1.Angle {
	return s1.Angle(180-lng) * s1.Degree
}

// Project maps (lng, lat) in degrees to a point on the sphere of the given radius.
func Project(lng, lat, radius float64) r3.Vector {
	phi := Polar(lat).Radians()
	theta := Azimuth(lng).Radians()
	sinPhi := math.Sin(phi)
	return r3.Vector{
		X: radius * sinPhi * math.Cos(theta),
		Y: radius * math.Cos(phi),
		Z: radius * sinPhi * math.Sin(theta),
	}
}

// ProjectPoint maps an orb.Point, ordered (lng, lat), to the sphere.
func ProjectPoint(p orb.Point, radius float64) r3.Vector {
	return Project(p.Lon(), p.Lat(), radius)
}

// ProjectPlanar maps a point of the planar polygon space to the sphere.
// Planar space stores latitude on X and longitude on Y.
func ProjectPlanar(x, y, radius float64) r3.Vector {
	return Project(y, x, radius)
}

// Unproject recovers (lng, lat) from a point on any sphere centered at the
// origin. Longitude is normalized to (-180, 180]. The zero vector maps to
// (0, 0).
func Unproject(v r3.Vector) orb.Point {
	n := v.Norm()
	if n == 0 {
		return orb.Point{0, 0}
	}
	phi := s1.Angle(math.Acos(clamp(v.Y/n, -1, 1)))
	theta := s1.Angle(math.Atan2(v.Z, v.X))
	lat := 90 - phi.Degrees()
	lng := NormalizeLng(180 - theta.Degrees())
	return orb.Point{lng, lat}
}

// NormalizeLng wraps a longitude into (-180, 180].
func NormalizeLng(lng float64) float64 {
	l := math.Mod(lng+180, 360)
	if l <= 0 {
		l += 360
	}
	return l - 180
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
