package sphere

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Surface is an indexed triangle mesh.
type Surface struct {
	Positions []r3.Vector
	Normals   []r3.Vector
	UVs       []r2.Point
	Indices   []uint32
}

// UVSphere builds a latitude/longitude sphere of the given radius centered
// at the origin. The grid has (widthSegments+1)*(heightSegments+1) vertices;
// the seam and pole rows are duplicated so UVs stay continuous.
func UVSphere(radius float64, widthSegments, heightSegments int) Surface {
	if widthSegments < 3 {
		widthSegments = 3
	}
	if heightSegments < 2 {
		heightSegments = 2
	}

	n := (widthSegments + 1) * (heightSegments + 1)
	s := Surface{
		Positions: make([]r3.Vector, 0, n),
		Normals:   make([]r3.Vector, 0, n),
		UVs:       make([]r2.Point, 0, n),
	}

	for iy := 0; iy <= heightSegments; iy++ {
		v := float64(iy) / float64(heightSegments)
		sinV, cosV := math.Sincos(v * math.Pi)
		for ix := 0; ix <= widthSegments; ix++ {
			u := float64(ix) / float64(widthSegments)
			sinU, cosU := math.Sincos(u * 2 * math.Pi)
			normal := r3.Vector{X: -cosU * sinV, Y: cosV, Z: sinU * sinV}
			s.Positions = append(s.Positions, normal.Mul(radius))
			s.Normals = append(s.Normals, normal)
			s.UVs = append(s.UVs, r2.Point{X: u, Y: 1 - v})
		}
	}

	row := uint32(widthSegments + 1)
	for iy := 0; iy < heightSegments; iy++ {
		for ix := 0; ix < widthSegments; ix++ {
			a := uint32(iy)*row + uint32(ix) + 1
			b := uint32(iy)*row + uint32(ix)
			c := uint32(iy+1)*row + uint32(ix)
			d := uint32(iy+1)*row + uint32(ix) + 1
			// The pole rows collapse to a point, so each contributes one triangle.
			if iy != 0 {
				s.Indices = append(s.Indices, a, b, d)
			}
			if iy != heightSegments-1 {
				s.Indices = append(s.Indices, b, c, d)
			}
		}
	}
	return s
}

// Translated returns a copy of s with every position moved by offset.
func (s Surface) Translated(offset r3.Vector) Surface {
	out := Surface{
		Positions: make([]r3.Vector, len(s.Positions)),
		Normals:   append([]r3.Vector(nil), s.Normals...),
		UVs:       append([]r2.Point(nil), s.UVs...),
		Indices:   append([]uint32(nil), s.Indices...),
	}
	for i, p := range s.Positions {
		out.Positions[i] = p.Add(offset)
	}
	return out
}
