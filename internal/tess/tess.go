// Package tess turns polygon rings into dense triangle meshes.
//
// Rings are densified in (lng, lat) space, moved into a planar space that
// stores latitude on X and longitude on Y, ear-clipped with holes and then
// refined by repeated edge splitting until every edge is short
// enough to follow the sphere once projected.
package tess

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
)

// Defaults for polygon surfaces.
const (
	DefaultDivisions = 100
	DefaultPasses    = 8
	DefaultMaxEdge   = 4.0
)

// Mesh is an indexed planar triangle mesh.
type Mesh struct {
	Vertices []r2.Point
	Indices  []uint32
}

// OpenRing returns ring without a trailing vertex that repeats the first.
func OpenRing(ring []orb.Point) []orb.Point {
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		return ring[:n-1]
	}
	return ring
}

// Densify subdivides every edge of an open ring, including the closing edge
// from the last vertex back to the first, into divisions linear steps.
// The result has len(ring)*divisions points and is itself open.
func Densify(ring []orb.Point, divisions int) []orb.Point {
	if divisions < 1 {
		divisions = 1
	}
	out := make([]orb.Point, 0, len(ring)*divisions)
	for i, a := range ring {
		b := ring[(i+1)%len(ring)]
		dx := (b.Lon() - a.Lon()) / float64(divisions)
		dy := (b.Lat() - a.Lat()) / float64(divisions)
		for j := 0; j < divisions; j++ {
			out = append(out, orb.Point{a.Lon() + float64(j)*dx, a.Lat() + float64(j)*dy})
		}
	}
	return out
}

// Planar moves (lng, lat) points into planar space, X = lat and Y = lng.
func Planar(ring []orb.Point) []r2.Point {
	out := make([]r2.Point, len(ring))
	for i, p := range ring {
		out[i] = r2.Point{X: p.Lat(), Y: p.Lon()}
	}
	return out
}

// Mean returns the arithmetic mean of points.
func Mean(points []orb.Point) orb.Point {
	if len(points) == 0 {
		return orb.Point{}
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.Lon()
		sy += p.Lat()
	}
	n := float64(len(points))
	return orb.Point{sx / n, sy / n}
}

// Build triangulates outer with holes and refines the result. Triangles
// share the winding of outer. Vertices that no triangle references are
// dropped.
func Build(outer []r2.Point, holes [][]r2.Point, maxEdge float64, passes int) Mesh {
	all := make([]r2.Point, 0, len(outer))
	all = append(all, outer...)
	for _, h := range holes {
		all = append(all, h...)
	}

	indices := Triangulate(outer, holes)
	orient(all, indices, ringArea(outer))
	return Tessellate(compact(all, indices), maxEdge, passes)
}

func ringArea(ring []r2.Point) float64 {
	var sum float64
	for i, p := range ring {
		q := ring[(i+1)%len(ring)]
		sum += p.Cross(q)
	}
	return sum / 2
}

func triangleArea(a, b, c r2.Point) float64 {
	return b.Sub(a).Cross(c.Sub(a)) / 2
}

// orient flips triangles whose winding disagrees with the sign of want.
func orient(pts []r2.Point, indices []uint32, want float64) {
	for t := 0; t+2 < len(indices); t += 3 {
		a := triangleArea(pts[indices[t]], pts[indices[t+1]], pts[indices[t+2]])
		if a*want < 0 {
			indices[t+1], indices[t+2] = indices[t+2], indices[t+1]
		}
	}
}

func compact(pts []r2.Point, indices []uint32) Mesh {
	remap := make(map[uint32]uint32, len(indices))
	m := Mesh{Indices: make([]uint32, len(indices))}
	for k, i := range indices {
		j, ok := remap[i]
		if !ok {
			j = uint32(len(m.Vertices))
			remap[i] = j
			m.Vertices = append(m.Vertices, pts[i])
		}
		m.Indices[k] = j
	}
	return m
}

// Tessellate splits every edge longer than maxEdge at its midpoint,
// repeating for up to passes rounds. Each round decides per edge, so both
// triangles on an edge split it and share the midpoint. A triangle with
// one, two or three split edges becomes two, three or four triangles of
// the same winding.
func Tessellate(m Mesh, maxEdge float64, passes int) Mesh {
	out := Mesh{
		Vertices: append([]r2.Point(nil), m.Vertices...),
		Indices:  append([]uint32(nil), m.Indices...),
	}
	if maxEdge <= 0 {
		return out
	}
	limit := maxEdge * maxEdge

	for pass := 0; pass < passes; pass++ {
		mids := make(map[[2]uint32]uint32)
		midpoint := func(a, b uint32) (uint32, bool) {
			key := edgeKey(a, b)
			if i, ok := mids[key]; ok {
				return i, true
			}
			if sqDist(out.Vertices[a], out.Vertices[b]) <= limit {
				return 0, false
			}
			i := uint32(len(out.Vertices))
			out.Vertices = append(out.Vertices, out.Vertices[a].Add(out.Vertices[b]).Mul(0.5))
			mids[key] = i
			return i, true
		}

		next := make([]uint32, 0, len(out.Indices)*2)
		for t := 0; t+2 < len(out.Indices); t += 3 {
			tri := [3]uint32{out.Indices[t], out.Indices[t+1], out.Indices[t+2]}
			var mid [3]uint32
			var split [3]bool
			n := 0
			for e := range 3 {
				mid[e], split[e] = midpoint(tri[e], tri[(e+1)%3])
				if split[e] {
					n++
				}
			}
			next = subdivide(next, out.Vertices, tri, mid, split, n)
		}
		out.Indices = next
		if len(mids) == 0 {
			break
		}
	}
	return out
}

// subdivide appends the triangles replacing tri. Edge e runs from tri[e]
// to tri[e+1] and, when split[e] is set, has its midpoint at mid[e].
func subdivide(dst []uint32, pts []r2.Point, tri, mid [3]uint32, split [3]bool, n int) []uint32 {
	switch n {
	case 0:
		return append(dst, tri[0], tri[1], tri[2])
	case 3:
		return append(dst,
			tri[0], mid[0], mid[2],
			mid[0], tri[1], mid[1],
			mid[2], mid[1], tri[2],
			mid[0], mid[1], mid[2])
	}

	// Rotate so that edge 0 is the split edge when n is 1 and the unsplit
	// edge when n is 2.
	r := 0
	for e := range 3 {
		if split[e] == (n == 1) {
			r = e
			break
		}
	}
	p0, p1, p2 := tri[r], tri[(r+1)%3], tri[(r+2)%3]
	if n == 1 {
		m := mid[r]
		return append(dst, p0, m, p2, m, p1, p2)
	}

	m1, m2 := mid[(r+1)%3], mid[(r+2)%3]
	dst = append(dst, m2, m1, p2)
	// Cut the remaining quad p0 p1 m1 m2 along its shorter diagonal.
	if sqDist(pts[p0], pts[m1]) <= sqDist(pts[p1], pts[m2]) {
		return append(dst, p0, p1, m1, p0, m1, m2)
	}
	return append(dst, p0, p1, m2, p1, m1, m2)
}

func edgeKey(a, b uint32) [2]uint32 {
	if b < a {
		return [2]uint32{b, a}
	}
	return [2]uint32{a, b}
}

func sqDist(a, b r2.Point) float64 {
	d := a.Sub(b)
	return d.Dot(d)
}

// MaxEdge returns the longest planar edge in m.
func MaxEdge(m Mesh) float64 {
	var longest float64
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a, b, c := m.Vertices[m.Indices[t]], m.Vertices[m.Indices[t+1]], m.Vertices[m.Indices[t+2]]
		longest = math.Max(longest, math.Max(sqDist(a, b), math.Max(sqDist(b, c), sqDist(c, a))))
	}
	return math.Sqrt(longest)
}

// Normals returns area-weighted vertex normals for an indexed triangle mesh.
// Vertices no triangle references get a zero normal.
func Normals(positions []r3.Vector, indices []uint32) []r3.Vector {
	normals := make([]r3.Vector, len(positions))
	for t := 0; t+2 < len(indices); t += 3 {
		a, b, c := indices[t], indices[t+1], indices[t+2]
		n := positions[b].Sub(positions[a]).Cross(positions[c].Sub(positions[a]))
		normals[a] = normals[a].Add(n)
		normals[b] = normals[b].Add(n)
		normals[c] = normals[c].Add(n)
	}
	for i, n := range normals {
		if n.Norm2() > 0 {
			normals[i] = n.Normalize()
		}
	}
	return normals
}
