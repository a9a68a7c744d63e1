package tess

import (
	"math"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
)

var square = []orb.Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

func meshArea(m Mesh) (total float64, allSign int) {
	allSign = 0
	for t := 0; t+2 < len(m.Indices); t += 3 {
		a := triangleArea(m.Vertices[m.Indices[t]], m.Vertices[m.Indices[t+1]], m.Vertices[m.Indices[t+2]])
		total += a
		s := sign(a)
		if s == 0 {
			continue
		}
		if allSign == 0 {
			allSign = s
		} else if allSign != s {
			allSign = 2
		}
	}
	return total, allSign
}

func TestOpenRing(t *testing.T) {
	closed := append(append([]orb.Point(nil), square...), square[0])
	if got := OpenRing(closed); len(got) != 4 {
		t.Errorf("OpenRing(closed) has %d points, want 4", len(got))
	}
	if got := OpenRing(square); len(got) != 4 {
		t.Errorf("OpenRing(open) has %d points, want 4", len(got))
	}
	if got := OpenRing(nil); got != nil {
		t.Errorf("OpenRing(nil) = %v", got)
	}
}

func TestDensify(t *testing.T) {
	pts := Densify(square, DefaultDivisions)
	if len(pts) != 400 {
		t.Fatalf("len = %d, want 400", len(pts))
	}
	if pts[0] != square[0] || pts[100] != square[1] || pts[200] != square[2] || pts[300] != square[3] {
		t.Error("ring vertices are not at multiples of the division count")
	}
	// Closing edge from (0,10) back down to (0,0).
	last := pts[399]
	if math.Abs(last.Lon()) > 1e-12 || math.Abs(last.Lat()-0.1) > 1e-12 {
		t.Errorf("last densified point = %v, want (0, 0.1)", last)
	}
}

func TestMeanOfDensifiedSquare(t *testing.T) {
	c := Mean(Densify(square, DefaultDivisions))
	if math.Abs(c.Lon()-5) > 1e-9 || math.Abs(c.Lat()-5) > 1e-9 {
		t.Errorf("centroid = %v, want (5, 5)", c)
	}
	if got := Mean(nil); got != (orb.Point{}) {
		t.Errorf("Mean(nil) = %v", got)
	}
}

func TestPlanarSwapsAxes(t *testing.T) {
	got := Planar([]orb.Point{{30, 60}})
	if got[0] != (r2.Point{X: 60, Y: 30}) {
		t.Errorf("Planar = %v, want (60, 30)", got[0])
	}
}

func TestTriangulate(t *testing.T) {
	tests := []struct {
		name  string
		outer []r2.Point
		holes [][]r2.Point
		area  float64
	}{
		{
			name:  "square",
			outer: []r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
			area:  100,
		},
		{
			name:  "clockwise square",
			outer: []r2.Point{{X: 0, Y: 0}, {X: 0, Y: 10}, {X: 10, Y: 10}, {X: 10, Y: 0}},
			area:  100,
		},
		{
			name:  "concave",
			outer: []r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 5, Y: 3}, {X: 0, Y: 10}},
			area:  65,
		},
		{
			name:  "square with hole",
			outer: []r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
			holes: [][]r2.Point{{{X: 4, Y: 4}, {X: 6, Y: 4}, {X: 6, Y: 6}, {X: 4, Y: 6}}},
			area:  96,
		},
		{
			name:  "densified square",
			outer: Planar(Densify(square, DefaultDivisions)),
			area:  100,
		},
		{
			name:  "densified square with densified hole",
			outer: Planar(Densify(square, DefaultDivisions)),
			holes: [][]r2.Point{Planar(Densify([]orb.Point{{2, 2}, {2, 4}, {4, 4}, {4, 2}}, DefaultDivisions))},
			area:  96,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := Triangulate(tt.outer, tt.holes)
			if len(idx)%3 != 0 || len(idx) == 0 {
				t.Fatalf("got %d indices", len(idx))
			}
			all := append([]r2.Point(nil), tt.outer...)
			for _, h := range tt.holes {
				all = append(all, h...)
			}
			var total float64
			for i := 0; i < len(idx); i += 3 {
				total += math.Abs(triangleArea(all[idx[i]], all[idx[i+1]], all[idx[i+2]]))
			}
			if math.Abs(total-tt.area) > 1e-6 {
				t.Errorf("triangulated area = %v, want %v", total, tt.area)
			}
		})
	}
}

func TestTriangulateDegenerate(t *testing.T) {
	if idx := Triangulate([]r2.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}, nil); len(idx) != 0 {
		t.Errorf("two points produced %d indices", len(idx))
	}
}

func TestBuildKeepsOuterWinding(t *testing.T) {
	for _, ring := range [][]orb.Point{square, {{0, 0}, {0, 10}, {10, 10}, {10, 0}}} {
		outer := Planar(Densify(ring, DefaultDivisions))
		m := Build(outer, nil, DefaultMaxEdge, DefaultPasses)
		total, s := meshArea(m)
		if s != sign(ringArea(outer)) {
			t.Errorf("triangle winding %d does not match outer ring %v", s, ringArea(outer))
		}
		if math.Abs(math.Abs(total)-100) > 1e-6 {
			t.Errorf("area = %v, want 100", total)
		}
	}
}

func TestBuildRefinesEdges(t *testing.T) {
	outer := Planar(Densify(square, DefaultDivisions))
	coarse := Build(outer, nil, DefaultMaxEdge, 0)
	m := Build(outer, nil, DefaultMaxEdge, DefaultPasses)
	if len(m.Indices) <= len(coarse.Indices) {
		t.Errorf("refined mesh has %d indices, coarse has %d", len(m.Indices), len(coarse.Indices))
	}
	if MaxEdge(m) >= MaxEdge(coarse) {
		t.Errorf("longest edge %v not shorter than coarse %v", MaxEdge(m), MaxEdge(coarse))
	}
	for _, i := range m.Indices {
		if int(i) >= len(m.Vertices) {
			t.Fatalf("index %d out of range %d", i, len(m.Vertices))
		}
	}
}

func TestTessellate(t *testing.T) {
	base := Mesh{
		Vertices: []r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}},
		Indices:  []uint32{0, 1, 2},
	}
	tests := []struct {
		name    string
		maxEdge float64
		passes  int
		tris    int
	}{
		{"no passes", 4, 0, 1},
		{"one pass", 4, 1, 4},
		{"long edge only", 12, 1, 2},
		{"already short", 20, 8, 1},
		{"disabled", 0, 8, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Tessellate(base, tt.maxEdge, tt.passes)
			if got := len(m.Indices) / 3; got != tt.tris {
				t.Errorf("triangles = %d, want %d", got, tt.tris)
			}
			total, _ := meshArea(m)
			if math.Abs(total-50) > 1e-9 {
				t.Errorf("area = %v, want 50", total)
			}
		})
	}
	if len(base.Indices) != 3 {
		t.Error("Tessellate modified its input")
	}
}

func TestTessellateSharesMidpoints(t *testing.T) {
	// Two triangles sharing the diagonal split it once.
	m := Mesh{
		Vertices: []r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
	}
	tests := []struct {
		name     string
		maxEdge  float64
		vertices int
		tris     int
	}{
		{"every edge", 4, 9, 8},
		{"diagonal only", 12, 5, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Tessellate(m, tt.maxEdge, 1)
			if got := len(out.Vertices); got != tt.vertices {
				t.Errorf("vertices = %d, want %d", got, tt.vertices)
			}
			if got := len(out.Indices) / 3; got != tt.tris {
				t.Errorf("triangles = %d, want %d", got, tt.tris)
			}
			total, s := meshArea(out)
			if math.Abs(total-100) > 1e-9 || s != 1 {
				t.Errorf("area = %v winding = %d, want 100 and 1", total, s)
			}
		})
	}
}

func TestTessellateMixedSplits(t *testing.T) {
	tests := []struct {
		name    string
		verts   []r2.Point
		maxEdge float64
		tris    int
	}{
		{"two edges", []r2.Point{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 2, Y: 10}}, 5, 3},
		{"one edge", []r2.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 1}}, 6, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Tessellate(Mesh{Vertices: tt.verts, Indices: []uint32{0, 1, 2}}, tt.maxEdge, 1)
			if got := len(m.Indices) / 3; got != tt.tris {
				t.Errorf("triangles = %d, want %d", got, tt.tris)
			}
			want := triangleArea(tt.verts[0], tt.verts[1], tt.verts[2])
			total, s := meshArea(m)
			if math.Abs(total-want) > 1e-9 || s != 1 {
				t.Errorf("area = %v winding = %d, want %v and 1", total, s, want)
			}
		})
	}
}

// edgeUse counts the triangles using each undirected edge of m.
func edgeUse(m Mesh) map[[2]uint32]int {
	use := make(map[[2]uint32]int)
	for t := 0; t+2 < len(m.Indices); t += 3 {
		for e := range 3 {
			use[edgeKey(m.Indices[t+e], m.Indices[t+(e+1)%3])]++
		}
	}
	return use
}

func TestBuildIsConforming(t *testing.T) {
	big := []orb.Point{{0, 0}, {30, 0}, {30, 30}, {0, 30}}
	tests := []struct {
		name  string
		holes [][]orb.Point
	}{
		{"square", nil},
		{"square with hole", [][]orb.Point{{{10, 10}, {10, 20}, {20, 20}, {20, 10}}}},
	}
	onBoundary := func(p r2.Point, rings [][]orb.Point) bool {
		for _, ring := range rings {
			x0, y0 := ring[0].Lat(), ring[0].Lon()
			x1, y1 := ring[2].Lat(), ring[2].Lon()
			inX := p.X >= math.Min(x0, x1)-1e-9 && p.X <= math.Max(x0, x1)+1e-9
			inY := p.Y >= math.Min(y0, y1)-1e-9 && p.Y <= math.Max(y0, y1)+1e-9
			onX := math.Abs(p.X-x0) < 1e-9 || math.Abs(p.X-x1) < 1e-9
			onY := math.Abs(p.Y-y0) < 1e-9 || math.Abs(p.Y-y1) < 1e-9
			if (onX && inY) || (onY && inX) {
				return true
			}
		}
		return false
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var holes [][]r2.Point
			for _, h := range tt.holes {
				holes = append(holes, Planar(Densify(h, DefaultDivisions)))
			}
			m := Build(Planar(Densify(big, DefaultDivisions)), holes, DefaultMaxEdge, DefaultPasses)
			rings := append([][]orb.Point{big}, tt.holes...)

			var perimeter float64
			for edge, n := range edgeUse(m) {
				a, b := m.Vertices[edge[0]], m.Vertices[edge[1]]
				switch {
				case n > 2:
					t.Fatalf("edge %v-%v used by %d triangles", a, b, n)
				case n == 1:
					// A once-used edge off the outline is a crack.
					mid := a.Add(b).Mul(0.5)
					if !onBoundary(a, rings) || !onBoundary(b, rings) || !onBoundary(mid, rings) {
						t.Fatalf("open edge %v-%v is inside the polygon", a, b)
					}
					perimeter += math.Sqrt(sqDist(a, b))
				}
			}
			want := 120.0
			if len(tt.holes) > 0 {
				want += 40
			}
			if math.Abs(perimeter-want) > 1e-6 {
				t.Errorf("open edges total %v, want the outline length %v", perimeter, want)
			}
		})
	}
}

func TestNormals(t *testing.T) {
	pos := []r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 5, Y: 5, Z: 5}}
	n := Normals(pos, []uint32{0, 1, 2})
	for i := 0; i < 3; i++ {
		if n[i].Sub(r3.Vector{Z: 1}).Norm() > 1e-12 {
			t.Errorf("normal[%d] = %v, want +z", i, n[i])
		}
	}
	if n[3] != (r3.Vector{}) {
		t.Errorf("unreferenced normal = %v, want zero", n[3])
	}
}
