package globe

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/gogpu/globe/internal/sphere"
	"github.com/gogpu/globe/internal/tess"
)

// markerSegments is the side count of dotted-line cylinders.
const markerSegments = 12

// markerStride returns how many samples separate consecutive markers:
// size*10, at least one.
func markerStride(size float64) int {
	gap := int(math.Round(size * 10))
	if gap < 1 {
		gap = 1
	}
	return gap
}

// lineGeometry turns projected line samples into a drawable. Plain lines
// become a single *Line; the other line types become a group of oriented
// marker meshes, one per stride.
func lineGeometry(name string, pts []r3.Vector, style StyleOptions) Primitive {
	switch style.LineType {
	case LineDashed, LineDotted, LineArrows:
	default:
		return &Line{Name: name, Points: pts, Color: style.Color, Width: style.Size}
	}

	g := &Group{Name: name + "/" + style.LineType.String()}
	gap := markerStride(style.Size)
	for i := 0; i < len(pts)-1; i += gap {
		j := min(i+gap, len(pts)-1)
		f, ok := markerFrame(pts[i], pts[j])
		if !ok {
			continue
		}
		dist := pts[j].Sub(pts[i]).Norm()
		g.Children = append(g.Children, markerMesh(name, style, f, dist))
	}
	return g
}

// markerFrame orients a marker at cur so its up axis is the outward normal
// and its forward axis points at next projected onto the tangent plane.
// It fails when cur is the origin or next lies straight above or below.
func markerFrame(cur, next r3.Vector) (Frame, bool) {
	if cur.Norm2() == 0 {
		return Frame{}, false
	}
	up := cur.Normalize()
	onPlane := next.Sub(up.Mul(next.Sub(cur).Dot(up)))
	fwd := onPlane.Sub(cur)
	if fwd.Norm() < 1e-12 {
		return Frame{}, false
	}
	fwd = fwd.Normalize()
	right := up.Cross(fwd)

	q := sphere.QuatFromBasis(right, up, fwd)
	return Frame{
		Origin:      cur,
		Forward:     fwd,
		Up:          up,
		Orientation: [4]float64{q.X, q.Y, q.Z, q.W},
	}, true
}

// solid collects a triangle soup for a marker. Vertices are not shared so
// computed normals are flat per face.
type solid struct {
	frame Frame
	right r3.Vector
	pos   []r3.Vector
	idx   []uint32
}

func newSolid(f Frame) *solid {
	return &solid{frame: f, right: f.Up.Cross(f.Forward)}
}

// at maps local marker coordinates (x right, y up, z forward) to world space.
func (s *solid) at(x, y, z float64) r3.Vector {
	return s.frame.Origin.
		Add(s.right.Mul(x)).
		Add(s.frame.Up.Mul(y)).
		Add(s.frame.Forward.Mul(z))
}

func (s *solid) tri(a, b, c r3.Vector) {
	base := uint32(len(s.pos))
	s.pos = append(s.pos, a, b, c)
	s.idx = append(s.idx, base, base+1, base+2)
}

func (s *solid) quad(a, b, c, d r3.Vector) {
	s.tri(a, b, c)
	s.tri(a, c, d)
}

func markerMesh(name string, style StyleOptions, f Frame, dist float64) *Mesh {
	s := newSolid(f)
	h := style.Depth
	switch style.LineType {
	case LineDashed:
		box(s, style.Size/2, h, dist/2)
		name += "/dash"
	case LineDotted:
		cylinder(s, style.Size/2, h, markerSegments)
		name += "/dot"
	default:
		arrow(s, style.Size, h, math.Min(2*style.Size, dist))
		name += "/arrow"
	}

	frame := f
	return &Mesh{
		Name:      name,
		Positions: s.pos,
		Normals:   tess.Normals(s.pos, s.idx),
		Indices:   s.idx,
		Color:     style.Color,
		Material:  MaterialBasic,
		Frame:     &frame,
	}
}

// box spans x in [-w, w], y in [0, h] and z in [0, l].
func box(s *solid, w, h, l float64) {
	s.quad(s.at(-w, h, 0), s.at(-w, h, l), s.at(w, h, l), s.at(w, h, 0))
	s.quad(s.at(-w, 0, 0), s.at(w, 0, 0), s.at(w, 0, l), s.at(-w, 0, l))
	s.quad(s.at(-w, 0, l), s.at(w, 0, l), s.at(w, h, l), s.at(-w, h, l))
	s.quad(s.at(-w, 0, 0), s.at(-w, h, 0), s.at(w, h, 0), s.at(w, 0, 0))
	s.quad(s.at(w, 0, 0), s.at(w, h, 0), s.at(w, h, l), s.at(w, 0, l))
	s.quad(s.at(-w, 0, 0), s.at(-w, 0, l), s.at(-w, h, l), s.at(-w, h, 0))
}

// cylinder stands on the origin along the up axis.
func cylinder(s *solid, r, h float64, segments int) {
	ring := func(k int, y float64) r3.Vector {
		sin, cos := math.Sincos(2 * math.Pi * float64(k) / float64(segments))
		return s.at(r*cos, y, r*sin)
	}
	top, bottom := s.at(0, h, 0), s.at(0, 0, 0)
	for k := 0; k < segments; k++ {
		s.quad(ring(k, 0), ring(k, h), ring(k+1, h), ring(k+1, 0))
		s.tri(top, ring(k+1, h), ring(k, h))
		s.tri(bottom, ring(k, 0), ring(k+1, 0))
	}
}

// arrow is a triangular prism with its tip l ahead of the origin.
func arrow(s *solid, w, h, l float64) {
	type xz struct{ x, z float64 }
	left, tip, right := xz{-w, 0}, xz{0, l}, xz{w, 0}

	s.tri(s.at(left.x, h, left.z), s.at(tip.x, h, tip.z), s.at(right.x, h, right.z))
	s.tri(s.at(left.x, 0, left.z), s.at(right.x, 0, right.z), s.at(tip.x, 0, tip.z))
	for _, e := range [][2]xz{{left, tip}, {tip, right}, {right, left}} {
		p, q := e[0], e[1]
		s.quad(s.at(p.x, 0, p.z), s.at(q.x, 0, q.z), s.at(q.x, h, q.z), s.at(p.x, h, p.z))
	}
}
