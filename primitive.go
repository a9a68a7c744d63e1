package globe

import (
	"image/color"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/language"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Primitive is a node of a built primitive tree: *Group, *Mesh, *Line or
// *Label. Trees are plain data; nothing in them refers back to the engine.
type Primitive interface {
	primitive()
}

// Material names the shading preset a renderer should use for a mesh.
type Material uint8

const (
	// MaterialBasic is unlit, single-sided shading used for markers.
	MaterialBasic Material = iota
	// MaterialSurface is unlit, double-sided shading used for polygons.
	MaterialSurface
	// MaterialEarth is the textured base sphere.
	MaterialEarth
	// MaterialAtmosphere is the additive back-side glow shell.
	MaterialAtmosphere
)

func (m Material) String() string {
	switch m {
	case MaterialSurface:
		return "surface"
	case MaterialEarth:
		return "earth"
	case MaterialAtmosphere:
		return "atmosphere"
	}
	return "basic"
}

// Group is an interior node.
type Group struct {
	Name     string
	Children []Primitive
}

// Frame is the placement of a line-style marker.
type Frame struct {
	Origin  r3.Vector
	Forward r3.Vector
	Up      r3.Vector
	// Orientation rotates the marker's local axes (X right, Y up, Z
	// forward) onto the world basis, stored as x, y, z, w.
	Orientation [4]float64
}

// Mesh is an indexed triangle mesh with positions in world space.
type Mesh struct {
	Name      string
	Positions []r3.Vector
	Normals   []r3.Vector
	// UVs are set only for the base sphere meshes.
	UVs      []r2.Point
	Indices  []uint32
	Color    color.RGBA
	Material Material
	// Texture is the image path for MaterialEarth meshes.
	Texture string
	// Frame is set for line-style markers.
	Frame *Frame
}

// Line is a polyline through Points.
type Line struct {
	Name   string
	Points []r3.Vector
	Color  color.RGBA
	Width  float64
}

// Label is a text billboard anchored at a point on the globe.
type Label struct {
	Text   string
	Anchor r3.Vector
	// Width and Height are the billboard extent in world units.
	Width, Height float64
	// Align is 0 when the text starts at the anchor and 1 when it ends
	// there, as for right-to-left text.
	Align     float64
	Direction di.Direction
	Script    language.Script
	Color     color.RGBA
}

func (*Group) primitive() {}
func (*Mesh) primitive()  {}
func (*Line) primitive()  {}
func (*Label) primitive() {}

// Walk calls fn for p and every descendant, depth first. Returning false
// from fn skips the children of that node.
func Walk(p Primitive, fn func(Primitive) bool) {
	if p == nil || !fn(p) {
		return
	}
	if g, ok := p.(*Group); ok {
		for _, c := range g.Children {
			Walk(c, fn)
		}
	}
}

// Meshes returns every leaf mesh under p in depth-first order.
func Meshes(p Primitive) []*Mesh {
	var out []*Mesh
	Walk(p, func(n Primitive) bool {
		if m, ok := n.(*Mesh); ok {
			out = append(out, m)
		}
		return true
	})
	return out
}

// Vertices returns the number of vertices under p, counting line points.
func Vertices(p Primitive) int {
	n := 0
	Walk(p, func(node Primitive) bool {
		switch v := node.(type) {
		case *Mesh:
			n += len(v.Positions)
		case *Line:
			n += len(v.Points)
		}
		return true
	})
	return n
}
