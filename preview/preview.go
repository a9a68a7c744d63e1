// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package preview draws globe primitive trees to an image with gg.
//
// A Renderer is a globe.SceneGraph that keeps attached trees in memory and
// rasterizes them on demand with an orthographic camera looking at the
// globe from far away. Triangles on the far hemisphere are culled and the
// rest are painted back to front. It is meant for thumbnails, tests and
// the globeview command, not for interactive use.
package preview

import (
	"cmp"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"slices"
	"sync"

	"github.com/gogpu/gg"
	"github.com/golang/geo/r3"

	"github.com/gogpu/globe"
)

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the image size in pixels. The default is 512x512.
func WithSize(width, height int) Option {
	return func(r *Renderer) {
		r.width, r.height = width, height
	}
}

// WithCenter sets the geographic point the camera looks at.
func WithCenter(lng, lat float64) Option {
	return func(r *Renderer) {
		r.lng, r.lat = lng, lat
	}
}

// WithBackground sets the clear color.
func WithBackground(c color.RGBA) Option {
	return func(r *Renderer) { r.background = c }
}

// WithLineWidth sets the stroke width of line primitives in pixels.
func WithLineWidth(w float64) Option {
	return func(r *Renderer) { r.lineWidth = w }
}

// Renderer rasterizes attached primitive trees.
//
// Thread Safety: Renderer is safe for concurrent use.
type Renderer struct {
	width, height int
	lng, lat      float64
	background    color.RGBA
	lineWidth     float64

	mu      sync.Mutex
	entries map[string]globe.Primitive
	order   []string
}

var _ globe.SceneGraph = (*Renderer)(nil)

// New returns an empty Renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		width:      512,
		height:     512,
		background: color.RGBA{R: 0x05, G: 0x08, B: 0x14, A: 0xff},
		lineWidth:  1.5,
		entries:    make(map[string]globe.Primitive),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Attach stores p under id.
func (r *Renderer) Attach(id string, p globe.Primitive) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; ok {
		return fmt.Errorf("preview: %q already attached", id)
	}
	r.entries[id] = p
	r.order = append(r.order, id)
	return nil
}

// Detach forgets id.
func (r *Renderer) Detach(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		return fmt.Errorf("preview: %q not attached", id)
	}
	delete(r.entries, id)
	r.order = slices.DeleteFunc(r.order, func(v string) bool { return v == id })
	return nil
}

// Len returns the number of attached trees.
func (r *Renderer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// IDs returns the attached ids in attach order.
func (r *Renderer) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}

// Image rasterizes the current scene.
func (r *Renderer) Image() (image.Image, error) {
	dc := gg.NewContext(r.width, r.height)
	defer dc.Close()
	if err := r.draw(dc); err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// Render writes the current scene to w as PNG.
func (r *Renderer) Render(w io.Writer) error {
	dc := gg.NewContext(r.width, r.height)
	defer dc.Close()
	if err := r.draw(dc); err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

// SavePNG writes the current scene to a PNG file.
func (r *Renderer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	if err := r.Render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// frame collects the drawable pieces of a scene in camera space.
type frame struct {
	cam    camera
	shells []shell
	tris   []triangle
	lines  [][]r3.Vector
	colors []color.RGBA
	labels []r3.Vector
	extent float64
}

type shell struct {
	radius float64
	c      color.RGBA
}

type triangle struct {
	p     [3]r3.Vector
	depth float64
	c     color.RGBA
}

func (r *Renderer) collect() *frame {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := &frame{cam: newCamera(r.lng, r.lat)}
	for _, id := range r.order {
		globe.Walk(r.entries[id], func(node globe.Primitive) bool {
			switch v := node.(type) {
			case *globe.Mesh:
				f.addMesh(v)
			case *globe.Line:
				f.addLine(v)
			case *globe.Label:
				f.labels = append(f.labels, f.cam.view(v.Anchor))
			}
			return true
		})
	}
	return f
}

func (f *frame) grow(v r3.Vector) {
	f.extent = math.Max(f.extent, v.Norm())
}

func (f *frame) addMesh(m *globe.Mesh) {
	if m.Material == globe.MaterialAtmosphere {
		var radius float64
		for _, p := range m.Positions {
			radius = math.Max(radius, p.Norm())
		}
		f.shells = append(f.shells, shell{radius: radius, c: m.Color})
		f.extent = math.Max(f.extent, radius)
		return
	}

	n := len(m.Positions)
	for i := 0; i+2 < len(m.Indices); i += 3 {
		a, b, c := int(m.Indices[i]), int(m.Indices[i+1]), int(m.Indices[i+2])
		if a >= n || b >= n || c >= n {
			continue
		}
		t := triangle{p: [3]r3.Vector{
			f.cam.view(m.Positions[a]),
			f.cam.view(m.Positions[b]),
			f.cam.view(m.Positions[c]),
		}}
		for _, p := range t.p {
			f.grow(p)
		}
		center := t.p[0].Add(t.p[1]).Add(t.p[2]).Mul(1.0 / 3)
		if center.Z < 0 {
			continue
		}
		t.depth = center.Z
		t.c = m.Color
		if m.Material == globe.MaterialEarth {
			t.c = shade(m.Color, center.Z/center.Norm())
		}
		f.tris = append(f.tris, t)
	}
}

func (f *frame) addLine(l *globe.Line) {
	pts := make([]r3.Vector, len(l.Points))
	for i, p := range l.Points {
		pts[i] = f.cam.view(p)
		f.grow(pts[i])
	}
	f.lines = append(f.lines, pts)
	f.colors = append(f.colors, l.Color)
}

func shade(c color.RGBA, facing float64) color.RGBA {
	k := 0.35 + 0.65*math.Max(0, facing)
	return color.RGBA{
		R: uint8(float64(c.R) * k),
		G: uint8(float64(c.G) * k),
		B: uint8(float64(c.B) * k),
		A: c.A,
	}
}

func setColor(dc *gg.Context, c color.RGBA, alpha float64) {
	dc.SetRGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, float64(c.A)/255*alpha)
}

func (r *Renderer) draw(dc *gg.Context) error {
	f := r.collect()

	dc.ClearWithColor(gg.RGBA{
		R: float64(r.background.R) / 255,
		G: float64(r.background.G) / 255,
		B: float64(r.background.B) / 255,
		A: float64(r.background.A) / 255,
	})
	if f.extent == 0 {
		return nil
	}

	cx, cy := float64(r.width)/2, float64(r.height)/2
	scale := 0.95 * math.Min(cx, cy) / f.extent
	screen := func(v r3.Vector) (float64, float64) {
		return cx + v.X*scale, cy - v.Y*scale
	}

	for _, s := range f.shells {
		setColor(dc, s.c, 0.2)
		dc.DrawCircle(cx, cy, s.radius*scale)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("preview: atmosphere: %w", err)
		}
	}

	slices.SortStableFunc(f.tris, func(a, b triangle) int { return cmp.Compare(a.depth, b.depth) })
	for _, t := range f.tris {
		setColor(dc, t.c, 1)
		x, y := screen(t.p[0])
		dc.MoveTo(x, y)
		for _, p := range t.p[1:] {
			x, y = screen(p)
			dc.LineTo(x, y)
		}
		dc.ClosePath()
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("preview: triangle: %w", err)
		}
	}

	dc.SetLineWidth(r.lineWidth)
	for i, pts := range f.lines {
		setColor(dc, f.colors[i], 1)
		pen := false
		for _, p := range pts {
			if p.Z < 0 {
				pen = false
				continue
			}
			x, y := screen(p)
			if pen {
				dc.LineTo(x, y)
			} else {
				dc.MoveTo(x, y)
				pen = true
			}
		}
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("preview: line: %w", err)
		}
	}

	dc.SetRGBA(1, 1, 1, 1)
	for _, a := range f.labels {
		if a.Z < 0 {
			continue
		}
		x, y := screen(a)
		dc.DrawCircle(x, y, 2)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("preview: label: %w", err)
		}
	}
	globe.Logger().Debug("preview: rendered",
		"triangles", len(f.tris),
		"lines", len(f.lines),
		"labels", len(f.labels))
	return nil
}
