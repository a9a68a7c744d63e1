package globe

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"

	"github.com/gogpu/globe/internal/sample"
	"github.com/gogpu/globe/internal/sphere"
	"github.com/gogpu/globe/internal/tess"
)

// AddPoint builds a point marker sphere.
func (g *Globe) AddPoint(ctx context.Context, p orb.Point, style Style) (*Handle, error) {
	return g.add(ctx, KindPoint, p, nil, style)
}

// AddMultiPoint builds one marker sphere per point.
func (g *Globe) AddMultiPoint(ctx context.Context, mp orb.MultiPoint, style Style) (*Handle, error) {
	return g.add(ctx, KindMultiPoint, mp.Clone(), nil, style)
}

// AddLineString builds a densified line.
func (g *Globe) AddLineString(ctx context.Context, ls orb.LineString, style Style) (*Handle, error) {
	return g.add(ctx, KindLineString, ls.Clone(), nil, style)
}

// AddMultiLineString builds one densified line per member.
func (g *Globe) AddMultiLineString(ctx context.Context, mls orb.MultiLineString, style Style) (*Handle, error) {
	return g.add(ctx, KindMultiLineString, mls.Clone(), nil, style)
}

// AddPolygon builds a tessellated surface. The first ring is the outer
// boundary, the rest are holes.
func (g *Globe) AddPolygon(ctx context.Context, poly orb.Polygon, style Style) (*Handle, error) {
	return g.add(ctx, KindPolygon, poly.Clone(), nil, style)
}

// AddMultiPolygon builds one surface per part. Parts are tessellated in
// parallel.
func (g *Globe) AddMultiPolygon(ctx context.Context, mp orb.MultiPolygon, style Style) (*Handle, error) {
	return g.add(ctx, KindMultiPolygon, mp.Clone(), nil, style)
}

func (g *Globe) add(ctx context.Context, kind Kind, geom orb.Geometry, props map[string]any, override Style) (*Handle, error) {
	if err := g.await(ctx); err != nil {
		return nil, err
	}

	s := ResolveStyle(kind, props, override)
	h, err := g.build(kind, geom, s)
	if err != nil {
		return nil, err
	}
	if err := g.reg.add(h); err != nil {
		return nil, err
	}

	g.metrics.built.WithLabelValues(kind.String()).Inc()
	g.metrics.active.Set(float64(g.reg.Len()))
	Logger().Debug("globe: built geometry",
		"id", h.ID,
		"kind", kind.String(),
		"vertices", Vertices(h.Root))
	return h, nil
}

func (g *Globe) build(kind Kind, geom orb.Geometry, s StyleOptions) (*Handle, error) {
	switch v := geom.(type) {
	case orb.Point:
		if kind == KindPoint {
			return g.buildPoint(v, s), nil
		}
	case orb.MultiPoint:
		if kind == KindMultiPoint {
			return g.buildMultiPoint(v, s)
		}
	case orb.LineString:
		if kind == KindLineString {
			return g.buildLineString(v, s)
		}
	case orb.MultiLineString:
		if kind == KindMultiLineString {
			return g.buildMultiLineString(v, s)
		}
	case orb.Polygon:
		if kind == KindPolygon {
			return g.buildPolygon(v, s)
		}
	case orb.MultiPolygon:
		if kind == KindMultiPolygon {
			return g.buildMultiPolygon(v, s)
		}
	}
	return nil, fmt.Errorf("%w: %s feature holds %T", ErrMalformedGeometry, kind, geom)
}

func (g *Globe) withLabel(root *Group, s StyleOptions, anchor orb.Point, radius float64) {
	if s.Label == "" {
		return
	}
	at := sphere.ProjectPoint(anchor, radius)
	root.Children = append(root.Children, newLabel(s.Label, at, g.cfg.LabelHeight, s.Color))
}

// Points

func (g *Globe) pointMesh(p orb.Point, s StyleOptions) *Mesh {
	center := sphere.ProjectPoint(p, g.cfg.Radius+s.SurfaceOffset)
	surf := sphere.UVSphere(s.Size, g.cfg.PointSegments, g.cfg.PointSegments).Translated(center)
	return &Mesh{
		Name:      "point",
		Positions: surf.Positions,
		Normals:   surf.Normals,
		Indices:   surf.Indices,
		Color:     s.Color,
		Material:  MaterialBasic,
	}
}

func (g *Globe) buildPoint(p orb.Point, s StyleOptions) *Handle {
	root := &Group{Name: "point", Children: []Primitive{g.pointMesh(p, s)}}
	g.withLabel(root, s, p, g.cfg.Radius+s.SurfaceOffset)
	return &Handle{Kind: KindPoint, Root: root, Style: s, Anchor: p}
}

func (g *Globe) buildMultiPoint(mp orb.MultiPoint, s StyleOptions) (*Handle, error) {
	if len(mp) == 0 {
		return nil, &GeometryError{Kind: KindMultiPoint, Part: -1, Ring: -1, Points: 0, Min: 1}
	}
	points := &Group{Name: "points", Children: make([]Primitive, 0, len(mp))}
	for _, p := range mp {
		points.Children = append(points.Children, g.pointMesh(p, s))
	}
	anchor := tess.Mean(mp)
	root := &Group{Name: "multipoint", Children: []Primitive{points}}
	g.withLabel(root, s, anchor, g.cfg.Radius+s.SurfaceOffset)
	return &Handle{Kind: KindMultiPoint, Root: root, Style: s, Anchor: anchor}, nil
}

// Lines

func checkLine(kind Kind, part int, ls orb.LineString) error {
	if len(ls) < 2 {
		return &GeometryError{Kind: kind, Part: part, Ring: -1, Points: len(ls), Min: 2}
	}
	return nil
}

// samplePath densifies a line and appends its final vertex.
func (g *Globe) samplePath(ls orb.LineString) []orb.Point {
	var pts []orb.Point
	if g.cfg.LineSampling == Linear {
		pts = sample.Linear(ls, g.cfg.LinearDivisions)
	} else {
		pts = sample.GreatCircle(ls, g.cfg.GreatCircleDensity)
	}
	return append(pts, ls[len(ls)-1])
}

func (g *Globe) lineParts(name string, ls orb.LineString, s StyleOptions) (Primitive, orb.Point) {
	samples := g.samplePath(ls)
	r := g.cfg.Radius + s.SurfaceOffset
	pts := make([]r3.Vector, len(samples))
	for i, p := range samples {
		pts[i] = sphere.ProjectPoint(p, r)
	}
	Logger().Debug("globe: sampled line", "vertices", len(ls), "samples", len(samples), "sampling", g.cfg.LineSampling.String())
	return lineGeometry(name, pts, s), samples[len(samples)/2]
}

func (g *Globe) buildLineString(ls orb.LineString, s StyleOptions) (*Handle, error) {
	if err := checkLine(KindLineString, -1, ls); err != nil {
		return nil, err
	}
	geom, mid := g.lineParts("line", ls, s)
	root := &Group{Name: "linestring", Children: []Primitive{geom}}
	g.withLabel(root, s, mid, g.cfg.Radius+s.SurfaceOffset)
	return &Handle{
		Kind:   KindLineString,
		Root:   root,
		Style:  s,
		Anchor: mid,
		Length: sphere.PathLength(ls, g.cfg.Radius),
	}, nil
}

func (g *Globe) buildMultiLineString(mls orb.MultiLineString, s StyleOptions) (*Handle, error) {
	if len(mls) == 0 {
		return nil, &GeometryError{Kind: KindMultiLineString, Part: -1, Ring: -1, Points: 0, Min: 1}
	}
	for i, ls := range mls {
		if err := checkLine(KindMultiLineString, i, ls); err != nil {
			return nil, err
		}
	}

	lines := &Group{Name: "lines", Children: make([]Primitive, 0, len(mls))}
	var anchor orb.Point
	var length float64
	for i, ls := range mls {
		geom, mid := g.lineParts("line", ls, s)
		if i == 0 {
			anchor = mid
		}
		lines.Children = append(lines.Children, geom)
		length += sphere.PathLength(ls, g.cfg.Radius)
	}
	root := &Group{Name: "multilinestring", Children: []Primitive{lines}}
	g.withLabel(root, s, anchor, g.cfg.Radius+s.SurfaceOffset)
	return &Handle{Kind: KindMultiLineString, Root: root, Style: s, Anchor: anchor, Length: length}, nil
}

// Polygons

func checkPolygon(kind Kind, part int, poly orb.Polygon) error {
	if len(poly) == 0 {
		return &GeometryError{Kind: kind, Part: part, Ring: 0, Points: 0, Min: 3}
	}
	for i, ring := range poly {
		if n := len(tess.OpenRing(ring)); n < 3 {
			return &GeometryError{Kind: kind, Part: part, Ring: i, Points: n, Min: 3}
		}
	}
	return nil
}

// surface densifies, triangulates, tessellates and projects one polygon.
// It returns the mesh and the densified outer ring.
func (g *Globe) surface(poly orb.Polygon, s StyleOptions) (*Mesh, []orb.Point) {
	start := time.Now()
	divs := g.cfg.PolygonDivisions

	outer := tess.Densify(tess.OpenRing(poly[0]), divs)
	holes := make([][]r2.Point, 0, len(poly)-1)
	for _, ring := range poly[1:] {
		holes = append(holes, tess.Planar(tess.Densify(tess.OpenRing(ring), divs)))
	}
	planar := tess.Build(tess.Planar(outer), holes, g.cfg.TessellationMaxEdge, g.cfg.TessellationPasses)

	r := g.cfg.Radius*g.cfg.SurfaceInflation + s.SurfaceOffset
	positions := make([]r3.Vector, len(planar.Vertices))
	for i, v := range planar.Vertices {
		positions[i] = sphere.ProjectPlanar(v.X, v.Y, r)
	}
	m := &Mesh{
		Name:      "surface",
		Positions: positions,
		Normals:   tess.Normals(positions, planar.Indices),
		Indices:   planar.Indices,
		Color:     s.Color,
		Material:  MaterialSurface,
	}

	elapsed := time.Since(start)
	g.metrics.tessellation.Observe(elapsed.Seconds())
	Logger().Debug("globe: tessellated polygon",
		"rings", len(poly),
		"vertices", len(positions),
		"triangles", len(planar.Indices)/3,
		"elapsed", elapsed)
	return m, outer
}

func (g *Globe) buildPolygon(poly orb.Polygon, s StyleOptions) (*Handle, error) {
	if err := checkPolygon(KindPolygon, -1, poly); err != nil {
		return nil, err
	}
	m, outer := g.surface(poly, s)
	centroid := tess.Mean(outer)

	root := &Group{Name: "polygon", Children: []Primitive{&Group{Name: "surface", Children: []Primitive{m}}}}
	g.withLabel(root, s, centroid, g.cfg.Radius+s.SurfaceOffset)
	return &Handle{Kind: KindPolygon, Root: root, Style: s, Anchor: centroid}, nil
}

func (g *Globe) buildMultiPolygon(mp orb.MultiPolygon, s StyleOptions) (*Handle, error) {
	if len(mp) == 0 {
		return nil, &GeometryError{Kind: KindMultiPolygon, Part: -1, Ring: -1, Points: 0, Min: 1}
	}
	for i, poly := range mp {
		if err := checkPolygon(KindMultiPolygon, i, poly); err != nil {
			return nil, err
		}
	}

	meshes := make([]*Mesh, len(mp))
	outers := make([][]orb.Point, len(mp))
	g.pool.Map(len(mp), func(i int) {
		meshes[i], outers[i] = g.surface(mp[i], s)
	})

	surfaces := &Group{Name: "surfaces", Children: make([]Primitive, 0, len(mp))}
	var all []orb.Point
	for i, m := range meshes {
		surfaces.Children = append(surfaces.Children, m)
		all = append(all, outers[i]...)
	}
	centroid := tess.Mean(all)

	root := &Group{Name: "multipolygon", Children: []Primitive{surfaces}}
	g.withLabel(root, s, centroid, g.cfg.Radius+s.SurfaceOffset)
	return &Handle{Kind: KindMultiPolygon, Root: root, Style: s, Anchor: centroid}, nil
}
