package globe

import (
	"context"
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature is a geometry with an optional property bag.
type Feature struct {
	// Type is the geometry type name as given by the source document.
	// When empty it is derived from Geometry.
	Type       string
	Geometry   orb.Geometry
	Properties geojson.Properties

	decodeErr error
}

// NewFeature wraps a geometry in a Feature.
func NewFeature(g orb.Geometry, props geojson.Properties) Feature {
	return Feature{Geometry: g, Properties: props}
}

func (f Feature) typeName() string {
	if f.Type != "" {
		return f.Type
	}
	if f.Geometry != nil {
		switch f.Geometry.(type) {
		case orb.Point, orb.MultiPoint, orb.LineString, orb.MultiLineString, orb.Polygon, orb.MultiPolygon:
			return f.Geometry.GeoJSONType()
		}
		return fmt.Sprintf("%T", f.Geometry)
	}
	return ""
}

// FeatureCollection is an ordered list of features.
type FeatureCollection struct {
	Features []Feature
}

// Document is a decoded top-level GeoJSON object. Exactly one of Feature
// and Collection is set for the recognized types.
type Document struct {
	Type       string
	Feature    *Feature
	Collection *FeatureCollection
}

// AddFeature dispatches a feature to the builder of its geometry kind.
// A feature of an unsupported kind is logged and skipped: AddFeature then
// returns a nil handle and a nil error.
func (g *Globe) AddFeature(ctx context.Context, f Feature, style Style) (*Handle, error) {
	return g.addFeature(ctx, -1, f, style)
}

// addFeature dispatches f; index is its position in a collection, or -1.
func (g *Globe) addFeature(ctx context.Context, index int, f Feature, style Style) (*Handle, error) {
	if err := g.await(ctx); err != nil {
		return nil, err
	}
	name := f.typeName()
	kind, ok := ParseKind(name)
	if !ok {
		g.metrics.skipped.WithLabelValues(skipUnsupported).Inc()
		Logger().Warn("globe: skipping feature",
			"kind", name,
			"index", index,
			"err", ErrUnsupportedGeometryKind)
		return nil, nil
	}
	if f.decodeErr != nil {
		return nil, f.decodeErr
	}
	if f.Geometry == nil {
		return nil, fmt.Errorf("%w: %s feature has no coordinates", ErrMalformedGeometry, kind)
	}
	return g.add(ctx, kind, orb.Clone(f.Geometry), f.Properties, style)
}

// AddFeatureCollection adds every feature in order and returns the handles
// built. Unsupported kinds are skipped. A malformed feature stops the
// collection and its error is returned with the handles built so far,
// unless the engine was created with WithIsolateFeatureErrors(true), in
// which case it is skipped too.
func (g *Globe) AddFeatureCollection(ctx context.Context, fc FeatureCollection, style Style) ([]*Handle, error) {
	if err := g.await(ctx); err != nil {
		return nil, err
	}
	handles := make([]*Handle, 0, len(fc.Features))
	for i, f := range fc.Features {
		h, err := g.addFeature(ctx, i, f, style)
		if err != nil {
			if g.cfg.IsolateFeatureErrors && errors.Is(err, ErrMalformedGeometry) {
				g.metrics.skipped.WithLabelValues(skipMalformed).Inc()
				Logger().Warn("globe: skipping feature", "index", i, "err", err)
				continue
			}
			return handles, fmt.Errorf("globe: feature %d: %w", i, err)
		}
		if h != nil {
			handles = append(handles, h)
		}
	}
	return handles, nil
}

// AddGeoJSON adds a decoded Feature or FeatureCollection. Any other
// top-level type fails with ErrUnsupportedTopLevelKind.
func (g *Globe) AddGeoJSON(ctx context.Context, doc Document, style Style) ([]*Handle, error) {
	switch {
	case doc.Type == typeFeature && doc.Feature != nil:
		h, err := g.AddFeature(ctx, *doc.Feature, style)
		if err != nil || h == nil {
			return nil, err
		}
		return []*Handle{h}, nil
	case doc.Type == typeFeatureCollection && doc.Collection != nil:
		return g.AddFeatureCollection(ctx, *doc.Collection, style)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedTopLevelKind, doc.Type)
}

// AddGeoJSONData decodes a GeoJSON document and adds it.
func (g *Globe) AddGeoJSONData(ctx context.Context, data []byte, style Style) ([]*Handle, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return g.AddGeoJSON(ctx, doc, style)
}
