package globe

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb/geojson"
	"github.com/tidwall/gjson"
)

const (
	typeFeature           = "Feature"
	typeFeatureCollection = "FeatureCollection"
)

// ErrInvalidDocument is returned by Decode for input that is not JSON.
var ErrInvalidDocument = errors.New("globe: invalid GeoJSON document")

// Decode parses a GeoJSON Feature or FeatureCollection.
//
// The type discriminators are read before any geometry is decoded, so a
// feature whose geometry type is not recognized (for example "Circle")
// decodes with a nil Geometry and is skipped when added, instead of failing
// the whole document. A recognized geometry that cannot be decoded is
// reported as ErrMalformedGeometry when the feature is added.
func Decode(data []byte) (Document, error) {
	if !gjson.ValidBytes(data) {
		return Document{}, ErrInvalidDocument
	}
	root := gjson.ParseBytes(data)
	typ := root.Get("type").String()

	switch typ {
	case typeFeature:
		f, err := decodeFeature(root)
		if err != nil {
			return Document{}, err
		}
		return Document{Type: typ, Feature: &f}, nil

	case typeFeatureCollection:
		fc := &FeatureCollection{}
		var err error
		root.Get("features").ForEach(func(_, v gjson.Result) bool {
			var f Feature
			if f, err = decodeFeature(v); err != nil {
				err = fmt.Errorf("feature %d: %w", len(fc.Features), err)
				return false
			}
			fc.Features = append(fc.Features, f)
			return true
		})
		if err != nil {
			return Document{}, err
		}
		return Document{Type: typ, Collection: fc}, nil
	}
	return Document{Type: typ}, fmt.Errorf("%w: %q", ErrUnsupportedTopLevelKind, typ)
}

func decodeFeature(v gjson.Result) (Feature, error) {
	geom := v.Get("geometry")
	f := Feature{Type: geom.Get("type").String()}

	if props := v.Get("properties"); props.IsObject() {
		if err := json.Unmarshal([]byte(props.Raw), &f.Properties); err != nil {
			return Feature{}, fmt.Errorf("%w: properties: %w", ErrInvalidDocument, err)
		}
	}

	if _, ok := ParseKind(f.Type); !ok {
		return f, nil
	}
	g, err := geojson.UnmarshalGeometry([]byte(geom.Raw))
	if err != nil {
		f.decodeErr = fmt.Errorf("%w: %s: %w", ErrMalformedGeometry, f.Type, err)
		return f, nil
	}
	f.Geometry = g.Geometry()
	return f, nil
}
