package globe

// Kind identifies one of the recognized geometry kinds.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindPoint
	KindMultiPoint
	KindLineString
	KindMultiLineString
	KindPolygon
	KindMultiPolygon
)

var kindNames = [...]string{
	KindUnknown:         "Unknown",
	KindPoint:           "Point",
	KindMultiPoint:      "MultiPoint",
	KindLineString:      "LineString",
	KindMultiLineString: "MultiLineString",
	KindPolygon:         "Polygon",
	KindMultiPolygon:    "MultiPolygon",
}

// String returns the GeoJSON type name of k.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return kindNames[KindUnknown]
}

// ParseKind maps a GeoJSON geometry type name to a Kind.
// Matching is case-sensitive, as in GeoJSON.
func ParseKind(s string) (Kind, bool) {
	for k := KindPoint; k <= KindMultiPolygon; k++ {
		if kindNames[k] == s {
			return k, true
		}
	}
	return KindUnknown, false
}
