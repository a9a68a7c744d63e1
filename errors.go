package globe

import (
	"errors"
	"fmt"
)

// Sentinel errors for the globe package.
var (
	// ErrMalformedGeometry is returned when a line has fewer than 2 points,
	// a polygon ring has fewer than 3 distinct points, or a geometry value
	// does not match its declared kind.
	ErrMalformedGeometry = errors.New("globe: malformed geometry")

	// ErrUnsupportedGeometryKind is reported for a feature whose geometry
	// type is not one of the six recognized kinds. Such features are skipped.
	ErrUnsupportedGeometryKind = errors.New("globe: unsupported geometry kind")

	// ErrUnsupportedTopLevelKind is returned when a document is neither a
	// Feature nor a FeatureCollection.
	ErrUnsupportedTopLevelKind = errors.New("globe: unsupported top-level kind")

	// ErrInvalidHandle is returned when a built primitive cannot be given a
	// unique identifier.
	ErrInvalidHandle = errors.New("globe: invalid handle")

	// ErrNotReady is returned by builders when initialization failed or was
	// canceled.
	ErrNotReady = errors.New("globe: not ready")

	// ErrClosed is returned by builders after Close.
	ErrClosed = errors.New("globe: closed")

	// ErrUnknownHandle is returned by Remove for an identifier that is not
	// registered.
	ErrUnknownHandle = errors.New("globe: unknown handle")
)

// GeometryError describes which part of a geometry was malformed.
// It unwraps to ErrMalformedGeometry.
type GeometryError struct {
	Kind Kind
	// Part is the index of the line or polygon inside a multi geometry,
	// or -1 for single geometries.
	Part int
	// Ring is the ring index inside a polygon, or -1 for lines and points.
	Ring   int
	Points int
	Min    int
}

func (e *GeometryError) Error() string {
	where := e.Kind.String()
	if e.Part >= 0 {
		where += fmt.Sprintf(" part %d", e.Part)
	}
	if e.Ring >= 0 {
		where += fmt.Sprintf(" ring %d", e.Ring)
	}
	return fmt.Sprintf("globe: malformed geometry: %s has %d points, need at least %d", where, e.Points, e.Min)
}

func (e *GeometryError) Unwrap() error {
	return ErrMalformedGeometry
}
