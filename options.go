package globe

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// LineSampling selects how line strings are densified before projection.
type LineSampling uint8

const (
	// GreatCircle follows the shortest arc between vertices.
	GreatCircle LineSampling = iota
	// Linear interpolates in (lng, lat) space with antimeridian correction.
	Linear
)

func (s LineSampling) String() string {
	if s == Linear {
		return "linear"
	}
	return "great-circle"
}

// Config is the immutable engine configuration. It is built once by New
// and read by value afterwards.
type Config struct {
	// Radius of the base sphere.
	Radius float64
	// SurfaceInflation scales the radius of polygon surfaces so they sit
	// just above the base sphere.
	SurfaceInflation float64

	PolygonDivisions    int
	TessellationPasses  int
	TessellationMaxEdge float64

	LineSampling       LineSampling
	GreatCircleDensity float64
	LinearDivisions    int

	// PointSegments is the width and height segment count of point markers.
	PointSegments int
	// GlobeSegments is the segment count of the base sphere mesh.
	GlobeSegments int

	Atmosphere      bool
	AtmosphereScale float64
	TextureImage    string

	AutoStart            bool
	Workers              int
	IsolateFeatureErrors bool
	LabelHeight          float64
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		Radius:              200,
		SurfaceInflation:    1.001,
		PolygonDivisions:    100,
		TessellationPasses:  8,
		TessellationMaxEdge: 4,
		LineSampling:        GreatCircle,
		GreatCircleDensity:  8,
		LinearDivisions:     100,
		PointSegments:       8,
		GlobeSegments:       128,
		Atmosphere:          true,
		AtmosphereScale:     1.1,
		AutoStart:           true,
		LabelHeight:         50,
	}
}

// Validate reports every invalid field of c.
func (c Config) Validate() error {
	var errs []error
	if c.Radius <= 0 {
		errs = append(errs, fmt.Errorf("radius must be positive, got %v", c.Radius))
	}
	if c.SurfaceInflation < 1 {
		errs = append(errs, fmt.Errorf("surface inflation must be at least 1, got %v", c.SurfaceInflation))
	}
	if c.PolygonDivisions < 1 {
		errs = append(errs, fmt.Errorf("polygon divisions must be at least 1, got %d", c.PolygonDivisions))
	}
	if c.TessellationPasses < 0 {
		errs = append(errs, fmt.Errorf("tessellation passes must not be negative, got %d", c.TessellationPasses))
	}
	if c.GreatCircleDensity <= 0 {
		errs = append(errs, fmt.Errorf("great-circle density must be positive, got %v", c.GreatCircleDensity))
	}
	if c.LinearDivisions < 1 {
		errs = append(errs, fmt.Errorf("linear divisions must be at least 1, got %d", c.LinearDivisions))
	}
	if c.PointSegments < 3 || c.GlobeSegments < 3 {
		errs = append(errs, fmt.Errorf("sphere segments must be at least 3, got %d and %d", c.PointSegments, c.GlobeSegments))
	}
	if c.Atmosphere && c.AtmosphereScale <= 1 {
		errs = append(errs, fmt.Errorf("atmosphere scale must exceed 1, got %v", c.AtmosphereScale))
	}
	if c.LabelHeight <= 0 {
		errs = append(errs, fmt.Errorf("label height must be positive, got %v", c.LabelHeight))
	}
	if len(errs) > 0 {
		return fmt.Errorf("globe: invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Option configures a Globe during creation.
//
// Example:
//
//	g, err := globe.New(
//	    globe.WithRadius(100),
//	    globe.WithScene(renderer),
//	    globe.WithLineSampling(globe.Linear),
//	)
type Option func(*options)

type options struct {
	cfg      Config
	scene    SceneGraph
	registry prometheus.Registerer
	newID    func() (string, error)
}

// WithRadius sets the base sphere radius.
func WithRadius(r float64) Option {
	return func(o *options) { o.cfg.Radius = r }
}

// WithSurfaceInflation sets the radius factor applied to polygon surfaces.
func WithSurfaceInflation(f float64) Option {
	return func(o *options) { o.cfg.SurfaceInflation = f }
}

// WithPolygonDivisions sets the number of linear steps per ring edge.
func WithPolygonDivisions(n int) Option {
	return func(o *options) { o.cfg.PolygonDivisions = n }
}

// WithTessellation sets how many edge-splitting passes polygon meshes get
// and the planar edge length, in degrees, above which edges are split.
func WithTessellation(passes int, maxEdge float64) Option {
	return func(o *options) {
		o.cfg.TessellationPasses = passes
		o.cfg.TessellationMaxEdge = maxEdge
	}
}

// WithLineSampling selects the line densification strategy.
func WithLineSampling(s LineSampling) Option {
	return func(o *options) { o.cfg.LineSampling = s }
}

// WithGreatCircleDensity sets the great-circle samples per planar degree.
func WithGreatCircleDensity(d float64) Option {
	return func(o *options) { o.cfg.GreatCircleDensity = d }
}

// WithLinearDivisions sets the samples per segment of the Linear strategy.
func WithLinearDivisions(n int) Option {
	return func(o *options) { o.cfg.LinearDivisions = n }
}

// WithPointSegments sets the segment count of point marker spheres.
func WithPointSegments(n int) Option {
	return func(o *options) { o.cfg.PointSegments = n }
}

// WithGlobeSegments sets the segment count of the base sphere.
func WithGlobeSegments(n int) Option {
	return func(o *options) { o.cfg.GlobeSegments = n }
}

// WithAtmosphere enables or disables the atmosphere shell and sets its
// scale relative to the base sphere.
func WithAtmosphere(enabled bool, scale float64) Option {
	return func(o *options) {
		o.cfg.Atmosphere = enabled
		o.cfg.AtmosphereScale = scale
	}
}

// WithTextureImage sets the texture path handed to the earth material.
// The engine never reads the file.
func WithTextureImage(path string) Option {
	return func(o *options) { o.cfg.TextureImage = path }
}

// WithAutoStart controls whether New begins initialization in the
// background. When disabled, call Start.
func WithAutoStart(on bool) Option {
	return func(o *options) { o.cfg.AutoStart = on }
}

// WithWorkers sets the tessellation worker count. 0 uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.cfg.Workers = n }
}

// WithIsolateFeatureErrors makes feature collections skip malformed
// features instead of aborting.
func WithIsolateFeatureErrors(on bool) Option {
	return func(o *options) { o.cfg.IsolateFeatureErrors = on }
}

// WithLabelHeight sets the world-space height of label billboards.
func WithLabelHeight(h float64) Option {
	return func(o *options) { o.cfg.LabelHeight = h }
}

// WithScene sets the scene graph that receives every built primitive.
// Without one, primitives are kept only in the registry.
func WithScene(s SceneGraph) Option {
	return func(o *options) { o.scene = s }
}

// WithMetrics registers the engine collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// WithIDGenerator replaces the random UUID generator used for handle ids.
// An empty id or an error fails the build with ErrInvalidHandle.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(o *options) { o.newID = fn }
}
