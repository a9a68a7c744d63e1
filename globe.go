package globe

import (
	"context"
	"fmt"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/paulmach/orb"

	"github.com/gogpu/globe/internal/parallel"
	"github.com/gogpu/globe/internal/sphere"
)

// Scene ids of the base meshes built during initialization.
const (
	EarthID      = "globe/earth"
	AtmosphereID = "globe/atmosphere"
)

var atmosphereColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Globe projects geographic features onto a sphere and registers the
// resulting primitives. Every builder waits for one-time initialization to
// finish before doing any work.
//
// Globe is safe for concurrent use.
type Globe struct {
	cfg     Config
	scene   SceneGraph
	reg     *Registry
	metrics *metrics
	pool    *parallel.WorkerPool

	startOnce sync.Once
	ready     chan struct{}
	initErr   error
	base      []*Mesh

	closeOnce sync.Once
	done      chan struct{}
	closed    atomic.Bool
}

// New creates a Globe. Unless WithAutoStart(false) is given, initialization
// starts immediately in the background; builders called before it finishes
// block until it does.
func New(opts ...Option) (*Globe, error) {
	o := options{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	m, err := newMetrics(o.registry)
	if err != nil {
		return nil, err
	}

	g := &Globe{
		cfg:     o.cfg,
		scene:   o.scene,
		reg:     newRegistry(o.scene, o.newID),
		metrics: m,
		pool:    parallel.NewWorkerPool(o.cfg.Workers),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
	if o.cfg.AutoStart {
		go func() { _ = g.Start(context.Background()) }()
	}
	return g, nil
}

// Start runs initialization once: it builds the base sphere and, unless
// disabled, the atmosphere shell, and attaches both to the scene. Later
// calls wait for the first one and return its result. A canceled ctx fails
// initialization and every pending builder with ErrNotReady.
func (g *Globe) Start(ctx context.Context) error {
	g.startOnce.Do(func() {
		g.initErr = g.init(ctx)
		close(g.ready)
	})
	return g.initErr
}

func (g *Globe) init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.closed.Load() {
		return ErrClosed
	}

	earth := g.sphereMesh(EarthID, g.cfg.Radius, MaterialEarth, lineColor)
	earth.Texture = g.cfg.TextureImage
	if err := g.attachBase(EarthID, earth); err != nil {
		return err
	}

	if g.cfg.Atmosphere {
		if err := ctx.Err(); err != nil {
			return err
		}
		atmo := g.sphereMesh(AtmosphereID, g.cfg.Radius*g.cfg.AtmosphereScale, MaterialAtmosphere, atmosphereColor)
		if err := g.attachBase(AtmosphereID, atmo); err != nil {
			return err
		}
	}

	Logger().Info("globe: base globe ready",
		"radius", g.cfg.Radius,
		"segments", g.cfg.GlobeSegments,
		"atmosphere", g.cfg.Atmosphere)
	return nil
}

func (g *Globe) sphereMesh(name string, radius float64, mat Material, c color.RGBA) *Mesh {
	s := sphere.UVSphere(radius, g.cfg.GlobeSegments, g.cfg.GlobeSegments)
	return &Mesh{
		Name:      name,
		Positions: s.Positions,
		Normals:   s.Normals,
		UVs:       s.UVs,
		Indices:   s.Indices,
		Color:     c,
		Material:  mat,
	}
}

func (g *Globe) attachBase(id string, m *Mesh) error {
	if g.scene != nil {
		if err := g.scene.Attach(id, m); err != nil {
			return fmt.Errorf("globe: attach %s: %w", id, err)
		}
	}
	g.base = append(g.base, m)
	return nil
}

// await is the single suspension point of every builder.
func (g *Globe) await(ctx context.Context) error {
	if g.closed.Load() {
		return ErrClosed
	}
	select {
	case <-g.ready:
	case <-g.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	if g.initErr != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, g.initErr)
	}
	if g.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Ready is closed once initialization has finished, successfully or not.
func (g *Globe) Ready() <-chan struct{} {
	return g.ready
}

// Base returns the base sphere meshes. It is empty until initialization
// has succeeded.
func (g *Globe) Base() []*Mesh {
	select {
	case <-g.ready:
		return append([]*Mesh(nil), g.base...)
	default:
		return nil
	}
}

// Config returns a copy of the engine configuration.
func (g *Globe) Config() Config {
	return g.cfg
}

// Registry returns the registry that tracks built handles.
func (g *Globe) Registry() *Registry {
	return g.reg
}

// Remove unregisters a handle and detaches it from the scene.
func (g *Globe) Remove(id string) error {
	if err := g.reg.Remove(id); err != nil {
		return err
	}
	g.metrics.active.Set(float64(g.reg.Len()))
	return nil
}

// Close stops the tessellation workers. Builders called afterwards, or
// still waiting for initialization, fail with ErrClosed. Registered
// handles stay readable.
func (g *Globe) Close() error {
	g.closeOnce.Do(func() {
		g.closed.Store(true)
		close(g.done)
		g.pool.Close()
	})
	return nil
}

// Distance returns the great-circle distance between two (lng, lat) points
// on a sphere of the given radius, using the haversine formula.
func Distance(a, b orb.Point, radius float64) float64 {
	return sphere.Distance(a, b, radius)
}
