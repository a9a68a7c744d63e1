package globe

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/paulmach/orb"
)

// fakeScene records attach and detach calls.
type fakeScene struct {
	mu         sync.Mutex
	attached   map[string]Primitive
	order      []string
	detached   []string
	failAttach error
	failDetach error
}

func newFakeScene() *fakeScene {
	return &fakeScene{attached: make(map[string]Primitive)}
}

func (s *fakeScene) Attach(id string, p Primitive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAttach != nil {
		return s.failAttach
	}
	s.attached[id] = p
	s.order = append(s.order, id)
	return nil
}

func (s *fakeScene) Detach(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDetach != nil {
		return s.failDetach
	}
	delete(s.attached, id)
	s.detached = append(s.detached, id)
	return nil
}

func (s *fakeScene) has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.attached[id]
	return ok
}

// newTestGlobe returns a started globe with a small base sphere.
func newTestGlobe(t *testing.T, opts ...Option) (*Globe, *fakeScene) {
	t.Helper()
	scene := newFakeScene()
	all := append([]Option{WithScene(scene), WithGlobeSegments(16), WithAutoStart(false)}, opts...)
	g, err := New(all...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = g.Close() })
	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return g, scene
}

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero radius", WithRadius(0)},
		{"negative radius", WithRadius(-1)},
		{"inflation below one", WithSurfaceInflation(0.99)},
		{"zero polygon divisions", WithPolygonDivisions(0)},
		{"negative passes", WithTessellation(-1, 4)},
		{"zero density", WithGreatCircleDensity(0)},
		{"zero linear divisions", WithLinearDivisions(0)},
		{"tiny point spheres", WithPointSegments(2)},
		{"atmosphere inside globe", WithAtmosphere(true, 0.9)},
		{"zero label height", WithLabelHeight(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(WithAutoStart(false), tt.opt); err == nil {
				t.Error("New() succeeded, want error")
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	g, err := New(WithAutoStart(false))
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	cfg := g.Config()
	if cfg.Radius != 200 || cfg.SurfaceInflation != 1.001 || cfg.PolygonDivisions != 100 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.TessellationPasses != 8 || cfg.GreatCircleDensity != 8 || cfg.LineSampling != GreatCircle {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestConfigIsACopy(t *testing.T) {
	g, _ := newTestGlobe(t)
	cfg := g.Config()
	cfg.Radius = 1
	if g.Config().Radius != 200 {
		t.Error("mutating the returned Config changed the engine")
	}
}

func TestBuildersWaitForReadiness(t *testing.T) {
	g, err := New(WithAutoStart(false), WithGlobeSegments(8))
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	type result struct {
		h   *Handle
		err error
	}
	done := make(chan result, 1)
	go func() {
		h, err := g.AddPoint(context.Background(), orb.Point{1, 2}, Style{})
		done <- result{h, err}
	}()

	select {
	case <-done:
		t.Fatal("builder returned before initialization")
	case <-time.After(50 * time.Millisecond):
	}

	if err := g.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case r := <-done:
		if r.err != nil || r.h == nil {
			t.Fatalf("AddPoint() = %v, %v", r.h, r.err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("builder still blocked after Start")
	}
}

func TestAutoStart(t *testing.T) {
	g, err := New(WithGlobeSegments(8))
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := g.AddPoint(ctx, orb.Point{0, 0}, Style{}); err != nil {
		t.Fatalf("AddPoint() error = %v", err)
	}
	if len(g.Base()) != 2 {
		t.Errorf("Base() has %d meshes, want 2", len(g.Base()))
	}
}

func TestAwaitHonorsContext(t *testing.T) {
	g, err := New(WithAutoStart(false))
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.AddPoint(ctx, orb.Point{0, 0}, Style{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("AddPoint() error = %v, want DeadlineExceeded", err)
	}
}

func TestStartCanceled(t *testing.T) {
	g, err := New(WithAutoStart(false))
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := g.Start(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Start() error = %v, want Canceled", err)
	}
	// Start runs once; later calls report the same failure.
	if err := g.Start(context.Background()); !errors.Is(err, context.Canceled) {
		t.Errorf("second Start() error = %v, want Canceled", err)
	}

	_, err = g.AddPoint(context.Background(), orb.Point{0, 0}, Style{})
	if !errors.Is(err, ErrNotReady) || !errors.Is(err, context.Canceled) {
		t.Errorf("AddPoint() error = %v, want ErrNotReady wrapping Canceled", err)
	}
}

func TestStartAttachFailure(t *testing.T) {
	scene := newFakeScene()
	scene.failAttach = errors.New("no device")
	g, err := New(WithScene(scene), WithAutoStart(false), WithGlobeSegments(8))
	if err != nil {
		t.Fatal(err)
	}
	defer g.Close()

	if err := g.Start(context.Background()); err == nil {
		t.Fatal("Start() succeeded with a failing scene")
	}
	if _, err := g.AddPoint(context.Background(), orb.Point{}, Style{}); !errors.Is(err, ErrNotReady) {
		t.Errorf("AddPoint() error = %v, want ErrNotReady", err)
	}
}

func TestClose(t *testing.T) {
	g, err := New(WithAutoStart(false))
	if err != nil {
		t.Fatal(err)
	}

	waiting := make(chan error, 1)
	go func() {
		_, err := g.AddPoint(context.Background(), orb.Point{0, 0}, Style{})
		waiting <- err
	}()
	time.Sleep(10 * time.Millisecond)

	if err := g.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := g.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}

	select {
	case err := <-waiting:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("pending AddPoint() error = %v, want ErrClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pending builder not released by Close")
	}

	if _, err := g.AddPolygon(context.Background(), orb.Polygon{{{0, 0}, {1, 0}, {1, 1}}}, Style{}); !errors.Is(err, ErrClosed) {
		t.Errorf("AddPolygon() after Close error = %v, want ErrClosed", err)
	}
}

func TestBaseGlobe(t *testing.T) {
	g, scene := newTestGlobe(t, WithTextureImage("earth.jpg"))

	if !scene.has(EarthID) || !scene.has(AtmosphereID) {
		t.Fatalf("scene has %v, want earth and atmosphere", scene.order)
	}
	base := g.Base()
	if len(base) != 2 {
		t.Fatalf("Base() has %d meshes, want 2", len(base))
	}
	earth, atmo := base[0], base[1]
	if earth.Material != MaterialEarth || earth.Texture != "earth.jpg" {
		t.Errorf("earth mesh = %v/%q", earth.Material, earth.Texture)
	}
	if atmo.Material != MaterialAtmosphere {
		t.Errorf("atmosphere material = %v", atmo.Material)
	}
	if got := earth.Positions[5].Norm(); !approx(got, 200, 1e-9) {
		t.Errorf("earth radius = %v, want 200", got)
	}
	if got := atmo.Positions[5].Norm(); !approx(got, 220, 1e-9) {
		t.Errorf("atmosphere radius = %v, want 220", got)
	}
	if len(earth.UVs) != len(earth.Positions) {
		t.Error("earth mesh has no UVs")
	}
	if g.Registry().Len() != 0 {
		t.Error("base meshes must not be registered as handles")
	}
}

func TestBaseGlobeWithoutAtmosphere(t *testing.T) {
	g, scene := newTestGlobe(t, WithAtmosphere(false, 0))
	if scene.has(AtmosphereID) {
		t.Error("atmosphere attached although disabled")
	}
	if len(g.Base()) != 1 {
		t.Errorf("Base() has %d meshes, want 1", len(g.Base()))
	}
}

func TestConcurrentBuilders(t *testing.T) {
	g, scene := newTestGlobe(t, WithWorkers(2), WithPolygonDivisions(10))

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := range 16 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := g.AddPoint(context.Background(), orb.Point{float64(i), 0}, Style{})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			mp := orb.MultiPolygon{
				{{{0, 0}, {5, 0}, {5, 5}}},
				{{{10, 10}, {15, 10}, {15, 15}}},
			}
			_, err := g.AddMultiPolygon(context.Background(), mp, Style{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("builder error = %v", err)
		}
	}
	if got := g.Registry().Len(); got != 32 {
		t.Errorf("registry has %d handles, want 32", got)
	}
	if got := len(scene.order); got != 32+2 {
		t.Errorf("scene has %d attachments, want 34", got)
	}
}

func TestDistance(t *testing.T) {
	got := Distance(orb.Point{0, 0}, orb.Point{90, 0}, 200)
	if !approx(got, 100*math.Pi, 1e-9) {
		t.Errorf("Distance = %v, want %v", got, 100*math.Pi)
	}
}

func maxNormDeviation(pts []r3.Vector, want float64) float64 {
	var worst float64
	for _, p := range pts {
		worst = math.Max(worst, math.Abs(p.Norm()-want))
	}
	return worst
}
