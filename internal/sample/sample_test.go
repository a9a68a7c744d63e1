package sample

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/gogpu/globe/internal/sphere"
)

func TestDivisions(t *testing.T) {
	tests := []struct {
		name    string
		a, b    orb.Point
		density float64
		want    int
	}{
		{"ten degrees", orb.Point{0, 0}, orb.Point{10, 0}, 8, 80},
		{"diagonal", orb.Point{0, 0}, orb.Point{3, 4}, 8, 40},
		{"fractional rounds up", orb.Point{0, 0}, orb.Point{0.01, 0}, 8, 1},
		{"coincident", orb.Point{5, 5}, orb.Point{5, 5}, 8, 1},
		{"custom density", orb.Point{0, 0}, orb.Point{10, 0}, 2, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Divisions(tt.a, tt.b, tt.density); got != tt.want {
				t.Errorf("Divisions = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGreatCircleEquator(t *testing.T) {
	pts := GreatCircle([]orb.Point{{0, 0}, {10, 0}}, DefaultDensity)
	if len(pts) != 80 {
		t.Fatalf("len = %d, want 80", len(pts))
	}
	if math.Abs(pts[0].Lon()) > 1e-9 {
		t.Errorf("first lng = %v, want 0", pts[0].Lon())
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].Lon() <= pts[i-1].Lon() {
			t.Fatalf("lng not increasing at %d: %v <= %v", i, pts[i].Lon(), pts[i-1].Lon())
		}
	}
	for i, p := range pts {
		if math.Abs(p.Lat()) > 1e-9 {
			t.Fatalf("lat[%d] = %v, want 0", i, p.Lat())
		}
	}
	if last := pts[len(pts)-1].Lon(); math.Abs(last-9.875) > 1e-9 {
		t.Errorf("last lng = %v, want 9.875", last)
	}
}

// Every sample of an arc lies in the plane spanned by its endpoints.
func TestGreatCircleStaysOnArc(t *testing.T) {
	a := orb.Point{-73.9, 40.7}
	b := orb.Point{2.35, 48.85}
	pa := sphere.ProjectPoint(a, 1)
	pb := sphere.ProjectPoint(b, 1)
	normal := pa.Cross(pb).Normalize()
	total := math.Acos(pa.Dot(pb))

	pts := GreatCircle([]orb.Point{a, b}, DefaultDensity)
	if want := Divisions(a, b, DefaultDensity); len(pts) != want {
		t.Fatalf("len = %d, want %d", len(pts), want)
	}
	prev := -1.0
	for i, p := range pts {
		v := sphere.ProjectPoint(p, 1)
		if d := math.Abs(v.Dot(normal)); d > 1e-9 {
			t.Fatalf("sample %d off the arc plane by %v", i, d)
		}
		angle := math.Acos(math.Min(1, pa.Dot(v)))
		if angle < prev || angle > total {
			t.Fatalf("sample %d angle %v outside progression (prev %v, total %v)", i, angle, prev, total)
		}
		prev = angle
	}
}

func TestGreatCircleAntimeridian(t *testing.T) {
	pts := GreatCircle([]orb.Point{{170, 0}, {-170, 0}}, DefaultDensity)
	for i, p := range pts {
		v := sphere.ProjectPoint(p, 1)
		// The short way round stays on the far side of the globe, x > 0.
		if v.X <= 0 {
			t.Fatalf("sample %d %v took the long way round", i, p)
		}
	}
}

func TestGreatCircleMultiSegment(t *testing.T) {
	path := []orb.Point{{0, 0}, {1, 0}, {1, 1}}
	pts := GreatCircle(path, DefaultDensity)
	if len(pts) != 16 {
		t.Fatalf("len = %d, want 16", len(pts))
	}
	if math.Abs(pts[8].Lon()-1) > 1e-9 || math.Abs(pts[8].Lat()) > 1e-9 {
		t.Errorf("second segment starts at %v, want (1, 0)", pts[8])
	}
}

func TestGreatCircleShortInput(t *testing.T) {
	if got := GreatCircle(nil, DefaultDensity); got != nil {
		t.Errorf("GreatCircle(nil) = %v, want nil", got)
	}
	if got := GreatCircle([]orb.Point{{1, 2}}, DefaultDensity); got != nil {
		t.Errorf("GreatCircle(single) = %v, want nil", got)
	}
}

func TestCrosses(t *testing.T) {
	tests := []struct {
		lng0, lng1 float64
		want       bool
	}{
		{170, -170, true},
		{-170, 170, true},
		{170, 160, false},
		{-100, 100, true},
		{-80, 100, false},
		{10, -10, false},
		{90, -90, false},
	}
	for _, tt := range tests {
		if got := Crosses(tt.lng0, tt.lng1); got != tt.want {
			t.Errorf("Crosses(%v, %v) = %v, want %v", tt.lng0, tt.lng1, got, tt.want)
		}
	}
}

func TestCorrect(t *testing.T) {
	tests := []struct {
		name       string
		lng0, lng1 float64
		want       Correction
	}{
		{"no crossing", 10, 20, Correction{Start: 10, End: 20}},
		{"east to west", 170, -170, Correction{Start: 0, End: 20, Offset: 190, Crossing: true}},
		{"west to east", -170, 170, Correction{Start: 20, End: 0, Offset: 190, Crossing: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Correct(tt.lng0, tt.lng1); got != tt.want {
				t.Errorf("Correct(%v, %v) = %+v, want %+v", tt.lng0, tt.lng1, got, tt.want)
			}
		})
	}
}

func TestCorrectionRestoresEndpoints(t *testing.T) {
	for _, pair := range [][2]float64{{170, -170}, {-170, 170}, {95, -135}, {-179, 179}} {
		c := Correct(pair[0], pair[1])
		if got := c.Restore(c.Start); math.Abs(got-pair[0]) > 1e-9 {
			t.Errorf("%v: Restore(Start) = %v, want %v", pair, got, pair[0])
		}
		if got := c.Restore(c.End); math.Abs(got-pair[1]) > 1e-9 {
			t.Errorf("%v: Restore(End) = %v, want %v", pair, got, pair[1])
		}
	}
}

func TestLinear(t *testing.T) {
	pts := Linear([]orb.Point{{0, 0}, {10, 20}}, 10)
	if len(pts) != 10 {
		t.Fatalf("len = %d, want 10", len(pts))
	}
	for j, p := range pts {
		if math.Abs(p.Lon()-float64(j)) > 1e-9 || math.Abs(p.Lat()-2*float64(j)) > 1e-9 {
			t.Errorf("pts[%d] = %v, want (%d, %d)", j, p, j, 2*j)
		}
	}
}

func TestLinearAcrossAntimeridian(t *testing.T) {
	pts := Linear([]orb.Point{{170, 0}, {-170, 10}}, DefaultLinearDivisions)
	if len(pts) != DefaultLinearDivisions {
		t.Fatalf("len = %d, want %d", len(pts), DefaultLinearDivisions)
	}
	if math.Abs(pts[0].Lon()-170) > 1e-9 {
		t.Errorf("first lng = %v, want 170", pts[0].Lon())
	}
	for i, p := range pts {
		if math.Abs(p.Lon()) < 170-1e-9 {
			t.Fatalf("sample %d lng %v wrapped the wrong way", i, p.Lon())
		}
		if p.Lon() <= -180 || p.Lon() > 180 {
			t.Fatalf("sample %d lng %v out of range", i, p.Lon())
		}
	}
}

// Crossings are detected per pair, not only for two-point paths.
func TestLinearPerPairCorrection(t *testing.T) {
	path := []orb.Point{{0, 0}, {170, 0}, {-170, 0}, {-160, 0}}
	pts := Linear(path, 4)
	if len(pts) != 12 {
		t.Fatalf("len = %d, want 12", len(pts))
	}
	crossing := pts[4:8]
	want := []float64{170, 175, 180, -175}
	for i, p := range crossing {
		if math.Abs(p.Lon()-want[i]) > 1e-9 {
			t.Errorf("crossing[%d] lng = %v, want %v", i, p.Lon(), want[i])
		}
	}
}
