package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/globe"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "globeview.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Globe.Radius != 200 || cfg.Globe.PolygonDivisions != 100 {
		t.Errorf("globe = %+v", cfg.Globe)
	}
	if cfg.Globe.LineSampling != "great-circle" || !cfg.Globe.Atmosphere {
		t.Errorf("globe = %+v", cfg.Globe)
	}
	if cfg.Preview.Width != 512 || cfg.Preview.Height != 512 || cfg.Preview.LineWidth != 1.5 {
		t.Errorf("preview = %+v", cfg.Preview)
	}
	if cfg.LogLevel() != slog.LevelWarn {
		t.Errorf("LogLevel() = %v", cfg.LogLevel())
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
globe:
  radius: 100
  line_sampling: linear
  atmosphere: false
  workers: 3
preview:
  width: 256
  center_lng: -120
log:
  level: debug
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Globe.Radius != 100 || cfg.Globe.LineSampling != "linear" || cfg.Globe.Atmosphere || cfg.Globe.Workers != 3 {
		t.Errorf("globe = %+v", cfg.Globe)
	}
	if cfg.Preview.Width != 256 || cfg.Preview.Height != 512 || cfg.Preview.CenterLng != -120 {
		t.Errorf("preview = %+v", cfg.Preview)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("LogLevel() = %v", cfg.LogLevel())
	}

	g, err := globe.New(append(cfg.Options(), globe.WithAutoStart(false))...)
	if err != nil {
		t.Fatalf("globe.New() error = %v", err)
	}
	defer g.Close()
	got := g.Config()
	if got.Radius != 100 || got.LineSampling != globe.Linear || got.Atmosphere || got.Workers != 3 {
		t.Errorf("engine config = %+v", got)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GLOBEVIEW_GLOBE_RADIUS", "42")
	t.Setenv("GLOBEVIEW_PREVIEW_HEIGHT", "64")
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Globe.Radius != 42 || cfg.Preview.Height != 64 {
		t.Errorf("env not applied: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of a missing explicit file succeeded")
	}

	tests := []struct {
		name string
		body string
		want string
	}{
		{"radius", "globe:\n  radius: -1\n", "globe.radius"},
		{"sampling", "globe:\n  line_sampling: bezier\n", "globe.line_sampling"},
		{"segments", "globe:\n  globe_segments: 2\n", "globe.globe_segments"},
		{"size", "preview:\n  width: 0\n", "preview size"},
		{"latitude", "preview:\n  center_lat: 120\n", "center_lat"},
		{"level", "log:\n  level: loud\n", "log.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}
