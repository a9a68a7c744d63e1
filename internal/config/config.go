// Package config loads globeview settings from a YAML file and the
// environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/gogpu/globe"
)

// Config holds all globeview configuration.
type Config struct {
	Globe   GlobeConfig   `mapstructure:"globe"`
	Preview PreviewConfig `mapstructure:"preview"`
	Log     LogConfig     `mapstructure:"log"`
}

type GlobeConfig struct {
	Radius           float64 `mapstructure:"radius"`
	PolygonDivisions int     `mapstructure:"polygon_divisions"`
	LineSampling     string  `mapstructure:"line_sampling"`
	GlobeSegments    int     `mapstructure:"globe_segments"`
	Atmosphere       bool    `mapstructure:"atmosphere"`
	Texture          string  `mapstructure:"texture"`
	Workers          int     `mapstructure:"workers"`
	IsolateErrors    bool    `mapstructure:"isolate_errors"`
}

type PreviewConfig struct {
	Width     int     `mapstructure:"width"`
	Height    int     `mapstructure:"height"`
	CenterLng float64 `mapstructure:"center_lng"`
	CenterLat float64 `mapstructure:"center_lat"`
	LineWidth float64 `mapstructure:"line_width"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from file and environment variables. An empty
// path searches for globeview.yaml in the working directory and
// ./configs; a missing file is not an error. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	d := globe.DefaultConfig()
	v.SetDefault("globe.radius", d.Radius)
	v.SetDefault("globe.polygon_divisions", d.PolygonDivisions)
	v.SetDefault("globe.line_sampling", d.LineSampling.String())
	v.SetDefault("globe.globe_segments", 64)
	v.SetDefault("globe.atmosphere", d.Atmosphere)
	v.SetDefault("globe.texture", "")
	v.SetDefault("globe.workers", 0)
	v.SetDefault("globe.isolate_errors", false)
	v.SetDefault("preview.width", 512)
	v.SetDefault("preview.height", 512)
	v.SetDefault("preview.center_lng", 0.0)
	v.SetDefault("preview.center_lat", 0.0)
	v.SetDefault("preview.line_width", 1.5)
	v.SetDefault("log.level", "warn")

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("globeview")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		_ = v.ReadInConfig() // OK if missing
	}

	// Environment variables: GLOBEVIEW_GLOBE_RADIUS → globe.radius
	v.SetEnvPrefix("GLOBEVIEW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the configuration fields are sane.
func (c *Config) Validate() error {
	var errs []string

	if c.Globe.Radius <= 0 {
		errs = append(errs, fmt.Sprintf("globe.radius must be positive, got %v", c.Globe.Radius))
	}
	if c.Globe.PolygonDivisions < 1 {
		errs = append(errs, fmt.Sprintf("globe.polygon_divisions must be at least 1, got %d", c.Globe.PolygonDivisions))
	}
	if _, ok := parseSampling(c.Globe.LineSampling); !ok {
		errs = append(errs, fmt.Sprintf("globe.line_sampling must be great-circle or linear, got %q", c.Globe.LineSampling))
	}
	if c.Globe.GlobeSegments < 3 {
		errs = append(errs, fmt.Sprintf("globe.globe_segments must be at least 3, got %d", c.Globe.GlobeSegments))
	}
	if c.Globe.Workers < 0 {
		errs = append(errs, "globe.workers must not be negative")
	}
	if c.Preview.Width <= 0 || c.Preview.Height <= 0 {
		errs = append(errs, fmt.Sprintf("preview size must be positive, got %dx%d", c.Preview.Width, c.Preview.Height))
	}
	if c.Preview.CenterLat < -90 || c.Preview.CenterLat > 90 {
		errs = append(errs, fmt.Sprintf("preview.center_lat must be in [-90, 90], got %v", c.Preview.CenterLat))
	}
	if c.Preview.LineWidth <= 0 {
		errs = append(errs, "preview.line_width must be positive")
	}
	if _, ok := parseLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Options maps the globe section onto engine options.
func (c *Config) Options() []globe.Option {
	sampling, _ := parseSampling(c.Globe.LineSampling)
	opts := []globe.Option{
		globe.WithRadius(c.Globe.Radius),
		globe.WithPolygonDivisions(c.Globe.PolygonDivisions),
		globe.WithLineSampling(sampling),
		globe.WithGlobeSegments(c.Globe.GlobeSegments),
		globe.WithAtmosphere(c.Globe.Atmosphere, globe.DefaultConfig().AtmosphereScale),
		globe.WithIsolateFeatureErrors(c.Globe.IsolateErrors),
	}
	if c.Globe.Texture != "" {
		opts = append(opts, globe.WithTextureImage(c.Globe.Texture))
	}
	if c.Globe.Workers > 0 {
		opts = append(opts, globe.WithWorkers(c.Globe.Workers))
	}
	return opts
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	l, _ := parseLevel(c.Log.Level)
	return l
}

func parseSampling(s string) (globe.LineSampling, bool) {
	switch strings.ToLower(s) {
	case "great-circle", "greatcircle", "":
		return globe.GreatCircle, true
	case "linear":
		return globe.Linear, true
	}
	return globe.GreatCircle, false
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning", "":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelWarn, false
}
