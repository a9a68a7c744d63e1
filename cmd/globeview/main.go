// Command globeview builds a GeoJSON file onto a headless globe and writes
// a PNG preview.
//
// Usage:
//
//	globeview [-config globeview.yaml] [-output globe.png] [-lng 0 -lat 0] file.geojson
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sort"

	"github.com/gogpu/globe"
	"github.com/gogpu/globe/internal/config"
	"github.com/gogpu/globe/preview"
)

func main() {
	var (
		configPath = flag.String("config", "", "config file (default: ./globeview.yaml if present)")
		output     = flag.String("output", "globe.png", "output file")
		lng        = flag.Float64("lng", 0, "longitude the camera looks at, overrides preview.center_lng")
		lat        = flag.Float64("lat", 0, "latitude the camera looks at, overrides preview.center_lat")
		labels     = flag.Bool("labels", false, "print every handle with its label")
	)
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: globeview [flags] file.geojson")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("globeview: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lng":
			cfg.Preview.CenterLng = *lng
		case "lat":
			cfg.Preview.CenterLat = *lat
		}
	})

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	globe.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, flag.Arg(0), *output, *labels); err != nil {
		log.Fatalf("globeview: %v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, input, output string, labels bool) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	r := preview.New(
		preview.WithSize(cfg.Preview.Width, cfg.Preview.Height),
		preview.WithCenter(cfg.Preview.CenterLng, cfg.Preview.CenterLat),
		preview.WithLineWidth(cfg.Preview.LineWidth),
	)
	g, err := globe.New(append(cfg.Options(), globe.WithScene(r))...)
	if err != nil {
		return err
	}
	defer g.Close()

	handles, err := g.AddGeoJSONData(ctx, data, globe.Style{})
	if err != nil {
		// Handles built before a malformed feature are still drawn.
		globe.Logger().Warn("globeview: partial build", "err", err, "built", len(handles))
	}

	printStats(g.Registry(), labels)

	if err := r.SavePNG(output); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%dx%d)\n", output, cfg.Preview.Width, cfg.Preview.Height)
	return nil
}

func printStats(reg *globe.Registry, labels bool) {
	counts := make(map[string]int)
	vertices := 0
	handles := reg.Handles()
	for _, h := range handles {
		counts[h.Kind.String()]++
		vertices += globe.Vertices(h.Root)
	}

	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	fmt.Printf("%d handles, %d vertices, %d pickable meshes\n", len(handles), vertices, len(reg.Pickables()))
	for _, k := range kinds {
		fmt.Printf("  %-16s %d\n", k, counts[k])
	}
	if !labels {
		return
	}
	for _, h := range handles {
		if h.Style.Label == "" {
			continue
		}
		fmt.Printf("  %s %s %q at (%.4f, %.4f)\n", h.ID, h.Kind, h.Style.Label, h.Anchor.Lon(), h.Anchor.Lat())
	}
}
