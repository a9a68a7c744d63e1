package globe

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the engine collectors. With a nil registerer they still
// count but are not exported. Engines sharing a registerer share its
// collectors.
type metrics struct {
	built        *prometheus.CounterVec
	skipped      *prometheus.CounterVec
	tessellation prometheus.Histogram
	active       prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		built: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globe",
			Subsystem: "geometry",
			Name:      "handles_built_total",
			Help:      "Total geometry handles built, by kind",
		}, []string{"kind"}),

		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "globe",
			Subsystem: "geometry",
			Name:      "features_skipped_total",
			Help:      "Total features skipped, by reason",
		}, []string{"reason"}),

		tessellation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "globe",
			Subsystem: "polygon",
			Name:      "tessellation_seconds",
			Help:      "Time spent triangulating and tessellating one polygon",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}),

		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "globe",
			Subsystem: "registry",
			Name:      "active_handles",
			Help:      "Current number of registered handles",
		}),
	}

	var err error
	if m.built, err = register(reg, m.built); err != nil {
		return nil, err
	}
	if m.skipped, err = register(reg, m.skipped); err != nil {
		return nil, err
	}
	if m.tessellation, err = register(reg, m.tessellation); err != nil {
		return nil, err
	}
	if m.active, err = register(reg, m.active); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg. If an identical collector is already registered
// it is returned in place of c.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if reg == nil {
		return c, nil
	}
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("globe: register metrics: %w", err)
}

// Skip reasons.
const (
	skipUnsupported = "unsupported_kind"
	skipMalformed   = "malformed_geometry"
)
