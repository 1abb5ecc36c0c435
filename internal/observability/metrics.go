package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EngineCollector bundles Prometheus metrics for intersection runs.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	ComputeDuration prometheus.Histogram
	RaysTested      prometheus.Counter
	Hits            *prometheus.CounterVec
	ComputeErrors   *prometheus.CounterVec
	Components      prometheus.Gauge
}

// NewEngineCollector registers engine metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	duration, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "raycast_compute_duration_seconds",
		Help:    "Wall time of a full intersection computation.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}), "raycast_compute_duration_seconds")
	if err != nil {
		return nil, err
	}

	rays, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "raycast_rays_tested_total",
		Help: "Rays tested against the spacecraft body.",
	}), "raycast_rays_tested_total")
	if err != nil {
		return nil, err
	}

	hits, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "raycast_hits_total",
		Help: "Component surfaces struck, labeled by detector.",
	}, []string{"detector"}), "raycast_hits_total")
	if err != nil {
		return nil, err
	}

	errs, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "raycast_compute_errors_total",
		Help: "Rejected or aborted computations, labeled by reason.",
	}, []string{"reason"}), "raycast_compute_errors_total")
	if err != nil {
		return nil, err
	}

	components, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "raycast_components",
		Help: "Number of components in the body used by the last computation.",
	}), "raycast_components")
	if err != nil {
		return nil, err
	}

	return &EngineCollector{
		gatherer:        gatherer,
		ComputeDuration: duration,
		RaysTested:      rays,
		Hits:            hits,
		ComputeErrors:   errs,
		Components:      components,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *EngineCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *EngineCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveCompute records one successful computation.
func (c *EngineCollector) ObserveCompute(d time.Duration, rays int) {
	if c == nil {
		return
	}
	if c.ComputeDuration != nil {
		c.ComputeDuration.Observe(d.Seconds())
	}
	if c.RaysTested != nil {
		c.RaysTested.Add(float64(rays))
	}
}

// AddHits adds the hit count for one detector.
func (c *EngineCollector) AddHits(detector string, hits int) {
	if c == nil || c.Hits == nil || hits <= 0 {
		return
	}
	c.Hits.WithLabelValues(detector).Add(float64(hits))
}

// IncComputeError counts a rejected or aborted computation.
func (c *EngineCollector) IncComputeError(reason string) {
	if c == nil || c.ComputeErrors == nil {
		return
	}
	c.ComputeErrors.WithLabelValues(reason).Inc()
}

// SetComponents updates the component gauge.
func (c *EngineCollector) SetComponents(n int) {
	if c == nil || c.Components == nil {
		return
	}
	c.Components.Set(float64(n))
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
