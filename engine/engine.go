// Package engine runs every accumulated ray of a spacecraft against every
// component of its body and collects the surfaces each ray strikes.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/spacecraft-raycast/geometry"
	"github.com/signalsfoundry/spacecraft-raycast/internal/logging"
	"github.com/signalsfoundry/spacecraft-raycast/internal/observability"
	"github.com/signalsfoundry/spacecraft-raycast/spacecraft"
)

// ErrInvalidSelection is returned when a caller selects a detector the
// spacecraft does not have.
var ErrInvalidSelection = errors.New("invalid detector selection")

// MetricsRecorder receives per-computation measurements. The observability
// EngineCollector satisfies it.
type MetricsRecorder interface {
	ObserveCompute(d time.Duration, rays int)
	AddHits(detector string, hits int)
	IncComputeError(reason string)
	SetComponents(n int)
}

// Config tunes how a computation is scheduled.
type Config struct {
	// Workers is the number of goroutines testing rays. Values below 1 mean
	// a single, serial sweep.
	Workers int
}

// ApplyDefaults returns c with zero or invalid fields replaced.
func (c Config) ApplyDefaults() Config {
	if c.Workers < 1 {
		c.Workers = 1
	}
	return c
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg.ApplyDefaults() }
}

// Engine computes intersections for one spacecraft instance.
type Engine struct {
	sc      *spacecraft.Spacecraft
	cfg     Config
	log     logging.Logger
	metrics MetricsRecorder

	mu      sync.Mutex
	version uint64
	last    *Result
}

// New returns an engine bound to sc.
func New(sc *spacecraft.Spacecraft, opts ...Option) *Engine {
	e := &Engine{
		sc:  sc,
		cfg: Config{}.ApplyDefaults(),
		log: logging.Noop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Last returns the most recent successful result, or nil.
func (e *Engine) Last() *Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Compute tests the rays of the selected detectors (all detectors when
// selection is empty) against every component. Unknown detector names are
// rejected before anything is computed. On error the previous result is left
// untouched.
func (e *Engine) Compute(ctx context.Context, selection ...string) (*Result, error) {
	ctx, log := logging.WithRunLogger(ctx, e.log)
	ctx, span := observability.StartSpan(ctx, "engine.Compute",
		attribute.Int("selection.size", len(selection)),
		attribute.Int("workers", e.cfg.Workers),
	)
	defer span.End()

	start := time.Now()

	names, err := e.resolveSelection(selection)
	if err != nil {
		e.fail(ctx, log, span, "invalid_selection", err)
		return nil, err
	}

	snapshot := e.sc.Snapshot()
	components := e.sc.Body().Components()

	res := &Result{Selection: names}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	var jobs []job
	for _, dr := range snapshot {
		if !wanted[dr.Detector] {
			continue
		}
		di := len(res.Detectors)
		res.Detectors = append(res.Detectors, DetectorResult{
			Detector: dr.Detector,
			Rays:     make([]RayRecord, len(dr.Rays)),
		})
		for ri, ray := range dr.Rays {
			jobs = append(jobs, job{detector: di, index: ri, ray: ray})
		}
	}

	log.Debug(ctx, "computing intersections",
		logging.Int("detectors", len(res.Detectors)),
		logging.Int("rays", len(jobs)),
		logging.Int("components", len(components)),
	)

	if err := e.run(ctx, res, jobs, components); err != nil {
		e.fail(ctx, log, span, "canceled", err)
		return nil, err
	}

	for i := range res.Detectors {
		d := &res.Detectors[i]
		for _, rec := range d.Rays {
			for _, h := range rec.Hits {
				d.Points = append(d.Points, h.Point)
			}
		}
	}

	e.mu.Lock()
	e.version++
	res.Version = e.version
	res.ComputedAt = time.Now().UTC()
	e.last = res
	e.mu.Unlock()

	elapsed := time.Since(start)
	hits := res.HitCount()
	if e.metrics != nil {
		e.metrics.ObserveCompute(elapsed, len(jobs))
		e.metrics.SetComponents(len(components))
		for _, d := range res.Detectors {
			e.metrics.AddHits(d.Detector, d.HitCount())
		}
	}
	span.SetAttributes(
		attribute.Int("rays", len(jobs)),
		attribute.Int("hits", hits),
		attribute.Int64("result.version", int64(res.Version)),
	)
	log.Info(ctx, "intersections computed",
		logging.Int("detectors", len(res.Detectors)),
		logging.Int("rays", len(jobs)),
		logging.Int("hits", hits),
		logging.Duration("elapsed", elapsed),
	)
	return res, nil
}

type job struct {
	detector int
	index    int
	ray      geometry.Ray
}

// run fills res with the hit list of every job. Each (detector, ray) cell is
// written by exactly one goroutine.
func (e *Engine) run(ctx context.Context, res *Result, jobs []job, components []spacecraft.Component) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	workers := e.cfg.Workers
	if workers > len(jobs) {
		workers = len(jobs)
	}

	if workers <= 1 {
		for _, j := range jobs {
			if err := ctx.Err(); err != nil {
				return err
			}
			res.Detectors[j.detector].Rays[j.index] = RayRecord{Index: j.index, Hits: testRay(j.ray, components)}
		}
		return nil
	}

	queue := make(chan job)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				res.Detectors[j.detector].Rays[j.index] = RayRecord{Index: j.index, Hits: testRay(j.ray, components)}
			}
		}()
	}

	var err error
feed:
	for _, j := range jobs {
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		case queue <- j:
		}
	}
	close(queue)
	wg.Wait()
	return err
}

// testRay runs one ray against every component in body order.
func testRay(ray geometry.Ray, components []spacecraft.Component) []spacecraft.Intersection {
	hits := []spacecraft.Intersection{}
	for _, c := range components {
		if hit, ok := c.Intersect(ray); ok {
			hits = append(hits, hit)
		}
	}
	return hits
}

// resolveSelection validates names against the detector set and returns them
// in detector-set order without duplicates.
func (e *Engine) resolveSelection(selection []string) ([]string, error) {
	dets := e.sc.Detectors()
	if len(selection) == 0 {
		return dets.Names(), nil
	}

	requested := make(map[string]bool, len(selection))
	for _, name := range selection {
		if !dets.Has(name) {
			return nil, fmt.Errorf("%w: unknown detector %q", ErrInvalidSelection, name)
		}
		requested[name] = true
	}

	names := make([]string, 0, len(requested))
	for _, name := range dets.Names() {
		if requested[name] {
			names = append(names, name)
		}
	}
	return names, nil
}

func (e *Engine) fail(ctx context.Context, log logging.Logger, span trace.Span, reason string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	if e.metrics != nil {
		e.metrics.IncComputeError(reason)
	}
	log.Warn(ctx, "intersection computation failed", logging.String("reason", reason), logging.Err(err))
}
