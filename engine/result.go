package engine

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/spacecraft-raycast/spacecraft"
)

// RayRecord lists the component surfaces struck by one ray, in component
// testing order. Hits is empty, never nil, when the ray strikes nothing.
type RayRecord struct {
	Index int
	Hits  []spacecraft.Intersection
}

// DetectorResult holds the records of every ray cast from one detector.
type DetectorResult struct {
	Detector string
	Rays     []RayRecord

	// Points is every hit point of every ray, flattened in ray then
	// component order.
	Points []mgl64.Vec3
}

// HitCount returns the number of surfaces struck across all rays.
func (d DetectorResult) HitCount() int {
	return len(d.Points)
}

func (d DetectorResult) clone() DetectorResult {
	out := DetectorResult{
		Detector: d.Detector,
		Rays:     make([]RayRecord, len(d.Rays)),
		Points:   append([]mgl64.Vec3(nil), d.Points...),
	}
	for i, rec := range d.Rays {
		out.Rays[i] = RayRecord{
			Index: rec.Index,
			Hits:  append([]spacecraft.Intersection{}, rec.Hits...),
		}
	}
	return out
}

// Result is the outcome of one Compute call. The engine never modifies a
// Result after returning it, and the Detector and Points accessors return
// copies, so callers cannot alter the stored Last result through them.
type Result struct {
	// Version increases by one with every successful computation on the
	// same engine.
	Version    uint64
	Selection  []string
	ComputedAt time.Time
	Detectors  []DetectorResult
}

// Detector returns the result for the named detector, if it was selected.
func (r *Result) Detector(name string) (DetectorResult, bool) {
	if r == nil {
		return DetectorResult{}, false
	}
	for _, d := range r.Detectors {
		if d.Detector == name {
			return d.clone(), true
		}
	}
	return DetectorResult{}, false
}

// Points returns the flattened hit points keyed by detector.
func (r *Result) Points() map[string][]mgl64.Vec3 {
	if r == nil {
		return nil
	}
	out := make(map[string][]mgl64.Vec3, len(r.Detectors))
	for _, d := range r.Detectors {
		out[d.Detector] = append([]mgl64.Vec3(nil), d.Points...)
	}
	return out
}

// HitCount returns the total number of surfaces struck.
func (r *Result) HitCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, d := range r.Detectors {
		n += d.HitCount()
	}
	return n
}

// RayCount returns the total number of rays tested.
func (r *Result) RayCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, d := range r.Detectors {
		n += len(d.Rays)
	}
	return n
}
