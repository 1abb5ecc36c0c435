package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/signalsfoundry/spacecraft-raycast/engine"
	"github.com/signalsfoundry/spacecraft-raycast/frame"
	"github.com/signalsfoundry/spacecraft-raycast/orbit"
	"github.com/signalsfoundry/spacecraft-raycast/skymap"
	"github.com/signalsfoundry/spacecraft-raycast/spacecraft"
)

// scene rebuilds the spacecraft at every step so the Earth occulter follows
// the orbit while the source stays fixed on the sky.
type scene struct {
	attitude  frame.Attitude
	position  orbit.PositionSource
	start     time.Time
	ra, dec   float64
	sigma     float64
	bands     int
	selection []string

	engineOpts []engine.Option
}

type stepRecord struct {
	Step            int              `json:"step"`
	Time            time.Time        `json:"time"`
	Version         uint64           `json:"version"`
	EarthAngularDeg *float64         `json:"earth_angular_radius_deg,omitempty"`
	Detectors       []detectorRecord `json:"detectors"`
}

type detectorRecord struct {
	Detector string         `json:"detector"`
	Rays     int            `json:"rays"`
	Hits     int            `json:"hits"`
	Surfaces map[string]int `json:"surfaces,omitempty"`
	Points   [][3]float64   `json:"points,omitempty"`
}

func (s *scene) computeStep(ctx context.Context, step int, now time.Time) (stepRecord, error) {
	rec := stepRecord{Step: step, Time: now.UTC()}

	var cfg spacecraft.FermiConfig
	if s.position != nil {
		posKm, err := s.position.PositionECI(now)
		if err != nil {
			return rec, err
		}
		center := orbit.EarthCenterInBody(s.attitude, posKm)
		cfg.EarthCenter = &center
		angular := orbit.EarthAngularRadius(posKm)
		rec.EarthAngularDeg = &angular
	}

	sc, err := spacecraft.NewFermi(cfg)
	if err != nil {
		return rec, err
	}
	if err := s.seed(sc); err != nil {
		return rec, err
	}

	res, err := engine.New(sc, s.engineOpts...).Compute(ctx, s.selection...)
	if err != nil {
		return rec, err
	}
	rec.Version = res.Version
	for _, d := range res.Detectors {
		dr := detectorRecord{
			Detector: d.Detector,
			Rays:     len(d.Rays),
			Hits:     d.HitCount(),
		}
		for _, ray := range d.Rays {
			for _, h := range ray.Hits {
				if dr.Surfaces == nil {
					dr.Surfaces = make(map[string]int)
				}
				dr.Surfaces[h.Label()]++
			}
		}
		for _, p := range d.Points {
			dr.Points = append(dr.Points, [3]float64{p.X(), p.Y(), p.Z()})
		}
		rec.Detectors = append(rec.Detectors, dr)
	}
	return rec, nil
}

func (s *scene) seed(sc *spacecraft.Spacecraft) error {
	if s.sigma <= 0 {
		return sc.AddRay(s.attitude.BodyDirection(s.ra, s.dec))
	}
	cells := skymap.Spot(skymap.Grid(s.bands), s.ra, s.dec, s.sigma)
	if _, err := skymap.Seed(sc, s.attitude, cells, skymap.Viridis); err != nil {
		return fmt.Errorf("seed localisation: %w", err)
	}
	return nil
}

// recordWriter emits one JSON document per line.
type recordWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newRecordWriter(w io.Writer) *recordWriter {
	return &recordWriter{enc: json.NewEncoder(w)}
}

func (w *recordWriter) Write(rec stepRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(rec)
}
