package spacecraft

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/spacecraft-raycast/geometry"
)

// Spacecraft couples an immutable body and detector set with the rays cast
// from each detector. Rays only ever accumulate; build a new Spacecraft to
// start from an empty ray list or a new pose.
type Spacecraft struct {
	body      *Body
	detectors *DetectorSet

	mu   sync.RWMutex
	rays map[string][]geometry.Ray
}

// New builds a spacecraft with an empty ray list for every detector.
func New(body *Body, detectors *DetectorSet) (*Spacecraft, error) {
	if body == nil || detectors == nil {
		return nil, ErrIncomplete
	}
	rays := make(map[string][]geometry.Ray, detectors.Len())
	for _, name := range detectors.Names() {
		rays[name] = nil
	}
	return &Spacecraft{body: body, detectors: detectors, rays: rays}, nil
}

func (s *Spacecraft) Body() *Body             { return s.body }
func (s *Spacecraft) Detectors() *DetectorSet { return s.detectors }

// RayOption customises the rays produced by AddRay.
type RayOption func(*rayOptions)

type rayOptions struct {
	weight float64
	color  string
}

// WithWeight attaches a probability in (0, 1] to the rays.
func WithWeight(w float64) RayOption {
	return func(o *rayOptions) { o.weight = w }
}

// WithColor sets the display colour of the rays.
func WithColor(c string) RayOption {
	return func(o *rayOptions) { o.color = c }
}

// AddRay fans one body-frame direction out into one ray per detector, each
// starting at that detector's mount point. Nothing is added on error.
func (s *Spacecraft) AddRay(direction mgl64.Vec3, opts ...RayOption) error {
	var o rayOptions
	for _, opt := range opts {
		opt(&o)
	}

	dets := s.detectors.Detectors()
	built := make([]geometry.Ray, len(dets))
	for i, d := range dets {
		r, err := geometry.NewRay(d.Mount, direction, o.weight, o.color)
		if err != nil {
			return fmt.Errorf("add ray for detector %q: %w", d.Name, err)
		}
		built[i] = r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range dets {
		s.rays[d.Name] = append(s.rays[d.Name], built[i])
	}
	return nil
}

// Rays returns a copy of the rays accumulated for a detector.
func (s *Spacecraft) Rays(detector string) ([]geometry.Ray, error) {
	if !s.detectors.Has(detector) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDetector, detector)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]geometry.Ray(nil), s.rays[detector]...), nil
}

// RayCount returns the number of rays per detector (every detector holds the
// same number).
func (s *Spacecraft) RayCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rs := range s.rays {
		return len(rs)
	}
	return 0
}

// DetectorRays is a detector's ray list captured at one instant.
type DetectorRays struct {
	Detector string
	Rays     []geometry.Ray
}

// Snapshot returns every detector's rays in detector-set order. The returned
// slices are independent of later AddRay calls.
func (s *Spacecraft) Snapshot() []DetectorRays {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]DetectorRays, 0, s.detectors.Len())
	for _, name := range s.detectors.Names() {
		out = append(out, DetectorRays{
			Detector: name,
			Rays:     append([]geometry.Ray(nil), s.rays[name]...),
		})
	}
	return out
}
