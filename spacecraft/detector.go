package spacecraft

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// DetectorKind distinguishes the scintillator types on the bus.
type DetectorKind int

const (
	DetectorNaI DetectorKind = iota
	DetectorBGO
)

func (k DetectorKind) String() string {
	if k == DetectorBGO {
		return "BGO"
	}
	return "NaI"
}

// Detector is an instrument mount point on the body.
type Detector struct {
	Name     string
	Kind     DetectorKind
	Mount    mgl64.Vec3 // body frame, cm
	Pointing mgl64.Vec3 // unit boresight, body frame
}

// PointingFromAzZen converts a spacecraft-frame azimuth (from +X toward +Y)
// and zenith (from +Z), both in degrees, to a unit vector.
func PointingFromAzZen(azDeg, zenDeg float64) mgl64.Vec3 {
	az := mgl64.DegToRad(azDeg)
	zen := mgl64.DegToRad(zenDeg)
	return mgl64.SphericalToCartesian(1, zen, az)
}

// DetectorSet is an ordered, immutable set of uniquely named detectors.
type DetectorSet struct {
	detectors []Detector
	index     map[string]int
}

func NewDetectorSet(detectors ...Detector) (*DetectorSet, error) {
	s := &DetectorSet{
		detectors: make([]Detector, 0, len(detectors)),
		index:     make(map[string]int, len(detectors)),
	}
	for _, d := range detectors {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: position %d", ErrUnnamedDetector, len(s.detectors))
		}
		if _, exists := s.index[d.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateDetector, d.Name)
		}
		if l := d.Pointing.Len(); l > 0 {
			d.Pointing = d.Pointing.Mul(1 / l)
		}
		s.index[d.Name] = len(s.detectors)
		s.detectors = append(s.detectors, d)
	}
	return s, nil
}

// Detectors returns the detectors in set order.
func (s *DetectorSet) Detectors() []Detector {
	return append([]Detector(nil), s.detectors...)
}

// Get returns the named detector.
func (s *DetectorSet) Get(name string) (Detector, bool) {
	i, ok := s.index[name]
	if !ok {
		return Detector{}, false
	}
	return s.detectors[i], true
}

func (s *DetectorSet) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Names returns detector names in set order.
func (s *DetectorSet) Names() []string {
	names := make([]string, len(s.detectors))
	for i, d := range s.detectors {
		names[i] = d.Name
	}
	return names
}

func (s *DetectorSet) Len() int { return len(s.detectors) }
