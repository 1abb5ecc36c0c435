// Package orbit supplies the spacecraft position used to place the Earth
// occulter relative to the body.
package orbit

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/spacecraft-raycast/frame"
)

// EarthRadiusKm is the mean Earth radius used for occultation geometry.
const EarthRadiusKm = 6371.0

const kmToCm = 1e5

var ErrPropagation = errors.New("orbit propagation failed")

// PositionSource reports the spacecraft position, in kilometres, in the
// inertial frame used for sky directions.
type PositionSource interface {
	PositionECI(t time.Time) (mgl64.Vec3, error)
}

// StaticPosition always reports the same position.
type StaticPosition struct {
	Position mgl64.Vec3
}

func (s StaticPosition) PositionECI(time.Time) (mgl64.Vec3, error) {
	return s.Position, nil
}

// SGP4 propagates a two-line element set.
type SGP4 struct {
	sat satellite.Satellite
}

// NewSGP4FromTLE constructs a propagator from TLE lines.
func NewSGP4FromTLE(line1, line2 string) (*SGP4, error) {
	if len(line1) < 69 || len(line2) < 69 {
		return nil, fmt.Errorf("%w: malformed TLE", ErrPropagation)
	}
	return &SGP4{sat: satellite.TLEToSat(line1, line2, satellite.GravityWGS72)}, nil
}

// PositionECI propagates to t (truncated to whole seconds). go-satellite
// works in kilometres in the TEME frame, which is treated as inertial here.
func (m *SGP4) PositionECI(t time.Time) (mgl64.Vec3, error) {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	pos, _ := satellite.Propagate(m.sat, year, int(month), day, hour, min, sec)
	v := mgl64.Vec3{pos.X, pos.Y, pos.Z}
	r := v.Len()
	if math.IsNaN(r) || r < EarthRadiusKm {
		return mgl64.Vec3{}, fmt.Errorf("%w: |r| = %g km at %s", ErrPropagation, r, t.Format(time.RFC3339))
	}
	return v, nil
}

// EarthCenterInBody returns the Earth centre in the body frame (cm) for a
// spacecraft at posKm with the given attitude.
func EarthCenterInBody(att frame.Attitude, posKm mgl64.Vec3) mgl64.Vec3 {
	return att.ToBody(posKm.Mul(-kmToCm))
}

// EarthAngularRadius returns the apparent angular radius of the Earth, in
// degrees, seen from posKm.
func EarthAngularRadius(posKm mgl64.Vec3) float64 {
	r := posKm.Len()
	if r <= EarthRadiusKm {
		return 90
	}
	return mgl64.RadToDeg(math.Asin(EarthRadiusKm / r))
}
