// Package frame converts sky directions into the spacecraft body frame given
// the spacecraft attitude.
package frame

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrInvalidQuaternion = errors.New("invalid attitude quaternion")

// Attitude is the orientation of the spacecraft. The quaternion rotates
// body-frame vectors into ICRS.
type Attitude struct {
	q mgl64.Quat
}

// NewAttitude builds an attitude from a scalar-last quaternion (x, y, z, w),
// the order the spacecraft attitude history uses. The quaternion is
// normalised; a zero or non-finite quaternion is rejected.
func NewAttitude(x, y, z, w float64) (Attitude, error) {
	q := mgl64.Quat{W: w, V: mgl64.Vec3{x, y, z}}
	l := q.Len()
	if l < 1e-12 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Attitude{}, fmt.Errorf("%w: (%g, %g, %g, %g)", ErrInvalidQuaternion, x, y, z, w)
	}
	return Attitude{q: q.Normalize()}, nil
}

// Identity returns the attitude whose body axes coincide with ICRS.
func Identity() Attitude {
	return Attitude{q: mgl64.QuatIdent()}
}

// Quaternion returns the normalised quaternion as (x, y, z, w).
func (a Attitude) Quaternion() (x, y, z, w float64) {
	return a.q.V.X(), a.q.V.Y(), a.q.V.Z(), a.q.W
}

// ToSky rotates a body-frame vector into ICRS.
func (a Attitude) ToSky(v mgl64.Vec3) mgl64.Vec3 {
	return a.q.Rotate(v)
}

// ToBody rotates an ICRS vector into the body frame.
func (a Attitude) ToBody(v mgl64.Vec3) mgl64.Vec3 {
	return a.q.Conjugate().Rotate(v)
}

// BodyDirection returns the body-frame unit vector toward (ra, dec) degrees.
func (a Attitude) BodyDirection(raDeg, decDeg float64) mgl64.Vec3 {
	return a.ToBody(RADecToUnit(raDeg, decDeg)).Normalize()
}

// SkyPosition returns the (ra, dec) in degrees a body-frame direction points to.
func (a Attitude) SkyPosition(v mgl64.Vec3) (raDeg, decDeg float64) {
	return UnitToRADec(a.ToSky(v))
}

// RADecToUnit converts equatorial coordinates in degrees to an ICRS unit vector.
func RADecToUnit(raDeg, decDeg float64) mgl64.Vec3 {
	ra := mgl64.DegToRad(raDeg)
	dec := mgl64.DegToRad(decDeg)
	cd := math.Cos(dec)
	return mgl64.Vec3{cd * math.Cos(ra), cd * math.Sin(ra), math.Sin(dec)}
}

// UnitToRADec converts an ICRS vector to equatorial coordinates in degrees,
// with ra in [0, 360).
func UnitToRADec(v mgl64.Vec3) (raDeg, decDeg float64) {
	v = v.Normalize()
	ra := mgl64.RadToDeg(math.Atan2(v.Y(), v.X()))
	if ra < 0 {
		ra += 360
	}
	dec := mgl64.RadToDeg(math.Asin(mgl64.Clamp(v.Z(), -1, 1)))
	return ra, dec
}
