// Package geometry holds the body-frame ray model and the surface primitives
// spacecraft components are built from. All lengths are centimetres.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultRayColor is the display colour used when a ray is added without one.
const DefaultRayColor = "#29FC5C"

// minDirectionNorm is the smallest direction magnitude accepted for a ray.
const minDirectionNorm = 1e-9

var (
	ErrDegenerateRay = errors.New("degenerate ray direction")
	ErrInvalidWeight = errors.New("ray weight outside (0, 1]")
)

// Ray is a half-line from a detector mount point toward a sky direction.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3 // always unit length

	// Weight is an optional probability in (0, 1]; zero means unset. It only
	// feeds downstream colouring and weighting.
	Weight float64
	Color  string
}

// NewRay builds a ray, normalising direction. Directions with near-zero
// magnitude or non-finite components are rejected with ErrDegenerateRay.
func NewRay(origin, direction mgl64.Vec3, weight float64, color string) (Ray, error) {
	norm := direction.Len()
	if math.IsNaN(norm) || math.IsInf(norm, 0) || norm < minDirectionNorm {
		return Ray{}, fmt.Errorf("%w: |d| = %g", ErrDegenerateRay, norm)
	}
	if math.IsNaN(weight) || weight < 0 || weight > 1 {
		return Ray{}, fmt.Errorf("%w: %g", ErrInvalidWeight, weight)
	}
	if color == "" {
		color = DefaultRayColor
	}
	return Ray{
		Origin:    origin,
		Direction: direction.Mul(1 / norm),
		Weight:    weight,
		Color:     color,
	}, nil
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Terminal returns the end point of the segment of the given length, which is
// what the rendering side draws for an otherwise infinite ray.
func (r Ray) Terminal(length float64) mgl64.Vec3 {
	return r.At(length)
}

// Hit is a single ray/surface intersection.
type Hit struct {
	Surface  string
	Point    mgl64.Vec3
	Distance float64
}
