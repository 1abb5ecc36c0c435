package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrDegenerateSurface is returned when a primitive has no area: collinear or
// zero edges, a zero normal, a non-positive radius or height, or non-finite
// coordinates.
var ErrDegenerateSurface = errors.New("degenerate surface")

func finite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

func positive(x float64) bool {
	return x > 0 && !math.IsInf(x, 1)
}

func degenerate(label, format string, args ...any) error {
	return fmt.Errorf("%w: %q: %s", ErrDegenerateSurface, label, fmt.Sprintf(format, args...))
}

// hitEpsilon is the minimum distance along a ray that counts as a hit. It
// keeps surfaces that pass through the ray origin from reporting t == 0.
const hitEpsilon = 1e-9

// parallelEpsilon bounds |d·n| below which a ray is treated as parallel to a
// planar surface.
const parallelEpsilon = 1e-12

// Surface is a bounded primitive fixed in the body frame.
type Surface interface {
	Label() string
	// Hit reports the nearest intersection strictly in front of the ray
	// origin, if any.
	Hit(ray Ray) (Hit, bool)
}

// Nearest returns the closest hit among surfaces. Ties keep the earlier
// surface in slice order.
func Nearest(ray Ray, surfaces []Surface) (Hit, bool) {
	var (
		best  Hit
		found bool
	)
	for _, s := range surfaces {
		h, ok := s.Hit(ray)
		if !ok {
			continue
		}
		if !found || h.Distance < best.Distance {
			best, found = h, true
		}
	}
	return best, found
}

// Quad is a bounded parallelogram spanned by U and V from Corner.
type Quad struct {
	label  string
	Corner mgl64.Vec3
	U, V   mgl64.Vec3

	normal mgl64.Vec3
	d      float64
	w      mgl64.Vec3
}

// NewQuad builds a quad from a corner and two edge vectors. The edges must
// span a parallelogram of non-zero area.
func NewQuad(label string, corner, u, v mgl64.Vec3) (*Quad, error) {
	if !finite(corner) || !finite(u) || !finite(v) {
		return nil, degenerate(label, "non-finite corner or edge")
	}
	cross := u.Cross(v)
	if !(cross.Len() > parallelEpsilon*u.Len()*v.Len()) {
		return nil, degenerate(label, "edges %v and %v span no area", u, v)
	}
	normal := cross.Normalize()
	return &Quad{
		label:  label,
		Corner: corner,
		U:      u,
		V:      v,
		normal: normal,
		d:      normal.Dot(corner),
		w:      normal.Mul(1.0 / normal.Dot(cross)),
	}, nil
}

// NewCenteredQuad builds a quad centred on center with full edge vectors u and v.
func NewCenteredQuad(label string, center, u, v mgl64.Vec3) (*Quad, error) {
	corner := center.Sub(u.Mul(0.5)).Sub(v.Mul(0.5))
	return NewQuad(label, corner, u, v)
}

func (q *Quad) Label() string { return q.label }

// Normal returns the unit normal U × V.
func (q *Quad) Normal() mgl64.Vec3 { return q.normal }

// Corners returns the four vertices in winding order.
func (q *Quad) Corners() [4]mgl64.Vec3 {
	return [4]mgl64.Vec3{
		q.Corner,
		q.Corner.Add(q.U),
		q.Corner.Add(q.U).Add(q.V),
		q.Corner.Add(q.V),
	}
}

func (q *Quad) Hit(ray Ray) (Hit, bool) {
	denom := ray.Direction.Dot(q.normal)
	if math.Abs(denom) < parallelEpsilon {
		return Hit{}, false
	}

	t := (q.d - ray.Origin.Dot(q.normal)) / denom
	if !(t > hitEpsilon) {
		return Hit{}, false
	}

	p := ray.At(t)
	rel := p.Sub(q.Corner)
	alpha := q.w.Dot(rel.Cross(q.V))
	beta := q.w.Dot(q.U.Cross(rel))
	if !(alpha >= 0 && alpha <= 1 && beta >= 0 && beta <= 1) {
		return Hit{}, false
	}

	return Hit{Surface: q.label, Point: p, Distance: t}, true
}

// Disc is a flat circular surface.
type Disc struct {
	label  string
	Center mgl64.Vec3
	Normal mgl64.Vec3
	Radius float64
}

func NewDisc(label string, center, normal mgl64.Vec3, radius float64) (*Disc, error) {
	if !finite(center) || !finite(normal) {
		return nil, degenerate(label, "non-finite centre or normal")
	}
	if !(normal.Len() > minDirectionNorm) {
		return nil, degenerate(label, "zero normal")
	}
	if !positive(radius) {
		return nil, degenerate(label, "radius %g", radius)
	}
	return &Disc{label: label, Center: center, Normal: normal.Normalize(), Radius: radius}, nil
}

func (d *Disc) Label() string { return d.label }

func (d *Disc) Hit(ray Ray) (Hit, bool) {
	denom := d.Normal.Dot(ray.Direction)
	if math.Abs(denom) < parallelEpsilon {
		return Hit{}, false
	}

	t := d.Normal.Dot(d.Center.Sub(ray.Origin)) / denom
	if !(t > hitEpsilon) {
		return Hit{}, false
	}

	p := ray.At(t)
	off := p.Sub(d.Center)
	if !(off.Dot(off) <= d.Radius*d.Radius) {
		return Hit{}, false
	}
	return Hit{Surface: d.label, Point: p, Distance: t}, true
}

// Cylinder is the open side wall of a finite right cylinder.
type Cylinder struct {
	label  string
	Base   mgl64.Vec3
	Top    mgl64.Vec3
	Radius float64

	axis   mgl64.Vec3
	height float64
}

func NewCylinder(label string, base, top mgl64.Vec3, radius float64) (*Cylinder, error) {
	if !finite(base) || !finite(top) {
		return nil, degenerate(label, "non-finite axis")
	}
	axis := top.Sub(base)
	if !(axis.Len() > minDirectionNorm) {
		return nil, degenerate(label, "zero height")
	}
	if !positive(radius) {
		return nil, degenerate(label, "radius %g", radius)
	}
	return &Cylinder{
		label:  label,
		Base:   base,
		Top:    top,
		Radius: radius,
		axis:   axis.Normalize(),
		height: axis.Len(),
	}, nil
}

func (c *Cylinder) Label() string { return c.label }

func (c *Cylinder) Hit(ray Ray) (Hit, bool) {
	delta := ray.Origin.Sub(c.Base)
	dv := ray.Direction.Dot(c.axis)
	deltaV := delta.Dot(c.axis)

	// a t² + b t + cc = 0 on the component perpendicular to the axis.
	a := 1 - dv*dv
	if a < parallelEpsilon {
		return Hit{}, false
	}
	b := 2 * (delta.Dot(ray.Direction) - deltaV*dv)
	cc := delta.Dot(delta) - deltaV*deltaV - c.Radius*c.Radius

	disc := b*b - 4*a*cc
	if !(disc >= 0) {
		return Hit{}, false
	}
	sq := math.Sqrt(disc)
	for _, t := range [2]float64{(-b - sq) / (2 * a), (-b + sq) / (2 * a)} {
		if !(t > hitEpsilon) {
			continue
		}
		p := ray.At(t)
		h := p.Sub(c.Base).Dot(c.axis)
		if h < 0 || h > c.height {
			continue
		}
		return Hit{Surface: c.label, Point: p, Distance: t}, true
	}
	return Hit{}, false
}

// Sphere is a full spherical shell. A ray starting inside reports its exit
// point.
type Sphere struct {
	label  string
	Center mgl64.Vec3
	Radius float64
}

func NewSphere(label string, center mgl64.Vec3, radius float64) (*Sphere, error) {
	if !finite(center) {
		return nil, degenerate(label, "non-finite centre")
	}
	if !positive(radius) {
		return nil, degenerate(label, "radius %g", radius)
	}
	return &Sphere{label: label, Center: center, Radius: radius}, nil
}

func (s *Sphere) Label() string { return s.label }

func (s *Sphere) Hit(ray Ray) (Hit, bool) {
	oc := ray.Origin.Sub(s.Center)
	halfB := oc.Dot(ray.Direction)
	c := oc.Dot(oc) - s.Radius*s.Radius

	disc := halfB*halfB - c
	if !(disc >= 0) {
		return Hit{}, false
	}
	sq := math.Sqrt(disc)
	t := -halfB - sq
	if !(t > hitEpsilon) {
		t = -halfB + sq
		if !(t > hitEpsilon) {
			return Hit{}, false
		}
	}
	return Hit{Surface: s.label, Point: ray.At(t), Distance: t}, true
}

// Box returns the six faces of an axis-aligned box, labelled by outward
// normal: "+x", "-x", "+y", "-y", "+z", "-z". Every extent of hi - lo must be
// positive.
func Box(lo, hi mgl64.Vec3) ([]Surface, error) {
	size := hi.Sub(lo)
	if !finite(lo) || !finite(hi) || !(size.X() > 0 && size.Y() > 0 && size.Z() > 0) {
		return nil, fmt.Errorf("%w: box %v to %v", ErrDegenerateSurface, lo, hi)
	}
	ex := mgl64.Vec3{size.X(), 0, 0}
	ey := mgl64.Vec3{0, size.Y(), 0}
	ez := mgl64.Vec3{0, 0, size.Z()}

	faces := []struct {
		label        string
		corner, u, v mgl64.Vec3
	}{
		{"+x", lo.Add(ex), ey, ez},
		{"-x", lo, ez, ey},
		{"+y", lo.Add(ey), ez, ex},
		{"-y", lo, ex, ez},
		{"+z", lo.Add(ez), ex, ey},
		{"-z", lo, ey, ex},
	}
	out := make([]Surface, 0, len(faces))
	for _, f := range faces {
		q, err := NewQuad(f.label, f.corner, f.u, f.v)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, nil
}
