package geometry

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

const tol = 1e-9

func mustRay(t *testing.T, origin, dir mgl64.Vec3) Ray {
	t.Helper()
	r, err := NewRay(origin, dir, 0, "")
	if err != nil {
		t.Fatalf("NewRay: %v", err)
	}
	return r
}

func must[T any](v T, err error) func(*testing.T) T {
	return func(t *testing.T) T {
		t.Helper()
		if err != nil {
			t.Fatalf("construct surface: %v", err)
		}
		return v
	}
}

func TestNewRay_NormalisesDirection(t *testing.T) {
	r := mustRay(t, mgl64.Vec3{}, mgl64.Vec3{0, 3, 4})
	if math.Abs(r.Direction.Len()-1) > tol {
		t.Fatalf("|d| = %v, want 1", r.Direction.Len())
	}
	if r.Color != DefaultRayColor {
		t.Fatalf("Color = %q, want %q", r.Color, DefaultRayColor)
	}
}

func TestNewRay_RejectsDegenerate(t *testing.T) {
	_, err := NewRay(mgl64.Vec3{}, mgl64.Vec3{1e-12, 0, 0}, 0, "")
	if !errors.Is(err, ErrDegenerateRay) {
		t.Fatalf("err = %v, want ErrDegenerateRay", err)
	}
	_, err = NewRay(mgl64.Vec3{}, mgl64.Vec3{math.NaN(), 0, 1}, 0, "")
	if !errors.Is(err, ErrDegenerateRay) {
		t.Fatalf("NaN direction err = %v, want ErrDegenerateRay", err)
	}
}

func TestNewRay_RejectsBadWeight(t *testing.T) {
	for _, w := range []float64{-0.1, 1.5, math.NaN()} {
		if _, err := NewRay(mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, w, ""); !errors.Is(err, ErrInvalidWeight) {
			t.Fatalf("weight %v: err = %v, want ErrInvalidWeight", w, err)
		}
	}
}

func TestQuad_HitCentre(t *testing.T) {
	q := must(NewCenteredQuad("face", mgl64.Vec3{0, 0, 5}, mgl64.Vec3{10, 0, 0}, mgl64.Vec3{0, 10, 0}))(t)
	h, ok := q.Hit(mustRay(t, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}))
	if !ok {
		t.Fatal("expected hit, got miss")
	}
	if math.Abs(h.Distance-5) > tol {
		t.Fatalf("distance = %v, want 5", h.Distance)
	}
	if h.Point.Sub(mgl64.Vec3{0, 0, 5}).Len() >= tol {
		t.Fatalf("point = %v, want (0,0,5)", h.Point)
	}
	if h.Surface != "face" {
		t.Fatalf("surface = %q, want face", h.Surface)
	}
}

func TestQuad_Misses(t *testing.T) {
	q := must(NewCenteredQuad("face", mgl64.Vec3{0, 0, 5}, mgl64.Vec3{10, 0, 0}, mgl64.Vec3{0, 10, 0}))(t)

	tests := []struct {
		name   string
		origin mgl64.Vec3
		dir    mgl64.Vec3
	}{
		{"parallel", mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}},
		{"behind origin", mgl64.Vec3{}, mgl64.Vec3{0, 0, -1}},
		{"outside bounds", mgl64.Vec3{6, 0, 0}, mgl64.Vec3{0, 0, 1}},
		{"oblique outside", mgl64.Vec3{}, mgl64.Vec3{1, 0, 0.1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if h, ok := q.Hit(mustRay(t, tt.origin, tt.dir)); ok {
				t.Fatalf("expected miss, got %+v", h)
			}
		})
	}
}

func TestDisc_Hit(t *testing.T) {
	d := must(NewDisc("lid", mgl64.Vec3{0, 0, 2}, mgl64.Vec3{0, 0, 1}, 1))(t)
	if _, ok := d.Hit(mustRay(t, mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{0, 0, 1})); !ok {
		t.Fatal("expected hit inside radius")
	}
	if _, ok := d.Hit(mustRay(t, mgl64.Vec3{1.5, 0, 0}, mgl64.Vec3{0, 0, 1})); ok {
		t.Fatal("expected miss outside radius")
	}
}

func TestCylinder_HitSideWall(t *testing.T) {
	c := must(NewCylinder("wall", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 10}, 2))(t)
	h, ok := c.Hit(mustRay(t, mgl64.Vec3{-10, 0, 5}, mgl64.Vec3{1, 0, 0}))
	if !ok {
		t.Fatal("expected hit on side wall")
	}
	if math.Abs(h.Distance-8) > tol {
		t.Fatalf("distance = %v, want 8", h.Distance)
	}

	if _, ok := c.Hit(mustRay(t, mgl64.Vec3{-10, 0, 12}, mgl64.Vec3{1, 0, 0})); ok {
		t.Fatal("expected miss above the cylinder")
	}
	if _, ok := c.Hit(mustRay(t, mgl64.Vec3{0, 0, -5}, mgl64.Vec3{0, 0, 1})); ok {
		t.Fatal("expected miss for a ray along the axis")
	}
}

func TestSphere_HitFromOutsideAndInside(t *testing.T) {
	s := must(NewSphere("earth", mgl64.Vec3{0, 0, 10}, 2))(t)
	h, ok := s.Hit(mustRay(t, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}))
	if !ok || math.Abs(h.Distance-8) > tol {
		t.Fatalf("outside hit = %+v (ok=%v), want distance 8", h, ok)
	}

	h, ok = s.Hit(mustRay(t, mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, 1}))
	if !ok || math.Abs(h.Distance-2) > tol {
		t.Fatalf("inside hit = %+v (ok=%v), want distance 2", h, ok)
	}

	if _, ok := s.Hit(mustRay(t, mgl64.Vec3{}, mgl64.Vec3{0, 0, -1})); ok {
		t.Fatal("expected miss when sphere is behind the origin")
	}
}

func TestBox_NearestFace(t *testing.T) {
	faces := must(Box(mgl64.Vec3{-1, -1, 4}, mgl64.Vec3{1, 1, 6}))(t)
	h, ok := Nearest(mustRay(t, mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}), faces)
	if !ok {
		t.Fatal("expected hit on box")
	}
	if h.Surface != "-z" || math.Abs(h.Distance-4) > tol {
		t.Fatalf("hit = %+v, want -z at 4", h)
	}

	for _, s := range faces {
		q := s.(*Quad)
		centre := q.Corner.Add(q.U.Mul(0.5)).Add(q.V.Mul(0.5))
		outward := centre.Sub(mgl64.Vec3{0, 0, 5})
		if q.Normal().Dot(outward) <= 0 {
			t.Fatalf("face %s normal %v does not point outward", q.Label(), q.Normal())
		}
	}
}

func TestCertainHitLandsOnTarget(t *testing.T) {
	q := must(NewCenteredQuad("panel", mgl64.Vec3{3, -2, 7}, mgl64.Vec3{4, 0, 0}, mgl64.Vec3{0, 3, 1}))(t)
	target := q.Corner.Add(q.U.Mul(0.25)).Add(q.V.Mul(0.75))
	origin := mgl64.Vec3{-5, 4, -1}

	h, ok := q.Hit(mustRay(t, origin, target.Sub(origin)))
	if !ok {
		t.Fatal("expected hit aimed at a point on the quad")
	}
	if h.Point.Sub(target).Len() >= 1e-7 {
		t.Fatalf("point = %v, want %v", h.Point, target)
	}
	if h.Distance < 0 {
		t.Fatalf("distance = %v, want >= 0", h.Distance)
	}
}

func TestConstructorsRejectDegenerateSurfaces(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name  string
		build func() error
	}{
		{"quad parallel edges", func() error {
			_, err := NewQuad("flat", mgl64.Vec3{0, 0, 5}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{2, 0, 0})
			return err
		}},
		{"quad zero edge", func() error {
			_, err := NewCenteredQuad("flat", mgl64.Vec3{0, 0, 5}, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0})
			return err
		}},
		{"quad NaN corner", func() error {
			_, err := NewQuad("flat", mgl64.Vec3{nan, 0, 5}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 1, 0})
			return err
		}},
		{"disc zero normal", func() error {
			_, err := NewDisc("lid", mgl64.Vec3{0, 0, 5}, mgl64.Vec3{}, 1)
			return err
		}},
		{"disc zero radius", func() error {
			_, err := NewDisc("lid", mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, 1}, 0)
			return err
		}},
		{"cylinder zero height", func() error {
			_, err := NewCylinder("wall", mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 1}, 2)
			return err
		}},
		{"cylinder NaN radius", func() error {
			_, err := NewCylinder("wall", mgl64.Vec3{}, mgl64.Vec3{0, 0, 1}, nan)
			return err
		}},
		{"sphere negative radius", func() error {
			_, err := NewSphere("ball", mgl64.Vec3{}, -1)
			return err
		}},
		{"sphere infinite centre", func() error {
			_, err := NewSphere("ball", mgl64.Vec3{math.Inf(1), 0, 0}, 1)
			return err
		}},
		{"flat box", func() error {
			_, err := Box(mgl64.Vec3{-1, -1, 4}, mgl64.Vec3{1, 1, 4})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.build(); !errors.Is(err, ErrDegenerateSurface) {
				t.Fatalf("err = %v, want ErrDegenerateSurface", err)
			}
		})
	}
}

func TestHitsAreFinite(t *testing.T) {
	surfaces := []Surface{
		must(NewQuad("quad", mgl64.Vec3{-1, -1, 5}, mgl64.Vec3{2, 0, 0}, mgl64.Vec3{0, 2, 0}))(t),
		must(NewDisc("disc", mgl64.Vec3{0, 0, 6}, mgl64.Vec3{0, 0, 1}, 1))(t),
		must(NewSphere("sphere", mgl64.Vec3{0, 0, 9}, 1))(t),
	}
	ray := mustRay(t, mgl64.Vec3{}, mgl64.Vec3{0.3, 0.2, 1})
	for _, s := range surfaces {
		h, ok := s.Hit(ray)
		if !ok {
			continue
		}
		if math.IsNaN(h.Distance) || h.Distance < 0 || !finite(h.Point) {
			t.Fatalf("%s hit = %+v, want finite non-negative distance", s.Label(), h)
		}
	}
}

func TestRenderingAccessors(t *testing.T) {
	r := mustRay(t, mgl64.Vec3{1, 2, 3}, mgl64.Vec3{0, 0, 2})
	if got := r.Terminal(10); got != (mgl64.Vec3{1, 2, 13}) {
		t.Fatalf("Terminal(10) = %v, want (1,2,13)", got)
	}

	q := must(NewQuad("face", mgl64.Vec3{0, 0, 1}, mgl64.Vec3{2, 0, 0}, mgl64.Vec3{0, 3, 0}))(t)
	want := [4]mgl64.Vec3{{0, 0, 1}, {2, 0, 1}, {2, 3, 1}, {0, 3, 1}}
	if got := q.Corners(); got != want {
		t.Fatalf("Corners = %v, want %v", got, want)
	}
	if got := q.Normal(); got != (mgl64.Vec3{0, 0, 1}) {
		t.Fatalf("Normal = %v, want +z", got)
	}
}
