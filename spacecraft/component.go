// Package spacecraft composes rigid geometric components and detectors into a
// single addressable body and accumulates the rays cast from its detectors.
package spacecraft

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/spacecraft-raycast/geometry"
)

var (
	ErrDuplicateComponent = errors.New("component already exists")
	ErrEmptyComponent     = errors.New("component has no surfaces")
	ErrDuplicateDetector  = errors.New("detector already exists")
	ErrUnknownDetector    = errors.New("unknown detector")
	ErrUnnamedDetector    = errors.New("detector has no name")
	ErrIncomplete         = errors.New("spacecraft requires a body and a detector set")
)

// Kind enumerates the component variants a body can be built from.
type Kind int

const (
	KindGeneric Kind = iota
	KindLAT
	KindRadiator
	KindSolarPanel
	KindEarth
)

func (k Kind) String() string {
	switch k {
	case KindLAT:
		return "LAT"
	case KindRadiator:
		return "RADIATOR"
	case KindSolarPanel:
		return "SOLAR_PANEL"
	case KindEarth:
		return "EARTH"
	default:
		return "GENERIC"
	}
}

// Style is the display hint handed to the rendering side.
type Style struct {
	Color string
	Alpha float64
}

// Intersection is one component surface struck by a ray.
type Intersection struct {
	Component string
	Surface   string
	Point     mgl64.Vec3
	Distance  float64
}

// Label returns "<component> <surface>".
func (i Intersection) Label() string {
	return i.Component + " " + i.Surface
}

// Component is a named rigid surface set fixed in the body frame.
type Component interface {
	Name() string
	Kind() Kind
	Style() Style
	Surfaces() []geometry.Surface
	// Intersect returns the nearest of the component's surfaces along ray.
	// It has no side effects; repeated calls with the same ray agree.
	Intersect(ray geometry.Ray) (Intersection, bool)
}

type rigidComponent struct {
	name     string
	kind     Kind
	style    Style
	surfaces []geometry.Surface
}

// NewComponent builds a component from one or more surfaces. The surface
// slice is copied so callers cannot mutate the geometry afterwards.
func NewComponent(name string, kind Kind, style Style, surfaces ...geometry.Surface) (Component, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrEmptyComponent)
	}
	if len(surfaces) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyComponent, name)
	}
	return &rigidComponent{
		name:     name,
		kind:     kind,
		style:    style,
		surfaces: append([]geometry.Surface(nil), surfaces...),
	}, nil
}

func (c *rigidComponent) Name() string { return c.name }
func (c *rigidComponent) Kind() Kind   { return c.kind }
func (c *rigidComponent) Style() Style { return c.style }

func (c *rigidComponent) Surfaces() []geometry.Surface {
	return append([]geometry.Surface(nil), c.surfaces...)
}

func (c *rigidComponent) Intersect(ray geometry.Ray) (Intersection, bool) {
	h, ok := geometry.Nearest(ray, c.surfaces)
	if !ok {
		return Intersection{}, false
	}
	return Intersection{
		Component: c.name,
		Surface:   h.Surface,
		Point:     h.Point,
		Distance:  h.Distance,
	}, true
}

// Body is the ordered set of components. Order is the testing order used by
// the intersection engine.
type Body struct {
	components []Component
	index      map[string]int
}

// NewBody builds a body; component names must be unique.
func NewBody(components ...Component) (*Body, error) {
	b := &Body{
		components: make([]Component, 0, len(components)),
		index:      make(map[string]int, len(components)),
	}
	for _, c := range components {
		if c == nil {
			continue
		}
		if _, exists := b.index[c.Name()]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateComponent, c.Name())
		}
		b.index[c.Name()] = len(b.components)
		b.components = append(b.components, c)
	}
	return b, nil
}

// Components returns the components in testing order.
func (b *Body) Components() []Component {
	return append([]Component(nil), b.components...)
}

// Component returns the named component, or nil if absent.
func (b *Body) Component(name string) Component {
	i, ok := b.index[name]
	if !ok {
		return nil
	}
	return b.components[i]
}

// Names returns component names in testing order.
func (b *Body) Names() []string {
	names := make([]string, len(b.components))
	for i, c := range b.components {
		names[i] = c.Name()
	}
	return names
}

func (b *Body) Len() int { return len(b.components) }
