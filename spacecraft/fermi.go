package spacecraft

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/spacecraft-raycast/geometry"
)

// Component names of the Fermi body, in testing order.
const (
	LATName              = "lat"
	LATRadiatorMinusName = "lat_radiator_minus"
	LATRadiatorPlusName  = "lat_radiator_plus"
	SolarPanelPlusName   = "solar_panel_plus"
	SolarPanelMinusName  = "solar_panel_minus"
	EarthName            = "earth"
)

// EarthRadiusCm is the mean Earth radius in body-frame units.
const EarthRadiusCm = 6371.0 * 1e5

// Approximate Fermi envelope in the spacecraft frame (cm). The LAT sits on
// top of the bus, radiators hang on the ±Y sides of the bus below it, and the
// solar array wings extend along ±Y.
var (
	latMin = mgl64.Vec3{-90, -90, 100}
	latMax = mgl64.Vec3{90, 90, 175}

	radiatorY      = 95.0
	radiatorHalfX  = 75.0
	radiatorBottom = 10.0
	radiatorTop    = 100.0

	panelInner  = 150.0
	panelOuter  = 400.0
	panelBottom = 50.0
	panelTop    = 200.0
)

// FermiConfig controls optional parts of the Fermi body.
type FermiConfig struct {
	// EarthCenter, when set, adds an Earth occulter centred at this
	// body-frame point (cm).
	EarthCenter *mgl64.Vec3
}

// NewLAT returns the Large Area Telescope as a closed box.
func NewLAT() (Component, error) {
	faces, err := geometry.Box(latMin, latMax)
	if err != nil {
		return nil, err
	}
	return NewComponent(LATName, KindLAT, Style{Color: "#8C8C8C", Alpha: 0.6}, faces...)
}

// NewLATRadiator returns the radiator plate on the +Y (sign > 0) or -Y side.
// Its "front" face looks outward, its "back" face toward the bus.
func NewLATRadiator(sign float64) (Component, error) {
	name := LATRadiatorPlusName
	if sign < 0 {
		name, sign = LATRadiatorMinusName, -1
	} else {
		sign = 1
	}
	center := mgl64.Vec3{0, sign * radiatorY, (radiatorBottom + radiatorTop) / 2}
	u := mgl64.Vec3{2 * radiatorHalfX, 0, 0}
	v := mgl64.Vec3{0, 0, radiatorTop - radiatorBottom}
	return twoFaced(name, KindRadiator, Style{Color: "#E6E6E6", Alpha: 0.8}, center, u, v, mgl64.Vec3{0, sign, 0})
}

// NewSolarPanel returns the solar array wing on the +Y (sign > 0) or -Y side.
func NewSolarPanel(sign float64) (Component, error) {
	name := SolarPanelPlusName
	if sign < 0 {
		name, sign = SolarPanelMinusName, -1
	} else {
		sign = 1
	}
	center := mgl64.Vec3{0, sign * (panelInner + panelOuter) / 2, (panelBottom + panelTop) / 2}
	u := mgl64.Vec3{0, panelOuter - panelInner, 0}
	v := mgl64.Vec3{0, 0, panelTop - panelBottom}
	return twoFaced(name, KindSolarPanel, Style{Color: "#1F3A93", Alpha: 0.9}, center, u, v, mgl64.Vec3{1, 0, 0})
}

// NewEarth returns a spherical Earth occulter centred at center (cm).
func NewEarth(center mgl64.Vec3) (Component, error) {
	sphere, err := geometry.NewSphere("surface", center, EarthRadiusCm)
	if err != nil {
		return nil, err
	}
	return NewComponent(EarthName, KindEarth, Style{Color: "#2E86C1", Alpha: 0.3}, sphere)
}

// plateThickness separates the two faces of a plate so the face reported is
// the one the ray approaches from.
const plateThickness = 1.0

// twoFaced builds a thin plate as two parallel quads with opposite normals,
// "front" facing along front.
func twoFaced(name string, kind Kind, style Style, center, u, v, front mgl64.Vec3) (Component, error) {
	if u.Cross(v).Dot(front) < 0 {
		u, v = v, u
	}
	half := front.Normalize().Mul(plateThickness / 2)
	frontFace, err := geometry.NewCenteredQuad("front", center.Add(half), u, v)
	if err != nil {
		return nil, err
	}
	backFace, err := geometry.NewCenteredQuad("back", center.Sub(half), v, u)
	if err != nil {
		return nil, err
	}
	return NewComponent(name, kind, style, frontFace, backFace)
}

// NewFermiBody assembles the Fermi components in testing order.
func NewFermiBody(cfg FermiConfig) (*Body, error) {
	builders := []func() (Component, error){
		NewLAT,
		func() (Component, error) { return NewLATRadiator(-1) },
		func() (Component, error) { return NewLATRadiator(1) },
		func() (Component, error) { return NewSolarPanel(1) },
		func() (Component, error) { return NewSolarPanel(-1) },
	}
	if cfg.EarthCenter != nil {
		center := *cfg.EarthCenter
		builders = append(builders, func() (Component, error) { return NewEarth(center) })
	}

	parts := make([]Component, 0, len(builders))
	for _, build := range builders {
		c, err := build()
		if err != nil {
			return nil, err
		}
		parts = append(parts, c)
	}
	return NewBody(parts...)
}

type gbmMount struct {
	name    string
	kind    DetectorKind
	mount   mgl64.Vec3
	az, zen float64
}

// GBM detectors grouped in four NaI boxes on the bus corners plus the two
// BGOs on ±X. Pointings are the published azimuth/zenith of each detector;
// mount points are approximate.
var gbmMounts = []gbmMount{
	{"n0", DetectorNaI, mgl64.Vec3{100, 100, 90}, 45.89, 20.58},
	{"n1", DetectorNaI, mgl64.Vec3{100, 100, 75}, 45.11, 45.31},
	{"n2", DetectorNaI, mgl64.Vec3{100, 100, 60}, 58.44, 90.21},
	{"n3", DetectorNaI, mgl64.Vec3{100, -100, 75}, 314.87, 45.24},
	{"n4", DetectorNaI, mgl64.Vec3{100, -100, 60}, 303.15, 90.27},
	{"n5", DetectorNaI, mgl64.Vec3{100, -100, 90}, 3.35, 89.79},
	{"n6", DetectorNaI, mgl64.Vec3{-100, -100, 90}, 224.93, 20.43},
	{"n7", DetectorNaI, mgl64.Vec3{-100, -100, 75}, 224.62, 46.18},
	{"n8", DetectorNaI, mgl64.Vec3{-100, -100, 60}, 236.61, 89.97},
	{"n9", DetectorNaI, mgl64.Vec3{-100, 100, 75}, 135.19, 45.55},
	{"na", DetectorNaI, mgl64.Vec3{-100, 100, 60}, 123.73, 90.42},
	{"nb", DetectorNaI, mgl64.Vec3{-100, 100, 90}, 183.74, 90.32},
	{"b0", DetectorBGO, mgl64.Vec3{120, 0, 60}, 0, 90},
	{"b1", DetectorBGO, mgl64.Vec3{-120, 0, 60}, 180, 90},
}

// NewGBMDetectors returns the 14 GBM detectors in canonical order.
func NewGBMDetectors() (*DetectorSet, error) {
	dets := make([]Detector, len(gbmMounts))
	for i, m := range gbmMounts {
		dets[i] = Detector{
			Name:     m.name,
			Kind:     m.kind,
			Mount:    m.mount,
			Pointing: PointingFromAzZen(m.az, m.zen),
		}
	}
	return NewDetectorSet(dets...)
}

// NewFermi builds a Fermi spacecraft with the GBM detector set.
func NewFermi(cfg FermiConfig) (*Spacecraft, error) {
	body, err := NewFermiBody(cfg)
	if err != nil {
		return nil, fmt.Errorf("build fermi body: %w", err)
	}
	dets, err := NewGBMDetectors()
	if err != nil {
		return nil, fmt.Errorf("build gbm detectors: %w", err)
	}
	return New(body, dets)
}
