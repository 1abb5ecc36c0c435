// Package skymap turns weighted sky cells into rays on a spacecraft.
package skymap

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/signalsfoundry/spacecraft-raycast/frame"
	"github.com/signalsfoundry/spacecraft-raycast/spacecraft"
)

// Cell is one sky cell centred at (RA, Dec) degrees.
type Cell struct {
	RA     float64
	Dec    float64
	Weight float64
}

// Grid returns an iso-latitude grid with bands declination bands. Each band
// holds a number of cells proportional to cos(dec) so cells have roughly
// equal area. Weights are zero.
func Grid(bands int) []Cell {
	if bands < 1 {
		bands = 1
	}
	var cells []Cell
	step := 180.0 / float64(bands)
	for i := 0; i < bands; i++ {
		dec := -90 + step*(float64(i)+0.5)
		n := int(math.Round(2 * float64(bands) * math.Cos(mgl64.DegToRad(dec))))
		if n < 1 {
			n = 1
		}
		raStep := 360.0 / float64(n)
		for j := 0; j < n; j++ {
			cells = append(cells, Cell{RA: raStep * (float64(j) + 0.5), Dec: dec})
		}
	}
	return cells
}

// Spot returns a copy of cells weighted by a Gaussian of width sigmaDeg
// centred on (raDeg, decDeg), the usual shape of a burst localisation.
func Spot(cells []Cell, raDeg, decDeg, sigmaDeg float64) []Cell {
	center := frame.RADecToUnit(raDeg, decDeg)
	out := make([]Cell, len(cells))
	for i, c := range cells {
		cosSep := mgl64.Clamp(center.Dot(frame.RADecToUnit(c.RA, c.Dec)), -1, 1)
		sep := mgl64.RadToDeg(math.Acos(cosSep))
		c.Weight = math.Exp(-0.5 * (sep / sigmaDeg) * (sep / sigmaDeg))
		out[i] = c
	}
	return out
}

// Colormap maps a normalised intensity in [0, 1] to a display colour.
type Colormap func(v float64) string

var viridisStops = [...]mgl64.Vec3{
	{68, 1, 84},
	{59, 82, 139},
	{33, 145, 140},
	{94, 201, 98},
	{253, 231, 37},
}

// Viridis is a five-stop approximation of the viridis colormap.
func Viridis(v float64) string {
	v = mgl64.Clamp(v, 0, 1)
	pos := v * float64(len(viridisStops)-1)
	i := int(pos)
	if i >= len(viridisStops)-1 {
		i = len(viridisStops) - 2
	}
	f := pos - float64(i)
	c := viridisStops[i].Mul(1 - f).Add(viridisStops[i+1].Mul(f))
	return fmt.Sprintf("#%02X%02X%02X", int(math.Round(c.X())), int(math.Round(c.Y())), int(math.Round(c.Z())))
}

// Seed adds one ray per cell with a positive weight. Weights are normalised
// by the largest one so every ray weight lies in (0, 1]. It returns the
// number of directions added.
func Seed(sc *spacecraft.Spacecraft, att frame.Attitude, cells []Cell, cmap Colormap) (int, error) {
	if cmap == nil {
		cmap = Viridis
	}
	peak := 0.0
	for _, c := range cells {
		if c.Weight > peak {
			peak = c.Weight
		}
	}
	if peak <= 0 {
		return 0, nil
	}

	added := 0
	for _, c := range cells {
		if c.Weight <= 0 {
			continue
		}
		w := c.Weight / peak
		dir := att.BodyDirection(c.RA, c.Dec)
		if err := sc.AddRay(dir, spacecraft.WithWeight(w), spacecraft.WithColor(cmap(w))); err != nil {
			return added, fmt.Errorf("seed cell (%.3f, %.3f): %w", c.RA, c.Dec, err)
		}
		added++
	}
	return added, nil
}
