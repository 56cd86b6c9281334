package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultPadding is the fraction of each axis width added to both sides of a
// Box before points are filtered.
const DefaultPadding = 0.15

// Box is an axis-aligned bounding box stored as
// {xmin, xmax, ymin, ymax, zmin, zmax}.
type Box [6]float64

// Min returns the lowermost corner of the box.
func (b Box) Min() r3.Vec { return r3.Vec{X: b[0], Y: b[2], Z: b[4]} }

// Max returns the uppermost corner of the box.
func (b Box) Max() r3.Vec { return r3.Vec{X: b[1], Y: b[3], Z: b[5]} }

// Width returns the width of the box along axis k.
func (b Box) Width(k int) float64 { return b[2*k+1] - b[2*k] }

// TightBox returns the smallest box containing every point.
func TightBox(pts []r3.Vec) Box {
	b := Box{
		math.Inf(+1), math.Inf(-1),
		math.Inf(+1), math.Inf(-1),
		math.Inf(+1), math.Inf(-1),
	}
	for _, p := range pts {
		b[0], b[1] = math.Min(b[0], p.X), math.Max(b[1], p.X)
		b[2], b[3] = math.Min(b[2], p.Y), math.Max(b[3], p.Y)
		b[4], b[5] = math.Min(b[4], p.Z), math.Max(b[5], p.Z)
	}
	return b
}

// Pad returns a copy of b with frac times each axis width added to both ends
// of that axis. b itself is unchanged.
func (b Box) Pad(frac float64) Box {
	out := b
	for k := 0; k < 3; k++ {
		d := frac * b.Width(k)
		out[2*k] -= d
		out[2*k+1] += d
	}
	return out
}

// Contains returns true if p is inside the box. Points on the boundary are
// inside.
func (b Box) Contains(p r3.Vec) bool {
	return p.X >= b[0] && p.X <= b[1] &&
		p.Y >= b[2] && p.Y <= b[3] &&
		p.Z >= b[4] && p.Z <= b[5]
}

// Check returns an error if any axis of the box is inverted.
func (b Box) Check() error {
	for k := 0; k < 3; k++ {
		if b[2*k] > b[2*k+1] || math.IsNaN(b.Width(k)) {
			return fmt.Errorf(
				"geom: box axis %d has min %g > max %g", k, b[2*k], b[2*k+1],
			)
		}
	}
	return nil
}
