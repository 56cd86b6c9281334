package geom

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrInvalidExtent is returned for malformed extent specifications.
	ErrInvalidExtent = errors.New("geom: invalid extent")
	// ErrInvalidResolution is returned for non-positive pixel counts.
	ErrInvalidResolution = errors.New("geom: invalid resolution")
)

// Interval is a (min, max) pair.
type Interval [2]float64

// Width returns max - min.
func (iv Interval) Width() float64 { return iv[1] - iv[0] }

// Extent gives the intervals spanned by the two axes of an image.
type Extent [2]Interval

// NewExtent creates an Extent from either a single interval, which is used for
// both axes, or exactly two intervals.
func NewExtent(ivs ...Interval) (Extent, error) {
	var ext Extent
	switch len(ivs) {
	case 1:
		ext = Extent{ivs[0], ivs[0]}
	case 2:
		ext = Extent{ivs[0], ivs[1]}
	default:
		return Extent{}, fmt.Errorf(
			"%w: need one or two intervals, got %d", ErrInvalidExtent, len(ivs),
		)
	}
	return ext, ext.check()
}

// ExtentFromFlat creates an Extent from a flattened list of values: either
// [min, max] or [min0, max0, min1, max1].
func ExtentFromFlat(xs []float64) (Extent, error) {
	switch len(xs) {
	case 2:
		return NewExtent(Interval{xs[0], xs[1]})
	case 4:
		return NewExtent(Interval{xs[0], xs[1]}, Interval{xs[2], xs[3]})
	}
	return Extent{}, fmt.Errorf(
		"%w: need 2 or 4 values, got %d", ErrInvalidExtent, len(xs),
	)
}

func (ext Extent) check() error {
	for k := 0; k < 2; k++ {
		if !(ext[k][0] < ext[k][1]) {
			return fmt.Errorf(
				"%w: axis %d has min %g >= max %g",
				ErrInvalidExtent, k, ext[k][0], ext[k][1],
			)
		}
	}
	return nil
}

// Resolution gives the number of pixels along each image axis.
type Resolution [2]int

// SquareResolution returns a Resolution with n pixels along both axes.
func SquareResolution(n int) Resolution { return Resolution{n, n} }

// Pixels returns the total number of pixels.
func (res Resolution) Pixels() int { return res[0] * res[1] }

func (res Resolution) check() error {
	if res[0] <= 0 || res[1] <= 0 {
		return fmt.Errorf(
			"%w: pixel counts must be positive, got %d x %d",
			ErrInvalidResolution, res[0], res[1],
		)
	}
	return nil
}

// Grid is a dense 2D array of 3D points stored in a 1D slice. Axis 0 varies
// slowest.
type Grid struct {
	Res Resolution
	Pts []r3.Vec
}

// Idx returns the index into Pts of pixel (i, j).
func (g *Grid) Idx(i, j int) int { return i*g.Res[1] + j }

// Coords returns the pixel coordinates of an index into Pts.
func (g *Grid) Coords(idx int) (i, j int) { return idx / g.Res[1], idx % g.Res[1] }

// At returns the point at pixel (i, j).
func (g *Grid) At(i, j int) r3.Vec { return g.Pts[g.Idx(i, j)] }

// Copy returns a deep copy of the grid.
func (g *Grid) Copy() *Grid {
	pts := make([]r3.Vec, len(g.Pts))
	copy(pts, g.Pts)
	return &Grid{Res: g.Res, Pts: pts}
}

// SetZ sets the third coordinate of every point to z.
func (g *Grid) SetZ(z float64) {
	for i := range g.Pts {
		g.Pts[i].Z = z
	}
}

// Rotate applies p' = m (p - center) + center to every point.
func (g *Grid) Rotate(m *r3.Mat, center r3.Vec) {
	for i := range g.Pts {
		g.Pts[i] = r3.Add(m.MulVec(r3.Sub(g.Pts[i], center)), center)
	}
}

// RotateInverse undoes Rotate by applying the transpose of m.
func (g *Grid) RotateInverse(m *r3.Mat, center r3.Vec) {
	for i := range g.Pts {
		g.Pts[i] = r3.Add(m.MulVecTrans(r3.Sub(g.Pts[i], center)), center)
	}
}

// Image reshapes a flat slice of per-pixel values into a Res[0] x Res[1]
// image. The rows share memory with vals.
func (g *Grid) Image(vals []float64) [][]float64 {
	img := make([][]float64, g.Res[0])
	for i := range img {
		img[i] = vals[i*g.Res[1] : (i+1)*g.Res[1]]
	}
	return img
}

// BaseGrid returns a grid of pixel centers spanning ext in the z = 0 plane.
func BaseGrid(ext Extent, res Resolution) (*Grid, error) {
	if err := ext.check(); err != nil {
		return nil, err
	}
	if err := res.check(); err != nil {
		return nil, err
	}

	dx := ext[0].Width() / float64(res[0])
	dy := ext[1].Width() / float64(res[1])

	g := &Grid{Res: res, Pts: make([]r3.Vec, res.Pixels())}
	for i := 0; i < res[0]; i++ {
		x := ext[0][0] + dx*(float64(i)+0.5)
		for j := 0; j < res[1]; j++ {
			g.Pts[g.Idx(i, j)] = r3.Vec{
				X: x, Y: ext[1][0] + dy*(float64(j)+0.5),
			}
		}
	}

	return g, nil
}

// ProjectionGrid returns the start and end points of the rays making up a
// projection. The base grid is laid down in the x-y plane, its z coordinates
// are set to bounds.Start (start) and bounds.End (end), and both grids are
// rotated about center by the attitude.
//
// If the attitude's handedness disagrees with the direction of the bounds,
// the bounds are swapped. If center is nil, no rotation is done at all and
// the image stays in the x-y plane regardless of att.
func ProjectionGrid(
	ext Extent, res Resolution, bounds Bounds, center *r3.Vec, att Attitude,
) (start, end *Grid, err error) {
	start, err = BaseGrid(ext, res)
	if err != nil {
		return nil, nil, err
	}
	end = start.Copy()

	hand := att.Hand
	if !att.IsLabeled() {
		hand = bounds.Sign()
	}
	bounds = bounds.Orient(hand)

	start.SetZ(bounds.Start)
	end.SetZ(bounds.End)

	if center != nil {
		m := att.Matrix()
		start.Rotate(m, *center)
		end.Rotate(m, *center)
	}

	return start, end, nil
}

// SliceGrid returns the sample points of a slice at the given depth along the
// integration axis, rotated about center like ProjectionGrid.
func SliceGrid(
	ext Extent, res Resolution, depth float64, center *r3.Vec, att Attitude,
) (*Grid, error) {
	g, err := BaseGrid(ext, res)
	if err != nil {
		return nil, err
	}
	g.SetZ(depth)

	if center != nil {
		g.Rotate(att.Matrix(), *center)
	}
	return g, nil
}
