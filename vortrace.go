/*
Package vortrace makes projections and slices of the density field carried by
the Voronoi mesh of a point cloud.

A ProjectionCloud owns the points and a mesh.Engine built over them. It turns
image requests into grids of rays (see package geom), hands those rays to the
engine and reshapes the results into images. Single rays are broken down into
their per-cell contributions with package los.
*/
package vortrace

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/phil-mansfield/vortrace/geom"
	"github.com/phil-mansfield/vortrace/los"
	"github.com/phil-mansfield/vortrace/mesh"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrShapeMismatch is returned when arrays of points do not have the shape
// an operation requires.
var ErrShapeMismatch = errors.New("vortrace: shape mismatch")

// Config contains the optional parameters of a ProjectionCloud.
type Config struct {
	// Padding is the fraction of each axis of the bounding box added to both
	// sides of that axis before points outside it are dropped.
	Padding float64
	// Tol is used when validating single-ray segments.
	Tol los.Tolerance
	// Workers is the number of goroutines the default engine projects with.
	// Values below one leave the engine's default in place. It is ignored
	// if Engine is set.
	Workers int
	// Engine replaces the default mesh.Cloud engine if non-nil. It must not
	// have been loaded yet.
	Engine mesh.Engine
	// Logger receives progress messages. Nil discards them.
	Logger *log.Logger
}

// DefaultConfig returns the Config used when New is given nil.
func DefaultConfig() *Config {
	return &Config{Padding: geom.DefaultPadding, Tol: los.DefaultTolerance}
}

// ProjectionCloud makes projections through the Voronoi mesh generated by a
// set of points.
type ProjectionCloud struct {
	// The unfiltered input, used for density lookups.
	pos []r3.Vec
	rho []float64

	box, padded geom.Box
	loaded      int

	tol    los.Tolerance
	engine mesh.Engine
	logger *log.Logger
}

// New loads the points pos with densities rho into an engine and builds it.
// If box is nil, the tightest box around pos is used. Only points inside the
// box padded by con.Padding are loaded. con may be nil.
func New(
	pos []r3.Vec, rho []float64, box *geom.Box, con *Config,
) (*ProjectionCloud, error) {
	if con == nil {
		con = DefaultConfig()
	}
	if len(pos) != len(rho) {
		return nil, fmt.Errorf(
			"%w: %d positions and %d densities",
			mesh.ErrLengthMismatch, len(pos), len(rho),
		)
	} else if len(pos) == 0 {
		return nil, mesh.ErrEmptyCloud
	} else if con.Padding < 0 {
		return nil, fmt.Errorf(
			"vortrace: padding must be non-negative, got %g", con.Padding,
		)
	}

	pc := &ProjectionCloud{
		pos: pos, rho: rho, tol: con.Tol, engine: con.Engine, logger: con.Logger,
	}
	if pc.logger == nil {
		pc.logger = log.New(io.Discard, "", 0)
	}

	if box == nil {
		pc.box = geom.TightBox(pos)
	} else {
		pc.box = *box
	}
	if err := pc.box.Check(); err != nil {
		return nil, err
	}
	pc.padded = pc.box.Pad(con.Padding)

	if pc.engine == nil {
		c := mesh.NewCloud(pc.logger)
		if con.Workers > 0 {
			c.Workers = con.Workers
		}
		pc.engine = c
	}

	pc.logger.Printf("Applying bounding box %v.", pc.padded)
	fPos, fRho, ids := filterBox(pc.padded, pos, rho)
	pc.loaded = len(fPos)
	pc.logger.Printf("Kept %d of %d points.", pc.loaded, len(pos))

	if err := pc.engine.Load(fPos, fRho, ids, pc.box); err != nil {
		return nil, err
	}
	if err := pc.engine.Build(); err != nil {
		return nil, err
	}

	return pc, nil
}

// filterBox returns the points inside b, their densities and their indices
// in pos.
func filterBox(
	b geom.Box, pos []r3.Vec, rho []float64,
) (fPos []r3.Vec, fRho []float64, ids []int) {
	for i := range pos {
		if b.Contains(pos[i]) {
			fPos = append(fPos, pos[i])
			fRho = append(fRho, rho[i])
			ids = append(ids, i)
		}
	}
	return fPos, fRho, ids
}

// Box returns the unpadded bounding box.
func (pc *ProjectionCloud) Box() geom.Box { return pc.box }

// PaddedBox returns the box points were filtered against.
func (pc *ProjectionCloud) PaddedBox() geom.Box { return pc.padded }

// Len returns the number of points loaded into the engine.
func (pc *ProjectionCloud) Len() int { return pc.loaded }

// Density returns the density of the point with the given id.
func (pc *ProjectionCloud) Density(id int) float64 { return pc.rho[id] }

// GridProjection returns a res[0] x res[1] image of column densities. The
// rays are laid out by geom.ProjectionGrid.
func (pc *ProjectionCloud) GridProjection(
	ext geom.Extent, res geom.Resolution, bounds geom.Bounds,
	center *r3.Vec, att geom.Attitude,
) ([][]float64, error) {
	start, end, err := geom.ProjectionGrid(ext, res, bounds, center, att)
	if err != nil {
		return nil, err
	}

	cols, err := pc.engine.Project(start.Pts, end.Pts)
	if err != nil {
		return nil, err
	}
	if len(cols) != len(start.Pts) {
		return nil, fmt.Errorf(
			"%w: engine returned %d columns for %d rays",
			ErrShapeMismatch, len(cols), len(start.Pts),
		)
	}

	return start.Image(cols), nil
}

// GridSlice returns a res[0] x res[1] image of the density of the cells at
// depth along the integration axis. The sample points are laid out by
// geom.SliceGrid.
func (pc *ProjectionCloud) GridSlice(
	ext geom.Extent, res geom.Resolution, depth float64,
	center *r3.Vec, att geom.Attitude,
) ([][]float64, error) {
	g, err := geom.SliceGrid(ext, res, depth, center, att)
	if err != nil {
		return nil, err
	}

	vals := make([]float64, len(g.Pts))
	for i := range g.Pts {
		id, err := pc.engine.Nearest(g.Pts[i])
		if err != nil {
			return nil, err
		}
		vals[i] = pc.rho[id]
	}

	return g.Image(vals), nil
}

// Projection returns the column densities along the rays start[i] -> end[i].
// Both arguments must be N x 3.
func (pc *ProjectionCloud) Projection(start, end [][]float64) ([]float64, error) {
	if len(start) != len(end) {
		return nil, fmt.Errorf(
			"%w: %d start points and %d end points",
			ErrShapeMismatch, len(start), len(end),
		)
	}

	vStart, err := toVecs(start)
	if err != nil {
		return nil, err
	}
	vEnd, err := toVecs(end)
	if err != nil {
		return nil, err
	}

	return pc.engine.Project(vStart, vEnd)
}

// toVecs copies an N x 3 array into a contiguous slice of vectors.
func toVecs(xs [][]float64) ([]r3.Vec, error) {
	vs := make([]r3.Vec, len(xs))
	for i := range xs {
		if len(xs[i]) != 3 {
			return nil, fmt.Errorf(
				"%w: row %d has %d elements, expected 3",
				ErrShapeMismatch, i, len(xs[i]),
			)
		}
		vs[i] = r3.Vec{X: xs[i][0], Y: xs[i][1], Z: xs[i][2]}
	}
	return vs, nil
}

// SingleProjection integrates the ray start -> end and returns its column
// density along with the ids of the cells it crosses, their distances along
// the ray and the path length through each. Distances are segment midpoints
// if mid is true and entry distances otherwise. start and end must have
// three elements.
func (pc *ProjectionCloud) SingleProjection(
	start, end []float64, mid bool,
) (dens float64, cells []int, dists, lengths []float64, err error) {
	vs, err := toVecs([][]float64{start, end})
	if err != nil {
		return 0, nil, nil, nil, err
	}

	dens, cs, err := pc.engine.Integrate(vs[0], vs[1])
	if err != nil {
		return 0, nil, nil, nil, err
	}

	length := r3.Norm(r3.Sub(vs[1], vs[0]))
	segs, err := los.Reconstruct(cs, dens, pc.rho, length, pc.tol)
	if err != nil {
		return 0, nil, nil, nil, err
	}

	return dens, los.Cells(segs), los.Distances(segs, mid), los.Lengths(segs), nil
}

// SingleProjectionRows is SingleProjection for start and end points given as
// 1 x 3 arrays.
func (pc *ProjectionCloud) SingleProjectionRows(
	start, end [][]float64, mid bool,
) (dens float64, cells []int, dists, lengths []float64, err error) {
	if len(start) != 1 || len(end) != 1 {
		return 0, nil, nil, nil, fmt.Errorf(
			"%w: start and end must have shape (3,) or (1,3), got %d and %d rows",
			ErrShapeMismatch, len(start), len(end),
		)
	}
	return pc.SingleProjection(start[0], end[0], mid)
}
