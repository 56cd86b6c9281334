/*
Package mesh contains the interface to the engines which intersect rays with
the Voronoi mesh generated by a point cloud, along with Cloud, a pure Go
engine built on a kd-tree.
*/
package mesh

import (
	"errors"

	"github.com/phil-mansfield/vortrace/geom"
	"github.com/phil-mansfield/vortrace/los"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrNotBuilt is returned by queries made before Build.
	ErrNotBuilt = errors.New("mesh: no valid tree has been built")
	// ErrEmptyCloud is returned by Build if no points were loaded.
	ErrEmptyCloud = errors.New("mesh: there are no points in the cloud")
	// ErrLengthMismatch is returned by Load if its inputs disagree in length.
	ErrLengthMismatch = errors.New("mesh: input sizes must match")
)

// Engine intersects rays with the mesh generated by a set of points.
//
// Load and Build are called exactly once, in that order, before any query.
// After Build an Engine is read-only and its queries must be safe to call
// concurrently.
type Engine interface {
	// Load ingests generating points and their densities. ids gives the id
	// reported for each point; if it is nil, points are identified by their
	// index.
	Load(pos []r3.Vec, rho []float64, ids []int, box geom.Box) error
	// Build constructs the search structures used by queries.
	Build() error

	// Project returns the column density along each ray start[i] -> end[i].
	Project(start, end []r3.Vec) ([]float64, error)
	// Integrate returns the column density along a single ray along with the
	// raw crossing records of the cells it passes through.
	Integrate(start, end r3.Vec) (float64, []los.Crossing, error)
	// Nearest returns the id of the cell containing q.
	Nearest(q r3.Vec) (int, error)
}
