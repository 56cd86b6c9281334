/*
Package los reconstructs the per-cell structure of a single line of sight
from the crossing records returned by a mesh engine.

An engine walking a ray through a Voronoi mesh reports one record for the
cell containing the start of the ray, one for the cell containing its end,
and two adjacent records for every cell in between: one for the part of the
cell before the sample point the walk placed inside it and one for the part
after. Reconstruct merges those pairs and checks the result against the
column density the engine reported.
*/
package los

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

var (
	// ErrDegenerateRay is returned when a ray has too few crossing records to
	// describe it.
	ErrDegenerateRay = errors.New("los: degenerate ray")
	// ErrInconsistentSegments is returned when duplicate records disagree
	// with one another.
	ErrInconsistentSegments = errors.New("los: inconsistent segments")
	// ErrColumnMismatch is matched by every *ColumnMismatchError.
	ErrColumnMismatch = errors.New("los: column density mismatch")
)

// ColumnMismatchError reports a reconstructed column density which does not
// agree with the one reported by the engine.
type ColumnMismatchError struct {
	Reconstructed, Reported float64
}

func (err *ColumnMismatchError) Error() string {
	return fmt.Sprintf(
		"los: extracted ray cells and path lengths do not give a consistent "+
			"column density: %.17g != %.17g", err.Reconstructed, err.Reported,
	)
}

// Is allows errors.Is(err, ErrColumnMismatch).
func (err *ColumnMismatchError) Is(target error) bool {
	return target == ErrColumnMismatch
}

// Tolerance gives the relative and absolute tolerances used when comparing
// distances and column densities. Two values are equal if they are within
// either bound.
type Tolerance struct {
	Rel, Abs float64
}

// DefaultTolerance matches the checks the reconstruction has always used.
var DefaultTolerance = Tolerance{Rel: 1e-5, Abs: 1e-8}

// Eq returns true if x and y are equal within the tolerance.
func (tol Tolerance) Eq(x, y float64) bool {
	return scalar.EqualWithinAbsOrRel(x, y, tol.Abs, tol.Rel)
}

// Crossing is a raw record of a ray passing through part of a cell.
type Crossing struct {
	// Cell is the id of the cell.
	Cell int
	// S is the distance from the start of the ray to the sample point that
	// identified the cell.
	S float64
	// Edge is the distance from the start of the ray to the cell face that
	// bounds this part of the crossing.
	Edge float64
	// DS is the length of this part of the crossing.
	DS float64
}

// Segment is the full intersection of a ray with one cell.
type Segment struct {
	Cell int
	// S is the entry distance reported by the engine.
	S float64
	// Mid is the distance from the start of the ray to the middle of the
	// segment.
	Mid float64
	DS  float64
}

// Reconstruct merges the crossing records of a single ray into cell-unique
// segments and checks that sum(rho[cell] * ds) matches reported, the column
// density the engine computed for the same ray. length is the length of the
// ray.
func Reconstruct(
	cs []Crossing, reported float64, rho []float64, length float64, tol Tolerance,
) ([]Segment, error) {
	segs, err := merge(cs, length, tol)
	if err != nil {
		return nil, err
	}

	ds := make([]float64, len(segs))
	w := make([]float64, len(segs))
	for i := range segs {
		c := segs[i].Cell
		if c < 0 || c >= len(rho) {
			return nil, fmt.Errorf(
				"%w: cell %d out of range for %d densities",
				ErrInconsistentSegments, c, len(rho),
			)
		}
		ds[i], w[i] = segs[i].DS, rho[c]
	}

	col := floats.Dot(w, ds)
	if !tol.Eq(col, reported) {
		return nil, &ColumnMismatchError{Reconstructed: col, Reported: reported}
	}

	if total := floats.Sum(ds); !tol.Eq(total, length) {
		return nil, fmt.Errorf(
			"%w: path lengths sum to %g, but ray has length %g",
			ErrInconsistentSegments, total, length,
		)
	}

	return segs, nil
}

// merge collapses the duplicate pairs in cs. The first and last records are
// kept as they are and every interior pair (1, 2), (3, 4), ... becomes a
// single segment.
func merge(cs []Crossing, length float64, tol Tolerance) ([]Segment, error) {
	n := len(cs)
	switch {
	case n == 0:
		return nil, fmt.Errorf("%w: no crossings recorded", ErrDegenerateRay)
	case n == 1:
		if !tol.Eq(cs[0].DS, length) {
			return nil, fmt.Errorf(
				"%w: single crossing of length %g on a ray of length %g",
				ErrDegenerateRay, cs[0].DS, length,
			)
		}
		return []Segment{{
			Cell: cs[0].Cell, S: cs[0].S, Mid: cs[0].Edge / 2, DS: cs[0].DS,
		}}, nil
	case n%2 == 1:
		return nil, fmt.Errorf(
			"%w: %d crossings cannot be split into first, last, and pairs",
			ErrInconsistentSegments, n,
		)
	}

	segs := make([]Segment, 0, n/2+1)
	first, last := &cs[0], &cs[n-1]
	segs = append(segs, Segment{
		Cell: first.Cell, S: first.S, Mid: first.Edge / 2, DS: first.DS,
	})

	for i := 1; i < n-1; i += 2 {
		a, b := &cs[i], &cs[i+1]
		if a.Cell != b.Cell {
			return nil, fmt.Errorf(
				"%w: records %d and %d have cells %d and %d",
				ErrInconsistentSegments, i, i+1, a.Cell, b.Cell,
			)
		} else if !tol.Eq(a.S, b.S) {
			return nil, fmt.Errorf(
				"%w: records %d and %d of cell %d have s = %g and %g",
				ErrInconsistentSegments, i, i+1, a.Cell, a.S, b.S,
			)
		}

		segs = append(segs, Segment{
			Cell: a.Cell, S: a.S, Mid: (a.Edge + b.Edge) / 2, DS: a.DS + b.DS,
		})
	}

	segs = append(segs, Segment{
		Cell: last.Cell, S: last.S, Mid: (last.Edge + length) / 2, DS: last.DS,
	})

	return segs, nil
}

// Cells returns the cell ids of segs.
func Cells(segs []Segment) []int {
	out := make([]int, len(segs))
	for i := range segs {
		out[i] = segs[i].Cell
	}
	return out
}

// Distances returns the midpoints of segs if mid is true and their entry
// distances otherwise.
func Distances(segs []Segment, mid bool) []float64 {
	out := make([]float64, len(segs))
	for i := range segs {
		if mid {
			out[i] = segs[i].Mid
		} else {
			out[i] = segs[i].S
		}
	}
	return out
}

// Lengths returns the path lengths of segs.
func Lengths(segs []Segment) []float64 {
	out := make([]float64, len(segs))
	for i := range segs {
		out[i] = segs[i].DS
	}
	return out
}
