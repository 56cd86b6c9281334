package mesh

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Project integrates every ray start[i] -> end[i] and returns the column
// densities in the same order. Rays are split into contiguous chunks, one per
// worker.
func (c *Cloud) Project(start, end []r3.Vec) ([]float64, error) {
	if !c.built {
		return nil, ErrNotBuilt
	} else if len(start) != len(end) {
		return nil, fmt.Errorf(
			"%w: %d start points and %d end points",
			ErrLengthMismatch, len(start), len(end),
		)
	}

	workers := c.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(start) {
		workers = len(start)
	}

	cols := make([]float64, len(start))
	if len(start) == 0 {
		return cols, nil
	}

	c.logger.Printf("Making projection of %d rays with %d workers.",
		len(start), workers)

	errs := make([]error, workers)
	out := make(chan int, workers)
	for id := 0; id < workers; id++ {
		go c.chanProject(id, workers, start, end, cols, errs, out)
	}
	for i := 0; i < workers; i++ {
		<-out
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	c.logger.Printf("Projection complete.")
	return cols, nil
}

// chanProject is a worker function which integrates the id-th chunk of rays
// and then sends its id to the out channel.
func (c *Cloud) chanProject(
	id, workers int, start, end []r3.Vec, cols []float64,
	errs []error, out chan<- int,
) {
	lo := id * len(start) / workers
	hi := (id + 1) * len(start) / workers

	for i := lo; i < hi; i++ {
		col, _, err := c.Integrate(start[i], end[i])
		if err != nil {
			errs[id] = fmt.Errorf("ray %d: %w", i, err)
			break
		}
		cols[i] = col
	}

	out <- id
}

// SampledProject is the brute force counterpart of Project which estimates
// each column with SampledColumn using n samples per ray.
func (c *Cloud) SampledProject(start, end []r3.Vec, n int) ([]float64, error) {
	if len(start) != len(end) {
		return nil, fmt.Errorf(
			"%w: %d start points and %d end points",
			ErrLengthMismatch, len(start), len(end),
		)
	}

	cols := make([]float64, len(start))
	for i := range start {
		col, err := c.SampledColumn(start[i], end[i], n)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return cols, nil
}
