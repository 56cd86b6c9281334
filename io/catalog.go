package io

import (
	"fmt"

	"github.com/phil-mansfield/table"
	"gonum.org/v1/gonum/spatial/r3"
)

// ReadPoints reads positions and densities from a whitespace-separated text
// file. cols gives the zero-indexed columns of x, y, z, and the density.
func ReadPoints(file string, cols []int) (pos []r3.Vec, rho []float64, err error) {
	if len(cols) != 4 {
		return nil, nil, fmt.Errorf(
			"Need four columns (x, y, z, density), but got %d.", len(cols),
		)
	}

	vals, err := table.ReadTable(file, cols, nil)
	if err != nil {
		return nil, nil, err
	}

	xs, ys, zs := vals[0], vals[1], vals[2]
	rho = vals[3]
	pos = make([]r3.Vec, len(xs))
	for i := range pos {
		pos[i] = r3.Vec{X: xs[i], Y: ys[i], Z: zs[i]}
	}

	return pos, rho, nil
}
