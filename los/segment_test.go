package los

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A ray of length 10 through cells 3, 7, 1, 4. The walk placed sample points
// at s = 0, 3, 6, 10 and found faces at s = 2, 5, 8.
func syntheticRay() (cs []Crossing, rho []float64, col, length float64) {
	cs = []Crossing{
		{Cell: 3, S: 0, Edge: 2, DS: 2},
		{Cell: 7, S: 3, Edge: 2, DS: 1},
		{Cell: 7, S: 3, Edge: 5, DS: 2},
		{Cell: 1, S: 6, Edge: 5, DS: 1},
		{Cell: 1, S: 6, Edge: 8, DS: 2},
		{Cell: 4, S: 10, Edge: 8, DS: 2},
	}
	rho = []float64{100, 0.5, 100, 2, 1.25, 100, 100, 3}
	col = 2*2 + 3*3 + 0.5*3 + 1.25*2
	return cs, rho, col, 10
}

func TestReconstructMerge(t *testing.T) {
	cs, rho, col, length := syntheticRay()

	segs, err := Reconstruct(cs, col, rho, length, DefaultTolerance)
	require.NoError(t, err)

	assert.Equal(t, []int{3, 7, 1, 4}, Cells(segs))
	assert.Equal(t, []float64{2, 3, 3, 2}, Lengths(segs))
	assert.Equal(t, []float64{1, 3.5, 6.5, 9}, Distances(segs, true))
	assert.Equal(t, []float64{0, 3, 6, 10}, Distances(segs, false))
}

func TestReconstructExactColumn(t *testing.T) {
	cs, rho, _, length := syntheticRay()
	segs, err := merge(cs, length, DefaultTolerance)
	require.NoError(t, err)

	col := 0.0
	for _, s := range segs {
		col += rho[s.Cell] * s.DS
	}

	tight := Tolerance{Rel: 1e-10, Abs: 0}
	_, err = Reconstruct(cs, col, rho, length, tight)
	assert.NoError(t, err)
}

func TestReconstructCorruptedLength(t *testing.T) {
	for i := range []int{0, 1, 2, 3, 4, 5} {
		cs, rho, col, length := syntheticRay()
		cs[i].DS *= 1.01

		_, err := Reconstruct(cs, col, rho, length, DefaultTolerance)
		if !errors.Is(err, ErrColumnMismatch) {
			t.Errorf("%d) expected ErrColumnMismatch, got %v", i+1, err)
			continue
		}

		var cm *ColumnMismatchError
		require.True(t, errors.As(err, &cm))
		assert.Equal(t, col, cm.Reported)
		assert.NotEqual(t, col, cm.Reconstructed)
		assert.Contains(t, err.Error(), "!=")
	}
}

func TestReconstructIdempotent(t *testing.T) {
	rho := []float64{1, 2, 3}
	table := []struct {
		cs     []Crossing
		length float64
		mids   []float64
	}{
		{[]Crossing{{Cell: 2, S: 0, Edge: 4, DS: 4}}, 4, []float64{2}},
		{[]Crossing{{Cell: 0, S: 0, Edge: 1, DS: 1}, {Cell: 1, S: 3, Edge: 1, DS: 2}},
			3, []float64{0.5, 2}},
	}

	for i, test := range table {
		col := 0.0
		for _, c := range test.cs {
			col += rho[c.Cell] * c.DS
		}

		segs, err := Reconstruct(test.cs, col, rho, test.length, DefaultTolerance)
		if err != nil {
			t.Errorf("%d) unexpected error: %s", i+1, err)
			continue
		}
		require.Len(t, segs, len(test.cs))
		for j, c := range test.cs {
			if segs[j].Cell != c.Cell || segs[j].S != c.S || segs[j].DS != c.DS {
				t.Errorf("%d) segment %d changed: %+v -> %+v", i+1, j, c, segs[j])
			}
		}
		assert.Equal(t, test.mids, Distances(segs, true))
	}
}

func TestReconstructErrors(t *testing.T) {
	rho := []float64{1, 1, 1}
	table := []struct {
		cs     []Crossing
		length float64
		err    error
	}{
		{nil, 1, ErrDegenerateRay},
		{[]Crossing{{Cell: 0, S: 0, Edge: 0.5, DS: 0.5}}, 1, ErrDegenerateRay},
		{[]Crossing{
			{Cell: 0, S: 0, Edge: 1, DS: 1},
			{Cell: 1, S: 2, Edge: 1, DS: 1},
			{Cell: 2, S: 3, Edge: 2, DS: 1},
		}, 3, ErrInconsistentSegments},
		{[]Crossing{
			{Cell: 0, S: 0, Edge: 1, DS: 1},
			{Cell: 1, S: 1.5, Edge: 1, DS: 0.5},
			{Cell: 1, S: 1.7, Edge: 2, DS: 0.5},
			{Cell: 2, S: 3, Edge: 2, DS: 1},
		}, 3, ErrInconsistentSegments},
		{[]Crossing{
			{Cell: 0, S: 0, Edge: 1, DS: 1},
			{Cell: 1, S: 1.5, Edge: 1, DS: 0.5},
			{Cell: 2, S: 1.5, Edge: 2, DS: 0.5},
			{Cell: 2, S: 3, Edge: 2, DS: 1},
		}, 3, ErrInconsistentSegments},
		{[]Crossing{
			{Cell: 0, S: 0, Edge: 1, DS: 1},
			{Cell: 5, S: 2, Edge: 1, DS: 1},
		}, 2, ErrInconsistentSegments},
	}

	for i, test := range table {
		col := 0.0
		for _, c := range test.cs {
			col += c.DS
		}
		_, err := Reconstruct(test.cs, col, rho, test.length, DefaultTolerance)
		if !errors.Is(err, test.err) {
			t.Errorf("%d) expected %v, got %v", i+1, test.err, err)
		}
	}
}

func TestReconstructLengthMismatch(t *testing.T) {
	cs, rho, col, _ := syntheticRay()
	_, err := Reconstruct(cs, col, rho, 12, DefaultTolerance)
	assert.ErrorIs(t, err, ErrInconsistentSegments)
}

func TestToleranceEq(t *testing.T) {
	tol := Tolerance{Rel: 1e-6, Abs: 1e-9}
	assert.True(t, tol.Eq(1, 1+1e-7))
	assert.False(t, tol.Eq(1, 1+1e-5))
	assert.True(t, tol.Eq(0, 1e-10))
	assert.False(t, tol.Eq(0, 1e-8))
}
