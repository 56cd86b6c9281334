package mesh

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/vortrace/los"
	"gonum.org/v1/gonum/spatial/r3"
)

// rayPoint is a sample point along a ray. Sample points form a linked list
// ordered by distance from the start of the ray.
type rayPoint struct {
	site site
	next int
	s    float64
}

// ray is a line segment from start to end with unit direction dir.
type ray struct {
	start, dir r3.Vec
	length     float64
}

func newRay(start, end r3.Vec) ray {
	d := r3.Sub(end, start)
	r := ray{start: start, length: r3.Norm(d)}
	if r.length > 0 {
		r.dir = r3.Scale(1/r.length, d)
	}
	return r
}

// at returns the point a distance s from the start of the ray.
func (r *ray) at(s float64) r3.Vec { return r3.Add(r.start, r3.Scale(s, r.dir)) }

// splitDistance returns the distance from the start of the ray to the plane
// bisecting the generators p1 and p2.
func (r *ray) splitDistance(p1, p2 r3.Vec) float64 {
	norm := r3.Sub(p2, p1)
	ppl := r3.Sub(r3.Scale(0.5, r3.Add(p1, p2)), r.start)
	return r3.Dot(norm, ppl) / r3.Dot(norm, r.dir)
}

// Integrate walks the ray start -> end through the mesh and returns its
// column density along with the crossing records of every cell it visits.
//
// Cells strictly between the first and last are reported as two adjacent
// records sharing the distance of the sample point inside the cell: the
// first covers the part of the cell before that point and the second the
// part after.
func (c *Cloud) Integrate(start, end r3.Vec) (float64, []los.Crossing, error) {
	if !c.built {
		return 0, nil, ErrNotBuilt
	}

	r := newRay(start, end)
	first, last := c.nearest(start), c.nearest(end)

	if first.idx == last.idx || r.length == 0 {
		cs := []los.Crossing{{Cell: first.id, S: 0, Edge: r.length, DS: r.length}}
		return r.length * first.rho, cs, nil
	}

	pts := make([]rayPoint, 2, 64)
	pts[0] = rayPoint{site: first, next: 1, s: 0}
	pts[1] = rayPoint{site: last, next: -1, s: r.length}

	cs := make([]los.Crossing, 0, 32)
	col := 0.0
	maxSteps := c.MaxSteps*len(c.sites) + 8
	curr, next := 0, 1

	for step := 0; ; step++ {
		if step > maxSteps {
			return 0, nil, fmt.Errorf(
				"mesh: ray %v -> %v did not converge after %d steps",
				start, end, step,
			)
		}

		cp, np := &pts[curr], &pts[next]
		s := r.splitDistance(cp.site.vec(), np.site.vec())
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return 0, nil, fmt.Errorf(
				"mesh: cells %d and %d have no split point along ray %v -> %v",
				cp.site.id, np.site.id, start, end,
			)
		}

		split := c.nearest(r.at(s))
		if split.idx != cp.site.idx && split.idx != np.site.idx {
			// Another cell lies between the two, so walk to it first.
			pts = append(pts, rayPoint{site: split, next: next, s: s})
			next = len(pts) - 1
			pts[curr].next = next
			continue
		}

		// The split point is on the face shared by the two cells.
		ds0, ds1 := s-cp.s, np.s-s
		col += ds0*cp.site.rho + ds1*np.site.rho
		cs = append(cs,
			los.Crossing{Cell: cp.site.id, S: cp.s, Edge: s, DS: ds0},
			los.Crossing{Cell: np.site.id, S: np.s, Edge: s, DS: ds1},
		)

		curr = next
		next = pts[curr].next
		if next < 0 {
			break
		}
	}

	return col, cs, nil
}

// SampledColumn estimates the column density along start -> end by looking up
// the cell at the midpoints of n equal steps. It converges to Integrate as n
// grows and is much slower.
func (c *Cloud) SampledColumn(start, end r3.Vec, n int) (float64, error) {
	if !c.built {
		return 0, ErrNotBuilt
	} else if n <= 0 {
		return 0, fmt.Errorf("mesh: need a positive sample count, got %d", n)
	}

	r := newRay(start, end)
	dl := r.length / float64(n)
	col := 0.0
	for i := 0; i < n; i++ {
		col += c.nearest(r.at(dl*(float64(i)+0.5))).rho
	}
	return col * dl, nil
}
