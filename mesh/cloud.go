package mesh

import (
	"fmt"
	"io"
	"log"
	"runtime"

	"github.com/phil-mansfield/vortrace/geom"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// site is a generating point of the mesh.
type site struct {
	pos [3]float64
	rho float64
	// idx is the position of the site in the load order and id is the id
	// reported to callers.
	idx, id int
}

func (s site) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(site)
	return s.pos[d] - q.pos[d]
}

func (s site) Dims() int { return 3 }

func (s site) Distance(c kdtree.Comparable) float64 {
	q := c.(site)
	dx, dy, dz := s.pos[0]-q.pos[0], s.pos[1]-q.pos[1], s.pos[2]-q.pos[2]
	return dx*dx + dy*dy + dz*dz
}

func (s site) vec() r3.Vec { return r3.Vec{X: s.pos[0], Y: s.pos[1], Z: s.pos[2]} }

// sites implements kdtree.Interface.
type sites []site

func (s sites) Index(i int) kdtree.Comparable { return s[i] }
func (s sites) Len() int                       { return len(s) }
func (s sites) Pivot(d kdtree.Dim) int         { return plane{Dim: d, sites: s}.Pivot() }
func (s sites) Slice(start, end int) kdtree.Interface {
	return s[start:end]
}

// plane allows sites to be partitioned along a single dimension.
type plane struct {
	kdtree.Dim
	sites
}

func (p plane) Less(i, j int) bool { return p.sites[i].pos[p.Dim] < p.sites[j].pos[p.Dim] }
func (p plane) Pivot() int         { return kdtree.Partition(p, kdtree.MedianOfRandoms(p, 100)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.sites = p.sites[start:end]
	return p
}
func (p plane) Swap(i, j int) { p.sites[i], p.sites[j] = p.sites[j], p.sites[i] }

// Cloud is an Engine which finds cells with nearest-neighbor searches over a
// kd-tree of the generating points and walks rays from cell to cell by
// locating the bisecting planes between neighboring generators.
type Cloud struct {
	// Workers is the number of goroutines used by Project.
	Workers int
	// MaxSteps bounds the number of split points a single ray walk may add
	// per loaded point before it is abandoned.
	MaxSteps int

	logger *log.Logger

	box   geom.Box
	sites sites
	tree  *kdtree.Tree
	built bool
}

// typechecking
var _ Engine = &Cloud{}

// NewCloud returns an empty Cloud which logs to logger. A nil logger
// discards output.
func NewCloud(logger *log.Logger) *Cloud {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Cloud{Workers: runtime.NumCPU(), MaxSteps: 4, logger: logger}
}

// Load ingests the generating points of the mesh. Any previously built tree
// is discarded.
func (c *Cloud) Load(pos []r3.Vec, rho []float64, ids []int, box geom.Box) error {
	if len(pos) != len(rho) {
		return fmt.Errorf(
			"%w: %d positions and %d densities", ErrLengthMismatch, len(pos), len(rho),
		)
	} else if ids != nil && len(ids) != len(pos) {
		return fmt.Errorf(
			"%w: %d positions and %d ids", ErrLengthMismatch, len(pos), len(ids),
		)
	}

	c.box = box
	c.sites = make(sites, len(pos))
	for i := range pos {
		s := &c.sites[i]
		s.pos = [3]float64{pos[i].X, pos[i].Y, pos[i].Z}
		s.rho = rho[i]
		s.idx, s.id = i, i
		if ids != nil {
			s.id = ids[i]
		}
	}

	c.tree, c.built = nil, false
	c.logger.Printf("Loaded %d points.", len(c.sites))
	return nil
}

// Build constructs the kd-tree.
func (c *Cloud) Build() error {
	if len(c.sites) == 0 {
		return ErrEmptyCloud
	}

	c.logger.Printf("Building tree over %d points.", len(c.sites))
	// kdtree.New reorders the sites in place.
	c.tree = kdtree.New(c.sites, false)
	c.built = true
	c.logger.Printf("Tree built.")
	return nil
}

// Box returns the bounding box the cloud was loaded with.
func (c *Cloud) Box() geom.Box { return c.box }

// Len returns the number of loaded points.
func (c *Cloud) Len() int { return len(c.sites) }

func (c *Cloud) nearest(q r3.Vec) site {
	s, _ := c.tree.Nearest(site{pos: [3]float64{q.X, q.Y, q.Z}})
	return s.(site)
}

// Nearest returns the id of the generating point closest to q.
func (c *Cloud) Nearest(q r3.Vec) (int, error) {
	if !c.built {
		return -1, ErrNotBuilt
	}
	return c.nearest(q).id, nil
}
