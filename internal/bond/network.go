package bond

import (
	"github.com/san-kum/shatter/internal/body"
)

// Network owns the bonds of one fractured structure. Topology is built
// once at fracture time and only ever shrinks: broken bonds are
// compacted out and never regrow.
type Network struct {
	bonds  []Bond
	params Params
	built  int // bonds at build time
}

// BuildGrid connects each body in a nx×ny×nz lattice (stored row-major
// starting at arena index base) to its face-adjacent neighbors, at most
// six per body. This avoids the O(n²) scan for regular fragment grids.
func BuildGrid(bodies []body.Body, base, nx, ny, nz int, p Params) *Network {
	idx := func(x, y, z int) int {
		return base + (z*ny+y)*nx + x
	}
	n := &Network{params: p}
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				if x+1 < nx {
					n.bonds = append(n.bonds, New(bodies, idx(x, y, z), idx(x+1, y, z), p))
				}
				if y+1 < ny {
					n.bonds = append(n.bonds, New(bodies, idx(x, y, z), idx(x, y+1, z), p))
				}
				if z+1 < nz {
					n.bonds = append(n.bonds, New(bodies, idx(x, y, z), idx(x, y, z+1), p))
				}
			}
		}
	}
	n.built = len(n.bonds)
	return n
}

// BuildFromProximity bonds every pair of the given arena indices whose
// separation is within maxDistance. The pairwise scan is quadratic and
// acceptable only for small fragment counts; larger counts should use
// the grid builder or a spatial hash.
func BuildFromProximity(bodies []body.Body, ids []int, maxDistance float64, p Params) *Network {
	n := &Network{params: p}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			delta := bodies[ids[j]].Position.Sub(bodies[ids[i]].Position)
			if delta.Len() <= maxDistance {
				n.bonds = append(n.bonds, New(bodies, ids[i], ids[j], p))
			}
		}
	}
	n.built = len(n.bonds)
	return n
}

// Step evaluates every live bond, applies equal and opposite forces,
// converts ruptures into break impulses, then compacts broken bonds
// out. Returns the number of bonds that broke this step.
func (n *Network) Step(bodies []body.Body) int {
	brokeNow := 0
	kept := n.bonds[:0]
	for i := range n.bonds {
		bd := &n.bonds[i]
		force, broke := bd.Evaluate(bodies)
		if broke {
			jA, jB := bd.BreakImpulses(bodies, n.params.EnergyTransferRate)
			bodies[bd.A].AddImpulse(jA)
			bodies[bd.B].AddImpulse(jB)
			brokeNow++
			continue
		}
		bodies[bd.B].AddForce(force)
		bodies[bd.A].AddForce(force.Mul(-1))
		kept = append(kept, *bd)
	}
	n.bonds = kept
	return brokeNow
}

// Live returns the current bonds for inspection; callers must not
// mutate them.
func (n *Network) Live() []Bond { return n.bonds }

// Built returns the bond count at build time.
func (n *Network) Built() int { return n.built }

// IsFullyFragmented reports whether every bond has broken. The
// condition is terminal: bonds never regrow.
func (n *Network) IsFullyFragmented() bool {
	return len(n.bonds) == 0
}
