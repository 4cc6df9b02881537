package bond

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/shatter/internal/body"
)

func lattice(nx, ny, nz int, spacing float64) []body.Body {
	bodies := make([]body.Body, 0, nx*ny*nz)
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				pos := mgl64.Vec3{float64(x) * spacing, float64(y) * spacing, float64(z) * spacing}
				bodies = append(bodies, body.New(pos, 1.0, mgl64.Vec3{0.4, 0.4, 0.4}))
			}
		}
	}
	return bodies
}

func TestBuildGridFaceAdjacency(t *testing.T) {
	bodies := lattice(2, 2, 2, 1.0)
	n := BuildGrid(bodies, 0, 2, 2, 2, testParams())

	// A 2×2×2 lattice has 12 face-adjacent edges.
	if len(n.Live()) != 12 {
		t.Errorf("grid bonds = %d, want 12", len(n.Live()))
	}

	// Every bond spans exactly one lattice spacing: no diagonals.
	for _, bd := range n.Live() {
		if bd.RestLength != 1.0 {
			t.Errorf("bond (%d,%d) rest length %g, want 1.0", bd.A, bd.B, bd.RestLength)
		}
	}

	// No body exceeds 6 neighbors.
	degree := make(map[int]int)
	for _, bd := range n.Live() {
		degree[bd.A]++
		degree[bd.B]++
	}
	for i, d := range degree {
		if d > 6 {
			t.Errorf("body %d has %d bonds, max is 6", i, d)
		}
	}
}

func TestBuildGridSingleRow(t *testing.T) {
	bodies := lattice(4, 1, 1, 0.5)
	n := BuildGrid(bodies, 0, 4, 1, 1, testParams())

	if len(n.Live()) != 3 {
		t.Errorf("row bonds = %d, want 3", len(n.Live()))
	}
}

func TestBuildFromProximityRange(t *testing.T) {
	bodies := []body.Body{
		body.New(mgl64.Vec3{0, 0, 0}, 1, mgl64.Vec3{0.4, 0.4, 0.4}),
		body.New(mgl64.Vec3{1, 0, 0}, 1, mgl64.Vec3{0.4, 0.4, 0.4}),
		body.New(mgl64.Vec3{5, 0, 0}, 1, mgl64.Vec3{0.4, 0.4, 0.4}),
	}
	n := BuildFromProximity(bodies, []int{0, 1, 2}, 1.5, testParams())

	if len(n.Live()) != 1 {
		t.Fatalf("proximity bonds = %d, want 1", len(n.Live()))
	}
	bd := n.Live()[0]
	if bd.A != 0 || bd.B != 1 {
		t.Errorf("bonded pair (%d,%d), want (0,1)", bd.A, bd.B)
	}
}

func TestStepAppliesOpposingForces(t *testing.T) {
	bodies := twoBodies(1.0)
	n := BuildFromProximity(bodies, []int{0, 1}, 2.0, testParams())

	bodies[1].Position = mgl64.Vec3{1.2, 0, 0}
	if broke := n.Step(bodies); broke != 0 {
		t.Fatalf("unexpected break count %d", broke)
	}

	bodies[0].Integrate(0.01)
	bodies[1].Integrate(0.01)

	// A pulled toward B, B pulled toward A.
	if bodies[0].Momentum.X() <= 0 || bodies[1].Momentum.X() >= 0 {
		t.Errorf("forces not opposing: pA=%v pB=%v", bodies[0].Momentum, bodies[1].Momentum)
	}
	total := bodies[0].Momentum.Add(bodies[1].Momentum)
	if total.Len() > 1e-12 {
		t.Errorf("bond forces changed total momentum: %v", total)
	}
}

func TestStepCompactsBrokenBondsAndAppliesImpulses(t *testing.T) {
	bodies := twoBodies(1.0)
	n := BuildFromProximity(bodies, []int{0, 1}, 2.0, testParams())

	bodies[1].Position = mgl64.Vec3{2.0, 0, 0}
	broke := n.Step(bodies)

	if broke != 1 {
		t.Fatalf("break count = %d, want 1", broke)
	}
	if len(n.Live()) != 0 {
		t.Errorf("broken bond not compacted: %d live", len(n.Live()))
	}
	if !n.IsFullyFragmented() {
		t.Error("network with zero bonds must report fully fragmented")
	}
	if n.Built() != 1 {
		t.Errorf("built count = %d, want 1", n.Built())
	}

	// Rupture pushed the bodies apart along the bond axis.
	if bodies[0].Momentum.X() >= 0 || bodies[1].Momentum.X() <= 0 {
		t.Errorf("break impulses not opposing: pA=%v pB=%v", bodies[0].Momentum, bodies[1].Momentum)
	}
}

func TestFullyFragmentedIsTerminal(t *testing.T) {
	bodies := twoBodies(1.0)
	n := BuildFromProximity(bodies, []int{0, 1}, 2.0, testParams())

	bodies[1].Position = mgl64.Vec3{2.0, 0, 0}
	n.Step(bodies)

	// Further steps on an empty network are no-ops.
	for i := 0; i < 3; i++ {
		if broke := n.Step(bodies); broke != 0 {
			t.Errorf("empty network reported %d breaks", broke)
		}
		if !n.IsFullyFragmented() {
			t.Error("fragmented state must not revert")
		}
	}
}
