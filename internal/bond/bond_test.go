package bond

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/shatter/internal/body"
)

func testParams() Params {
	return Params{
		Stiffness:          100,
		Damping:            0,
		BreakThreshold:     0.3,
		EnergyTransferRate: 0.9,
	}
}

func twoBodies(separation float64) []body.Body {
	return []body.Body{
		body.New(mgl64.Vec3{0, 0, 0}, 1.0, mgl64.Vec3{0.5, 0.5, 0.5}),
		body.New(mgl64.Vec3{separation, 0, 0}, 1.0, mgl64.Vec3{0.5, 0.5, 0.5}),
	}
}

func TestRestLengthFromInitialSeparation(t *testing.T) {
	bodies := twoBodies(1.0)
	bd := New(bodies, 0, 1, testParams())

	if bd.RestLength != 1.0 {
		t.Errorf("rest length = %g, want 1.0", bd.RestLength)
	}
}

func TestEvaluateAtRestIsZeroForce(t *testing.T) {
	bodies := twoBodies(1.0)
	bd := New(bodies, 0, 1, testParams())

	force, broke := bd.Evaluate(bodies)

	if broke {
		t.Fatal("unexpected break at rest length")
	}
	if force.Len() > 1e-12 {
		t.Errorf("force at rest = %v, want zero", force)
	}
}

func TestEvaluateStretchedPullsBodiesTogether(t *testing.T) {
	bodies := twoBodies(1.0)
	bd := New(bodies, 0, 1, testParams())

	bodies[1].Position = mgl64.Vec3{1.2, 0, 0}
	force, broke := bd.Evaluate(bodies)

	if broke {
		t.Fatal("20% stretch should not break a 30% threshold bond")
	}
	// Force on B points back toward A.
	if force.X() >= 0 {
		t.Errorf("force on stretched bond = %v, want negative x", force)
	}
	wantMag := 100 * 0.2
	if math.Abs(force.Len()-wantMag) > 1e-9 {
		t.Errorf("force magnitude = %g, want %g", force.Len(), wantMag)
	}
}

func TestStoredEnergyNeverNegative(t *testing.T) {
	for _, sep := range []float64{0.2, 0.5, 1.0, 1.2, 3.0} {
		bodies := twoBodies(1.0)
		bd := New(bodies, 0, 1, Params{Stiffness: 100, BreakThreshold: 10})

		bodies[1].Position = mgl64.Vec3{sep, 0, 0}
		bd.Evaluate(bodies)

		if bd.StoredEnergy() < 0 {
			t.Errorf("separation %g: stored energy %g < 0", sep, bd.StoredEnergy())
		}
	}
}

// Two 1 kg bodies, k=100, rest 1.0, threshold 0.3: separating to 1.3
// breaks the bond on that step with 4.5 J stored, and the release at
// rate 0.9 carries sqrt(2·4.5·0.9) ≈ 2.846 of impulse.
func TestBreakAtThresholdAndImpulseMagnitude(t *testing.T) {
	bodies := twoBodies(1.0)
	bd := New(bodies, 0, 1, testParams())

	bodies[1].Position = mgl64.Vec3{1.3, 0, 0}
	_, broke := bd.Evaluate(bodies)

	if !broke {
		t.Fatal("30% stretch must rupture a 0.3-threshold bond")
	}
	if math.Abs(bd.StoredEnergy()-4.5) > 1e-9 {
		t.Errorf("stored energy = %g, want 4.5", bd.StoredEnergy())
	}
	if got := bd.BreakImpulseMagnitude(0.9); math.Abs(got-2.846) > 1e-3 {
		t.Errorf("break impulse magnitude = %g, want ≈2.846", got)
	}
}

// A tick that overshoots the rupture point far past the threshold must
// not release more energy than the bond could hold at the threshold:
// rupture at 200% stretch pays out the same impulse as rupture at 30%.
func TestRuptureEnergyCappedAtThreshold(t *testing.T) {
	bodies := twoBodies(1.0)
	bd := New(bodies, 0, 1, testParams())

	bodies[1].Position = mgl64.Vec3{3.0, 0, 0}
	if _, broke := bd.Evaluate(bodies); !broke {
		t.Fatal("200% stretch must rupture the bond")
	}

	if math.Abs(bd.StoredEnergy()-4.5) > 1e-9 {
		t.Errorf("stored energy = %g, want 4.5 (capped at threshold deformation)", bd.StoredEnergy())
	}
	if got := bd.BreakImpulseMagnitude(0.9); math.Abs(got-2.846) > 1e-3 {
		t.Errorf("break impulse magnitude = %g, want ≈2.846", got)
	}
}

func TestBreakIsMonotonic(t *testing.T) {
	bodies := twoBodies(1.0)
	bd := New(bodies, 0, 1, testParams())

	bodies[1].Position = mgl64.Vec3{2.0, 0, 0}
	if _, broke := bd.Evaluate(bodies); !broke {
		t.Fatal("bond should have broken")
	}

	// Move back within range: the bond stays broken and inert.
	bodies[1].Position = mgl64.Vec3{1.0, 0, 0}
	for i := 0; i < 5; i++ {
		force, broke := bd.Evaluate(bodies)
		if broke {
			t.Error("break reported twice")
		}
		if force.Len() != 0 {
			t.Errorf("broken bond produced force %v", force)
		}
		if !bd.Broken() {
			t.Error("broken flag reset")
		}
	}
}

// The heavier body receives the smaller velocity change.
func TestBreakImpulsesMassSplit(t *testing.T) {
	bodies := []body.Body{
		body.New(mgl64.Vec3{0, 0, 0}, 1.0, mgl64.Vec3{0.5, 0.5, 0.5}),
		body.New(mgl64.Vec3{1, 0, 0}, 4.0, mgl64.Vec3{0.5, 0.5, 0.5}),
	}
	bd := New(bodies, 0, 1, testParams())

	bodies[1].Position = mgl64.Vec3{1.5, 0, 0}
	bd.Evaluate(bodies)

	jA, jB := bd.BreakImpulses(bodies, 0.9)

	dvA := jA.Len() / bodies[0].Mass
	dvB := jB.Len() / bodies[1].Mass
	if dvB >= dvA {
		t.Errorf("heavier body got larger velocity change: dvA=%g dvB=%g", dvA, dvB)
	}
	// Impulses are opposite along the bond axis.
	if jA.X() >= 0 || jB.X() <= 0 {
		t.Errorf("impulses not opposing: jA=%v jB=%v", jA, jB)
	}
}

func TestZeroSeparationFallsBackToLastDirection(t *testing.T) {
	bodies := twoBodies(1.0)
	bd := New(bodies, 0, 1, Params{Stiffness: 100, BreakThreshold: 10})

	// Establish a direction, then collapse the pair onto one point.
	bd.Evaluate(bodies)
	bodies[1].Position = bodies[0].Position

	force, _ := bd.Evaluate(bodies)
	for _, v := range force {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("zero separation produced non-finite force %v", force)
		}
	}
	if bd.Direction().Len() == 0 {
		t.Error("direction lost on zero separation")
	}
}

func TestDanglingReferencePanics(t *testing.T) {
	bodies := twoBodies(1.0)
	bd := New(bodies, 0, 1, testParams())

	defer func() {
		if recover() == nil {
			t.Error("expected panic on dangling body reference")
		}
	}()
	bd.Evaluate(bodies[:1])
}
