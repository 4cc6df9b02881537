package body

import (
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/gomega"
)

func TestNewClampsDegenerateMass(t *testing.T) {
	b := New(mgl64.Vec3{}, 0, mgl64.Vec3{0.5, 0.5, 0.5})

	if b.Mass < MinMass {
		t.Errorf("mass not clamped: %g", b.Mass)
	}
	if math.IsInf(b.InvMass, 0) || math.IsNaN(b.InvMass) {
		t.Errorf("inverse mass not finite: %g", b.InvMass)
	}
	for i := 0; i < 3; i++ {
		if b.InertiaBody[i] < MinInertia {
			t.Errorf("inertia[%d] not clamped: %g", i, b.InertiaBody[i])
		}
	}
}

func TestAddImpulseIsImmediate(t *testing.T) {
	b := New(mgl64.Vec3{}, 2.0, mgl64.Vec3{0.5, 0.5, 0.5})

	b.AddImpulse(mgl64.Vec3{4, 0, 0})

	if got := b.Velocity(); math.Abs(got.X()-2.0) > 1e-12 {
		t.Errorf("velocity after impulse = %v, want x=2", got)
	}
}

func TestAddForceDeferredUntilIntegrate(t *testing.T) {
	b := New(mgl64.Vec3{}, 1.0, mgl64.Vec3{0.5, 0.5, 0.5})

	b.AddForce(mgl64.Vec3{10, 0, 0})
	if b.Velocity().Len() != 0 {
		t.Fatal("force applied before Integrate")
	}

	b.Integrate(0.1)
	if got := b.Velocity().X(); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("velocity after integrate = %g, want 1.0", got)
	}

	// Accumulator must be cleared.
	b.Integrate(0.1)
	if got := b.Velocity().X(); math.Abs(got-1.0) > 1e-12 {
		t.Errorf("velocity after second integrate = %g, want 1.0 (accumulator not cleared)", got)
	}
}

// Orientation must stay orthonormal within 1e-5 after every step, for
// any angular velocity.
func TestIntegrateKeepsOrientationOrthonormal(t *testing.T) {
	g := NewWithT(t)
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 10; trial++ {
		b := New(mgl64.Vec3{}, 1.0, mgl64.Vec3{0.5, 0.3, 0.8})
		b.AngularMomentum = mgl64.Vec3{
			(rng.Float64() - 0.5) * 40,
			(rng.Float64() - 0.5) * 40,
			(rng.Float64() - 0.5) * 40,
		}

		for step := 0; step < 500; step++ {
			b.Integrate(1.0 / 60.0)

			for i := 0; i < 3; i++ {
				g.Expect(b.Orientation.Col(i).Len()).To(BeNumerically("~", 1.0, 1e-5),
					"column %d length, trial %d step %d", i, trial, step)
			}
			g.Expect(b.Orientation.Col(0).Dot(b.Orientation.Col(1))).To(BeNumerically("~", 0.0, 1e-5))
			g.Expect(b.Orientation.Col(0).Dot(b.Orientation.Col(2))).To(BeNumerically("~", 0.0, 1e-5))
			g.Expect(b.Orientation.Col(1).Dot(b.Orientation.Col(2))).To(BeNumerically("~", 0.0, 1e-5))
		}
	}
}

func TestIntegrateNeverEmitsNaN(t *testing.T) {
	b := New(mgl64.Vec3{}, 1e-12, mgl64.Vec3{0, 0, 0})
	b.AngularMomentum = mgl64.Vec3{1e9, -1e9, 1e9}

	for i := 0; i < 100; i++ {
		b.Integrate(1.0 / 60.0)
	}

	for _, v := range []mgl64.Vec3{b.Position, b.Momentum, b.AngularMomentum} {
		for _, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				t.Fatalf("non-finite state: %v", v)
			}
		}
	}
	if !matFinite(b.Orientation) {
		t.Fatalf("non-finite orientation: %v", b.Orientation)
	}
}

// With equal and opposite forces, total momentum is conserved over
// many ticks.
func TestMomentumConservationUnderInternalForces(t *testing.T) {
	a := New(mgl64.Vec3{0, 0, 0}, 1.0, mgl64.Vec3{0.5, 0.5, 0.5})
	b := New(mgl64.Vec3{2, 0, 0}, 3.0, mgl64.Vec3{0.5, 0.5, 0.5})
	a.Momentum = mgl64.Vec3{1, 2, -1}
	b.Momentum = mgl64.Vec3{-0.5, 0, 4}

	initial := a.Momentum.Add(b.Momentum)

	for i := 0; i < 1000; i++ {
		f := mgl64.Vec3{math.Sin(float64(i)), 3, -1}
		a.AddForce(f)
		b.AddForce(f.Mul(-1))
		a.Integrate(1.0 / 60.0)
		b.Integrate(1.0 / 60.0)
	}

	total := a.Momentum.Add(b.Momentum)
	if total.Sub(initial).Len() > 1e-9 {
		t.Errorf("momentum drifted: initial %v, final %v", initial, total)
	}
}

func TestAddImpulseAtAddsAngularMomentum(t *testing.T) {
	b := New(mgl64.Vec3{}, 1.0, mgl64.Vec3{0.5, 0.5, 0.5})

	b.AddImpulseAt(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{1, 0, 0})

	// r × j = (1,0,0) × (0,1,0) = (0,0,1)
	if got := b.AngularMomentum; math.Abs(got.Z()-1.0) > 1e-12 {
		t.Errorf("angular momentum = %v, want z=1", got)
	}
}

func TestWorldAABBOfRotatedBody(t *testing.T) {
	b := New(mgl64.Vec3{}, 1.0, mgl64.Vec3{1, 1, 1})

	// Rotate 45 degrees about z.
	s, c := math.Sqrt2/2, math.Sqrt2/2
	b.Orientation = mgl64.Mat3FromCols(
		mgl64.Vec3{c, s, 0},
		mgl64.Vec3{-s, c, 0},
		mgl64.Vec3{0, 0, 1},
	)

	box := b.WorldAABB()
	want := math.Sqrt2
	if math.Abs(box.Max.X()-want) > 1e-9 || math.Abs(box.Max.Y()-want) > 1e-9 {
		t.Errorf("rotated AABB max = %v, want x=y=%.4f", box.Max, want)
	}
	if math.Abs(box.Max.Z()-1.0) > 1e-9 {
		t.Errorf("rotated AABB max z = %g, want 1", box.Max.Z())
	}
}

func TestOrthonormalizeRepairsDrift(t *testing.T) {
	drifted := mgl64.Mat3FromCols(
		mgl64.Vec3{1.1, 0.02, 0},
		mgl64.Vec3{0.03, 0.97, 0.01},
		mgl64.Vec3{0, 0.02, 1.05},
	)

	fixed := Orthonormalize(drifted)

	for i := 0; i < 3; i++ {
		if math.Abs(fixed.Col(i).Len()-1.0) > 1e-12 {
			t.Errorf("column %d not unit length: %g", i, fixed.Col(i).Len())
		}
	}
	if math.Abs(fixed.Col(0).Dot(fixed.Col(1))) > 1e-12 {
		t.Error("columns 0 and 1 not orthogonal")
	}
}
