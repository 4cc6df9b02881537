// Package bond models structural cohesion between rigid bodies as
// breakable spring-dampers. A bond stores deformation energy while
// stressed and releases it as opposing impulses when it ruptures.
package bond

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/shatter/internal/body"
)

const epsilon = 1e-9

// Params are the shared material parameters for every bond in a
// network.
type Params struct {
	Stiffness          float64
	Damping            float64
	BreakThreshold     float64 // deformation ratio, e.g. 0.3 = 30% stretch
	EnergyTransferRate float64 // fraction of stored energy released on rupture
}

// Bond links two bodies in an arena by index. RestLength is fixed at
// creation from the initial separation. The broken flag is monotonic:
// once set, the bond is permanently inert.
type Bond struct {
	A, B           int
	RestLength     float64
	Stiffness      float64
	Damping        float64
	BreakThreshold float64

	storedEnergy float64
	broken       bool

	// lastDir caches the most recent bond direction so a near-zero
	// separation falls back to it instead of dividing by zero.
	lastDir mgl64.Vec3
}

// New creates a bond between bodies[a] and bodies[b] with the rest
// length taken from their current separation.
func New(bodies []body.Body, a, b int, p Params) Bond {
	checkIndex(bodies, a)
	checkIndex(bodies, b)
	delta := bodies[b].Position.Sub(bodies[a].Position)
	rest := math.Max(delta.Len(), epsilon)
	dir := mgl64.Vec3{1, 0, 0}
	if delta.Len() > epsilon {
		dir = delta.Normalize()
	}
	return Bond{
		A:              a,
		B:              b,
		RestLength:     rest,
		Stiffness:      p.Stiffness,
		Damping:        p.Damping,
		BreakThreshold: p.BreakThreshold,
		lastDir:        dir,
	}
}

// Broken reports whether the bond has ruptured.
func (bd *Bond) Broken() bool { return bd.broken }

// StoredEnergy returns the elastic energy 0.5·k·deformation² from the
// last evaluation, with the deformation capped at the rupture
// threshold. It is never negative.
func (bd *Bond) StoredEnergy() float64 { return bd.storedEnergy }

// Direction returns the last known unit vector from body A to body B.
func (bd *Bond) Direction() mgl64.Vec3 { return bd.lastDir }

// Evaluate computes the spring-damper force on body B (body A receives
// the opposite) and reports rupture. A broken bond contributes exactly
// zero force and never evaluates again.
func (bd *Bond) Evaluate(bodies []body.Body) (mgl64.Vec3, bool) {
	if bd.broken {
		return mgl64.Vec3{}, false
	}
	checkIndex(bodies, bd.A)
	checkIndex(bodies, bd.B)
	a, b := &bodies[bd.A], &bodies[bd.B]

	delta := b.Position.Sub(a.Position)
	length := delta.Len()
	dir := bd.lastDir
	if length > epsilon {
		dir = delta.Mul(1.0 / length)
		bd.lastDir = dir
	}

	deformation := length - bd.RestLength
	ratio := math.Abs(deformation) / bd.RestLength

	// Elastic energy is capped at what the bond holds right at the
	// rupture threshold: past that the material has already failed,
	// however far a single tick overshot the break point.
	stored := math.Min(math.Abs(deformation), bd.BreakThreshold*bd.RestLength)
	bd.storedEnergy = 0.5 * bd.Stiffness * stored * stored

	if ratio > bd.BreakThreshold {
		bd.broken = true
		return mgl64.Vec3{}, true
	}

	relVel := b.Velocity().Sub(a.Velocity())
	spring := -bd.Stiffness * deformation
	damping := -bd.Damping * relVel.Dot(dir)
	return dir.Mul(spring + damping), false
}

// BreakImpulseMagnitude is the scalar impulse released on rupture:
// sqrt(2·E·rate) for stored energy E.
func (bd *Bond) BreakImpulseMagnitude(rate float64) float64 {
	return math.Sqrt(2 * bd.storedEnergy * rate)
}

// BreakImpulses converts the stored deformation energy into opposing
// impulses along the bond direction. The released energy is split so
// the heavier body receives the smaller velocity change:
//
//	EA = E·mB/(mA+mB), EB = E·mA/(mA+mB), dv = sqrt(2·E/m)
//
// Body A is pushed away from B and vice versa.
func (bd *Bond) BreakImpulses(bodies []body.Body, rate float64) (mgl64.Vec3, mgl64.Vec3) {
	checkIndex(bodies, bd.A)
	checkIndex(bodies, bd.B)
	mA := bodies[bd.A].Mass
	mB := bodies[bd.B].Mass

	energy := bd.storedEnergy * rate
	total := mA + mB
	eA := energy * mB / total
	eB := energy * mA / total

	dvA := math.Sqrt(2 * eA / mA)
	dvB := math.Sqrt(2 * eB / mB)

	dir := bd.lastDir
	return dir.Mul(-dvA * mA), dir.Mul(dvB * mB)
}

// checkIndex asserts the bond's body reference is live. A dangling
// reference is a lifecycle bug in the owning network, not a runtime
// condition to tolerate.
func checkIndex(bodies []body.Body, i int) {
	if i < 0 || i >= len(bodies) {
		panic("bond: body index out of range (dangling reference)")
	}
}
