// Package body implements the momentum-state rigid body at the core of
// the engine. Linear and angular state are kept as momentum rather than
// velocity so mid-step impulses (fracture, contact response) compose
// with force integration without special cases.
package body

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/shatter/internal/collide"
)

const (
	// MinMass and MinInertia clamp degenerate inputs; integration must
	// never divide by zero or emit NaN.
	MinMass    = 1e-6
	MinInertia = 1e-6

	epsilon = 1e-9
)

// Body is a 6-DOF rigid body. Orientation is an orthonormal 3x3 matrix,
// re-orthonormalized on every Integrate call.
type Body struct {
	Position        mgl64.Vec3
	Momentum        mgl64.Vec3
	AngularMomentum mgl64.Vec3
	Orientation     mgl64.Mat3

	Mass    float64
	InvMass float64

	// InertiaBody holds the diagonal of the body-space inertia tensor.
	InertiaBody mgl64.Vec3

	// HalfExtents and Radius are the bounding shapes the geometry
	// provider hands over for each fragment; the engine never sees
	// vertex data.
	HalfExtents mgl64.Vec3
	Radius      float64

	force  mgl64.Vec3
	torque mgl64.Vec3

	invInertiaWorld mgl64.Mat3
}

// New builds a body at rest. Mass and inertia entries are clamped to
// small positive minimums.
func New(position mgl64.Vec3, mass float64, halfExtents mgl64.Vec3) Body {
	mass = math.Max(mass, MinMass)
	h := mgl64.Vec3{
		math.Max(halfExtents.X(), epsilon),
		math.Max(halfExtents.Y(), epsilon),
		math.Max(halfExtents.Z(), epsilon),
	}
	b := Body{
		Position:    position,
		Orientation: mgl64.Ident3(),
		Mass:        mass,
		InvMass:     1.0 / mass,
		HalfExtents: h,
		Radius:      h.Len(),
	}
	b.InertiaBody = BoxInertia(mass, h)
	b.invInertiaWorld = b.computeWorldInvInertia()
	return b
}

// BoxInertia returns the diagonal inertia of a solid box, clamped so
// the tensor stays invertible.
func BoxInertia(mass float64, halfExtents mgl64.Vec3) mgl64.Vec3 {
	x2 := 4 * halfExtents.X() * halfExtents.X()
	y2 := 4 * halfExtents.Y() * halfExtents.Y()
	z2 := 4 * halfExtents.Z() * halfExtents.Z()
	k := mass / 12.0
	return mgl64.Vec3{
		math.Max(k*(y2+z2), MinInertia),
		math.Max(k*(x2+z2), MinInertia),
		math.Max(k*(x2+y2), MinInertia),
	}
}

// AddForce accumulates a force for the next Integrate call.
func (b *Body) AddForce(f mgl64.Vec3) {
	b.force = b.force.Add(f)
}

// AddTorque accumulates a torque for the next Integrate call.
func (b *Body) AddTorque(t mgl64.Vec3) {
	b.torque = b.torque.Add(t)
}

// AddForceAt accumulates a force applied at world point p, contributing
// torque about the center of mass.
func (b *Body) AddForceAt(f, p mgl64.Vec3) {
	b.force = b.force.Add(f)
	b.torque = b.torque.Add(p.Sub(b.Position).Cross(f))
}

// AddImpulse changes momentum immediately. Used for instantaneous
// fracture and collision response.
func (b *Body) AddImpulse(j mgl64.Vec3) {
	b.Momentum = b.Momentum.Add(j)
}

// AddImpulseAt applies an impulse at world point p, also changing
// angular momentum.
func (b *Body) AddImpulseAt(j, p mgl64.Vec3) {
	b.Momentum = b.Momentum.Add(j)
	b.AngularMomentum = b.AngularMomentum.Add(p.Sub(b.Position).Cross(j))
}

// ClearAccumulators zeroes pending force and torque. The world calls
// this at the top of every tick so bodies that skip integration do not
// carry stale forces into the tick where they wake.
func (b *Body) ClearAccumulators() {
	b.force = mgl64.Vec3{}
	b.torque = mgl64.Vec3{}
}

func (b *Body) Velocity() mgl64.Vec3 {
	return b.Momentum.Mul(b.InvMass)
}

// SetVelocity rewrites momentum to match a target velocity. Contact
// resolution uses this for flush snapping.
func (b *Body) SetVelocity(v mgl64.Vec3) {
	b.Momentum = v.Mul(b.Mass)
}

func (b *Body) AngularVelocity() mgl64.Vec3 {
	return b.invInertiaWorld.Mul3x1(b.AngularMomentum)
}

// WorldInverseInertia returns R · I_body⁻¹ · Rᵗ as of the last step.
func (b *Body) WorldInverseInertia() mgl64.Mat3 {
	return b.invInertiaWorld
}

// Integrate advances the body by dt: momentum from accumulated
// force/torque, position from momentum, orientation from the
// first-order skew update R' = (I + Ω·dt)·R. The skew step drifts off
// the rotation group, so Gram-Schmidt runs every tick, not just when
// drift is detected. Accumulators are cleared at the end.
func (b *Body) Integrate(dt float64) {
	b.Momentum = b.Momentum.Add(b.force.Mul(dt))
	b.AngularMomentum = b.AngularMomentum.Add(b.torque.Mul(dt))

	b.Position = b.Position.Add(b.Momentum.Mul(b.InvMass * dt))

	if inv := b.computeWorldInvInertia(); matFinite(inv) {
		b.invInertiaWorld = inv
	}
	// else: fail closed, keep the previous inverse.

	omega := b.invInertiaWorld.Mul3x1(b.AngularMomentum)
	step := mgl64.Ident3().Add(skew(omega).Mul(dt))
	b.Orientation = Orthonormalize(step.Mul3(b.Orientation))

	b.force = mgl64.Vec3{}
	b.torque = mgl64.Vec3{}
}

func (b *Body) computeWorldInvInertia() mgl64.Mat3 {
	invDiag := mgl64.Vec3{
		1.0 / math.Max(b.InertiaBody.X(), MinInertia),
		1.0 / math.Max(b.InertiaBody.Y(), MinInertia),
		1.0 / math.Max(b.InertiaBody.Z(), MinInertia),
	}
	return b.Orientation.Mul3(mgl64.Diag3(invDiag)).Mul3(b.Orientation.Transpose())
}

// WorldAABB returns the axis-aligned bounds of the rotated box shape.
func (b *Body) WorldAABB() collide.AABB {
	h := absMat(b.Orientation).Mul3x1(b.HalfExtents)
	return collide.AABB{Min: b.Position.Sub(h), Max: b.Position.Add(h)}
}

// OBB returns the oriented box shape in world space.
func (b *Body) OBB() collide.OBB {
	return collide.OBB{
		Center:      b.Position,
		HalfExtents: b.HalfExtents,
		Rotation:    b.Orientation,
	}
}

// Orthonormalize rebuilds an orthonormal frame from m by Gram-Schmidt:
// normalize column 0, project it out of column 1 and normalize, then
// take the cross product for column 2.
func Orthonormalize(m mgl64.Mat3) mgl64.Mat3 {
	c0 := m.Col(0)
	if c0.Len() < epsilon {
		c0 = mgl64.Vec3{1, 0, 0}
	} else {
		c0 = c0.Normalize()
	}

	c1 := m.Col(1)
	c1 = c1.Sub(c0.Mul(c0.Dot(c1)))
	if c1.Len() < epsilon {
		c1 = perpendicular(c0)
	} else {
		c1 = c1.Normalize()
	}

	c2 := c0.Cross(c1)
	return mgl64.Mat3FromCols(c0, c1, c2)
}

// perpendicular returns a unit vector orthogonal to v, for rebuilding a
// frame when a column degenerates.
func perpendicular(v mgl64.Vec3) mgl64.Vec3 {
	ref := mgl64.Vec3{0, 1, 0}
	if math.Abs(v.Y()) > 0.9 {
		ref = mgl64.Vec3{1, 0, 0}
	}
	return v.Cross(ref).Normalize()
}

func skew(w mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{0, -w.Z(), w.Y()},
		mgl64.Vec3{w.Z(), 0, -w.X()},
		mgl64.Vec3{-w.Y(), w.X(), 0},
	)
}

func absMat(m mgl64.Mat3) mgl64.Mat3 {
	var out mgl64.Mat3
	for i := range m {
		out[i] = math.Abs(m[i])
	}
	return out
}

func matFinite(m mgl64.Mat3) bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
