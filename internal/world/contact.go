package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/shatter/internal/collide"
)

var up = mgl64.Vec3{0, 1, 0}

// Pair penetration is corrected gradually: a slop margin is ignored and
// only a fraction of the rest resolves per tick. Full-depth correction
// would teleport deeply stacked bodies apart in one step and feed the
// jump straight into the bond network as deformation.
const (
	pairCorrection = 0.2
	pairSlop       = 0.01
)

// resolvePair applies positional correction and a restitution impulse
// between two dynamic bodies. The contact normal points from a toward
// b. A resting body hit by another body wakes up.
func (w *World) resolvePair(a, b int, c collide.Contact) {
	ba, bb := &w.bodies[a], &w.bodies[b]
	w.contacted[a] = true
	w.contacted[b] = true

	invSum := ba.InvMass + bb.InvMass
	if invSum < 1e-12 {
		return
	}

	// Split the corrected share of the penetration by inverse mass.
	depth := math.Max(c.Depth-pairSlop, 0)
	corr := c.Normal.Mul(depth * pairCorrection / invSum)
	ba.Position = ba.Position.Sub(corr.Mul(ba.InvMass))
	bb.Position = bb.Position.Add(corr.Mul(bb.InvMass))

	vrel := bb.Velocity().Sub(ba.Velocity())
	vn := vrel.Dot(c.Normal)
	if vn >= 0 {
		return // already separating
	}

	j := -(1 + w.cfg.Restitution) * vn / invSum
	impulse := c.Normal.Mul(j)
	ba.AddImpulseAt(impulse.Mul(-1), c.Point)
	bb.AddImpulseAt(impulse, c.Point)

	w.wakeOnContact(a)
	w.wakeOnContact(b)
}

func (w *World) wakeOnContact(i int) {
	if w.states[i] == Resting {
		w.states[i] = Colliding
		w.support[i] = -1
	} else if w.states[i] == Falling {
		w.states[i] = Colliding
	}
}

// collideObstacles tests every live body's bounding sphere against the
// cached static obstacle boxes and resolves supporting or glancing
// contacts per the resting state machine.
func (w *World) collideObstacles(dt float64) {
	for i := range w.bodies {
		if !w.alive[i] || w.skipsIntegration(i) {
			continue
		}
		box := w.bodies[i].WorldAABB()
		for k := range w.obstacles {
			ob := &w.obstacles[k]
			if !box.Overlaps(ob.Box) {
				continue
			}
			contact, hit := collide.SphereVsAABB(w.bodies[i].Position, w.bodies[i].Radius, ob.Box)
			if !hit {
				continue
			}
			w.resolveObstacle(i, contact, ob, dt)
		}
	}
}

// resolveObstacle implements the Falling → Colliding → {Sliding |
// Resting} transitions against a static surface. Near-horizontal
// contacts snap flush to the surface top so bodies never hover a
// penetration depth above it; the normal velocity component is zeroed
// or restitution-reflected; tangential speed decays with a clamped
// friction that never reverses direction.
func (w *World) resolveObstacle(i int, c collide.Contact, ob *Obstacle, dt float64) {
	b := &w.bodies[i]
	w.contacted[i] = true

	supporting := c.Normal.Dot(up) > w.cfg.SupportNormal

	if supporting && c.Normal.Y() > 0.999 {
		// Flush snap on a flat top surface.
		b.Position[1] = ob.Box.Max.Y() + b.HalfExtents.Y() + w.cfg.Skin
	} else {
		b.Position = b.Position.Add(c.Normal.Mul(c.Depth))
	}

	v := b.Velocity()
	vn := v.Dot(c.Normal)
	if vn < 0 {
		v = v.Sub(c.Normal.Mul((1 + w.cfg.Restitution) * vn))
	}

	if !supporting {
		b.SetVelocity(v)
		if w.states[i] != Resting {
			w.states[i] = Colliding
		}
		return
	}

	// Coulomb-like tangential decay, clamped at zero.
	vnNew := v.Dot(c.Normal)
	vt := v.Sub(c.Normal.Mul(vnNew))
	tangential := vt.Len()
	if tangential > 1e-12 {
		decel := w.cfg.Friction * w.cfg.Gravity.Len() * dt
		scaled := math.Max(0, tangential-decel)
		vt = vt.Mul(scaled / tangential)
		tangential = scaled
	}
	v = c.Normal.Mul(vnNew).Add(vt)
	b.SetVelocity(v)
	b.AngularMomentum = b.AngularMomentum.Mul(math.Max(0, 1-w.cfg.Friction*dt))

	switch {
	case v.Len() < w.cfg.RestSpeed && tangential < w.cfg.RestSpeed:
		w.states[i] = Resting
		w.support[i] = ob.ID
		b.Momentum = mgl64.Vec3{}
		b.AngularMomentum = mgl64.Vec3{}
		if c.Normal.Y() > 0.999 {
			b.Position[1] = ob.Box.Max.Y() + b.HalfExtents.Y() + w.cfg.Skin
		}
	case tangential >= w.cfg.RestSpeed:
		w.states[i] = Sliding
	default:
		w.states[i] = Colliding
	}
}

// trackResting pins resting bodies to their support surface instead of
// re-integrating them, and wakes any body whose support vanished or
// slid out from under it.
func (w *World) trackResting() {
	if w.cfg.RestingPolicy != RestingTrack {
		return
	}
	for i := range w.bodies {
		if !w.alive[i] || w.states[i] != Resting {
			continue
		}
		ob := w.obstacleByID(w.support[i])
		if ob == nil || !w.horizontalOverlap(i, ob) {
			w.states[i] = Falling
			w.support[i] = -1
			continue
		}
		w.bodies[i].Position[1] = ob.Box.Max.Y() + w.bodies[i].HalfExtents.Y() + w.cfg.Skin
	}
}

func (w *World) horizontalOverlap(i int, ob *Obstacle) bool {
	box := w.bodies[i].WorldAABB()
	return box.Max.X() >= ob.Box.Min.X() && box.Min.X() <= ob.Box.Max.X() &&
		box.Max.Z() >= ob.Box.Min.Z() && box.Min.Z() <= ob.Box.Max.Z()
}
