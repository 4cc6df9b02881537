package world

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/shatter/internal/body"
	"github.com/san-kum/shatter/internal/bond"
)

// FragmentSpec is what the geometry provider (mesh slicer) hands over
// per fragment. The engine only sees bounding data, never vertices.
type FragmentSpec struct {
	Offset      mgl64.Vec3 // local center offset from the parent's center
	Mass        float64
	HalfExtents mgl64.Vec3
	Radius      float64 // bounding-sphere override, 0 = derive from extents
}

// Fracture replaces the body at parent with independently simulated
// fragments linked by a proximity-built constraint network. Fragments
// inherit the parent's orientation and the rigid velocity field
// v + ω×r, plus a seeded outward scatter impulse and spin. Sibling
// collisions are suppressed for a short grace period because fresh
// fragments overlap each other. Returns the new arena indices.
func (w *World) Fracture(parent int, frags []FragmentSpec) []int {
	p := w.bodies[parent]
	w.alive[parent] = false
	w.states[parent] = Falling

	groupID := w.nextGroup
	w.nextGroup++

	vel := p.Velocity()
	omega := p.AngularVelocity()

	ids := make([]int, 0, len(frags))
	for _, f := range frags {
		r := p.Orientation.Mul3x1(f.Offset)
		b := body.New(p.Position.Add(r), f.Mass, f.HalfExtents)
		b.Orientation = p.Orientation
		if f.Radius > 0 {
			b.Radius = f.Radius
		}
		b.SetVelocity(vel.Add(omega.Cross(r)))

		// Seeded scatter: outward along the fragment offset when it
		// has one, otherwise a random direction.
		dir := r
		if dir.Len() < 1e-9 {
			dir = w.randomUnit()
		} else {
			dir = dir.Normalize()
		}
		jitter := w.randomUnit().Mul(0.35)
		b.AddImpulse(dir.Add(jitter).Mul(w.cfg.ScatterImpulse * b.Mass))
		b.AngularMomentum = w.randomUnit().Mul(w.cfg.ScatterSpin * b.Mass)

		i := w.Spawn(b)
		w.grace[i] = w.cfg.FractureGraceTicks
		w.group[i] = groupID
		ids = append(ids, i)
	}

	w.AttachNetwork(bond.BuildFromProximity(w.bodies, ids, w.cfg.BondRange, w.cfg.Bond))
	return ids
}

// randomUnit draws a uniformly distributed unit vector from the
// world's seeded source.
func (w *World) randomUnit() mgl64.Vec3 {
	z := 2*w.rng.Float64() - 1
	theta := 2 * math.Pi * w.rng.Float64()
	r := math.Sqrt(math.Max(0, 1-z*z))
	return mgl64.Vec3{r * math.Cos(theta), r * math.Sin(theta), z}
}
