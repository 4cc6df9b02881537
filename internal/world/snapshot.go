package world

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/shatter/internal/collide"
)

// Snapshot is a read-only copy of observable simulation state for
// debug and visualization consumers. There is deliberately no mutation
// path back into the world.
type Snapshot struct {
	Tick   uint64         `json:"tick"`
	Time   float64        `json:"time"`
	Bodies []BodyState    `json:"bodies"`
	Bonds  []BondState    `json:"bonds"`
	Boxes  []ObstacleView `json:"obstacles"`
}

type BodyState struct {
	Index       int          `json:"index"`
	Position    mgl64.Vec3   `json:"position"`
	Orientation mgl64.Mat3   `json:"orientation"`
	Velocity    mgl64.Vec3   `json:"velocity"`
	State       string       `json:"state"`
	AABB        collide.AABB `json:"aabb"`
}

type BondState struct {
	A       int     `json:"a"`
	B       int     `json:"b"`
	Stretch float64 `json:"stretch"` // |deformation| / restLength
}

type ObstacleView struct {
	ID     int          `json:"id"`
	Box    collide.AABB `json:"box"`
	Ground bool         `json:"ground"`
}

// Snapshot copies the current world state.
func (w *World) Snapshot() Snapshot {
	s := Snapshot{Tick: w.tick, Time: w.Time()}
	for i := range w.bodies {
		if !w.alive[i] {
			continue
		}
		b := &w.bodies[i]
		s.Bodies = append(s.Bodies, BodyState{
			Index:       i,
			Position:    b.Position,
			Orientation: b.Orientation,
			Velocity:    b.Velocity(),
			State:       w.states[i].String(),
			AABB:        b.WorldAABB(),
		})
	}
	for _, n := range w.networks {
		for _, bd := range n.Live() {
			length := w.bodies[bd.B].Position.Sub(w.bodies[bd.A].Position).Len()
			stretch := 0.0
			if bd.RestLength > 0 {
				stretch = (length - bd.RestLength) / bd.RestLength
				if stretch < 0 {
					stretch = -stretch
				}
			}
			s.Bonds = append(s.Bonds, BondState{A: bd.A, B: bd.B, Stretch: stretch})
		}
	}
	for _, ob := range w.obstacles {
		s.Boxes = append(s.Boxes, ObstacleView{ID: ob.ID, Box: ob.Box, Ground: ob.Ground})
	}
	return s
}

// Momentum sums linear momentum over live bodies.
func (w *World) Momentum() mgl64.Vec3 {
	var total mgl64.Vec3
	for i := range w.bodies {
		if w.alive[i] {
			total = total.Add(w.bodies[i].Momentum)
		}
	}
	return total
}

// KineticEnergy sums translational kinetic energy over live bodies.
func (w *World) KineticEnergy() float64 {
	total := 0.0
	for i := range w.bodies {
		if !w.alive[i] {
			continue
		}
		v := w.bodies[i].Velocity()
		total += 0.5 * w.bodies[i].Mass * v.Dot(v)
	}
	return total
}

// LiveBonds counts unbroken bonds across all networks.
func (w *World) LiveBonds() int {
	n := 0
	for _, net := range w.networks {
		n += len(net.Live())
	}
	return n
}

// RestingCount counts bodies currently in the resting state.
func (w *World) RestingCount() int {
	n := 0
	for i := range w.bodies {
		if w.alive[i] && w.states[i] == Resting {
			n++
		}
	}
	return n
}

// LiveCount counts bodies still simulated.
func (w *World) LiveCount() int {
	n := 0
	for i := range w.alive {
		if w.alive[i] {
			n++
		}
	}
	return n
}
