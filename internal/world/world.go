// Package world orchestrates the simulation: a plain arena of rigid
// bodies, breakable constraint networks, a cached static obstacle
// registry, and the fixed-timestep tick that runs constraints,
// collision and integration in a fixed order. Everything here is
// single-threaded and cooperative; phase ordering, not locks, keeps
// the obstacle cache read-only during a tick.
package world

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/shatter/internal/body"
	"github.com/san-kum/shatter/internal/bond"
	"github.com/san-kum/shatter/internal/collide"
)

// ContactState is the per-body contact lifecycle:
// Falling → Colliding → {Sliding | Resting} → Falling.
type ContactState int

const (
	Falling ContactState = iota
	Colliding
	Sliding
	Resting
)

func (s ContactState) String() string {
	switch s {
	case Falling:
		return "falling"
	case Colliding:
		return "colliding"
	case Sliding:
		return "sliding"
	case Resting:
		return "resting"
	}
	return "unknown"
}

// RestingPolicy selects what a resting body does each tick.
type RestingPolicy int

const (
	// RestingTrack skips integration entirely and pins the body to the
	// top of its (possibly moving) support surface.
	RestingTrack RestingPolicy = iota
	// RestingDamped keeps integrating with heavy momentum damping.
	RestingDamped
)

// Config tunes the simulation. Zero values are not usable; start from
// DefaultConfig.
type Config struct {
	Gravity    mgl64.Vec3
	StepDt     float64
	MaxFrameDt float64

	Restitution   float64
	Friction      float64
	RestSpeed     float64
	SupportNormal float64 // min dot(normal, up) for a supporting contact
	Skin          float64 // flush-snap clearance above a support surface

	ScatterImpulse float64
	ScatterSpin    float64

	FractureGraceTicks   int
	ObstacleRefreshTicks int

	RestingPolicy  RestingPolicy
	RestingDamping float64

	Bond      bond.Params
	BondRange float64
}

func DefaultConfig() Config {
	return Config{
		Gravity:    mgl64.Vec3{0, -9.81, 0},
		StepDt:     1.0 / 60.0,
		MaxFrameDt: 0.25,

		Restitution:   0.0,
		Friction:      0.8,
		RestSpeed:     0.12,
		SupportNormal: 0.7,
		Skin:          1e-3,

		ScatterImpulse: 0.6,
		ScatterSpin:    0.25,

		FractureGraceTicks:   12,
		ObstacleRefreshTicks: 30,

		RestingPolicy:  RestingTrack,
		RestingDamping: 0.90,

		Bond: bond.Params{
			Stiffness:          1200,
			Damping:            8,
			BreakThreshold:     0.25,
			EnergyTransferRate: 0.9,
		},
		BondRange: 1.6,
	}
}

// World holds all simulation state. Bodies live in a flat arena and are
// addressed by index; fractured bodies stay in the arena as dead slots
// so indices remain stable.
type World struct {
	cfg Config

	bodies  []body.Body
	alive   []bool
	states  []ContactState
	support []int // supporting obstacle ID, or -1
	grace   []int // remaining self-collision grace ticks
	group   []int // fracture sibling group, or -1

	networks []*bond.Network

	source    ObstacleSource
	obstacles []Obstacle
	refreshIn int

	rng  *rand.Rand
	tick uint64
	acc  float64

	nextGroup int

	contacted []bool // scratch, per tick
}

// New creates an empty world. The seed drives every random decision
// (scatter impulses, fragment spin) so runs are reproducible.
func New(cfg Config, source ObstacleSource, seed int64) *World {
	w := &World{
		cfg:    cfg,
		source: source,
		rng:    rand.New(rand.NewSource(seed)),
	}
	w.refreshObstacles()
	return w
}

func (w *World) Config() Config { return w.cfg }
func (w *World) Tick() uint64   { return w.tick }
func (w *World) Time() float64  { return float64(w.tick) * w.cfg.StepDt }

// Spawn adds a body to the arena and returns its index.
func (w *World) Spawn(b body.Body) int {
	w.bodies = append(w.bodies, b)
	w.alive = append(w.alive, true)
	w.states = append(w.states, Falling)
	w.support = append(w.support, -1)
	w.grace = append(w.grace, 0)
	w.group = append(w.group, -1)
	return len(w.bodies) - 1
}

// Body returns the arena record for direct mutation (initial velocity,
// external impulses). Indices are stable for the lifetime of the world.
func (w *World) Body(i int) *body.Body { return &w.bodies[i] }

func (w *World) Alive(i int) bool         { return w.alive[i] }
func (w *World) State(i int) ContactState { return w.states[i] }
func (w *World) Len() int                 { return len(w.bodies) }

// Networks returns the constraint networks, one per fractured
// structure.
func (w *World) Networks() []*bond.Network { return w.networks }

// AttachNetwork registers an externally built network, e.g. a lattice
// from SpawnLattice.
func (w *World) AttachNetwork(n *bond.Network) {
	w.networks = append(w.networks, n)
}

// SpawnLattice creates a nx×ny×nz grid of identical bodies bonded to
// their face neighbors and returns the arena indices. Fragment grids
// use this instead of the quadratic proximity scan.
func (w *World) SpawnLattice(origin mgl64.Vec3, nx, ny, nz int, spacing, mass float64, halfExtents mgl64.Vec3) []int {
	base := len(w.bodies)
	ids := make([]int, 0, nx*ny*nz)
	for z := 0; z < nz; z++ {
		for y := 0; y < ny; y++ {
			for x := 0; x < nx; x++ {
				pos := origin.Add(mgl64.Vec3{
					float64(x) * spacing,
					float64(y) * spacing,
					float64(z) * spacing,
				})
				ids = append(ids, w.Spawn(body.New(pos, mass, halfExtents)))
			}
		}
	}
	w.AttachNetwork(bond.BuildGrid(w.bodies, base, nx, ny, nz, w.cfg.Bond))
	return ids
}

// Advance runs fixed catch-up steps for one host frame. The frame delta
// is clamped so a stalled host cannot trigger a spiral of death.
// Returns the number of physics steps taken.
func (w *World) Advance(frameDt float64) int {
	if frameDt <= 0 {
		return 0
	}
	if frameDt > w.cfg.MaxFrameDt {
		frameDt = w.cfg.MaxFrameDt
	}
	w.acc += frameDt
	steps := 0
	for w.acc >= w.cfg.StepDt {
		w.step(w.cfg.StepDt)
		w.acc -= w.cfg.StepDt
		steps++
	}
	return steps
}

// Step runs exactly one fixed physics step, bypassing catch-up
// accounting. Tests and the live view use it for deterministic
// stepping.
func (w *World) Step() {
	w.step(w.cfg.StepDt)
}

// step runs one tick to completion: external forces, constraints,
// broad then narrow phase, contact resolution, integration, resting
// bookkeeping. It never pauses on a fault; degenerate math fails
// closed further down.
func (w *World) step(dt float64) {
	if w.refreshIn <= 0 {
		w.refreshObstacles()
		w.refreshIn = w.cfg.ObstacleRefreshTicks
	}
	w.refreshIn--

	if cap(w.contacted) < len(w.bodies) {
		w.contacted = make([]bool, len(w.bodies))
	}
	w.contacted = w.contacted[:len(w.bodies)]
	for i := range w.contacted {
		w.contacted[i] = false
	}

	// Accumulators are cleared up front, not just on integration:
	// bodies skipped by the resting policy would otherwise stockpile
	// bond forces tick after tick and fire the backlog when they wake.
	for i := range w.bodies {
		w.bodies[i].ClearAccumulators()
	}

	// External forces. Resting bodies under the tracking policy are
	// short-circuited entirely.
	for i := range w.bodies {
		if !w.alive[i] || w.skipsIntegration(i) {
			continue
		}
		w.bodies[i].AddForce(w.cfg.Gravity.Mul(w.bodies[i].Mass))
	}

	for _, n := range w.networks {
		n.Step(w.bodies)
	}

	w.collideBodies()
	w.collideObstacles(dt)

	for i := range w.bodies {
		if !w.alive[i] || w.skipsIntegration(i) {
			continue
		}
		if w.states[i] == Resting && w.cfg.RestingPolicy == RestingDamped {
			w.bodies[i].Momentum = w.bodies[i].Momentum.Mul(w.cfg.RestingDamping)
			w.bodies[i].AngularMomentum = w.bodies[i].AngularMomentum.Mul(w.cfg.RestingDamping)
		}
		w.bodies[i].Integrate(dt)
	}

	w.trackResting()

	// Contact states decay back to Falling when nothing touched the
	// body this tick. Resting persists; it wakes via support tracking.
	for i := range w.bodies {
		if !w.alive[i] || w.states[i] == Resting {
			continue
		}
		if !w.contacted[i] {
			w.states[i] = Falling
		}
	}

	for i := range w.grace {
		if w.grace[i] > 0 {
			w.grace[i]--
		}
	}
	w.tick++
}

func (w *World) skipsIntegration(i int) bool {
	return w.states[i] == Resting && w.cfg.RestingPolicy == RestingTrack
}

// collideBodies runs sweep-and-prune over live body AABBs and resolves
// each OBB pair the narrow phase confirms. Sibling fragments within
// their post-fracture grace window are skipped to suppress the false
// positives of initially overlapping fragments.
func (w *World) collideBodies() {
	idx := make([]int, 0, len(w.bodies))
	boxes := make([]collide.AABB, 0, len(w.bodies))
	for i := range w.bodies {
		if !w.alive[i] {
			continue
		}
		idx = append(idx, i)
		boxes = append(boxes, w.bodies[i].WorldAABB())
	}
	if len(boxes) < 2 {
		return
	}

	for _, p := range collide.SweepAndPrune(boxes) {
		a, b := idx[p.A], idx[p.B]
		if w.inGrace(a, b) {
			continue
		}
		contact, hit := collide.OBBVsOBB(w.bodies[a].OBB(), w.bodies[b].OBB())
		if !hit {
			continue
		}
		w.resolvePair(a, b, contact)
	}
}

func (w *World) inGrace(a, b int) bool {
	if w.group[a] < 0 || w.group[a] != w.group[b] {
		return false
	}
	return w.grace[a] > 0 || w.grace[b] > 0
}
