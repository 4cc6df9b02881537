// Package metrics provides per-run observers over the simulation.
// A metric sees the world after every tick and reduces to one number.
package metrics

import (
	"math"

	"github.com/san-kum/shatter/internal/world"
)

type Metric interface {
	Name() string
	Observe(w *world.World)
	Value() float64
	Reset()
}

// MomentumDrift tracks the worst-case deviation of total linear
// momentum from its initial value. With no external forces and no
// ruptures it should stay near zero.
type MomentumDrift struct {
	initial  float64
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift { return &MomentumDrift{} }

func (m *MomentumDrift) Name() string { return "momentum_drift" }

func (m *MomentumDrift) Observe(w *world.World) {
	p := w.Momentum().Len()
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++
	drift := math.Abs(p - m.initial)
	if m.initial > 1e-12 {
		drift /= m.initial
	}
	m.maxDrift = math.Max(m.maxDrift, drift)
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() { *m = MomentumDrift{} }

// KineticEnergy reports the mean translational kinetic energy over the
// run.
type KineticEnergy struct {
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy { return &KineticEnergy{} }

func (m *KineticEnergy) Name() string { return "kinetic_energy_mean" }

func (m *KineticEnergy) Observe(w *world.World) {
	m.total += w.KineticEnergy()
	m.samples++
}

func (m *KineticEnergy) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *KineticEnergy) Reset() { *m = KineticEnergy{} }

// LiveBonds reports the surviving bond count at the end of the run.
type LiveBonds struct {
	last int
}

func NewLiveBonds() *LiveBonds { return &LiveBonds{} }

func (m *LiveBonds) Name() string { return "live_bonds" }

func (m *LiveBonds) Observe(w *world.World) { m.last = w.LiveBonds() }

func (m *LiveBonds) Value() float64 { return float64(m.last) }

func (m *LiveBonds) Reset() { m.last = 0 }

// RestFraction reports the final fraction of live bodies at rest.
type RestFraction struct {
	value float64
}

func NewRestFraction() *RestFraction { return &RestFraction{} }

func (m *RestFraction) Name() string { return "rest_fraction" }

func (m *RestFraction) Observe(w *world.World) {
	live := w.LiveCount()
	if live == 0 {
		m.value = 0
		return
	}
	m.value = float64(w.RestingCount()) / float64(live)
}

func (m *RestFraction) Value() float64 { return m.value }

func (m *RestFraction) Reset() { m.value = 0 }

// Defaults is the standard metric set attached by the CLI.
func Defaults() []Metric {
	return []Metric{
		NewMomentumDrift(),
		NewKineticEnergy(),
		NewLiveBonds(),
		NewRestFraction(),
	}
}
