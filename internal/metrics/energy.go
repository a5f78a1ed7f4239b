package metrics

import (
	"math"

	"github.com/san-kum/solarsim/internal/dynamo"
	"github.com/san-kum/solarsim/internal/physics"
)

// EnergyDrift tracks the largest relative departure of the system energy
// from its first observed value. The energy follows the snapshot's
// interaction topology.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	currentEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(s dynamo.Snapshot) {
	if !s.Finite() {
		return
	}
	energy := physics.Energy(s)
	if math.IsNaN(energy) || math.IsInf(energy, 0) {
		return
	}

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.currentEnergy = energy
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 { return e.maxDrift }

// Current is the most recently observed system energy.
func (e *EnergyDrift) Current() float64 { return e.currentEnergy }

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.currentEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// AngularMomentumDrift tracks the largest relative change of the total
// angular momentum vector about the origin.
type AngularMomentumDrift struct {
	initial  [3]float64
	norm     float64
	maxDrift float64
	samples  int
}

func NewAngularMomentumDrift() *AngularMomentumDrift {
	return &AngularMomentumDrift{}
}

func (a *AngularMomentumDrift) Name() string { return "angular_momentum_drift" }

func (a *AngularMomentumDrift) Observe(s dynamo.Snapshot) {
	if !s.Finite() {
		return
	}
	l := physics.TotalAngularMomentum(s.Bodies)
	if a.samples == 0 {
		a.initial = [3]float64{l.X, l.Y, l.Z}
		a.norm = math.Sqrt(l.X*l.X + l.Y*l.Y + l.Z*l.Z)
	}
	a.samples++
	if a.norm == 0 {
		return
	}
	dx, dy, dz := l.X-a.initial[0], l.Y-a.initial[1], l.Z-a.initial[2]
	a.maxDrift = math.Max(a.maxDrift, math.Sqrt(dx*dx+dy*dy+dz*dz)/a.norm)
}

func (a *AngularMomentumDrift) Value() float64 { return a.maxDrift }

func (a *AngularMomentumDrift) Reset() {
	a.initial = [3]float64{}
	a.norm = 0
	a.maxDrift = 0
	a.samples = 0
}
