package physics

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/solarsim/internal/dynamo"
)

// computeDiagnostics refreshes the derived quantities of every orbiting
// body. Central bodies are skipped and keep whatever they held before.
//
// Potential is a per-body readout: each pair contributes to both of its
// bodies, so summing Potential over bodies counts every pair twice. Use
// SystemEnergy for the whole-system total.
func (s *System) computeDiagnostics() {
	for _, b := range s.bodies {
		if b.Role == dynamo.Central {
			continue
		}
		b.Diagnostics = Diagnose(b, s.bodies)
	}
}

// Diagnose computes the diagnostics of b against the given bodies. Angular
// momentum is taken about the global origin.
func Diagnose(b *Body, bodies []*Body) dynamo.Diagnostics {
	speed := r3.Norm(b.Velocity)
	d := dynamo.Diagnostics{
		AngularMomentum: r3.Cross(b.Position, b.Velocity),
		Kinetic:         0.5 * b.Mass * speed * speed,
		Valid:           true,
	}
	for _, other := range bodies {
		if other.ID == b.ID {
			continue
		}
		d.Potential -= b.Mass * other.Mass / r3.Norm(r3.Sub(other.Position, b.Position))
	}
	d.Total = d.Kinetic + d.Potential
	return d
}

// SystemEnergy is the total kinetic energy of all bodies plus the potential
// of every unordered pair counted once.
func SystemEnergy(bodies []dynamo.BodyState) float64 {
	ke, pe := 0.0, 0.0
	for i, bi := range bodies {
		speed := r3.Norm(bi.Velocity)
		ke += 0.5 * bi.Mass * speed * speed
		for j := i + 1; j < len(bodies); j++ {
			bj := bodies[j]
			pe -= bi.Mass * bj.Mass / r3.Norm(r3.Sub(bj.Position, bi.Position))
		}
	}
	return ke + pe
}

// TotalAngularMomentum sums m·(r × v) over all bodies about the origin.
func TotalAngularMomentum(bodies []dynamo.BodyState) r3.Vec {
	var l r3.Vec
	for _, b := range bodies {
		l = r3.Add(l, r3.Scale(b.Mass, r3.Cross(b.Position, b.Velocity)))
	}
	return l
}

// CentralEnergy is the energy conserved by central-only stepping: the
// kinetic energy of every body but the first central one plus each such
// body's potential against that central body. Without a central body it
// falls back to SystemEnergy.
func CentralEnergy(bodies []dynamo.BodyState) float64 {
	c := -1
	for i, b := range bodies {
		if b.Role == dynamo.Central {
			c = i
			break
		}
	}
	if c < 0 {
		return SystemEnergy(bodies)
	}
	central := bodies[c]
	e := 0.0
	for i, b := range bodies {
		if i == c {
			continue
		}
		speed := r3.Norm(b.Velocity)
		e += 0.5*b.Mass*speed*speed - b.Mass*central.Mass/r3.Norm(r3.Sub(central.Position, b.Position))
	}
	return e
}

// Energy picks the energy that matches the snapshot's interaction topology.
func Energy(s dynamo.Snapshot) float64 {
	if s.Topology == dynamo.CentralOnly {
		return CentralEnergy(s.Bodies)
	}
	return SystemEnergy(s.Bodies)
}
