package physics

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/solarsim/internal/dynamo"
)

// Body is a point mass. Mass and role are fixed at construction; the ID is
// assigned by the system the body is added to.
type Body struct {
	ID       dynamo.BodyID
	Mass     float64
	Position r3.Vec
	Velocity r3.Vec
	Role     dynamo.Role

	// Diagnostics are only meaningful for orbiting bodies after a step.
	Diagnostics dynamo.Diagnostics

	owner *System
}

// NewBody creates a body that does not yet belong to a system.
func NewBody(mass float64, position, velocity r3.Vec, role dynamo.Role) *Body {
	return &Body{
		Mass:     mass,
		Position: position,
		Velocity: velocity,
		Role:     role,
	}
}

func (b *Body) IsCentral() bool { return b.Role == dynamo.Central }

// System returns the system owning the body, or nil before it is added.
func (b *Body) System() *System { return b.owner }

// AdvancePosition translates an orbiting body by its velocity. Central
// bodies never move, even though their velocity may change under the full
// interaction topology.
func (b *Body) AdvancePosition(dt float64) {
	if b.Role == dynamo.Central {
		return
	}
	b.Position = r3.Add(b.Position, r3.Scale(dt, b.Velocity))
}

// ApplyGravityFrom kicks the receiver's velocity towards other. Only the
// receiver is updated. Coincident positions yield NaN or Inf components.
func (b *Body) ApplyGravityFrom(other *Body, dt float64) {
	relative := r3.Sub(other.Position, b.Position)
	distance := r3.Norm(relative)
	direction := r3.Scale(1/distance, relative)
	acceleration := r3.Scale(other.Mass/(distance*distance), direction)
	b.Velocity = r3.Add(b.Velocity, r3.Scale(dt, acceleration))
}

func (b *Body) state() dynamo.BodyState {
	return dynamo.BodyState{
		ID:          b.ID,
		Role:        b.Role,
		Mass:        b.Mass,
		Position:    b.Position,
		Velocity:    b.Velocity,
		Diagnostics: b.Diagnostics,
	}
}
