package integrators

import "github.com/san-kum/solarsim/internal/dynamo"

// Euler is the semi-implicit variant: positions move with the current
// velocities, then velocities are kicked from the new positions.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return dynamo.Euler.String() }

func (e *Euler) Step(s dynamo.Stepper, dt float64) {
	s.Drift(dt)
	s.Kick(dt)
}
