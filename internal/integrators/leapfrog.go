package integrators

import "github.com/san-kum/solarsim/internal/dynamo"

// Leapfrog is drift-kick-drift: the full-step kick is evaluated at the
// half-advanced positions.
type Leapfrog struct{}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Name() string { return dynamo.Leapfrog.String() }

func (l *Leapfrog) Step(s dynamo.Stepper, dt float64) {
	halfDt := dt * 0.5
	s.Drift(halfDt)
	s.Kick(dt)
	s.Drift(halfDt)
}

// For returns the integrator implementing the given method.
func For(m dynamo.Method) (dynamo.Integrator, error) {
	switch m {
	case dynamo.Euler:
		return NewEuler(), nil
	case dynamo.Leapfrog:
		return NewLeapfrog(), nil
	}
	return nil, dynamo.ErrUnknownMethod
}
