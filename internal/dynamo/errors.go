package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidTimeStep indicates a non-positive or non-finite time increment.
	ErrInvalidTimeStep = errors.New("dynamo: time step must be positive")

	// ErrUnknownMethod indicates an integrator name other than Euler or Leapfrog.
	ErrUnknownMethod = errors.New("dynamo: unknown integration method")

	// ErrUnknownTopology indicates an interaction topology that is not supported.
	ErrUnknownTopology = errors.New("dynamo: unknown interaction topology")

	// ErrNoCentralBody indicates a central-only step on a system without a central body.
	ErrNoCentralBody = errors.New("dynamo: no central body in system")

	// ErrNoBodies indicates a system or configuration without bodies.
	ErrNoBodies = errors.New("dynamo: system has no bodies")

	// ErrSystemStarted indicates a body was added after stepping began.
	ErrSystemStarted = errors.New("dynamo: cannot add bodies after the first step")

	// ErrBodyOwned indicates a body already belongs to another system.
	ErrBodyOwned = errors.New("dynamo: body already belongs to a system")

	// ErrInvalidState indicates non-finite positions or velocities.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

// StepError wraps an error with the step at which it was detected.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
