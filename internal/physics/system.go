package physics

import (
	"fmt"
	"math"

	"github.com/kamstrup/intmap"

	"github.com/san-kum/solarsim/internal/dynamo"
	"github.com/san-kum/solarsim/internal/integrators"
)

// System owns an ordered set of bodies and advances them with a fixed
// integration method and time step.
type System struct {
	bodies     []*Body
	slots      *intmap.Map[dynamo.BodyID, int]
	method     dynamo.Method
	integrator dynamo.Integrator
	dt         float64
	steps      int
	time       float64
	observers  []dynamo.Observer
}

// NewSystem validates the method and time step and returns an empty system.
func NewSystem(method dynamo.Method, dt float64) (*System, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return nil, fmt.Errorf("%w: got %v", dynamo.ErrInvalidTimeStep, dt)
	}
	integ, err := integrators.For(method)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", err, method)
	}
	return &System{
		bodies:     make([]*Body, 0, 8),
		slots:      intmap.New[dynamo.BodyID, int](8),
		method:     method,
		integrator: integ,
		dt:         dt,
		observers:  make([]dynamo.Observer, 0),
	}, nil
}

func (s *System) Method() dynamo.Method { return s.method }
func (s *System) Dt() float64           { return s.dt }
func (s *System) Steps() int            { return s.steps }
func (s *System) Time() float64         { return s.time }
func (s *System) Len() int              { return len(s.bodies) }

// Bodies returns the bodies in insertion order. The slice must not be modified.
func (s *System) Bodies() []*Body { return s.bodies }

func (s *System) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Add assigns the next id to b and appends it. Bodies cannot be added once
// stepping has started, and a body belongs to a single system for life.
func (s *System) Add(b *Body) (dynamo.BodyID, error) {
	if b.owner != nil {
		return 0, dynamo.ErrBodyOwned
	}
	if s.steps > 0 {
		return 0, dynamo.ErrSystemStarted
	}
	id := dynamo.BodyID(len(s.bodies))
	b.ID = id
	b.owner = s
	s.slots.Put(id, len(s.bodies))
	s.bodies = append(s.bodies, b)
	return id, nil
}

// Body looks a body up by id.
func (s *System) Body(id dynamo.BodyID) (*Body, bool) {
	slot, ok := s.slots.Get(id)
	if !ok {
		return nil, false
	}
	return s.bodies[slot], true
}

// Central returns the first central body by insertion order.
func (s *System) Central() (*Body, bool) {
	for _, b := range s.bodies {
		if b.Role == dynamo.Central {
			return b, true
		}
	}
	return nil, false
}

// Step advances one step with every body attracting every other body.
func (s *System) Step() (dynamo.Snapshot, error) {
	return s.StepWith(dynamo.Full)
}

// StepCentralOnly advances one step in which only the central body exerts
// gravity. The central body itself receives no kick.
func (s *System) StepCentralOnly() (dynamo.Snapshot, error) {
	return s.StepWith(dynamo.CentralOnly)
}

func (s *System) StepWith(topology dynamo.Topology) (dynamo.Snapshot, error) {
	var st dynamo.Stepper
	switch topology {
	case dynamo.Full:
		st = fullInteraction{s}
	case dynamo.CentralOnly:
		central, ok := s.Central()
		if !ok {
			return dynamo.Snapshot{}, dynamo.ErrNoCentralBody
		}
		st = centralInteraction{s, central}
	default:
		return dynamo.Snapshot{}, fmt.Errorf("%w: %v", dynamo.ErrUnknownTopology, topology)
	}

	s.integrator.Step(st, s.dt)
	s.computeDiagnostics()
	s.steps++
	s.time += s.dt

	snap := s.Snapshot(topology)
	for _, o := range s.observers {
		o.OnStep(snap)
	}
	return snap, nil
}

// Snapshot copies the current state of every body.
func (s *System) Snapshot(topology dynamo.Topology) dynamo.Snapshot {
	snap := dynamo.Snapshot{
		Step:     s.steps,
		Time:     s.time,
		Topology: topology,
		Bodies:   make([]dynamo.BodyState, len(s.bodies)),
	}
	for i, b := range s.bodies {
		snap.Bodies[i] = b.state()
	}
	return snap
}

// Valid reports whether all positions and velocities are finite.
func (s *System) Valid() bool {
	for _, b := range s.bodies {
		if !dynamo.FiniteVec(b.Position) || !dynamo.FiniteVec(b.Velocity) {
			return false
		}
	}
	return true
}

func (s *System) drift(dt float64) {
	for _, b := range s.bodies {
		b.AdvancePosition(dt)
	}
}

type fullInteraction struct{ s *System }

func (f fullInteraction) Drift(dt float64) { f.s.drift(dt) }

func (f fullInteraction) Kick(dt float64) {
	for _, receiver := range f.s.bodies {
		for _, source := range f.s.bodies {
			if receiver.ID == source.ID {
				continue
			}
			receiver.ApplyGravityFrom(source, dt)
		}
	}
}

type centralInteraction struct {
	s       *System
	central *Body
}

func (c centralInteraction) Drift(dt float64) { c.s.drift(dt) }

func (c centralInteraction) Kick(dt float64) {
	for _, b := range c.s.bodies {
		if b.ID == c.central.ID {
			continue
		}
		b.ApplyGravityFrom(c.central, dt)
	}
}
