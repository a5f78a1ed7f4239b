package dynamo

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// BodyID is a stable handle assigned to a body when it joins a system.
type BodyID uint32

type Role int

const (
	Orbiting Role = iota
	Central
)

func (r Role) String() string {
	switch r {
	case Central:
		return "central"
	case Orbiting:
		return "orbiting"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

type Method int

const (
	Euler Method = iota
	Leapfrog
)

var methodNames = map[Method]string{
	Euler:    "Euler",
	Leapfrog: "Leapfrog",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("method(%d)", int(m))
}

func (m Method) Valid() bool {
	_, ok := methodNames[m]
	return ok
}

// ParseMethod accepts the method names case-insensitively.
func ParseMethod(name string) (Method, error) {
	for m, n := range methodNames {
		if strings.EqualFold(strings.TrimSpace(name), n) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// Topology selects which bodies exert gravity during a kick.
type Topology int

const (
	// Full applies gravity from every body to every other body.
	Full Topology = iota
	// CentralOnly applies gravity from the central body to every other body.
	CentralOnly
)

func (t Topology) String() string {
	switch t {
	case Full:
		return "full"
	case CentralOnly:
		return "central"
	}
	return fmt.Sprintf("topology(%d)", int(t))
}

func ParseTopology(name string) (Topology, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "full", "":
		return Full, nil
	case "central", "central-only", "central_only":
		return CentralOnly, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTopology, name)
}

// Stepper is the view of a system an integrator drives. Drift moves
// positions, Kick updates velocities from the active interaction topology.
type Stepper interface {
	Drift(dt float64)
	Kick(dt float64)
}

type Integrator interface {
	Name() string
	Step(s Stepper, dt float64)
}

// Diagnostics are the derived per-body quantities recomputed after each step.
type Diagnostics struct {
	AngularMomentum r3.Vec
	Kinetic         float64
	Potential       float64
	Total           float64
	Valid           bool
}

// BodyState is an immutable copy of one body after a step.
type BodyState struct {
	ID          BodyID
	Role        Role
	Mass        float64
	Position    r3.Vec
	Velocity    r3.Vec
	Diagnostics Diagnostics
}

// Snapshot is the post-step state handed to observers and renderers.
type Snapshot struct {
	Step     int
	Time     float64
	Topology Topology
	Bodies   []BodyState
}

// Finite reports whether every position and velocity in the snapshot is finite.
func (s Snapshot) Finite() bool {
	for _, b := range s.Bodies {
		if !FiniteVec(b.Position) || !FiniteVec(b.Velocity) {
			return false
		}
	}
	return true
}

// Body returns the state of the body with the given id.
func (s Snapshot) Body(id BodyID) (BodyState, bool) {
	for _, b := range s.Bodies {
		if b.ID == id {
			return b, true
		}
	}
	return BodyState{}, false
}

func FiniteVec(v r3.Vec) bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(s Snapshot)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) OnStep(s Snapshot) { f(s) }

type Config struct {
	Method        Method
	Topology      Topology
	Dt            float64
	Steps         int
	Seed          int64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Method:        Euler,
		Topology:      Full,
		Dt:            1.0,
		Steps:         1200,
		ValidateState: true,
	}
}

func (c Config) Validate() error {
	if !c.Method.Valid() {
		return fmt.Errorf("%w: %v", ErrUnknownMethod, c.Method)
	}
	if c.Topology != Full && c.Topology != CentralOnly {
		return fmt.Errorf("%w: %v", ErrUnknownTopology, c.Topology)
	}
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidTimeStep, c.Dt)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	}
	return nil
}
