package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/solarsim/internal/dynamo"
)

const (
	DefaultDt          = 1.0
	DefaultSteps       = 1200
	DefaultMethod      = "Euler"
	DefaultTopology    = "full"
	DefaultCentralMass = 1000.0
	// MaxFormBodies is the largest hand-entered system; bigger ones only warn.
	MaxFormBodies = 6
	MaxScatter    = 10
)

type Config struct {
	Name          string         `yaml:"name"`
	Method        string         `yaml:"method"`
	Topology      string         `yaml:"topology"`
	Dt            float64        `yaml:"dt"`
	Steps         int            `yaml:"steps"`
	Seed          int64          `yaml:"seed"`
	ValidateState bool           `yaml:"validate_state"`
	AutoOrbit     bool           `yaml:"auto_orbit,omitempty"`
	Bodies        []BodyConfig   `yaml:"bodies,omitempty"`
	Scatter       *ScatterConfig `yaml:"scatter,omitempty"`
}

// BodyConfig describes one body. The first body is always the central one.
type BodyConfig struct {
	Mass     float64    `yaml:"mass"`
	Position [3]float64 `yaml:"position,flow"`
	Velocity [3]float64 `yaml:"velocity,flow"`
}

// ScatterConfig describes a batch of equal planets launched from the same
// point in random directions around a fixed central mass.
type ScatterConfig struct {
	Count       int     `yaml:"count"`
	CentralMass float64 `yaml:"central_mass"`
	PlanetMass  float64 `yaml:"planet_mass"`
	Distance    float64 `yaml:"distance"`
	Speed       float64 `yaml:"speed"`
}

func DefaultConfig() *Config {
	return &Config{
		Name:          "default",
		Method:        DefaultMethod,
		Topology:      DefaultTopology,
		Dt:            DefaultDt,
		Steps:         DefaultSteps,
		ValidateState: true,
	}
}

func Load(path string) (*Config, error) {
	return LoadInto(path, DefaultConfig())
}

// LoadInto reads path over base, so keys missing from the file keep the
// values in base.
func LoadInto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.AutoOrbit {
		SetOrbitalVelocities(cfg.Bodies)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the boundary preconditions the engine assumes.
func (c *Config) Validate() error {
	if _, err := dynamo.ParseMethod(c.Method); err != nil {
		return err
	}
	if _, err := dynamo.ParseTopology(c.Topology); err != nil {
		return err
	}
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: got %v", dynamo.ErrInvalidTimeStep, c.Dt)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", c.Steps)
	}
	if c.Scatter != nil {
		return c.Scatter.Validate()
	}
	if len(c.Bodies) == 0 {
		return dynamo.ErrNoBodies
	}
	for i, b := range c.Bodies {
		if !(b.Mass > 0) {
			return fmt.Errorf("body %d: mass must be positive, got %v", i, b.Mass)
		}
	}
	return nil
}

func (s *ScatterConfig) Validate() error {
	var errs []error
	if s.Count < 1 || s.Count > MaxScatter {
		errs = append(errs, fmt.Errorf("scatter count must be in [1, %d], got %d", MaxScatter, s.Count))
	}
	if !(s.CentralMass > 0) {
		errs = append(errs, fmt.Errorf("central mass must be positive, got %v", s.CentralMass))
	}
	if !(s.PlanetMass > 0) {
		errs = append(errs, fmt.Errorf("planet mass must be positive, got %v", s.PlanetMass))
	}
	if s.Distance == 0 {
		errs = append(errs, errors.New("scatter distance must be non-zero"))
	}
	return errors.Join(errs...)
}

// SimConfig converts the parsed names into engine settings.
func (c *Config) SimConfig() (dynamo.Config, error) {
	method, err := dynamo.ParseMethod(c.Method)
	if err != nil {
		return dynamo.Config{}, err
	}
	topology, err := dynamo.ParseTopology(c.Topology)
	if err != nil {
		return dynamo.Config{}, err
	}
	if c.Scatter != nil {
		topology = dynamo.CentralOnly
	}
	cfg := dynamo.Config{
		Method:        method,
		Topology:      topology,
		Dt:            c.Dt,
		Steps:         c.Steps,
		Seed:          c.Seed,
		ValidateState: c.ValidateState,
	}
	return cfg, cfg.Validate()
}

// SetOrbitalVelocities gives every orbiting body with zero velocity the
// circular speed sqrt(M/r) around the first body, perpendicular to the
// radius in the xy-plane.
func SetOrbitalVelocities(bodies []BodyConfig) {
	if len(bodies) == 0 {
		return
	}
	central := bodies[0]
	for i := 1; i < len(bodies); i++ {
		if bodies[i].Velocity != [3]float64{} {
			continue
		}
		dx := bodies[i].Position[0] - central.Position[0]
		dy := bodies[i].Position[1] - central.Position[1]
		r := math.Hypot(dx, dy)
		if r == 0 {
			continue
		}
		v := math.Sqrt(central.Mass / r)
		bodies[i].Velocity[0] = -dy / r * v
		bodies[i].Velocity[1] = dx / r * v
	}
}
