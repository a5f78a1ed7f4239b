package experiment

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/solarsim/internal/config"
	"github.com/san-kum/solarsim/internal/dynamo"
	"github.com/san-kum/solarsim/internal/physics"
)

// BuildSystem validates cfg and creates the system it describes. The first
// body is central, the rest orbit it. A scatter section replaces the body
// list with a seeded random batch.
func BuildSystem(cfg *config.Config) (*physics.System, dynamo.Config, error) {
	if err := cfg.Validate(); err != nil {
		return nil, dynamo.Config{}, err
	}
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return nil, dynamo.Config{}, err
	}

	bodies := cfg.Bodies
	if cfg.Scatter != nil {
		bodies = Scatter(*cfg.Scatter, rand.New(rand.NewSource(cfg.Seed)))
	}

	sys, err := physics.NewSystem(simCfg.Method, simCfg.Dt)
	if err != nil {
		return nil, dynamo.Config{}, err
	}
	for i, bc := range bodies {
		role := dynamo.Orbiting
		if i == 0 {
			role = dynamo.Central
		}
		b := physics.NewBody(bc.Mass, vec(bc.Position), vec(bc.Velocity), role)
		if _, err := sys.Add(b); err != nil {
			return nil, dynamo.Config{}, fmt.Errorf("body %d: %w", i, err)
		}
	}
	return sys, simCfg, nil
}

func vec(a [3]float64) r3.Vec {
	return r3.Vec{X: a[0], Y: a[1], Z: a[2]}
}
