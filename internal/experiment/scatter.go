package experiment

import (
	"math"
	"math/rand"

	"github.com/san-kum/solarsim/internal/config"
)

// Scatter lays out a central body at the origin followed by sc.Count equal
// planets, all starting at (Distance, 0, 0) with speed sc.Speed in a random
// direction. The polar angle is drawn from [0, π) and the azimuth from
// [0, 2π).
func Scatter(sc config.ScatterConfig, rng *rand.Rand) []config.BodyConfig {
	bodies := make([]config.BodyConfig, 0, sc.Count+1)
	bodies = append(bodies, config.BodyConfig{Mass: sc.CentralMass})

	for i := 0; i < sc.Count; i++ {
		theta := math.Pi * rng.Float64()
		phi := 2 * math.Pi * rng.Float64()
		bodies = append(bodies, config.BodyConfig{
			Mass:     sc.PlanetMass,
			Position: [3]float64{sc.Distance, 0, 0},
			Velocity: [3]float64{
				sc.Speed * math.Sin(theta) * math.Cos(phi),
				sc.Speed * math.Sin(theta) * math.Sin(phi),
				sc.Speed * math.Cos(theta),
			},
		})
	}
	return bodies
}
