package analysis

import (
	"context"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/solarsim/internal/config"
	"github.com/san-kum/solarsim/internal/dynamo"
	"github.com/san-kum/solarsim/internal/experiment"
	"github.com/san-kum/solarsim/internal/physics"
)

// Apsides summarizes the range of a body's distance to the central body.
type Apsides struct {
	Periapsis    float64
	Apoapsis     float64
	Eccentricity float64
}

// FindApsides scans a distance series. Non-finite samples are skipped.
func FindApsides(radii []float64) (Apsides, error) {
	a := Apsides{Periapsis: math.Inf(1), Apoapsis: math.Inf(-1)}
	n := 0
	for _, r := range radii {
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		a.Periapsis = math.Min(a.Periapsis, r)
		a.Apoapsis = math.Max(a.Apoapsis, r)
		n++
	}
	if n < 2 {
		return Apsides{}, ErrShortSeries
	}
	if sum := a.Apoapsis + a.Periapsis; sum > 0 {
		a.Eccentricity = (a.Apoapsis - a.Periapsis) / sum
	}
	return a, nil
}

// LyapunovExponent runs cfg twice, the second copy with the first orbiting
// body displaced by perturbation along x. After every step the copy is
// pulled back to distance perturbation from the reference along the
// current separation, and the logged stretch factors are averaged over
// the elapsed time.
func LyapunovExponent(ctx context.Context, cfg *config.Config, perturbation float64) (float64, error) {
	ref, simCfg, err := experiment.BuildSystem(cfg)
	if err != nil {
		return 0, err
	}
	shadow, _, err := experiment.BuildSystem(cfg)
	if err != nil {
		return 0, err
	}
	if shadow.Len() < 2 {
		return 0, dynamo.ErrNoBodies
	}
	shadow.Bodies()[1].Position.X += perturbation

	sumLog := 0.0
	for i := 0; i < simCfg.Steps; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if _, err := ref.StepWith(simCfg.Topology); err != nil {
			return 0, err
		}
		if _, err := shadow.StepWith(simCfg.Topology); err != nil {
			return 0, err
		}
		if !ref.Valid() || !shadow.Valid() {
			return 0, &dynamo.StepError{Step: ref.Steps(), Time: ref.Time(), Wrapped: dynamo.ErrInvalidState}
		}

		sep := separation(ref, shadow)
		if sep == 0 {
			continue
		}
		sumLog += math.Log(sep / perturbation)
		rescale(ref, shadow, perturbation/sep)
	}
	return sumLog / (float64(simCfg.Steps) * simCfg.Dt), nil
}

func separation(a, b *physics.System) float64 {
	sum := 0.0
	for i, ba := range a.Bodies() {
		bb := b.Bodies()[i]
		dp := r3.Norm(r3.Sub(bb.Position, ba.Position))
		dv := r3.Norm(r3.Sub(bb.Velocity, ba.Velocity))
		sum += dp*dp + dv*dv
	}
	return math.Sqrt(sum)
}

func rescale(ref, shadow *physics.System, scale float64) {
	for i, br := range ref.Bodies() {
		bs := shadow.Bodies()[i]
		bs.Position = r3.Add(br.Position, r3.Scale(scale, r3.Sub(bs.Position, br.Position)))
		bs.Velocity = r3.Add(br.Velocity, r3.Scale(scale, r3.Sub(bs.Velocity, br.Velocity)))
	}
}
