package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/solarsim/internal/dynamo"
)

// RadiusBound is the largest relative deviation of any orbiting body's
// distance to the central body from its first observed distance.
type RadiusBound struct {
	initial map[dynamo.BodyID]float64
	maxDev  float64
}

func NewRadiusBound() *RadiusBound {
	return &RadiusBound{initial: make(map[dynamo.BodyID]float64)}
}

func (r *RadiusBound) Name() string { return "radius_bound" }

func (r *RadiusBound) Observe(s dynamo.Snapshot) {
	var center r3.Vec
	for _, b := range s.Bodies {
		if b.Role == dynamo.Central {
			center = b.Position
			break
		}
	}
	for _, b := range s.Bodies {
		if b.Role == dynamo.Central {
			continue
		}
		dist := r3.Norm(r3.Sub(b.Position, center))
		if math.IsNaN(dist) || math.IsInf(dist, 0) {
			r.maxDev = math.Inf(1)
			continue
		}
		r0, ok := r.initial[b.ID]
		if !ok {
			r.initial[b.ID] = dist
			continue
		}
		if r0 > 0 {
			r.maxDev = math.Max(r.maxDev, math.Abs(dist-r0)/r0)
		}
	}
}

func (r *RadiusBound) Value() float64 { return r.maxDev }

func (r *RadiusBound) Reset() {
	r.initial = make(map[dynamo.BodyID]float64)
	r.maxDev = 0
}

// Finite is the fraction of observed snapshots whose state is finite.
type Finite struct {
	finite  int
	samples int
}

func NewFinite() *Finite {
	return &Finite{}
}

func (f *Finite) Name() string { return "finite" }

func (f *Finite) Observe(s dynamo.Snapshot) {
	f.samples++
	if s.Finite() {
		f.finite++
	}
}

func (f *Finite) Value() float64 {
	if f.samples == 0 {
		return 1.0
	}
	return float64(f.finite) / float64(f.samples)
}

func (f *Finite) Reset() {
	f.finite = 0
	f.samples = 0
}
