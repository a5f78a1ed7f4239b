package storage

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/solarsim/internal/dynamo"
)

var fields = map[string]func(dynamo.BodyState) float64{
	"x":         func(b dynamo.BodyState) float64 { return b.Position.X },
	"y":         func(b dynamo.BodyState) float64 { return b.Position.Y },
	"z":         func(b dynamo.BodyState) float64 { return b.Position.Z },
	"vx":        func(b dynamo.BodyState) float64 { return b.Velocity.X },
	"vy":        func(b dynamo.BodyState) float64 { return b.Velocity.Y },
	"vz":        func(b dynamo.BodyState) float64 { return b.Velocity.Z },
	"r":         func(b dynamo.BodyState) float64 { return r3.Norm(b.Position) },
	"speed":     func(b dynamo.BodyState) float64 { return r3.Norm(b.Velocity) },
	"lz":        func(b dynamo.BodyState) float64 { return b.Diagnostics.AngularMomentum.Z },
	"kinetic":   func(b dynamo.BodyState) float64 { return b.Diagnostics.Kinetic },
	"potential": func(b dynamo.BodyState) float64 { return b.Diagnostics.Potential },
	"total":     func(b dynamo.BodyState) float64 { return b.Diagnostics.Total },
}

// Series extracts one field of one body across snapshots. Snapshots where
// the body is missing or the value is not finite are skipped.
func Series(snaps []dynamo.Snapshot, id dynamo.BodyID, field string) ([]float64, error) {
	get, ok := fields[field]
	if !ok {
		return nil, fmt.Errorf("unknown field: %s", field)
	}
	out := make([]float64, 0, len(snaps))
	for _, snap := range snaps {
		b, ok := snap.Body(id)
		if !ok {
			continue
		}
		v := get(b)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
