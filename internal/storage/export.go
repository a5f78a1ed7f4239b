package storage

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/san-kum/solarsim/internal/dynamo"
)

type ExportBody struct {
	ID              dynamo.BodyID `json:"id"`
	Role            string        `json:"role"`
	Mass            float64       `json:"mass"`
	Position        [3]float64    `json:"position"`
	Velocity        [3]float64    `json:"velocity"`
	AngularMomentum *[3]float64   `json:"angular_momentum,omitempty"`
	Kinetic         *float64      `json:"kinetic,omitempty"`
	Potential       *float64      `json:"potential,omitempty"`
	Total           *float64      `json:"total,omitempty"`
}

type ExportStep struct {
	Step   int          `json:"step"`
	Time   float64      `json:"time"`
	Bodies []ExportBody `json:"bodies"`
}

type ExportData struct {
	Name     string             `json:"name"`
	Method   string             `json:"method"`
	Topology string             `json:"topology"`
	Dt       float64            `json:"dt"`
	Steps    int                `json:"steps"`
	Metrics  map[string]float64 `json:"metrics"`
	States   []ExportStep       `json:"states"`
}

// NewExportData flattens a run into its JSON form. Diagnostics are only
// emitted once they have been computed. Non-finite values are written as
// null since JSON has no NaN.
func NewExportData(run Run) ExportData {
	data := ExportData{
		Name:     run.Name,
		Method:   run.Config.Method.String(),
		Topology: run.Config.Topology.String(),
		Dt:       run.Config.Dt,
		Steps:    max(len(run.Snapshots)-1, 0),
		Metrics:  finiteMetrics(run.Metrics),
		States:   make([]ExportStep, 0, len(run.Snapshots)),
	}
	for _, snap := range run.Snapshots {
		if !snap.Finite() {
			break
		}
		step := ExportStep{Step: snap.Step, Time: snap.Time, Bodies: make([]ExportBody, len(snap.Bodies))}
		for i, b := range snap.Bodies {
			eb := ExportBody{
				ID:       b.ID,
				Role:     b.Role.String(),
				Mass:     b.Mass,
				Position: [3]float64{b.Position.X, b.Position.Y, b.Position.Z},
				Velocity: [3]float64{b.Velocity.X, b.Velocity.Y, b.Velocity.Z},
			}
			if d := b.Diagnostics; d.Valid && dynamo.FiniteVec(d.AngularMomentum) {
				l := [3]float64{d.AngularMomentum.X, d.AngularMomentum.Y, d.AngularMomentum.Z}
				eb.AngularMomentum = &l
				eb.Kinetic, eb.Potential, eb.Total = &d.Kinetic, &d.Potential, &d.Total
			}
			step.Bodies[i] = eb
		}
		data.States = append(data.States, step)
	}
	return data
}

func finiteMetrics(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func ExportJSON(w io.Writer, run Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExportData(run))
}

func ExportJSONFile(path string, run Run) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, run)
}

func ExportJSONStdout(run Run) error {
	return ExportJSON(os.Stdout, run)
}
