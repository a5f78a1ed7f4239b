package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/solarsim/internal/dynamo"
)

func testRun() Run {
	sun := dynamo.BodyState{ID: 0, Role: dynamo.Central, Mass: 1000}
	p0 := dynamo.BodyState{ID: 1, Mass: 1, Position: r3.Vec{X: 100}, Velocity: r3.Vec{Y: 3.16}}
	p1 := p0
	p1.Position = r3.Vec{X: 100, Y: 3.16}
	p1.Velocity = r3.Vec{X: -0.1, Y: 3.16, Z: 1.0 / 3}
	p1.Diagnostics = dynamo.Diagnostics{
		AngularMomentum: r3.Vec{Z: 316.5},
		Kinetic:         5.0,
		Potential:       -9.99,
		Total:           -4.99,
		Valid:           true,
	}

	cfg := dynamo.DefaultConfig()
	cfg.Method = dynamo.Leapfrog
	cfg.Topology = dynamo.CentralOnly
	cfg.Steps = 1
	cfg.Seed = 42

	return Run{
		Name:   "test",
		Config: cfg,
		Snapshots: []dynamo.Snapshot{
			{Step: 0, Time: 0, Topology: dynamo.CentralOnly, Bodies: []dynamo.BodyState{sun, p0}},
			{Step: 1, Time: 1, Topology: dynamo.CentralOnly, Bodies: []dynamo.BodyState{sun, p1}},
		},
		Metrics: map[string]float64{"energy_drift": 0.01},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	run := testRun()
	runID, err := st.Save(run)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, "test", meta.Name)
	assert.Equal(t, "Leapfrog", meta.Method)
	assert.Equal(t, "central", meta.Topology)
	assert.Equal(t, int64(42), meta.Seed)
	assert.Equal(t, 2, meta.Bodies)
	assert.Equal(t, 1, meta.StepsTaken)
	assert.Equal(t, 0.01, meta.Metrics["energy_drift"])
	assert.Empty(t, meta.Error)

	snaps, err := st.LoadStates(runID)
	require.NoError(t, err)
	assert.Equal(t, run.Snapshots, snaps)
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	_, err := st.Save(testRun())
	require.NoError(t, err)
	second := testRun()
	second.Name = "second"
	secondID, err := st.Save(second)
	require.NoError(t, err)

	runs, err := st.List()
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	latest, err := st.Latest()
	require.NoError(t, err)
	assert.Equal(t, secondID, latest)
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	_, err = st.Latest()
	assert.Error(t, err)
}

func TestLoadStatesRejectsMalformedRows(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(testRun())
	require.NoError(t, err)

	path := filepath.Join(st.RunDir(runID), statesFile)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data = append(data, []byte("x,1,0,central,1,0,0,0,0,0,0,0,0,0,0,0,0,false\n")...)
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = st.LoadStates(runID)
	assert.ErrorContains(t, err, "step")
}

func TestSaveRecordsError(t *testing.T) {
	st := New(t.TempDir())
	run := testRun()
	run.Err = &dynamo.StepError{Step: 3, Time: 3, Wrapped: dynamo.ErrInvalidState}

	runID, err := st.Save(run)
	require.NoError(t, err)
	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Contains(t, meta.Error, "invalid state")
}

func TestSaveDropsNonFiniteMetrics(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	run := testRun()
	run.Config.ValidateState = false
	run.Snapshots[1].Bodies[1].Position.X = math.Inf(1)
	run.Metrics = map[string]float64{
		"radius_bound": math.Inf(1),
		"energy_drift": math.NaN(),
		"finite":       0.5,
	}

	runID, err := st.Save(run)
	require.NoError(t, err)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"finite": 0.5}, meta.Metrics)

	snaps, err := st.LoadStates(runID)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.True(t, math.IsInf(snaps[1].Bodies[1].Position.X, 1))

	runs, err := st.List()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestCSVKeepsNaN(t *testing.T) {
	run := testRun()
	run.Snapshots[1].Bodies[1].Velocity.X = math.NaN()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, run.Snapshots))
	assert.Contains(t, buf.String(), "NaN")
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, testRun()))

	var data ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "Leapfrog", data.Method)
	assert.Equal(t, 1, data.Steps)
	require.Len(t, data.States, 2)

	assert.Nil(t, data.States[0].Bodies[1].Kinetic, "diagnostics not computed yet")
	require.NotNil(t, data.States[1].Bodies[1].Kinetic)
	assert.Equal(t, 5.0, *data.States[1].Bodies[1].Kinetic)
	assert.Equal(t, [3]float64{100, 3.16, 0}, data.States[1].Bodies[1].Position)
}

func TestExportJSONStopsAtNonFinite(t *testing.T) {
	run := testRun()
	run.Snapshots[1].Bodies[1].Position.Y = math.Inf(1)
	run.Metrics["radius_bound"] = math.Inf(1)

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, run))

	var data ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Len(t, data.States, 1)
	assert.NotContains(t, data.Metrics, "radius_bound")
}

func TestSeries(t *testing.T) {
	snaps := testRun().Snapshots

	xs, err := Series(snaps, 1, "y")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 3.16}, xs)

	r, err := Series(snaps, 1, "r")
	require.NoError(t, err)
	assert.InDelta(t, 100, r[0], 1e-12)

	missing, err := Series(snaps, 7, "x")
	require.NoError(t, err)
	assert.Empty(t, missing)

	_, err = Series(snaps, 1, "jerk")
	assert.Error(t, err)
}

func TestLoadRun(t *testing.T) {
	st := New(t.TempDir())
	orig := testRun()
	runID, err := st.Save(orig)
	require.NoError(t, err)

	run, err := st.LoadRun(runID)
	require.NoError(t, err)
	assert.Equal(t, orig.Name, run.Name)
	assert.Equal(t, dynamo.Leapfrog, run.Config.Method)
	assert.Equal(t, dynamo.CentralOnly, run.Config.Topology)
	assert.Equal(t, orig.Snapshots, run.Snapshots)
	assert.NoError(t, run.Err)

	_, err = st.LoadRun("missing")
	assert.Error(t, err)
}
