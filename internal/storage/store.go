package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/san-kum/solarsim/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

var header = []string{
	"step", "time", "body", "role", "mass",
	"x", "y", "z", "vx", "vy", "vz",
	"lx", "ly", "lz", "kinetic", "potential", "total", "valid",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Method     string             `json:"method"`
	Topology   string             `json:"topology"`
	Dt         float64            `json:"dt"`
	Steps      int                `json:"steps"`
	StepsTaken int                `json:"steps_taken"`
	Seed       int64              `json:"seed"`
	Bodies     int                `json:"bodies"`
	Metrics    map[string]float64 `json:"metrics"`
	Error      string             `json:"error,omitempty"`
}

// Run is everything needed to persist one simulation.
type Run struct {
	Name      string
	Config    dynamo.Config
	Snapshots []dynamo.Snapshot
	Metrics   map[string]float64
	Err       error
}

func (r Run) metadata(id string) RunMetadata {
	meta := RunMetadata{
		ID:         id,
		Name:       r.Name,
		Timestamp:  time.Now(),
		Method:     r.Config.Method.String(),
		Topology:   r.Config.Topology.String(),
		Dt:         r.Config.Dt,
		Steps:      r.Config.Steps,
		StepsTaken: max(len(r.Snapshots)-1, 0),
		Seed:       r.Config.Seed,
		Metrics:    finiteMetrics(r.Metrics),
	}
	if len(r.Snapshots) > 0 {
		meta.Bodies = len(r.Snapshots[0].Bodies)
	}
	if r.Err != nil {
		meta.Error = r.Err.Error()
	}
	return meta
}

// Save writes metadata.json and states.csv into a new run directory and
// returns the run id. Non-finite metrics are left out of the metadata. On
// failure the run directory is removed.
func (s *Store) Save(run Run) (string, error) {
	if run.Name == "" {
		run.Name = "run"
	}
	runID := fmt.Sprintf("%s_%d", run.Name, time.Now().UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := writeRun(runDir, runID, run); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	return runID, nil
}

func writeRun(runDir, runID string, run Run) error {
	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(run.metadata(runID)); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(runDir, statesFile))
	if err != nil {
		return err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, run.Snapshots); err != nil {
		return err
	}
	return csvFile.Close()
}

// List returns the metadata of every stored run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

// Latest returns the id of the most recent run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("no stored runs")
	}
	return runs[len(runs)-1].ID, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadStates rebuilds the snapshots of a stored run.
func (s *Store) LoadStates(runID string) ([]dynamo.Snapshot, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var topology dynamo.Topology
	if meta, err := s.Load(runID); err == nil {
		topology, _ = dynamo.ParseTopology(meta.Topology)
	}

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(header)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []dynamo.Snapshot{}, nil
	}

	snaps := make([]dynamo.Snapshot, 0)
	for i, record := range records[1:] {
		step, t, state, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", statesFile, i+2, err)
		}
		if len(snaps) == 0 || snaps[len(snaps)-1].Step != step {
			snaps = append(snaps, dynamo.Snapshot{Step: step, Time: t, Topology: topology})
		}
		last := &snaps[len(snaps)-1]
		last.Bodies = append(last.Bodies, state)
	}
	return snaps, nil
}

func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

// LoadRun reads a stored run back into the form Save accepts.
func (s *Store) LoadRun(runID string) (Run, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return Run{}, err
	}
	snaps, err := s.LoadStates(runID)
	if err != nil {
		return Run{}, err
	}

	cfg := dynamo.Config{Dt: meta.Dt, Steps: meta.Steps, Seed: meta.Seed}
	if cfg.Method, err = dynamo.ParseMethod(meta.Method); err != nil {
		return Run{}, err
	}
	if cfg.Topology, err = dynamo.ParseTopology(meta.Topology); err != nil {
		return Run{}, err
	}

	run := Run{Name: meta.Name, Config: cfg, Snapshots: snaps, Metrics: meta.Metrics}
	if meta.Error != "" {
		run.Err = errors.New(meta.Error)
	}
	return run, nil
}
