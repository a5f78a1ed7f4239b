package experiment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/solarsim/internal/config"
	"github.com/san-kum/solarsim/internal/dynamo"
	"github.com/san-kum/solarsim/internal/physics"
)

type Result struct {
	// Snapshots holds the initial state followed by one entry per step.
	Snapshots  []dynamo.Snapshot
	Metrics    map[string]float64
	StepsTaken int
	Elapsed    time.Duration
}

// Final returns the last recorded snapshot.
func (r *Result) Final() dynamo.Snapshot {
	if len(r.Snapshots) == 0 {
		return dynamo.Snapshot{}
	}
	return r.Snapshots[len(r.Snapshots)-1]
}

type Option func(*Experiment)

func WithLogger(l *log.Logger) Option {
	return func(e *Experiment) { e.logger = l }
}

// WithMetrics selects registered metrics by name for FromConfig instead
// of the full default set.
func WithMetrics(names ...string) Option {
	return func(e *Experiment) { e.metricNames = names }
}

func WithObserver(o dynamo.Observer) Option {
	return func(e *Experiment) { e.observers = append(e.observers, o) }
}

type Experiment struct {
	cfg       dynamo.Config
	system    *physics.System
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	logger    *log.Logger

	metricNames []string
}

func New(cfg dynamo.Config, opts ...Option) *Experiment {
	e := &Experiment{
		cfg:    cfg,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FromConfig builds the system described by cfg and attaches the default
// metrics, or those chosen with WithMetrics.
func FromConfig(cfg *config.Config, opts ...Option) (*Experiment, error) {
	sys, simCfg, err := BuildSystem(cfg)
	if err != nil {
		return nil, err
	}
	e := New(simCfg, opts...)
	if sys.Len() > config.MaxFormBodies {
		e.logger.Warn("large system", "bodies", sys.Len(), "limit", config.MaxFormBodies)
	}
	ms, err := NewRegistry().Metrics(e.metricNames)
	if err != nil {
		return nil, err
	}
	if err := e.Setup(sys, ms); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Experiment) Setup(sys *physics.System, metrics []dynamo.Metric) error {
	if sys == nil {
		return errors.New("experiment: nil system")
	}
	if sys.Method() != e.cfg.Method || sys.Dt() != e.cfg.Dt {
		return fmt.Errorf("experiment: system uses %v dt=%v, config wants %v dt=%v",
			sys.Method(), sys.Dt(), e.cfg.Method, e.cfg.Dt)
	}
	if sys.Len() == 0 {
		return dynamo.ErrNoBodies
	}
	e.system = sys
	e.metrics = metrics
	return nil
}

func (e *Experiment) System() *physics.System { return e.system }

func (e *Experiment) Config() dynamo.Config { return e.cfg }

// Run advances the system cfg.Steps times. On a non-finite state with
// validation enabled, or on context cancellation, it returns the partial
// result together with the error.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.system == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	res := &Result{
		Snapshots: make([]dynamo.Snapshot, 0, e.cfg.Steps+1),
		Metrics:   make(map[string]float64),
	}
	start := time.Now()
	defer func() {
		res.Elapsed = time.Since(start)
		for _, m := range e.metrics {
			res.Metrics[m.Name()] = m.Value()
		}
	}()

	for _, m := range e.metrics {
		m.Reset()
	}
	e.record(res, e.system.Snapshot(e.cfg.Topology))

	e.logger.Info("run started",
		"method", e.cfg.Method, "topology", e.cfg.Topology,
		"dt", e.cfg.Dt, "steps", e.cfg.Steps, "bodies", e.system.Len())

	for i := 0; i < e.cfg.Steps; i++ {
		select {
		case <-ctx.Done():
			e.logger.Warn("run cancelled", "step", res.StepsTaken)
			return res, ctx.Err()
		default:
		}

		snap, err := e.system.StepWith(e.cfg.Topology)
		if err != nil {
			return res, &dynamo.StepError{Step: e.system.Steps(), Time: e.system.Time(), Wrapped: err}
		}
		res.StepsTaken++
		e.record(res, snap)

		if e.cfg.ValidateState && !snap.Finite() {
			e.logger.Error("non-finite state", "step", snap.Step, "t", snap.Time)
			return res, &dynamo.StepError{Step: snap.Step, Time: snap.Time, Wrapped: dynamo.ErrInvalidState}
		}
		if snap.Step%100 == 0 {
			e.logger.Debug("step", "n", snap.Step, "t", snap.Time)
		}
	}

	e.logger.Info("run finished", "steps", res.StepsTaken, "elapsed", time.Since(start))
	return res, nil
}

func (e *Experiment) record(res *Result, snap dynamo.Snapshot) {
	res.Snapshots = append(res.Snapshots, snap)
	for _, m := range e.metrics {
		m.Observe(snap)
	}
	for _, o := range e.observers {
		o.OnStep(snap)
	}
}
