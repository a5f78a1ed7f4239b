package experiment

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/solarsim/internal/dynamo"
	"github.com/san-kum/solarsim/internal/metrics"
)

type Registry struct {
	methods map[string]dynamo.Method
	metrics map[string]func() dynamo.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		methods: make(map[string]dynamo.Method),
		metrics: make(map[string]func() dynamo.Metric),
	}

	r.methods["euler"] = dynamo.Euler
	r.methods["leapfrog"] = dynamo.Leapfrog

	r.metrics["energy_drift"] = func() dynamo.Metric { return metrics.NewEnergyDrift() }
	r.metrics["angular_momentum_drift"] = func() dynamo.Metric { return metrics.NewAngularMomentumDrift() }
	r.metrics["radius_bound"] = func() dynamo.Metric { return metrics.NewRadiusBound() }
	r.metrics["finite"] = func() dynamo.Metric { return metrics.NewFinite() }

	return r
}

// GetMethod resolves a method name case-insensitively.
func (r *Registry) GetMethod(name string) (dynamo.Method, error) {
	m, ok := r.methods[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", dynamo.ErrUnknownMethod, name)
	}
	return m, nil
}

func (r *Registry) GetMetric(name string) (dynamo.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

// ListMethods returns the methods in their canonical order.
func (r *Registry) ListMethods() []dynamo.Method {
	out := make([]dynamo.Method, 0, len(r.methods))
	for _, m := range r.methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) ListMetrics() []string {
	names := make([]string, 0, len(r.metrics))
	for name := range r.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics returns a fresh instance of every registered metric.
func (r *Registry) DefaultMetrics() []dynamo.Metric {
	out := make([]dynamo.Metric, 0, len(r.metrics))
	for _, name := range r.ListMetrics() {
		out = append(out, r.metrics[name]())
	}
	return out
}

// Metrics resolves names with GetMetric. No names means DefaultMetrics.
func (r *Registry) Metrics(names []string) ([]dynamo.Metric, error) {
	if len(names) == 0 {
		return r.DefaultMetrics(), nil
	}
	out := make([]dynamo.Metric, 0, len(names))
	for _, name := range names {
		m, err := r.GetMetric(name)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
