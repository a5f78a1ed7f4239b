package experiment

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/solarsim/internal/config"
)

// Outcome is one member of an ensemble. Result is nil when the system
// could not be built, and holds the partial run when Err is set during
// stepping.
type Outcome struct {
	Name   string
	Result *Result
	Err    error
}

// RunEnsemble runs every configuration concurrently. Members are
// independent: a failing run does not stop the others. Outcomes are in
// input order and the returned error joins the members' errors.
func RunEnsemble(ctx context.Context, cfgs []*config.Config, opts ...Option) ([]Outcome, error) {
	outcomes := make([]Outcome, len(cfgs))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for i, cfg := range cfgs {
		i, cfg := i, cfg
		outcomes[i].Name = cfg.Name
		g.Go(func() error {
			exp, err := FromConfig(cfg, opts...)
			if err != nil {
				outcomes[i].Err = fmt.Errorf("%s: %w", cfg.Name, err)
				return nil
			}
			res, err := exp.Run(ctx)
			outcomes[i].Result = res
			if err != nil {
				outcomes[i].Err = fmt.Errorf("%s: %w", cfg.Name, err)
			}
			return nil
		})
	}
	g.Wait()

	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return outcomes, errors.Join(errs...)
}
