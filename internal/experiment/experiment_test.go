package experiment_test

import (
	"context"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/solarsim/internal/config"
	"github.com/san-kum/solarsim/internal/dynamo"
	"github.com/san-kum/solarsim/internal/experiment"
)

func twoBody(method string, steps int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Name = "two-body-" + method
	cfg.Method = method
	cfg.Steps = steps
	cfg.Bodies = []config.BodyConfig{
		{Mass: 1000},
		{Mass: 1, Position: [3]float64{100, 0, 0}, Velocity: [3]float64{0, math.Sqrt(10), 0}},
	}
	return cfg
}

var _ = Describe("Experiment", func() {
	It("records the initial state and one snapshot per step", func() {
		exp, err := experiment.FromConfig(twoBody("Leapfrog", 50))
		Expect(err).NotTo(HaveOccurred())

		res, err := exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StepsTaken).To(Equal(50))
		Expect(res.Snapshots).To(HaveLen(51))
		Expect(res.Snapshots[0].Step).To(Equal(0))
		Expect(res.Final().Step).To(Equal(50))
		Expect(res.Final().Time).To(BeNumerically("~", 50.0, 1e-9))
		Expect(res.Metrics).To(HaveKey("energy_drift"))
		Expect(res.Metrics["finite"]).To(Equal(1.0))
	})

	It("keeps a circular orbit bounded with leapfrog", func() {
		cfg := twoBody("Leapfrog", config.DefaultSteps)
		cfg.Topology = "central"
		exp, err := experiment.FromConfig(cfg)
		Expect(err).NotTo(HaveOccurred())

		res, err := exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Metrics["radius_bound"]).To(BeNumerically("<", 0.05))
		Expect(res.Metrics["energy_drift"]).To(BeNumerically("<", 0.01))
	})

	It("drifts more with euler than with leapfrog", func() {
		eccentric := func(method string) *config.Config {
			cfg := twoBody(method, 600)
			cfg.Topology = "central"
			cfg.Bodies[1].Velocity = [3]float64{0, 2.5, 0}
			return cfg
		}
		outcomes, err := experiment.RunEnsemble(context.Background(), []*config.Config{
			eccentric("Euler"),
			eccentric("Leapfrog"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(outcomes).To(HaveLen(2))
		Expect(outcomes[0].Result.Metrics["energy_drift"]).To(BeNumerically(">", outcomes[1].Result.Metrics["energy_drift"]))
	})

	It("stops on a non-finite state when validation is enabled", func() {
		cfg := twoBody("Euler", 10)
		cfg.Bodies[1] = config.BodyConfig{Mass: 1}

		exp, err := experiment.FromConfig(cfg)
		Expect(err).NotTo(HaveOccurred())

		res, err := exp.Run(context.Background())
		Expect(err).To(MatchError(dynamo.ErrInvalidState))
		var stepErr *dynamo.StepError
		Expect(err).To(BeAssignableToTypeOf(stepErr))
		Expect(res.StepsTaken).To(Equal(1))
	})

	It("keeps going through NaN when validation is disabled", func() {
		cfg := twoBody("Euler", 10)
		cfg.ValidateState = false
		cfg.Bodies[1] = config.BodyConfig{Mass: 1}

		exp, err := experiment.FromConfig(cfg)
		Expect(err).NotTo(HaveOccurred())

		res, err := exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StepsTaken).To(Equal(10))
		Expect(res.Metrics["finite"]).To(BeNumerically("<", 1.0))
	})

	It("honours context cancellation", func() {
		exp, err := experiment.FromConfig(twoBody("Euler", 100))
		Expect(err).NotTo(HaveOccurred())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		res, err := exp.Run(ctx)
		Expect(err).To(MatchError(context.Canceled))
		Expect(res.StepsTaken).To(BeZero())
	})

	It("notifies observers for every recorded snapshot", func() {
		var seen []int
		obs := dynamo.ObserverFunc(func(s dynamo.Snapshot) { seen = append(seen, s.Step) })

		exp, err := experiment.FromConfig(twoBody("Euler", 3), experiment.WithObserver(obs))
		Expect(err).NotTo(HaveOccurred())
		_, err = exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(Equal([]int{0, 1, 2, 3}))
	})

	It("rejects invalid configurations", func() {
		cfg := twoBody("Euler", 10)
		cfg.Dt = 0
		_, err := experiment.FromConfig(cfg)
		Expect(err).To(MatchError(dynamo.ErrInvalidTimeStep))
	})

	It("fails to run before setup", func() {
		exp := experiment.New(dynamo.DefaultConfig())
		_, err := exp.Run(context.Background())
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("BuildSystem", func() {
	It("makes the first body central", func() {
		sys, simCfg, err := experiment.BuildSystem(twoBody("Leapfrog", 10))
		Expect(err).NotTo(HaveOccurred())
		Expect(simCfg.Method).To(Equal(dynamo.Leapfrog))
		Expect(sys.Len()).To(Equal(2))

		central, ok := sys.Central()
		Expect(ok).To(BeTrue())
		Expect(central.ID).To(Equal(dynamo.BodyID(0)))
		Expect(sys.Bodies()[1].IsCentral()).To(BeFalse())
	})

	It("expands a scatter section deterministically", func() {
		a, simCfg, err := experiment.BuildSystem(config.GetPreset("scatter"))
		Expect(err).NotTo(HaveOccurred())
		b, _, err := experiment.BuildSystem(config.GetPreset("scatter"))
		Expect(err).NotTo(HaveOccurred())

		Expect(simCfg.Topology).To(Equal(dynamo.CentralOnly))
		Expect(a.Len()).To(Equal(9))
		for i := range a.Bodies() {
			Expect(a.Bodies()[i].Velocity).To(Equal(b.Bodies()[i].Velocity))
		}
	})
})

var _ = Describe("RunEnsemble", func() {
	It("finishes healthy members when another one fails", func() {
		bad := twoBody("Euler", 10)
		bad.Name = "coincident"
		bad.Bodies[1] = config.BodyConfig{Mass: 1}
		good := twoBody("Leapfrog", 2000)
		good.Name = "circular"
		broken := twoBody("Euler", 10)
		broken.Name = "broken"
		broken.Dt = 0

		outcomes, err := experiment.RunEnsemble(context.Background(), []*config.Config{bad, good, broken})
		Expect(err).To(MatchError(dynamo.ErrInvalidState))
		Expect(err).To(MatchError(dynamo.ErrInvalidTimeStep))
		Expect(outcomes).To(HaveLen(3))

		Expect(outcomes[0].Name).To(Equal("coincident"))
		Expect(outcomes[0].Err).To(MatchError(dynamo.ErrInvalidState))
		Expect(outcomes[0].Result.StepsTaken).To(Equal(1))

		Expect(outcomes[1].Name).To(Equal("circular"))
		Expect(outcomes[1].Err).NotTo(HaveOccurred())
		Expect(outcomes[1].Result.StepsTaken).To(Equal(2000))
		Expect(outcomes[1].Result.Metrics["finite"]).To(Equal(1.0))

		Expect(outcomes[2].Result).To(BeNil())
		Expect(outcomes[2].Err).To(MatchError(dynamo.ErrInvalidTimeStep))
	})
})

var _ = Describe("Scatter", func() {
	It("launches every planet from the same point at the given speed", func() {
		sc := config.ScatterConfig{Count: 10, CentralMass: 500, PlanetMass: 2, Distance: 80, Speed: 3}
		bodies := experiment.Scatter(sc, rand.New(rand.NewSource(7)))

		Expect(bodies).To(HaveLen(11))
		Expect(bodies[0].Mass).To(Equal(500.0))
		for _, b := range bodies[1:] {
			Expect(b.Mass).To(Equal(2.0))
			Expect(b.Position).To(Equal([3]float64{80, 0, 0}))
			v := b.Velocity
			Expect(math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])).To(BeNumerically("~", 3.0, 1e-12))
		}
	})
})

var _ = Describe("Registry", func() {
	var r *experiment.Registry

	BeforeEach(func() {
		r = experiment.NewRegistry()
	})

	It("resolves methods by lower-case name", func() {
		m, err := r.GetMethod("leapfrog")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(dynamo.Leapfrog))

		m, err = r.GetMethod("Euler")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(dynamo.Euler))

		_, err = r.GetMethod("rk4")
		Expect(err).To(MatchError(dynamo.ErrUnknownMethod))
	})

	It("lists methods in canonical order", func() {
		Expect(r.ListMethods()).To(Equal([]dynamo.Method{dynamo.Euler, dynamo.Leapfrog}))
	})

	It("creates fresh metric instances", func() {
		Expect(r.ListMetrics()).To(Equal([]string{"angular_momentum_drift", "energy_drift", "finite", "radius_bound"}))

		a, err := r.GetMetric("finite")
		Expect(err).NotTo(HaveOccurred())
		b, err := r.GetMetric("finite")
		Expect(err).NotTo(HaveOccurred())
		Expect(a).NotTo(BeIdenticalTo(b))

		_, err = r.GetMetric("stability")
		Expect(err).To(HaveOccurred())
		Expect(r.DefaultMetrics()).To(HaveLen(4))
	})

	It("resolves metric selections", func() {
		ms, err := r.Metrics([]string{"finite", "radius_bound"})
		Expect(err).NotTo(HaveOccurred())
		Expect(ms).To(HaveLen(2))
		Expect(ms[0].Name()).To(Equal("finite"))

		ms, err = r.Metrics(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(ms).To(HaveLen(4))

		_, err = r.Metrics([]string{"stability"})
		Expect(err).To(MatchError(ContainSubstring("unknown metric")))
	})

	It("attaches only the selected metrics", func() {
		exp, err := experiment.FromConfig(twoBody("Leapfrog", 5), experiment.WithMetrics("finite"))
		Expect(err).NotTo(HaveOccurred())
		res, err := exp.Run(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Metrics).To(Equal(map[string]float64{"finite": 1.0}))

		_, err = experiment.FromConfig(twoBody("Leapfrog", 5), experiment.WithMetrics("stability"))
		Expect(err).To(HaveOccurred())
	})
})
