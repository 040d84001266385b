package sim_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/integrators"
	"github.com/san-kum/geomint/internal/nlsolve"
	"github.com/san-kum/geomint/internal/problems"
	"github.com/san-kum/geomint/internal/sim"
	"github.com/san-kum/geomint/internal/tableau"
	"github.com/san-kum/geomint/internal/trajectory"
)

type countMetric struct {
	count int
	last  int
}

func (c *countMetric) Name() string { return "count" }
func (c *countMetric) Observe(n int, snap dynamo.Snapshot, rep integrators.Report) {
	c.count++
	c.last = n
}
func (c *countMetric) Value() float64 { return float64(c.count) }
func (c *countMetric) Reset()         { c.count, c.last = 0, 0 }

// garbage is an integrator whose state turns to NaN after two steps
// without reporting an error.
type garbage struct{ n int }

func (g *garbage) Name() string  { return "garbage" }
func (g *garbage) Dim() int      { return 1 }
func (g *garbage) Time() float64 { return float64(g.n) }
func (g *garbage) Steps() int    { return g.n }
func (g *garbage) Step() (integrators.Report, error) {
	g.n++
	return integrators.Report{Step: g.n, Status: nlsolve.Converged}, nil
}
func (g *garbage) Snapshot() dynamo.Snapshot {
	q := float64(g.n)
	if g.n > 2 {
		q = math.NaN()
	}
	return dynamo.Snapshot{T: float64(g.n), Q: dynamo.State{q}}
}

func stiffPendulum(policy integrators.FailurePolicy) integrators.Integrator {
	pend := problems.NewPendulum()
	cfg := integrators.DefaultConfig()
	cfg.Solver.MaxIter = 1
	cfg.Policy = policy
	tab, err := tableau.GaussLegendre(2)
	Expect(err).NotTo(HaveOccurred())
	f, err := integrators.NewFIRK(pend, tab, 0, pend.Q0(), 0.5, cfg)
	Expect(err).NotTo(HaveOccurred())
	return f
}

var _ = Describe("Simulator", func() {
	var (
		osc *problems.Oscillator
		sol *trajectory.Solution
		ctx context.Context
	)

	BeforeEach(func() {
		osc = problems.NewOscillator()
		sol = trajectory.NewSolution(16)
		ctx = context.Background()
	})

	It("records the initial state and one cell per step", func() {
		rk4, err := integrators.NewRK4(osc, 0, osc.Q0(), 0.1, integrators.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		m := &countMetric{}
		s := sim.New(rk4, sol)
		s.AddMetric(m)

		res, err := s.Run(ctx, sim.Config{Steps: 10})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StepsTaken).To(Equal(10))
		Expect(res.Errors).To(BeEmpty())
		Expect(sol.Len()).To(Equal(11))
		Expect(sol.T[0]).To(Equal(0.0))
		Expect(sol.T[10]).To(BeNumerically("~", 1.0, 1e-12))
		Expect(res.Final.Q).To(Equal(rk4.Snapshot().Q))
		Expect(res.Metrics).To(HaveKeyWithValue("count", 11.0))
		Expect(m.last).To(Equal(10))

		exact := make([]float64, 2)
		osc.Solution(1.0, exact)
		Expect(res.Final.Q[0]).To(BeNumerically("~", exact[0], 1e-6))
	})

	It("rejects a non-positive step count", func() {
		rk4, err := integrators.NewRK4(osc, 0, osc.Q0(), 0.1, integrators.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		_, err = sim.New(rk4).Run(ctx, sim.Config{Steps: 0})
		Expect(err).To(MatchError(dynamo.ErrConfiguration))
	})

	It("stops at the first solver failure under the abort policy", func() {
		s := sim.New(stiffPendulum(integrators.Abort), sol)
		res, err := s.Run(ctx, sim.Config{Steps: 5})
		Expect(err).To(MatchError(dynamo.ErrSolverNonConvergence))
		Expect(res.StepsTaken).To(Equal(0))
		Expect(res.Errors).To(HaveLen(1))
		Expect(sol.Len()).To(Equal(1))
	})

	It("keeps going under the continue policy", func() {
		s := sim.New(stiffPendulum(integrators.Continue), sol)
		res, err := s.Run(ctx, sim.Config{Steps: 5})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StepsTaken).To(Equal(5))
		Expect(res.NonConverged).To(Equal(5))
		Expect(res.MeanIterations()).To(Equal(1.0))
		Expect(sol.Len()).To(Equal(6))
	})

	It("honours context cancellation", func() {
		rk4, err := integrators.NewRK4(osc, 0, osc.Q0(), 0.1, integrators.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		res, err := sim.New(rk4, sol).Run(canceled, sim.Config{Steps: 10})
		Expect(err).To(MatchError(dynamo.ErrContextCanceled))
		Expect(err).To(MatchError(context.Canceled))
		Expect(res.StepsTaken).To(Equal(0))
		Expect(sol.Len()).To(Equal(1))
	})

	It("refuses to overwrite a recorded cell", func() {
		Expect(sol.Record(0, dynamo.Snapshot{Q: osc.Q0()})).To(Succeed())
		rk4, err := integrators.NewRK4(osc, 0, osc.Q0(), 0.1, integrators.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		_, err = sim.New(rk4, sol).Run(ctx, sim.Config{Steps: 3})
		Expect(err).To(MatchError(dynamo.ErrCellWritten))
	})

	It("validates every snapshot", func() {
		res, err := sim.New(&garbage{}, sol).Run(ctx, sim.Config{Steps: 10, ValidateState: true})
		Expect(err).To(MatchError(dynamo.ErrInvalidState))
		Expect(res.StepsTaken).To(Equal(3))
		Expect(sol.Len()).To(Equal(3))
	})

	It("stops a callback run early", func() {
		rk4, err := integrators.NewRK4(osc, 0, osc.Q0(), 0.1, integrators.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		calls := 0
		err = sim.New(rk4).RunWithCallback(ctx, 10, func(dynamo.Snapshot, integrators.Report) bool {
			calls++
			return calls < 4
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(4))
		Expect(rk4.Steps()).To(Equal(4))
	})
})
