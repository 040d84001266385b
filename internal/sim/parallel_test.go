package sim_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/integrators"
	"github.com/san-kum/geomint/internal/problems"
	"github.com/san-kum/geomint/internal/sim"
	"github.com/san-kum/geomint/internal/tableau"
	"github.com/san-kum/geomint/internal/trajectory"
)

func kuboFactory(seed uint64) sim.Factory {
	return func(path int) (integrators.Integrator, error) {
		kubo := problems.NewKuboOscillator()
		cfg := integrators.DefaultConfig()
		cfg.Seed = seed + uint64(path)
		return integrators.NewSIRK(kubo, tableau.StochasticMidpoint(), 0, kubo.Q0(), 0.01, cfg)
	}
}

var _ = Describe("Ensemble", func() {
	const paths, steps = 6, 50

	run := func(seed uint64, workers int) (*trajectory.Ensemble, []*sim.Result) {
		store := trajectory.NewEnsemble(paths, steps+1)
		res, err := sim.NewEnsemble(kuboFactory(seed), paths).
			WithWorkers(workers).
			Run(context.Background(), sim.Config{Steps: steps}, store)
		Expect(err).NotTo(HaveOccurred())
		return store, res
	}

	It("gives every path its own cell range", func() {
		store, res := run(1, 0)
		Expect(res).To(HaveLen(paths))
		for i := 0; i < paths; i++ {
			Expect(store.Path(i).Len()).To(Equal(steps + 1))
			Expect(res[i].StepsTaken).To(Equal(steps))
		}
		final := store.Final()
		Expect(final[0]).NotTo(Equal(final[1]))
	})

	It("is reproducible regardless of scheduling", func() {
		a, _ := run(9, 1)
		b, _ := run(9, 4)
		Expect(a.Final()).To(Equal(b.Final()))
	})

	It("installs fresh metrics on every path", func() {
		var made []*countMetric
		_, err := sim.NewEnsemble(kuboFactory(3), 2).
			WithWorkers(1).
			WithMetrics(func() []sim.Metric {
				m := &countMetric{}
				made = append(made, m)
				return []sim.Metric{m}
			}).
			Run(context.Background(), sim.Config{Steps: steps}, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(made).To(HaveLen(2))
		Expect(made[0]).NotTo(BeIdenticalTo(made[1]))
		Expect(made[1].count).To(Equal(steps + 1))
	})

	It("joins the errors of failed paths", func() {
		boom := errors.New("boom")
		factory := func(path int) (integrators.Integrator, error) {
			if path == 1 {
				return nil, boom
			}
			return kuboFactory(0)(path)
		}
		res, err := sim.NewEnsemble(factory, 3).Run(context.Background(), sim.Config{Steps: 5}, nil)
		Expect(err).To(MatchError(boom))
		Expect(err.Error()).To(ContainSubstring("path 1"))
		Expect(res[0]).NotTo(BeNil())
		Expect(res[1]).To(BeNil())
	})

	It("checks the store size", func() {
		_, err := sim.NewEnsemble(kuboFactory(0), 3).
			Run(context.Background(), sim.Config{Steps: 5}, trajectory.NewEnsemble(2, 0))
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
	})
})
