// Package dynamo provides the core primitives shared by the integrators.
//
// The package defines the vocabulary every other package speaks:
//
//   - [State]: vector holding one configuration of a system
//   - [Snapshot]: the (t, q, p, λ) tuple advanced by one time step
//   - [ODE], [IODE], [PDAE], [SDE]: user-supplied equations
//   - [Sink]: the trajectory store a run writes into
//
// Equations are capability interfaces: the integrators only call the
// callbacks and never look at how a problem is implemented. Callbacks
// write into caller-owned output slices so that a residual evaluation
// allocates nothing.
//
// # Example
//
//	osc := problems.NewOscillatorIODE()
//	integ, _ := integrators.NewVPRK(osc, tab, 0, osc.Q0(), osc.P0(), 0.1, cfg)
//	for n := 0; n < 10; n++ {
//	    report, err := integ.Step()
//	    ...
//	}
//
// # Thread Safety
//
// Nothing here is safe for concurrent mutation. Independent sample paths
// each get their own integrator, see sim.Ensemble.
package dynamo
