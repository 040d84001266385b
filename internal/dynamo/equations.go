package dynamo

import "gonum.org/v1/gonum/mat"

// ODE is an explicit first order system q̇ = v(t, q).
type ODE interface {
	Dim() int
	VectorField(t float64, q, v []float64)
}

// IODE is an implicit ODE arising from a Lagrangian L(q, v):
//
//	p = ϑ(t, q, v),  ṗ = f(t, q, v)
//
// with one-form ϑ = ∂L/∂v and force f = ∂L/∂q.
type IODE interface {
	Dim() int
	OneForm(t float64, q, v, p []float64)
	Force(t float64, q, v, f []float64)
}

// Projector contracts the Jacobian of the one-form with a multiplier,
// g = ∇ϑ(q)ᵀλ. Needed by the Galerkin integrators for jump terms.
type Projector interface {
	Projection(t float64, q, lambda, g []float64)
}

// VelocityGuess supplies a velocity consistent with (q, p), used to seed
// the predictor of implicit schemes over an IODE.
type VelocityGuess interface {
	InitialVelocity(t float64, q, p, v []float64)
}

// PDAE is a partitioned differential-algebraic system
//
//	q̇ = v(t, q, p) + u(t, q, p, λ)
//	ṗ = f(t, q, p) + g(t, q, p, λ)
//	0 = φ(t, q, p)
//
// The constraint φ and the multiplier λ both have dimension Dim().
type PDAE interface {
	Dim() int
	Velocity(t float64, q, p, v []float64)
	Force(t float64, q, p, f []float64)
	Projection(t float64, q, p, lambda, u, g []float64)
	Constraint(t float64, q, p, phi []float64)
}

// SDE is a Stratonovich system dq = a(t, q) dt + B(t, q) ∘ dW with a
// Dim() × NoiseDim() diffusion matrix. Diffusion must write every entry
// of b; the matrix is reused between calls.
type SDE interface {
	Dim() int
	NoiseDim() int
	Drift(t float64, q, v []float64)
	Diffusion(t float64, q []float64, b *mat.Dense)
}

type Hamiltonian interface {
	Energy(t float64, q []float64) float64
}

// Exact is implemented by problems with a closed form solution.
type Exact interface {
	Solution(t float64, q []float64)
}

// Periodic reports per coordinate periods; zero means not periodic.
type Periodic interface {
	Periodicity() []float64
}

// Configurable exposes named model parameters for runtime adjustment.
type Configurable interface {
	GetParams() map[string]float64
	SetParam(name string, value float64) error
}
