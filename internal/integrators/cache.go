package integrators

import "gonum.org/v1/gonum/mat"

// Stage caches are scratch owned by one integrator. Every residual
// evaluation overwrites them completely; nothing in them survives a step.

type rkCache struct {
	Q, V StageVectors
}

func newRKCache(s, d int) *rkCache {
	return &rkCache{Q: NewStageVectors(s, d), V: NewStageVectors(s, d)}
}

// vprkCache adds the one-form and force at the stages.
type vprkCache struct {
	Q, V, P, F StageVectors
}

func newVPRKCache(s, d int) *vprkCache {
	return &vprkCache{
		Q: NewStageVectors(s, d),
		V: NewStageVectors(s, d),
		P: NewStageVectors(s, d),
		F: NewStageVectors(s, d),
	}
}

// dgviCache holds basis coefficients X (S of them), fields at the R
// quadrature nodes and the jump terms at both element edges.
type dgviCache struct {
	X          StageVectors
	Q, V, P, F StageVectors

	qNext  []float64
	qPlus  []float64
	qMinus []float64

	phiPlus, phiMinus       []float64
	lambdaPlus, lambdaMinus []float64
	thetaPlus, thetaMinus   []float64
	gPlus, gMinus           []float64
	zero                    []float64
}

func newDGVICache(s, r, d int) *dgviCache {
	vec := func() []float64 { return make([]float64, d) }
	return &dgviCache{
		X:           NewStageVectors(s, d),
		Q:           NewStageVectors(r, d),
		V:           NewStageVectors(r, d),
		P:           NewStageVectors(r, d),
		F:           NewStageVectors(r, d),
		qNext:       vec(),
		qPlus:       vec(),
		qMinus:      vec(),
		phiPlus:     vec(),
		phiMinus:    vec(),
		lambdaPlus:  vec(),
		lambdaMinus: vec(),
		thetaPlus:   vec(),
		thetaMinus:  vec(),
		gPlus:       vec(),
		gMinus:      vec(),
		zero:        vec(),
	}
}

// parkCache covers S internal and R projective stages.
type parkCache struct {
	Y, Z, Q, P, V, F         StageVectors
	Yt, Zt, Lt, Qt, Pt, U, G StageVectors
	Phi                      StageVectors
}

func newPARKCache(s, r, d int) *parkCache {
	return &parkCache{
		Y:   NewStageVectors(s, d),
		Z:   NewStageVectors(s, d),
		Q:   NewStageVectors(s, d),
		P:   NewStageVectors(s, d),
		V:   NewStageVectors(s, d),
		F:   NewStageVectors(s, d),
		Yt:  NewStageVectors(r, d),
		Zt:  NewStageVectors(r, d),
		Lt:  NewStageVectors(r, d),
		Qt:  NewStageVectors(r, d),
		Pt:  NewStageVectors(r, d),
		U:   NewStageVectors(r, d),
		G:   NewStageVectors(r, d),
		Phi: NewStageVectors(r, d),
	}
}

// sirkCache holds the stage increments, drift values and the diffusion
// matrices contracted with ΔW.
type sirkCache struct {
	Y, Q, V, BW StageVectors
	B           []*mat.Dense
	dw          *mat.VecDense
}

func newSIRKCache(s, d, m int) *sirkCache {
	c := &sirkCache{
		Y:  NewStageVectors(s, d),
		Q:  NewStageVectors(s, d),
		V:  NewStageVectors(s, d),
		BW: NewStageVectors(s, d),
		B:  make([]*mat.Dense, s),
		dw: mat.NewVecDense(m, nil),
	}
	for i := range c.B {
		c.B[i] = mat.NewDense(d, m, nil)
	}
	return c
}
