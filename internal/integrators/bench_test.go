package integrators

import (
	"testing"

	"github.com/san-kum/geomint/internal/problems"
	"github.com/san-kum/geomint/internal/tableau"
)

func BenchmarkFIRKResidual(b *testing.B) {
	osc := problems.NewOscillator()
	tab, _ := tableau.GaussLegendre(3)
	f, err := NewFIRK(osc, tab, 0, osc.Q0(), 0.1, DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	x, r := make([]float64, f.Size()), make([]float64, f.Size())
	f.guess(x)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.Residual(x, r)
	}
}

func BenchmarkVPRKResidual(b *testing.B) {
	osc := problems.NewOscillatorIODE()
	g, _ := tableau.GaussLegendre(3)
	tab, _ := tableau.VariationalPartitioned(g)
	v, err := NewVPRK(osc, tab, 0, osc.Q0(), osc.P0(), 0.1, DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	x, r := make([]float64, v.Size()), make([]float64, v.Size())
	v.guess(x)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = v.Residual(x, r)
	}
}

func BenchmarkSIRKResidual(b *testing.B) {
	sde := problems.NewKuboOscillator()
	tab, _ := tableau.StochasticGauss(2)
	s, err := NewSIRK(sde, tab, 0, sde.Q0(), 0.01, DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	s.prepare()
	x, r := make([]float64, s.Size()), make([]float64, s.Size())
	s.guess(x)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Residual(x, r)
	}
}

func BenchmarkFIRKStep(b *testing.B) {
	pend := problems.NewPendulum()
	tab, _ := tableau.GaussLegendre(2)
	f, err := NewFIRK(pend, tab, 0, pend.Q0(), 0.01, DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.Step(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRK4(b *testing.B) {
	osc := problems.NewOscillator()
	e, _ := NewRK4(osc, 0, osc.Q0(), 0.01, DefaultConfig())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Step()
	}
}
