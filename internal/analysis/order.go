package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/integrators"
	"github.com/san-kum/geomint/internal/sim"
	"github.com/san-kum/geomint/internal/trajectory"
	"gonum.org/v1/gonum/stat"
)

// ConvergenceOrder returns log(e_i/e_{i+1}) / log(dt_i/dt_{i+1}) for each
// consecutive pair.
func ConvergenceOrder(dts, errs []float64) ([]float64, error) {
	if err := checkSeries(dts, errs, 2); err != nil {
		return nil, err
	}
	orders := make([]float64, len(dts)-1)
	for i := range orders {
		orders[i] = math.Log(errs[i]/errs[i+1]) / math.Log(dts[i]/dts[i+1])
	}
	return orders, nil
}

// FitOrder is the least squares slope of log(err) against log(dt).
func FitOrder(dts, errs []float64) (float64, error) {
	if err := checkSeries(dts, errs, 2); err != nil {
		return 0, err
	}
	x := make([]float64, len(dts))
	y := make([]float64, len(errs))
	for i := range dts {
		x[i] = math.Log(dts[i])
		y[i] = math.Log(errs[i])
	}
	_, slope := stat.LinearRegression(x, y, nil, false)
	return slope, nil
}

func checkSeries(dts, errs []float64, min int) error {
	if len(dts) != len(errs) {
		return dynamo.Mismatch("errors", len(errs), len(dts))
	}
	if len(dts) < min {
		return fmt.Errorf("%w: need at least %d step sizes, got %d", dynamo.ErrConfiguration, min, len(dts))
	}
	for i := range dts {
		if dts[i] <= 0 || errs[i] <= 0 || math.IsNaN(errs[i]) || math.IsInf(errs[i], 0) {
			return fmt.Errorf("%w: step size %g with error %g", dynamo.ErrConfiguration, dts[i], errs[i])
		}
	}
	return nil
}

// OrderTable is the outcome of a convergence study.
type OrderTable struct {
	Dt     []float64
	Error  []float64
	Order  []float64 // pairwise, one shorter than Dt
	Fitted float64
}

// Study integrates up to tEnd once per step size with a fresh integrator
// from build and compares the final state against exact.
func Study(ctx context.Context, build func(dt float64) (integrators.Integrator, error), exact dynamo.Exact, tEnd float64, dts []float64) (*OrderTable, error) {
	table := &OrderTable{Dt: append([]float64(nil), dts...), Error: make([]float64, len(dts))}
	for i, dt := range dts {
		if dt <= 0 {
			return nil, fmt.Errorf("%w: step size %g", dynamo.ErrConfiguration, dt)
		}
		steps := int(math.Round(tEnd / dt))
		integ, err := build(dt)
		if err != nil {
			return nil, err
		}
		sol := trajectory.NewSolution(steps + 1)
		if _, err := sim.New(integ, sol).Run(ctx, sim.Config{Steps: steps, ValidateState: true}); err != nil {
			return nil, fmt.Errorf("dt=%g: %w", dt, err)
		}
		if table.Error[i], err = FinalError(sol, exact); err != nil {
			return nil, err
		}
	}

	var err error
	if table.Order, err = ConvergenceOrder(table.Dt, table.Error); err != nil {
		return table, err
	}
	table.Fitted, err = FitOrder(table.Dt, table.Error)
	return table, err
}
