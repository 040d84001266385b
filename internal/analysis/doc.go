// Package analysis post-processes recorded trajectories.
//
//   - [MaxError], [FinalError]: distance to a closed form solution
//   - [ConvergenceOrder], [FitOrder], [Study]: observed order of accuracy
//     over a sequence of step sizes
//   - [DominantFrequency]: oscillation frequency of one coordinate, for
//     phase error of periodic problems
//   - [PhasePortrait], [PoincareSection]: 2D views of a run
//
// # Convergence Order
//
// Run the same problem with halved step sizes and fit the slope:
//
//	table, err := analysis.Study(ctx, build, osc, 10, []float64{0.2, 0.1, 0.05})
//	fmt.Println(table.Fitted) // ≈ 4 for Gauss(2)
package analysis
