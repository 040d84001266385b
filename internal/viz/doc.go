// Package viz renders a running integrator in the terminal with Bubble Tea.
//
// [Model] steps an integrator on every tick, keeps a bounded history of
// snapshots and draws the phase portrait of two chosen coordinates on a
// braille [Canvas], next to an energy drift plot and solver statistics.
//
// # Key Bindings
//
//	Space, P - pause or resume
//	R        - restart from the initial data
//	[ ]      - step back and forth through the history
//	← →      - change the plotted coordinate
//	+ -      - more or fewer steps per frame
//	T        - cycle color themes
//	?        - help
//	Q        - quit
package viz
