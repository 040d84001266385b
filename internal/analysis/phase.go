package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/geomint/internal/dynamo"
	"github.com/san-kum/geomint/internal/trajectory"
)

type Point struct{ X, Y float64 }

// PhasePortrait holds the (q_x, q_y) projection of a trajectory.
type PhasePortrait struct {
	XIndex, YIndex int
	Points         []Point
}

func NewPhasePortrait(sol *trajectory.Solution, xIdx, yIdx int) (*PhasePortrait, error) {
	if err := checkIndex(sol, xIdx, yIdx); err != nil {
		return nil, err
	}
	p := &PhasePortrait{XIndex: xIdx, YIndex: yIdx, Points: make([]Point, sol.Len())}
	for n, q := range sol.Q {
		p.Points[n] = Point{q[xIdx], q[yIdx]}
	}
	return p, nil
}

// PoincareSection records (q_x, q_y) where q_cross passes threshold
// upwards, interpolated linearly between the neighbouring cells.
func PoincareSection(sol *trajectory.Solution, crossIdx int, threshold float64, xIdx, yIdx int) ([]Point, error) {
	if err := checkIndex(sol, crossIdx, xIdx, yIdx); err != nil {
		return nil, err
	}
	points := make([]Point, 0)
	for n := 1; n < sol.Len(); n++ {
		prev, curr := sol.Q[n-1], sol.Q[n]
		if !(prev[crossIdx] < threshold && curr[crossIdx] >= threshold) {
			continue
		}
		frac := (threshold - prev[crossIdx]) / (curr[crossIdx] - prev[crossIdx])
		points = append(points, Point{
			X: prev[xIdx] + frac*(curr[xIdx]-prev[xIdx]),
			Y: prev[yIdx] + frac*(curr[yIdx]-prev[yIdx]),
		})
	}
	return points, nil
}

func checkIndex(sol *trajectory.Solution, idx ...int) error {
	for _, i := range idx {
		if i < 0 || i >= sol.Dim() {
			return fmt.Errorf("%w: coordinate %d of %d", dynamo.ErrDimensionMismatch, i, sol.Dim())
		}
	}
	return nil
}

// ASCII draws points on a width×height character grid with axes where
// they cross the visible range.
func ASCII(points []Point, width, height int) string {
	if len(points) == 0 || width < 2 || height < 2 {
		return ""
	}
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	minX, maxX = pad(minX, maxX)
	minY, maxY = pad(minY, maxY)

	col := func(x float64) int { return int((x - minX) / (maxX - minX) * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/(maxY-minY)*float64(height-1)) }

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	if minX <= 0 && maxX >= 0 {
		c := col(0)
		for r := range grid {
			grid[r][c] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		r := row(0)
		for c := range grid[r] {
			grid[r][c] = '─'
		}
	}
	for _, p := range points {
		grid[row(p.Y)][col(p.X)] = '•'
	}

	var sb strings.Builder
	for _, r := range grid {
		sb.WriteString(string(r))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// pad widens [lo, hi] by 10% on both sides, or to unit width when empty.
func pad(lo, hi float64) (float64, float64) {
	r := hi - lo
	if r == 0 {
		r = 1
	}
	return lo - 0.1*r, hi + 0.1*r
}
