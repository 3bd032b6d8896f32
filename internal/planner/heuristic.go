package planner

import (
	"gonum.org/v1/gonum/spatial/r2"

	"grid-motion-planner/internal/grid"
)

// Heuristic estimates the remaining cost between two cells. It must never
// overestimate the true cost for Search to stay optimal.
type Heuristic func(a, b grid.Cell) float64

// Euclidean is the straight-line distance between two cells, admissible for
// the 8-connected move set.
func Euclidean(a, b grid.Cell) float64 {
	return r2.Norm(r2.Sub(vec(a), vec(b)))
}

func vec(c grid.Cell) r2.Vec {
	return r2.Vec{X: float64(c.Row), Y: float64(c.Col)}
}
