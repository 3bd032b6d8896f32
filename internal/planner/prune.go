package planner

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"grid-motion-planner/internal/grid"
)

// CollinearityEpsilon is the largest triangle area (as a cross product)
// treated as zero.
const CollinearityEpsilon = 1e-6

// collinear reports whether p1, p2 and p3 lie on one line.
func collinear(p1, p2, p3 grid.Cell) bool {
	a := r2.Sub(vec(p2), vec(p1))
	b := r2.Sub(vec(p3), vec(p1))
	return math.Abs(r2.Cross(a, b)) < CollinearityEpsilon
}

// Prune removes interior cells that lie on a straight line between their
// neighbors. The first and last cells and every direction change are kept.
// It makes a single pass with a three point window: when the window is
// collinear the middle cell is dropped and the same anchor is tried against
// the next cell, otherwise the window advances. The segments between kept
// cells are assumed, not checked, to be clear. path is not modified.
func Prune(path []grid.Cell) []grid.Cell {
	if len(path) < 3 {
		return append([]grid.Cell(nil), path...)
	}

	pruned := make([]grid.Cell, 0, len(path))
	pruned = append(pruned, path[0])
	middle := path[1]
	for _, next := range path[2:] {
		if !collinear(pruned[len(pruned)-1], middle, next) {
			pruned = append(pruned, middle)
		}
		middle = next
	}
	return append(pruned, middle)
}
