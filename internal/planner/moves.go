package planner

import "math"

// Move is a single step on the grid with its traversal cost.
type Move struct {
	DRow, DCol int
	Cost       float64
}

// Moves is the 8-connected move set: axis-aligned steps cost 1, diagonal
// steps cost √2. The order fixes the expansion order of equal-cost
// neighbors.
var Moves = []Move{
	{DRow: 0, DCol: -1, Cost: 1},
	{DRow: 0, DCol: 1, Cost: 1},
	{DRow: -1, DCol: 0, Cost: 1},
	{DRow: 1, DCol: 0, Cost: 1},
	{DRow: -1, DCol: -1, Cost: math.Sqrt2},
	{DRow: -1, DCol: 1, Cost: math.Sqrt2},
	{DRow: 1, DCol: -1, Cost: math.Sqrt2},
	{DRow: 1, DCol: 1, Cost: math.Sqrt2},
}

// StepCost returns the cost of moving between two adjacent cells, and false
// if they are not one move apart.
func StepCost(dRow, dCol int) (float64, bool) {
	for _, m := range Moves {
		if m.DRow == dRow && m.DCol == dCol {
			return m.Cost, true
		}
	}
	return 0, false
}
