package planner

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"

	"grid-motion-planner/internal/grid"
)

// goalAttemptsPerCell sets the default sampling budget relative to grid size.
const goalAttemptsPerCell = 10

// ErrNoFreeCell is returned when random goal sampling exhausts its budget.
var ErrNoFreeCell = errors.New("no unoccupied goal cell found")

// Position is a point in the local north/east frame.
type Position struct {
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// GoalResolution is the grid goal chosen for a request.
type GoalResolution struct {
	Cell     grid.Cell
	Sampled  bool
	Attempts int
	Warnings []string
}

// ResolveGoal picks the grid goal. An explicit goal is converted with the
// grid offsets and used as given even when it is occupied or outside the
// grid; both cases are flagged in Warnings and the search then reports no
// path. Without a goal, cells are drawn uniformly from rng until a free one
// is found or maxAttempts draws have been made (maxAttempts <= 0 means
// ten per grid cell).
func ResolveGoal(g *grid.Grid, goal *Position, rng *rand.Rand, maxAttempts int) (GoalResolution, error) {
	if goal != nil {
		res := GoalResolution{Cell: g.CellOf(goal.North, goal.East)}
		switch {
		case !g.InBounds(res.Cell):
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"goal (%.2f, %.2f) maps to cell %v outside the %dx%d grid",
				goal.North, goal.East, res.Cell, g.Rows(), g.Cols()))
		case g.Occupied(res.Cell):
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"goal (%.2f, %.2f) at cell %v is inside an obstruction",
				goal.North, goal.East, res.Cell))
		}
		return res, nil
	}

	if rng == nil {
		return GoalResolution{}, errors.New("random goal requested without a random source")
	}
	if g.Rows() == 0 || g.Cols() == 0 {
		return GoalResolution{}, errors.Wrap(ErrNoFreeCell, "grid is empty")
	}
	if maxAttempts <= 0 {
		maxAttempts = goalAttemptsPerCell * g.Rows() * g.Cols()
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c := grid.Cell{Row: rng.Intn(g.Rows()), Col: rng.Intn(g.Cols())}
		if g.Free(c) {
			return GoalResolution{Cell: c, Sampled: true, Attempts: attempt}, nil
		}
	}
	return GoalResolution{Attempts: maxAttempts}, errors.Wrapf(ErrNoFreeCell, "after %d attempts", maxAttempts)
}
