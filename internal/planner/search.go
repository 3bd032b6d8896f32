package planner

import (
	"container/heap"
	"context"

	"github.com/pkg/errors"

	"grid-motion-planner/internal/grid"
)

// cancelCheckInterval is how many expansions happen between context checks.
const cancelCheckInterval = 256

// Reasons reported by a SearchResult that found no path.
const (
	ReasonStartOutOfBounds = "start cell is outside the grid"
	ReasonStartOccupied    = "start cell is occupied"
	ReasonGoalOutOfBounds  = "goal cell is outside the grid"
	ReasonGoalOccupied     = "goal cell is occupied"
	ReasonUnreachable      = "no path found: frontier exhausted before reaching the goal"
)

// SearchResult is the outcome of a grid search. When Found is false Path is
// nil and Reason says why.
type SearchResult struct {
	Path     []grid.Cell
	Cost     float64
	Found    bool
	Expanded int
	Reason   string
}

// Search runs A* over g from start to goal using the 8-connected move set.
// A missing path is reported through the result, not as an error; the only
// error is cancellation of ctx, which is checked periodically.
func Search(ctx context.Context, g *grid.Grid, h Heuristic, start, goal grid.Cell) (SearchResult, error) {
	if h == nil {
		h = Euclidean
	}

	switch {
	case !g.InBounds(start):
		return SearchResult{Reason: ReasonStartOutOfBounds}, nil
	case g.Occupied(start):
		return SearchResult{Reason: ReasonStartOccupied}, nil
	case !g.InBounds(goal):
		return SearchResult{Reason: ReasonGoalOutOfBounds}, nil
	case g.Occupied(goal):
		return SearchResult{Reason: ReasonGoalOccupied}, nil
	case start == goal:
		return SearchResult{Path: []grid.Cell{start}, Found: true}, nil
	}

	cols := g.Cols()
	index := func(c grid.Cell) int { return c.Row*cols + c.Col }

	closed := make([]bool, g.Rows()*cols)
	open := make(map[int]*node)

	var seq uint64
	openSet := &priorityQueue{}
	startNode := &node{cell: start, f: h(start, goal), seq: seq}
	seq++
	heap.Push(openSet, startNode)
	open[index(start)] = startNode

	expanded := 0
	for openSet.Len() > 0 {
		if expanded%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return SearchResult{Expanded: expanded}, errors.Wrap(err, "grid search cancelled")
			}
		}

		current := heap.Pop(openSet).(*node)
		i := index(current.cell)
		delete(open, i)
		closed[i] = true
		expanded++

		if current.cell == goal {
			return SearchResult{
				Path:     reconstruct(current),
				Cost:     current.g,
				Found:    true,
				Expanded: expanded,
			}, nil
		}

		for _, m := range Moves {
			next := grid.Cell{Row: current.cell.Row + m.DRow, Col: current.cell.Col + m.DCol}
			if !g.Free(next) {
				continue
			}
			j := index(next)
			if closed[j] {
				continue
			}

			tentativeG := current.g + m.Cost
			neighbor, exists := open[j]
			if !exists {
				neighbor = &node{
					cell:   next,
					g:      tentativeG,
					f:      tentativeG + h(next, goal),
					seq:    seq,
					parent: current,
				}
				seq++
				heap.Push(openSet, neighbor)
				open[j] = neighbor
			} else if tentativeG < neighbor.g {
				// Found a better path to this neighbor
				neighbor.g = tentativeG
				neighbor.f = tentativeG + h(next, goal)
				neighbor.parent = current
				neighbor.seq = seq
				seq++
				heap.Fix(openSet, neighbor.index)
			}
		}
	}

	return SearchResult{Expanded: expanded, Reason: ReasonUnreachable}, nil
}

// reconstruct follows parent links back to the start and returns the path
// in start-first order.
func reconstruct(goal *node) []grid.Cell {
	var path []grid.Cell
	for n := goal; n != nil; n = n.parent {
		path = append(path, n.cell)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathCost sums the per-step costs along path. It returns false if two
// consecutive cells are not one move apart.
func PathCost(path []grid.Cell) (float64, bool) {
	cost := 0.0
	for i := 1; i < len(path); i++ {
		step, ok := StepCost(path[i].Row-path[i-1].Row, path[i].Col-path[i-1].Col)
		if !ok {
			return 0, false
		}
		cost += step
	}
	return cost, true
}
