// Package grid holds the 2-D occupancy grid the planner searches, and the
// builder that rasterizes obstacle boxes into it at a planning altitude.
package grid

import (
	"fmt"
	"math"
	"strings"
)

// Cell is a (row, col) index into a Grid. Row runs north, Col runs east.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d, %d)", c.Row, c.Col)
}

// Grid is a dense row-major occupancy matrix. NorthOffset and EastOffset are
// the world coordinates mapped to index 0 on each axis.
type Grid struct {
	NorthOffset int
	EastOffset  int

	rows, cols int
	cells      []bool
}

// New returns an empty rows×cols grid.
func New(rows, cols, northOffset, eastOffset int) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Grid{
		NorthOffset: northOffset,
		EastOffset:  eastOffset,
		rows:        rows,
		cols:        cols,
		cells:       make([]bool, rows*cols),
	}
}

// Rows returns the number of north cells.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of east cells.
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether c indexes a cell of the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < g.rows && c.Col >= 0 && c.Col < g.cols
}

// Occupied reports whether c is blocked. Out of bounds cells are not
// occupied; callers check InBounds or use Free.
func (g *Grid) Occupied(c Cell) bool {
	return g.InBounds(c) && g.cells[c.Row*g.cols+c.Col]
}

// Free reports whether c is in bounds and unoccupied.
func (g *Grid) Free(c Cell) bool {
	return g.InBounds(c) && !g.cells[c.Row*g.cols+c.Col]
}

// Set marks c as occupied or free. Out of bounds cells are ignored.
func (g *Grid) Set(c Cell, occupied bool) {
	if !g.InBounds(c) {
		return
	}
	g.cells[c.Row*g.cols+c.Col] = occupied
}

// Fill marks every cell of the inclusive rectangle [r0, r1] × [c0, c1] as
// occupied, clipped to the grid.
func (g *Grid) Fill(r0, r1, c0, c1 int) {
	if r1 < 0 || c1 < 0 || r0 >= g.rows || c0 >= g.cols || r0 > r1 || c0 > c1 {
		return
	}
	r0, r1 = clamp(r0, 0, g.rows-1), clamp(r1, 0, g.rows-1)
	c0, c1 = clamp(c0, 0, g.cols-1), clamp(c1, 0, g.cols-1)
	for r := r0; r <= r1; r++ {
		row := g.cells[r*g.cols : (r+1)*g.cols]
		for c := c0; c <= c1; c++ {
			row[c] = true
		}
	}
}

// OccupiedCount returns the number of blocked cells.
func (g *Grid) OccupiedCount() int {
	n := 0
	for _, occ := range g.cells {
		if occ {
			n++
		}
	}
	return n
}

// CellOf maps a world position to its grid cell: floor(coord) - offset.
// The result may be out of bounds.
func (g *Grid) CellOf(north, east float64) Cell {
	return Cell{
		Row: int(math.Floor(north)) - g.NorthOffset,
		Col: int(math.Floor(east)) - g.EastOffset,
	}
}

// World maps a cell back to world coordinates.
func (g *Grid) World(c Cell) (north, east float64) {
	return float64(c.Row + g.NorthOffset), float64(c.Col + g.EastOffset)
}

// String renders the grid with north up, '#' for occupied cells.
func (g *Grid) String() string {
	var b strings.Builder
	for r := g.rows - 1; r >= 0; r-- {
		for c := 0; c < g.cols; c++ {
			if g.cells[r*g.cols+c] {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
