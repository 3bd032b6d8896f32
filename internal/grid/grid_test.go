package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGridCells(t *testing.T) {
	g := New(3, 4, -10, 5)

	assert.True(t, g.InBounds(Cell{Row: 2, Col: 3}))
	assert.False(t, g.InBounds(Cell{Row: 3, Col: 0}))
	assert.False(t, g.InBounds(Cell{Row: 0, Col: -1}))

	g.Set(Cell{Row: 1, Col: 1}, true)
	assert.True(t, g.Occupied(Cell{Row: 1, Col: 1}))
	assert.False(t, g.Free(Cell{Row: 1, Col: 1}))
	assert.False(t, g.Occupied(Cell{Row: 9, Col: 9}))
	assert.False(t, g.Free(Cell{Row: 9, Col: 9}))

	g.Set(Cell{Row: 9, Col: 9}, true)
	assert.Equal(t, 1, g.OccupiedCount())
}

func TestGridCoordinates(t *testing.T) {
	g := New(10, 10, -10, 5)

	assert.Equal(t, Cell{Row: 0, Col: 0}, g.CellOf(-10, 5))
	assert.Equal(t, Cell{Row: 0, Col: 0}, g.CellOf(-9.01, 5.99))
	assert.Equal(t, Cell{Row: -1, Col: 0}, g.CellOf(-10.5, 5))

	north, east := g.World(Cell{Row: 3, Col: 4})
	assert.Equal(t, -7.0, north)
	assert.Equal(t, 9.0, east)
}

func TestGridFill(t *testing.T) {
	g := New(4, 4, 0, 0)
	g.Fill(-3, 1, 2, 10)
	assert.Equal(t, "....\n....\n..##\n..##\n", g.String())

	g.Fill(5, 8, 0, 3)
	g.Fill(2, 1, 0, 3)
	assert.Equal(t, 4, g.OccupiedCount())
}
