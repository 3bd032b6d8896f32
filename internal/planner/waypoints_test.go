package planner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grid-motion-planner/internal/grid"
)

func TestWaypoints(t *testing.T) {
	path := []grid.Cell{cell(0, 0), cell(0, 4), cell(3, 4), cell(5, 6)}
	wps := Waypoints(path, -10, 20, 5)
	require.Len(t, wps, 4)

	assert.Equal(t, Waypoint{North: -10, East: 20, Altitude: 5, Heading: 0}, wps[0])
	assert.Equal(t, -10.0, wps[1].North)
	assert.Equal(t, 24.0, wps[1].East)

	// due east, due north, then north-east
	assert.InDelta(t, math.Pi/2, wps[1].Heading, 1e-12)
	assert.InDelta(t, 0, wps[2].Heading, 1e-12)
	assert.InDelta(t, math.Pi/4, wps[3].Heading, 1e-12)
	for _, wp := range wps {
		assert.Equal(t, 5.0, wp.Altitude)
	}
}

func TestWaypointsHeadingSigns(t *testing.T) {
	wps := Waypoints([]grid.Cell{cell(5, 5), cell(5, 2), cell(1, 2)}, 0, 0, 3)
	assert.InDelta(t, -math.Pi/2, wps[1].Heading, 1e-12, "west")
	assert.InDelta(t, math.Pi, wps[2].Heading, 1e-12, "south")
}

func TestWaypointsStraightRun(t *testing.T) {
	var path []grid.Cell
	for col := 0; col < 12; col++ {
		path = append(path, cell(3, col))
	}

	// unpruned, every step has the same bearing
	wps := Waypoints(path, 0, 0, 5)
	assert.Zero(t, wps[0].Heading)
	for _, wp := range wps[1:] {
		assert.Equal(t, wps[1].Heading, wp.Heading)
	}

	pruned := Waypoints(Prune(path), 0, 0, 5)
	require.Len(t, pruned, 2)
	assert.Zero(t, pruned[0].Heading)
	assert.Equal(t, wps[1].Heading, pruned[1].Heading)
}

func TestWaypointsEmpty(t *testing.T) {
	assert.Empty(t, Waypoints(nil, 0, 0, 5))
}
