package planner

import (
	"math"

	"grid-motion-planner/internal/grid"
)

// Waypoint is a position and heading command in the local frame. Heading is
// in radians, measured from north toward east.
type Waypoint struct {
	North    float64 `json:"north" msgpack:"north"`
	East     float64 `json:"east" msgpack:"east"`
	Altitude float64 `json:"altitude" msgpack:"altitude"`
	Heading  float64 `json:"heading" msgpack:"heading"`
}

// Waypoints maps cells to world coordinates at a fixed altitude. The first
// heading is 0; every later heading is the bearing from the previous
// waypoint, atan2(Δeast, Δnorth).
func Waypoints(path []grid.Cell, northOffset, eastOffset int, altitude float64) []Waypoint {
	waypoints := make([]Waypoint, 0, len(path))
	for _, c := range path {
		wp := Waypoint{
			North:    float64(c.Row + northOffset),
			East:     float64(c.Col + eastOffset),
			Altitude: altitude,
		}
		if n := len(waypoints); n > 0 {
			last := waypoints[n-1]
			wp.Heading = math.Atan2(wp.East-last.East, wp.North-last.North)
		}
		waypoints = append(waypoints, wp)
	}
	return waypoints
}
