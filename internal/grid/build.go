package grid

import (
	"math"

	"github.com/pkg/errors"

	"grid-motion-planner/internal/obstacles"
)

var (
	// ErrNoObstacles is returned when there is nothing to derive grid bounds from.
	ErrNoObstacles = errors.New("no obstacles to derive grid bounds from")
	// ErrInvalidParameters is returned for a negative safety distance or a
	// non-finite altitude or safety distance.
	ErrInvalidParameters = errors.New("invalid grid parameters")
)

// Source supplies obstacles to the builder. *obstacles.Index implements it.
type Source interface {
	// Extent returns the horizontal bounds of every obstacle box.
	Extent() (minNorth, maxNorth, minEast, maxEast float64)
	// InBand returns the obstacles whose vertical extent intersects [lo, hi].
	InBand(lo, hi float64) []obstacles.Obstacle
	Len() int
}

// Build rasterizes the obstacles of src into a grid at the given altitude.
// An obstacle is drawn when its vertical extent intersects
// [altitude-safety, altitude+safety]; its footprint is grown by safety on
// every side and clipped to the grid. Grid bounds come from the obstacle
// boxes themselves, without the margin.
func Build(src Source, altitude, safety float64) (*Grid, error) {
	if src == nil || src.Len() == 0 {
		return nil, ErrNoObstacles
	}
	if safety < 0 || math.IsNaN(safety) || math.IsInf(safety, 0) {
		return nil, errors.Wrapf(ErrInvalidParameters, "safety distance %v", safety)
	}
	if math.IsNaN(altitude) || math.IsInf(altitude, 0) {
		return nil, errors.Wrapf(ErrInvalidParameters, "altitude %v", altitude)
	}

	minNorth, maxNorth, minEast, maxEast := src.Extent()
	northOffset := int(math.Floor(minNorth))
	eastOffset := int(math.Floor(minEast))
	rows := int(math.Ceil(maxNorth-minNorth)) + 1
	cols := int(math.Ceil(maxEast-minEast)) + 1

	g := New(rows, cols, northOffset, eastOffset)
	for _, o := range src.InBand(altitude-safety, altitude+safety) {
		g.Fill(
			int(math.Floor(o.North-o.HalfNorth-safety))-northOffset,
			int(math.Floor(o.North+o.HalfNorth+safety))-northOffset,
			int(math.Floor(o.East-o.HalfEast-safety))-eastOffset,
			int(math.Floor(o.East+o.HalfEast+safety))-eastOffset,
		)
	}
	return g, nil
}
