// Package obstacles loads the collider table and indexes its boxes for
// altitude-band and point queries.
package obstacles

import "github.com/paulmach/orb"

// Obstacle is an axis-aligned box in the local frame. Altitude is positive up.
type Obstacle struct {
	North        float64 `json:"north"`
	East         float64 `json:"east"`
	Altitude     float64 `json:"altitude"`
	HalfNorth    float64 `json:"halfNorth"`
	HalfEast     float64 `json:"halfEast"`
	HalfAltitude float64 `json:"halfAltitude"`
}

// Bottom returns the lowest altitude covered by the obstacle.
func (o Obstacle) Bottom() float64 { return o.Altitude - o.HalfAltitude }

// Top returns the highest altitude covered by the obstacle.
func (o Obstacle) Top() float64 { return o.Altitude + o.HalfAltitude }

// InBand reports whether the obstacle's vertical extent intersects the
// closed interval [lo, hi].
func (o Obstacle) InBand(lo, hi float64) bool {
	return o.Bottom() <= hi && o.Top() >= lo
}

// Footprint returns the horizontal extent of the obstacle grown by margin
// on every side. X is east and Y is north, matching GeoJSON axis order.
func (o Obstacle) Footprint(margin float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{o.East - o.HalfEast - margin, o.North - o.HalfNorth - margin},
		Max: orb.Point{o.East + o.HalfEast + margin, o.North + o.HalfNorth + margin},
	}
}

// Table is the parsed collider file: a geodetic reference point and the
// obstacle rows expressed relative to it.
type Table struct {
	Lat0      float64
	Lon0      float64
	Obstacles []Obstacle
}
