// Package export writes plans and obstacle maps in formats other tools
// consume: GeoJSON for map viewers, msgpack for the simulator link and JSON
// for saved plans.
package export

import (
	"encoding/json"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"

	"grid-motion-planner/internal/geoframe"
	"grid-motion-planner/internal/obstacles"
	"grid-motion-planner/internal/planner"
)

// Projection maps a local north/east position to a GeoJSON coordinate.
type Projection func(north, east float64) orb.Point

// Local keeps coordinates in the local frame, x = east and y = north.
func Local(north, east float64) orb.Point { return orb.Point{east, north} }

// Geodetic projects local positions to lon/lat around home.
func Geodetic(home geoframe.Global) Projection {
	return func(north, east float64) orb.Point {
		return geoframe.LocalToGlobal(geoframe.Local{North: north, East: east}, home).Point()
	}
}

// Obstacles returns the footprints of obs grown by margin as polygons.
func Obstacles(obs []obstacles.Obstacle, margin float64, proj Projection) *geojson.FeatureCollection {
	if proj == nil {
		proj = Local
	}
	fc := geojson.NewFeatureCollection()
	for _, o := range obs {
		fc.Append(footprintFeature(o, margin, proj))
	}
	return fc
}

func footprintFeature(o obstacles.Obstacle, margin float64, proj Projection) *geojson.Feature {
	ring := o.Footprint(margin).ToRing()
	projected := make(orb.Ring, len(ring))
	for i, p := range ring {
		projected[i] = proj(p[1], p[0])
	}

	f := geojson.NewFeature(orb.Polygon{projected})
	f.Properties["kind"] = "obstacle"
	f.Properties["north"] = o.North
	f.Properties["east"] = o.East
	f.Properties["bottom"] = o.Bottom()
	f.Properties["top"] = o.Top()
	return f
}

// Plan returns the obstacle footprints in the planning band, the raw grid
// path and the waypoint route of res. A result without a path only carries
// the obstacles.
func Plan(res *planner.Result, obs []obstacles.Obstacle, margin float64, proj Projection) *geojson.FeatureCollection {
	if proj == nil {
		proj = Local
	}
	fc := Obstacles(obs, margin, proj)
	if res == nil || !res.Found() {
		return fc
	}

	if res.Grid != nil && len(res.RawPath) > 1 {
		raw := make(orb.LineString, 0, len(res.RawPath))
		for _, c := range res.RawPath {
			north, east := res.Grid.World(c)
			raw = append(raw, proj(north, east))
		}
		f := geojson.NewFeature(raw)
		f.Properties["kind"] = "raw-path"
		f.Properties["cost"] = res.Cost
		f.Properties["cells"] = len(res.RawPath)
		fc.Append(f)
	}

	route := make(orb.LineString, 0, len(res.Waypoints))
	for i, wp := range res.Waypoints {
		p := proj(wp.North, wp.East)
		route = append(route, p)

		f := geojson.NewFeature(p)
		f.Properties["kind"] = "waypoint"
		f.Properties["index"] = i
		f.Properties["altitude"] = wp.Altitude
		f.Properties["heading"] = wp.Heading
		fc.Append(f)
	}
	if len(route) > 1 {
		f := geojson.NewFeature(route)
		f.Properties["kind"] = "route"
		f.Properties["plan"] = res.Diagnostics.PlanID
		fc.Append(f)
	}
	return fc
}

// WriteGeoJSON writes fc to filename.
func WriteGeoJSON(fc *geojson.FeatureCollection, filename string) error {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal feature collection")
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write file")
	}
	return nil
}
